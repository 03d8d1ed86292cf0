package events

import "log/slog"

// LogSink writes each event to logger. Setup boundaries and test starts are
// logged at Debug, outcomes at Info (Warn for failures).
func LogSink(logger *slog.Logger) Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return Adapt(HandlerFunc(func(e Event) {
		attrs := []any{"test", e.Ref.Name(), "path", e.Ref.Path()}
		switch e.Type {
		case TypeTestPassed:
			logger.Info("test passed", append(attrs, "elapsed", e.Elapsed)...)
		case TypeTestFailed:
			logger.Warn("test failed", append(attrs, "elapsed", e.Elapsed, "error", e.Err)...)
		case TypeTestSkipped:
			logger.Info("test skipped", append(attrs, "reason", e.Reason)...)
		default:
			logger.Debug(string(e.Type), attrs...)
		}
	}))
}
