package events

import (
	"time"

	"github.com/roach88/orchard/internal/output"
)

// Multi fans every call out to each sink in order. Nil sinks are dropped.
func Multi(sinks ...Sink) Sink {
	var ms multi
	for _, s := range sinks {
		if s != nil {
			ms = append(ms, s)
		}
	}
	return ms
}

type multi []Sink

func (m multi) BeforeSetupStarting(ref TestRef) {
	for _, s := range m {
		s.BeforeSetupStarting(ref)
	}
}

func (m multi) BeforeSetupFinished(ref TestRef) {
	for _, s := range m {
		s.BeforeSetupFinished(ref)
	}
}

func (m multi) TestStarting(ref TestRef) {
	for _, s := range m {
		s.TestStarting(ref)
	}
}

func (m multi) TestPassed(ref TestRef, elapsed time.Duration, out output.Output) {
	for _, s := range m {
		s.TestPassed(ref, elapsed, out)
	}
}

func (m multi) TestFailed(ref TestRef, err error, elapsed time.Duration, out output.Output) {
	for _, s := range m {
		s.TestFailed(ref, err, elapsed, out)
	}
}

func (m multi) TestSkipped(ref TestRef, reason string) {
	for _, s := range m {
		s.TestSkipped(ref, reason)
	}
}

func (m multi) TestFinished(ref TestRef, elapsed time.Duration, out output.Output) {
	for _, s := range m {
		s.TestFinished(ref, elapsed, out)
	}
}

func (m multi) AfterSetupStarting(ref TestRef) {
	for _, s := range m {
		s.AfterSetupStarting(ref)
	}
}

func (m multi) AfterSetupFinished(ref TestRef) {
	for _, s := range m {
		s.AfterSetupFinished(ref)
	}
}
