// Package output captures the text a single test writes while its hooks and
// body run.
//
// A Sink is handed to hooks and the body through runner.TestInput. After the
// test finishes the runner snapshots it with Output. A body that outlived its
// timeout may still hold the Sink and write to it from a detached goroutine,
// so every method is safe for concurrent use; such late writes never appear in
// snapshots taken before them.
package output

import (
	"fmt"
	"strings"
	"sync"
)

// Writer is the write side of a Sink as seen by test code.
type Writer interface {
	// WriteLine appends message as one entry.
	WriteLine(message string)

	// WriteLinef formats according to format and appends the result.
	WriteLinef(format string, args ...any)
}

// Output is an immutable snapshot of a Sink.
type Output struct {
	// Text is every message joined by newlines.
	Text string

	// Messages is the ordered list of messages.
	Messages []string
}

// Sink accumulates ordered messages for a single test execution.
type Sink struct {
	mu       sync.Mutex
	messages []string
}

// New returns an empty sink.
func New() *Sink {
	return &Sink{}
}

// WriteLine implements Writer.
func (s *Sink) WriteLine(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
}

// WriteLinef implements Writer.
func (s *Sink) WriteLinef(format string, args ...any) {
	s.WriteLine(fmt.Sprintf(format, args...))
}

// Len returns the number of messages written so far.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Output returns a snapshot of everything written so far.
// The returned slice is a copy and is never mutated by later writes.
func (s *Sink) Output() Output {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := make([]string, len(s.messages))
	copy(msgs, s.messages)
	return Output{
		Text:     strings.Join(msgs, "\n"),
		Messages: msgs,
	}
}
