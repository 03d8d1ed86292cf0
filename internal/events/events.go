// Package events defines the sink the runner reports lifecycle transitions
// to, and a few stock implementations.
//
// The runner calls a Sink synchronously, in lifecycle order, from the single
// goroutine executing tests. Implementations that hand events to other
// goroutines must do their own synchronization.
package events

import (
	"time"

	"github.com/roach88/orchard/internal/output"
	"github.com/roach88/orchard/internal/tree"
)

// TestRef identifies the test an event is about.
type TestRef struct {
	Scope *tree.Scope
	Test  *tree.TestBlock
}

// Name is the qualified, dot-joined description of the test.
func (r TestRef) Name() string {
	return tree.FullName(r.Scope, r.Test)
}

// Path is the index path of the test.
func (r TestRef) Path() string {
	return tree.TestPath(r.Scope, r.Test)
}

// Sink receives lifecycle notifications for each executed test.
//
// For a test that runs, the order is BeforeSetupStarting,
// BeforeSetupFinished, TestStarting, TestPassed or TestFailed, TestFinished,
// AfterSetupStarting, AfterSetupFinished. A hook failure ends the sequence
// early. A skipped test produces TestSkipped alone.
type Sink interface {
	BeforeSetupStarting(ref TestRef)
	BeforeSetupFinished(ref TestRef)
	TestStarting(ref TestRef)
	TestPassed(ref TestRef, elapsed time.Duration, out output.Output)
	TestFailed(ref TestRef, err error, elapsed time.Duration, out output.Output)
	TestSkipped(ref TestRef, reason string)
	TestFinished(ref TestRef, elapsed time.Duration, out output.Output)
	AfterSetupStarting(ref TestRef)
	AfterSetupFinished(ref TestRef)
}

// Type names a lifecycle transition.
type Type string

const (
	TypeBeforeSetupStarting Type = "before_setup_starting"
	TypeBeforeSetupFinished Type = "before_setup_finished"
	TypeTestStarting        Type = "test_starting"
	TypeTestPassed          Type = "test_passed"
	TypeTestFailed          Type = "test_failed"
	TypeTestSkipped         Type = "test_skipped"
	TypeTestFinished        Type = "test_finished"
	TypeAfterSetupStarting  Type = "after_setup_starting"
	TypeAfterSetupFinished  Type = "after_setup_finished"
)

// Event is a flattened Sink call.
type Event struct {
	Type Type
	Ref  TestRef

	// Elapsed and Output are set for passed, failed and finished events.
	Elapsed time.Duration
	Output  output.Output

	// Err is set for failed events.
	Err error

	// Reason is set for skipped events.
	Reason string
}

// Handler consumes flattened events.
type Handler interface {
	Handle(e Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(e Event)

// Handle implements Handler.
func (f HandlerFunc) Handle(e Event) { f(e) }

// Adapt turns a Handler into a Sink, flattening every call into an Event.
func Adapt(h Handler) Sink {
	return adapter{h: h}
}

type adapter struct {
	h Handler
}

func (a adapter) BeforeSetupStarting(ref TestRef) {
	a.h.Handle(Event{Type: TypeBeforeSetupStarting, Ref: ref})
}

func (a adapter) BeforeSetupFinished(ref TestRef) {
	a.h.Handle(Event{Type: TypeBeforeSetupFinished, Ref: ref})
}

func (a adapter) TestStarting(ref TestRef) {
	a.h.Handle(Event{Type: TypeTestStarting, Ref: ref})
}

func (a adapter) TestPassed(ref TestRef, elapsed time.Duration, out output.Output) {
	a.h.Handle(Event{Type: TypeTestPassed, Ref: ref, Elapsed: elapsed, Output: out})
}

func (a adapter) TestFailed(ref TestRef, err error, elapsed time.Duration, out output.Output) {
	a.h.Handle(Event{Type: TypeTestFailed, Ref: ref, Err: err, Elapsed: elapsed, Output: out})
}

func (a adapter) TestSkipped(ref TestRef, reason string) {
	a.h.Handle(Event{Type: TypeTestSkipped, Ref: ref, Reason: reason})
}

func (a adapter) TestFinished(ref TestRef, elapsed time.Duration, out output.Output) {
	a.h.Handle(Event{Type: TypeTestFinished, Ref: ref, Elapsed: elapsed, Output: out})
}

func (a adapter) AfterSetupStarting(ref TestRef) {
	a.h.Handle(Event{Type: TypeAfterSetupStarting, Ref: ref})
}

func (a adapter) AfterSetupFinished(ref TestRef) {
	a.h.Handle(Event{Type: TypeAfterSetupFinished, Ref: ref})
}

// Nop discards every event.
var Nop Sink = Adapt(HandlerFunc(func(Event) {}))
