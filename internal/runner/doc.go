// Package runner executes test blocks of a scope tree one at a time.
//
// ARCHITECTURE:
//
// Single-Threaded Lifecycle:
// Run executes exactly one test: skip resolution, the beforeAll cascade
// (root first, once per scope per run), the beforeEach cascade (root first,
// every test), the body raced against its effective timeout, the afterEach
// cascade (leaf first, every test) and the afterAll cascade (leaf first, once
// per scope, only when the scope's whole subtree has run). Callers invoke Run
// sequentially in tree.Enumerate order; RunAll does exactly that.
//
// The tree's has-run flags are written only from the goroutine calling Run,
// so no locking is involved.
//
// Failure Classes:
//   - Body error or panic: recovered, reported as a failed test.
//   - Timeout: the body did not return within the effective timeout. The test
//     fails with a *TimeoutError and the body's context is cancelled.
//   - Hook error: returned from Run as a *HookError. Not recovered; the
//     remaining cascade for that test is abandoned and the caller decides
//     whether to continue. Hook panics are not recovered either.
//
// DETACHED BODIES:
//
// Cancellation is cooperative. A body that ignores TestInput.Done() keeps
// running in its own goroutine after the runner has moved on to afterEach
// hooks and later tests. It may still write to its output sink and touch
// shared fixtures. Runner.Detached reports how many such bodies are still
// running, and each abandonment is logged at Warn.
package runner
