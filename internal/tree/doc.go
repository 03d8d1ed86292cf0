// Package tree holds the scope tree a suite is built into: nested scopes
// (describe blocks) owning hooks, test blocks (it blocks) and child scopes.
//
// STRUCTURE:
//
// A tree is a strict hierarchy. Every scope except the root has exactly one
// parent, and a scope exclusively owns its children, hooks and test blocks.
// Declaration order is preserved everywhere and is significant: hooks run in
// list order, and Enumerate yields tests in a stable depth-first pre-order.
//
// Each scope and test block carries an Index, its position among its
// siblings. The dot-joined chain of scope indices plus the test index (see
// TestPath) re-identifies a test when discovery and execution happen in
// separate passes over freshly built trees.
//
// MUTATION:
//
// The shape of the tree is fixed once Build returns. Only three runtime flags
// change afterwards (Scope.HasRunBeforeAlls, Scope.HasRunAfterAlls and
// TestBlock.HasRun), each written by the runner exactly once, false to true.
// Nothing here is safe for concurrent mutation; the runner executes tests
// one at a time.
//
// CONSTRUCTION:
//
// Trees are assembled through a Builder, an explicit construction context
// passed into the populate callback. There is no ambient "current scope".
// Registering anything on a sealed builder, or on a builder with no active
// scope, panics with a *ConstructionError; Build converts such a panic raised
// during populate into an error.
package tree
