// Package suitefile loads declarative suite documents and compiles them
// into scope trees.
//
// A suite document describes a tree of scopes, hooks and tests whose bodies
// are short scripts of steps:
//
//	log:   write a line to the test's output
//	mark:  append a name to the run trace
//	sleep: wait for a duration, or until the test is cancelled
//	fail:  return an error with the given message
//
// Documents are YAML (strict, unknown fields rejected) or CUE (checked
// against the #Suite schema). Tests may carry an expected outcome and the
// suite an expected trace; Check compares a finished run against both.
package suitefile
