package tree

import "iter"

// Enumerate yields every (scope, test) pair under s in depth-first pre-order:
// a scope's own tests in declaration order, then each child subtree in
// declaration order.
//
// The sequence is lazy and restartable; ranging over it twice on the same
// tree yields the same pairs in the same order.
func Enumerate(s *Scope) iter.Seq2[*Scope, *TestBlock] {
	return func(yield func(*Scope, *TestBlock) bool) {
		if s == nil {
			return
		}
		stack := []*Scope{s}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			for _, tb := range cur.Tests {
				if !yield(cur, tb) {
					return
				}
			}
			// Push in reverse so the first child is visited first.
			for i := len(cur.Children) - 1; i >= 0; i-- {
				stack = append(stack, cur.Children[i])
			}
		}
	}
}

// Entry is one enumerated test, for callers that want a slice.
type Entry struct {
	Scope *Scope
	Test  *TestBlock
}

// Collect materializes Enumerate(s).
func Collect(s *Scope) []Entry {
	var entries []Entry
	for sc, tb := range Enumerate(s) {
		entries = append(entries, Entry{Scope: sc, Test: tb})
	}
	return entries
}
