package suitefile

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/orchard/internal/tree"
)

// Check compares the recorded run against the document's expectations and
// returns one message per mismatch. An empty result means the run conformed.
func (c *Compiled) Check() []string {
	var problems []string

	for s, tb := range tree.Enumerate(c.Root) {
		want, ok := c.expect[tb]
		if !ok {
			continue
		}
		got := c.Outcome(tb)
		switch {
		case got == "":
			problems = append(problems, fmt.Sprintf("%s: expected %s, but it never reported", tree.FullName(s, tb), want))
		case got != want:
			problems = append(problems, fmt.Sprintf("%s: expected %s, got %s", tree.FullName(s, tb), want, got))
		}
	}

	if c.Suite.Trace != nil {
		got := c.Trace()
		if !slices.Equal(got, c.Suite.Trace) {
			problems = append(problems, fmt.Sprintf("trace mismatch:\n  want: [%s]\n  got:  [%s]",
				strings.Join(c.Suite.Trace, ", "), strings.Join(got, ", ")))
		}
	}
	return problems
}
