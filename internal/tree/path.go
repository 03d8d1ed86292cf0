package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// IndexPath is the dot-joined chain of sibling indices from the root to s,
// e.g. "0.2.1". It identifies s within any tree built from the same
// description.
func (s *Scope) IndexPath() string {
	chain := s.Lineage()
	parts := make([]string, len(chain))
	for i, sc := range chain {
		parts[i] = strconv.Itoa(sc.Index)
	}
	return strings.Join(parts, ".")
}

// TestPath identifies tb as its scope's IndexPath followed by ":" and the
// test index, e.g. "0.2.1:3".
func TestPath(s *Scope, tb *TestBlock) string {
	return s.IndexPath() + ":" + strconv.Itoa(tb.Index)
}

// FullName joins every description from the root down to tb with ".".
func FullName(s *Scope, tb *TestBlock) string {
	return strings.Join(nameParts(s, tb), ".")
}

// SlashName joins the same descriptions with "/", the form glob filters
// match against.
func SlashName(s *Scope, tb *TestBlock) string {
	return strings.Join(nameParts(s, tb), "/")
}

func nameParts(s *Scope, tb *TestBlock) []string {
	chain := s.Lineage()
	parts := make([]string, 0, len(chain)+1)
	for _, sc := range chain {
		parts = append(parts, normalize(sc.Description))
	}
	return append(parts, normalize(tb.Description))
}

// Find resolves a TestPath against root.
func Find(root *Scope, path string) (*Scope, *TestBlock, error) {
	scopePart, testPart, ok := strings.Cut(path, ":")
	if !ok {
		return nil, nil, fmt.Errorf("invalid test path %q: missing ':'", path)
	}
	testIdx, err := strconv.Atoi(testPart)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid test path %q: bad test index: %w", path, err)
	}

	indices := strings.Split(scopePart, ".")
	rootIdx, err := strconv.Atoi(indices[0])
	if err != nil || rootIdx != root.Index {
		return nil, nil, fmt.Errorf("invalid test path %q: root index does not match", path)
	}

	cur := root
	for _, part := range indices[1:] {
		idx, err := strconv.Atoi(part)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid test path %q: bad scope index %q: %w", path, part, err)
		}
		if idx < 0 || idx >= len(cur.Children) {
			return nil, nil, fmt.Errorf("test path %q: scope index %d out of range under %q", path, idx, cur.Description)
		}
		cur = cur.Children[idx]
	}

	if testIdx < 0 || testIdx >= len(cur.Tests) {
		return nil, nil, fmt.Errorf("test path %q: test index %d out of range in %q", path, testIdx, cur.Description)
	}
	return cur, cur.Tests[testIdx], nil
}
