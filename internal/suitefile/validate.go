package suitefile

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidationError locates one problem in a suite document.
type ValidationError struct {
	Path    string // e.g. "scopes[1].tests[0].steps[2]"
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// Validate reports every problem in s, joined.
func Validate(s *Suite) error {
	v := &validator{}
	v.scope("", &s.Scope)
	for i, mark := range s.Trace {
		if strings.TrimSpace(mark) == "" {
			v.addf(fmt.Sprintf("trace[%d]", i), "mark must not be empty")
		}
	}
	return errors.Join(v.errs...)
}

type validator struct {
	errs []error
}

func (v *validator) addf(path, format string, args ...any) {
	v.errs = append(v.errs, &ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func join(prefix, field string) string {
	if prefix == "" {
		return field
	}
	return prefix + "." + field
}

func (v *validator) scope(path string, s *Scope) {
	if strings.TrimSpace(s.Name) == "" {
		v.addf(path, "name is required")
	}
	v.timeout(join(path, "timeout"), s.Timeout)

	v.steps(join(path, "before_all"), s.BeforeAll)
	v.steps(join(path, "before_each"), s.BeforeEach)
	v.steps(join(path, "after_each"), s.AfterEach)
	v.steps(join(path, "after_all"), s.AfterAll)

	for i := range s.Tests {
		v.test(join(path, fmt.Sprintf("tests[%d]", i)), &s.Tests[i])
	}
	for i := range s.Scopes {
		v.scope(join(path, fmt.Sprintf("scopes[%d]", i)), &s.Scopes[i])
	}
}

func (v *validator) test(path string, t *Test) {
	if strings.TrimSpace(t.Name) == "" {
		v.addf(path, "name is required")
	}
	v.timeout(join(path, "timeout"), t.Timeout)
	v.steps(join(path, "steps"), t.Steps)

	switch t.Expect {
	case "", ExpectPassed, ExpectFailed, ExpectSkipped:
	default:
		v.addf(join(path, "expect"), "unknown outcome %q (want passed, failed or skipped)", t.Expect)
	}
}

func (v *validator) timeout(path, raw string) {
	if raw == "" {
		return
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		v.addf(path, "invalid duration %q", raw)
		return
	}
	if d <= 0 {
		v.addf(path, "must be positive, got %s", raw)
	}
}

func (v *validator) steps(path string, steps []Step) {
	for i, st := range steps {
		p := fmt.Sprintf("%s[%d]", path, i)
		switch kinds := st.kinds(); len(kinds) {
		case 0:
			v.addf(p, "step needs one of log, mark, sleep or fail")
			continue
		case 1:
		default:
			v.addf(p, "step sets %s; exactly one is allowed", strings.Join(kinds, " and "))
			continue
		}
		if st.Mark != nil && strings.TrimSpace(*st.Mark) == "" {
			v.addf(p, "mark must not be empty")
		}
		if st.Sleep != nil {
			d, err := time.ParseDuration(*st.Sleep)
			if err != nil {
				v.addf(p, "invalid sleep duration %q", *st.Sleep)
			} else if d < 0 {
				v.addf(p, "sleep must not be negative, got %s", *st.Sleep)
			}
		}
	}
}
