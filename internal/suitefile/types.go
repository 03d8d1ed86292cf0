package suitefile

// Suite is a whole document: the root scope plus the expected trace.
type Suite struct {
	Scope `yaml:",inline"`

	// Trace is the expected sequence of marks. Nil disables the check.
	Trace []string `yaml:"trace,omitempty" json:"trace,omitempty"`
}

// Scope is a describe block.
type Scope struct {
	Name    string `yaml:"name" json:"name"`
	Timeout string `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Only    bool   `yaml:"only,omitempty" json:"only,omitempty"`
	Skip    bool   `yaml:"skip,omitempty" json:"skip,omitempty"`

	BeforeAll  []Step `yaml:"before_all,omitempty" json:"before_all,omitempty"`
	BeforeEach []Step `yaml:"before_each,omitempty" json:"before_each,omitempty"`
	AfterEach  []Step `yaml:"after_each,omitempty" json:"after_each,omitempty"`
	AfterAll   []Step `yaml:"after_all,omitempty" json:"after_all,omitempty"`

	Tests  []Test  `yaml:"tests,omitempty" json:"tests,omitempty"`
	Scopes []Scope `yaml:"scopes,omitempty" json:"scopes,omitempty"`
}

// Test is an it block.
type Test struct {
	Name    string `yaml:"name" json:"name"`
	Steps   []Step `yaml:"steps,omitempty" json:"steps,omitempty"`
	Timeout string `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Only    bool   `yaml:"only,omitempty" json:"only,omitempty"`
	Skip    bool   `yaml:"skip,omitempty" json:"skip,omitempty"`

	// Expect is the outcome Check requires: passed, failed or skipped.
	Expect string `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// Step is one scripted action. Exactly one field must be set.
type Step struct {
	Log   *string `yaml:"log,omitempty" json:"log,omitempty"`
	Mark  *string `yaml:"mark,omitempty" json:"mark,omitempty"`
	Sleep *string `yaml:"sleep,omitempty" json:"sleep,omitempty"`
	Fail  *string `yaml:"fail,omitempty" json:"fail,omitempty"`
}

// Expected outcomes.
const (
	ExpectPassed  = "passed"
	ExpectFailed  = "failed"
	ExpectSkipped = "skipped"
)

// kinds returns the names of the fields set on s.
func (s Step) kinds() []string {
	var k []string
	if s.Log != nil {
		k = append(k, "log")
	}
	if s.Mark != nil {
		k = append(k, "mark")
	}
	if s.Sleep != nil {
		k = append(k, "sleep")
	}
	if s.Fail != nil {
		k = append(k, "fail")
	}
	return k
}

// CountTests returns the number of tests in s and its descendants.
func (s *Scope) CountTests() int {
	n := len(s.Tests)
	for i := range s.Scopes {
		n += s.Scopes[i].CountTests()
	}
	return n
}
