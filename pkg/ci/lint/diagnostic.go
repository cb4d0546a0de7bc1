package lint

import (
	"fmt"
	"sort"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a single finding of a rule.
type Diagnostic struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	// Line is the line of the definition, 0 when the finding is not tied to a line.
	Line      int    `json:"line,omitempty"`
	JobNumber int    `json:"job,omitempty"`
	JobName   string `json:"job_name,omitempty"`
	Message   string `json:"message"`
}

func (d Diagnostic) String() string {
	job := ""
	if d.JobNumber > 0 {
		job = fmt.Sprintf(" (#%d %s)", d.JobNumber, d.JobName)
	}

	return fmt.Sprintf("%s [%s] %s%s", d.Severity, d.Rule, d.Message, job)
}

// Result holds the diagnostics of a lint run.
type Result struct {
	Diagnostics []Diagnostic
}

// Errors returns the number of error diagnostics.
func (r *Result) Errors() int {
	return r.count(SeverityError)
}

// Warnings returns the number of warning diagnostics.
func (r *Result) Warnings() int {
	return r.count(SeverityWarning)
}

// Failed reports whether the definition has errors.
func (r *Result) Failed() bool {
	return r.Errors() > 0
}

func (r *Result) count(severity Severity) int {
	total := 0
	for _, d := range r.Diagnostics {
		if d.Severity == severity {
			total++
		}
	}

	return total
}

// normalize sorts the diagnostics by line, rule, job number and message, then drops the repeats of a finding
// shared by several jobs, keeping the first job.
func normalize(diags []Diagnostic) []Diagnostic {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		if a.JobNumber != b.JobNumber {
			return a.JobNumber < b.JobNumber
		}

		return a.Message < b.Message
	})

	type key struct {
		rule     string
		severity Severity
		line     int
		message  string
	}

	seen := map[key]struct{}{}
	res := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		k := key{d.Rule, d.Severity, d.Line, d.Message}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		res = append(res, d)
	}

	return res
}
