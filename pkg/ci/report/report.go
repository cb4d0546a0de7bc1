// Package report renders lint results, expansions, plans and outcomes for humans and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/askiada/go-ciplan/pkg/ci/lint"
	"github.com/askiada/go-ciplan/pkg/ci/matrix"
	"github.com/askiada/go-ciplan/pkg/ci/plan"
)

// Report is the machine readable form of a lint run.
type Report struct {
	ID          string            `json:"report_id"`
	File        string            `json:"file"`
	Errors      int               `json:"errors"`
	Warnings    int               `json:"warnings"`
	Diagnostics []lint.Diagnostic `json:"diagnostics"`
}

// New builds the report of a lint run with a fresh id.
func New(file string, res *lint.Result) *Report {
	diags := res.Diagnostics
	if diags == nil {
		diags = []lint.Diagnostic{}
	}

	return &Report{
		ID:          uuid.New().String(),
		File:        file,
		Errors:      res.Errors(),
		Warnings:    res.Warnings(),
		Diagnostics: diags,
	}
}

// JSON writes the report as indented JSON.
func (r *Report) JSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(r)
	if err != nil {
		return errors.Wrap(err, "unable to encode report")
	}

	return nil
}

// Text writes one line per diagnostic, file:line: severity [rule] message, then a summary line.
func (r *Report) Text(w io.Writer) error {
	for _, d := range r.Diagnostics {
		location := r.File
		if d.Line > 0 {
			location = fmt.Sprintf("%s:%d", r.File, d.Line)
		}
		_, err := fmt.Fprintf(w, "%s: %s\n", location, d)
		if err != nil {
			return errors.Wrap(err, "unable to write report")
		}
	}

	_, err := fmt.Fprintf(w, "%s: %s, %s\n", r.File, plural(r.Errors, "error"), plural(r.Warnings, "warning"))
	if err != nil {
		return errors.Wrap(err, "unable to write report")
	}

	return nil
}

func plural(count int, word string) string {
	if count == 1 {
		return "1 " + word
	}

	return fmt.Sprintf("%d %ss", count, word)
}

func flush(tw *tabwriter.Writer) error {
	err := tw.Flush()
	if err != nil {
		return errors.Wrap(err, "unable to write table")
	}

	return nil
}

// Expansion lists the expanded jobs.
func Expansion(w io.Writer, exp *matrix.Expansion) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSTAGE\tNAME\tPYTHON\tOS\tDIST\tENV\tALLOW FAILURE")
	for _, job := range exp.Jobs {
		allow := ""
		if job.AllowFailure {
			allow = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			job.Number, job.Stage, job.Name, dash(job.Python), dash(job.OS), dash(job.Dist),
			dash(strings.Join(job.Env.Strings(), " ")), allow,
		)
	}

	return flush(tw)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

// Plan lists the jobs of every stage and whether they run.
func Plan(w io.Writer, p *plan.Plan) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, stage := range p.Stages {
		state := "runs"
		if !stage.Running() {
			state = "skipped"
		}
		fmt.Fprintf(tw, "stage %s\t%s\t\n", stage.Name, state)
		for _, entry := range stage.Entries {
			if entry.Run {
				fmt.Fprintf(tw, "  %s\trun\t\n", entry.Job.Title())

				continue
			}
			fmt.Fprintf(tw, "  %s\tskip\t%s\n", entry.Job.Title(), entry.Reason)
		}
	}

	return flush(tw)
}

// Order lists the plan vertices in execution order.
func Order(w io.Writer, p *plan.Plan) error {
	order, err := p.Order()
	if err != nil {
		return err
	}

	vertices, err := p.Vertices()
	if err != nil {
		return err
	}
	labels := make(map[string]string, len(vertices))
	for _, v := range vertices {
		labels[v.ID] = v.Label()
	}

	seen := map[string]struct{}{}
	step := 0
	for _, id := range order {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		step++
		_, err := fmt.Fprintf(w, "%d. %s\n", step, labels[id])
		if err != nil {
			return errors.Wrap(err, "unable to write order")
		}
	}

	return nil
}

// Outcome lists the status of every stage and job, then the build status.
func Outcome(w io.Writer, out *plan.Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, stage := range out.Stages {
		fmt.Fprintf(tw, "stage %s\t%s\t\n", stage.Name, stage.Status)
		for _, job := range stage.Jobs {
			detail := ""
			if job.Phase != "" {
				detail = "in " + string(job.Phase)
			}
			if job.Entry.Job.AllowFailure {
				detail = strings.TrimSpace(detail + " (allowed to fail)")
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", job.Entry.Job.Title(), job.Status, detail)
		}
	}
	fmt.Fprintf(tw, "build\t%s\t\n", out.Status)

	return flush(tw)
}
