// Package plan decides which jobs of an expanded pipeline run for a given build, orders them and
// evaluates the outcome of a build from the exit codes of its phases.
package plan

import (
	"regexp"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/go-ciplan/internal/store"
	"github.com/askiada/go-ciplan/pkg/ci/condition"
	"github.com/askiada/go-ciplan/pkg/ci/matrix"
	"github.com/askiada/go-ciplan/pkg/ci/model"
)

// Entry is a job of the plan.
type Entry struct {
	Job *model.Job
	// Run is false when a guard skips the job.
	Run bool
	// Reason tells why the job is skipped.
	Reason string
}

// Stage groups the entries of a stage in execution order.
type Stage struct {
	Name    string
	Entries []*Entry
}

// Running reports whether at least one job of the stage runs.
func (s *Stage) Running() bool {
	for _, entry := range s.Entries {
		if entry.Run {
			return true
		}
	}

	return false
}

// Plan is the set of jobs a build runs.
type Plan struct {
	Vars       condition.Vars
	Stages     []*Stage
	FastFinish bool

	graph graph.Graph[string, Vertex]
	store store.OrderedStore[string, Vertex]
	index map[string]int
}

// Entries returns every entry in execution order.
func (p *Plan) Entries() []*Entry {
	var res []*Entry
	for _, stage := range p.Stages {
		res = append(res, stage.Entries...)
	}

	return res
}

// Entry returns the entry of a job number.
func (p *Plan) Entry(number int) (*Entry, bool) {
	for _, entry := range p.Entries() {
		if entry.Job.Number == number {
			return entry, true
		}
	}

	return nil, false
}

// Graph returns the dependency graph of the plan.
func (p *Plan) Graph() graph.Graph[string, Vertex] {
	return p.graph
}

// Build applies the branch filter, the pipeline, stage and job guards to the expanded jobs for a build
// described by vars, then links the jobs in a graph.
func Build(cfg *model.Config, exp *matrix.Expansion, vars condition.Vars) (*Plan, error) {
	p := &Plan{Vars: vars, FastFinish: exp.FastFinish}

	buildReason, err := buildSkipReason(cfg, vars)
	if err != nil {
		return nil, err
	}

	stageConds := map[string]*condition.Condition{}
	for _, stage := range cfg.Stages {
		if stage.If == "" {
			continue
		}
		cond, err := condition.Parse(stage.If)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid if of stage %s", stage.Name)
		}
		stageConds[stage.Name] = cond
	}

	for _, name := range exp.Stages {
		stage := &Stage{Name: name}
		for _, job := range exp.StageJobs(name) {
			entry := &Entry{Job: job, Run: true}
			jobVars := varsFor(vars, job)

			switch {
			case buildReason != "":
				entry.Run, entry.Reason = false, buildReason
			case !stageConds[name].Eval(jobVars):
				entry.Run, entry.Reason = false, "stage "+name+" condition is false: "+stageConds[name].String()
			case job.If != "":
				cond, err := condition.Parse(job.If)
				if err != nil {
					return nil, errors.Wrapf(err, "invalid if of job %s", job.Title())
				}
				if !cond.Eval(jobVars) {
					entry.Run, entry.Reason = false, "job condition is false: "+job.If
				}
			}
			stage.Entries = append(stage.Entries, entry)
		}
		p.Stages = append(p.Stages, stage)
	}

	err = p.buildGraph()
	if err != nil {
		return nil, err
	}

	return p, nil
}

func varsFor(vars condition.Vars, job *model.Job) condition.Vars {
	if job.OS != "" {
		vars.OS = job.OS
	}
	if job.Dist != "" {
		vars.Dist = job.Dist
	}
	if job.Language != "" {
		vars.Language = job.Language
	}

	return vars
}

// buildSkipReason returns why the whole build is skipped, or an empty string.
func buildSkipReason(cfg *model.Config, vars condition.Vars) (string, error) {
	branches := cfg.Branches
	if vars.Branch != "" && !branches.Empty() {
		if len(branches.Only) > 0 && !matchBranch(branches.Only, vars.Branch) {
			return "branch " + vars.Branch + " is not in branches.only", nil
		}
		if matchBranch(branches.Except, vars.Branch) {
			return "branch " + vars.Branch + " is in branches.except", nil
		}
	}

	if cfg.If != "" {
		cond, err := condition.Parse(cfg.If)
		if err != nil {
			return "", errors.Wrap(err, "invalid pipeline if")
		}
		if !cond.Eval(vars) {
			return "pipeline condition is false: " + cfg.If, nil
		}
	}

	return "", nil
}

// matchBranch matches a branch against names and /regular expressions/.
func matchBranch(patterns []string, branch string) bool {
	for _, pattern := range patterns {
		if len(pattern) > 1 && strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/") {
			re, err := regexp.Compile(pattern[1 : len(pattern)-1])
			if err == nil && re.MatchString(branch) {
				return true
			}

			continue
		}
		if pattern == branch {
			return true
		}
	}

	return false
}
