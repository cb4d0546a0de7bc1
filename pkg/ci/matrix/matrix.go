// Package matrix expands a pipeline definition into its job instances.
package matrix

import (
	"github.com/askiada/go-ciplan/pkg/ci/model"
)

// Expansion is the result of expanding a pipeline definition.
type Expansion struct {
	// Jobs in expansion order, numbered from 1.
	Jobs []*model.Job
	// Stages in execution order.
	Stages     []string
	FastFinish bool
}

// StageJobs returns the jobs of a stage in expansion order.
func (e *Expansion) StageJobs(stage string) []*model.Job {
	var res []*model.Job
	for _, job := range e.Jobs {
		if job.Stage == stage {
			res = append(res, job)
		}
	}

	return res
}

// StageIndex returns the position of a stage in execution order, -1 when unknown.
func (e *Expansion) StageIndex(stage string) int {
	for idx, name := range e.Stages {
		if name == stage {
			return idx
		}
	}

	return -1
}

// Job returns the job with the given number.
func (e *Expansion) Job(number int) (*model.Job, bool) {
	if number < 1 || number > len(e.Jobs) {
		return nil, false
	}

	return e.Jobs[number-1], true
}

// Expand builds the job instances of cfg.
//
// Matrix jobs are the cross product of os, dist, python and env.jobs in declaration order, minus the
// jobs.exclude matches. jobs.include entries follow, inheriting every key they do not set.
func Expand(cfg *model.Config) *Expansion {
	spec := cfg.JobList()
	exp := &Expansion{FastFinish: spec.FastFinish}

	if hasMatrix(cfg, spec) {
		for _, job := range matrixJobs(cfg) {
			if excluded(spec.Exclude, job) {
				continue
			}
			exp.Jobs = append(exp.Jobs, job)
		}
	}

	stage := model.DefaultStage
	for idx := range spec.Include {
		include := &spec.Include[idx]
		if include.Stage != "" {
			stage = include.Stage
		}
		exp.Jobs = append(exp.Jobs, includeJob(cfg, include, stage))
	}

	for idx, job := range exp.Jobs {
		job.Number = idx + 1
		for _, match := range spec.AllowFailures {
			if match.Matches(job) {
				job.AllowFailure = true

				break
			}
		}
	}

	exp.Stages = stageOrder(cfg, exp.Jobs)

	return exp
}

// hasMatrix reports whether the root keys produce jobs. A definition made only of jobs.include does not.
func hasMatrix(cfg *model.Config, spec model.JobsSpec) bool {
	if len(spec.Include) == 0 {
		return true
	}

	return len(cfg.Python) > 0 || len(cfg.Env.Jobs) > 0 || len(cfg.OS) > 1 || len(cfg.Dist) > 1
}

func axis(values model.StringList) []string {
	if len(values) == 0 {
		return []string{""}
	}

	return values
}

func matrixJobs(cfg *model.Config) []*model.Job {
	envs := []*model.EnvVar{nil}
	if len(cfg.Env.Jobs) > 0 {
		envs = envs[:0]
		for idx := range cfg.Env.Jobs {
			envs = append(envs, &cfg.Env.Jobs[idx])
		}
	}

	var res []*model.Job
	for _, osName := range axis(cfg.OS) {
		for _, dist := range axis(cfg.Dist) {
			for _, python := range axis(cfg.Python) {
				for _, env := range envs {
					job := &model.Job{
						Stage:    model.DefaultStage,
						Language: cfg.Language,
						OS:       osName,
						Dist:     dist,
						Python:   python,
						Env:      append(model.EnvList{}, cfg.Env.Global...),
						Deploy:   cfg.Deploy,
						Origin:   model.OriginMatrix,
					}
					envName := ""
					if env != nil {
						job.Env = append(job.Env, *env)
						envName = env.String()
						job.Line = env.Line
					}
					job.Name = model.GeneratedName(cfg.Language, python, envName)
					job.Commands, job.Skipped = resolvePhases(&cfg.PhaseSpec, nil)
					res = append(res, job)
				}
			}
		}
	}

	return res
}

func includeJob(cfg *model.Config, include *model.JobSpec, stage string) *model.Job {
	job := &model.Job{
		Name:       include.Name,
		Stage:      stage,
		Language:   firstNonEmpty(include.Language, cfg.Language),
		OS:         firstNonEmpty(include.OS.First(), cfg.OS.First()),
		Dist:       firstNonEmpty(include.Dist.First(), cfg.Dist.First()),
		Python:     firstNonEmpty(include.Python.First(), cfg.Python.First()),
		Env:        append(append(model.EnvList{}, cfg.Env.Global...), include.Env...),
		If:         include.If,
		Workspaces: include.Workspaces,
		Deploy:     include.Deploy,
		Origin:     model.OriginInclude,
		Line:       include.Line,
	}
	if job.Deploy == nil {
		job.Deploy = cfg.Deploy
	}
	if job.Name == "" {
		job.Name = model.GeneratedName(job.Language, job.Python, "")
	}
	job.Commands, job.Skipped = resolvePhases(&cfg.PhaseSpec, &include.PhaseSpec)

	return job
}

func resolvePhases(root, override *model.PhaseSpec) (map[model.Phase][]string, map[model.Phase]bool) {
	commands := make(map[model.Phase][]string, len(model.Phases))
	skipped := map[model.Phase]bool{}

	for _, phase := range model.Phases {
		list := root.Get(phase)
		if override != nil {
			if set := override.Get(phase); set != nil {
				list = set
			}
		}
		if list == nil {
			continue
		}
		if list.Skipped() {
			skipped[phase] = true
			commands[phase] = []string{}

			continue
		}
		commands[phase] = append([]string{}, (*list)...)
	}

	return commands, skipped
}

func excluded(matches []model.JobMatch, job *model.Job) bool {
	for _, match := range matches {
		if match.Matches(job) {
			return true
		}
	}

	return false
}

// stageOrder returns the declared stages followed by the undeclared ones in order of first appearance.
func stageOrder(cfg *model.Config, jobs []*model.Job) []string {
	seen := map[string]struct{}{}
	order := []string{}

	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		order = append(order, name)
	}

	used := map[string]struct{}{}
	for _, job := range jobs {
		used[job.Stage] = struct{}{}
	}

	for _, stage := range cfg.Stages {
		if _, ok := used[stage.Name]; ok {
			add(stage.Name)
		}
	}
	for _, job := range jobs {
		add(job.Stage)
	}

	return order
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
