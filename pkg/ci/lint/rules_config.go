package lint

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/askiada/go-ciplan/pkg/ci/condition"
	"github.com/askiada/go-ciplan/pkg/ci/model"
	"github.com/askiada/go-ciplan/pkg/ci/shell"
)

type deployBranchRule struct{}

func (deployBranchRule) Name() string { return "deploy-branch" }

// deployBranches returns the branches a deploy job is guarded by, from its if, its stage if and deploy.on.branch.
func deployBranches(in *Input, job *model.Job) []string {
	seen := map[string]struct{}{}
	add := func(src string) {
		cond, err := condition.Parse(src)
		if err != nil {
			return
		}
		for _, branch := range cond.Literals("branch") {
			seen[branch] = struct{}{}
		}
	}

	if job.If != "" {
		add(job.If)
	}
	for _, stage := range in.Config.Stages {
		if stage.Name == job.Stage && stage.If != "" {
			add(stage.If)
		}
	}
	for _, deploy := range job.Deploy {
		for _, branch := range deploy.On.Branch {
			seen[branch] = struct{}{}
		}
	}

	res := make([]string, 0, len(seen))
	for branch := range seen {
		res = append(res, branch)
	}
	sort.Strings(res)

	return res
}

func (r deployBranchRule) CheckConfig(ctx context.Context, in *Input) ([]Diagnostic, error) {
	if in.Branches == nil {
		if in.Logger != nil {
			in.Logger.Info("no remote configured, skipping rule", zap.String("rule", r.Name()))
		}

		return nil, nil
	}

	var remote map[string]struct{}
	var diags []Diagnostic

	for _, job := range in.Expansion.Jobs {
		if !job.IsDeploy() {
			continue
		}

		for _, branch := range deployBranches(in, job) {
			if remote == nil {
				branches, err := in.Branches.Branches(ctx)
				if err != nil {
					return nil, errors.Wrap(err, "unable to list remote branches")
				}
				remote = make(map[string]struct{}, len(branches))
				for _, name := range branches {
					remote[name] = struct{}{}
				}
			}

			if _, ok := remote[branch]; !ok {
				diags = append(diags, jobDiagnostic(r.Name(), SeverityError, job, 0, fmt.Sprintf(
					"deploy is guarded by branch %q which does not exist on the remote", branch,
				)))
			}
		}
	}

	return diags, nil
}

type workspaceRule struct{}

func (workspaceRule) Name() string { return "workspace" }

func (r workspaceRule) CheckConfig(_ context.Context, in *Input) ([]Diagnostic, error) {
	var diags []Diagnostic

	creators := map[string]*model.Job{}
	used := map[string]bool{}

	for _, job := range in.Expansion.Jobs {
		create := job.Workspaces.Create
		if create == nil {
			continue
		}
		if create.Name == "" {
			diags = append(diags, jobDiagnostic(r.Name(), SeverityError, job, 0, "workspace created without a name"))

			continue
		}
		if first, ok := creators[create.Name]; ok {
			diags = append(diags, jobDiagnostic(r.Name(), SeverityError, job, 0, fmt.Sprintf(
				"workspace %q is already created by %s", create.Name, first.Title(),
			)))

			continue
		}
		creators[create.Name] = job
		if len(create.Paths) == 0 {
			diags = append(diags, jobDiagnostic(r.Name(), SeverityWarning, job, 0, fmt.Sprintf(
				"workspace %q has no paths", create.Name,
			)))
		}
	}

	for _, job := range in.Expansion.Jobs {
		for _, name := range job.Workspaces.Use {
			used[name] = true

			creator, ok := creators[name]
			if !ok {
				diags = append(diags, jobDiagnostic(r.Name(), SeverityError, job, 0, fmt.Sprintf(
					"workspace %q is used but never created", name,
				)))

				continue
			}

			if in.Expansion.StageIndex(creator.Stage) >= in.Expansion.StageIndex(job.Stage) {
				diags = append(diags, jobDiagnostic(r.Name(), SeverityError, job, 0, fmt.Sprintf(
					"workspace %q is created by %s in stage %s which does not run before stage %s",
					name, creator.Title(), creator.Stage, job.Stage,
				)))
			}
		}
	}

	for name, creator := range creators {
		if !used[name] {
			diags = append(diags, jobDiagnostic(r.Name(), SeverityWarning, creator, 0, fmt.Sprintf(
				"workspace %q is created but never used", name,
			)))
		}
	}

	return diags, nil
}

type stagesRule struct{}

func (stagesRule) Name() string { return "stages" }

func (r stagesRule) CheckConfig(_ context.Context, in *Input) ([]Diagnostic, error) {
	if len(in.Config.Stages) == 0 {
		return nil, nil
	}

	var diags []Diagnostic

	declared := map[string]struct{}{}
	for _, stage := range in.Config.Stages {
		if _, ok := declared[stage.Name]; ok {
			diags = append(diags, Diagnostic{
				Rule:     r.Name(),
				Severity: SeverityWarning,
				Line:     stage.Line,
				Message:  fmt.Sprintf("stage %s is declared twice", stage.Name),
			})
		}
		declared[stage.Name] = struct{}{}
	}

	reported := map[string]struct{}{}
	for _, job := range in.Expansion.Jobs {
		if _, ok := declared[job.Stage]; ok {
			continue
		}
		if _, ok := reported[job.Stage]; ok {
			continue
		}
		reported[job.Stage] = struct{}{}
		diags = append(diags, jobDiagnostic(r.Name(), SeverityWarning, job, 0, fmt.Sprintf(
			"stage %s is not declared in stages and runs last", job.Stage,
		)))
	}

	return diags, nil
}

type jobNamesRule struct{}

func (jobNamesRule) Name() string { return "job-names" }

func (r jobNamesRule) CheckConfig(_ context.Context, in *Input) ([]Diagnostic, error) {
	var diags []Diagnostic

	seen := map[string]*model.Job{}
	for _, job := range in.Expansion.Jobs {
		if job.Origin != model.OriginInclude {
			continue
		}
		if first, ok := seen[job.Name]; ok {
			diags = append(diags, jobDiagnostic(r.Name(), SeverityWarning, job, 0, fmt.Sprintf(
				"job name %q is already used by %s", job.Name, first.Title(),
			)))

			continue
		}
		seen[job.Name] = job
	}

	return diags, nil
}

type allowFailuresRule struct{}

func (allowFailuresRule) Name() string { return "allow-failures" }

func (r allowFailuresRule) CheckConfig(_ context.Context, in *Input) ([]Diagnostic, error) {
	var diags []Diagnostic

	spec := in.Config.JobList()
	check := func(section string, matches []model.JobMatch, jobs []*model.Job) {
		for _, match := range matches {
			found := false
			for _, job := range jobs {
				if match.Matches(job) {
					found = true

					break
				}
			}
			if !found {
				diags = append(diags, Diagnostic{
					Rule:     r.Name(),
					Severity: SeverityWarning,
					Line:     match.Line,
					Message:  fmt.Sprintf("%s entry matches no job", section),
				})
			}
		}
	}

	check("allow_failures", spec.AllowFailures, in.Expansion.Jobs)

	// excluded jobs are gone from the expansion, so exclude entries are checked against the root axes
	for _, match := range spec.Exclude {
		if !matchesAxes(in.Config, match) {
			diags = append(diags, Diagnostic{
				Rule:     r.Name(),
				Severity: SeverityWarning,
				Line:     match.Line,
				Message:  "exclude entry matches no job",
			})
		}
	}

	return diags, nil
}

// matchesAxes reports whether an exclude entry selects values present on the root axes.
func matchesAxes(cfg *model.Config, match model.JobMatch) bool {
	if match.Empty() {
		return false
	}

	contains := func(values model.StringList, value string) bool {
		if value == "" {
			return true
		}
		for _, v := range values {
			if v == value {
				return true
			}
		}

		return false
	}

	envOK := match.Env == ""
	for _, env := range cfg.Env.Jobs {
		if env.String() == match.Env || env.Name == match.Env {
			envOK = true
		}
	}

	return contains(cfg.Python, match.Python) && contains(cfg.OS, match.OS) && contains(cfg.Dist, match.Dist) && envOK
}

type secretsRule struct{}

func (secretsRule) Name() string { return "secrets" }

var secretWords = []string{"TOKEN", "SECRET", "PASSWORD", "API_KEY", "APIKEY", "PRIVATE_KEY"}

func looksSecret(name string) bool {
	upper := strings.ToUpper(name)
	for _, word := range secretWords {
		if strings.Contains(upper, word) {
			return true
		}
	}

	return false
}

type envEntry struct {
	name string
	line int
}

func envKey(env model.EnvVar) envEntry {
	return envEntry{name: env.Name, line: env.Line}
}

func plaintextEnv(env model.EnvVar) bool {
	return !env.Secure && looksSecret(env.Name) && env.Value != "" && !strings.HasPrefix(env.Value, "$")
}

func (r secretsRule) CheckConfig(_ context.Context, in *Input) ([]Diagnostic, error) {
	var diags []Diagnostic

	// global entries are copied into every job, so they are reported once
	reported := map[envEntry]struct{}{}
	for _, env := range in.Config.Env.Global {
		reported[envKey(env)] = struct{}{}
		if plaintextEnv(env) {
			diags = append(diags, Diagnostic{
				Rule:     r.Name(),
				Severity: SeverityError,
				Line:     env.Line,
				Message:  fmt.Sprintf("env %s looks like a credential written in clear, use a secure entry", env.Name),
			})
		}
	}
	for _, job := range in.Expansion.Jobs {
		for _, env := range job.Env {
			if _, ok := reported[envKey(env)]; ok {
				continue
			}
			reported[envKey(env)] = struct{}{}
			if plaintextEnv(env) {
				diags = append(diags, jobDiagnostic(r.Name(), SeverityError, job, env.Line, fmt.Sprintf(
					"env %s looks like a credential written in clear, use a secure entry", env.Name,
				)))
			}
		}
	}

	// variables holding deploy credentials, by name
	deployVars := map[string]struct{}{}
	for _, job := range in.Expansion.Jobs {
		for _, deploy := range job.Deploy {
			creds := deploy.Credentials()
			for _, key := range deploy.CredentialKeys() {
				secret := creds[key]
				if secret.Plaintext() {
					diags = append(diags, jobDiagnostic(r.Name(), SeverityError, job, deploy.Line, fmt.Sprintf(
						"deploy %s credential %s is written in clear", deploy.Provider, key,
					)))

					continue
				}
				if name, ok := secret.Variable(); ok {
					deployVars[name] = struct{}{}
				}
			}
		}
	}

	if len(deployVars) == 0 {
		return diags, nil
	}

	for _, job := range in.Expansion.Jobs {
		if job.IsDeploy() {
			continue
		}
		for _, cmd := range job.AllCommands() {
			vars, err := shell.Variables(cmd.Text)
			if err != nil {
				// reported by shell-syntax
				continue
			}
			for _, name := range vars {
				if _, ok := deployVars[name]; ok {
					diags = append(diags, jobDiagnostic(r.Name(), SeverityWarning, job, 0, fmt.Sprintf(
						"deploy credential $%s is referenced by %s outside of a deploy job", name, cmd.Location(),
					)))
				}
			}
		}
	}

	return diags, nil
}

var (
	_ ConfigRule = deployBranchRule{}
	_ ConfigRule = workspaceRule{}
	_ ConfigRule = stagesRule{}
	_ ConfigRule = jobNamesRule{}
	_ ConfigRule = allowFailuresRule{}
	_ ConfigRule = secretsRule{}
)
