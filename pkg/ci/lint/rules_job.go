package lint

import (
	"context"
	"fmt"
	"strings"

	"github.com/askiada/go-ciplan/pkg/ci/condition"
	"github.com/askiada/go-ciplan/pkg/ci/model"
	"github.com/askiada/go-ciplan/pkg/ci/shell"
)

type interpreterVersionRule struct{}

func (interpreterVersionRule) Name() string { return "interpreter-version" }

func (r interpreterVersionRule) CheckJob(_ context.Context, in *Input, job *model.Job) []Diagnostic {
	if job.Python == "" || (job.Language != "" && job.Language != "python") {
		return nil
	}

	for _, version := range in.SupportedVersions {
		if version == job.Python {
			return nil
		}
	}

	return []Diagnostic{jobDiagnostic(r.Name(), SeverityError, job, 0, fmt.Sprintf(
		"interpreter version %q is not supported (supported: %s)", job.Python, strings.Join(in.SupportedVersions, ", "),
	))}
}

type commandsRule struct{}

func (commandsRule) Name() string { return "commands" }

func (r commandsRule) CheckJob(_ context.Context, _ *Input, job *model.Job) []Diagnostic {
	var diags []Diagnostic
	for _, phase := range model.Phases {
		if !phase.Required() || job.Skipped[phase] || len(job.Commands[phase]) > 0 {
			continue
		}
		diags = append(diags, jobDiagnostic(r.Name(), SeverityError, job, 0, fmt.Sprintf("%s has no commands", phase)))
	}

	return diags
}

type shellSyntaxRule struct{}

func (shellSyntaxRule) Name() string { return "shell-syntax" }

func (r shellSyntaxRule) CheckJob(_ context.Context, _ *Input, job *model.Job) []Diagnostic {
	var diags []Diagnostic
	for _, cmd := range job.AllCommands() {
		err := shell.Check(cmd.Text)
		if err == nil {
			continue
		}
		diags = append(diags, jobDiagnostic(r.Name(), SeverityError, job, 0, fmt.Sprintf(
			"%s %q is not a valid shell command: %v", cmd.Location(), cmd.Text, err,
		)))
	}

	return diags
}

type conditionRule struct{}

// jobAttributes are set from the job being planned, so a pipeline condition cannot see them.
var jobAttributes = map[string]struct{}{"os": {}, "dist": {}, "language": {}}

func (conditionRule) Name() string { return "condition" }

func (r conditionRule) CheckJob(_ context.Context, _ *Input, job *model.Job) []Diagnostic {
	if job.If == "" {
		return nil
	}

	_, err := condition.Parse(job.If)
	if err != nil {
		return []Diagnostic{jobDiagnostic(r.Name(), SeverityError, job, 0, fmt.Sprintf("invalid if %q: %v", job.If, err))}
	}

	return nil
}

func (r conditionRule) CheckConfig(_ context.Context, in *Input) ([]Diagnostic, error) {
	var diags []Diagnostic

	if in.Config.If != "" {
		cond, err := condition.Parse(in.Config.If)
		if err != nil {
			diags = append(diags, Diagnostic{
				Rule:     r.Name(),
				Severity: SeverityError,
				Message:  fmt.Sprintf("invalid pipeline if %q: %v", in.Config.If, err),
			})
		} else {
			for _, attr := range cond.References() {
				if _, ok := jobAttributes[attr]; !ok {
					continue
				}
				diags = append(diags, Diagnostic{
					Rule:     r.Name(),
					Severity: SeverityWarning,
					Message:  fmt.Sprintf("pipeline if %q refers to %s, which is only known per job", in.Config.If, attr),
				})
			}
		}
	}

	for _, stage := range in.Config.Stages {
		if stage.If == "" {
			continue
		}
		if _, err := condition.Parse(stage.If); err != nil {
			diags = append(diags, Diagnostic{
				Rule:     r.Name(),
				Severity: SeverityError,
				Line:     stage.Line,
				Message:  fmt.Sprintf("invalid if %q of stage %s: %v", stage.If, stage.Name, err),
			})
		}
	}

	return diags, nil
}

var (
	_ JobRule    = interpreterVersionRule{}
	_ JobRule    = commandsRule{}
	_ JobRule    = shellSyntaxRule{}
	_ JobRule    = conditionRule{}
	_ ConfigRule = conditionRule{}
)
