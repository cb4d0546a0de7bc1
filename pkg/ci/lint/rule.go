package lint

import (
	"context"

	"go.uber.org/zap"

	"github.com/askiada/go-ciplan/pkg/ci/matrix"
	"github.com/askiada/go-ciplan/pkg/ci/model"
)

// BranchLister lists the branches of the project remote.
type BranchLister interface {
	Branches(ctx context.Context) ([]string, error)
}

// Input is what the rules inspect.
type Input struct {
	Config    *model.Config
	Expansion *matrix.Expansion
	// SupportedVersions are the accepted interpreter versions.
	SupportedVersions []string
	// Branches is optional. Without it branch checks are skipped.
	Branches BranchLister
	Logger   *zap.Logger
}

// Rule is a named check. A rule implements JobRule, ConfigRule or both.
type Rule interface {
	Name() string
}

// JobRule checks one expanded job. It is called concurrently for different jobs.
type JobRule interface {
	Rule
	CheckJob(ctx context.Context, in *Input, job *model.Job) []Diagnostic
}

// ConfigRule checks the definition as a whole.
type ConfigRule interface {
	Rule
	CheckConfig(ctx context.Context, in *Input) ([]Diagnostic, error)
}

// DefaultRules returns every rule.
func DefaultRules() []Rule {
	return []Rule{
		interpreterVersionRule{},
		commandsRule{},
		shellSyntaxRule{},
		conditionRule{},
		deployBranchRule{},
		workspaceRule{},
		stagesRule{},
		jobNamesRule{},
		allowFailuresRule{},
		secretsRule{},
	}
}

// RuleNames returns the names of the default rules.
func RuleNames() []string {
	rules := DefaultRules()
	names := make([]string, len(rules))
	for i, rule := range rules {
		names[i] = rule.Name()
	}

	return names
}

func jobDiagnostic(rule string, severity Severity, job *model.Job, line int, msg string) Diagnostic {
	if line == 0 {
		line = job.Line
	}

	return Diagnostic{
		Rule:      rule,
		Severity:  severity,
		Line:      line,
		JobNumber: job.Number,
		JobName:   job.Name,
		Message:   msg,
	}
}
