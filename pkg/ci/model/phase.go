package model

// Phase is a lifecycle section of a job.
type Phase string

const (
	PhaseBeforeInstall Phase = "before_install"
	PhaseInstall       Phase = "install"
	PhaseBeforeScript  Phase = "before_script"
	PhaseScript        Phase = "script"
	PhaseAfterSuccess  Phase = "after_success"
	PhaseAfterFailure  Phase = "after_failure"
	PhaseAfterScript   Phase = "after_script"
	PhaseBeforeDeploy  Phase = "before_deploy"
	PhaseDeploy        Phase = "deploy"
	PhaseAfterDeploy   Phase = "after_deploy"
)

// Phases lists the command phases in execution order. PhaseDeploy is not a command phase.
var Phases = []Phase{
	PhaseBeforeInstall,
	PhaseInstall,
	PhaseBeforeScript,
	PhaseScript,
	PhaseAfterSuccess,
	PhaseAfterFailure,
	PhaseAfterScript,
	PhaseBeforeDeploy,
	PhaseAfterDeploy,
}

// Required reports whether a job needs commands in this phase.
func (p Phase) Required() bool {
	return p == PhaseInstall || p == PhaseScript
}

// Setup reports whether a non-zero exit in this phase errors the job instead of failing it.
func (p Phase) Setup() bool {
	return p == PhaseBeforeInstall || p == PhaseInstall || p == PhaseBeforeScript
}

// Informational reports whether the exit code of this phase is ignored.
func (p Phase) Informational() bool {
	switch p {
	case PhaseAfterSuccess, PhaseAfterFailure, PhaseAfterScript, PhaseAfterDeploy:
		return true
	default:
		return false
	}
}

// PhaseSpec holds the command lists of every phase. A nil list is unset and inherits.
type PhaseSpec struct {
	BeforeInstall *StringList `yaml:"before_install"`
	Install       *StringList `yaml:"install"`
	BeforeScript  *StringList `yaml:"before_script"`
	Script        *StringList `yaml:"script"`
	AfterSuccess  *StringList `yaml:"after_success"`
	AfterFailure  *StringList `yaml:"after_failure"`
	AfterScript   *StringList `yaml:"after_script"`
	BeforeDeploy  *StringList `yaml:"before_deploy"`
	AfterDeploy   *StringList `yaml:"after_deploy"`
}

// Get returns the commands of a phase, nil when unset.
func (p *PhaseSpec) Get(phase Phase) *StringList {
	switch phase {
	case PhaseBeforeInstall:
		return p.BeforeInstall
	case PhaseInstall:
		return p.Install
	case PhaseBeforeScript:
		return p.BeforeScript
	case PhaseScript:
		return p.Script
	case PhaseAfterSuccess:
		return p.AfterSuccess
	case PhaseAfterFailure:
		return p.AfterFailure
	case PhaseAfterScript:
		return p.AfterScript
	case PhaseBeforeDeploy:
		return p.BeforeDeploy
	case PhaseAfterDeploy:
		return p.AfterDeploy
	default:
		return nil
	}
}
