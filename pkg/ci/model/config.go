package model

import (
	"gopkg.in/yaml.v3"
)

// DefaultStage is the stage of matrix jobs and of include jobs declared before any stage.
const DefaultStage = "test"

// Config is a CI pipeline definition as written in the file.
type Config struct {
	Language string     `yaml:"language"`
	OS       StringList `yaml:"os"`
	Dist     StringList `yaml:"dist"`
	Python   StringList `yaml:"python"`
	Env      Env        `yaml:"env"`
	If       string     `yaml:"if"`

	PhaseSpec `yaml:",inline"`

	Stages   []Stage    `yaml:"stages"`
	Jobs     JobsSpec   `yaml:"jobs"`
	Matrix   JobsSpec   `yaml:"matrix"`
	Deploy   DeployList `yaml:"deploy"`
	Branches Branches   `yaml:"branches"`

	// File is the name the definition was loaded from.
	File string `yaml:"-"`
}

// JobList returns the jobs section, falling back to the legacy matrix key.
func (c *Config) JobList() JobsSpec {
	if len(c.Jobs.Include) == 0 && len(c.Jobs.Exclude) == 0 && len(c.Jobs.AllowFailures) == 0 && !c.Jobs.FastFinish {
		return c.Matrix
	}

	return c.Jobs
}

// Stage is a stages entry: a bare name or {name, if}.
type Stage struct {
	Name string `yaml:"name"`
	If   string `yaml:"if"`
	Line int    `yaml:"-"`
}

func (s *Stage) UnmarshalYAML(value *yaml.Node) error {
	s.Line = value.Line
	if value.Kind == yaml.ScalarNode {
		s.Name = value.Value

		return nil
	}

	type plain Stage
	raw := plain{Line: value.Line}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*s = Stage(raw)
	s.Line = value.Line

	return nil
}

// JobsSpec is the jobs (or matrix) section.
type JobsSpec struct {
	Include       []JobSpec  `yaml:"include"`
	Exclude       []JobMatch `yaml:"exclude"`
	AllowFailures []JobMatch `yaml:"allow_failures"`
	FastFinish    bool       `yaml:"fast_finish"`
}

// JobSpec is one jobs.include entry. Unset fields inherit the root values.
type JobSpec struct {
	Name     string     `yaml:"name"`
	Stage    string     `yaml:"stage"`
	Language string     `yaml:"language"`
	OS       StringList `yaml:"os"`
	Dist     StringList `yaml:"dist"`
	Python   StringList `yaml:"python"`
	Env      EnvList    `yaml:"env"`
	If       string     `yaml:"if"`

	PhaseSpec `yaml:",inline"`

	Workspaces Workspaces `yaml:"workspaces"`
	Deploy     DeployList `yaml:"deploy"`

	Line int `yaml:"-"`
}

func (j *JobSpec) UnmarshalYAML(value *yaml.Node) error {
	type plain JobSpec
	var raw plain
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*j = JobSpec(raw)
	j.Line = value.Line

	return nil
}

// JobMatch selects jobs in jobs.exclude and jobs.allow_failures. Every set field must match.
type JobMatch struct {
	Name   string `yaml:"name"`
	Stage  string `yaml:"stage"`
	Python string `yaml:"python"`
	OS     string `yaml:"os"`
	Dist   string `yaml:"dist"`
	Env    string `yaml:"env"`

	Line int `yaml:"-"`
}

func (m *JobMatch) UnmarshalYAML(value *yaml.Node) error {
	type plain JobMatch
	var raw plain
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*m = JobMatch(raw)
	m.Line = value.Line

	return nil
}

// Empty reports whether the match sets no field, in which case it matches nothing.
func (m JobMatch) Empty() bool {
	return m.Name == "" && m.Stage == "" && m.Python == "" && m.OS == "" && m.Dist == "" && m.Env == ""
}

// Matches reports whether every field set on m equals the job's value.
func (m JobMatch) Matches(job *Job) bool {
	if m.Empty() {
		return false
	}
	if m.Name != "" && m.Name != job.Name {
		return false
	}
	if m.Stage != "" && m.Stage != job.Stage {
		return false
	}
	if m.Python != "" && m.Python != job.Python {
		return false
	}
	if m.OS != "" && m.OS != job.OS {
		return false
	}
	if m.Dist != "" && m.Dist != job.Dist {
		return false
	}
	if m.Env != "" && !job.HasEnv(m.Env) {
		return false
	}

	return true
}

// Workspaces declares the workspaces a job creates and uses.
type Workspaces struct {
	Create *WorkspaceCreate `yaml:"create"`
	Use    StringList       `yaml:"use"`
}

// WorkspaceCreate is a named workspace uploaded at the end of a job.
type WorkspaceCreate struct {
	Name  string     `yaml:"name"`
	Paths StringList `yaml:"paths"`
}

// Branches is the root branch filter.
type Branches struct {
	Only   StringList `yaml:"only"`
	Except StringList `yaml:"except"`
}

// Empty reports whether no branch filter is set.
func (b Branches) Empty() bool {
	return len(b.Only) == 0 && len(b.Except) == 0
}
