package model

import (
	"strconv"
	"strings"
)

// Origin tells where an expanded job comes from.
type Origin string

const (
	OriginMatrix  Origin = "matrix"
	OriginInclude Origin = "include"
)

// Job is one expanded job instance.
type Job struct {
	Number   int
	Name     string
	Stage    string
	Language string
	OS       string
	Dist     string
	Python   string
	Env      EnvList
	If       string

	Commands   map[Phase][]string
	// Skipped marks the phases explicitly set to skip.
	Skipped    map[Phase]bool
	Workspaces Workspaces
	Deploy     DeployList

	AllowFailure bool
	Origin       Origin
	Line         int
}

// ID is the stable identifier of the job in plans and graphs.
func (j *Job) ID() string {
	return "job-" + strconv.Itoa(j.Number)
}

// Title is the human readable label of the job.
func (j *Job) Title() string {
	return "#" + strconv.Itoa(j.Number) + " " + j.Name
}

// HasEnv reports whether one of the job env entries renders to entry.
func (j *Job) HasEnv(entry string) bool {
	for _, e := range j.Env {
		if e.String() == entry || e.Name == entry {
			return true
		}
	}

	return false
}

// IsDeploy reports whether the job deploys.
func (j *Job) IsDeploy() bool {
	return len(j.Deploy) > 0
}

// AllCommands returns every command of the job with its phase, in execution order.
func (j *Job) AllCommands() []Command {
	var res []Command
	for _, phase := range Phases {
		for idx, cmd := range j.Commands[phase] {
			res = append(res, Command{Phase: phase, Index: idx, Text: cmd})
		}
	}

	return res
}

// Command is a single command of a job phase.
type Command struct {
	Phase Phase
	Index int
	Text  string
}

// Location renders the command position as phase[index].
func (c Command) Location() string {
	return string(c.Phase) + "[" + strconv.Itoa(c.Index) + "]"
}

// GeneratedName builds the name of a matrix job from its axes.
func GeneratedName(language, python, env string) string {
	parts := []string{}
	switch {
	case python != "":
		parts = append(parts, displayLanguage(language)+" "+python)
	case language != "":
		parts = append(parts, displayLanguage(language))
	}
	if env != "" {
		parts = append(parts, env)
	}
	if len(parts) == 0 {
		return "job"
	}

	return strings.Join(parts, " ")
}

func displayLanguage(language string) string {
	if language == "" {
		return "Python"
	}

	return strings.ToUpper(language[:1]) + language[1:]
}
