package model

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// StringList is a YAML value written either as a scalar or as a sequence of scalars.
// Scalars keep their literal text, so 3.10 stays "3.10".
type StringList []string

func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*l = nil

			return nil
		}
		*l = StringList{value.Value}
	case yaml.SequenceNode:
		res := make(StringList, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode {
				return &yaml.TypeError{Errors: []string{lineError(item, "expected a scalar in list")}}
			}
			res = append(res, item.Value)
		}
		*l = res
	default:
		return &yaml.TypeError{Errors: []string{lineError(value, "expected a scalar or a list of scalars")}}
	}

	return nil
}

// First returns the first element or an empty string.
func (l StringList) First() string {
	if len(l) == 0 {
		return ""
	}

	return l[0]
}

// Skip is the command list value meaning "do nothing in this phase".
const Skip = "skip"

// Skipped reports whether the list is the single skip keyword.
func (l StringList) Skipped() bool {
	return len(l) == 1 && l[0] == Skip
}

// EnvVar is one env entry: either KEY=value or an encrypted {secure: ...} value.
type EnvVar struct {
	Name   string
	Value  string
	Secure bool
	Line   int
}

func (e *EnvVar) UnmarshalYAML(value *yaml.Node) error {
	e.Line = value.Line
	switch value.Kind {
	case yaml.ScalarNode:
		e.Name, e.Value = splitAssignment(value.Value)
	case yaml.MappingNode:
		var secure struct {
			Secure string `yaml:"secure"`
		}
		if err := value.Decode(&secure); err != nil {
			return err
		}
		if secure.Secure == "" {
			return &yaml.TypeError{Errors: []string{lineError(value, "env mapping must have a secure key")}}
		}
		e.Secure = true
		e.Value = secure.Secure
	default:
		return &yaml.TypeError{Errors: []string{lineError(value, "expected KEY=value or {secure: ...}")}}
	}

	return nil
}

// String renders the entry the way it would be exported, hiding secure values.
func (e EnvVar) String() string {
	if e.Secure {
		return "[secure]"
	}

	return e.Name + "=" + e.Value
}

// EnvList is a list of env entries, also accepted as a single scalar.
type EnvList []EnvVar

func (l *EnvList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		var single EnvVar
		if err := value.Decode(&single); err != nil {
			return err
		}
		*l = EnvList{single}

		return nil
	}

	res := make(EnvList, 0, len(value.Content))
	for _, item := range value.Content {
		var entry EnvVar
		if err := item.Decode(&entry); err != nil {
			return err
		}
		res = append(res, entry)
	}
	*l = res

	return nil
}

// Strings renders every entry with EnvVar.String.
func (l EnvList) Strings() []string {
	res := make([]string, len(l))
	for i, e := range l {
		res[i] = e.String()
	}

	return res
}

// Env is the root env key. A plain list is the job axis.
type Env struct {
	Global EnvList
	// Jobs is the job axis. Entries of the legacy matrix key follow the jobs ones.
	Jobs EnvList
}

func (e *Env) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return value.Decode(&e.Jobs)
	}

	var raw struct {
		Global EnvList `yaml:"global"`
		Jobs   EnvList `yaml:"jobs"`
		Matrix EnvList `yaml:"matrix"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	e.Global = raw.Global
	e.Jobs = append(raw.Jobs, raw.Matrix...)

	return nil
}

func splitAssignment(s string) (string, string) {
	name, value, _ := strings.Cut(s, "=")

	return strings.TrimSpace(name), value
}

func lineError(node *yaml.Node, msg string) string {
	return "line " + strconv.Itoa(node.Line) + ": " + msg
}
