package model

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Deploy is one deployment of a job.
type Deploy struct {
	Provider    string   `yaml:"provider"`
	On          DeployOn `yaml:"on"`
	SkipCleanup bool     `yaml:"skip_cleanup"`
	GithubToken Secret   `yaml:"github_token"`
	APIKey      Secret   `yaml:"api_key"`
	Token       Secret   `yaml:"token"`
	LocalDir    string   `yaml:"local_dir"`

	// Extra keeps provider specific keys.
	Extra map[string]interface{} `yaml:",inline"`

	Line int `yaml:"-"`
}

func (d *Deploy) UnmarshalYAML(value *yaml.Node) error {
	type plain Deploy
	var raw plain
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*d = Deploy(raw)
	d.Line = value.Line

	return nil
}

// Credentials returns the credential fields which are set, by key.
func (d *Deploy) Credentials() map[string]Secret {
	res := map[string]Secret{}
	for key, value := range map[string]Secret{
		"github_token": d.GithubToken,
		"api_key":      d.APIKey,
		"token":        d.Token,
	} {
		if value.Set() {
			res[key] = value
		}
	}

	return res
}

// CredentialKeys returns the keys of Credentials, sorted.
func (d *Deploy) CredentialKeys() []string {
	creds := d.Credentials()
	keys := make([]string, 0, len(creds))
	for key := range creds {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}

// DeployOn are the conditions of a deployment.
type DeployOn struct {
	Branch      StringList `yaml:"branch"`
	Tags        bool       `yaml:"tags"`
	AllBranches bool       `yaml:"all_branches"`
	Condition   StringList `yaml:"condition"`
}

// DeployList is a deploy key written as a single mapping or as a list.
type DeployList []Deploy

func (l *DeployList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.MappingNode {
		var single Deploy
		if err := value.Decode(&single); err != nil {
			return err
		}
		*l = DeployList{single}

		return nil
	}

	var list []Deploy
	if err := value.Decode(&list); err != nil {
		return err
	}
	*l = list

	return nil
}

// Secret is a credential written in clear, as a variable reference or as {secure: ...}.
type Secret struct {
	Value  string
	Secure bool
}

func (s *Secret) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		s.Value = value.Value

		return nil
	}

	var secure struct {
		Secure string `yaml:"secure"`
	}
	if err := value.Decode(&secure); err != nil {
		return err
	}
	if secure.Secure == "" {
		return &yaml.TypeError{Errors: []string{lineError(value, "credential mapping must have a secure key")}}
	}
	s.Value = secure.Secure
	s.Secure = true

	return nil
}

// Set reports whether a value is present.
func (s Secret) Set() bool {
	return s.Value != ""
}

// Variable returns the name of the variable the secret refers to, such as GITHUB_TOKEN for $GITHUB_TOKEN.
func (s Secret) Variable() (string, bool) {
	if s.Secure || !strings.HasPrefix(s.Value, "$") {
		return "", false
	}

	name := strings.TrimPrefix(s.Value, "$")
	if strings.HasPrefix(name, "{") && strings.HasSuffix(name, "}") {
		name = name[1 : len(name)-1]
	}
	if name == "" {
		return "", false
	}
	for _, r := range name {
		if r != '_' && (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return "", false
		}
	}

	return name, true
}

// Plaintext reports whether the secret is written in clear in the file.
func (s Secret) Plaintext() bool {
	if !s.Set() || s.Secure {
		return false
	}
	_, isVar := s.Variable()

	return !isVar
}
