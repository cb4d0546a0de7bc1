// Package config loads the settings of the command line tool from an optional YAML file and the
// environment.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no file is given.
const DefaultFile = ".ciplan.yaml"

// DefaultSupportedVersions are the interpreter versions the project supports.
var DefaultSupportedVersions = []string{"3.5", "3.6", "3.7", "3.8"}

var (
	ErrInvalidConcurrency = errors.New("concurrency must be positive")
	ErrNoSupportedVersion = errors.New("supported_versions must not be empty")
)

// Config holds the tool settings.
type Config struct {
	SupportedVersions []string
	// Remote is the git remote deploy branches are checked against.
	Remote        string
	CheckRemote   bool
	DisabledRules []string
	Concurrency   int
	// DefaultBranch is the branch plans are built for when none is given.
	DefaultBranch string
}

type fileConfig struct {
	SupportedVersions []string `yaml:"supported_versions"`
	Remote            string   `yaml:"remote"`
	CheckRemote       *bool    `yaml:"check_remote"`
	DisabledRules     []string `yaml:"disabled_rules"`
	Concurrency       int      `yaml:"concurrency"`
	DefaultBranch     string   `yaml:"default_branch"`
}

// Load reads path, or DefaultFile when path is empty and the file exists, then applies the CIPLAN_*
// environment overrides and the defaults.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

// LoadWithEnv is Load with a custom environment lookup.
func LoadWithEnv(path string, getenv func(string) string) (*Config, error) {
	var fc fileConfig

	explicit := path != ""
	if !explicit {
		path = getenv("CIPLAN_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		err = yaml.Unmarshal(data, &fc)
		if err != nil {
			return nil, errors.Wrapf(err, "parse config file %s", path)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, errors.Wrapf(err, "read config file %s", path)
	}

	cfg := &Config{
		SupportedVersions: fc.SupportedVersions,
		Remote:            fc.Remote,
		CheckRemote:       true,
		DisabledRules:     fc.DisabledRules,
		Concurrency:       fc.Concurrency,
		DefaultBranch:     fc.DefaultBranch,
	}
	if fc.CheckRemote != nil {
		cfg.CheckRemote = *fc.CheckRemote
	}

	if remote := strings.TrimSpace(getenv("CIPLAN_REMOTE")); remote != "" {
		cfg.Remote = remote
	}
	if concurrency := strings.TrimSpace(getenv("CIPLAN_CONCURRENCY")); concurrency != "" {
		cfg.Concurrency, err = strconv.Atoi(concurrency)
		if err != nil {
			return nil, errors.Wrapf(err, "parse CIPLAN_CONCURRENCY %q", concurrency)
		}
	}
	if disabled := getenv("CIPLAN_DISABLED_RULES"); disabled != "" {
		cfg.DisabledRules = splitList(disabled)
	}

	if len(cfg.SupportedVersions) == 0 && fc.SupportedVersions == nil {
		cfg.SupportedVersions = append([]string(nil), DefaultSupportedVersions...)
	}
	if cfg.Remote == "" {
		cfg.Remote = "origin"
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 4
	}
	if cfg.DefaultBranch == "" {
		cfg.DefaultBranch = "master"
	}

	err = cfg.validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func splitList(s string) []string {
	var res []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			res = append(res, item)
		}
	}

	return res
}

func (c *Config) validate() error {
	if c.Concurrency < 0 {
		return errors.Wrapf(ErrInvalidConcurrency, "got %d", c.Concurrency)
	}
	if len(c.SupportedVersions) == 0 {
		return ErrNoSupportedVersion
	}

	return nil
}

// ValidateRules returns an error naming the disabled rules which are not in known.
func (c *Config) ValidateRules(known []string) error {
	set := make(map[string]struct{}, len(known))
	for _, name := range known {
		set[name] = struct{}{}
	}

	var unknown []string
	for _, name := range c.DisabledRules {
		if _, ok := set[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return errors.Errorf("unknown rules in disabled_rules: %s", strings.Join(unknown, ", "))
	}

	return nil
}
