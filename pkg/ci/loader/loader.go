// Package loader reads CI pipeline definitions.
package loader

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-ciplan/pkg/ci/model"
)

var (
	ErrEmptyConfig = errors.New("pipeline definition is empty")
	ErrNotMapping  = errors.New("pipeline definition must be a mapping")
)

// Load reads and parses the pipeline definition at path.
func Load(path string) (*model.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", path)
	}

	return Parse(data, path)
}

// Parse parses a pipeline definition. name is used in errors and recorded on the config.
func Parse(data []byte, name string) (*model.Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.Wrap(ErrEmptyConfig, name)
	}

	var doc yaml.Node
	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse %s", name)
	}

	if len(doc.Content) == 0 {
		return nil, errors.Wrap(ErrEmptyConfig, name)
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.Wrapf(ErrNotMapping, "%s: line %d", name, root.Line)
	}

	cfg := &model.Config{}
	err = root.Decode(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode %s", name)
	}
	cfg.File = name

	return cfg, nil
}
