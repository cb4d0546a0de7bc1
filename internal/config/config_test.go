package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-ciplan/internal/config"
)

func env(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ciplan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadWithEnv("", env(map[string]string{}))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSupportedVersions, cfg.SupportedVersions)
	assert.Equal(t, "origin", cfg.Remote)
	assert.True(t, cfg.CheckRemote)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "master", cfg.DefaultBranch)
	assert.Empty(t, cfg.DisabledRules)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadWithEnv(filepath.Join(t.TempDir(), config.DefaultFile), env(nil))
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, `
supported_versions: ["3.8", "3.9"]
remote: upstream
check_remote: false
disabled_rules: [stages]
concurrency: 2
default_branch: main
`)

	cfg, err := config.LoadWithEnv(path, env(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"3.8", "3.9"}, cfg.SupportedVersions)
	assert.Equal(t, "upstream", cfg.Remote)
	assert.False(t, cfg.CheckRemote)
	assert.Equal(t, []string{"stages"}, cfg.DisabledRules)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, "main", cfg.DefaultBranch)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "remote: upstream\nconcurrency: 2\n")

	cfg, err := config.LoadWithEnv("", env(map[string]string{
		"CIPLAN_CONFIG":         path,
		"CIPLAN_REMOTE":         "fork",
		"CIPLAN_CONCURRENCY":    "8",
		"CIPLAN_DISABLED_RULES": "stages, job-names,,",
	}))
	require.NoError(t, err)
	assert.Equal(t, "fork", cfg.Remote)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, []string{"stages", "job-names"}, cfg.DisabledRules)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		content string
		env     map[string]string
		err     error
	}{
		"invalid yaml":          {content: "remote: [\n"},
		"invalid concurrency":   {content: "concurrency: -1\n", err: config.ErrInvalidConcurrency},
		"not a number":          {content: "", env: map[string]string{"CIPLAN_CONCURRENCY": "many"}},
		"config file not found": {env: map[string]string{"CIPLAN_CONFIG": "/does/not/exist.yaml"}},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := ""
			if tc.content != "" || tc.env["CIPLAN_CONFIG"] == "" {
				path = writeFile(t, tc.content)
			}
			_, err := config.LoadWithEnv(path, env(tc.env))
			require.Error(t, err)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
			}
		})
	}
}

func TestValidateRules(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{DisabledRules: []string{"stages", "nope"}}
	err := cfg.ValidateRules([]string{"stages", "secrets"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")

	cfg.DisabledRules = []string{"secrets"}
	assert.NoError(t, cfg.ValidateRules([]string{"stages", "secrets"}))
}
