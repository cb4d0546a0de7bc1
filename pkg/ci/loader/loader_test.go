package loader_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-ciplan/pkg/ci/loader"
	"github.com/askiada/go-ciplan/pkg/ci/model"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join("testdata", "travis.yml")
	cfg, err := loader.Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "python", cfg.Language)
	assert.Equal(t, model.StringList{"linux"}, cfg.OS)
	assert.Equal(t, model.StringList{"3.5", "3.6", "3.7", "3.8"}, cfg.Python)
	require.Len(t, cfg.Env.Global, 1)
	assert.Equal(t, "POETRY_VERSION", cfg.Env.Global[0].Name)
	assert.Equal(t, "1.0.5", cfg.Env.Global[0].Value)

	require.NotNil(t, cfg.Install)
	assert.Len(t, *cfg.Install, 3)
	require.NotNil(t, cfg.Script)
	assert.Equal(t, "poetry build", (*cfg.Script)[0])

	require.Len(t, cfg.Stages, 2)
	assert.Equal(t, "test", cfg.Stages[0].Name)
	assert.Equal(t, "deploy", cfg.Stages[1].Name)
	assert.Equal(t, "branch = master AND type = push", cfg.Stages[1].If)

	jobs := cfg.JobList()
	require.Len(t, jobs.Include, 3)

	style := jobs.Include[0]
	assert.Equal(t, "Style", style.Name)
	assert.Equal(t, model.StringList{"3.7"}, style.Python)
	require.NotNil(t, style.AfterSuccess)
	assert.Empty(t, *style.AfterSuccess)
	assert.Nil(t, style.BeforeInstall)
	assert.NotZero(t, style.Line)

	docs := jobs.Include[1]
	require.NotNil(t, docs.Workspaces.Create)
	assert.Equal(t, "docs", docs.Workspaces.Create.Name)
	assert.Equal(t, model.StringList{"docs/build"}, docs.Workspaces.Create.Paths)
	assert.Nil(t, docs.Install)

	deploy := jobs.Include[2]
	assert.Equal(t, "deploy", deploy.Stage)
	assert.Equal(t, "branch = master", deploy.If)
	assert.Equal(t, model.StringList{"docs"}, deploy.Workspaces.Use)
	require.Len(t, deploy.Deploy, 1)
	assert.Equal(t, "pages", deploy.Deploy[0].Provider)
	assert.Equal(t, "$GITHUB_TOKEN", deploy.Deploy[0].GithubToken.Value)
	assert.Equal(t, model.StringList{"master"}, deploy.Deploy[0].On.Branch)
	assert.Equal(t, false, deploy.Deploy[0].Extra["keep_history"])
	assert.True(t, deploy.Deploy[0].SkipCleanup)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		data      string
		expectErr error
	}{
		"empty":      {data: "  \n", expectErr: loader.ErrEmptyConfig},
		"comment":    {data: "# nothing\n", expectErr: loader.ErrEmptyConfig},
		"list":       {data: "- a\n- b\n", expectErr: loader.ErrNotMapping},
		"bad python": {data: "python:\n  a: b\n"},
		"bad yaml":   {data: "python: [3.5\n"},
		"bad env":    {data: "env:\n  global:\n    - {foo: bar}\n"},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := loader.Parse([]byte(tc.data), "pipeline.yml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "pipeline.yml")
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
			}
		})
	}
}

func TestParseScalarsAndLists(t *testing.T) {
	t.Parallel()

	cfg, err := loader.Parse([]byte(`
python: 3.10
os: [linux, osx]
env:
  - A=1
  - B=2
  - secure: abcdef
deploy:
  - provider: pypi
    api_key:
      secure: xyz
  - provider: pages
    token: $TOKEN
stages: [lint, test]
matrix:
  allow_failures:
    - python: "3.10"
  fast_finish: true
`), "pipeline.yml")
	require.NoError(t, err)

	assert.Equal(t, model.StringList{"3.10"}, cfg.Python)
	assert.Equal(t, model.StringList{"linux", "osx"}, cfg.OS)
	assert.Equal(t, []string{"A=1", "B=2", "[secure]"}, cfg.Env.Jobs.Strings())
	assert.True(t, cfg.Env.Jobs[2].Secure)
	require.Len(t, cfg.Deploy, 2)
	assert.Equal(t, "pypi", cfg.Deploy[0].Provider)
	assert.Equal(t, []string{"token"}, cfg.Deploy[1].CredentialKeys())
	assert.Equal(t, []string{"lint", "test"}, []string{cfg.Stages[0].Name, cfg.Stages[1].Name})

	jobs := cfg.JobList()
	assert.True(t, jobs.FastFinish)
	require.Len(t, jobs.AllowFailures, 1)
	assert.Equal(t, "3.10", jobs.AllowFailures[0].Python)
}
