package matrix_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-ciplan/pkg/ci/loader"
	"github.com/askiada/go-ciplan/pkg/ci/matrix"
	"github.com/askiada/go-ciplan/pkg/ci/model"
)

func names(jobs []*model.Job) []string {
	res := make([]string, len(jobs))
	for i, job := range jobs {
		res[i] = job.Name
	}

	return res
}

func TestExpandTravis(t *testing.T) {
	t.Parallel()

	cfg, err := loader.Load(filepath.Join("..", "loader", "testdata", "travis.yml"))
	require.NoError(t, err)

	exp := matrix.Expand(cfg)
	require.Len(t, exp.Jobs, 7)
	assert.Equal(t, []string{
		"Python 3.5", "Python 3.6", "Python 3.7", "Python 3.8",
		"Style", "Documentation", "deploy-Documentation",
	}, names(exp.Jobs))
	assert.Equal(t, []string{"test", "deploy"}, exp.Stages)

	for idx, job := range exp.Jobs {
		assert.Equal(t, idx+1, job.Number)
		assert.Equal(t, "linux", job.OS)
		assert.Equal(t, "xenial", job.Dist)
		assert.False(t, job.AllowFailure)
	}

	first := exp.Jobs[0]
	assert.Equal(t, model.OriginMatrix, first.Origin)
	assert.Equal(t, "3.5", first.Python)
	assert.Len(t, first.Commands[model.PhaseInstall], 3)
	assert.Len(t, first.Commands[model.PhaseScript], 3)
	assert.Len(t, first.Commands[model.PhaseAfterSuccess], 2)
	assert.Equal(t, []string{"POETRY_VERSION=1.0.5"}, first.Env.Strings())

	style := exp.Jobs[4]
	assert.Equal(t, model.OriginInclude, style.Origin)
	assert.Equal(t, "test", style.Stage)
	assert.Equal(t, "3.7", style.Python)
	assert.Equal(t, []string{"pip install flake8 black pydocstyle"}, style.Commands[model.PhaseInstall])
	assert.Equal(t, []string{"flake8", "black . --check", "pydocstyle src"}, style.Commands[model.PhaseScript])
	assert.Empty(t, style.Commands[model.PhaseAfterSuccess])

	docs := exp.Jobs[5]
	assert.Equal(t, "test", docs.Stage)
	assert.Len(t, docs.Commands[model.PhaseInstall], 3, "documentation inherits the root install")
	require.NotNil(t, docs.Workspaces.Create)
	assert.Equal(t, "docs", docs.Workspaces.Create.Name)
	assert.False(t, docs.IsDeploy())

	deploy := exp.Jobs[6]
	assert.Equal(t, "deploy", deploy.Stage)
	assert.True(t, deploy.Skipped[model.PhaseInstall])
	assert.True(t, deploy.Skipped[model.PhaseScript])
	assert.Empty(t, deploy.Commands[model.PhaseScript])
	assert.True(t, deploy.IsDeploy())
	assert.Equal(t, "branch = master", deploy.If)

	testJobs := exp.StageJobs("test")
	require.Len(t, testJobs, 6)
	assert.Same(t, docs, testJobs[5])
	assert.Equal(t, 1, exp.StageIndex("deploy"))
	assert.Equal(t, -1, exp.StageIndex("unknown"))

	got, ok := exp.Job(7)
	require.True(t, ok)
	assert.Same(t, deploy, got)
	_, ok = exp.Job(8)
	assert.False(t, ok)
}

func TestExpandAxesExcludeAllowFailures(t *testing.T) {
	t.Parallel()

	cfg, err := loader.Parse([]byte(`
language: python
os: [linux, osx]
python: ["3.7", "3.8"]
env:
  jobs:
    - DB=pg
    - DB=sqlite
script: pytest
jobs:
  exclude:
    - os: osx
      env: DB=pg
  allow_failures:
    - python: "3.8"
      os: osx
  fast_finish: true
`), "pipeline.yml")
	require.NoError(t, err)

	exp := matrix.Expand(cfg)
	assert.True(t, exp.FastFinish)
	assert.Equal(t, []string{
		"Python 3.7 DB=pg", "Python 3.7 DB=sqlite", "Python 3.8 DB=pg", "Python 3.8 DB=sqlite",
		"Python 3.7 DB=sqlite", "Python 3.8 DB=sqlite",
	}, names(exp.Jobs))

	allowed := []int{}
	for _, job := range exp.Jobs {
		if job.AllowFailure {
			allowed = append(allowed, job.Number)
		}
	}
	assert.Equal(t, []int{6}, allowed)
	assert.Equal(t, "osx", exp.Jobs[5].OS)
	assert.Nil(t, exp.Jobs[0].Commands[model.PhaseInstall])
	assert.Equal(t, []string{"pytest"}, exp.Jobs[0].Commands[model.PhaseScript])
}

func TestExpandLegacyEnvMatrix(t *testing.T) {
	t.Parallel()

	cfg, err := loader.Parse([]byte(`
language: python
python: "3.7"
env:
  global: [A=1]
  matrix: [X=1, X=2]
script: pytest
`), "pipeline.yml")
	require.NoError(t, err)

	exp := matrix.Expand(cfg)
	require.Len(t, exp.Jobs, 2)
	assert.Equal(t, []string{"Python 3.7 X=1", "Python 3.7 X=2"}, names(exp.Jobs))
	assert.Equal(t, []string{"A=1", "X=2"}, exp.Jobs[1].Env.Strings())
	assert.Equal(t, 6, exp.Jobs[0].Line)
}

func TestExpandLegacyMatrixKey(t *testing.T) {
	t.Parallel()

	cfg, err := loader.Parse([]byte(`
language: python
python: ["3.7", "3.8"]
script: pytest
matrix:
  fast_finish: true
  allow_failures:
    - python: "3.8"
  include:
    - stage: lint
      name: flake8
      script: flake8
`), "pipeline.yml")
	require.NoError(t, err)

	exp := matrix.Expand(cfg)
	assert.True(t, exp.FastFinish)
	assert.Equal(t, []string{"Python 3.7", "Python 3.8", "flake8"}, names(exp.Jobs))
	assert.False(t, exp.Jobs[0].AllowFailure)
	assert.True(t, exp.Jobs[1].AllowFailure)
	assert.Equal(t, "lint", exp.Jobs[2].Stage)
}

func TestExpandIncludeOnly(t *testing.T) {
	t.Parallel()

	cfg, err := loader.Parse([]byte(`
language: go
script: go test ./...
stages: [lint, test, release]
jobs:
  include:
    - stage: lint
      name: vet
      script: go vet ./...
    - name: golangci
    - stage: test
    - stage: release
      name: publish
      deploy:
        provider: releases
        api_key: $GH_TOKEN
`), "pipeline.yml")
	require.NoError(t, err)

	exp := matrix.Expand(cfg)
	require.Len(t, exp.Jobs, 4)
	assert.Equal(t, []string{"lint", "test", "release"}, exp.Stages)
	assert.Equal(t, "lint", exp.Jobs[1].Stage, "stage is inherited from the previous include")
	assert.Equal(t, "Go", exp.Jobs[2].Name)
	assert.Equal(t, []string{"go test ./..."}, exp.Jobs[2].Commands[model.PhaseScript])
	assert.Equal(t, []string{"go vet ./..."}, exp.Jobs[0].Commands[model.PhaseScript])
	assert.True(t, exp.Jobs[3].IsDeploy())
}

func TestExpandUndeclaredStagesAppended(t *testing.T) {
	t.Parallel()

	cfg, err := loader.Parse([]byte(`
python: "3.8"
stages: [deploy, test]
jobs:
  include:
    - stage: docs
      name: docs
`), "pipeline.yml")
	require.NoError(t, err)

	exp := matrix.Expand(cfg)
	assert.Equal(t, []string{"test", "docs"}, exp.Stages, "declared stages without jobs are dropped")
}
