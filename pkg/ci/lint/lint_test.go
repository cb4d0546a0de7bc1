package lint_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/askiada/go-ciplan/internal/git"
	"github.com/askiada/go-ciplan/pkg/ci/lint"
	"github.com/askiada/go-ciplan/pkg/ci/loader"
	"github.com/askiada/go-ciplan/pkg/ci/matrix"
	"github.com/askiada/go-ciplan/pkg/pipeline/measure"
)

var supported = []string{"3.5", "3.6", "3.7", "3.8"}

func input(t *testing.T, src string) *lint.Input {
	t.Helper()

	cfg, err := loader.Parse([]byte(src), "inline.yml")
	require.NoError(t, err)

	return &lint.Input{
		Config:            cfg,
		Expansion:         matrix.Expand(cfg),
		SupportedVersions: supported,
		Logger:            zaptest.NewLogger(t),
	}
}

func rules(diags []lint.Diagnostic) []string {
	res := make([]string, len(diags))
	for i, d := range diags {
		res[i] = d.Rule
	}

	return res
}

func TestLintFixtureIsClean(t *testing.T) {
	t.Parallel()

	cfg, err := loader.Load(filepath.Join("..", "loader", "testdata", "travis.yml"))
	require.NoError(t, err)

	m := measure.NewDefaultMeasure()
	l := lint.New(lint.WithLogger(zaptest.NewLogger(t)), lint.WithConcurrency(3), lint.WithMeasure(m))
	res, err := l.Lint(context.Background(), &lint.Input{
		Config:            cfg,
		Expansion:         matrix.Expand(cfg),
		SupportedVersions: supported,
		Branches:          git.Static{"master", "develop"},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
	assert.False(t, res.Failed())

	metric := m.GetMetric("job rules")
	require.NotNil(t, metric)
	assert.Equal(t, int64(7), metric.Count())
	assert.Equal(t, 3, metric.Concurrent())
}

func TestLintMissingDeployBranch(t *testing.T) {
	t.Parallel()

	cfg, err := loader.Load(filepath.Join("..", "loader", "testdata", "travis.yml"))
	require.NoError(t, err)

	res, err := lint.New().Lint(context.Background(), &lint.Input{
		Config:            cfg,
		Expansion:         matrix.Expand(cfg),
		SupportedVersions: supported,
		Branches:          git.Static{"main"},
	})
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 1)

	d := res.Diagnostics[0]
	assert.Equal(t, "deploy-branch", d.Rule)
	assert.Equal(t, lint.SeverityError, d.Severity)
	assert.Equal(t, 7, d.JobNumber)
	assert.Equal(t, "deploy-Documentation", d.JobName)
	assert.Contains(t, d.Message, `"master"`)
	assert.True(t, res.Failed())
}

type failingLister struct{}

func (failingLister) Branches(context.Context) ([]string, error) {
	return nil, assert.AnError
}

func TestLintRemoteError(t *testing.T) {
	t.Parallel()

	in := input(t, `
python: 3.7
install: [pip install .]
script: [pytest]
deploy:
  provider: pages
  on:
    branch: master
`)
	in.Branches = failingLister{}

	_, err := lint.New().Lint(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestLintRules(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		src      string
		expected []string
	}{
		"unsupported interpreter": {
			src: `
python: [3.8, "3.10"]
install: [pip install .]
script: [pytest]
`,
			expected: []string{"interpreter-version"},
		},
		"missing commands": {
			src: `
python: 3.7
script: [pytest]
`,
			expected: []string{"commands"},
		},
		"skipped phase is not missing": {
			src: `
python: 3.7
install: skip
script: [pytest]
`,
		},
		"shell syntax": {
			src: `
python: 3.7
install: [pip install .]
script: ["if [ -f x ]; then echo"]
`,
			expected: []string{"shell-syntax"},
		},
		"invalid condition": {
			src: `
python: 3.7
install: [pip install .]
script: [pytest]
stages:
  - name: test
    if: branch === master
`,
			expected: []string{"condition"},
		},
		"pipeline condition on job attribute": {
			src: `
python: 3.7
install: [pip install .]
script: [pytest]
if: branch = master AND os = linux
`,
			expected: []string{"condition"},
		},
		"workspace never created": {
			src: `
python: 3.7
install: [pip install .]
script: [pytest]
jobs:
  include:
    - name: deploy
      stage: deploy
      workspaces:
        use: docs
`,
			expected: []string{"workspace"},
		},
		"workspace created in the same stage": {
			src: `
python: 3.7
install: [pip install .]
script: [pytest]
jobs:
  include:
    - name: docs
      workspaces:
        create:
          name: docs
          paths: build
    - name: publish
      workspaces:
        use: docs
`,
			expected: []string{"workspace"},
		},
		"undeclared stage": {
			src: `
python: 3.7
install: [pip install .]
script: [pytest]
stages: [test]
jobs:
  include:
    - name: docs
      stage: docs
`,
			expected: []string{"stages"},
		},
		"duplicate job names": {
			src: `
python: 3.7
install: [pip install .]
script: [pytest]
jobs:
  include:
    - name: docs
    - name: docs
`,
			expected: []string{"job-names"},
		},
		"allow failure matches nothing": {
			src: `
python: 3.7
install: [pip install .]
script: [pytest]
jobs:
  allow_failures:
    - python: 3.9
`,
			expected: []string{"allow-failures"},
		},
		"plaintext credential": {
			src: `
python: 3.7
install: [pip install .]
script: [pytest]
deploy:
  provider: pypi
  api_key: abcdef
`,
			expected: []string{"secrets"},
		},
		"plaintext global env reported once": {
			src: `
python: [3.7, 3.8]
install: [pip install .]
script: [pytest]
env:
  global:
    - GITHUB_TOKEN=abc
`,
			expected: []string{"secrets"},
		},
		"plaintext env jobs entry": {
			src: `
python: 3.7
install: [pip install .]
script: [pytest]
env:
  jobs:
    - GITHUB_TOKEN=abc
`,
			expected: []string{"secrets"},
		},
		"plaintext include env": {
			src: `
python: 3.7
install: [pip install .]
script: [pytest]
jobs:
  include:
    - name: docs
      env: GITHUB_TOKEN=abc
`,
			expected: []string{"secrets"},
		},
		"secure and referenced env": {
			src: `
python: 3.7
install: [pip install .]
script: [pytest]
env:
  global:
    - secure: abcdef
    - API_KEY=$OTHER
`,
		},
		"deploy secret used outside deploy": {
			src: `
python: 3.7
install: [pip install .]
script: [pytest]
jobs:
  include:
    - name: leak
      script: [echo $PYPI_TOKEN]
    - stage: deploy
      name: publish
      deploy:
        provider: pypi
        api_key: $PYPI_TOKEN
`,
			expected: []string{"secrets"},
		},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			res, err := lint.New().Lint(context.Background(), input(t, tc.src))
			require.NoError(t, err)
			if len(tc.expected) == 0 {
				assert.Empty(t, res.Diagnostics)

				return
			}
			assert.Equal(t, tc.expected, rules(res.Diagnostics))
		})
	}
}

func TestLintDisabledRule(t *testing.T) {
	t.Parallel()

	src := `
python: "3.10"
install: [pip install .]
script: [pytest]
`
	res, err := lint.New(lint.WithDisabled("interpreter-version")).Lint(context.Background(), input(t, src))
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
}

func TestLintNilInput(t *testing.T) {
	t.Parallel()

	_, err := lint.New().Lint(context.Background(), nil)
	assert.ErrorIs(t, err, lint.ErrInputMustBeSet)
}

func TestLintShellSyntaxPosition(t *testing.T) {
	t.Parallel()

	res, err := lint.New().Lint(context.Background(), input(t, `
python: 3.7
install: [pip install .]
script: ["echo ok; if [ -f x ]; then echo"]
`))
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "shell-syntax", res.Diagnostics[0].Rule)
	assert.Contains(t, res.Diagnostics[0].Message, "line 1 column ")
}

func TestLintKeepsInput(t *testing.T) {
	t.Parallel()

	in := input(t, `
python: 3.7
install: [pip install .]
script: [pytest]
deploy:
  provider: pypi
  api_key: $PYPI_TOKEN
`)
	in.Logger = nil

	res, err := lint.New(lint.WithLogger(zaptest.NewLogger(t))).Lint(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
	assert.Nil(t, in.Logger)
}

func TestLintSortedAndDeduped(t *testing.T) {
	t.Parallel()

	src := `
python: [3.5, 3.6]
script: [pytest]
`
	res, err := lint.New().Lint(context.Background(), input(t, src))
	require.NoError(t, err)

	// both matrix jobs miss install: the shared finding is kept once, on the first job
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "commands", res.Diagnostics[0].Rule)
	assert.Equal(t, 1, res.Diagnostics[0].JobNumber)
}

func TestRuleNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{
		"interpreter-version", "commands", "shell-syntax", "condition", "deploy-branch",
		"workspace", "stages", "job-names", "allow-failures", "secrets",
	}, lint.RuleNames())
}
