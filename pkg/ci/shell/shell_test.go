package shell_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-ciplan/pkg/ci/shell"
)

func TestCheck(t *testing.T) {
	t.Parallel()

	valid := []string{
		"poetry build",
		`pip install "$(ls dist/*.whl)[test]"`,
		"coverage run -m pytest",
		"bash <(curl -s https://codecov.io/bash)",
		"if [[ $TRAVIS_JOB_NAME != Documentation ]]; then source .travis/setup.sh; fi",
		"curl -sSL https://example.com/get.py | python",
		"black . --check",
	}
	for _, cmd := range valid {
		assert.NoError(t, shell.Check(cmd), cmd)
	}

	invalid := []string{
		"if true; then echo",
		`echo "unterminated`,
		"foo (",
		"echo $((1 +))",
	}
	for _, cmd := range invalid {
		assert.Error(t, shell.Check(cmd), cmd)
	}

	assert.ErrorIs(t, shell.Check("   "), shell.ErrEmptyCommand)
}

func TestCheckPosition(t *testing.T) {
	t.Parallel()

	err := shell.Check("echo ok\nif true; then echo")
	require.Error(t, err)

	var syntaxErr *shell.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, uint(2), syntaxErr.Line)
	assert.NotZero(t, syntaxErr.Column)
	assert.NotEmpty(t, syntaxErr.Text)
	assert.Contains(t, err.Error(), "line 2 column ")
}

func TestVariables(t *testing.T) {
	t.Parallel()

	got, err := shell.Variables(`curl -H "Authorization: token ${GITHUB_TOKEN}" $API_URL/$API_URL; echo $HOME`)
	require.NoError(t, err)
	assert.Equal(t, []string{"API_URL", "GITHUB_TOKEN", "HOME"}, got)

	got, err = shell.Variables("make test")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = shell.Variables(`echo "oops`)
	assert.Error(t, err)
}
