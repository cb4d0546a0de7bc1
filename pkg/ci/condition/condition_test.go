package condition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-ciplan/pkg/ci/condition"
)

func TestEval(t *testing.T) {
	t.Parallel()

	master := condition.Vars{Branch: "master", Type: "push", OS: "linux"}
	feature := condition.Vars{Branch: "feature/x", Type: "pull_request", OS: "linux"}
	tagged := condition.Vars{Branch: "v1.2.0", Tag: "v1.2.0", Type: "push"}

	tcs := map[string]struct {
		src  string
		vars condition.Vars
		want bool
	}{
		"branch equals":         {src: "branch = master", vars: master, want: true},
		"branch equals false":   {src: "branch = master", vars: feature, want: false},
		"double equals":         {src: "branch == master", vars: master, want: true},
		"not equals":            {src: "branch != master", vars: feature, want: true},
		"and":                   {src: "branch = master AND type = push", vars: master, want: true},
		"and false":             {src: "branch = master AND type = cron", vars: master, want: false},
		"lower case keywords":   {src: "branch = master and type = push", vars: master, want: true},
		"or":                    {src: "branch = develop OR type = push", vars: master, want: true},
		"symbols":               {src: "branch = develop || (type = push && os = linux)", vars: master, want: true},
		"not":                   {src: "NOT type = pull_request", vars: master, want: true},
		"bang":                  {src: "!(type = pull_request)", vars: feature, want: false},
		"precedence":            {src: "branch = x OR branch = master AND type = cron", vars: master, want: false},
		"in":                    {src: "type IN (push, api)", vars: master, want: true},
		"not in":                {src: "type NOT IN (push, api)", vars: feature, want: true},
		"is present":            {src: "tag IS present", vars: tagged, want: true},
		"is blank":              {src: "tag IS blank", vars: master, want: true},
		"is not present":        {src: "tag IS NOT present", vars: tagged, want: false},
		"regex bare":            {src: "branch =~ ^feature/", vars: feature, want: true},
		"regex slashes":         {src: `tag =~ /^v\d+\.\d+/`, vars: tagged, want: true},
		"regex not match":       {src: "branch !~ ^feature/", vars: master, want: true},
		"quoted":                {src: `branch = "feature/x"`, vars: feature, want: true},
		"single quoted escaped": {src: `branch = 'it\'s'`, vars: condition.Vars{Branch: "it's"}, want: true},
		"branch with slash":     {src: "branch = feature/x", vars: feature, want: true},
		"non ascii value":       {src: "branch = càt", vars: condition.Vars{Branch: "càt"}, want: true},
		"non ascii only":        {src: "branch = Å", vars: condition.Vars{Branch: "Å"}, want: true},
		"form feed":             {src: "branch = master\f", vars: master, want: true},
		"vertical tab":          {src: "branch\v= master", vars: master, want: true},
		"unicode space":         {src: "branch =\u00a0master", vars: master, want: true},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cond, err := condition.Parse(tc.src)
			require.NoError(t, err)
			assert.Equal(t, tc.want, cond.Eval(tc.vars))
			assert.Equal(t, tc.src, cond.String())
		})
	}
}

func TestNilConditionIsTrue(t *testing.T) {
	t.Parallel()

	var cond *condition.Condition
	assert.True(t, cond.Eval(condition.Vars{}))
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		src    string
		offset int
	}{
		"empty":               {src: "   ", offset: 0},
		"missing value":       {src: "branch =", offset: 8},
		"missing operator":    {src: "branch master", offset: 7},
		"dangling and":        {src: "branch = master AND", offset: 19},
		"unclosed paren":      {src: "(branch = master", offset: 16},
		"unterminated string": {src: `branch = "master`, offset: 9},
		"bad regex":           {src: "branch =~ /[/", offset: 10},
		"regex with equals":   {src: "branch = /x/", offset: 9},
		"bad list":            {src: "type IN (push api)", offset: 14},
		"bad is":              {src: "tag IS there", offset: 7},
		"trailing":            {src: "branch = master )", offset: 16},
		"keyword as attr":     {src: "AND = x", offset: 0},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := condition.Parse(tc.src)
			require.Error(t, err)

			var syntaxErr *condition.SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Equal(t, tc.offset, syntaxErr.Offset)
		})
	}
}

func TestParseUnknownAttribute(t *testing.T) {
	t.Parallel()

	_, err := condition.Parse("brnch = master")
	assert.ErrorIs(t, err, condition.ErrUnknownAttribute)
	assert.Contains(t, err.Error(), "brnch")
}

func TestLiterals(t *testing.T) {
	t.Parallel()

	cond, err := condition.Parse("(branch = master OR branch IN (main, release)) AND NOT branch = wip AND type = push")
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "master", "release"}, cond.Literals("branch"))
	assert.Equal(t, []string{"push"}, cond.Literals("type"))
	assert.Empty(t, cond.Literals("tag"))
	assert.Equal(t, []string{"branch", "type"}, cond.References())
}
