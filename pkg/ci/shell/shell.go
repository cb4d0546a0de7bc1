// Package shell checks the commands of a pipeline phase.
package shell

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"mvdan.cc/sh/v3/syntax"
)

// ErrEmptyCommand is returned for blank commands.
var ErrEmptyCommand = errors.New("empty command")

// SyntaxError is a command that does not parse. Line and Column start at 1.
type SyntaxError struct {
	Line   uint
	Column uint
	Text   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d column %d: %s", e.Line, e.Column, e.Text)
}

func newParser() *syntax.Parser {
	return syntax.NewParser(syntax.Variant(syntax.LangBash), syntax.KeepComments(false))
}

func parse(cmd string) (*syntax.File, error) {
	if strings.TrimSpace(cmd) == "" {
		return nil, ErrEmptyCommand
	}

	file, err := newParser().Parse(strings.NewReader(cmd), "")
	if err != nil {
		var parseErr syntax.ParseError
		if errors.As(err, &parseErr) {
			return nil, &SyntaxError{Line: parseErr.Pos.Line(), Column: parseErr.Pos.Col(), Text: parseErr.Text}
		}

		return nil, err
	}

	return file, nil
}

// Check reports whether cmd is a syntactically valid bash invocation.
// Parse errors are returned as *SyntaxError.
func Check(cmd string) error {
	_, err := parse(cmd)

	return err
}

// Variables returns the sorted names of the parameters expanded by cmd.
func Variables(cmd string) ([]string, error) {
	file, err := parse(cmd)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	syntax.Walk(file, func(node syntax.Node) bool {
		if param, ok := node.(*syntax.ParamExp); ok && param.Param != nil {
			seen[param.Param.Value] = struct{}{}
		}

		return true
	})

	res := make([]string, 0, len(seen))
	for name := range seen {
		res = append(res, name)
	}
	sort.Strings(res)

	return res, nil
}
