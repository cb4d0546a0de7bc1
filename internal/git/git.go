// Package git lists the branches of a repository remote.
package git

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const headsPrefix = "refs/heads/"

// Runner runs a git command in dir and returns its standard output.
type Runner func(ctx context.Context, dir string, args ...string) ([]byte, error)

// ExecRunner runs the git binary found in PATH.
func ExecRunner(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrapf(err, "git %s: %s", strings.Join(args, " "), strings.TrimSpace(stderr.String()))
	}

	return out, nil
}

// Remote lists the branches of a git remote with ls-remote.
type Remote struct {
	Dir    string
	Name   string
	Run    Runner
	Logger *zap.Logger
}

// NewRemote returns a Remote for the named remote of the repository in dir.
func NewRemote(dir, name string, logger *zap.Logger) *Remote {
	return &Remote{
		Dir:    dir,
		Name:   name,
		Run:    ExecRunner,
		Logger: logger,
	}
}

// Branches returns the sorted branch names of the remote.
func (r *Remote) Branches(ctx context.Context) ([]string, error) {
	out, err := r.Run(ctx, r.Dir, "ls-remote", "--heads", r.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list branches of %s", r.Name)
	}

	branches := ParseHeads(out)
	if r.Logger != nil {
		r.Logger.Debug("listed remote branches", zap.String("remote", r.Name), zap.Int("count", len(branches)))
	}

	return branches, nil
}

// ParseHeads extracts the sorted branch names from ls-remote --heads output.
func ParseHeads(out []byte) []string {
	var branches []string

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 || !strings.HasPrefix(fields[1], headsPrefix) {
			continue
		}
		branches = append(branches, strings.TrimPrefix(fields[1], headsPrefix))
	}
	sort.Strings(branches)

	return branches
}

// Static is a fixed branch list.
type Static []string

// Branches returns the list, sorted.
func (s Static) Branches(context.Context) ([]string, error) {
	res := append([]string{}, s...)
	sort.Strings(res)

	return res, nil
}
