// Package git is the git collaborator of the commit workflow and the git
// panel: repository status, the diff to describe, commit and push. It shells
// out to the git CLI.
package git

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// EmptyTree is the hash of git's empty tree, the diff base of a repository
// without commits.
const EmptyTree = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// StateDir is the directory devhub keeps per-project state in. Its contents
// never show up in a status, a diff or a commit, wherever the project sits
// inside the work tree.
const StateDir = ".devhub"

// workTree is the pathspec selecting the whole work tree except StateDir.
var workTree = []string{"--", ".", ":(exclude,glob)**/" + StateDir + "/**"}

// ErrNotRepository is returned by Open outside a work tree.
var ErrNotRepository = errors.New("not a git repository")

// Repo is a git work tree.
type Repo struct {
	Root string
}

// Open finds the work tree containing path.
func Open(path string) (*Repo, error) {
	root, err := FindRepoRoot(path)
	if err != nil {
		return nil, err
	}
	return &Repo{Root: root}, nil
}

// FindRepoRoot returns the top level directory of the work tree containing
// path.
func FindRepoRoot(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}

	cmd := exec.Command("git", "-C", absPath, "rev-parse", "--show-toplevel")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotRepository, absPath)
	}
	return filepath.Clean(strings.TrimSpace(stdout.String())), nil
}

func (r *Repo) run(stdin string, args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", r.Root}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Branch returns the current branch. detached is set when HEAD points at a
// commit rather than a branch.
func (r *Repo) Branch() (name string, detached bool, err error) {
	out, err := r.run("", "symbolic-ref", "--short", "-q", "HEAD")
	if err == nil {
		return strings.TrimSpace(out), false, nil
	}
	out, err = r.run("", "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", true, err
	}
	return strings.TrimSpace(out), true, nil
}

// HasCommits reports whether HEAD resolves to a commit.
func (r *Repo) HasCommits() bool {
	_, err := r.run("", "rev-parse", "--verify", "-q", "HEAD")
	return err == nil
}

// Commit describes a commit.
type Commit struct {
	Hash    string
	Subject string
	Time    time.Time
}

// LastCommit returns the commit at HEAD.
func (r *Repo) LastCommit() (Commit, error) {
	out, err := r.run("", "log", "-1", "--format=%h%x00%ct%x00%s")
	if err != nil {
		return Commit{}, err
	}
	parts := strings.SplitN(strings.TrimSpace(out), "\x00", 3)
	if len(parts) != 3 {
		return Commit{}, fmt.Errorf("parsing git log output %q", out)
	}
	timestamp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Commit{}, fmt.Errorf("parsing timestamp: %w", err)
	}
	return Commit{Hash: parts[0], Subject: parts[2], Time: time.Unix(timestamp, 0)}, nil
}

// CommitAll stages every change and commits it with message.
func (r *Repo) CommitAll(message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return errors.New("empty commit message")
	}
	if _, err := r.run("", append([]string{"add", "-A"}, workTree...)...); err != nil {
		return err
	}
	_, err := r.run(message+"\n", "commit", "-F", "-")
	return err
}

// Push pushes the current branch, setting the upstream when it has none.
func (r *Repo) Push() error {
	if _, err := r.run("", "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{u}"); err != nil {
		_, err = r.run("", "push", "-u", "origin", "HEAD")
		return err
	}
	_, err := r.run("", "push")
	return err
}
