// Package git wraps the version-control backend behind a small synchronous
// interface. Durability and multi-machine merge are git's job entirely; a
// failing call aborts the current command, nothing is retried.
package git

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Repo is a git working tree rooted at Dir.
type Repo struct {
	Dir string
}

func (r Repo) git(args ...string) *exec.Cmd {
	cmd := exec.Command("git", append([]string{"-C", r.Dir}, args...)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

// Exists reports whether Dir already is a git repository.
func (r Repo) Exists() bool {
	info, err := os.Stat(r.Dir + "/.git")
	return err == nil && info.IsDir()
}

// Init creates the directory and initialises an empty repository.
func (r Repo) Init() error {
	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("git required, please install: %w", err)
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return err
	}
	if err := r.git("init").Run(); err != nil {
		return fmt.Errorf("git init failed: %w", err)
	}
	return nil
}

// Commit stages everything and commits. Committing with nothing changed is a
// no-op, not an error.
func (r Repo) Commit(message string) error {
	if err := r.git("add", ".").Run(); err != nil {
		return fmt.Errorf("git add failed: %w", err)
	}

	// diff-index exits zero when the tree is clean.
	check := exec.Command("git", "-C", r.Dir, "diff-index", "--quiet", "HEAD", "--")
	if err := check.Run(); err == nil {
		return nil
	}

	if err := r.git("commit", "--no-gpg-sign", "-m", message).Run(); err != nil {
		return fmt.Errorf("git commit failed: %w", err)
	}
	return nil
}

// Pull brings in upstream changes, merging if necessary.
func (r Repo) Pull() error {
	if err := r.git("pull", "--no-rebase", "--no-edit").Run(); err != nil {
		return fmt.Errorf("git pull failed: %w", err)
	}
	return nil
}

// Push publishes local commits.
func (r Repo) Push() error {
	if err := r.git("push").Run(); err != nil {
		return fmt.Errorf("git push failed: %w", err)
	}
	return nil
}

// ResetLastCommit discards the most recent commit and its working-tree
// changes. Used by undo.
func (r Repo) ResetLastCommit() error {
	if err := r.git("reset", "--hard", "HEAD~1").Run(); err != nil {
		return fmt.Errorf("git reset failed: %w", err)
	}
	return nil
}

// Passthrough runs an arbitrary git subcommand against the repository with
// the user's terminal attached.
func (r Repo) Passthrough(args []string) error {
	if err := r.git(args...).Run(); err != nil {
		return fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}
	return nil
}
