// Package config resolves all environment-driven settings once at process
// start. The engine never reads ambient state: anything it needs to know
// about the environment arrives through this struct.
package config

import (
	"os"
	"path/filepath"

	"golang.org/x/term"
)

// Config is the resolved runtime configuration for one command invocation.
type Config struct {
	// Repo is the git working tree holding the task directories.
	Repo string

	// StateFile and IDsFile live under .git so they stay machine-local.
	StateFile string
	IDsFile   string

	// ContextOverride, when non-empty, replaces the persisted context for
	// this invocation (from DIT_CONTEXT).
	ContextOverride string

	// Interactive is true when stdout is a terminal. Confirmation prompts
	// and table rendering key off this; JSON output is used otherwise.
	Interactive bool

	// Editor is the command used for edit/note, $EDITOR or vim.
	Editor string
}

// FromEnv builds the configuration from the process environment.
func FromEnv() Config {
	repo := os.Getenv("DIT_GIT_REPO")
	if repo == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		repo = filepath.Join(home, ".dit")
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}

	return Config{
		Repo:            repo,
		StateFile:       filepath.Join(repo, ".git", "dit", "context.yml"),
		IDsFile:         filepath.Join(repo, ".git", "dit", "ids.yml"),
		ContextOverride: os.Getenv("DIT_CONTEXT"),
		Interactive:     term.IsTerminal(int(os.Stdout.Fd())),
		Editor:          editor,
	}
}
