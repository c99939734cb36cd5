// Package state persists the small per-checkout state that is not part of
// the task records themselves: the active context query, and the uuid→id map
// that keeps short IDs stable between runs. Both live under the repository's
// .git directory so they never sync between machines.
package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ditrack/dit/internal/task"
)

// LocalState holds the persisted context. A missing or corrupt state file
// means "no context"; it is never a fatal condition.
type LocalState struct {
	Context task.Query
	path    string
}

// Load reads the context from path, or returns an empty context when the
// file is absent or unreadable.
func Load(path string) *LocalState {
	st := &LocalState{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		return st
	}
	var ctx task.Query
	if err := yaml.Unmarshal(data, &ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: ignoring corrupt state file %s: %v\n", path, err)
		return st
	}
	st.Context = ctx
	return st
}

// SetContext validates and replaces the context. A context must only add
// filter constraints: carrying IDs or search text would pin every future
// command to specific tasks.
func (st *LocalState) SetContext(ctx task.Query) error {
	if len(ctx.IDs) > 0 {
		return fmt.Errorf("%w: context cannot contain IDs", task.ErrParse)
	}
	if ctx.Text != "" {
		return fmt.Errorf("%w: context cannot contain text", task.ErrParse)
	}
	st.Context = ctx
	return nil
}

// Save writes the context back, creating intermediate directories.
func (st *LocalState) Save() error {
	data, err := yaml.Marshal(&st.Context)
	if err != nil {
		return err
	}
	return writeFile(st.path, data)
}

// LoadIDs reads the uuid→id map, or an empty map when absent or corrupt.
func LoadIDs(path string) map[string]int {
	ids := map[string]int{}

	data, err := os.ReadFile(path)
	if err != nil {
		return ids
	}
	if err := yaml.Unmarshal(data, &ids); err != nil {
		fmt.Fprintf(os.Stderr, "warning: ignoring corrupt ids file %s: %v\n", path, err)
		return map[string]int{}
	}
	return ids
}

// SaveIDs writes the uuid→id map, creating intermediate directories.
func SaveIDs(path string, ids map[string]int) error {
	data, err := yaml.Marshal(ids)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
