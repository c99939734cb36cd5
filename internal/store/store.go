// Package store persists tasks as one file per task under status-named
// directories. The directory implies the status and the filename encodes the
// UUID, so neither appears inside the record.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ditrack/dit/internal/task"
)

var ErrInvalid = errors.New("invalid")

// DirStore is the docstore rooted at a git working tree. Tasks are markdown
// files with YAML frontmatter (notes in the body); bare .yml records from
// older versions are still read, and rewritten as .md on the next save.
type DirStore struct {
	Root string
}

func New(root string) *DirStore {
	return &DirStore{Root: root}
}

func (s *DirStore) path(status, taskUUID, ext string) string {
	return filepath.Join(s.Root, status, taskUUID+ext)
}

// List reads every task record in one status directory. Hidden files are
// skipped. Records that fail to parse are warned about and skipped so one
// corrupt file cannot block the rest of the collection. When both a .md and
// a legacy .yml record exist for the same UUID, the .md one is returned
// first, which makes it win during loading.
func (s *DirStore) List(status string) ([]task.Task, error) {
	dir := filepath.Join(s.Root, status)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Name(), entries[j].Name()
		aMd := strings.HasSuffix(a, ".md")
		bMd := strings.HasSuffix(b, ".md")
		if aMd != bMd {
			return aMd
		}
		return a < b
	})

	var tasks []task.Task
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		t, err := readTaskFile(filepath.Join(dir, name), name, status)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: skipping %s/%s: %v\n", status, name, err)
			continue
		}
		tasks = append(tasks, t)
	}

	return tasks, nil
}

// Read loads a single task record by status and identity.
func (s *DirStore) Read(status, taskUUID string) (task.Task, error) {
	for _, ext := range []string{".md", ".yml"} {
		path := s.path(status, taskUUID, ext)
		if _, err := os.Stat(path); err == nil {
			return readTaskFile(path, taskUUID+ext, status)
		}
	}
	return task.Task{}, fmt.Errorf("%w: no record for %s/%s", os.ErrNotExist, status, taskUUID)
}

// Write persists the task into its status directory and removes stale copies
// of the same UUID from every other status directory, so a status change is
// a move.
func (s *DirStore) Write(t task.Task) error {
	data, err := marshalTask(t)
	if err != nil {
		return err
	}

	if err := atomicWriteFile(s.path(t.Status, t.UUID, ".md"), data, 0o644); err != nil {
		return err
	}

	// The .md record supersedes any legacy .yml one in the same directory.
	_ = os.Remove(s.path(t.Status, t.UUID, ".yml"))

	for _, status := range task.AllStatuses {
		if status == t.Status {
			continue
		}
		_ = os.Remove(s.path(status, t.UUID, ".md"))
		_ = os.Remove(s.path(status, t.UUID, ".yml"))
	}

	return nil
}

// Delete removes the task's record from every status directory.
func (s *DirStore) Delete(t task.Task) error {
	for _, status := range task.AllStatuses {
		for _, ext := range []string{".md", ".yml"} {
			if err := os.Remove(s.path(status, t.UUID, ext)); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
		}
	}
	return nil
}

func uuidFromFilename(name string) (string, error) {
	base := strings.TrimSuffix(strings.TrimSuffix(name, ".md"), ".yml")
	if len(base) == len(name) {
		return "", fmt.Errorf("%w: %q is not a task record", ErrInvalid, name)
	}
	if _, err := uuid.Parse(base); err != nil {
		return "", fmt.Errorf("%w: filename %q does not encode a UUID", ErrInvalid, name)
	}
	return base, nil
}

func readTaskFile(path, name, status string) (task.Task, error) {
	taskUUID, err := uuidFromFilename(name)
	if err != nil {
		return task.Task{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return task.Task{}, err
	}

	var t task.Task
	if strings.HasSuffix(name, ".md") {
		t, err = unmarshalFrontmatter(data)
	} else {
		err = yaml.Unmarshal(data, &t)
	}
	if err != nil {
		return task.Task{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	t.UUID = taskUUID
	t.Status = status
	return t, nil
}

// marshalTask renders the frontmatter form: YAML metadata between ---
// delimiters, notes as the markdown body.
func marshalTask(t task.Task) ([]byte, error) {
	notes := t.Notes
	t.Notes = ""

	meta, err := yaml.Marshal(&t)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(meta)
	buf.WriteString("---\n")
	if notes != "" {
		buf.WriteString(notes)
		if !strings.HasSuffix(notes, "\n") {
			buf.WriteString("\n")
		}
	}
	return buf.Bytes(), nil
}

func unmarshalFrontmatter(data []byte) (task.Task, error) {
	s := strings.ReplaceAll(string(data), "\r\n", "\n")
	if !strings.HasPrefix(s, "---\n") {
		return task.Task{}, errors.New("missing frontmatter")
	}
	meta, body, found := strings.Cut(strings.TrimPrefix(s, "---\n"), "\n---\n")
	if !found {
		// Frontmatter closed at end of file with no body.
		trimmed, ok := strings.CutSuffix(strings.TrimPrefix(s, "---\n"), "\n---")
		if !ok {
			return task.Task{}, errors.New("invalid frontmatter delimiters")
		}
		meta, body = trimmed, ""
	}

	var t task.Task
	if err := yaml.Unmarshal([]byte(meta+"\n"), &t); err != nil {
		return task.Task{}, err
	}
	t.Notes = strings.TrimSuffix(body, "\n")
	return t, nil
}

func atomicWriteFile(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".tmp-%d", time.Now().UnixNano()))
	if err := os.WriteFile(tmp, data, perm); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	// Rename is atomic on the same filesystem.
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
