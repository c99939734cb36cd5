package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ditrack/dit/internal/task"
)

func TestWriteReadRoundTrip(t *testing.T) {
	s := New(t.TempDir())

	in := task.Task{
		UUID:     uuid.NewString(),
		Status:   task.StatusPending,
		Summary:  "water the plants",
		Notes:    "the ficus first\nthen the herbs",
		Tags:     []string{"home"},
		Project:  "garden",
		Priority: task.PriorityNormal,
		Created:  time.Now().Truncate(time.Second),
	}
	require.NoError(t, s.Write(in))

	out, err := s.Read(task.StatusPending, in.UUID)
	require.NoError(t, err)
	assert.True(t, in.Equals(&out), "record should survive the round trip")
	assert.Equal(t, in.Notes, out.Notes)
}

func TestWriteMovesBetweenStatusDirs(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	in := task.Task{UUID: uuid.NewString(), Status: task.StatusPending, Summary: "x"}
	require.NoError(t, s.Write(in))

	in.Status = task.StatusActive
	require.NoError(t, s.Write(in))

	_, err := os.Stat(filepath.Join(root, task.StatusPending, in.UUID+".md"))
	assert.True(t, os.IsNotExist(err), "stale pending record should be removed")

	out, err := s.Read(task.StatusActive, in.UUID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusActive, out.Status)
}

func TestLegacyYAMLRecord(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	id := uuid.NewString()

	dir := filepath.Join(root, task.StatusPending)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	legacy := "summary: from the old format\nnotes: kept inline\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".yml"), []byte(legacy), 0o644))

	out, err := s.Read(task.StatusPending, id)
	require.NoError(t, err)
	assert.Equal(t, "from the old format", out.Summary)
	assert.Equal(t, "kept inline", out.Notes)
	assert.Equal(t, id, out.UUID)

	// Saving rewrites the record in the current format and drops the old one.
	require.NoError(t, s.Write(out))
	_, err = os.Stat(filepath.Join(dir, id+".yml"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, id+".md"))
	assert.NoError(t, err)
}

func TestListPrefersRicherRecord(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	id := uuid.NewString()

	dir := filepath.Join(root, task.StatusPending)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	md := "---\nsummary: markdown record\n---\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".md"), []byte(md), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".yml"), []byte("summary: legacy record\n"), 0o644))

	tasks, err := s.List(task.StatusPending)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "markdown record", tasks[0].Summary)
}

func TestListSkipsJunk(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	dir := filepath.Join(root, task.StatusPending)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tmp-123"), []byte("partial"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a task"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, uuid.NewString()+".md"), []byte("no frontmatter"), 0o644))

	good := task.Task{UUID: uuid.NewString(), Status: task.StatusPending, Summary: "the real one"}
	require.NoError(t, s.Write(good))

	tasks, err := s.List(task.StatusPending)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "the real one", tasks[0].Summary)
}

func TestListMissingDir(t *testing.T) {
	s := New(t.TempDir())
	tasks, err := s.List(task.StatusPaused)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestDelete(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	in := task.Task{UUID: uuid.NewString(), Status: task.StatusPending, Summary: "gone soon"}
	require.NoError(t, s.Write(in))
	require.NoError(t, s.Delete(in))

	_, err := s.Read(task.StatusPending, in.UUID)
	assert.ErrorIs(t, err, os.ErrNotExist)

	// Deleting a task with no record on disk is not an error.
	assert.NoError(t, s.Delete(task.Task{UUID: uuid.NewString()}))
}

func TestFrontmatterWithoutBody(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	id := uuid.NewString()

	dir := filepath.Join(root, task.StatusPending)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	// Hand-edited record where the closing delimiter ends the file.
	record := "---\nsummary: terse\n---"
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".md"), []byte(record), 0o644))

	out, err := s.Read(task.StatusPending, id)
	require.NoError(t, err)
	assert.Equal(t, "terse", out.Summary)
	assert.Empty(t, out.Notes)
}
