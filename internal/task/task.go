package task

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Subtask is a single checklist entry carried in a task record.
type Subtask struct {
	Summary  string `yaml:"summary"`
	Resolved bool   `yaml:"resolved"`
}

// Task is one task record. UUID, Status and ID are not part of the on-disk
// record: the directory implies the status, the filename encodes the UUID and
// short IDs live in local state.
type Task struct {
	UUID   string `yaml:"-"`
	Status string `yaml:"-"`
	ID     int    `yaml:"-"`

	// WritePending marks the task as needing to be persisted before the
	// command completes. Deleted marks it for removal instead.
	WritePending bool `yaml:"-"`
	Deleted      bool `yaml:"-"`

	Summary      string    `yaml:"summary"`
	Notes        string    `yaml:"notes"`
	Tags         []string  `yaml:"tags"`
	Project      string    `yaml:"project"`
	Priority     string    `yaml:"priority"`
	DelegatedTo  string    `yaml:"delegatedto"`
	Subtasks     []Subtask `yaml:"subtasks"`
	Dependencies []string  `yaml:"dependencies"`
	Created      time.Time `yaml:"created"`
	Resolved     time.Time `yaml:"resolved"`
	Due          time.Time `yaml:"due"`

	// Filtered excludes the task from the current view without removing it
	// from the set. Set by the filter pipeline, never cleared by it.
	Filtered bool `yaml:"-"`
}

// New returns a pending task with a fresh UUID, ready to be loaded into a
// TaskSet.
func New(summary string) Task {
	return Task{
		UUID:         uuid.NewString(),
		Status:       StatusPending,
		WritePending: true,
		Summary:      summary,
		Priority:     PriorityNormal,
		Created:      time.Now(),
	}
}

// Normalise puts derived fields into canonical form. Idempotent.
func (t *Task) Normalise() {
	t.Project = strings.ToLower(t.Project)

	for i, tag := range t.Tags {
		t.Tags[i] = strings.ToLower(tag)
	}
	sort.Strings(t.Tags)
	t.Tags = dedupeSorted(t.Tags)

	// Resolved tasks do not hold short IDs.
	if t.Status == StatusResolved {
		t.ID = 0
	}

	if t.Priority == "" {
		t.Priority = PriorityNormal
	}
}

// Validate checks identity, status, priority and dependency references.
func (t *Task) Validate() error {
	if _, err := uuid.Parse(t.UUID); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidUUID, t.UUID)
	}
	if !IsValidStatus(t.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if !IsValidPriority(t.Priority) {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	for _, dep := range t.Dependencies {
		if _, err := uuid.Parse(dep); err != nil {
			return fmt.Errorf("%w: dependency %q", ErrInvalidUUID, dep)
		}
	}
	return nil
}

// MatchesFilter reports whether the task satisfies every constraint in the
// query. Pure predicate; no mutation.
func (t *Task) MatchesFilter(q Query) bool {
	if len(q.IDs) > 0 && !containsInt(q.IDs, t.ID) {
		return false
	}

	for _, tag := range q.Tags {
		if !containsString(t.Tags, tag) {
			return false
		}
	}
	for _, tag := range q.AntiTags {
		if containsString(t.Tags, tag) {
			return false
		}
	}

	if containsString(q.AntiProjects, t.Project) {
		return false
	}
	if q.Project != "" && t.Project != q.Project {
		return false
	}

	if !q.Due.IsZero() {
		if t.Due.IsZero() {
			return false
		}
		switch q.DateFilter {
		case "after":
			if !t.Due.After(q.Due) {
				return false
			}
		case "before":
			if !t.Due.Before(q.Due) {
				return false
			}
		default: // "on", "in" and the empty filter mean the same calendar day
			if !sameDay(t.Due, q.Due) {
				return false
			}
		}
	}

	if q.Priority != "" && t.Priority != q.Priority {
		return false
	}

	if q.Text != "" {
		needle := strings.ToLower(q.Text)
		if !strings.Contains(strings.ToLower(t.Summary), needle) &&
			!strings.Contains(strings.ToLower(t.Notes), needle) {
			return false
		}
	}

	return true
}

// Modify applies the query's operator fields to the task and marks it
// write-pending.
func (t *Task) Modify(q Query) {
	for _, tag := range q.Tags {
		if !containsString(t.Tags, tag) {
			t.Tags = append(t.Tags, tag)
		}
	}

	kept := t.Tags[:0]
	for _, tag := range t.Tags {
		if !containsString(q.AntiTags, tag) {
			kept = append(kept, tag)
		}
	}
	t.Tags = kept

	if q.Project != "" {
		t.Project = q.Project
	}
	if containsString(q.AntiProjects, t.Project) {
		t.Project = ""
	}

	if q.Priority != "" {
		t.Priority = q.Priority
	}

	if !q.Due.IsZero() {
		t.Due = q.Due
	}

	if q.Note != "" {
		if t.Notes != "" {
			t.Notes += "\n"
		}
		t.Notes += q.Note
	}

	t.WritePending = true
}

// LongSummary is the summary plus the most recent note line, for list views.
func (t *Task) LongSummary() string {
	notes := strings.TrimSpace(t.Notes)
	if notes == "" {
		return t.Summary
	}
	lines := strings.Split(notes, "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "" {
		return t.Summary
	}
	return t.Summary + " " + NoteModeKeyword + " " + last
}

// Equals compares core fields, ignoring ephemeral state such as short ID and
// the filtered/write-pending flags.
func (t *Task) Equals(other *Task) bool {
	return t.UUID == other.UUID &&
		t.Status == other.Status &&
		t.Summary == other.Summary &&
		t.Notes == other.Notes &&
		equalStrings(t.Tags, other.Tags) &&
		t.Project == other.Project &&
		t.Priority == other.Priority &&
		t.DelegatedTo == other.DelegatedTo &&
		equalStrings(t.Dependencies, other.Dependencies) &&
		t.Created.Equal(other.Created) &&
		t.Resolved.Equal(other.Resolved) &&
		t.Due.Equal(other.Due)
}

func (t *Task) String() string {
	if t.ID > 0 {
		return fmt.Sprintf("%d: %s", t.ID, t.Summary)
	}
	return t.Summary
}

func dedupeSorted(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || sorted[i-1] != s {
			out = append(out, s)
		}
	}
	return out
}

func containsInt(list []int, n int) bool {
	for _, item := range list {
		if item == n {
			return true
		}
	}
	return false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
