package task

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store is the on-disk docstore the collection loads from and writes back to.
// One record per task, keyed by status directory and UUID; per-file parse
// failures are skipped by List, not surfaced as errors.
type Store interface {
	List(status string) ([]Task, error)
	Write(t Task) error
	Delete(t Task) error
}

// TaskSet is the loaded collection: an ordered list of tasks with two lookup
// indices. Owned by a single command for the duration of its
// load/mutate/save cycle; not safe for concurrent mutation.
type TaskSet struct {
	tasks  []*Task
	byID   map[int]int
	byUUID map[string]int
}

// NewTaskSet returns an empty collection.
func NewTaskSet() *TaskSet {
	return &TaskSet{
		byID:   make(map[int]int),
		byUUID: make(map[string]int),
	}
}

// Load reads every task under the given status directories. Short IDs from
// the persisted uuid→id map are applied before insertion so IDs stay stable
// between runs. Tasks with hidden-by-default statuses come back filtered;
// show- commands unhide them explicitly.
func Load(st Store, ids map[string]int, statuses []string) (*TaskSet, error) {
	ts := NewTaskSet()

	for _, status := range statuses {
		tasks, err := st.List(status)
		if err != nil {
			return nil, fmt.Errorf("loading %s tasks: %w", status, err)
		}
		for _, t := range tasks {
			t.ID = ids[t.UUID]
			if err := ts.LoadTask(t); err != nil {
				return nil, err
			}
		}
	}

	for _, t := range ts.tasks {
		if IsHiddenStatus(t.Status) {
			t.Filtered = true
		}
	}

	return ts, nil
}

// LoadTask normalises, validates and indexes a task. Loading a UUID twice is
// a silent no-op, which is how the richer record format wins over a legacy
// duplicate. A colliding short ID is discarded and reassigned rather than
// erroring.
func (ts *TaskSet) LoadTask(t Task) error {
	t.Normalise()

	if t.UUID == "" {
		t.UUID = uuid.NewString()
	}

	if err := t.Validate(); err != nil {
		return err
	}

	if _, ok := ts.byUUID[t.UUID]; ok {
		return nil
	}

	if t.ID > 0 {
		if _, taken := ts.byID[t.ID]; taken {
			t.ID = 0
		}
	}

	if t.ID == 0 && t.Status != StatusResolved {
		t.ID = ts.lowestFreeID()
	}

	if t.Created.IsZero() {
		t.Created = time.Now()
		t.WritePending = true
	}

	idx := len(ts.tasks)
	ts.tasks = append(ts.tasks, &t)
	ts.byUUID[t.UUID] = idx
	if t.ID > 0 {
		ts.byID[t.ID] = idx
	}
	return nil
}

// lowestFreeID returns the smallest unused positive ID, or 0 when the
// bounded ID space is exhausted.
func (ts *TaskSet) lowestFreeID() int {
	for id := 1; id <= MaxOpenTasks; id++ {
		if _, taken := ts.byID[id]; !taken {
			return id
		}
	}
	return 0
}

// UpdateTask replaces the stored record with the same UUID, enforcing the
// status transition table and the open-checklist guard, and keeping ID and
// resolved-timestamp bookkeeping consistent.
func (ts *TaskSet) UpdateTask(t Task) error {
	return ts.update(t, true)
}

// EditTask is UpdateTask without the transition table. This is the reopen
// loophole: editor-driven edits and the open command may move a task out of
// resolved even though no resolved→* edge exists in the table.
func (ts *TaskSet) EditTask(t Task) error {
	return ts.update(t, false)
}

func (ts *TaskSet) update(t Task, checkTransition bool) error {
	t.Normalise()
	if err := t.Validate(); err != nil {
		return err
	}

	idx, ok := ts.byUUID[t.UUID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, t.UUID)
	}
	old := ts.tasks[idx]

	if old.Status != t.Status {
		if checkTransition && !IsValidTransition(old.Status, t.Status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, old.Status, t.Status)
		}
		if t.Status == StatusResolved && strings.Contains(t.Notes, "- [ ] ") {
			return fmt.Errorf("refusing to resolve task %d with incomplete checklist", old.ID)
		}
	}

	if t.Status == StatusResolved {
		t.ID = 0
	}

	// Reopening: allocate a fresh ID and clear the resolved stamp.
	if old.Status == StatusResolved && t.Status != StatusResolved {
		if t.ID == 0 {
			if id := ts.lowestFreeID(); id > 0 {
				t.ID = id
				ts.byID[id] = idx
			}
		}
		t.Resolved = time.Time{}
	}

	if t.Status == StatusResolved {
		if old.ID > 0 {
			delete(ts.byID, old.ID)
		}
		if t.Resolved.IsZero() {
			t.Resolved = time.Now()
		}
	}

	t.WritePending = true
	ts.tasks[idx] = &t
	return nil
}

// DeleteTask removes a task from disk and from the set. Removal shifts
// positions, so both indices are rebuilt.
func (ts *TaskSet) DeleteTask(st Store, taskUUID string) error {
	idx, ok := ts.byUUID[taskUUID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, taskUUID)
	}

	if err := st.Delete(*ts.tasks[idx]); err != nil {
		return err
	}

	ts.tasks = append(ts.tasks[:idx], ts.tasks[idx+1:]...)
	ts.rebuildIndices()
	return nil
}

func (ts *TaskSet) rebuildIndices() {
	ts.byID = make(map[int]int, len(ts.tasks))
	ts.byUUID = make(map[string]int, len(ts.tasks))
	for idx, t := range ts.tasks {
		ts.byUUID[t.UUID] = idx
		if t.ID > 0 {
			ts.byID[t.ID] = idx
		}
	}
}

// GetByID returns the task holding the given short ID.
func (ts *TaskSet) GetByID(id int) (*Task, bool) {
	idx, ok := ts.byID[id]
	if !ok {
		return nil, false
	}
	return ts.tasks[idx], true
}

// MustGetByID is GetByID for callers that treat a missing ID as a command
// failure.
func (ts *TaskSet) MustGetByID(id int) (*Task, error) {
	t, ok := ts.GetByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: no task with ID %d", ErrNotFound, id)
	}
	return t, nil
}

// GetByUUID returns the task with the given identity.
func (ts *TaskSet) GetByUUID(taskUUID string) (*Task, bool) {
	idx, ok := ts.byUUID[taskUUID]
	if !ok {
		return nil, false
	}
	return ts.tasks[idx], true
}

// Filter marks every task not matching the query as filtered. The flag is
// monotonic: nothing a later pass does un-filters a task.
func (ts *TaskSet) Filter(q Query) {
	for _, t := range ts.tasks {
		if !t.MatchesFilter(q) {
			t.Filtered = true
		}
	}
}

// FilterByStatus hides everything except the given status.
func (ts *TaskSet) FilterByStatus(status string) {
	for _, t := range ts.tasks {
		if t.Status != status {
			t.Filtered = true
		}
	}
}

// FilterOrganised hides tasks that have neither tags nor a project.
func (ts *TaskSet) FilterOrganised() {
	for _, t := range ts.tasks {
		if len(t.Tags) == 0 && t.Project == "" {
			t.Filtered = true
		}
	}
}

// FilterUnorganised hides tasks that have tags or a project.
func (ts *TaskSet) FilterUnorganised() {
	for _, t := range ts.tasks {
		if len(t.Tags) > 0 || t.Project != "" {
			t.Filtered = true
		}
	}
}

// Unhide clears the filtered flag for hidden-by-default statuses. Must run
// before Filter passes; the filtered flag is never cleared by them.
func (ts *TaskSet) Unhide() {
	for _, t := range ts.tasks {
		if IsHiddenStatus(t.Status) {
			t.Filtered = false
		}
	}
}

// Tasks returns the tasks in the current view, in list order.
func (ts *TaskSet) Tasks() []*Task {
	var out []*Task
	for _, t := range ts.tasks {
		if !t.Filtered {
			out = append(out, t)
		}
	}
	return out
}

// AllTasks returns every loaded task regardless of the filtered flag.
func (ts *TaskSet) AllTasks() []*Task {
	return ts.tasks
}

// ApplyModifications runs Modify on every task in the current view.
func (ts *TaskSet) ApplyModifications(q Query) {
	for _, t := range ts.tasks {
		if !t.Filtered {
			t.Modify(q)
		}
	}
}

// SaveAll persists every write-pending task and returns the uuid→id map for
// every task currently holding an ID, for the caller to store.
func (ts *TaskSet) SaveAll(st Store) (map[string]int, error) {
	ids := make(map[string]int)

	for _, t := range ts.tasks {
		if t.WritePending {
			if err := st.Write(*t); err != nil {
				return nil, err
			}
			t.WritePending = false
		}
		if t.ID > 0 {
			ids[t.UUID] = t.ID
		}
	}

	return ids, nil
}

func (ts *TaskSet) sortStable(less func(a, b *Task) bool) {
	sort.SliceStable(ts.tasks, func(i, j int) bool {
		return less(ts.tasks[i], ts.tasks[j])
	})
	ts.rebuildIndices()
}

// SortByCreated orders by creation time, oldest first when ascending, with
// short ID as tie-break.
func (ts *TaskSet) SortByCreated(ascending bool) {
	ts.sortStable(func(a, b *Task) bool {
		if ascending {
			if a.Created.Equal(b.Created) {
				return a.ID < b.ID
			}
			return a.Created.Before(b.Created)
		}
		return a.Created.After(b.Created)
	})
}

// SortByPriority orders P0 before P3 when ascending; the four literals sort
// correctly as strings.
func (ts *TaskSet) SortByPriority(ascending bool) {
	ts.sortStable(func(a, b *Task) bool {
		if ascending {
			return a.Priority < b.Priority
		}
		return a.Priority > b.Priority
	})
}

// SortByResolved orders by resolution time; tasks never resolved sort after
// every resolved one when ascending, before when descending.
func (ts *TaskSet) SortByResolved(ascending bool) {
	ts.sortStable(func(a, b *Task) bool {
		aSet, bSet := !a.Resolved.IsZero(), !b.Resolved.IsZero()
		switch {
		case aSet && bSet:
			if ascending {
				return a.Resolved.Before(b.Resolved)
			}
			return a.Resolved.After(b.Resolved)
		case aSet:
			return ascending
		case bSet:
			return !ascending
		default:
			return false
		}
	})
}

// DistinctTags returns the sorted set of tags across the current view.
func (ts *TaskSet) DistinctTags() []string {
	seen := map[string]bool{}
	for _, t := range ts.Tasks() {
		for _, tag := range t.Tags {
			seen[tag] = true
		}
	}
	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// ProjectSummary aggregates the tasks of one project for the projects view.
type ProjectSummary struct {
	Name          string    `yaml:"name"`
	Tasks         int       `yaml:"tasks"`
	TasksResolved int       `yaml:"tasksresolved"`
	Active        bool      `yaml:"active"`
	Created       time.Time `yaml:"created"`
	Resolved      time.Time `yaml:"resolved"`
	Priority      string    `yaml:"priority"`
}

// Projects aggregates every project across all loaded tasks, sorted by name.
func (ts *TaskSet) Projects() []ProjectSummary {
	byName := map[string]*ProjectSummary{}

	for _, t := range ts.tasks {
		if t.Project == "" {
			continue
		}
		p, ok := byName[t.Project]
		if !ok {
			p = &ProjectSummary{Name: t.Project, Priority: PriorityLow}
			byName[t.Project] = p
		}

		p.Tasks++
		if p.Created.IsZero() || t.Created.Before(p.Created) {
			p.Created = t.Created
		}
		if t.Resolved.After(p.Resolved) {
			p.Resolved = t.Resolved
		}
		if t.Status == StatusResolved {
			p.TasksResolved++
		}
		if t.Status == StatusActive {
			p.Active = true
		}
		if t.Status != StatusResolved && t.Priority < p.Priority {
			p.Priority = t.Priority
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ProjectSummary, 0, len(names))
	for _, name := range names {
		out = append(out, *byName[name])
	}
	return out
}
