package task

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store for engine tests.
type memStore struct {
	byStatus map[string][]Task
	written  []Task
	deleted  []Task
}

func newMemStore() *memStore {
	return &memStore{byStatus: map[string][]Task{}}
}

func (m *memStore) List(status string) ([]Task, error) {
	return m.byStatus[status], nil
}

func (m *memStore) Write(t Task) error {
	m.written = append(m.written, t)
	return nil
}

func (m *memStore) Delete(t Task) error {
	m.deleted = append(m.deleted, t)
	return nil
}

func mustLoad(t *testing.T, ts *TaskSet, tasks ...Task) {
	t.Helper()
	for _, task := range tasks {
		require.NoError(t, ts.LoadTask(task))
	}
}

func TestLoadTaskAssignsSequentialIDs(t *testing.T) {
	ts := NewTaskSet()
	mustLoad(t, ts, New("one"), New("two"), New("three"))

	var ids []int
	for _, task := range ts.AllTasks() {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []int{1, 2, 3}, ids)
}

func TestLoadTaskDuplicateUUIDIsNoOp(t *testing.T) {
	ts := NewTaskSet()
	first := New("first copy")
	second := first
	second.Summary = "second copy"

	mustLoad(t, ts, first, second)

	require.Len(t, ts.AllTasks(), 1)
	got, ok := ts.GetByUUID(first.UUID)
	require.True(t, ok)
	assert.Equal(t, "first copy", got.Summary)
}

func TestLoadTaskIDCollisionReassigns(t *testing.T) {
	ts := NewTaskSet()
	a := New("a")
	a.ID = 1
	b := New("b")
	b.ID = 1

	mustLoad(t, ts, a, b)

	got, ok := ts.GetByUUID(b.UUID)
	require.True(t, ok)
	assert.Equal(t, 2, got.ID)
}

func TestUpdateTaskResolve(t *testing.T) {
	ts := NewTaskSet()
	mustLoad(t, ts, New("ship it"))

	task, err := ts.MustGetByID(1)
	require.NoError(t, err)

	done := *task
	done.Status = StatusResolved
	require.NoError(t, ts.UpdateTask(done))

	got, ok := ts.GetByUUID(task.UUID)
	require.True(t, ok)
	assert.Zero(t, got.ID, "resolved tasks give up their short ID")
	assert.False(t, got.Resolved.IsZero(), "resolving stamps the resolved time")

	_, ok = ts.GetByID(1)
	assert.False(t, ok)

	// The freed ID goes to the next loaded task.
	mustLoad(t, ts, New("next up"))
	next, err := ts.MustGetByID(1)
	require.NoError(t, err)
	assert.Equal(t, "next up", next.Summary)
}

func TestUpdateTaskRejectsReopen(t *testing.T) {
	ts := NewTaskSet()
	done := New("finished")
	done.Status = StatusResolved
	done.Resolved = time.Now()
	mustLoad(t, ts, done)

	reopened := done
	reopened.Status = StatusPending
	assert.ErrorIs(t, ts.UpdateTask(reopened), ErrInvalidTransition)
}

func TestEditTaskReopens(t *testing.T) {
	ts := NewTaskSet()
	done := New("finished")
	done.Status = StatusResolved
	done.Resolved = time.Now()
	mustLoad(t, ts, done)

	reopened := done
	reopened.Status = StatusPending
	require.NoError(t, ts.EditTask(reopened))

	got, ok := ts.GetByUUID(done.UUID)
	require.True(t, ok)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, 1, got.ID, "reopening allocates a fresh short ID")
	assert.True(t, got.Resolved.IsZero(), "reopening clears the resolved stamp")
}

func TestUpdateTaskTransitions(t *testing.T) {
	ts := NewTaskSet()
	mustLoad(t, ts, New("work"))
	task, _ := ts.GetByID(1)

	started := *task
	started.Status = StatusActive
	require.NoError(t, ts.UpdateTask(started))

	// No template edge from active.
	templated := started
	templated.Status = StatusTemplate
	assert.ErrorIs(t, ts.UpdateTask(templated), ErrInvalidTransition)

	paused := started
	paused.Status = StatusPaused
	require.NoError(t, ts.UpdateTask(paused))

	resumed := paused
	resumed.Status = StatusActive
	require.NoError(t, ts.UpdateTask(resumed))
}

func TestUpdateTaskChecklistGuard(t *testing.T) {
	ts := NewTaskSet()
	task := New("release")
	task.Notes = "- [x] tag\n- [ ] announce"
	mustLoad(t, ts, task)
	loaded, _ := ts.GetByUUID(task.UUID)

	done := *loaded
	done.Status = StatusResolved
	err := ts.UpdateTask(done)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete checklist")

	// The guard only fires on a status change: editing the notes of a task
	// while it stays put is fine.
	noted := *loaded
	noted.Notes += "\n- [ ] write blog post"
	require.NoError(t, ts.UpdateTask(noted))
}

func TestUpdateTaskUnknownUUID(t *testing.T) {
	ts := NewTaskSet()
	ghost := New("ghost")
	err := ts.UpdateTask(ghost)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTask(t *testing.T) {
	st := newMemStore()
	ts := NewTaskSet()
	mustLoad(t, ts, New("keep"), New("drop"), New("keep too"))

	drop, err := ts.MustGetByID(2)
	require.NoError(t, err)
	require.NoError(t, ts.DeleteTask(st, drop.UUID))

	require.Len(t, st.deleted, 1)
	assert.Len(t, ts.AllTasks(), 2)
	_, ok := ts.GetByID(2)
	assert.False(t, ok)

	// Indices survive the shift.
	last, err := ts.MustGetByID(3)
	require.NoError(t, err)
	assert.Equal(t, "keep too", last.Summary)

	assert.ErrorIs(t, ts.DeleteTask(st, uuid.NewString()), ErrNotFound)
}

func TestLoadHidesHiddenStatuses(t *testing.T) {
	st := newMemStore()
	pending := New("visible")
	done := New("hidden")
	done.Status = StatusResolved
	done.Resolved = time.Now()
	st.byStatus[StatusPending] = []Task{pending}
	st.byStatus[StatusResolved] = []Task{done}

	ts, err := Load(st, map[string]int{pending.UUID: 4}, AllStatuses)
	require.NoError(t, err)

	view := ts.Tasks()
	require.Len(t, view, 1)
	assert.Equal(t, "visible", view[0].Summary)
	assert.Equal(t, 4, view[0].ID, "persisted short IDs are applied on load")

	ts.Unhide()
	assert.Len(t, ts.Tasks(), 2)
}

func TestSaveAll(t *testing.T) {
	st := newMemStore()
	ts := NewTaskSet()
	mustLoad(t, ts, New("a"), New("b"))

	ids, err := ts.SaveAll(st)
	require.NoError(t, err)
	assert.Len(t, st.written, 2)
	assert.Len(t, ids, 2)

	// Nothing pending on a second pass.
	st.written = nil
	_, err = ts.SaveAll(st)
	require.NoError(t, err)
	assert.Empty(t, st.written)
}

func TestFilterIsMonotonic(t *testing.T) {
	ts := NewTaskSet()
	work := New("send report")
	work.Project = "work"
	home := New("mow lawn")
	home.Project = "home"
	mustLoad(t, ts, work, home)

	ts.Filter(Query{Project: "work"})
	require.Len(t, ts.Tasks(), 1)

	// A broader second pass does not bring the other task back.
	ts.Filter(Query{})
	assert.Len(t, ts.Tasks(), 1)
}

func TestFilterUnorganised(t *testing.T) {
	ts := NewTaskSet()
	tagged := New("tagged")
	tagged.Tags = []string{"x"}
	bare := New("bare")
	mustLoad(t, ts, tagged, bare)

	ts.FilterUnorganised()
	view := ts.Tasks()
	require.Len(t, view, 1)
	assert.Equal(t, "bare", view[0].Summary)
}

func TestDistinctTags(t *testing.T) {
	ts := NewTaskSet()
	a := New("a")
	a.Tags = []string{"work", "urgent"}
	b := New("b")
	b.Tags = []string{"home", "urgent"}
	mustLoad(t, ts, a, b)

	assert.Equal(t, []string{"home", "urgent", "work"}, ts.DistinctTags())
}

func TestProjects(t *testing.T) {
	ts := NewTaskSet()

	open := New("write deck")
	open.Project = "launch"
	open.Priority = PriorityHigh

	active := New("rehearse")
	active.Project = "launch"
	active.Status = StatusActive

	done := New("book room")
	done.Project = "launch"
	done.Status = StatusResolved
	done.Resolved = time.Now()

	other := New("untracked")

	mustLoad(t, ts, open, active, done, other)

	projects := ts.Projects()
	require.Len(t, projects, 1)
	p := projects[0]
	assert.Equal(t, "launch", p.Name)
	assert.Equal(t, 3, p.Tasks)
	assert.Equal(t, 1, p.TasksResolved)
	assert.True(t, p.Active)
	assert.Equal(t, PriorityHigh, p.Priority)
}

// A day in the life: add, start, resolve, reopen, resolve again.
func TestTaskLifecycle(t *testing.T) {
	st := newMemStore()
	ts := NewTaskSet()
	mustLoad(t, ts, New("fix the gate"))

	task, err := ts.MustGetByID(1)
	require.NoError(t, err)

	started := *task
	started.Status = StatusActive
	require.NoError(t, ts.UpdateTask(started))

	cur, _ := ts.GetByUUID(task.UUID)
	done := *cur
	done.Status = StatusResolved
	require.NoError(t, ts.UpdateTask(done))

	cur, _ = ts.GetByUUID(task.UUID)
	reopened := *cur
	reopened.Status = StatusPending
	require.NoError(t, ts.EditTask(reopened))

	cur, _ = ts.GetByUUID(task.UUID)
	assert.Equal(t, 1, cur.ID)
	assert.True(t, cur.Resolved.IsZero())

	done = *cur
	done.Status = StatusResolved
	require.NoError(t, ts.UpdateTask(done))

	ids, err := ts.SaveAll(st)
	require.NoError(t, err)
	assert.Empty(t, ids, "a fully resolved set persists no short IDs")
	assert.NotEmpty(t, st.written)
}
