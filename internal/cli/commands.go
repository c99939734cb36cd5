package cli

import (
	"fmt"
	"time"

	"github.com/ditrack/dit/internal/editor"
	"github.com/ditrack/dit/internal/task"
)

func (a *app) cmdNext() int {
	ts, err := a.loadTaskSet(task.NonResolvedStatuses)
	if err != nil {
		return fail("next", err)
	}

	filter := a.query
	if len(a.query.IDs) > 0 {
		// Addressing by ID bypasses the context entirely.
		if a.query.HasOperators() {
			return fail("next", fmt.Errorf("%w: operators not valid when addressing by ID", task.ErrParse))
		}
	} else {
		filter, err = a.query.Merge(a.ctx)
		if err != nil {
			return fail("next", err)
		}
	}

	ts.Filter(filter)
	a.out.ContextDescription(a.ctx, a.ctxEnv)
	if err := a.out.Next(ts, true); err != nil {
		return fail("next", err)
	}
	return ExitOK
}

func (a *app) cmdShowOpen() int {
	ts, err := a.loadTaskSet(task.NonResolvedStatuses)
	if err != nil {
		return fail("show-open", err)
	}
	merged, err := a.query.Merge(a.ctx)
	if err != nil {
		return fail("show-open", err)
	}
	ts.Filter(merged)
	a.out.ContextDescription(a.ctx, a.ctxEnv)
	if err := a.out.Next(ts, false); err != nil {
		return fail("show-open", err)
	}
	return ExitOK
}

func (a *app) cmdAdd() int {
	if a.query.Text == "" && a.query.Template == 0 {
		return fail("add", fmt.Errorf("%w: task description or template required", task.ErrParse))
	}
	if f := a.query.DateFilter; f != "" && f != "in" && f != "on" {
		return fail("add", fmt.Errorf("%w: cannot use date filter with add", task.ErrParse))
	}

	ts, err := a.loadTaskSet(task.NonResolvedStatuses)
	if err != nil {
		return fail("add", err)
	}
	merged, err := a.query.Merge(a.ctx)
	if err != nil {
		return fail("add", err)
	}

	if a.query.Template > 0 {
		tmpl, err := ts.MustGetByID(a.query.Template)
		if err != nil {
			return fail("add", err)
		}

		summary := tmpl.Summary
		if a.query.Text != "" {
			summary = a.query.Text
		}
		t := task.New(summary)
		t.Tags = append([]string(nil), tmpl.Tags...)
		t.Project = tmpl.Project
		t.Priority = tmpl.Priority
		t.Due = tmpl.Due
		t.Notes = tmpl.Notes
		t.Modify(merged)

		if err := ts.LoadTask(t); err != nil {
			return fail("add", err)
		}
		if err := a.save(ts); err != nil {
			return fail("add", err)
		}
		if err := a.repo.Commit("Added " + t.Summary); err != nil {
			return fail("add", err)
		}

		if tmpl.Status != task.StatusTemplate {
			fmt.Println("\nYou've copied an open task! To keep a reusable version, convert it with `dit template <id>`.")
		}
		return ExitOK
	}

	a.out.ContextDescription(a.ctx, a.ctxEnv)

	t := task.New(merged.Text)
	t.Tags = merged.Tags
	t.Project = merged.Project
	t.Priority = merged.Priority
	t.Due = merged.Due
	t.Notes = merged.Note
	if err := ts.LoadTask(t); err != nil {
		return fail("add", err)
	}
	if err := a.save(ts); err != nil {
		return fail("add", err)
	}

	added, _ := ts.GetByUUID(t.UUID)
	fmt.Printf("Added %d: %s\n", added.ID, added.Summary)
	if err := a.repo.Commit(fmt.Sprintf("Added %d: %s", added.ID, added.Summary)); err != nil {
		return fail("add", err)
	}
	return ExitOK
}

// cmdLog records work that is already finished: the task is created resolved
// and never holds a short ID.
func (a *app) cmdLog() int {
	if a.query.Text == "" {
		return fail("log", fmt.Errorf("%w: task description required", task.ErrParse))
	}

	ts, err := a.loadTaskSet(task.NonResolvedStatuses)
	if err != nil {
		return fail("log", err)
	}
	merged, err := a.query.Merge(a.ctx)
	if err != nil {
		return fail("log", err)
	}

	a.out.ContextDescription(a.ctx, a.ctxEnv)

	t := task.New(merged.Text)
	t.Status = task.StatusResolved
	t.Resolved = time.Now()
	t.Tags = merged.Tags
	t.Project = merged.Project
	t.Priority = merged.Priority
	t.Due = merged.Due
	if err := ts.LoadTask(t); err != nil {
		return fail("log", err)
	}
	if err := a.save(ts); err != nil {
		return fail("log", err)
	}
	if err := a.repo.Commit("Logged " + t.Summary); err != nil {
		return fail("log", err)
	}
	return ExitOK
}

func (a *app) cmdStart() int {
	return a.transition("start", task.StatusActive, func(t *task.Task) error {
		if t.Status != task.StatusPending && t.Status != task.StatusPaused {
			return fmt.Errorf("%w: %s to %s", task.ErrInvalidTransition, t.Status, task.StatusActive)
		}
		return nil
	})
}

func (a *app) cmdStop() int {
	return a.transition("stop", task.StatusPaused, func(t *task.Task) error {
		if t.Status != task.StatusActive {
			return fmt.Errorf("%w: %s to %s", task.ErrInvalidTransition, t.Status, task.StatusPaused)
		}
		return nil
	})
}

// transition moves every addressed task into target after check passes,
// then saves and commits.
func (a *app) transition(cmd, target string, check func(*task.Task) error) int {
	if len(a.query.IDs) == 0 {
		return fail(cmd, fmt.Errorf("%w: at least one task ID required", task.ErrParse))
	}

	ts, err := a.loadTaskSet(task.NonResolvedStatuses)
	if err != nil {
		return fail(cmd, err)
	}

	for _, id := range a.query.IDs {
		t, err := ts.MustGetByID(id)
		if err != nil {
			return fail(cmd, err)
		}
		if err := check(t); err != nil {
			return fail(cmd, err)
		}
		updated := *t
		updated.Status = target
		if err := ts.UpdateTask(updated); err != nil {
			return fail(cmd, err)
		}
	}

	if err := a.save(ts); err != nil {
		return fail(cmd, err)
	}

	n := len(a.query.IDs)
	verb := map[string]string{"start": "Started", "stop": "Stopped"}[cmd]
	if err := a.repo.Commit(fmt.Sprintf("%s %d %s", verb, n, plural(n))); err != nil {
		return fail(cmd, err)
	}
	return ExitOK
}

func (a *app) cmdDone() int {
	if len(a.query.IDs) == 0 {
		return fail("done", fmt.Errorf("%w: at least one task ID required", task.ErrParse))
	}

	ts, err := a.loadTaskSet(task.AllStatuses)
	if err != nil {
		return fail("done", err)
	}

	for _, id := range a.query.IDs {
		t, err := ts.MustGetByID(id)
		if err != nil {
			return fail("done", err)
		}
		if t.Status == task.StatusResolved {
			return fail("done", fmt.Errorf("task %d is already resolved", id))
		}
		updated := *t
		updated.Status = task.StatusResolved
		if err := ts.UpdateTask(updated); err != nil {
			return fail("done", err)
		}
	}

	if err := a.save(ts); err != nil {
		return fail("done", err)
	}

	n := len(a.query.IDs)
	if err := a.repo.Commit(fmt.Sprintf("Resolved %d %s", n, plural(n))); err != nil {
		return fail("done", err)
	}
	return ExitOK
}

// cmdNote appends inline note text when given, otherwise opens the notes in
// the editor.
func (a *app) cmdNote() int {
	if len(a.query.IDs) != 1 {
		return fail("note", fmt.Errorf("%w: exactly one task ID required", task.ErrParse))
	}

	ts, err := a.loadTaskSet(task.NonResolvedStatuses)
	if err != nil {
		return fail("note", err)
	}
	t, err := ts.MustGetByID(a.query.IDs[0])
	if err != nil {
		return fail("note", err)
	}

	updated := *t
	if a.query.Note != "" {
		if updated.Notes == "" {
			updated.Notes = a.query.Note
		} else {
			updated.Notes += "\n" + a.query.Note
		}
	} else {
		edited, err := editor.Edit(a.conf.Editor, []byte(t.Notes), editor.TempPattern(t.ID, t.Summary, "md"))
		if err != nil {
			return fail("note", err)
		}
		updated.Notes = string(edited)
	}

	if err := ts.UpdateTask(updated); err != nil {
		return fail("note", err)
	}
	if err := a.save(ts); err != nil {
		return fail("note", err)
	}
	if err := a.repo.Commit("Updated task notes"); err != nil {
		return fail("note", err)
	}
	return ExitOK
}

func (a *app) cmdModify() int {
	if !a.query.HasOperators() {
		return fail("modify", fmt.Errorf("%w: no operations specified", task.ErrParse))
	}

	ts, err := a.loadTaskSet(task.NonResolvedStatuses)
	if err != nil {
		return fail("modify", err)
	}

	var n int
	if len(a.query.IDs) == 0 {
		// No addressing: the whole context is the target.
		ts.Filter(a.ctx)
		n = len(ts.Tasks())

		if a.conf.Interactive {
			if !confirm(fmt.Sprintf("no IDs specified. Apply to all %d tasks in current context? (y/N): ", n)) {
				fmt.Println("Cancelled")
				return ExitOK
			}
		}
		ts.ApplyModifications(a.query)
	} else {
		n = len(a.query.IDs)
		for _, id := range a.query.IDs {
			t, err := ts.MustGetByID(id)
			if err != nil {
				return fail("modify", err)
			}
			updated := *t
			updated.Modify(a.query)
			if err := ts.UpdateTask(updated); err != nil {
				return fail("modify", err)
			}
		}
	}

	if err := a.save(ts); err != nil {
		return fail("modify", err)
	}
	if err := a.repo.Commit(fmt.Sprintf("Modified %d %s", n, plural(n))); err != nil {
		return fail("modify", err)
	}
	return ExitOK
}

// cmdOpen reopens resolved tasks. This is the one sanctioned path out of
// resolved, so it goes through the edit path rather than the transition
// table.
func (a *app) cmdOpen() int {
	if len(a.query.IDs) == 0 {
		return fail("open", fmt.Errorf("%w: at least one task ID required", task.ErrParse))
	}
	if a.query.HasOperators() {
		return fail("open", fmt.Errorf("%w: operators not valid here", task.ErrParse))
	}

	ts, err := a.loadTaskSet(task.AllStatuses)
	if err != nil {
		return fail("open", err)
	}

	for _, id := range a.query.IDs {
		t, err := ts.MustGetByID(id)
		if err != nil {
			return fail("open", err)
		}
		if t.Status != task.StatusResolved {
			return fail("open", fmt.Errorf("task %d is not resolved", id))
		}
		updated := *t
		updated.Status = task.StatusPending
		if err := ts.EditTask(updated); err != nil {
			return fail("open", err)
		}
	}

	if err := a.save(ts); err != nil {
		return fail("open", err)
	}

	n := len(a.query.IDs)
	if err := a.repo.Commit(fmt.Sprintf("Opened %d %s", n, plural(n))); err != nil {
		return fail("open", err)
	}
	return ExitOK
}

func (a *app) cmdRemove() int {
	if len(a.query.IDs) == 0 {
		return fail("remove", fmt.Errorf("%w: at least one task ID required", task.ErrParse))
	}

	ts, err := a.loadTaskSet(task.NonResolvedStatuses)
	if err != nil {
		return fail("remove", err)
	}

	for _, id := range a.query.IDs {
		t, err := ts.MustGetByID(id)
		if err != nil {
			return fail("remove", err)
		}
		fmt.Println(t)
	}

	if a.conf.Interactive {
		fmt.Println()
		if !confirm(fmt.Sprintf("The above %d task(s) will be deleted. Continue? (y/N): ", len(a.query.IDs))) {
			fmt.Println("Cancelled")
			return ExitOK
		}
	}

	for _, id := range a.query.IDs {
		t, err := ts.MustGetByID(id)
		if err != nil {
			return fail("remove", err)
		}
		if err := ts.DeleteTask(a.store, t.UUID); err != nil {
			return fail("remove", err)
		}
	}

	if err := a.save(ts); err != nil {
		return fail("remove", err)
	}

	n := len(a.query.IDs)
	if err := a.repo.Commit(fmt.Sprintf("Removed %d %s", n, plural(n))); err != nil {
		return fail("remove", err)
	}
	return ExitOK
}

func (a *app) cmdTemplate() int {
	ts, err := a.loadTaskSet(task.NonResolvedStatuses)
	if err != nil {
		return fail("template", err)
	}

	switch {
	case len(a.query.IDs) > 0:
		for _, id := range a.query.IDs {
			t, err := ts.MustGetByID(id)
			if err != nil {
				return fail("template", err)
			}
			updated := *t
			updated.Status = task.StatusTemplate
			if err := ts.UpdateTask(updated); err != nil {
				return fail("template", err)
			}
		}
		if err := a.save(ts); err != nil {
			return fail("template", err)
		}
		n := len(a.query.IDs)
		if err := a.repo.Commit(fmt.Sprintf("Converted %d %s to template", n, plural(n))); err != nil {
			return fail("template", err)
		}

	case a.query.Text != "":
		merged, err := a.query.Merge(a.ctx)
		if err != nil {
			return fail("template", err)
		}
		t := task.New(merged.Text)
		t.Status = task.StatusTemplate
		t.Tags = merged.Tags
		t.Project = merged.Project
		t.Priority = merged.Priority
		t.Due = merged.Due
		t.Notes = merged.Note
		if err := ts.LoadTask(t); err != nil {
			return fail("template", err)
		}
		if err := a.save(ts); err != nil {
			return fail("template", err)
		}
		if err := a.repo.Commit("Created template: " + t.Summary); err != nil {
			return fail("template", err)
		}

	default:
		return fail("template", fmt.Errorf("%w: task ID or description required", task.ErrParse))
	}
	return ExitOK
}

func (a *app) cmdContext() int {
	// args beyond the command word decide between print, clear and set.
	if len(a.rawArgs) < 2 {
		fmt.Println(a.ctx.String())
		return ExitOK
	}

	if a.rawArgs[1] == "none" {
		if err := a.state.SetContext(task.Query{}); err != nil {
			return fail("context", err)
		}
	} else {
		if err := a.state.SetContext(a.query); err != nil {
			return fail("context", err)
		}
	}

	if err := a.state.Save(); err != nil {
		return fail("context", err)
	}
	return ExitOK
}

func (a *app) cmdUndo() int {
	count := 1
	if len(a.query.IDs) > 0 {
		count = a.query.IDs[0]
	}

	for i := 0; i < count; i++ {
		if err := a.repo.ResetLastCommit(); err != nil {
			return fail("undo", err)
		}
	}
	fmt.Printf("Undone %d commit(s)\n", count)
	return ExitOK
}

func (a *app) cmdSync() int {
	if err := a.repo.Pull(); err != nil {
		return fail("sync", err)
	}
	if err := a.repo.Push(); err != nil {
		return fail("sync", err)
	}
	fmt.Println("Synced repository")
	return ExitOK
}

func (a *app) cmdGit() int {
	for i, arg := range a.rawArgs {
		if arg == task.CmdGit {
			if err := a.repo.Passthrough(a.rawArgs[i+1:]); err != nil {
				return fail("git", err)
			}
			return ExitOK
		}
	}
	return ExitUsage
}

func (a *app) cmdShow() int {
	if len(a.query.IDs) != 1 {
		return fail("show", fmt.Errorf("%w: exactly one task ID required", task.ErrParse))
	}

	ts, err := a.loadTaskSet(task.AllStatuses)
	if err != nil {
		return fail("show", err)
	}
	t, err := ts.MustGetByID(a.query.IDs[0])
	if err != nil {
		return fail("show", err)
	}

	a.out.TaskDetail(t)
	return ExitOK
}

func (a *app) cmdShowStatus(status string) int {
	ts, err := a.loadTaskSet(task.NonResolvedStatuses)
	if err != nil {
		return fail("show-"+status, err)
	}
	merged, err := a.query.Merge(a.ctx)
	if err != nil {
		return fail("show-"+status, err)
	}
	ts.Filter(merged)
	ts.FilterByStatus(status)
	a.out.ContextDescription(a.ctx, a.ctxEnv)
	if err := a.out.Next(ts, true); err != nil {
		return fail("show-"+status, err)
	}
	return ExitOK
}

func (a *app) cmdShowResolved() int {
	ts, err := a.loadTaskSet(task.AllStatuses)
	if err != nil {
		return fail("show-resolved", err)
	}
	merged, err := a.query.Merge(a.ctx)
	if err != nil {
		return fail("show-resolved", err)
	}
	ts.Unhide()
	ts.Filter(merged)
	ts.FilterByStatus(task.StatusResolved)
	a.out.ContextDescription(a.ctx, a.ctxEnv)
	if err := a.out.ByWeek(ts); err != nil {
		return fail("show-resolved", err)
	}
	return ExitOK
}

func (a *app) cmdShowTemplates() int {
	ts, err := a.loadTaskSet(task.NonResolvedStatuses)
	if err != nil {
		return fail("show-templates", err)
	}
	merged, err := a.query.Merge(a.ctx)
	if err != nil {
		return fail("show-templates", err)
	}
	ts.Unhide()
	ts.FilterByStatus(task.StatusTemplate)
	ts.Filter(merged)
	a.out.ContextDescription(a.ctx, a.ctxEnv)
	if err := a.out.Next(ts, true); err != nil {
		return fail("show-templates", err)
	}
	return ExitOK
}

func (a *app) cmdShowProjects() int {
	ts, err := a.loadTaskSet(task.AllStatuses)
	if err != nil {
		return fail("show-projects", err)
	}
	merged, err := a.query.Merge(a.ctx)
	if err != nil {
		return fail("show-projects", err)
	}
	ts.Filter(merged)
	if err := a.out.Projects(ts); err != nil {
		return fail("show-projects", err)
	}
	return ExitOK
}

func (a *app) cmdShowTags() int {
	ts, err := a.loadTaskSet(task.AllStatuses)
	if err != nil {
		return fail("show-tags", err)
	}
	merged, err := a.query.Merge(a.ctx)
	if err != nil {
		return fail("show-tags", err)
	}
	ts.Filter(merged)
	for _, tag := range ts.DistinctTags() {
		fmt.Println(tag)
	}
	return ExitOK
}

func (a *app) cmdShowUnorganised() int {
	if len(a.query.IDs) > 0 || a.query.HasOperators() {
		return fail("show-unorganised", fmt.Errorf("%w: query and context are not used here", task.ErrParse))
	}

	ts, err := a.loadTaskSet(task.NonResolvedStatuses)
	if err != nil {
		return fail("show-unorganised", err)
	}
	ts.FilterUnorganised()
	if err := a.out.Next(ts, true); err != nil {
		return fail("show-unorganised", err)
	}
	return ExitOK
}
