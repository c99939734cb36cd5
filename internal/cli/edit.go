package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ditrack/dit/internal/editor"
	"github.com/ditrack/dit/internal/task"
)

// editableTask is the YAML document handed to $EDITOR. Unlike the on-disk
// record it carries uuid and status explicitly, so an edit can move a task
// between statuses, including out of resolved.
type editableTask struct {
	UUID         string         `yaml:"uuid"`
	Status       string         `yaml:"status"`
	Summary      string         `yaml:"summary"`
	Notes        string         `yaml:"notes"`
	Tags         []string       `yaml:"tags"`
	Project      string         `yaml:"project"`
	Priority     string         `yaml:"priority"`
	DelegatedTo  string         `yaml:"delegatedto"`
	Subtasks     []task.Subtask `yaml:"subtasks"`
	Dependencies []string       `yaml:"dependencies"`
	Due          string         `yaml:"due"`
}

func (a *app) cmdEdit() int {
	if len(a.query.IDs) != 1 {
		return fail("edit", fmt.Errorf("%w: exactly one task ID required", task.ErrParse))
	}

	ts, err := a.loadTaskSet(task.AllStatuses)
	if err != nil {
		return fail("edit", err)
	}
	t, err := ts.MustGetByID(a.query.IDs[0])
	if err != nil {
		return fail("edit", err)
	}

	doc := editableTask{
		UUID:         t.UUID,
		Status:       t.Status,
		Summary:      t.Summary,
		Notes:        t.Notes,
		Tags:         t.Tags,
		Project:      t.Project,
		Priority:     t.Priority,
		DelegatedTo:  t.DelegatedTo,
		Subtasks:     t.Subtasks,
		Dependencies: t.Dependencies,
	}
	if !t.Due.IsZero() {
		doc.Due = t.Due.Format("2006-01-02")
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fail("edit", err)
	}
	edited, err := editor.Edit(a.conf.Editor, data, editor.TempPattern(t.ID, t.Summary, "yml"))
	if err != nil {
		return fail("edit", err)
	}

	var out editableTask
	if err := yaml.Unmarshal(edited, &out); err != nil {
		return fail("edit", fmt.Errorf("%w: %v", task.ErrParse, err))
	}

	if out.UUID != t.UUID {
		if _, err := uuid.Parse(out.UUID); err != nil {
			return fail("edit", fmt.Errorf("%w: %s", task.ErrInvalidUUID, out.UUID))
		}
		return fail("edit", fmt.Errorf("%w: the uuid field must not be edited", task.ErrParse))
	}

	updated := *t
	updated.Status = out.Status
	updated.Summary = out.Summary
	updated.Notes = out.Notes
	updated.Tags = out.Tags
	updated.Project = out.Project
	updated.Priority = out.Priority
	updated.DelegatedTo = out.DelegatedTo
	updated.Subtasks = out.Subtasks
	updated.Dependencies = out.Dependencies
	updated.Due = t.Due
	if out.Due == "" {
		updated.Due = time.Time{}
	} else if out.Due != doc.Due {
		due, err := task.ParseDate(out.Due, time.Now())
		if err != nil {
			return fail("edit", err)
		}
		updated.Due = due
	}

	// EditTask skips the transition table: this path may reopen a resolved
	// task.
	if err := ts.EditTask(updated); err != nil {
		return fail("edit", err)
	}
	if err := a.save(ts); err != nil {
		return fail("edit", err)
	}
	if err := a.repo.Commit("Edited task"); err != nil {
		return fail("edit", err)
	}
	return ExitOK
}
