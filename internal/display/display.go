// Package display renders task views for the terminal. Interactive output
// goes through lipgloss-styled tables sized to the terminal; non-interactive
// output falls back to JSON so the tool can be scripted.
package display

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/ditrack/dit/internal/task"
)

const (
	// Rows reserved for the context line, table footer and shell prompt.
	terminalHeightMargin = 9
	minTasksShown        = 8
)

// ErrNoMatch is returned when tasks exist but none survive the current
// context and filter.
var ErrNoMatch = errors.New("no matching tasks in given context or filter")

// Renderer writes task views to a terminal or pipe.
type Renderer struct {
	Out         io.Writer
	Width       int
	Height      int
	Interactive bool
}

// New builds a Renderer for stdout, measuring the terminal when interactive.
func New(interactive bool) *Renderer {
	w, h := 80, 24
	if interactive {
		if tw, th, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			w, h = tw, th
		}
		lipgloss.SetColorProfile(termenv.EnvColorProfile())
	}
	return &Renderer{Out: os.Stdout, Width: w, Height: h, Interactive: interactive}
}

// ContextDescription prints the active context, if any, above a listing.
func (r *Renderer) ContextDescription(ctx task.Query, fromEnv bool) {
	s := ctx.String()
	if s == "" || !r.Interactive {
		return
	}
	note := ""
	if fromEnv {
		note = " (set by DIT_CONTEXT)"
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(fgContext))
	fmt.Fprintln(r.Out, style.Render("Active context"+note+": "+s))
}

// Next renders the default listing: unfiltered tasks sorted by priority,
// oldest first within each band. Interactive output is a table capped to
// the terminal height when truncate is set; otherwise JSON.
func (r *Renderer) Next(ts *task.TaskSet, truncate bool) error {
	ts.SortByCreated(true)
	ts.SortByPriority(true)

	if !r.Interactive {
		return r.JSON(ts)
	}

	if err := r.taskTable(ts, truncate); err != nil {
		return err
	}

	criticalShown := 0
	criticalTotal := 0
	for _, t := range ts.AllTasks() {
		if t.Priority != task.PriorityCritical {
			continue
		}
		if !t.Filtered {
			criticalShown++
		}
		if !task.IsHiddenStatus(t.Status) {
			criticalTotal++
		}
	}
	if hidden := criticalTotal - criticalShown; hidden > 0 {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(fgPriorityCritical))
		fmt.Fprintln(r.Out, style.Render(fmt.Sprintf(
			"%d critical task(s) outside this context! Use `dit -- P0` to see them.", hidden)))
	}
	return nil
}

func (r *Renderer) taskTable(ts *task.TaskSet, truncate bool) error {
	tasks := ts.Tasks()
	total := len(tasks)

	if len(ts.AllTasks()) == 0 {
		fmt.Fprintln(r.Out, "No tasks found. Run `dit help` for instructions.")
		return nil
	}
	if total == 0 {
		return ErrNoMatch
	}
	if total == 1 {
		r.TaskDetail(tasks[0])
		return nil
	}

	maxTasks := r.Height - terminalHeightMargin
	if maxTasks < minTasksShown {
		maxTasks = minTasksShown
	}
	shown := tasks
	if truncate && maxTasks < total {
		shown = tasks[:maxTasks]
	}

	now := time.Now()
	tbl := NewTable(r.Width, "ID", "Priority", "Tags", "Due", "Project", "Summary")
	for _, t := range shown {
		tbl.AddRow(taskRowStyle(t, now),
			fmt.Sprintf("%-2d", t.ID),
			t.Priority,
			joinTags(t.Tags),
			task.FormatDue(t.Due, now),
			t.Project,
			t.LongSummary(),
		)
	}
	tbl.Render(r.Out)

	if truncate && maxTasks < total {
		fmt.Fprintf(r.Out, "\n%d/%d tasks shown.\n", maxTasks, total)
	} else {
		fmt.Fprintf(r.Out, "\n%d tasks.\n", total)
	}
	return nil
}

// TaskDetail renders one task as a name/value table followed by its notes.
func (r *Renderer) TaskDetail(t *task.Task) {
	tbl := NewTable(r.Width, "Name", "Value")
	tbl.AddRow(RowStyle{}, "ID", strconv.Itoa(t.ID))
	tbl.AddRow(RowStyle{}, "Priority", t.Priority)
	tbl.AddRow(RowStyle{}, "Summary", t.Summary)
	tbl.AddRow(RowStyle{}, "Status", t.Status)
	tbl.AddRow(RowStyle{}, "Project", t.Project)
	tbl.AddRow(RowStyle{}, "Tags", joinTags(t.Tags))
	tbl.AddRow(RowStyle{}, "UUID", t.UUID)
	tbl.AddRow(RowStyle{}, "Created", t.Created.Format(time.RFC3339))
	if !t.Resolved.IsZero() {
		tbl.AddRow(RowStyle{}, "Resolved", t.Resolved.Format(time.RFC3339))
	}
	if !t.Due.IsZero() {
		tbl.AddRow(RowStyle{}, "Due", t.Due.Format(time.RFC3339))
	}
	if t.DelegatedTo != "" {
		tbl.AddRow(RowStyle{}, "Delegated to", t.DelegatedTo)
	}
	tbl.Render(r.Out)

	if t.Notes != "" {
		noteStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(fgNote))
		fmt.Fprintf(r.Out, "\nNotes on task %d:\n%s\n\n", t.ID, noteStyle.Render(t.Notes))
	}
}

// ByWeek renders resolved tasks grouped by ISO week of resolution.
func (r *Renderer) ByWeek(ts *task.TaskSet) error {
	ts.SortByResolved(true)

	if !r.Interactive {
		return r.JSON(ts)
	}

	now := time.Now()
	var tbl *Table
	lastWeek := 0
	shown := 0

	for _, t := range ts.Tasks() {
		if t.Resolved.IsZero() {
			continue
		}
		shown++
		_, week := t.Resolved.ISOWeek()
		if week != lastWeek {
			if tbl != nil && !tbl.Empty() {
				tbl.Render(r.Out)
			}
			fmt.Fprintf(r.Out, "\n\n> Week %d, starting %s\n\n",
				week, t.Resolved.Format("Mon 2 Jan 2006"))
			tbl = NewTable(r.Width, "Resolved", "Priority", "Tags", "Due", "Project", "Summary")
			lastWeek = week
		}
		tbl.AddRow(taskRowStyle(t, now),
			t.Resolved.Format("Mon 2"),
			t.Priority,
			joinTags(t.Tags),
			task.FormatDue(t.Due, now),
			t.Project,
			t.LongSummary(),
		)
	}
	if tbl != nil && !tbl.Empty() {
		tbl.Render(r.Out)
	}
	fmt.Fprintf(r.Out, "%d tasks.\n", shown)
	return nil
}

// Projects renders per-project progress, hiding fully resolved projects.
func (r *Renderer) Projects(ts *task.TaskSet) error {
	projects := ts.Projects()

	if !r.Interactive {
		enc := json.NewEncoder(r.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(projects)
	}

	tbl := NewTable(r.Width, "Name", "Progress", "Created")
	for _, p := range projects {
		if p.TasksResolved >= p.Tasks {
			continue
		}
		tbl.AddRow(projectRowStyle(p),
			p.Name,
			fmt.Sprintf("%d/%d", p.TasksResolved, p.Tasks),
			p.Created.Format("Mon 2 Jan 2006"),
		)
	}
	tbl.Render(r.Out)
	return nil
}

type jsonTask struct {
	UUID     string   `json:"uuid"`
	Status   string   `json:"status"`
	ID       int      `json:"id"`
	Summary  string   `json:"summary"`
	Notes    string   `json:"notes"`
	Tags     []string `json:"tags"`
	Project  string   `json:"project"`
	Priority string   `json:"priority"`
	Created  string   `json:"created"`
	Resolved string   `json:"resolved"`
	Due      string   `json:"due"`
}

// JSON writes the unfiltered tasks of the current view as a JSON array.
func (r *Renderer) JSON(ts *task.TaskSet) error {
	tasks := ts.Tasks()
	out := make([]jsonTask, 0, len(tasks))
	for _, t := range tasks {
		tags := t.Tags
		if tags == nil {
			tags = []string{}
		}
		out = append(out, jsonTask{
			UUID:     t.UUID,
			Status:   t.Status,
			ID:       t.ID,
			Summary:  t.Summary,
			Notes:    t.Notes,
			Tags:     tags,
			Project:  t.Project,
			Priority: t.Priority,
			Created:  t.Created.Format(time.RFC3339),
			Resolved: t.Resolved.Format(time.RFC3339),
			Due:      t.Due.Format(time.RFC3339),
		})
	}
	enc := json.NewEncoder(r.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// taskRowStyle picks row colours from priority, status and overdueness.
// Active tasks invert to a light background.
func taskRowStyle(t *task.Task, now time.Time) RowStyle {
	active := t.Status == task.StatusActive
	overdue := !t.Due.IsZero() && t.Due.Before(now) && t.Status != task.StatusResolved

	pick := func(normal, whenActive string) string {
		if active {
			return whenActive
		}
		return normal
	}

	var st RowStyle
	switch {
	case t.Priority == task.PriorityCritical:
		st.Fg = pick(fgPriorityCritical, fgActiveCritical)
	case overdue:
		st.Fg = pick(fgPriorityHigh, fgActiveHigh)
	case t.Priority == task.PriorityHigh:
		st.Fg = pick(fgPriorityHigh, fgActiveHigh)
	case t.Priority == task.PriorityLow:
		st.Fg = pick(fgPriorityLow, fgActiveLow)
	default:
		st.Fg = pick("", fgActive)
	}

	if active {
		st.Bg = bgActive
	} else if t.Status == task.StatusPaused {
		st.Bg = bgPaused
	}
	return st
}

func projectRowStyle(p task.ProjectSummary) RowStyle {
	var st RowStyle
	switch {
	case p.Active:
		st.Fg = fgActive
		st.Bg = bgActive
	case p.Priority == task.PriorityCritical:
		st.Fg = fgPriorityCritical
	case p.Priority == task.PriorityHigh:
		st.Fg = fgPriorityHigh
	case p.Priority == task.PriorityLow:
		st.Fg = fgPriorityLow
	}
	return st
}

func joinTags(tags []string) string {
	return strings.Join(tags, " ")
}
