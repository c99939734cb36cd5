package task

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Query is the parsed form of a command line: part filter, part mutation
// request. The same shape is persisted as the context and passed to
// Task.Modify, so the zero value must mean "no constraint" on every axis.
type Query struct {
	Cmd           string    `yaml:"-"`
	IDs           []int     `yaml:"-"`
	Tags          []string  `yaml:"tags,omitempty"`
	AntiTags      []string  `yaml:"antitags,omitempty"`
	Project       string    `yaml:"project,omitempty"`
	AntiProjects  []string  `yaml:"antiprojects,omitempty"`
	Due           time.Time `yaml:"due,omitempty"`
	DateFilter    string    `yaml:"datefilter,omitempty"`
	Priority      string    `yaml:"priority,omitempty"`
	Template      int       `yaml:"-"`
	Text          string    `yaml:"-"`
	Note          string    `yaml:"-"`
	IgnoreContext bool      `yaml:"-"`
}

// ParseQuery classifies tokens left to right. The first token matching a
// command name (while none is set) becomes Cmd; integer tokens are IDs only
// until the first token of any other kind; after that they fall through to
// free text. "--" disables context merging, "/" puts the rest of the line
// into the note.
func ParseQuery(tokens []string, now time.Time) (Query, error) {
	var q Query
	var words []string
	var notes []string
	noteMode := false
	idsExhausted := false
	dueDateSet := false

	for _, token := range tokens {
		lc := strings.ToLower(token)

		if noteMode {
			notes = append(notes, token)
			continue
		}

		if q.Cmd == "" && isCommand(lc) {
			q.Cmd = lc
			continue
		}

		if !idsExhausted {
			if id, err := strconv.Atoi(token); err == nil {
				q.IDs = append(q.IDs, id)
				continue
			}
		}

		switch {
		case token == IgnoreContextKeyword:
			q.IgnoreContext = true

		case token == NoteModeKeyword:
			noteMode = true

		case strings.HasPrefix(lc, "project:"):
			if q.Project == "" {
				q.Project = strings.TrimPrefix(lc, "project:")
			}

		case strings.HasPrefix(lc, "+project:"):
			if q.Project == "" {
				q.Project = strings.TrimPrefix(lc, "+project:")
			}

		case strings.HasPrefix(lc, "-project:"):
			q.AntiProjects = append(q.AntiProjects, strings.TrimPrefix(lc, "-project:"))

		case strings.HasPrefix(lc, "due:") || strings.HasPrefix(lc, "due."):
			if dueDateSet {
				return Query{}, fmt.Errorf("%w: query should only have one due date", ErrParse)
			}
			filter, due, err := ParseDueArg(lc, now)
			if err != nil {
				return Query{}, err
			}
			q.DateFilter = filter
			q.Due = due
			dueDateSet = true

		case strings.HasPrefix(lc, "template:"):
			if id, err := strconv.Atoi(strings.TrimPrefix(lc, "template:")); err == nil {
				q.Template = id
			}

		case strings.HasPrefix(lc, "+"):
			if tag := strings.TrimPrefix(lc, "+"); tag != "" {
				q.Tags = append(q.Tags, tag)
			}

		case strings.HasPrefix(lc, "-"):
			if tag := strings.TrimPrefix(lc, "-"); tag != "" {
				q.AntiTags = append(q.AntiTags, tag)
			}

		case q.Priority == "" && IsValidPriority(token):
			q.Priority = token

		default:
			words = append(words, token)
		}

		idsExhausted = true
	}

	q.Text = strings.Join(words, " ")
	q.Note = strings.Join(notes, " ")
	return q, nil
}

// HasOperators reports whether the query carries any filter operator, as
// opposed to bare addressing by ID.
func (q Query) HasOperators() bool {
	return len(q.Tags) > 0 ||
		len(q.AntiTags) > 0 ||
		q.Project != "" ||
		len(q.AntiProjects) > 0 ||
		!q.Due.IsZero() ||
		q.DateFilter != "" ||
		q.Priority != "" ||
		q.Template > 0
}

// Merge layers the persisted context under this query. Contexts add
// constraints; a genuine conflict between context and an explicit filter is
// an error rather than a silent override. Identity, text, note and flag
// fields always come from the receiver.
func (q Query) Merge(ctx Query) (Query, error) {
	merged := q

	for _, tag := range ctx.Tags {
		if !containsString(merged.Tags, tag) {
			merged.Tags = append(merged.Tags, tag)
		}
	}
	for _, tag := range ctx.AntiTags {
		if !containsString(merged.AntiTags, tag) {
			merged.AntiTags = append(merged.AntiTags, tag)
		}
	}

	if ctx.Project != "" {
		if merged.Project != "" && merged.Project != ctx.Project {
			return Query{}, fmt.Errorf("%w: project %q from context, %q from query", ErrContextConflict, ctx.Project, merged.Project)
		}
		merged.Project = ctx.Project
	}

	if !ctx.Due.IsZero() {
		if !merged.Due.IsZero() && !merged.Due.Equal(ctx.Due) {
			return Query{}, fmt.Errorf("%w: conflicting due date filters", ErrContextConflict)
		}
		merged.Due = ctx.Due
		merged.DateFilter = ctx.DateFilter
	}

	if ctx.Priority != "" {
		if merged.Priority != "" {
			return Query{}, fmt.Errorf("%w: priority set in both context and query", ErrContextConflict)
		}
		merged.Priority = ctx.Priority
	}

	return merged, nil
}

// String reconstructs the canonical token form. Any query without note text
// parses back to an equal query (free text aside, which gains quotes).
func (q Query) String() string {
	var args []string

	for _, id := range q.IDs {
		args = append(args, strconv.Itoa(id))
	}
	for _, tag := range q.Tags {
		args = append(args, "+"+tag)
	}
	for _, tag := range q.AntiTags {
		args = append(args, "-"+tag)
	}
	if q.Project != "" {
		args = append(args, "project:"+q.Project)
	}
	for _, project := range q.AntiProjects {
		args = append(args, "-project:"+project)
	}
	if !q.Due.IsZero() {
		arg := "due"
		if q.DateFilter != "" {
			arg += "." + q.DateFilter
		}
		args = append(args, arg+":"+q.Due.Format("2006-01-02"))
	}
	if q.Priority != "" {
		args = append(args, q.Priority)
	}
	if q.Template > 0 {
		args = append(args, "template:"+strconv.Itoa(q.Template))
	}
	if q.Text != "" {
		args = append(args, strconv.Quote(q.Text))
	}

	return strings.Join(args, " ")
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
