// Package cli parses the command line into a query, resolves the active
// context and dispatches to the command implementations.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ditrack/dit/internal/config"
	"github.com/ditrack/dit/internal/display"
	"github.com/ditrack/dit/internal/git"
	"github.com/ditrack/dit/internal/state"
	"github.com/ditrack/dit/internal/store"
	"github.com/ditrack/dit/internal/task"
)

// Version is stamped by the build; "dev" otherwise.
var Version = "dev"

// Exit codes
const (
	ExitOK       = 0
	ExitUsage    = 2
	ExitNotFound = 3
	ExitConflict = 4
	ExitInternal = 10
)

type app struct {
	conf    config.Config
	repo    git.Repo
	store   *store.DirStore
	state   *state.LocalState
	ctx     task.Query
	ctxEnv  bool
	query   task.Query
	out     *display.Renderer
	rawArgs []string
}

func Run(args []string) int {
	conf := config.FromEnv()
	return run(conf, args)
}

func run(conf config.Config, args []string) int {
	query, err := task.ParseQuery(args, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, "dit:", err)
		return ExitUsage
	}

	switch query.Cmd {
	case task.CmdHelp:
		printHelp()
		return ExitOK
	case task.CmdVersion:
		fmt.Println("dit", Version)
		return ExitOK
	}

	repo := git.Repo{Dir: conf.Repo}
	if !repo.Exists() {
		if conf.Interactive && !confirm(fmt.Sprintf("Create new task repository at %s? (y/N): ", conf.Repo)) {
			fmt.Println("Cancelled")
			return ExitOK
		}
		if err := repo.Init(); err != nil {
			fmt.Fprintln(os.Stderr, "dit:", err)
			return ExitInternal
		}
	}

	st := state.Load(conf.StateFile)
	ctx := st.Context
	ctxEnv := false

	if conf.ContextOverride != "" {
		if query.Cmd == task.CmdContext && len(args) > 1 {
			fmt.Fprintln(os.Stderr, "dit: setting context not allowed while DIT_CONTEXT is set")
			return ExitUsage
		}
		ctx, err = task.ParseQuery(strings.Fields(conf.ContextOverride), time.Now())
		if err != nil {
			fmt.Fprintln(os.Stderr, "dit: parsing DIT_CONTEXT:", err)
			return ExitUsage
		}
		ctxEnv = true
	}

	if query.IgnoreContext {
		ctx = task.Query{}
	}

	a := &app{
		conf:    conf,
		repo:    repo,
		store:   store.New(conf.Repo),
		state:   st,
		ctx:     ctx,
		ctxEnv:  ctxEnv,
		query:   query,
		out:     display.New(conf.Interactive),
		rawArgs: args,
	}

	switch query.Cmd {
	case "", task.CmdNext, task.CmdShowNext:
		return a.cmdNext()
	case task.CmdShowOpen:
		return a.cmdShowOpen()
	case task.CmdAdd:
		return a.cmdAdd()
	case task.CmdLog:
		return a.cmdLog()
	case task.CmdStart:
		return a.cmdStart()
	case task.CmdStop:
		return a.cmdStop()
	case task.CmdDone, task.CmdResolve:
		return a.cmdDone()
	case task.CmdNote, task.CmdNotes:
		return a.cmdNote()
	case task.CmdModify:
		return a.cmdModify()
	case task.CmdEdit:
		return a.cmdEdit()
	case task.CmdRm, task.CmdRemove:
		return a.cmdRemove()
	case task.CmdTemplate:
		return a.cmdTemplate()
	case task.CmdContext:
		return a.cmdContext()
	case task.CmdOpen:
		return a.cmdOpen()
	case task.CmdUndo:
		return a.cmdUndo()
	case task.CmdSync:
		return a.cmdSync()
	case task.CmdGit:
		return a.cmdGit()
	case task.CmdShow:
		return a.cmdShow()
	case task.CmdShowActive:
		return a.cmdShowStatus(task.StatusActive)
	case task.CmdShowPaused:
		return a.cmdShowStatus(task.StatusPaused)
	case task.CmdShowResolved:
		return a.cmdShowResolved()
	case task.CmdShowProjects:
		return a.cmdShowProjects()
	case task.CmdShowTags:
		return a.cmdShowTags()
	case task.CmdShowTemplates:
		return a.cmdShowTemplates()
	case task.CmdShowUnorganised:
		return a.cmdShowUnorganised()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", query.Cmd)
		printHelp()
		return ExitUsage
	}
}

// loadTaskSet reads the given status directories plus the persisted uuid/id
// map into a TaskSet.
func (a *app) loadTaskSet(statuses []string) (*task.TaskSet, error) {
	ids := state.LoadIDs(a.conf.IDsFile)
	return task.Load(a.store, ids, statuses)
}

// save persists write-pending tasks and the resulting ID assignments.
func (a *app) save(ts *task.TaskSet) error {
	ids, err := ts.SaveAll(a.store)
	if err != nil {
		return err
	}
	return state.SaveIDs(a.conf.IDsFile, ids)
}

// fail prints the error prefixed with the command name and maps it to an
// exit code.
func fail(cmd string, err error) int {
	fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
	switch {
	case errors.Is(err, task.ErrParse):
		return ExitUsage
	case errors.Is(err, task.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, task.ErrContextConflict),
		errors.Is(err, task.ErrInvalidTransition):
		return ExitConflict
	default:
		return ExitInternal
	}
}

// confirm asks on stdout and reads one line from stdin. Anything but y/Y
// declines.
func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "y")
}

func plural(n int) string {
	if n == 1 {
		return "task"
	}
	return "tasks"
}

func printHelp() {
	fmt.Print(`dit — git-backed task tracker

Usage:
  dit [command] [id...] [filter...] [/ note...]

Filters and operators:
  +tag -tag              require / exclude a tag
  project:<p>            require a project (also sets it on add/modify)
  -project:<p>           exclude a project
  P0 P1 P2 P3            priority (critical, high, normal, low)
  due:<date>             due on a day (today, friday, next-monday, 2026-03-01)
  due.before:<date>      due before a day; also due.after, due.on, due.in
  due:overdue            due date in the past
  template:<id>          create from a template
  --                     ignore the active context
  / <text>               everything after / becomes a note

Commands:
  next                   list open tasks (default)
  add <summary> ...      create a pending task
  log <summary> ...      record an already-completed task
  start|stop <id>...     activate / pause
  done|resolve <id>...   resolve
  note <id> [/ text]     edit notes in $EDITOR, or append text
  modify <id>... <ops>   apply operators to tasks (or the whole context)
  edit <id>              edit the full task in $EDITOR
  open <id>...           reopen resolved tasks
  rm|remove <id>...      delete tasks
  template [<id>...|<summary>]
  context [none|<filter>...]
  undo [n]               roll back the last n commits
  sync                   git pull then push
  git <args>...          run git in the task repository
  show <id>              show one task with notes
  show-active | show-paused | show-open | show-resolved
  show-projects | show-tags | show-templates | show-unorganised
  version | help
`)
}
