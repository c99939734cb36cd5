package task

// Task statuses. The status of a task decides which directory its file lives
// in, whether it holds a short ID, and which transitions are legal.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusResolved  = "resolved"
	StatusDelegated = "delegated"
	StatusDeferred  = "deferred"
	StatusPaused    = "paused"
	StatusRecurring = "recurring"
	StatusTemplate  = "template"
)

// Priorities. Lexicographic order matches semantic order, P0 highest.
const (
	PriorityCritical = "P0"
	PriorityHigh     = "P1"
	PriorityNormal   = "P2"
	PriorityLow      = "P3"
)

const (
	// MaxOpenTasks bounds the short-ID space. Tasks beyond the ceiling stay
	// unaddressed rather than failing the load.
	MaxOpenTasks = 10000

	IgnoreContextKeyword = "--"
	NoteModeKeyword      = "/"
)

// Command names recognised by the query parser.
const (
	CmdNext            = "next"
	CmdAdd             = "add"
	CmdRemove          = "remove"
	CmdRm              = "rm"
	CmdTemplate        = "template"
	CmdLog             = "log"
	CmdStart           = "start"
	CmdNote            = "note"
	CmdNotes           = "notes"
	CmdStop            = "stop"
	CmdDone            = "done"
	CmdResolve         = "resolve"
	CmdContext         = "context"
	CmdModify          = "modify"
	CmdEdit            = "edit"
	CmdUndo            = "undo"
	CmdSync            = "sync"
	CmdOpen            = "open"
	CmdGit             = "git"
	CmdShow            = "show"
	CmdShowNext        = "show-next"
	CmdShowProjects    = "show-projects"
	CmdShowTags        = "show-tags"
	CmdShowActive      = "show-active"
	CmdShowPaused      = "show-paused"
	CmdShowOpen        = "show-open"
	CmdShowResolved    = "show-resolved"
	CmdShowTemplates   = "show-templates"
	CmdShowUnorganised = "show-unorganised"
	CmdHelp            = "help"
	CmdVersion         = "version"
)

// AllStatuses lists every status directory, in load order.
var AllStatuses = []string{
	StatusActive,
	StatusPending,
	StatusDelegated,
	StatusDeferred,
	StatusPaused,
	StatusRecurring,
	StatusResolved,
	StatusTemplate,
}

// NonResolvedStatuses is the default load set for commands that only operate
// on open tasks.
var NonResolvedStatuses = []string{
	StatusActive,
	StatusPending,
	StatusDelegated,
	StatusDeferred,
	StatusPaused,
	StatusRecurring,
	StatusTemplate,
}

// HiddenStatuses are filtered after load; show- commands unhide them.
var HiddenStatuses = []string{StatusRecurring, StatusResolved, StatusTemplate}

// validTransitions is the strict status state machine. Reopening a resolved
// task is deliberately absent: it is only reachable through the edit paths
// that skip this table (see TaskSet.EditTask).
var validTransitions = map[[2]string]bool{
	{StatusPending, StatusActive}:   true,
	{StatusActive, StatusPaused}:    true,
	{StatusPaused, StatusActive}:    true,
	{StatusPending, StatusResolved}: true,
	{StatusPaused, StatusResolved}:  true,
	{StatusActive, StatusResolved}:  true,
	{StatusPending, StatusTemplate}: true,
}

var allCommands = []string{
	CmdNext, CmdAdd, CmdRm, CmdRemove, CmdTemplate, CmdLog, CmdStart,
	CmdNote, CmdNotes, CmdStop, CmdDone, CmdResolve, CmdContext, CmdModify,
	CmdEdit, CmdUndo, CmdSync, CmdOpen, CmdGit, CmdShow, CmdShowNext,
	CmdShowProjects, CmdShowTags, CmdShowActive, CmdShowPaused, CmdShowOpen,
	CmdShowResolved, CmdShowTemplates, CmdShowUnorganised, CmdHelp, CmdVersion,
}

// IsValidStatus reports whether s names a known status.
func IsValidStatus(s string) bool {
	for _, status := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsValidPriority reports whether p is one of the four priority literals.
func IsValidPriority(p string) bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

// IsValidTransition reports whether the from/to pair is in the transition
// table.
func IsValidTransition(from, to string) bool {
	return validTransitions[[2]string{from, to}]
}

// IsHiddenStatus reports whether tasks of this status are filtered out of
// listings unless explicitly requested.
func IsHiddenStatus(s string) bool {
	for _, status := range HiddenStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func isCommand(s string) bool {
	for _, cmd := range allCommands {
		if s == cmd {
			return true
		}
	}
	return false
}
