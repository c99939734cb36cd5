package task

import "errors"

// Sentinel errors for the engine's failure taxonomy. Callers classify with
// errors.Is; detail is attached by wrapping with fmt.Errorf("%w: ...").
var (
	ErrParse             = errors.New("parse error")
	ErrNotFound          = errors.New("task not found")
	ErrContextConflict   = errors.New("context conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidUUID       = errors.New("invalid uuid")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidPriority   = errors.New("invalid priority")
)
