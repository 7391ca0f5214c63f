package service

import "errors"

// Kind is the closed error taxonomy the handlers map onto HTTP statuses.
// Every error leaving this package wraps exactly one sentinel below, so
// callers switch on KindOf instead of string matching.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidState      Kind = "invalid_state"
	KindContentGeneration Kind = "content_generation"
)

type Error struct {
	kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.kind == e.kind && t.msg == e.msg
}

func newError(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

var (
	ErrSessionNotFound    = newError(KindNotFound, "session not found")
	ErrQuestionNotFound   = newError(KindNotFound, "question not found in session")
	ErrConceptNotFound    = newError(KindNotFound, "question has no concept resolvable in the session")
	ErrCheckpointNotFound = newError(KindNotFound, "checkpoint not found")
	ErrResultNotFound     = newError(KindNotFound, "no result archived for session")

	ErrSessionTerminal         = newError(KindInvalidState, "session is already completed or abandoned")
	ErrSessionNotStarted       = newError(KindInvalidState, "session has not been started")
	ErrQuestionCompleted       = newError(KindInvalidState, "question is already answered correctly")
	ErrQuestionInLearningMode  = newError(KindInvalidState, "question has an active learning-mode episode")
	ErrNotInLearningMode       = newError(KindInvalidState, "question has no active learning-mode episode")
	ErrAllCheckpointsCompleted = newError(KindInvalidState, "all checkpoints already completed")
	ErrOutOfRange              = newError(KindInvalidState, "navigation out of range")
	ErrInvalidIndex            = newError(KindInvalidState, "navigation index outside the question range")
	ErrInvalidHintLevel        = newError(KindInvalidState, "hint level must be between 1 and 3")
	ErrUnknownOption           = newError(KindInvalidState, "selected option is not one of the question's options")
)

// KindOf extracts the taxonomy kind from any error produced here. Unwrapped
// foreign errors (storage, transport) report as content generation's
// sibling: an empty kind the handlers treat as a 500.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return ""
}

// contentFailure wraps a collaborator error so handlers can map it to 502.
func contentFailure(msg string) *Error {
	return newError(KindContentGeneration, msg)
}
