package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// All errors are local to a single call; a rejected call never corrupts
// session state.

var (
	// Session engine errors
	ErrInvalidIndex      = errors.New("answer index outside question's choice range")
	ErrInvalidLevel      = errors.New("level outside configured bounds")
	ErrMalformedQuestion = errors.New("malformed question")
	ErrSessionNotStarted = errors.New("session has not been started")
	ErrSessionFinished   = errors.New("session already finished")
	ErrSessionRunning    = errors.New("session already running")
	ErrNoQuestion        = errors.New("no current question")

	// Question bank errors
	ErrEmptyBank     = errors.New("question bank is empty")
	ErrShortLevelSet = errors.New("not enough questions for level")
	ErrBadCSVRow     = errors.New("unparseable question row")

	// Session registry errors
	ErrSessionNotFound = errors.New("session not found")
)
