package assistant

import "errors"

// Terminal failure taxonomy for a completion attempt. Callers are expected
// to collapse all of these into the configured fallback reply; they exist
// so failures can be logged and counted by cause.
var (
	// ErrBackendUnavailable covers transport or non-success failures on
	// any step before polling begins (open thread, submit prompt, start run).
	ErrBackendUnavailable = errors.New("assistant: backend unavailable")
	// ErrRunFailed reports an explicit failed/cancelled/expired run status.
	ErrRunFailed = errors.New("assistant: run failed")
	// ErrTimedOut reports that the poll attempt budget was exhausted
	// without the run reaching a terminal status.
	ErrTimedOut = errors.New("assistant: run timed out")
	// ErrMalformedResponse reports an unrecognized or empty message shape
	// during extraction.
	ErrMalformedResponse = errors.New("assistant: malformed response")
)
