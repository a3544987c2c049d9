package types

import "errors"

var (
	// ErrUnknownSession is returned when a caller references a session id
	// that is not present in the store.
	ErrUnknownSession = errors.New("unknown session")

	// ErrUnknownTool is returned when the backend requests a tool that is
	// not present in the registry.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrSchemaViolation is returned when tool arguments do not satisfy the
	// tool's input schema.
	ErrSchemaViolation = errors.New("tool input schema violation")

	// ErrToolTimeout is recorded when a tool call exceeds the run's time budget.
	ErrToolTimeout = errors.New("tool call timed out")

	// ErrToolExecution is recorded when a tool returns a domain error.
	ErrToolExecution = errors.New("tool execution failed")

	// ErrBackendUnavailable is returned when the completion backend fails.
	ErrBackendUnavailable = errors.New("completion backend unavailable")

	// ErrEmptyResponse is returned when the backend produces no choices.
	ErrEmptyResponse = errors.New("empty response from backend")
)
