package services

// Typed service errors, mapped to HTTP error envelopes by the handlers.

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

// ExternalError marks a collaborator failure (extraction, structuring,
// evaluation, suggestion). Callers convert it to a fallback value at the
// boundary; only import extraction surfaces it to the user.
type ExternalError struct {
	Op      string
	Message string
}

func (e *ExternalError) Error() string { return e.Op + ": " + e.Message }
