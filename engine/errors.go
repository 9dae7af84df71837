package engine

import (
	"errors"
	"strings"

	"github.com/aiopener/rac/racerrors"
)

// Sentinel errors for conditions that only arise at the query boundary.
var (
	// ErrInvalidPath is returned for empty or malformed query paths.
	ErrInvalidPath = errors.New("invalid path")
	// ErrClientRequired is returned when a tenantless query on a layer that
	// carries client context names no client.
	ErrClientRequired = errors.New("client required")
)

// InvalidPathError reports a query path that cannot be parsed.
type InvalidPathError struct {
	Path    string
	Message string
}

// Error returns a human-readable error message.
func (e *InvalidPathError) Error() string {
	if e.Message != "" {
		return "invalid path: " + e.Message
	}
	return "invalid path: " + e.Path
}

// Is reports whether target matches this error type.
func (e *InvalidPathError) Is(target error) bool { return target == ErrInvalidPath }

// ClientRequiredError reports a tenantless query without a client id.
type ClientRequiredError struct {
	Layer string
	// Available lists the client ids that could be given
	Available []string
}

// Error returns a human-readable error message.
func (e *ClientRequiredError) Error() string {
	msg := "client_id is required for " + e.Layer
	if len(e.Available) > 0 {
		msg += " (available: " + strings.Join(e.Available, ", ") + ")"
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *ClientRequiredError) Is(target error) bool { return target == ErrClientRequired }

// Error codes reported by the HTTP and MCP surfaces.
const (
	CodeOK              = "OK"
	CodeNotFound        = "NOT_FOUND"
	CodeLoadError       = "LOAD_ERROR"
	CodeSectionNotFound = "SECTION_NOT_FOUND"
	CodeAccessDenied    = "ACCESS_DENIED"
	CodeUnknownClient   = "UNKNOWN_CLIENT"
	CodeInvalidPath     = "INVALID_PATH"
	CodeClientRequired  = "CLIENT_REQUIRED"
	CodeInternal        = "INTERNAL_ERROR"
)

// Code maps an error to its wire code. A nil error is CodeOK.
func Code(err error) string {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrInvalidPath):
		return CodeInvalidPath
	case errors.Is(err, ErrClientRequired):
		return CodeClientRequired
	case errors.Is(err, racerrors.ErrUnknownTenant):
		return CodeUnknownClient
	case errors.Is(err, racerrors.ErrAccessDenied):
		return CodeAccessDenied
	case errors.Is(err, racerrors.ErrSectionNotFound):
		return CodeSectionNotFound
	case errors.Is(err, racerrors.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, racerrors.ErrLoad), errors.Is(err, racerrors.ErrParse):
		return CodeLoadError
	default:
		return CodeInternal
	}
}
