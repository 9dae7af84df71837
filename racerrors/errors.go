package racerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNotFound indicates a logical key is absent from the index.
	ErrNotFound = errors.New("not found")

	// ErrLoad indicates an indexed file could not be read or parsed.
	ErrLoad = errors.New("load error")

	// ErrParse indicates a YAML parsing failure.
	ErrParse = errors.New("parse error")

	// ErrUnresolvedReference indicates a $ref pointer could not be resolved.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrMissingBase indicates an extends target could not be found or loaded.
	ErrMissingBase = errors.New("missing base")

	// ErrSectionNotFound indicates a section path does not resolve to a value.
	ErrSectionNotFound = errors.New("section not found")

	// ErrAccessDenied indicates a tenant addressed data outside its grants.
	ErrAccessDenied = errors.New("access denied")

	// ErrUnknownTenant indicates a tenant slug has no binding.
	ErrUnknownTenant = errors.New("unknown tenant")

	// ErrResourceLimit indicates a resource limit was exceeded.
	ErrResourceLimit = errors.New("resource limit exceeded")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// NotFoundError reports that no document answers a (layer, id) lookup.
type NotFoundError struct {
	// Layer is the requested layer (may be empty for global id lookups)
	Layer string
	// ID is the requested file id
	ID string
	// Suggestions are "LAYER/SHORT" paths the caller may have meant
	Suggestions []string
	// Hint is a human readable pointer, e.g. the layer the id actually lives in
	Hint string
}

// Error returns a human-readable error message.
func (e *NotFoundError) Error() string {
	msg := "not found"
	switch {
	case e.Layer != "" && e.ID != "":
		msg += ": " + e.Layer + "/" + e.ID
	case e.Layer != "":
		msg += ": " + e.Layer
	case e.ID != "":
		msg += ": " + e.ID
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// LoadError reports that a physical file exists in the index but could not
// be read or parsed.
type LoadError struct {
	// Path is the physical file path
	Path string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *LoadError) Error() string {
	msg := "load error"
	if e.Path != "" {
		msg += " for " + e.Path
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}

// ParseError represents a failure to parse a YAML document.
type ParseError struct {
	// Path is the file path or source identifier
	Path string
	// Line is the line number where the error occurred (0 if unknown)
	Line int
	// Column is the column number where the error occurred (0 if unknown)
	Column int
	// Message describes the parsing failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ParseError) Error() string {
	msg := "parse error"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
		if e.Column > 0 {
			msg += fmt.Sprintf(", column %d", e.Column)
		}
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// ReferenceError represents a $ref pointer that could not be resolved.
type ReferenceError struct {
	// Ref is the literal pointer text, e.g. "$ref: LOGIC_08_QUALITY_GATES#tiers"
	Ref string
	// Message provides additional context about the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ReferenceError) Error() string {
	msg := "unresolved reference"
	if e.Ref != "" {
		msg += ": " + e.Ref
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ReferenceError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ReferenceError) Is(target error) bool {
	return target == ErrUnresolvedReference
}

// MissingBaseError represents an extends declaration whose base document
// could not be found or loaded.
type MissingBaseError struct {
	// Layer is the layer the base was searched in
	Layer string
	// Extends is the raw extends value
	Extends string
	// Message provides additional context
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *MissingBaseError) Error() string {
	msg := "missing base"
	if e.Extends != "" {
		msg += ": " + e.Extends
	}
	if e.Layer != "" {
		msg += " in " + e.Layer
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *MissingBaseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *MissingBaseError) Is(target error) bool {
	return target == ErrMissingBase
}

// SectionNotFoundError reports that a section path does not address a value.
type SectionNotFoundError struct {
	// Path is the full section path that was requested
	Path string
	// Segment is the first segment that failed to resolve
	Segment string
}

// Error returns a human-readable error message.
func (e *SectionNotFoundError) Error() string {
	msg := "section not found"
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Segment != "" && e.Segment != e.Path {
		msg += " (at " + e.Segment + ")"
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *SectionNotFoundError) Is(target error) bool {
	return target == ErrSectionNotFound
}

// AccessDeniedError reports that a tenant endpoint addressed CLIENT-layer data
// outside its own document, the shared template and its grant set.
type AccessDeniedError struct {
	// Slug is the requesting tenant
	Slug string
	// Requested is the requested CLIENT id (upper-cased)
	Requested string
	// Allowed lists every CLIENT id the tenant may read
	Allowed []string
	// DidYouMean lists allowed ids that look like the requested one
	DidYouMean []string
	// Hint is a human readable summary of what is allowed
	Hint string
}

// Error returns a human-readable error message.
func (e *AccessDeniedError) Error() string {
	msg := "access denied"
	if e.Requested != "" {
		msg += ": CLIENT/" + e.Requested
	}
	if e.Slug != "" {
		msg += " from /" + e.Slug
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *AccessDeniedError) Is(target error) bool {
	return target == ErrAccessDenied
}

// UnknownTenantError reports a tenant slug without a binding.
type UnknownTenantError struct {
	// Slug is the unknown tenant slug
	Slug string
	// Known lists every bound slug
	Known []string
}

// Error returns a human-readable error message.
func (e *UnknownTenantError) Error() string {
	msg := "unknown tenant"
	if e.Slug != "" {
		msg += ": " + e.Slug
	}
	if len(e.Known) > 0 {
		msg += " (known: " + strings.Join(e.Known, ", ") + ")"
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *UnknownTenantError) Is(target error) bool {
	return target == ErrUnknownTenant
}

// ResourceLimitError represents a resource exhaustion condition.
type ResourceLimitError struct {
	// ResourceType identifies what limit was exceeded
	// Common values: "ref_depth", "extends_depth", "file_size"
	ResourceType string
	// Limit is the configured maximum value
	Limit int64
	// Actual is the value that exceeded the limit (may be 0 if unknown)
	Actual int64
	// Message provides additional context
	Message string
}

// Error returns a human-readable error message.
func (e *ResourceLimitError) Error() string {
	msg := "resource limit exceeded"
	if e.ResourceType != "" {
		msg += ": " + e.ResourceType
	}
	if e.Limit > 0 {
		msg += fmt.Sprintf(" (limit: %d", e.Limit)
		if e.Actual > 0 {
			msg += fmt.Sprintf(", actual: %d", e.Actual)
		}
		msg += ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *ResourceLimitError) Is(target error) bool {
	return target == ErrResourceLimit
}

// ConfigError represents an invalid configuration or input.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
