// Package racerrors provides structured error types for the rac resolution engine.
//
// Import path: github.com/aiopener/rac/racerrors
//
// The types let callers tell apart the outcomes of a resolution via
// [errors.Is] and [errors.As], and translate each of them into a protocol-level
// response (HTTP status, MCP tool error, CLI exit code).
//
// # Error Types
//
//   - [NotFoundError]: a logical key is absent from the file index
//   - [LoadError]: an indexed file could not be read or parsed
//   - [ParseError]: YAML syntax or structure problem inside a file
//   - [ReferenceError]: a $ref pointer could not be located, loaded or traversed
//   - [MissingBaseError]: an extends target could not be found or loaded
//   - [SectionNotFoundError]: a section path does not address a value
//   - [AccessDeniedError]: a tenant addressed CLIENT data outside its grants
//   - [UnknownTenantError]: a tenant slug has no binding
//   - [ResourceLimitError]: depth or size limits were exceeded
//   - [ConfigError]: invalid configuration or input
//
// # Recoverable conditions
//
// [ReferenceError], [MissingBaseError] and depth-related [ResourceLimitError]
// values are never returned from a resolution. The engine logs them as
// warnings and degrades: a pointer stays as its literal text, a child document
// keeps its extends field. They are still exported so the degraded outcome can
// be reported by callers that ask for it.
//
// # Usage Examples
//
//	res, err := eng.Resolve(ctx, q)
//	switch {
//	case errors.Is(err, racerrors.ErrAccessDenied):
//	    // 403
//	case errors.Is(err, racerrors.ErrNotFound), errors.Is(err, racerrors.ErrSectionNotFound):
//	    // 404 with suggestions
//	case errors.Is(err, racerrors.ErrLoad):
//	    // 500
//	}
//
//	var nf *racerrors.NotFoundError
//	if errors.As(err, &nf) {
//	    fmt.Println(nf.Suggestions)
//	}
package racerrors
