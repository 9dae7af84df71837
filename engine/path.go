package engine

import (
	"strings"

	"github.com/aiopener/rac/internal/naming"
	"github.com/aiopener/rac/layer"
	"github.com/aiopener/rac/racerrors"
)

// ConfigInstance is the file id every CONFIG query resolves to.
const ConfigInstance = "INSTANCE"

// Query is one resolution request.
type Query struct {
	// Path is the request path as given, kept for responses
	Path string
	// Layer is the layer to search
	Layer layer.Layer
	// FileID is the short name (or full id) of the file, upper-case
	FileID string
	// Section is a dot path into the file, empty for the whole file
	Section string
	// Tenant is the tenant slug on tenant-scoped requests
	Tenant string
	// ClientID selects the client document on tenantless requests
	ClientID string
	// IncludeClient attaches the client document on layers that carry it
	IncludeClient bool
}

// ParsePath parses LAYER/FILE_ID/SECTION... into a Query. Layer and file id
// are upper-cased; remaining segments are joined with dots into the section.
//
// CONFIG is a singleton layer: CONFIG alone selects INSTANCE, and
// CONFIG/x/y selects section x.y of INSTANCE.
func ParsePath(path string) (Query, error) {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return Query{}, &InvalidPathError{Path: path, Message: "path is required. Format: LAYER/FILE_ID or LAYER/FILE_ID/SECTION"}
	}

	name := naming.UpperID(parts[0])
	l, ok := layer.Parse(name)
	if !ok {
		known := make([]string, 0, len(layer.All()))
		for _, k := range layer.All() {
			known = append(known, k.String())
		}
		return Query{}, &racerrors.NotFoundError{Layer: name, Suggestions: known, Hint: "unknown layer"}
	}

	q := Query{Path: path, Layer: l, IncludeClient: true}
	if l == layer.Config {
		q.FileID = ConfigInstance
		q.Section = strings.Join(parts[1:], ".")
		return q, nil
	}
	if len(parts) > 1 {
		q.FileID = naming.UpperID(parts[1])
	}
	if len(parts) > 2 {
		q.Section = strings.Join(parts[2:], ".")
	}
	return q, nil
}

// CanonicalPath renders the query as LAYER/FILE_ID[/SECTION].
func (q Query) CanonicalPath() string {
	s := q.Layer.String()
	if q.FileID != "" {
		s += "/" + q.FileID
	}
	if q.Section != "" {
		s += "/" + strings.ReplaceAll(q.Section, ".", "/")
	}
	return s
}
