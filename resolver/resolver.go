// Package resolver replaces "$ref:" pointer strings in a document tree with
// the content they point at.
//
// A pointer is a string of the form
//
//	$ref: FILE_ID
//	$ref: FILE_ID#path.to.section
//
// FILE_ID is looked up corpus-wide by full id (see index.Index.FindByFullID),
// so a pointer can reach any shared document regardless of layer. Tenant
// override files are never reference targets. The optional path is plain dot
// field access; bracket indexing is not supported in pointers.
//
// Resolution never fails. A pointer whose file or path cannot be found is
// left verbatim and a warning is logged. Spliced content is itself resolved,
// one level deeper; beyond MaxDepth values are returned unresolved, which
// also terminates reference cycles.
package resolver

import (
	"strings"

	"github.com/aiopener/rac/document"
	"github.com/aiopener/rac/index"
	"github.com/aiopener/rac/logging"
	"github.com/aiopener/rac/racerrors"
)

// MaxDepth is how many documents deep references are followed.
const MaxDepth = 10

// RefPrefix marks a string as a reference pointer.
const RefPrefix = "$ref:"

// Report summarizes one resolution pass.
type Report struct {
	// Resolved counts pointers replaced by content
	Resolved int `json:"resolved"`
	// Unresolved lists pointers left verbatim, in encounter order
	Unresolved []string `json:"unresolved,omitempty"`
	// DepthExceeded is set when the depth cap cut resolution short
	DepthExceeded bool `json:"depth_exceeded,omitempty"`
}

// Degraded reports whether any pointer was left unresolved.
func (r Report) Degraded() bool {
	return len(r.Unresolved) > 0 || r.DepthExceeded
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for unresolvable pointers.
func WithLogger(l logging.Logger) Option {
	return func(r *Resolver) { r.logger = logging.OrNop(l) }
}

// WithMaxDepth overrides MaxDepth. Non-positive values are ignored.
func WithMaxDepth(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// Resolver resolves pointers against an index.
type Resolver struct {
	idx      *index.Index
	logger   logging.Logger
	maxDepth int
}

// New returns a Resolver over idx.
func New(idx *index.Index, opts ...Option) *Resolver {
	r := &Resolver{idx: idx, logger: logging.NopLogger{}, maxDepth: MaxDepth}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns v with every pointer replaced.
func (r *Resolver) Resolve(v document.Value) document.Value {
	out, _ := r.ResolveWithReport(v)
	return out
}

// ResolveWithReport is Resolve that also reports degraded pointers.
func (r *Resolver) ResolveWithReport(v document.Value) (document.Value, Report) {
	p := &pass{Resolver: r, cache: make(map[string]document.Value)}
	out := p.resolve(v, 0)
	return out, p.report
}

// ParseRef splits a pointer into file id and section path. ok is false when
// s is not a pointer or names no file.
func ParseRef(s string) (fileID, path string, ok bool) {
	if !strings.HasPrefix(s, RefPrefix) {
		return "", "", false
	}
	body := strings.TrimSpace(strings.TrimPrefix(s, RefPrefix))
	fileID, path, _ = strings.Cut(body, "#")
	fileID = strings.TrimSpace(fileID)
	path = strings.TrimSpace(path)
	return fileID, path, fileID != ""
}

// IsRef reports whether s is a pointer string.
func IsRef(s string) bool { return strings.HasPrefix(s, RefPrefix) }

// pass carries per-call state: loaded targets and the report.
type pass struct {
	*Resolver
	cache  map[string]document.Value
	report Report
}

func (p *pass) resolve(v document.Value, depth int) document.Value {
	if depth > p.maxDepth {
		p.report.DepthExceeded = true
		p.logger.Warn("reference depth exceeded",
			"error", &racerrors.ResourceLimitError{ResourceType: "reference depth", Limit: int64(p.maxDepth), Actual: int64(depth)})
		return v
	}

	switch v.Kind() {
	case document.KindString:
		s, _ := v.AsString()
		if !IsRef(s) {
			return v
		}
		return p.resolveRef(s, v, depth)

	case document.KindSequence:
		items, _ := v.Items()
		for i, item := range items {
			items[i] = p.resolve(item, depth)
		}
		return document.Seq(items...)

	case document.KindMapping:
		m, _ := v.AsMapping()
		out := document.NewMapping(m.Len())
		m.Range(func(k string, val document.Value) bool {
			out.Set(k, p.resolve(val, depth))
			return true
		})
		return document.FromMapping(out)

	default:
		return v
	}
}

func (p *pass) resolveRef(ref string, orig document.Value, depth int) document.Value {
	fileID, path, ok := ParseRef(ref)
	if !ok {
		return p.unresolved(ref, orig, "empty file id", nil)
	}

	loc, found := p.idx.FindByFullID(fileID)
	if !found {
		return p.unresolved(ref, orig, "file not found", nil)
	}

	content, cached := p.cache[loc.Path]
	if !cached {
		var err error
		content, err = p.idx.Load(loc)
		if err != nil {
			return p.unresolved(ref, orig, "file not loadable", err)
		}
		p.cache[loc.Path] = content
	}

	if path != "" {
		for _, part := range strings.Split(path, ".") {
			next, present := content.Get(part)
			if !present {
				return p.unresolved(ref, orig, "section "+path+" not found", nil)
			}
			content = next
		}
	}

	p.report.Resolved++
	return p.resolve(content, depth+1)
}

func (p *pass) unresolved(ref string, orig document.Value, msg string, cause error) document.Value {
	p.report.Unresolved = append(p.report.Unresolved, ref)
	p.logger.Warn("unresolved reference",
		"ref", ref,
		"error", &racerrors.ReferenceError{Ref: ref, Message: msg, Cause: cause})
	return orig
}
