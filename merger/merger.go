// Package merger implements single-parent document inheritance.
//
// A document declaring a top-level `extends: NAME` is deep-merged over the
// base document NAME from the same layer. Mappings merge recursively,
// everything else (sequences included) is replaced by the derived value.
//
// Chains are followed: a base that itself extends another base is resolved
// first. Chains stop at MaxDepth links or when a base repeats; both cases
// are logged and leave the remaining chain unapplied.
package merger

import (
	"strings"

	"github.com/aiopener/rac/document"
	"github.com/aiopener/rac/index"
	"github.com/aiopener/rac/layer"
	"github.com/aiopener/rac/logging"
	"github.com/aiopener/rac/racerrors"
)

// MaxDepth bounds the length of an extends chain.
const MaxDepth = 10

// ExtendsKey is the top-level key naming a document's base.
const ExtendsKey = "extends"

// Merge deep-merges override over base and returns a new tree.
//
//   - an absent (null) override yields base, a null base yields override
//   - if either side is not a mapping, override wins
//   - otherwise base keys keep their order and values, and keys new in
//     override are appended in override order
//
// Inside mappings a key present in override always takes the override value,
// null included, unless both values are mappings, which merge recursively.
// Neither input is modified.
func Merge(base, override document.Value) document.Value {
	if override.IsNull() {
		return base
	}
	if base.IsNull() {
		return override
	}
	return mergeValue(base, override)
}

func mergeValue(base, override document.Value) document.Value {
	bm, ok := base.AsMapping()
	if !ok {
		return override
	}
	om, ok := override.AsMapping()
	if !ok {
		return override
	}

	out := bm.Clone()
	om.Range(func(k string, ov document.Value) bool {
		if bv, exists := out.Get(k); exists {
			out.Set(k, mergeValue(bv, ov))
		} else {
			out.Set(k, ov)
		}
		return true
	})
	return document.FromMapping(out)
}

// Option configures a Merger.
type Option func(*Merger)

// WithLogger sets the logger for missing bases and broken chains.
func WithLogger(l logging.Logger) Option {
	return func(m *Merger) { m.logger = logging.OrNop(l) }
}

// WithMaxDepth overrides MaxDepth. Non-positive values are ignored.
func WithMaxDepth(n int) Option {
	return func(m *Merger) {
		if n > 0 {
			m.maxDepth = n
		}
	}
}

// Merger applies extends declarations using an index to find bases.
type Merger struct {
	idx      *index.Index
	logger   logging.Logger
	maxDepth int
}

// New returns a Merger over idx.
func New(idx *index.Index, opts ...Option) *Merger {
	m := &Merger{idx: idx, logger: logging.NopLogger{}, maxDepth: MaxDepth}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ApplyInheritance merges doc over its declared base chain. Documents with
// no extends, or whose base cannot be found or loaded, are returned as is.
func (m *Merger) ApplyInheritance(doc document.Value, l layer.Layer) document.Value {
	out, _ := m.ApplyInheritanceDetailed(doc, l)
	return out
}

// ApplyInheritanceDetailed is ApplyInheritance that also reports the bases
// applied, nearest first.
func (m *Merger) ApplyInheritanceDetailed(doc document.Value, l layer.Layer) (document.Value, []index.Location) {
	var chain []index.Location
	out := m.apply(doc, l, 0, map[string]bool{}, &chain)
	return out, chain
}

func (m *Merger) apply(doc document.Value, l layer.Layer, depth int, visited map[string]bool, chain *[]index.Location) document.Value {
	name, ok := BaseName(doc)
	if !ok {
		return doc
	}

	if depth >= m.maxDepth {
		m.logger.Warn("extends chain too deep",
			"layer", l,
			"extends", name,
			"error", &racerrors.ResourceLimitError{ResourceType: "extends depth", Limit: int64(m.maxDepth), Actual: int64(depth + 1)})
		return doc
	}

	loc, found := m.idx.FindByLayerAndShortName(l, name)
	if !found {
		m.logger.Warn("base document not found",
			"error", &racerrors.MissingBaseError{Layer: string(l), Extends: name, Message: "no document in layer"})
		return doc
	}
	if visited[loc.Path] {
		m.logger.Warn("extends cycle",
			"error", &racerrors.MissingBaseError{Layer: string(l), Extends: name, Message: "cycle at " + loc.FullID})
		return doc
	}
	visited[loc.Path] = true

	base, err := m.idx.Load(loc)
	if err != nil {
		m.logger.Warn("base document not loadable",
			"error", &racerrors.MissingBaseError{Layer: string(l), Extends: name, Cause: err})
		return doc
	}
	*chain = append(*chain, loc)

	base = m.apply(base, l, depth+1, visited, chain)
	return Merge(base, doc).Without(ExtendsKey)
}

// BaseName returns the normalized short name a document extends. Quotes are
// stripped and LAYER_NN_NAME ids reduce to NAME.
func BaseName(doc document.Value) (string, bool) {
	raw, ok := doc.Get(ExtendsKey)
	if !ok {
		return "", false
	}
	s, ok := raw.AsString()
	if !ok {
		return "", false
	}
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	if s == "" {
		return "", false
	}
	if short, ok := layer.ShortName(s); ok {
		return short, true
	}
	return s, true
}
