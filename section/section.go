// Package section extracts a sub-tree from a document by a dot path such
// as "format.rules[2].text".
package section

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aiopener/rac/document"
	"github.com/aiopener/rac/racerrors"
)

var indexedRe = regexp.MustCompile(`^(\w+)\[(\d+)\]$`)

// Segment is one step of a Path: a field name and an optional sequence
// index applied after the field lookup.
type Segment struct {
	Field   string
	Index   int
	Indexed bool
}

// String renders the segment as it appears in a path.
func (s Segment) String() string {
	if s.Indexed {
		return s.Field + "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Field
}

// Path is a parsed section path. The empty path selects the whole document.
type Path []Segment

// String joins the segments with dots.
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// Parse splits a dot path into segments. Segments of the form name[N] select
// item N of field name; any other text, including malformed brackets, is a
// plain field name.
func Parse(path string) Path {
	if path == "" {
		return nil
	}
	raw := strings.Split(path, ".")
	out := make(Path, 0, len(raw))
	for _, part := range raw {
		if m := indexedRe.FindStringSubmatch(part); m != nil {
			if n, err := strconv.Atoi(m[2]); err == nil {
				out = append(out, Segment{Field: m[1], Index: n, Indexed: true})
				continue
			}
		}
		out = append(out, Segment{Field: part})
	}
	return out
}

// Extract returns the value at path within doc. Failures return a
// *racerrors.SectionNotFoundError naming the first segment that did not
// match. A path ending at a stored null yields Null without error.
func Extract(doc document.Value, path string) (document.Value, error) {
	p := Parse(path)
	cur := doc
	for _, seg := range p {
		next, ok := step(cur, seg)
		if !ok {
			return document.Value{}, &racerrors.SectionNotFoundError{Path: path, Segment: seg.String()}
		}
		cur = next
	}
	return cur, nil
}

// Lookup is Extract reporting absence as a boolean.
func Lookup(doc document.Value, path string) (document.Value, bool) {
	v, err := Extract(doc, path)
	return v, err == nil
}

func step(cur document.Value, seg Segment) (document.Value, bool) {
	if !cur.IsMapping() {
		return document.Value{}, false
	}
	v, ok := cur.Get(seg.Field)
	if !ok {
		return document.Value{}, false
	}
	if !seg.Indexed {
		return v, true
	}
	return v.Index(seg.Index)
}

// TopLevel returns the keys of a mapping document, skipping the given keys.
// Non-mapping documents have no sections.
func TopLevel(doc document.Value, skip ...string) []string {
	m, ok := doc.AsMapping()
	if !ok {
		return nil
	}
	return m.Without(skip...).Keys()
}
