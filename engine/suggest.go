package engine

import (
	"strings"

	"github.com/aiopener/rac/index"
	"github.com/aiopener/rac/internal/naming"
	"github.com/aiopener/rac/layer"
)

// Suggestion list sizes.
const (
	MaxSimilar          = 5
	MaxAvailableInLayer = 15
)

// Suggestions helps a caller recover from a missed lookup. Entries are
// LAYER/NAME paths.
type Suggestions struct {
	Similar          []string `json:"similar,omitempty"`
	AvailableInLayer []string `json:"available_in_layer,omitempty"`
	// FoundInLayer names another layer holding a matching file
	FoundInLayer string `json:"found_in_layer,omitempty"`
	Hint         string `json:"hint,omitempty"`
}

// Suggest computes recovery hints for a missed (l, fileID) lookup.
func Suggest(idx *index.Index, l layer.Layer, fileID string) Suggestions {
	var s Suggestions
	want := naming.UpperID(fileID)
	names := idx.ShortNames(l)

	for _, n := range names {
		if want == "" || len(s.Similar) == MaxSimilar {
			break
		}
		up := naming.UpperID(n)
		if strings.Contains(up, want) || strings.Contains(want, prefix(up, 4)) {
			s.Similar = append(s.Similar, l.String()+"/"+n)
		}
	}
	for i, n := range names {
		if i == MaxAvailableInLayer {
			break
		}
		s.AvailableInLayer = append(s.AvailableInLayer, l.String()+"/"+n)
	}

	if other, ok := idx.FindLayerOf(fileID, l); ok {
		s.FoundInLayer = other.String()
		s.Hint = "Did you mean " + other.String() + "/" + fileID + "? The file exists in the " +
			other.String() + " layer, not " + l.String() + "."
	}
	return s
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// rawSuggestions lists shared keys containing the last _-separated part of
// fileID, compared case-insensitively.
func rawSuggestions(idx *index.Index, fileID string) []string {
	parts := strings.Split(fileID, "_")
	tail := strings.ToLower(parts[len(parts)-1])
	if tail == "" {
		return nil
	}
	var out []string
	idx.Range(func(key string, loc index.Location) bool {
		if loc.Shared() && strings.Contains(strings.ToLower(key), tail) {
			out = append(out, key)
		}
		return len(out) < MaxSimilar
	})
	return out
}
