package engine

import (
	"context"

	"github.com/aiopener/rac/document"
	"github.com/aiopener/rac/index"
	"github.com/aiopener/rac/internal/naming"
	"github.com/aiopener/rac/racerrors"
	"github.com/aiopener/rac/section"
)

// RawResult is a file served without inheritance or reference resolution.
type RawResult struct {
	FileID   string
	Section  string
	Location index.Location
	Content  document.Value
}

// Raw returns the unprocessed content of the first shared file whose key
// equals or contains fileID, optionally narrowed to a section.
func (e *Engine) Raw(ctx context.Context, fileID, sectionPath string) (*RawResult, error) {
	id := naming.UpperID(fileID)
	if id == "" {
		return nil, &InvalidPathError{Path: fileID, Message: "file_id is required"}
	}
	idx, err := e.store.Get(ctx)
	if err != nil {
		return nil, err
	}

	loc, ok := idx.FindByFullID(id)
	if !ok {
		return nil, &racerrors.NotFoundError{ID: id, Suggestions: rawSuggestions(idx, id)}
	}
	doc, err := idx.Load(loc)
	if err != nil {
		return nil, err
	}
	if sectionPath != "" {
		if doc, err = section.Extract(doc, sectionPath); err != nil {
			return nil, err
		}
	}
	return &RawResult{FileID: id, Section: sectionPath, Location: loc, Content: doc}, nil
}
