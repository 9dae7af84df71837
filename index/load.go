package index

import (
	"fmt"
	"io"
	"os"

	"github.com/aiopener/rac/document"
	"github.com/aiopener/rac/racerrors"
)

// DefaultMaxFileSize is the default cap on a single corpus file (10 MiB).
const DefaultMaxFileSize int64 = 10 << 20

// LoadFile reads and parses the YAML file at path. Files larger than maxSize
// fail with a *racerrors.ResourceLimitError; read and parse failures are
// returned as a *racerrors.LoadError wrapping the cause.
func LoadFile(path string, maxSize int64) (document.Value, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	f, err := os.Open(path) //nolint:gosec // paths come from the index scan
	if err != nil {
		return document.Value{}, &racerrors.LoadError{Path: path, Cause: err}
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return document.Value{}, &racerrors.LoadError{Path: path, Cause: err}
	}
	if int64(len(data)) > maxSize {
		return document.Value{}, &racerrors.LoadError{
			Path: path,
			Cause: &racerrors.ResourceLimitError{
				ResourceType: "file size",
				Limit:        maxSize,
				Actual:       int64(len(data)),
				Message:      fmt.Sprintf("%s exceeds the configured size cap", path),
			},
		}
	}

	v, err := document.ParseNamed(path, data)
	if err != nil {
		return document.Value{}, &racerrors.LoadError{Path: path, Cause: err}
	}
	return v, nil
}

// Load reads and parses the file behind loc using the index size cap.
func (idx *Index) Load(loc Location) (document.Value, error) {
	return LoadFile(loc.Path, idx.maxFileSize)
}
