// Package testutil provides test utilities and fixtures for unit tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v4"
)

// Corpus is an on-disk corpus rooted in a test temp directory.
type Corpus struct {
	tb   testing.TB
	Root string
}

// NewCorpus returns an empty corpus under tb.TempDir().
func NewCorpus(tb testing.TB) *Corpus {
	tb.Helper()
	return &Corpus{tb: tb, Root: tb.TempDir()}
}

// Add writes a shared document {uuid}_{fullID}.yaml into the layer directory
// and returns its path. Files in the same directory sort by their random
// prefix; use AddNamed when scan order matters.
func (c *Corpus) Add(layer, fullID, content string) string {
	c.tb.Helper()
	return c.AddNamed(layer, uuid.NewString(), fullID, content)
}

// AddNamed is Add with an explicit opaque prefix.
func (c *Corpus) AddNamed(layer, prefix, fullID, content string) string {
	c.tb.Helper()
	return c.write(filepath.Join(c.Root, layer), prefix+"_"+fullID+".yaml", content)
}

// AddTenant writes a tenant override document under tenants/{slug}/{layer}.
func (c *Corpus) AddTenant(slug, layer, fullID, content string) string {
	c.tb.Helper()
	dir := filepath.Join(c.Root, "tenants", slug, layer)
	return c.write(dir, uuid.NewString()+"_"+fullID+".yaml", content)
}

// WriteFile writes content at a path relative to the corpus root.
func (c *Corpus) WriteFile(rel, content string) string {
	c.tb.Helper()
	full := filepath.Join(c.Root, rel)
	return c.write(filepath.Dir(full), filepath.Base(full), content)
}

func (c *Corpus) write(dir, name, content string) string {
	c.tb.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.tb.Fatalf("creating %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		c.tb.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// WriteTempYAML marshals doc to a YAML file in a temp directory and returns
// the file path.
func WriteTempYAML(tb testing.TB, doc any) string {
	tb.Helper()
	data, err := yaml.Marshal(doc)
	if err != nil {
		tb.Fatalf("marshaling YAML: %v", err)
	}
	path := filepath.Join(tb.TempDir(), "test.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		tb.Fatalf("writing temp file: %v", err)
	}
	return path
}
