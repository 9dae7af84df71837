// Package index builds the mapping from logical document keys to physical
// files in a corpus directory.
//
// # Corpus layout
//
//	{root}/{LAYER}/{opaque-id}_{LAYER}_{NN}_{NAME}.yaml
//	{root}/tenants/{slug}/{LAYER}/{opaque-id}_{LAYER}_{NN}_{NAME}.yaml   (overridable layers only)
//
// # Keys
//
// Shared files are indexed by their full id (USE_CASE_04_COPYWRITER) and,
// when the full id follows the LAYER_NN_NAME convention, by LAYER:NAME.
// Tenant files are indexed as clients:{slug}:{FULL_ID} and
// clients:{slug}:{LAYER}:{NAME}. The first file to claim a short-name key
// keeps it. Scan order is deterministic: layers in [layer.All] order, files
// sorted by name, tenants sorted by slug after all shared layers.
//
// Lookups never fail with an error. Absence is an ordinary outcome reported
// through the boolean result.
package index

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/aiopener/rac/internal/naming"
	"github.com/aiopener/rac/layer"
	"github.com/aiopener/rac/logging"
	"github.com/aiopener/rac/racerrors"
)

// TenantsDir is the directory under the corpus root holding tenant overrides.
const TenantsDir = "tenants"

// tenantKeyPrefix prefixes every tenant-scoped key.
const tenantKeyPrefix = "clients:"

// fileNameRe matches {opaque-id}_{FULL_ID}.yaml and captures FULL_ID.
var fileNameRe = regexp.MustCompile(`^[a-f0-9-]+_(.+)\.ya?ml$`)

// Location is the physical file behind one or more logical keys.
type Location struct {
	// Path is the file path on disk
	Path string
	// Layer is the layer directory the file was found in
	Layer layer.Layer
	// FullID is the file name without opaque prefix and extension
	FullID string
	// ShortName is the NAME part of LAYER_NN_NAME, empty if the id does not
	// follow the convention
	ShortName string
	// Tenant is the tenant slug for override files, empty for shared files
	Tenant string
}

// Shared reports whether the location is outside any tenant folder.
func (l Location) Shared() bool { return l.Tenant == "" }

// Index is an immutable logical-key to Location mapping.
type Index struct {
	root        string
	maxFileSize int64
	keys        []string
	entries     map[string]Location
	tenants     []string
}

// Option configures Build.
type Option func(*buildConfig)

type buildConfig struct {
	logger      logging.Logger
	maxFileSize int64
}

// WithLogger sets the logger used while scanning.
func WithLogger(l logging.Logger) Option {
	return func(c *buildConfig) { c.logger = logging.OrNop(l) }
}

// WithMaxFileSize caps the size of files Load will read. Non-positive values
// keep DefaultMaxFileSize.
func WithMaxFileSize(n int64) Option {
	return func(c *buildConfig) {
		if n > 0 {
			c.maxFileSize = n
		}
	}
}

// Build scans root and returns the index. A missing or unreadable root is a
// *racerrors.ConfigError; missing layer directories are skipped.
func Build(root string, opts ...Option) (*Index, error) {
	cfg := buildConfig{logger: logging.NopLogger{}, maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, &racerrors.ConfigError{Option: "data.dir", Value: root, Message: "corpus root not accessible", Cause: err}
	}
	if !info.IsDir() {
		return nil, &racerrors.ConfigError{Option: "data.dir", Value: root, Message: "corpus root is not a directory"}
	}

	idx := &Index{
		root:        root,
		maxFileSize: cfg.maxFileSize,
		entries:     make(map[string]Location),
	}

	for _, l := range layer.All() {
		if err := idx.scanLayer(filepath.Join(root, string(l)), l, "", cfg.logger); err != nil {
			return nil, err
		}
	}

	slugs, err := listDirs(filepath.Join(root, TenantsDir))
	if err != nil {
		return nil, fmt.Errorf("index: reading tenants: %w", err)
	}
	for _, slug := range slugs {
		idx.tenants = append(idx.tenants, slug)
		for _, l := range layer.All() {
			if !l.Overridable() {
				continue
			}
			dir := filepath.Join(root, TenantsDir, slug, string(l))
			if err := idx.scanLayer(dir, l, slug, cfg.logger); err != nil {
				return nil, err
			}
		}
	}

	cfg.logger.Debug("index built", "root", root, "keys", len(idx.keys), "tenants", len(idx.tenants))
	return idx, nil
}

func (idx *Index) scanLayer(dir string, l layer.Layer, tenant string, logger logging.Logger) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("index: reading %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := fileNameRe.FindStringSubmatch(e.Name())
		if m == nil {
			logger.Debug("skipping file outside naming convention", "file", e.Name(), "layer", l)
			continue
		}
		fullID := m[1]
		loc := Location{
			Path:   filepath.Join(dir, e.Name()),
			Layer:  l,
			FullID: fullID,
			Tenant: tenant,
		}
		if short, ok := layer.ShortName(fullID); ok {
			loc.ShortName = short
		}
		idx.add(loc, logger)
	}
	return nil
}

func (idx *Index) add(loc Location, logger logging.Logger) {
	fullKey := loc.FullID
	shortKey := ""
	if loc.ShortName != "" {
		shortKey = string(loc.Layer) + ":" + loc.ShortName
	}
	if loc.Tenant != "" {
		prefix := tenantKeyPrefix + loc.Tenant + ":"
		fullKey = prefix + fullKey
		if shortKey != "" {
			shortKey = prefix + shortKey
		}
	}

	if prev, dup := idx.entries[fullKey]; dup {
		logger.Debug("duplicate full id, later file wins", "key", fullKey, "previous", prev.Path, "path", loc.Path)
	} else {
		idx.keys = append(idx.keys, fullKey)
	}
	idx.entries[fullKey] = loc

	if shortKey == "" {
		return
	}
	if _, taken := idx.entries[shortKey]; taken {
		return
	}
	idx.keys = append(idx.keys, shortKey)
	idx.entries[shortKey] = loc
}

func listDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// Root returns the corpus root the index was built from.
func (idx *Index) Root() string { return idx.root }

// Len returns the number of keys.
func (idx *Index) Len() int { return len(idx.keys) }

// Keys returns every key in insertion order.
func (idx *Index) Keys() []string {
	cp := make([]string, len(idx.keys))
	copy(cp, idx.keys)
	return cp
}

// Get returns the location stored under an exact key.
func (idx *Index) Get(key string) (Location, bool) {
	loc, ok := idx.entries[key]
	return loc, ok
}

// Range calls fn for each key in insertion order until fn returns false.
func (idx *Index) Range(fn func(key string, loc Location) bool) {
	for _, k := range idx.keys {
		if !fn(k, idx.entries[k]) {
			return
		}
	}
}

// Tenants returns the tenant slugs that have an override folder.
func (idx *Index) Tenants() []string {
	cp := make([]string, len(idx.tenants))
	copy(cp, idx.tenants)
	return cp
}

// Locations returns each distinct physical file once, in scan order.
func (idx *Index) Locations() []Location {
	seen := make(map[string]bool, len(idx.keys))
	var out []Location
	idx.Range(func(_ string, loc Location) bool {
		if !seen[loc.Path] {
			seen[loc.Path] = true
			out = append(out, loc)
		}
		return true
	})
	return out
}

// FindByLayerAndShortName finds a shared document by layer and short name.
//
// The exact LAYER:NAME key is tried first, then the first shared key in the
// layer that ends in _{shortName}. CONFIG is a layer-wide singleton: when
// nothing else matches, the first CONFIG_ key is returned whatever the id.
func (idx *Index) FindByLayerAndShortName(l layer.Layer, shortName string) (Location, bool) {
	if loc, ok := idx.entries[string(l)+":"+shortName]; ok {
		return loc, true
	}

	suffix := "_" + shortName
	for _, k := range idx.keys {
		loc := idx.entries[k]
		if loc.Shared() && loc.Layer == l && strings.HasSuffix(k, suffix) {
			return loc, true
		}
	}

	if l == layer.Config {
		for _, k := range idx.keys {
			loc := idx.entries[k]
			if loc.Shared() && strings.HasPrefix(k, "CONFIG_") {
				return loc, true
			}
		}
	}
	return Location{}, false
}

// FindByFullID finds a shared document by full id, falling back to the first
// shared key containing id. The search is corpus-global: it is not scoped to
// a layer.
func (idx *Index) FindByFullID(id string) (Location, bool) {
	if id == "" {
		return Location{}, false
	}
	if loc, ok := idx.entries[id]; ok && loc.Shared() {
		return loc, true
	}
	for _, k := range idx.keys {
		loc := idx.entries[k]
		if loc.Shared() && strings.Contains(k, id) {
			return loc, true
		}
	}
	return Location{}, false
}

// FindForTenant finds the document answering (layer, shortName) for a
// tenant. In overridable layers a tenant override always wins over the shared
// document: the exact tenant key is tried first, then any tenant file of
// the layer whose short name matches after folding case and separators.
// Otherwise the lookup falls through to FindByLayerAndShortName.
func (idx *Index) FindForTenant(l layer.Layer, shortName, tenant string) (Location, bool) {
	if tenant != "" && l.Overridable() {
		if loc, ok := idx.FindTenantOverride(l, shortName, tenant); ok {
			return loc, true
		}
	}
	return idx.FindByLayerAndShortName(l, shortName)
}

// FindTenantOverride returns the tenant's own document for (layer,
// shortName) without falling back to shared documents.
func (idx *Index) FindTenantOverride(l layer.Layer, shortName, tenant string) (Location, bool) {
	prefix := tenantKeyPrefix + tenant + ":"
	if loc, ok := idx.entries[prefix+string(l)+":"+shortName]; ok {
		return loc, true
	}

	want := naming.Fold(shortName)
	suffix := "_" + shortName
	for _, k := range idx.keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		loc := idx.entries[k]
		if loc.Layer != l {
			continue
		}
		if strings.HasSuffix(loc.FullID, suffix) || loc.FullID == shortName {
			return loc, true
		}
		if loc.ShortName != "" && naming.Fold(loc.ShortName) == want {
			return loc, true
		}
	}
	return Location{}, false
}

// FindTenantKeyContaining returns the first tenant file whose key contains
// part.
func (idx *Index) FindTenantKeyContaining(tenant, part string) (Location, bool) {
	prefix := tenantKeyPrefix + tenant + ":"
	for _, k := range idx.keys {
		if strings.HasPrefix(k, prefix) && strings.Contains(k[len(prefix):], part) {
			return idx.entries[k], true
		}
	}
	return Location{}, false
}

// ShortNames returns the sorted distinct short names of shared documents
// in a layer.
func (idx *Index) ShortNames(l layer.Layer) []string {
	return idx.shortNames(l, "")
}

// TenantShortNames returns the sorted distinct short names of a tenant's
// override documents in a layer.
func (idx *Index) TenantShortNames(l layer.Layer, tenant string) []string {
	if tenant == "" {
		return nil
	}
	return idx.shortNames(l, tenant)
}

func (idx *Index) shortNames(l layer.Layer, tenant string) []string {
	seen := make(map[string]bool)
	var out []string
	idx.Range(func(_ string, loc Location) bool {
		if loc.Layer != l || loc.Tenant != tenant {
			return true
		}
		name := loc.ShortName
		if name == "" {
			name = strings.TrimPrefix(loc.FullID, string(l)+"_")
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
		return true
	})
	sort.Strings(out)
	return out
}

// FindLayerOf returns the first layer other than exclude holding a shared
// document whose full id contains id (compared upper-case).
func (idx *Index) FindLayerOf(id string, exclude layer.Layer) (layer.Layer, bool) {
	want := naming.UpperID(id)
	if want == "" {
		return "", false
	}
	for _, l := range layer.All() {
		if l == exclude {
			continue
		}
		for _, k := range idx.keys {
			loc := idx.entries[k]
			if loc.Shared() && loc.Layer == l && strings.Contains(naming.UpperID(loc.FullID), want) {
				return l, true
			}
		}
	}
	return "", false
}
