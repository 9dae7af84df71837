// Package tenant maps tenant slugs to their client documents and enforces
// which client documents a tenant may read.
//
// Bindings are static: each tenant slug names its own client file id, an
// optional list of granted client ids, and an optional table of legacy role
// names to their current names.
package tenant

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/aiopener/rac/racerrors"
)

// Bindings is the static tenant table.
type Bindings struct {
	// ClientFiles maps a slug to its client file id, e.g. uhu: CLIENT_05_UHU
	ClientFiles map[string]string `yaml:"clients" json:"clients"`
	// Grants maps a slug to client ids it may also read
	Grants map[string][]string `yaml:"grants,omitempty" json:"grants,omitempty"`
	// RoleRemap maps a slug to legacy role name -> current role name
	RoleRemap map[string]map[string]string `yaml:"role_remap,omitempty" json:"role_remap,omitempty"`
}

// DefaultBindings returns the built-in tenant table.
func DefaultBindings() *Bindings {
	return &Bindings{
		ClientFiles: map[string]string{
			"uhu":      "CLIENT_05_UHU",
			"demo":     "CLIENT_01_DEMO_CLIENT",
			"fixico":   "CLIENT_01_FIXICO",
			"msn":      "CLIENT_01_MSN",
			"reducate": "CLIENT_02_PO_ONLINE",
			"aaa":      "CLIENT_01_AAA",
			"prorail":  "CLIENT_01_PRORAIL",
		},
		Grants: map[string][]string{
			"uhu":      {"PRORAIL"},
			"reducate": {"CME-ONLINE", "PO_ONLINE"},
		},
		RoleRemap: map[string]map[string]string{
			"uhu": {
				"STRATEGIST": "EMPLOYER_BRAND_STRATEGIST",
				"TRAFFIC":    "MEDIA_DISTRIBUTION_STRATEGIST",
			},
		},
	}
}

// ParseBindings decodes a YAML tenant table. Slugs are lower-cased.
func ParseBindings(data []byte) (*Bindings, error) {
	var b Bindings
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, &racerrors.ConfigError{Option: "data.tenants_file", Message: "invalid tenant bindings", Cause: err}
	}
	if len(b.ClientFiles) == 0 {
		return nil, &racerrors.ConfigError{Option: "data.tenants_file", Message: "no clients bound"}
	}
	b.normalize()
	return &b, nil
}

// LoadBindings reads a tenant table from a YAML file.
func LoadBindings(path string) (*Bindings, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
	if err != nil {
		return nil, &racerrors.ConfigError{Option: "data.tenants_file", Value: path, Message: "cannot read tenant bindings", Cause: err}
	}
	b, err := ParseBindings(data)
	if err != nil {
		return nil, fmt.Errorf("tenant: %s: %w", path, err)
	}
	return b, nil
}

func (b *Bindings) normalize() {
	b.ClientFiles = lowerKeys(b.ClientFiles)
	if b.Grants != nil {
		g := make(map[string][]string, len(b.Grants))
		for k, v := range b.Grants {
			// an empty grant would match every id
			kept := make([]string, 0, len(v))
			for _, id := range v {
				if strings.TrimSpace(id) != "" {
					kept = append(kept, id)
				}
			}
			g[strings.ToLower(k)] = kept
		}
		b.Grants = g
	}
	if b.RoleRemap != nil {
		r := make(map[string]map[string]string, len(b.RoleRemap))
		for k, v := range b.RoleRemap {
			r[strings.ToLower(k)] = v
		}
		b.RoleRemap = r
	}
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}

// Known reports whether slug is bound.
func (b *Bindings) Known(slug string) bool {
	_, ok := b.ClientFiles[slug]
	return ok
}

// Slugs returns the bound slugs, sorted.
func (b *Bindings) Slugs() []string {
	out := make([]string, 0, len(b.ClientFiles))
	for s := range b.ClientFiles {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// ClientFileID returns the client file id bound to slug.
func (b *Bindings) ClientFileID(slug string) (string, bool) {
	id, ok := b.ClientFiles[slug]
	return id, ok
}

// Check returns a *racerrors.UnknownTenantError for unbound slugs.
func (b *Bindings) Check(slug string) error {
	if b.Known(slug) {
		return nil
	}
	return &racerrors.UnknownTenantError{Slug: slug, Known: b.Slugs()}
}
