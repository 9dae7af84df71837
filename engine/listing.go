package engine

import (
	"context"
	"sort"

	"github.com/aiopener/rac/index"
	"github.com/aiopener/rac/layer"
	"github.com/aiopener/rac/merger"
	"github.com/aiopener/rac/section"
)

// UsageHint accompanies every tenant listing.
const UsageHint = "Most tasks only need a single section. Use LAYER/FILE/SECTION " +
	"(e.g., OPS/COPYWRITING_PLAYBOOK/hooks) instead of loading entire files to reduce context and improve accuracy."

// LayerListing is the files of one layer visible to a tenant.
type LayerListing struct {
	Layer          layer.Layer `json:"layer"`
	Shared         []string    `json:"shared"`
	ClientSpecific []string    `json:"client_specific"`
}

// Listing is everything a tenant can address.
type Listing struct {
	Tenant string         `json:"client"`
	Layers []LayerListing `json:"layers"`
	// Files maps LAYER/NAME to the file's top-level sections
	Files map[string][]string `json:"files"`
	// AllPaths holds every addressable LAYER/NAME, sorted
	AllPaths  []string `json:"all_paths"`
	UsageHint string   `json:"usage_hint"`
}

// ListForTenant lists the files a tenant can query. Shared CLIENT files are
// limited to the tenant's allowed client ids; a tenant override hides the
// shared file of the same name.
func (e *Engine) ListForTenant(ctx context.Context, slug string) (*Listing, error) {
	if err := e.bindings.Check(slug); err != nil {
		return nil, err
	}
	idx, err := e.store.Get(ctx)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool)
	for _, id := range e.tenants(idx).AllowedClientIDs(slug) {
		allowed[id] = true
	}

	out := &Listing{Tenant: slug, Files: make(map[string][]string), UsageHint: UsageHint}
	for _, l := range layer.All() {
		shared := idx.ShortNames(l)
		if l == layer.Client {
			shared = filterAllowed(shared, allowed)
		}
		own := idx.TenantShortNames(l, slug)
		if len(shared) == 0 && len(own) == 0 {
			continue
		}
		out.Layers = append(out.Layers, LayerListing{Layer: l, Shared: shared, ClientSpecific: own})

		overridden := make(map[string]bool, len(own))
		for _, name := range own {
			overridden[name] = true
			if loc, ok := idx.FindTenantOverride(l, name, slug); ok {
				e.addListed(idx, out, l, name, loc)
			}
		}
		for _, name := range shared {
			if overridden[name] {
				continue
			}
			if loc, ok := idx.FindByLayerAndShortName(l, name); ok {
				e.addListed(idx, out, l, name, loc)
			}
		}
	}
	sort.Strings(out.AllPaths)
	return out, nil
}

func (e *Engine) addListed(idx *index.Index, out *Listing, l layer.Layer, name string, loc index.Location) {
	path := l.String() + "/" + name
	out.AllPaths = append(out.AllPaths, path)
	doc, err := idx.Load(loc)
	if err != nil {
		e.logger.Warn("listing skipped sections of unreadable file", "path", loc.Path, "error", err)
		return
	}
	if sections := section.TopLevel(doc, MetaKey, merger.ExtendsKey); len(sections) > 0 {
		out.Files[path] = sections
	}
}

func filterAllowed(names []string, allowed map[string]bool) []string {
	var out []string
	for _, n := range names {
		if allowed[n] {
			out = append(out, n)
		}
	}
	return out
}
