package tenant

import (
	"strings"

	"github.com/aiopener/rac/index"
	"github.com/aiopener/rac/internal/naming"
	"github.com/aiopener/rac/layer"
	"github.com/aiopener/rac/logging"
	"github.com/aiopener/rac/racerrors"
)

// BaseTemplate is the shared client template every tenant may read.
const BaseTemplate = "BASE_TEMPLATE"

// Resolver answers tenant-aware lookups over an index.
type Resolver struct {
	idx      *index.Index
	bindings *Bindings
	logger   logging.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Resolver) { r.logger = logging.OrNop(l) }
}

// NewResolver returns a Resolver. Nil bindings select DefaultBindings.
func NewResolver(idx *index.Index, b *Bindings, opts ...Option) *Resolver {
	if b == nil {
		b = DefaultBindings()
	}
	r := &Resolver{idx: idx, bindings: b, logger: logging.NopLogger{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bindings returns the tenant table.
func (r *Resolver) Bindings() *Bindings { return r.bindings }

// OwnClientID returns the client id bound to slug, without its CLIENT_NN_
// prefix.
func (r *Resolver) OwnClientID(slug string) string {
	id, _ := r.bindings.ClientFileID(slug)
	return naming.UpperID(layer.TrimClientPrefix(id))
}

// GrantSet returns the upper-cased client ids granted to slug.
func (r *Resolver) GrantSet(slug string) []string {
	grants := r.bindings.Grants[slug]
	out := make([]string, 0, len(grants))
	for _, g := range grants {
		out = append(out, naming.UpperID(g))
	}
	return out
}

// AllowedClientIDs returns every client id slug may read: its own, the
// shared template and its grants. Duplicates are dropped.
func (r *Resolver) AllowedClientIDs(slug string) []string {
	var allowed []string
	seen := make(map[string]bool)
	for _, id := range append([]string{r.OwnClientID(slug), BaseTemplate}, r.GrantSet(slug)...) {
		if id != "" && !seen[id] {
			seen[id] = true
			allowed = append(allowed, id)
		}
	}
	return allowed
}

// CheckClientAccess decides whether slug may read CLIENT/requestedID. The
// own id, any id containing BASE_TEMPLATE and any id containing a granted id
// are allowed; everything else fails with a *racerrors.AccessDeniedError.
// A full file id such as CLIENT_05_UHU is compared by its short name.
func (r *Resolver) CheckClientAccess(slug, requestedID string) error {
	requested := naming.UpperID(requestedID)
	short := layer.TrimClientPrefix(requested)
	own := r.OwnClientID(slug)
	grants := r.GrantSet(slug)

	if short == own || strings.Contains(requested, BaseTemplate) {
		return nil
	}
	for _, g := range grants {
		if strings.Contains(requested, g) {
			return nil
		}
	}

	allowed := r.AllowedClientIDs(slug)
	hint := "You can only access CLIENT/" + own + ", CLIENT/" + BaseTemplate
	if len(grants) > 0 {
		hint += ", or granted sub-clients: " + strings.Join(grants, ", ")
	}

	normReq := naming.StripSeparators(requested)
	var similar []string
	for _, a := range allowed {
		normA := naming.StripSeparators(a)
		if normReq != "" && (strings.Contains(normA, normReq) || strings.Contains(normReq, normA)) {
			similar = append(similar, a)
		}
	}

	err := &racerrors.AccessDeniedError{
		Slug:      slug,
		Requested: requested,
		Allowed:   allowed,
		Hint:      hint,
	}
	if len(similar) > 0 {
		err.DidYouMean = similar
	}
	r.logger.Info("client access denied", "tenant", slug, "requested", requested)
	return err
}

// RemapRole returns the current role name for a legacy one, or id
// unchanged.
func (r *Resolver) RemapRole(slug, id string) string {
	if to, ok := r.bindings.RoleRemap[slug][naming.UpperID(id)]; ok {
		return to
	}
	return id
}

// Find returns the document answering (l, shortName) for slug, preferring
// the tenant's override.
func (r *Resolver) Find(l layer.Layer, shortName, slug string) (index.Location, bool) {
	return r.idx.FindForTenant(l, shortName, slug)
}

// FindClientDocument returns the client document bound to slug, looked up
// in the tenant folder first and the shared corpus second.
func (r *Resolver) FindClientDocument(slug string) (index.Location, bool) {
	fileID, ok := r.bindings.ClientFileID(slug)
	if !ok {
		return index.Location{}, false
	}
	if loc, ok := r.idx.FindTenantKeyContaining(slug, fileID); ok {
		return loc, true
	}
	return r.idx.FindByFullID(fileID)
}

// FindClientByID returns the CLIENT document whose meta.client_id equals
// clientID, else the first CLIENT document whose id contains it. The shared
// template never matches.
func (r *Resolver) FindClientByID(clientID string) (index.Location, bool) {
	if clientID == "" {
		return index.Location{}, false
	}
	candidates := r.clientLocations()
	for _, loc := range candidates {
		if id, ok := r.metaClientID(loc); ok && id == clientID {
			return loc, true
		}
	}
	want := naming.UpperID(clientID)
	for _, loc := range candidates {
		if strings.Contains(loc.FullID, want) {
			return loc, true
		}
	}
	return index.Location{}, false
}

// AvailableClients lists meta.client_id of every client document except the
// shared template, in scan order.
func (r *Resolver) AvailableClients() []string {
	var out []string
	seen := make(map[string]bool)
	for _, loc := range r.clientLocations() {
		if id, ok := r.metaClientID(loc); ok && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (r *Resolver) clientLocations() []index.Location {
	var out []index.Location
	for _, loc := range r.idx.Locations() {
		if loc.Layer == layer.Client && !strings.Contains(loc.FullID, BaseTemplate) {
			out = append(out, loc)
		}
	}
	return out
}

func (r *Resolver) metaClientID(loc index.Location) (string, bool) {
	doc, err := r.idx.Load(loc)
	if err != nil {
		r.logger.Warn("skipping unreadable client document", "path", loc.Path, "error", err)
		return "", false
	}
	meta, _ := doc.Get("meta")
	v, ok := meta.Get("client_id")
	if !ok {
		return "", false
	}
	s, ok := v.AsString()
	return s, ok && s != ""
}
