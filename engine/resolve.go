package engine

import (
	"context"
	"time"

	"github.com/aiopener/rac/document"
	"github.com/aiopener/rac/index"
	"github.com/aiopener/rac/layer"
	"github.com/aiopener/rac/racerrors"
	"github.com/aiopener/rac/resolver"
	"github.com/aiopener/rac/section"
)

// MetaKey is the top-level bookkeeping block removed from responses.
const MetaKey = "meta"

// Result is a resolved query.
type Result struct {
	Query Query
	// FileID is the short name the file was found under. It differs from
	// Query.FileID when a full id was corrected or a role remapped.
	FileID   string
	Location index.Location
	Content  document.Value
	Client   *ClientDocument
	Report   resolver.Report
	// Bases lists the extends chain applied, nearest first
	Bases []index.Location
}

// ClientDocument is a client document attached to a result.
type ClientDocument struct {
	// ID is the tenant slug or client id the document was selected by
	ID       string
	Location index.Location
	Content  document.Value
}

// Resolve runs the full pipeline for q.
func (e *Engine) Resolve(ctx context.Context, q Query) (*Result, error) {
	start := time.Now()
	res, err := e.resolve(ctx, q)
	if e.observer != nil {
		var report resolver.Report
		if res != nil {
			report = res.Report
		}
		e.observer.ObserveResolution(q.Layer, Code(err), time.Since(start), report)
	}
	if err != nil {
		e.logger.Debug("query failed", "path", q.Path, "layer", q.Layer, "file", q.FileID, "tenant", q.Tenant, "error", err)
		return nil, err
	}
	return res, nil
}

func (e *Engine) resolve(ctx context.Context, q Query) (*Result, error) {
	if _, ok := layer.Parse(q.Layer.String()); !ok {
		return nil, &racerrors.NotFoundError{Layer: q.Layer.String(), ID: q.FileID, Hint: "unknown layer"}
	}

	idx, err := e.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	tr := e.tenants(idx)

	fileID := q.FileID
	if q.Tenant != "" {
		if err := e.bindings.Check(q.Tenant); err != nil {
			return nil, err
		}
		switch q.Layer {
		case layer.Role:
			fileID = tr.RemapRole(q.Tenant, fileID)
		case layer.Client:
			if err := tr.CheckClientAccess(q.Tenant, fileID); err != nil {
				return nil, err
			}
		}
	} else if q.Layer.AttachesClient() && q.ClientID == "" {
		return nil, &ClientRequiredError{Layer: q.Layer.String(), Available: tr.AvailableClients()}
	}

	loc, fileID, found := e.locate(idx, q.Layer, fileID, q.Tenant)
	if !found {
		s := Suggest(idx, q.Layer, fileID)
		return nil, &racerrors.NotFoundError{
			Layer:       q.Layer.String(),
			ID:          fileID,
			Suggestions: s.Similar,
			Hint:        s.Hint,
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := idx.Load(loc)
	if err != nil {
		return nil, err
	}

	doc, bases := e.merger(idx).ApplyInheritanceDetailed(doc, q.Layer)
	doc, report := e.resolver(idx).ResolveWithReport(doc)
	doc = doc.Without(MetaKey)

	if q.Section != "" {
		doc, err = section.Extract(doc, q.Section)
		if err != nil {
			return nil, err
		}
	}

	res := &Result{
		Query:    q,
		FileID:   fileID,
		Location: loc,
		Content:  doc,
		Report:   report,
		Bases:    bases,
	}
	if q.IncludeClient && q.Layer.AttachesClient() {
		res.Client = e.attachClient(idx, q)
	}
	return res, nil
}

// locate finds the file for (l, fileID), retrying with the short name when
// a full LAYER_NN_NAME id misses.
func (e *Engine) locate(idx *index.Index, l layer.Layer, fileID, slug string) (index.Location, string, bool) {
	find := func(id string) (index.Location, bool) {
		if slug != "" {
			return idx.FindForTenant(l, id, slug)
		}
		return idx.FindByLayerAndShortName(l, id)
	}
	if fileID == "" {
		return index.Location{}, fileID, false
	}
	if loc, ok := find(fileID); ok {
		return loc, fileID, true
	}
	if short, ok := layer.ShortName(fileID); ok {
		if loc, ok := find(short); ok {
			return loc, short, true
		}
	}
	return index.Location{}, fileID, false
}

func (e *Engine) attachClient(idx *index.Index, q Query) *ClientDocument {
	tr := e.tenants(idx)
	var (
		loc   index.Location
		found bool
		id    string
	)
	if q.Tenant != "" {
		id = q.Tenant
		loc, found = tr.FindClientDocument(q.Tenant)
	} else {
		id = q.ClientID
		loc, found = tr.FindClientByID(q.ClientID)
	}
	if !found {
		e.logger.Debug("no client document to attach", "tenant", q.Tenant, "client_id", q.ClientID)
		return nil
	}
	doc, err := idx.Load(loc)
	if err != nil {
		e.logger.Warn("client document not loadable", "path", loc.Path, "error", err)
		return nil
	}
	doc = e.resolver(idx).Resolve(doc).Without(MetaKey)
	return &ClientDocument{ID: id, Location: loc, Content: doc}
}

// ResolveClientDocument returns the client document for a tenant slug or,
// when key is not a bound slug, for a client id.
func (e *Engine) ResolveClientDocument(ctx context.Context, key string) (*ClientDocument, error) {
	idx, err := e.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	q := Query{Layer: layer.Client, ClientID: key}
	if e.bindings.Known(key) {
		q = Query{Layer: layer.Client, Tenant: key}
	}
	doc := e.attachClient(idx, q)
	if doc == nil {
		return nil, &racerrors.NotFoundError{Layer: layer.Client.String(), ID: key, Hint: "no client document"}
	}
	return doc, nil
}
