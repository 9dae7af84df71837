// Package engine answers context queries against a document corpus.
//
// A query names a layer, a file and an optional section:
//
//	USE_CASE/COPYWRITER/prohibitions
//
// Resolution locates the file (preferring the tenant's override where the
// layer allows it), applies inheritance, resolves $ref pointers, removes the
// top-level meta block and extracts the section. Layers that carry client
// context get the tenant's client document attached.
//
// The engine is safe for concurrent use. The file index is built on first
// use and shared by all requests.
package engine

import (
	"context"
	"time"

	"github.com/aiopener/rac/index"
	"github.com/aiopener/rac/layer"
	"github.com/aiopener/rac/logging"
	"github.com/aiopener/rac/merger"
	"github.com/aiopener/rac/resolver"
	"github.com/aiopener/rac/tenant"
)

// Observer receives one call per resolved query.
type Observer interface {
	ObserveResolution(l layer.Layer, code string, elapsed time.Duration, report resolver.Report)
}

// Engine resolves queries.
type Engine struct {
	store    *index.Store
	bindings *tenant.Bindings
	logger   logging.Logger
	maxDepth int
	observer Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger passed to every pipeline stage.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.logger = logging.OrNop(l) }
}

// WithBindings sets the tenant table. The default is tenant.DefaultBindings.
func WithBindings(b *tenant.Bindings) Option {
	return func(e *Engine) {
		if b != nil {
			e.bindings = b
		}
	}
}

// WithMaxDepth caps both extends chains and reference nesting.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// WithObserver registers an Observer, typically a metrics collector.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// New returns an Engine over store.
func New(store *index.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		bindings: tenant.DefaultBindings(),
		logger:   logging.NopLogger{},
		maxDepth: resolver.MaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Index returns the file index, building it on first use.
func (e *Engine) Index(ctx context.Context) (*index.Index, error) {
	return e.store.Get(ctx)
}

// Bindings returns the tenant table.
func (e *Engine) Bindings() *tenant.Bindings { return e.bindings }

// RequiresClient reports whether queries on l carry client context.
func RequiresClient(l layer.Layer) bool { return l.AttachesClient() }

func (e *Engine) tenants(idx *index.Index) *tenant.Resolver {
	return tenant.NewResolver(idx, e.bindings, tenant.WithLogger(e.logger))
}

func (e *Engine) merger(idx *index.Index) *merger.Merger {
	return merger.New(idx, merger.WithLogger(e.logger), merger.WithMaxDepth(e.maxDepth))
}

func (e *Engine) resolver(idx *index.Index) *resolver.Resolver {
	return resolver.New(idx, resolver.WithLogger(e.logger), resolver.WithMaxDepth(e.maxDepth))
}

// AvailableClients lists the client ids of every non-template client
// document.
func (e *Engine) AvailableClients(ctx context.Context) ([]string, error) {
	idx, err := e.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	return e.tenants(idx).AvailableClients(), nil
}
