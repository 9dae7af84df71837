// Package rac resolves addressable context from a layered YAML corpus.
//
// A corpus is a directory tree with one folder per layer (CONFIG, CLIENT,
// LOGIC, OPS, ORG, PACK, ROLE, USE_CASE, WORKFLOW, LIBRARY) and an optional
// tenants/{slug}/ tree of tenant overrides. Each file is addressed as
// LAYER/NAME, where NAME is the part of its LAYER_NN_NAME id after the
// number, and a query may narrow to a section with further segments:
//
//	USE_CASE/COPYWRITER/prohibitions
//
// # Packages
//
//   - document: the YAML value tree
//   - index: corpus scanning, lookups and the shared index cache
//   - merger: extends inheritance
//   - resolver: $ref:FILE_ID#path pointers
//   - section: dot and bracket section paths
//   - tenant: tenant bindings, client access and role remapping
//   - engine: the full query pipeline, listings and raw reads
//   - config: server and CLI configuration
//
// The rac command serves the engine over HTTP (rac serve) and MCP stdio
// (rac mcp), and answers one-off queries from the shell.
//
// # Quick Start
//
//	store := index.NewStore("data")
//	e := engine.New(store, engine.WithBindings(tenant.DefaultBindings()))
//	q, err := engine.ParsePath("USE_CASE/COPYWRITER/prohibitions")
//	if err != nil {
//		return err
//	}
//	q.Tenant = "uhu"
//	res, err := e.Resolve(ctx, q)
//
// # Errors
//
// Failures are typed errors from racerrors with sentinels for errors.Is;
// engine.Code maps them to the wire codes used by the HTTP and MCP surfaces.
package rac
