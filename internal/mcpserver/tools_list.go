package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aiopener/rac/engine"
	"github.com/aiopener/rac/internal/naming"
	"github.com/aiopener/rac/layer"
)

type listPathsInput struct {
	Client string `json:"client"           jsonschema:"Tenant slug from list_clients"`
	Layer  string `json:"layer,omitempty"  jsonschema:"Only list paths of this layer"`
	Offset int    `json:"offset,omitempty" jsonschema:"Skip the first N paths"`
	Limit  int    `json:"limit,omitempty"  jsonschema:"Maximum number of paths to return"`
}

type pathEntry struct {
	Path     string   `json:"path"`
	Sections []string `json:"sections,omitempty"`
	// Override is set when the tenant's own document answers the path
	Override bool `json:"override,omitempty"`
}

type listPathsOutput struct {
	Client    string      `json:"client"`
	Total     int         `json:"total"`
	Returned  int         `json:"returned"`
	Paths     []pathEntry `json:"paths,omitempty"`
	UsageHint string      `json:"usage_hint"`
}

func (s *Server) handleListPaths(ctx context.Context, _ *mcp.CallToolRequest, input listPathsInput) (*mcp.CallToolResult, listPathsOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	slug := naming.Slug(input.Client)
	var only layer.Layer
	if input.Layer != "" {
		l, ok := layer.Parse(naming.UpperID(input.Layer))
		if !ok {
			return errResult(fmt.Errorf("unknown layer %q", input.Layer)), listPathsOutput{}, nil
		}
		only = l
	}

	listing, err := s.engine.ListForTenant(ctx, slug)
	if err != nil {
		return errResult(err), listPathsOutput{}, nil
	}

	overrides := make(map[string]bool)
	for _, ll := range listing.Layers {
		for _, name := range ll.ClientSpecific {
			overrides[ll.Layer.String()+"/"+name] = true
		}
	}

	var all []pathEntry
	for _, p := range listing.AllPaths {
		if only != "" && !strings.HasPrefix(p, only.String()+"/") {
			continue
		}
		all = append(all, pathEntry{Path: p, Sections: listing.Files[p], Override: overrides[p]})
	}
	page := paginate(s.cfg, all, input.Offset, input.Limit)

	return nil, listPathsOutput{
		Client:    listing.Tenant,
		Total:     len(all),
		Returned:  len(page),
		Paths:     page,
		UsageHint: engine.UsageHint,
	}, nil
}

type listClientsInput struct{}

type clientEntry struct {
	Slug         string   `json:"slug"`
	ClientFileID string   `json:"client_file_id"`
	Grants       []string `json:"grants,omitempty"`
}

type listClientsOutput struct {
	Clients   []clientEntry `json:"clients"`
	ClientIDs []string      `json:"client_ids,omitempty"`
}

func (s *Server) handleListClients(ctx context.Context, _ *mcp.CallToolRequest, _ listClientsInput) (*mcp.CallToolResult, listClientsOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	b := s.engine.Bindings()
	var out listClientsOutput
	for _, slug := range b.Slugs() {
		id, _ := b.ClientFileID(slug)
		out.Clients = append(out.Clients, clientEntry{Slug: slug, ClientFileID: id, Grants: b.Grants[slug]})
	}

	ids, err := s.engine.AvailableClients(ctx)
	if err != nil {
		return errResult(err), listClientsOutput{}, nil
	}
	out.ClientIDs = ids
	return nil, out, nil
}
