package mcpserver

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aiopener/rac/engine"
)

type resolveInput struct {
	Path          string `json:"path"                     jsonschema:"LAYER/FILE or LAYER/FILE/SECTION, e.g. USE_CASE/COPYWRITER/prohibitions"`
	Client        string `json:"client,omitempty"         jsonschema:"Tenant slug from list_clients; enables overrides, access control and role remapping"`
	ClientID      string `json:"client_id,omitempty"      jsonschema:"Client id for tenantless queries on layers that carry client context"`
	IncludeClient *bool  `json:"include_client,omitempty" jsonschema:"Attach the client document (default true)"`
	Format        string `json:"format,omitempty"         jsonschema:"Content encoding: yaml or json"`
}

type resolveOutput struct {
	Path   string `json:"path"`
	Layer  string `json:"layer"`
	FileID string `json:"file_id"`
	// Section is the dot path that was extracted, if any
	Section        string   `json:"section,omitempty"`
	Client         string   `json:"client,omitempty"`
	Format         string   `json:"format"`
	Content        string   `json:"content"`
	ClientDocument string   `json:"client_document,omitempty"`
	ClientDocID    string   `json:"client_document_id,omitempty"`
	Extends        []string `json:"extends,omitempty"`
	UnresolvedRefs []string `json:"unresolved_refs,omitempty"`
}

func (s *Server) handleResolveContext(ctx context.Context, _ *mcp.CallToolRequest, input resolveInput) (*mcp.CallToolResult, resolveOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	q, err := engine.ParsePath(input.Path)
	if err != nil {
		return errResult(err), resolveOutput{}, nil
	}
	q.Tenant = strings.ToLower(strings.TrimSpace(input.Client))
	q.ClientID = strings.TrimSpace(input.ClientID)
	q.IncludeClient = s.cfg.IncludeClient
	if input.IncludeClient != nil {
		q.IncludeClient = *input.IncludeClient
	}

	res, err := s.engine.Resolve(ctx, q)
	if err != nil {
		s.logger.Debug("resolve_context failed", "path", input.Path, "client", q.Tenant, "error", err)
		return errResult(err), resolveOutput{}, nil
	}

	content, format, err := s.render(res.Content, input.Format)
	if err != nil {
		return errResult(err), resolveOutput{}, nil
	}
	out := resolveOutput{
		Path:           q.CanonicalPath(),
		Layer:          q.Layer.String(),
		FileID:         res.FileID,
		Section:        q.Section,
		Client:         q.Tenant,
		Format:         format,
		Content:        content,
		UnresolvedRefs: res.Report.Unresolved,
	}
	for _, b := range res.Bases {
		out.Extends = append(out.Extends, b.FullID)
	}
	if res.Client != nil {
		doc, _, err := s.render(res.Client.Content, format)
		if err != nil {
			return errResult(err), resolveOutput{}, nil
		}
		out.ClientDocument = doc
		out.ClientDocID = res.Client.ID
	}
	return nil, out, nil
}
