// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes the context engine as MCP tools over stdio.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aiopener/rac"
	"github.com/aiopener/rac/document"
	"github.com/aiopener/rac/engine"
	"github.com/aiopener/rac/logging"
	"github.com/aiopener/rac/racerrors"
)

const serverInstructions = `rac MCP server: resolves layered context documents by path.

Paths have the form LAYER/FILE or LAYER/FILE/SECTION, e.g. USE_CASE/COPYWRITER/prohibitions. Layers: CONFIG, CLIENT, LOGIC, OPS, ORG, PACK, ROLE, USE_CASE, WORKFLOW, LIBRARY. Query one section instead of a whole file whenever you can.

Start with list_clients to find a tenant, then list_paths with that tenant to see every addressable file and its sections. resolve_context applies inheritance and $ref resolution and attaches the tenant's client document for USE_CASE, OPS, ORG, PACK and WORKFLOW. get_raw_file returns a file exactly as stored.

Configuration: defaults are set via RAC_MCP_* environment variables in your MCP client config:
- RAC_MCP_FORMAT (default: yaml): content encoding, yaml or json
- RAC_MCP_INCLUDE_CLIENT (default: true): attach client documents
- RAC_MCP_LIST_LIMIT (default: 200): default page size for list_paths
- RAC_MCP_MAX_LIMIT (default: 1000): largest page size accepted
- RAC_MCP_TOOL_TIMEOUT (default: 30s): per-call deadline`

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// Server serves the rac tools.
type Server struct {
	engine  *engine.Engine
	cfg     *serverConfig
	logger  logging.Logger
	name    string
	version string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for tool failures.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = logging.OrNop(l) }
}

// WithName sets the implementation name reported to clients.
func WithName(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.name = name
		}
	}
}

// New returns a Server over e. Tool defaults come from RAC_MCP_* variables.
func New(e *engine.Engine, opts ...Option) *Server {
	s := &Server{
		engine:  e,
		cfg:     loadConfig(),
		logger:  logging.NopLogger{},
		name:    "rac",
		version: rac.Version(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MCP builds the MCP server with every tool registered.
func (s *Server) MCP() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: s.name, Version: s.version},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	s.registerAllTools(server)
	return server
}

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.MCP().Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_context",
		Description: "Resolve a context path (LAYER/FILE or LAYER/FILE/SECTION) to its content with inheritance and $ref pointers applied. Pass client (a tenant slug from list_clients) for tenant overrides, access control and role remapping; without client, layers that carry client context (USE_CASE, OPS, ORG, PACK, WORKFLOW) need client_id. Prefer section paths over whole files. On a miss the error lists similar paths.",
	}, s.handleResolveContext)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_paths",
		Description: "List every path a tenant can query, grouped by layer, with the top-level sections of each file. Filter with layer. Use offset/limit to paginate; the default limit is configurable via RAC_MCP_LIST_LIMIT.",
	}, s.handleListPaths)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_raw_file",
		Description: "Return a file exactly as stored: no inheritance, no $ref resolution, meta block kept. file_id is a full id (e.g. USE_CASE_04_COPYWRITER) or any substring of one. Tenant overrides are never returned. Optional section narrows the result.",
	}, s.handleGetRawFile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_clients",
		Description: "List the tenant slugs usable as client in resolve_context and list_paths, and the client ids usable as client_id for tenantless queries.",
	}, s.handleListClients)
}

// withTimeout applies the per-call deadline.
func (s *Server) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.ToolTimeout)
}

// paginate applies offset/limit pagination to a slice, returning the
// requested page. A non-positive limit defaults to cfg.ListLimit.
func paginate[T any](cfg *serverConfig, items []T, offset, limit int) []T {
	if limit <= 0 {
		limit = cfg.ListLimit
	}
	if limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	if offset < 0 || offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end < offset || end > len(items) { // overflow or beyond slice
		end = len(items)
	}
	return items[offset:end]
}

// render encodes v in the requested format, falling back to the configured
// default.
func (s *Server) render(v document.Value, format string) (string, string, error) {
	format = strings.ToLower(format)
	if format == "" {
		format = s.cfg.Format
	}
	switch format {
	case formatJSON:
		data, err := v.MarshalJSONIndent("", "  ")
		return string(data), formatJSON, err
	case formatYAML:
		data, err := v.MarshalYAMLBytes()
		return string(data), formatYAML, err
	default:
		return "", "", fmt.Errorf("invalid format %q; valid values: json, yaml", format)
	}
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix|data)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error. Engine errors get
// their code and recovery hints prepended.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: describeError(err)}},
	}
}

func describeError(err error) string {
	var b strings.Builder
	b.WriteString(engine.Code(err))
	b.WriteString(": ")
	b.WriteString(sanitizeError(err))

	var (
		nf *racerrors.NotFoundError
		ad *racerrors.AccessDeniedError
		ut *racerrors.UnknownTenantError
		cr *engine.ClientRequiredError
	)
	switch {
	case errors.As(err, &nf):
		writeList(&b, "Similar paths", nf.Suggestions)
	case errors.As(err, &ad):
		if ad.Hint != "" {
			b.WriteString("\n" + ad.Hint)
		}
		writeList(&b, "Did you mean", prefixed("CLIENT/", ad.DidYouMean))
		writeList(&b, "Allowed paths", prefixed("CLIENT/", ad.Allowed))
	case errors.As(err, &ut):
		writeList(&b, "Known clients", ut.Known)
	case errors.As(err, &cr):
		writeList(&b, "Available client ids", cr.Available)
	}
	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n" + label + ": " + strings.Join(items, ", "))
}

func prefixed(prefix string, items []string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = prefix + it
	}
	return out
}
