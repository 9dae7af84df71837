package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type rawInput struct {
	FileID  string `json:"file_id"           jsonschema:"Full file id such as USE_CASE_04_COPYWRITER, or a substring of one"`
	Section string `json:"section,omitempty" jsonschema:"Dot path into the file, e.g. format.length"`
	Format  string `json:"format,omitempty"  jsonschema:"Content encoding: yaml or json"`
}

type rawOutput struct {
	FileID  string `json:"file_id"`
	FullID  string `json:"full_id"`
	Layer   string `json:"layer"`
	Section string `json:"section,omitempty"`
	Format  string `json:"format"`
	Content string `json:"content"`
}

func (s *Server) handleGetRawFile(ctx context.Context, _ *mcp.CallToolRequest, input rawInput) (*mcp.CallToolResult, rawOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	raw, err := s.engine.Raw(ctx, input.FileID, input.Section)
	if err != nil {
		return errResult(err), rawOutput{}, nil
	}
	content, format, err := s.render(raw.Content, input.Format)
	if err != nil {
		return errResult(err), rawOutput{}, nil
	}
	return nil, rawOutput{
		FileID:  raw.FileID,
		FullID:  raw.Location.FullID,
		Layer:   raw.Location.Layer.String(),
		Section: raw.Section,
		Format:  format,
		Content: content,
	}, nil
}
