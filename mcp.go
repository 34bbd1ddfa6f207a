package domkey

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/domkey/kit"
)

// RegisterMCP registers domkey tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerKeyTool(srv)
	s.registerMatchTool(srv)
	s.registerBaselineRecordTool(srv)
	s.registerBaselineVerifyTool(srv)
	s.registerBaselinesTool(srv)
	s.registerBaselineDeleteTool(srv)
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// mcpContext marks the context as MCP-carried so service logs name the
// transport.
func mcpContext(ctx context.Context) context.Context {
	return kit.WithTransport(ctx, "mcp")
}

var formatProperty = map[string]any{
	"type": "string", "enum": []any{"xml", "html"},
	"description": "Document format (default: xml)",
}

// --- key ---

type keyToolRequest struct {
	Content string `json:"content"`
	Format  string `json:"format,omitempty"`
}

func (s *Service) registerKeyTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domkey_key",
		Description: "Compute the structural fingerprint of a markup document. Returns the 64-bit key (hex), the hash algorithm and the element count.",
		InputSchema: inputSchema(map[string]any{
			"content": map[string]any{"type": "string", "description": "Document markup"},
			"format":  formatProperty,
		}, []string{"content"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*keyToolRequest)
		return s.KeyBytes([]byte(r.Content), r.Format)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r keyToolRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r, EnrichCtx: mcpContext}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- match ---

type matchToolRequest struct {
	Left   string `json:"left"`
	Right  string `json:"right"`
	Format string `json:"format,omitempty"`
}

func (s *Service) registerMatchTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domkey_match",
		Description: "Compare two markup documents for structural equivalence, ignoring attribute order and sibling order. Returns both fingerprints and the verdict.",
		InputSchema: inputSchema(map[string]any{
			"left":   map[string]any{"type": "string", "description": "First document markup"},
			"right":  map[string]any{"type": "string", "description": "Second document markup"},
			"format": formatProperty,
		}, []string{"left", "right"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*matchToolRequest)
		return s.MatchBytes([]byte(r.Left), []byte(r.Right), r.Format)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r matchToolRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r, EnrichCtx: mcpContext}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- baseline_record ---

type baselineRecordRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Format  string `json:"format,omitempty"`
	Source  string `json:"source,omitempty"`
}

func (s *Service) registerBaselineRecordTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domkey_baseline_record",
		Description: "Record a document's structural fingerprint under a name so it can be verified later, possibly from another process.",
		InputSchema: inputSchema(map[string]any{
			"name":    map[string]any{"type": "string", "description": "Baseline name (alphanumeric, dot, dash, underscore)"},
			"content": map[string]any{"type": "string", "description": "Document markup"},
			"format":  formatProperty,
			"source":  map[string]any{"type": "string", "description": "Optional provenance note (URL, path)"},
		}, []string{"name", "content"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*baselineRecordRequest)
		return s.RecordBaselineBytes(ctx, r.Name, []byte(r.Content), r.Format, r.Source)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r baselineRecordRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r, EnrichCtx: mcpContext}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- baseline_verify ---

type baselineVerifyRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Format  string `json:"format,omitempty"`
}

func (s *Service) registerBaselineVerifyTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domkey_baseline_verify",
		Description: "Verify a document against a recorded baseline. Returns the recorded fingerprint, the candidate key and whether they match.",
		InputSchema: inputSchema(map[string]any{
			"name":    map[string]any{"type": "string", "description": "Baseline name"},
			"content": map[string]any{"type": "string", "description": "Document markup"},
			"format":  formatProperty,
		}, []string{"name", "content"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*baselineVerifyRequest)
		return s.VerifyBaselineBytes(ctx, r.Name, []byte(r.Content), r.Format)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r baselineVerifyRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r, EnrichCtx: mcpContext}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- baselines ---

type baselinesRequest struct{}

func (s *Service) registerBaselinesTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domkey_baselines",
		Description: "List all recorded baseline fingerprints, ordered by name.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		return s.ListBaselines(ctx)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r baselinesRequest
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
				return nil, err
			}
		}
		return &kit.MCPDecodeResult{Request: &r, EnrichCtx: mcpContext}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- baseline_delete ---

type baselineDeleteRequest struct {
	Name string `json:"name"`
}

func (s *Service) registerBaselineDeleteTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domkey_baseline_delete",
		Description: "Delete a recorded baseline fingerprint.",
		InputSchema: inputSchema(map[string]any{
			"name": map[string]any{"type": "string", "description": "Baseline name"},
		}, []string{"name"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*baselineDeleteRequest)
		if err := s.DeleteBaseline(ctx, r.Name); err != nil {
			return nil, err
		}
		return map[string]string{"status": "deleted", "name": r.Name}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r baselineDeleteRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r, EnrichCtx: mcpContext}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
