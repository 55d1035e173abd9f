package server

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/ironsheep/image-lazyload/internal/imaging"
	"github.com/ironsheep/image-lazyload/internal/rewrite"
	"github.com/ironsheep/image-lazyload/internal/tag"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall executes a tool and wraps its result in MCP's content
// format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "lazyload_rewrite_html":
		return s.handleRewriteHTML(args)
	case "lazyload_inspect_tag":
		return s.handleInspectTag(args)
	case "lazyload_ensure_placeholder":
		return s.handleEnsurePlaceholder(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to a pretty-printed JSON string, or an
// empty string if it cannot be marshaled.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type rewriteHTMLArgs struct {
	HTML    string `json:"html"`
	Details bool   `json:"details"`
}

type rewriteHTMLResult struct {
	HTML      string             `json:"html"`
	Summary   rewrite.Summary    `json:"summary"`
	Decisions []rewrite.Decision `json:"decisions,omitempty"`
}

func (s *Server) handleRewriteHTML(args json.RawMessage) (interface{}, error) {
	var a rewriteHTMLArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	out, decisions := s.engine.RewriteWithReport(a.HTML, s.cfg, s.store)
	res := &rewriteHTMLResult{HTML: out, Summary: rewrite.Summarize(decisions)}
	if a.Details {
		res.Decisions = decisions
	}
	return res, nil
}

type inspectTagArgs struct {
	Tag string `json:"tag"`
}

func (s *Server) handleInspectTag(args json.RawMessage) (interface{}, error) {
	var a inspectTagArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	md, err := tag.Inspect(a.Tag, s.cfg.AutoAltEnabled())
	if err != nil {
		return nil, err
	}
	return md, nil
}

type imagePathArgs struct {
	Path string `json:"path"`
}

type ensurePlaceholderResult struct {
	URL       string `json:"url"`
	OK        bool   `json:"ok"`
	CachePath string `json:"cache_path"`
}

func (s *Server) handleEnsurePlaceholder(args json.RawMessage) (interface{}, error) {
	var a imagePathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	path := s.resolve(a.Path)
	url, ok := s.materializer.Ensure(path)
	return &ensurePlaceholderResult{URL: url, OK: ok, CachePath: s.materializer.CachePath(path)}, nil
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imagePathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.Probe(s.resolve(a.Path))
}

// resolve interprets relative paths against the public root.
func (s *Server) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.cfg.Paths.PublicRoot, path)
}
