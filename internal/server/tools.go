package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": description,
			},
		},
		"required": []string{"path"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "lazyload_rewrite_html",
			Description: "Rewrite the <img> tags of an HTML document for lazy loading. Returns the new HTML and how many tags were rewritten or skipped.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"html": map[string]interface{}{
						"type":        "string",
						"description": "HTML produced by the content renderer",
					},
					"details": map[string]interface{}{
						"type":        "boolean",
						"description": "Include one decision per matched tag. Default false",
						"default":     false,
					},
				},
				"required": []string{"html"},
			},
		},
		{
			Name:        "lazyload_inspect_tag",
			Description: "Extract src, class list and accessibility text from a single raw <img> tag, exactly as the rewriter sees them.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"tag": map[string]interface{}{
						"type":        "string",
						"description": "One <img ...> tag",
					},
				},
				"required": []string{"tag"},
			},
		},
		{
			Name:        "lazyload_ensure_placeholder",
			Description: "Create (or reuse) the low-quality JPEG placeholder for an image and return its public URL.",
			InputSchema: pathSchema("Image path, absolute or relative to the public root"),
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width, height and format of an image file.",
			InputSchema: pathSchema("Image path, absolute or relative to the public root"),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
