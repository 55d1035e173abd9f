// Package server implements an MCP (Model Context Protocol) server that
// exposes the lazy-load rewriter to MCP clients and content pipelines.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - lazyload_rewrite_html: Rewrite the <img> tags of an HTML fragment
//   - lazyload_inspect_tag: Show src, classes and accessibility text of one tag
//   - lazyload_ensure_placeholder: Materialize the placeholder for one image
//   - image_dimensions: Probe an image's width, height and format
//
// All tools use the configuration the server was started with. A rewrite
// never fails because of an individual image; only malformed arguments
// produce tool errors.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
package server
