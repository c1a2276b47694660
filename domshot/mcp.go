package domshot

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/pagesnap/kit"
)

// RegisterMCP registers domshot tools on an MCP server.
func (s *Shooter) RegisterMCP(srv *mcp.Server) {
	pageProp := map[string]any{"type": "string", "description": "Page id"}
	formatProp := map[string]any{"type": "string", "enum": []string{"svg", "png"}, "description": "Output format (default from config)"}

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "domshot_open",
		Description: "Open a URL in a new browser tab under a page id.",
		InputSchema: kit.InputSchema(map[string]any{
			"id":  map[string]any{"type": "string", "description": "Page id (generated when empty)"},
			"url": map[string]any{"type": "string", "description": "Address to open"},
		}, []string{"url"}),
	}, s.endpoint("open", s.openEndpoint), kit.DecodeJSON[openReq])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "domshot_pages",
		Description: "List open pages with their selection and capture state.",
		InputSchema: kit.InputSchema(map[string]any{}, nil),
	}, s.endpoint("pages", s.pagesEndpoint), kit.DecodeJSON[pageReq])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "domshot_capture_page",
		Description: "Capture the whole page as SVG or PNG and export it to the configured sinks.",
		InputSchema: kit.InputSchema(map[string]any{
			"page":         pageProp,
			"format":       formatProp,
			"include_data": map[string]any{"type": "boolean", "description": "Return the encoded image (base64) in the result"},
		}, []string{"page"}),
	}, s.endpoint("capture_page", s.captureEndpoint), kit.DecodeJSON[captureReq])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "domshot_select_element",
		Description: "Enter element-selection mode: the next clicked element is captured. With wait, block until the capture is done or the selection is cancelled.",
		InputSchema: kit.InputSchema(map[string]any{
			"page":       pageProp,
			"format":     formatProp,
			"wait":       map[string]any{"type": "boolean"},
			"timeout_ms": map[string]any{"type": "integer", "description": "With wait: cancel the selection after this delay"},
		}, []string{"page"}),
	}, s.endpoint("select_element", s.selectEndpoint), kit.DecodeJSON[selectReq])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "domshot_cancel_selection",
		Description: "Leave element-selection mode, as if ESC was pressed.",
		InputSchema: kit.InputSchema(map[string]any{"page": pageProp}, []string{"page"}),
	}, s.endpoint("cancel_selection", s.cancelEndpoint), kit.DecodeJSON[pageReq])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "domshot_input",
		Description: "Send synthetic input to a page: move, click, scroll or key.",
		InputSchema: kit.InputSchema(map[string]any{
			"page":   pageProp,
			"action": map[string]any{"type": "string", "enum": []string{"move", "click", "scroll", "key"}},
			"x":      map[string]any{"type": "number"},
			"y":      map[string]any{"type": "number"},
			"dy":     map[string]any{"type": "number", "description": "Scroll delta in pixels"},
			"key":    map[string]any{"type": "string", "description": "Escape, Enter, Tab, Backspace or a printable character"},
		}, []string{"page", "action"}),
	}, s.endpoint("input", s.inputEndpoint), kit.DecodeJSON[inputReq])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "domshot_captures",
		Description: "List recent captures from the journal, newest first, with totals.",
		InputSchema: kit.InputSchema(map[string]any{
			"page":        pageProp,
			"failed_only": map[string]any{"type": "boolean"},
			"limit":       map[string]any{"type": "integer"},
		}, nil),
	}, s.endpoint("captures", s.capturesEndpoint), kit.DecodeJSON[capturesReq])
}
