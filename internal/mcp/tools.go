// Package mcp exposes the portfolio assistant as Model Context Protocol tools.
package mcp

import (
	"askfolio/internal/assistant"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const ToolAskPortfolio = "ask_portfolio"

// NewServer builds an MCP server with the portfolio tools registered.
func NewServer(a *assistant.Assistant, version string) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("askfolio", version)
	RegisterTools(s, a)
	return s
}

func RegisterTools(s *mcpserver.MCPServer, a *assistant.Assistant) *Handlers {
	h := &Handlers{assistant: a}

	s.AddTool(mcp.Tool{
		Name:        ToolAskPortfolio,
		Description: "Ask a question about the portfolio owner's projects and background. Answers are grounded in the portfolio content and cite their sources.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "The visitor question",
				},
				"topic": map[string]interface{}{
					"type":        "string",
					"description": "Optional topic hint that overrides classification",
					"enum":        []string{"driving", "web", "about", "all"},
				},
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Optional conversation id; earlier turns of the session inform the answer",
				},
			},
			Required: []string{"question"},
		},
	}, h.AskPortfolio)

	return h
}
