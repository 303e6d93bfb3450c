package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"askfolio/internal/assistant"

	"github.com/mark3labs/mcp-go/mcp"
)

type Handlers struct {
	assistant *assistant.Assistant
}

// AskPortfolio handles the ask_portfolio tool. Bad input and provider
// configuration problems are returned as tool errors, not protocol errors.
func (h *Handlers) AskPortfolio(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}
	resp, err := h.assistant.Ask(ctx, assistant.Request{
		Question:  question,
		TopicHint: request.GetString("topic", ""),
		SessionID: request.GetString("session_id", ""),
	})
	switch {
	case errors.Is(err, assistant.ErrEmptyQuestion):
		return mcp.NewToolResultError("question must not be empty"), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
	}
	return mcp.NewToolResultText(render(resp)), nil
}

func render(resp assistant.Response) string {
	var sb strings.Builder
	sb.WriteString(resp.Answer)
	if sources := resp.SourceStrings(); len(sources) > 0 {
		sb.WriteString("\n\nSources:")
		for _, s := range sources {
			sb.WriteString("\n- ")
			sb.WriteString(s)
		}
	}
	if len(resp.Followups) > 0 {
		sb.WriteString("\n\nYou could also ask:")
		for _, f := range resp.Followups {
			sb.WriteString("\n- ")
			sb.WriteString(f)
		}
	}
	fmt.Fprintf(&sb, "\n\n(provider: %s, topic: %s, confidence: %.2f)", resp.Provider, resp.Topic, resp.Confidence)
	return sb.String()
}
