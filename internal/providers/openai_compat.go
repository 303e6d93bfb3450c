package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAICompatProvider talks to any vendor exposing the OpenAI chat
// completions API: Groq, DeepInfra, OpenAI and Perplexity.
type OpenAICompatProvider struct {
	name    string
	keyName string
	apiKey  string
	model   string
	client  *openai.Client
}

func NewOpenAICompatProvider(name, baseURL, apiKey, model, keyName string, httpClient *http.Client) *OpenAICompatProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAICompatProvider{
		name:    name,
		keyName: keyName,
		apiKey:  apiKey,
		model:   model,
		client:  openai.NewClientWithConfig(cfg),
	}
}

func (p *OpenAICompatProvider) info() ProviderInfo {
	return ProviderInfo{Name: p.name, Key: p.keyName, Model: p.model}
}

func (p *OpenAICompatProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	if p.apiKey == "" {
		return GenerateResponse{}, p.info(), fmt.Errorf("%s key for alias %q: %w", p.name, p.keyName, ErrMissingCredentials)
	}
	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: msgs,
	})
	if err != nil {
		return GenerateResponse{}, p.info(), fmt.Errorf("%s chat completion failed: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return GenerateResponse{}, p.info(), fmt.Errorf("%s returned no choices", p.name)
	}
	return GenerateResponse{Text: resp.Choices[0].Message.Content}, p.info(), nil
}
