package providers

import (
	"context"
	"errors"
)

var (
	ErrEmptyResponse      = errors.New("provider returned empty text")
	ErrMissingCredentials = errors.New("provider credentials missing")
	ErrExhausted          = errors.New("all answer providers failed")
)

type ProviderInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Key   string `json:"key"`
}

type GenerateRequest struct {
	Operation string `json:"operation"`
	System    string `json:"system"`
	Prompt    string `json:"prompt"`
}

type GenerateResponse struct {
	Text string `json:"text"`
}

// LLMProvider is one vendor adapter. Implementations must honour ctx
// cancellation and return an error on any non-2xx or malformed response.
type LLMProvider interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error)
}
