package chunkstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"askfolio/internal/models"
)

// HTTPSource reads chunks from a docs endpoint answering {"docs":[...]}.
type HTTPSource struct {
	url    string
	client *http.Client
}

func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPSource{url: strings.TrimSpace(url), client: client}
}

type docsPayload struct {
	Docs []models.Doc `json:"docs"`
}

func (h *HTTPSource) LoadChunks(ctx context.Context) ([]models.TextUnit, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build docs request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("docs request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("docs endpoint status %d", resp.StatusCode)
	}
	var parsed docsPayload
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode docs response: %w", err)
	}
	out := make([]models.TextUnit, 0, len(parsed.Docs))
	for _, d := range parsed.Docs {
		if strings.TrimSpace(d.ID) == "" || strings.TrimSpace(d.Text) == "" {
			continue
		}
		out = append(out, d.Unit())
	}
	return out, nil
}
