package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"askfolio/internal/assistant"
	"askfolio/internal/config"
	"askfolio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) config.Config {
	dir := t.TempDir()
	return config.Config{
		LLMProviders:    "mock",
		ProviderTimeout: time.Second,
		TopK:            8,
		LowConfidence:   0.15,
		DocsBackend:     "file",
		DocsFile:        filepath.Join(dir, "docs.json"),
		MemoryDB:        filepath.Join(dir, "memory.db"),
	}
}

func TestBuildWiresFileBackendAndMemory(t *testing.T) {
	ctx := context.Background()
	a, err := Build(ctx, testConfig(t), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	require.NotNil(t, a.Writer)
	require.NoError(t, a.Writer.ReplaceDocument(ctx, "cv", []models.TextUnit{{
		ID: "cv-1", Kind: models.KindPDF, Title: "CV", Body: "Worked on lidar perception for an autonomous shuttle.", Page: 1, TopicTag: models.TopicDriving,
	}}))

	resp, err := a.Assistant.Ask(ctx, assistant.Request{Question: "Tell me about the lidar perception work", SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "mock", resp.Provider)
	assert.Contains(t, resp.SourceStrings(), "CV, p.1 [pdf:cv-1]")

	turns, err := a.Assistant.History(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, turns, 1)
}

func TestBuildRejectsUnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLMProviders = "carrier-pigeon"
	_, err := Build(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
}

func TestBackendsNone(t *testing.T) {
	src, w, db, err := Backends(context.Background(), config.Config{DocsBackend: "none"}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, src)
	assert.Nil(t, w)
	assert.Nil(t, db)
}
