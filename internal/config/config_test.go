package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ASKFOLIO_TOP_K", "")
	t.Setenv("ASKFOLIO_LOW_CONFIDENCE", "")
	t.Setenv("ASKFOLIO_PROVIDER_TIMEOUT", "")
	t.Setenv("ASKFOLIO_DOCS_BACKEND", "")

	cfg := Load()
	require.Equal(t, 8, cfg.TopK)
	require.InDelta(t, 0.15, cfg.LowConfidence, 1e-9)
	require.Equal(t, 30*time.Second, cfg.ProviderTimeout)
	require.Equal(t, "none", cfg.DocsBackend)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverridesAndBadValues(t *testing.T) {
	t.Setenv("ASKFOLIO_TOP_K", "4")
	t.Setenv("ASKFOLIO_PROVIDER_TIMEOUT", "5s")
	t.Setenv("ASKFOLIO_LOW_CONFIDENCE", "not-a-number")

	cfg := Load()
	require.Equal(t, 4, cfg.TopK)
	require.Equal(t, 5*time.Second, cfg.ProviderTimeout)
	require.InDelta(t, 0.15, cfg.LowConfidence, 1e-9)
}

func TestValidate(t *testing.T) {
	base := Config{TopK: 8, LowConfidence: 0.15, ProviderTimeout: time.Second, DocsBackend: "none"}
	require.NoError(t, base.Validate())

	bad := base
	bad.LowConfidence = 1.5
	require.Error(t, bad.Validate())

	bad = base
	bad.TopK = 0
	require.Error(t, bad.Validate())

	bad = base
	bad.DocsBackend = "http"
	require.Error(t, bad.Validate())

	bad = base
	bad.DocsBackend = "s3"
	require.Error(t, bad.Validate())
}
