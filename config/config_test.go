package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("INFERENCE_TIMEOUT", "")
	t.Setenv("TRANSLATE_BACKEND", "")
	t.Setenv("TRANSLATE_CHUNK_SIZE", "")
	t.Setenv("NORMALIZE_IMAGES", "")
	t.Setenv("HTTP_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 60*time.Second, cfg.InferenceTimeout)
	require.Equal(t, TranslateBackendGemini, cfg.TranslateBackend)
	require.Equal(t, 4500, cfg.TranslateChunkSize)
	require.True(t, cfg.NormalizeImages)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.NoError(t, cfg.Validate())
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("INFERENCE_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{
		GeminiAPIKey:       "key",
		InferenceTimeout:   time.Second,
		TranslateBackend:   TranslateBackendGemini,
		TranslateChunkSize: 100,
	}
	require.NoError(t, base.Validate())

	noKey := base
	noKey.GeminiAPIKey = ""
	require.Error(t, noKey.Validate())

	google := base
	google.TranslateBackend = TranslateBackendGoogle
	require.Error(t, google.Validate())
	google.GoogleTranslateAPIKey = "translate-key"
	require.NoError(t, google.Validate())

	unknown := base
	unknown.TranslateBackend = "deepl"
	require.Error(t, unknown.Validate())
}
