package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "ConceptLens", cfg.Name)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.AnalysisModel)
	assert.Equal(t, "gemini-2.5-flash-image", cfg.Gemini.ImageModel)
	assert.Equal(t, "veo-3.1-fast-generate-preview", cfg.Gemini.VideoModel)
	assert.Equal(t, 120*time.Second, cfg.GetRequestTimeout())
	assert.Equal(t, 10*time.Second, cfg.GetPollInterval())
}

func TestEnvOverrides(t *testing.T) {
	t.Run("GEMINI_API_KEY wins over GOOGLE_API_KEY", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gem-key")
		t.Setenv("GOOGLE_API_KEY", "goog-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "gem-key", cfg.Gemini.APIKey)
	})

	t.Run("GOOGLE_API_KEY used when GEMINI_API_KEY unset", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")
		t.Setenv("GOOGLE_API_KEY", "goog-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "goog-key", cfg.Gemini.APIKey)
	})

	t.Run("model overrides", func(t *testing.T) {
		t.Setenv("CONCEPTLENS_ANALYSIS_MODEL", "gemini-x")
		t.Setenv("CONCEPTLENS_VIDEO_MODEL", "veo-x")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "gemini-x", cfg.Gemini.AnalysisModel)
		assert.Equal(t, "veo-x", cfg.Gemini.VideoModel)
	})
}

func TestLoadRoundTrip(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Gemini.APIKey = "file-key"
	cfg.Gemini.PollInterval = "2s"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key", loaded.Gemini.APIKey)
	assert.Equal(t, 2*time.Second, loaded.GetPollInterval())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")

	loaded, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env-key", loaded.Gemini.APIKey)
	assert.Equal(t, "gemini-2.5-flash", loaded.Gemini.AnalysisModel)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")

	cfg.Gemini.APIKey = "k"
	assert.NoError(t, cfg.Validate())
}

func TestMalformedConfigFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gemini: [not a map"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}
