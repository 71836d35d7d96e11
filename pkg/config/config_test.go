package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaultValues(t *testing.T) {
	cfg := &Config{}
	cfg.setDefaultValues()

	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.NotEmpty(t, cfg.Model)
	assert.Equal(t, cfg.Model, cfg.SelectionModel)
	assert.Equal(t, "http://localhost:11434", cfg.OllamaServerURL)
	assert.Equal(t, 10, cfg.MaxIterations)
	assert.Equal(t, 8765, cfg.WebPort)
	assert.Greater(t, cfg.RequestTimeoutS, 0)
}

func TestSetDefaultValuesKeepsExisting(t *testing.T) {
	cfg := &Config{Provider: ProviderOllama, Model: "qwen2.5:7b", MaxIterations: 25}
	cfg.setDefaultValues()

	assert.Equal(t, ProviderOllama, cfg.Provider)
	assert.Equal(t, "qwen2.5:7b", cfg.Model)
	assert.Equal(t, "qwen2.5:7b", cfg.SelectionModel)
	assert.Equal(t, 25, cfg.MaxIterations)
}

func TestLoadConfigFillsMissingFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	// An older config that predates the max_iterations field.
	require.NoError(t, os.WriteFile(path, []byte(`{"provider":"ollama","model":"llama3.1"}`), 0644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, cfg.Provider)
	assert.Equal(t, 10, cfg.MaxIterations)
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))

	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")

	cfg := &Config{}
	cfg.setDefaultValues()
	cfg.MaxIterations = 7
	require.NoError(t, saveConfig(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var loaded Config
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, 7, loaded.MaxIterations)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("QUERYSYNTH_PROVIDER", "ollama")
	t.Setenv("QUERYSYNTH_MAX_ITERATIONS", "3")

	cfg := &Config{}
	cfg.setDefaultValues()
	cfg.applyEnvOverrides()

	assert.Equal(t, ProviderOllama, cfg.Provider)
	assert.Equal(t, 3, cfg.MaxIterations)
}

func TestApplyEnvOverridesIgnoresBadNumbers(t *testing.T) {
	t.Setenv("QUERYSYNTH_MAX_ITERATIONS", "not-a-number")

	cfg := &Config{}
	cfg.setDefaultValues()
	cfg.applyEnvOverrides()

	assert.Equal(t, 10, cfg.MaxIterations)
}
