package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sql", cfg.StoreBackend)
	assert.Equal(t, "gemini", cfg.AIProvider)
	assert.Equal(t, "gemini-1.5-flash", cfg.Model())
	assert.Equal(t, 20, cfg.ChatContextWindowSize)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.ChatIncludeHistory)
	assert.False(t, cfg.EventsEnabled)
	assert.Equal(t, 2, cfg.WorkerConcurrency)
}

func TestLoad_WorkerConcurrencyBounds(t *testing.T) {
	for env, want := range map[string]int{"8": 8, "0": 2, "-3": 2, "500": 50} {
		t.Setenv("WORKER_CONCURRENCY", env)
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, want, cfg.WorkerConcurrency, "WORKER_CONCURRENCY=%s", env)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AI_PROVIDER", "Ollama")
	t.Setenv("OLLAMA_MODEL", "qwen2:7b")
	t.Setenv("CHAT_CONTEXT_WINDOW_SIZE", "500")
	t.Setenv("CHAT_INCLUDE_HISTORY", "true")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.AIProvider)
	assert.Equal(t, "qwen2:7b", cfg.Model())
	// out of range falls back to the default window
	assert.Equal(t, 20, cfg.ChatContextWindowSize)
	assert.True(t, cfg.ChatIncludeHistory)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoad_AIModelOverridesProviderModel(t *testing.T) {
	t.Setenv("AI_PROVIDER", "openai")
	t.Setenv("AI_MODEL", "gpt-4.1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1", cfg.Model())
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gopherchat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr: \":9090\"\nstore_backend: mongo\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "mongo", cfg.StoreBackend)
}

func TestFromViper_RejectsUnknownBackend(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("store_backend", "firestore")

	_, err := FromViper(v)
	assert.Error(t, err)
}
