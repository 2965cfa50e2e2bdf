package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, public, private string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "public.yaml"), []byte(public), 0o600))
	if private != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "private.yaml"), []byte(private), 0o600))
	}
	return dir
}

func TestMustLoad_RequiredFields(t *testing.T) {
	// gateway.base_url is intentionally missing
	dir := writeConfig(t, "replies:\n  message_max_len: 100\n", "")

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic due to missing required field, got none")
		}
	}()

	_ = MustLoad(dir)
}

func TestLoad(t *testing.T) {
	t.Run("defaults fill unset fields", func(t *testing.T) {
		dir := writeConfig(t, "gateway:\n  base_url: http://api:8080\n", "")

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "http://api:8080", cfg.Public.Gateway.BaseURL)
		assert.Equal(t, 3, cfg.Public.Gateway.RetryAttempts)
		assert.Equal(t, "respuestas-realtime", cfg.Public.Realtime.Channel)
		assert.Equal(t, "evento-respuesta", cfg.Public.Realtime.Event)
		assert.Equal(t, "accessToken", cfg.Public.Server.SessionCookie)
		assert.False(t, cfg.Public.Replies.NestFlatFallback)
		assert.Empty(t, cfg.RealtimeAPIKey())
	})

	t.Run("overrides and private key", func(t *testing.T) {
		public := `
gateway:
  base_url: https://foro.example.com/api
  retry_attempts: 5
  retry_step: 250ms
realtime:
  url: wss://rt.example.com/realtime/v1/websocket
replies:
  nest_flat_fallback: true
log:
  level: debug
  json: true
`
		dir := writeConfig(t, public, "realtime_api_key: secret\n")

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Public.Gateway.RetryAttempts)
		assert.Equal(t, 250*time.Millisecond, cfg.Public.Gateway.RetryStep)
		assert.Equal(t, "wss://rt.example.com/realtime/v1/websocket", cfg.Public.Realtime.URL)
		assert.True(t, cfg.Public.Replies.NestFlatFallback)
		assert.True(t, cfg.Public.Log.JSON)
		assert.Equal(t, "secret", cfg.RealtimeAPIKey())
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		dir := writeConfig(t, "gateway:\n  base_url: http://api\n  retry_attempts: 0\n", "")
		_, err := Load(dir)
		assert.Error(t, err)
	})

	t.Run("missing public file", func(t *testing.T) {
		_, err := Load(t.TempDir())
		assert.Error(t, err)
	})
}
