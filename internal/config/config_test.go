package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetEnv(t, "ENV", "HTTP_PORT", "JWT_TTL", "RATE_LIMIT_DAILY_MAX", "STATE_DB_PATH")
	t.Setenv("FIREBASE_URL", "https://board.example.firebaseio.com")
	t.Setenv("JWT_SIGNING_KEY", "k")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 10, cfg.RateLimit.DailyMax)
	assert.Equal(t, "./board-state.db", cfg.State.DBPath)
}

func TestLoadFromDotenv(t *testing.T) {
	unsetEnv(t, "FIREBASE_URL", "JWT_SIGNING_KEY", "N8N_WEBHOOK_URL")
	t.Setenv("HTTP_PORT", "9000")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"FIREBASE_URL=https://board.example.firebaseio.com\n"+
			"JWT_SIGNING_KEY=from-file\n"+
			"N8N_WEBHOOK_URL=https://n8n.example/webhook/status\n"+
			"HTTP_PORT=7000\n",
	), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.JWT.SigningKey)
	assert.Equal(t, "https://n8n.example/webhook/status", cfg.N8N.WebhookURL)
	// the environment wins over the file
	assert.Equal(t, "9000", cfg.HTTP.Port)
}

func TestLoadRequiresFirebaseURL(t *testing.T) {
	unsetEnv(t, "FIREBASE_URL")
	t.Setenv("JWT_SIGNING_KEY", "k")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadToolingSkipsSigningKey(t *testing.T) {
	unsetEnv(t, "JWT_SIGNING_KEY", "ENV")
	t.Setenv("FIREBASE_URL", "https://board.example.firebaseio.com")
	t.Setenv("STATE_DB_PATH", "/tmp/state.db")

	cfg, err := LoadTooling("")
	require.NoError(t, err)
	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, "/tmp/state.db", cfg.State.DBPath)
	assert.Equal(t, 10*time.Second, cfg.Firebase.Timeout)
}
