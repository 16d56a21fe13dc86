package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skull-server/internal/config"
)

const secret = "0123456789abcdef0123"

func TestLoadDefaults(t *testing.T) {
	assert := assert.New(t)
	t.Setenv("JWT_SECRET", secret)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(8080, cfg.Port)
	assert.Equal(15*time.Minute, cfg.IdleExpiry)
	assert.Equal(5*time.Minute, cfg.SweepInterval)
	assert.Equal(4, cfg.SignalBuffer)
	assert.Equal(2, cfg.WinPoints)
	assert.Equal(24*time.Hour, cfg.TokenTTL)
	assert.Equal([]string{"*"}, cfg.AllowedOrigins)
	assert.Equal("info", cfg.LogLevel)
	assert.Empty(cfg.DatabaseURL)
	assert.Equal(":8080", cfg.Addr())
}

func TestLoadFromDotEnv(t *testing.T) {
	assert := assert.New(t)
	file := filepath.Join(t.TempDir(), ".env")
	content := "JWT_SECRET=" + secret + "\nPORT=9000\nGAME_IDLE_EXPIRY=30s\nALLOWED_ORIGINS=a.example,b.example\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	// godotenv does not override variables that are already set
	t.Setenv("PORT", "9100")
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("GAME_IDLE_EXPIRY", "")
	os.Unsetenv("GAME_IDLE_EXPIRY")
	t.Setenv("ALLOWED_ORIGINS", "")
	os.Unsetenv("ALLOWED_ORIGINS")

	cfg, err := config.Load(file)
	require.NoError(t, err)

	assert.Equal(9100, cfg.Port)
	assert.Equal(30*time.Second, cfg.IdleExpiry)
	assert.Equal([]string{"a.example", "b.example"}, cfg.AllowedOrigins)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	cfg.Port = 0
	cfg.SignalBuffer = 0
	err = cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "SIGNAL_BUFFER")
}
