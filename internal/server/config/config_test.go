package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.EndpointAddr)
	assert.NotEmpty(t, c.DatabaseDSN)
	assert.Equal(t, 15*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 720*time.Hour, c.RefreshTokenValidityDuration)
}

func Test_parseJson_Overlay(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	data, err := json.Marshal(map[string]any{
		"endpoint_addr":                   ":9999",
		"database_dsn":                    "postgres://u:p@h:5432/db",
		"secret_key":                      "sk",
		"access_token_validity_duration":  "30m",
		"refresh_token_validity_duration": "48h",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	os.Args = []string{"testbin", "-config", path}

	cfg := &Config{}
	parseJson(cfg)

	assert.Equal(t, ":9999", cfg.EndpointAddr)
	assert.Equal(t, "postgres://u:p@h:5432/db", cfg.DatabaseDSN)
	assert.Equal(t, "sk", cfg.SecretKey)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 48*time.Hour, cfg.RefreshTokenValidityDuration)
}

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"cmd", "-a", ":7070", "-d", "dsn", "-s", "key", "-t", "5", "-r", "60"}

	cfg := &Config{}
	parseFlags(cfg)

	assert.Equal(t, ":7070", cfg.EndpointAddr)
	assert.Equal(t, "dsn", cfg.DatabaseDSN)
	assert.Equal(t, "key", cfg.SecretKey)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 60*time.Minute, cfg.RefreshTokenValidityDuration)
}
