package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(`
environment: dev
dev_mode_bypass: true
storage:
  driver: memory
schema_service:
  url: "http://inference.local:9000/ "
  timeout: 30s
auth:
  okta_domain: "https://acme.okta.com/oauth2/default/"
  admin_emails: ["boss@acme.com"]
`), 0o600)
	require.NoError(t, err)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	assert.True(t, cfg.DevModeBypass)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "http://inference.local:9000", cfg.SchemaService.URL)
	assert.Equal(t, 30*time.Second, cfg.SchemaService.Timeout)
	assert.Equal(t, "https://acme.okta.com/oauth2/default", cfg.Auth.OktaDomain)
	assert.Equal(t, []string{"boss@acme.com"}, cfg.Auth.AdminEmails)
	// defaults survive when the file is silent
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "directory-admins", cfg.Auth.AdminGroup)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DIRECTORY_DB_PASSWORD", "s3cret")
	t.Setenv("DIRECTORY_LLM_API_KEY", "key-123")
	t.Setenv("DIRECTORY_SERVER_PORT", "9090")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.DB.Password)
	assert.Equal(t, "key-123", cfg.LLM.APIKey)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.IsDev())
	assert.Contains(t, cfg.DSN(), "password=s3cret")
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
