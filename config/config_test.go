package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFileAndDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfig(t, `
database:
  host: db.internal
  name: claims
storage:
  sequence_backend: memory
`))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, SequenceMemory, cfg.Storage.SequenceBackend)
	assert.Equal(t, 5*time.Second, cfg.Outbox.PollInterval)
	assert.Equal(t, "claims.events", cfg.Outbox.Channel)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfig(t, `
database:
  host: db.internal
`))
	t.Setenv("CLAIMS_DATABASE_HOST", "override.internal")
	t.Setenv("CLAIMS_CLAIM_NUMBER_RETRY_ATTEMPTS", "9")
	t.Setenv("CLAIMS_OUTBOX_POLL_INTERVAL", "2s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "override.internal", cfg.Database.Host)
	assert.Equal(t, 9, cfg.ClaimNumber.RetryAttempts)
	assert.Equal(t, 2*time.Second, cfg.Outbox.PollInterval)
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfig(t, `
storage:
  sequence_backend: etcd
`))
	_, err := LoadConfig()
	assert.Error(t, err)
}
