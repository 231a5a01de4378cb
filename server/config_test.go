package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quiverd.yaml")
	content := `
listen: "0.0.0.0:9999"
persistence:
  backend: postgres
  db_name: quiver_test
  host: db.internal
  port: 5432
default_space: analytics
snapshot_every_secs: 30
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9999", cfg.ListenAddr)
	assert.Equal(t, "postgres", cfg.Persistence.Backend)
	assert.Equal(t, "quiver_test", cfg.Persistence.DbName)
	assert.Equal(t, "db.internal", cfg.Persistence.Host)
	assert.Equal(t, 5432, cfg.Persistence.Port)
	assert.Equal(t, "analytics", cfg.DefaultSpace)
	assert.Equal(t, 30, cfg.SnapshotEvery)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/no/such/file.yaml")
	assert.Error(t, err)
}
