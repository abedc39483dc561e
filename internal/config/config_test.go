package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadAppliesYAMLOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
storage:
  data_dir: /var/lib/kinotek
cache:
  max_entries: 16
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/var/lib/kinotek", cfg.Storage.DataDir)
	assert.Equal(t, 16, cfg.Cache.MaxEntries)
	// Untouched values keep their defaults
	assert.Equal(t, "sqlite", cfg.Database.Type)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	t.Setenv("KINOTEK_PORT", "7070")
	t.Setenv("KINOTEK_DATA_DIR", "/tmp/kinotek-env")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/tmp/kinotek-env", cfg.Storage.DataDir)
	assert.True(t, cfg.Logging.JSON)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Database.Type = "oracle"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Database.Type = "postgres"
	assert.Error(t, cfg.Validate(), "postgres without DSN must fail")
	cfg.Database.DSN = "host=localhost user=kinotek"
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.Cache.MaxEntries = 0
	assert.Error(t, cfg.Validate())
}

func TestPathHelpersResolveAgainstDataDir(t *testing.T) {
	cfg := Default()
	cfg.Storage.DataDir = "/data"

	assert.Equal(t, "/data/kinotek.db", cfg.DatabasePath())
	assert.Equal(t, "/data/images", cfg.ImagePath())
	assert.Equal(t, "/data/.seeded", cfg.SeedMarkerPath())

	cfg.Database.Path = "/elsewhere/catalog.db"
	assert.Equal(t, "/elsewhere/catalog.db", cfg.DatabasePath())
}
