package config_test

import (
	"testing"

	"github.com/downfa11-org/logdb/pkg/config"
	"github.com/downfa11-org/logdb/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNormalizeDefaults(t *testing.T) {
	cfg := &config.Config{}
	require.NoError(t, cfg.Normalize())

	assert.Equal(t, "logdb-data", cfg.DataDir)
	assert.Equal(t, "DB.LOG", cfg.LogFile)
	assert.Equal(t, "DB.IDX", cfg.IndexFile)
	assert.Equal(t, 9100, cfg.ExporterPort)
}

func TestNormalizeRejectsBadNames(t *testing.T) {
	cfg := &config.Config{LogFile: "THIRTEENCHARS"}
	assert.Error(t, cfg.Normalize())

	cfg = &config.Config{LogFile: "SAME.DAT", IndexFile: "SAME.DAT"}
	assert.Error(t, cfg.Normalize())
}

func TestPaths(t *testing.T) {
	cfg := &config.Config{DataDir: "/var/db", LogFile: "A.LOG", IndexFile: "A.IDX"}
	require.NoError(t, cfg.Normalize())
	assert.Equal(t, "/var/db/A.LOG", cfg.LogPath())
	assert.Equal(t, "/var/db/A.IDX", cfg.IndexPath())
}

func TestYAMLUnmarshal(t *testing.T) {
	raw := []byte(`
data_dir: /data
log_file: S.LOG
index_file: S.IDX
log_level: debug
sync_every_write: true
enable_exporter: true
exporter_port: 9200
`)
	cfg := &config.Config{}
	require.NoError(t, yaml.Unmarshal(raw, cfg))
	require.NoError(t, cfg.Normalize())

	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, util.LogLevelDebug, cfg.LogLevel)
	assert.True(t, cfg.SyncEveryWrite)
	assert.True(t, cfg.EnableExporter)
	assert.Equal(t, 9200, cfg.ExporterPort)
}
