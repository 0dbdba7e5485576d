package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/downfa11-org/logdb/pkg/disk"
	"github.com/downfa11-org/logdb/util"
	"gopkg.in/yaml.v3"
)

// Config carries the engine's file locations and the tunables of the
// command wrappers.
type Config struct {
	DataDir   string `yaml:"data_dir" json:"data.dir"`
	LogFile   string `yaml:"log_file" json:"log.file"`
	IndexFile string `yaml:"index_file" json:"index.file"`

	LogLevel util.LogLevel `yaml:"log_level" json:"log_level"`

	// SyncEveryWrite forces fdatasync after each log write. Slow on SD
	// media, but narrows the orphaned-record window after power loss.
	SyncEveryWrite bool `yaml:"sync_every_write" json:"sync.every.write"`

	EnableExporter bool `yaml:"enable_exporter" json:"enable.exporter"`
	ExporterPort   int  `yaml:"exporter_port" json:"exporter.port"`
}

// LoadConfig resolves configuration from flags and an optional YAML/JSON
// file, then normalizes defaults. The file is applied after the flags, so
// any field it sets overrides the corresponding flag value.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	configPath := flag.String("config", "", "Path to YAML/JSON config file")
	dataDir := flag.String("data-dir", "logdb-data", "Directory for database files")
	logFile := flag.String("log-file", "DB.LOG", "Log file name (8.3)")
	indexFile := flag.String("index-file", "DB.IDX", "Index file name (8.3)")
	logLevelStr := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	syncStr := flag.String("sync", "false", "fdatasync after every log write")
	exporterStr := flag.String("exporter", "false", "Enable Prometheus exporter")
	exporterPortStr := flag.String("exporter-port", "9100", "Exporter port")

	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" && *configPath == "" {
		*configPath = envPath
	}

	flag.Parse()

	cfg.DataDir = *dataDir
	cfg.LogFile = *logFile
	cfg.IndexFile = *indexFile
	cfg.LogLevel = util.ParseLevel(*logLevelStr)
	cfg.SyncEveryWrite = util.ParseBool(*syncStr, false)
	cfg.EnableExporter = util.ParseBool(*exporterStr, false)
	cfg.ExporterPort = util.ParseInt(*exporterPortStr, 9100)

	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return nil, err
		}
		if strings.HasSuffix(*configPath, ".json") {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	util.SetLevel(cfg.LogLevel)
	return cfg, nil
}

// Normalize applies defaults and validates the 8.3 file-name bound.
func (cfg *Config) Normalize() error {
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "logdb-data"
	}
	if strings.TrimSpace(cfg.LogFile) == "" {
		cfg.LogFile = "DB.LOG"
	}
	if strings.TrimSpace(cfg.IndexFile) == "" {
		cfg.IndexFile = "DB.IDX"
	}
	if cfg.ExporterPort <= 0 {
		cfg.ExporterPort = 9100
	}

	if err := disk.ValidateName(cfg.LogFile); err != nil {
		return fmt.Errorf("log_file: %w", err)
	}
	if err := disk.ValidateName(cfg.IndexFile); err != nil {
		return fmt.Errorf("index_file: %w", err)
	}
	if cfg.LogFile == cfg.IndexFile {
		return fmt.Errorf("log_file and index_file must differ")
	}
	return nil
}

// LogPath returns the full path of the log file under DataDir.
func (cfg *Config) LogPath() string {
	return filepath.Join(cfg.DataDir, cfg.LogFile)
}

// IndexPath returns the full path of the index file under DataDir.
func (cfg *Config) IndexPath() string {
	return filepath.Join(cfg.DataDir, cfg.IndexFile)
}
