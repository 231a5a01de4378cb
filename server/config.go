// Package server is the embedding binary's glue: the pieces spec.md's §1
// explicitly carves out of the core (network accept loop, configuration
// parsing, process bootstrap, persistence, logging) live here, wired
// against the core/ql packages that do the interesting work.
package server

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/quiverdb/quiverd/persistence"
)

// Config is quiverd's top-level configuration, loaded from a YAML file the
// way database.ParseGeneratorConfig loads a generator config: parse into an
// anonymous struct shaped like the file, then post-process into the real
// config type below.
type Config struct {
	ListenAddr    string
	Persistence   persistence.Config
	DefaultSpace  string
	DefaultEnv    map[string]any
	SnapshotEvery int // seconds; 0 disables periodic snapshotting
}

// yamlConfig mirrors quiverd.yaml's on-disk shape.
type yamlConfig struct {
	Listen string `yaml:"listen"`
	Persistence struct {
		Backend  string `yaml:"backend"`
		DbName   string `yaml:"db_name"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Socket   string `yaml:"socket"`
	} `yaml:"persistence"`
	DefaultSpace  string         `yaml:"default_space"`
	DefaultEnv    map[string]any `yaml:"default_env"`
	SnapshotEvery int            `yaml:"snapshot_every_secs"`
}

// DefaultConfig is what quiverd runs with when no --config is given:
// snapshots go to a sqlite3 file (quiverd.db) in the working directory,
// listening on localhost.
func DefaultConfig() Config {
	return Config{
		ListenAddr: "127.0.0.1:7878",
		Persistence: persistence.Config{
			Backend: "sqlite3",
			DbName:  "quiverd.db",
		},
		DefaultSpace: "default",
	}
}

// LoadConfig parses configFile into a Config, defaulting every field the
// file leaves unset. An empty configFile returns DefaultConfig() untouched,
// mirroring ParseGeneratorConfig's "no config file" behavior.
func LoadConfig(configFile string) (Config, error) {
	cfg := DefaultConfig()
	if configFile == "" {
		return cfg, nil
	}

	buf, err := os.ReadFile(configFile)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var y yamlConfig
	if err := yaml.Unmarshal(buf, &y); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}

	if y.Listen != "" {
		cfg.ListenAddr = y.Listen
	}
	if y.Persistence.Backend != "" {
		cfg.Persistence.Backend = y.Persistence.Backend
	}
	if y.Persistence.DbName != "" {
		cfg.Persistence.DbName = y.Persistence.DbName
	}
	cfg.Persistence.User = y.Persistence.User
	cfg.Persistence.Password = y.Persistence.Password
	cfg.Persistence.Host = y.Persistence.Host
	cfg.Persistence.Port = y.Persistence.Port
	cfg.Persistence.Socket = y.Persistence.Socket
	if y.DefaultSpace != "" {
		cfg.DefaultSpace = y.DefaultSpace
	}
	cfg.DefaultEnv = y.DefaultEnv
	cfg.SnapshotEvery = y.SnapshotEvery

	slog.Debug("configuration loaded", "listen", cfg.ListenAddr, "backend", cfg.Persistence.Backend)
	return cfg, nil
}
