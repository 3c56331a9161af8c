// Package daemonconfig loads the daemon's own YAML configuration file: the
// set of listeners to open, each bound to a node identity within a
// federation description.
package daemonconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/aquaenet/aquaed/federation"
	"github.com/aquaenet/aquaed/internal/aerrors"
	"github.com/aquaenet/aquaed/internal/metadata"
)

// ListenerConfig describes one TLS listener: which node identity it
// answers as, which port it binds, which federation description to load,
// and (optionally) which queries to advertise as offered rather than all
// queries the node implements.
type ListenerConfig struct {
	NodeName     string   `yaml:"node_name"`
	Port         int      `yaml:"port"`
	MetadataFile string   `yaml:"metadata_file"`
	Queries      []string `yaml:"queries,omitempty"`
}

// DaemonConfig is the top-level shape of the daemon configuration file.
type DaemonConfig struct {
	Listeners []ListenerConfig `yaml:"listeners"`
}

// Load reads and validates the daemon configuration file at path.
func Load(path string) (*DaemonConfig, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, &aerrors.ConfigError{File: path, Err: err}
	}
	var cfg DaemonConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, &aerrors.ConfigError{File: path, Err: fmt.Errorf("parsing yaml: %w", err)}
	}
	if len(cfg.Listeners) == 0 {
		return nil, &aerrors.ConfigError{File: path, Field: "listeners", Err: fmt.Errorf("at least one listener is required")}
	}
	for i, l := range cfg.Listeners {
		field := fmt.Sprintf("listeners[%d]", i)
		if l.NodeName == "" {
			return nil, &aerrors.ConfigError{File: path, Field: field + ".node_name", Err: fmt.Errorf("must not be empty")}
		}
		if l.Port < 1 || l.Port > 65535 {
			return nil, &aerrors.ConfigError{File: path, Field: field + ".port", Err: fmt.Errorf("must be between 1 and 65535, got %d", l.Port)}
		}
		if l.MetadataFile == "" {
			return nil, &aerrors.ConfigError{File: path, Field: field + ".metadata_file", Err: fmt.Errorf("must not be empty")}
		}
	}
	return &cfg, nil
}

// LoadSnapshots resolves and loads the federation description each
// listener references, relative to baseDir. A metadata_file path shared
// by more than one listener is loaded exactly once and the resulting
// Snapshot reused — identified by its canonical (cleaned, absolute) path
// rather than by the string as written in the config file, so
// "./fed.bin" and "fed.bin" resolve to the same cached Snapshot. The
// result is keyed by listener index, not node name: two listeners are
// free to reuse the same node_name against different metadata_files, and
// a node-name key would let the second silently overwrite the first.
func LoadSnapshots(cfg *DaemonConfig, baseDir string) (map[int]*federation.Snapshot, error) {
	cache := make(map[string]*federation.Snapshot)
	result := make(map[int]*federation.Snapshot, len(cfg.Listeners))

	for i, l := range cfg.Listeners {
		path := l.MetadataFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		canonical, err := filepath.Abs(filepath.Clean(path))
		if err != nil {
			return nil, &aerrors.ConfigError{File: l.MetadataFile, Field: "metadata_file", Err: err}
		}

		snap, ok := cache[canonical]
		if !ok {
			snap, err = metadata.Load(canonical)
			if err != nil {
				return nil, err
			}
			cache[canonical] = snap
		}
		result[i] = snap
	}
	return result, nil
}
