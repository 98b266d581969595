package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotFound indicates that no usable configuration could be resolved:
// the file is missing, or it exists but is empty.
var ErrNotFound = errors.New("no configuration found")

const (
	// DefaultChunkSize is the comparison granularity when chunk_size is
	// not configured.
	DefaultChunkSize = 100

	// DefaultStorePath is where the snapshot is persisted, relative to
	// the config's base directory.
	DefaultStorePath = ".ifchanged.state.json"
)

// Config represents a fully resolved run configuration. Loose YAML input
// is converted into this validated shape at the boundary; the engine
// never handles missing or malformed fields.
type Config struct {
	Include   []string `yaml:"include"`
	Exclude   []string `yaml:"exclude"`
	Command   string   `yaml:"command"`
	StorePath string   `yaml:"store_path"`
	ChunkSize int      `yaml:"chunk_size"`
	Force     bool     `yaml:"force"`
	Silent    bool     `yaml:"silent"`

	// BaseDir is the directory containing the config file. Patterns and
	// relative paths resolve against it, and the command runs in it.
	BaseDir string `yaml:"-"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// An empty config is indistinguishable from no config at all.
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNotFound, path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	cfg.BaseDir = filepath.Dir(abs)

	// Expand environment variables in string fields
	cfg.expandEnv()

	// Apply defaults
	cfg.applyDefaults()

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// expandEnv expands environment variables in all string fields
func (c *Config) expandEnv() {
	for i, p := range c.Include {
		c.Include[i] = os.ExpandEnv(p)
	}
	for i, p := range c.Exclude {
		c.Exclude[i] = os.ExpandEnv(p)
	}
	c.Command = os.ExpandEnv(c.Command)
	c.StorePath = os.ExpandEnv(c.StorePath)
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if len(c.Include) == 0 {
		c.Include = []string{"**/*"}
	}
	if c.StorePath == "" {
		c.StorePath = DefaultStorePath
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Command == "" {
		return fmt.Errorf("command is required")
	}

	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be a positive integer: %d", c.ChunkSize)
	}

	// The store must stay inside the base directory.
	rel, err := filepath.Rel(c.BaseDir, c.StoreFilePath())
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("store_path must not escape the base directory: %s", c.StorePath)
	}

	return nil
}

// StoreFilePath returns the absolute path to the snapshot store file
func (c *Config) StoreFilePath() string {
	if filepath.IsAbs(c.StorePath) {
		return filepath.Clean(c.StorePath)
	}
	return filepath.Join(c.BaseDir, c.StorePath)
}
