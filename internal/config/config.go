// Package config loads the catena.yaml file used by the command line tools.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/catena/internal/logging"
	"github.com/aretw0/catena/pkg/domain"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the file looked up when no path is given.
const DefaultPath = "catena.yaml"

// File is the on-disk configuration of an agent.
type File struct {
	Name         string              `yaml:"name" json:"name"`
	Mode         domain.Mode         `yaml:"mode" json:"mode"`
	MaxNodes     int                 `yaml:"max_nodes" json:"max_nodes"`
	MaxDuration  time.Duration       `yaml:"max_duration" json:"max_duration"`
	LogLevel     string              `yaml:"log_level" json:"log_level"`
	Instructions domain.Instructions `yaml:"instructions" json:"instructions"`

	// Nodes holds per-node settings, keyed by node id.
	Nodes map[string]map[string]any `yaml:"nodes" json:"nodes"`

	Redis  *Redis  `yaml:"redis" json:"redis"`
	LLM    *LLM    `yaml:"llm" json:"llm"`
	Memory *Memory `yaml:"memory" json:"memory"`
}

// Memory configures how notes are written to the long-term store.
type Memory struct {
	// Redact lists regular expressions masked out of every note.
	// "email" and "phone" name the built-in patterns.
	Redact []string `yaml:"redact" json:"redact"`
	// EncryptionKeyEnv names the environment variable holding the base64
	// encoded AES-256 key. Notes are stored in clear text when empty.
	EncryptionKeyEnv string `yaml:"encryption_key_env" json:"encryption_key_env"`
}

// Redis configures the shared long-term memory and the run lock.
type Redis struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
	LockTTL  time.Duration `yaml:"lock_ttl" json:"lock_ttl"`
}

// LLM selects the provider behind Tools.LLM.
type LLM struct {
	Provider string `yaml:"provider" json:"provider"`
	Model    string `yaml:"model" json:"model"`
}

// Default returns the configuration used when no file exists.
func Default() *File {
	return &File{
		Mode:     domain.ModeSingleRun,
		MaxNodes: 50,
		LogLevel: "warn",
	}
}

// Load reads a configuration file (YAML or JSON). A missing file yields
// Default; an unreadable or invalid one is an error.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values Load cannot type-check.
func (f *File) Validate() error {
	var errs []error
	switch f.Mode {
	case "", domain.ModeSingleRun, domain.ModeInteractive:
	default:
		errs = append(errs, fmt.Errorf("unknown mode %q", f.Mode))
	}
	if f.MaxNodes < 0 {
		errs = append(errs, errors.New("max_nodes must not be negative"))
	}
	if f.MaxDuration < 0 {
		errs = append(errs, errors.New("max_duration must not be negative"))
	}
	if _, err := logging.ParseLevel(f.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if f.Redis != nil && f.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when redis is configured"))
	}
	if f.LLM != nil {
		switch f.LLM.Provider {
		case "anthropic", "openai":
		default:
			errs = append(errs, fmt.Errorf("unknown llm provider %q", f.LLM.Provider))
		}
	}
	if f.Memory != nil {
		for _, p := range f.Memory.Redact {
			if p == "" {
				errs = append(errs, errors.New("memory.redact must not contain empty patterns"))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return &domain.ConfigurationError{Reason: "invalid config file", Err: err}
	}
	return nil
}

// Agent returns the execution settings of the file.
func (f *File) Agent() domain.Config {
	return domain.Config{
		Mode:        f.Mode,
		MaxNodes:    f.MaxNodes,
		MaxDuration: f.MaxDuration,
	}
}
