// Package config loads client defaults from a .kafkadmin.yaml file. Values
// from the file seed command-line flags; flags set explicitly always win.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultFileName is the primary config file name that is auto-discovered.
	DefaultFileName = ".kafkadmin.yaml"
	alternateName   = ".kafkadmin.yml"
)

// Config holds defaults loaded from .kafkadmin.yaml.
type Config struct {
	BootstrapServers string    `yaml:"bootstrap_servers"`
	ClientID         string    `yaml:"client_id"`
	AuthMechanism    string    `yaml:"auth_mechanism"`
	Username         string    `yaml:"username"`
	Password         string    `yaml:"password"`
	TLS              TLSConfig `yaml:"tls"`
	Timeout          Duration  `yaml:"timeout"`
}

// TLSConfig holds the TLS defaults of the config file.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file"`
}

// Duration parses YAML scalars with time.ParseDuration ("10s", "1m30s").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load auto-discovers and loads a config file.
// Search order:
// 1) current working directory
// 2) user home directory
func Load() (*Config, string, error) {
	paths, err := defaultPaths()
	if err != nil {
		return nil, "", err
	}

	for _, path := range paths {
		cfg, found, err := loadOptionalPath(path)
		if err != nil {
			return nil, "", err
		}
		if found {
			return cfg, path, nil
		}
	}

	return nil, "", nil
}

// LoadFromPath loads and parses a config file from an explicit path.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}

	return cfg, nil
}

func defaultPaths() ([]string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve current directory: %w", err)
	}

	paths := []string{
		filepath.Join(cwd, DefaultFileName),
		filepath.Join(cwd, alternateName),
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		for _, name := range []string{DefaultFileName, alternateName} {
			candidate := filepath.Join(home, name)
			if !containsPath(paths, candidate) {
				paths = append(paths, candidate)
			}
		}
	}

	return paths, nil
}

func containsPath(paths []string, target string) bool {
	for _, path := range paths {
		if path == target {
			return true
		}
	}
	return false
}

func loadOptionalPath(path string) (*Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read config %q: %w", path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, false, fmt.Errorf("parse config %q: %w", path, err)
	}

	return cfg, true, nil
}

func parse(data []byte) (*Config, error) {
	cfg := &Config{}

	// Unknown keys are rejected so a typo never silently loses a default.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return nil, err
	}

	return cfg, nil
}
