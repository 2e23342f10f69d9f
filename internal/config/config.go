package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Output   Output   `yaml:"output"`
	Lexicon  Lexicon  `yaml:"lexicon"`
	Episodes Episodes `yaml:"episodes"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Lexicon struct {
	// Path to a lexicon YAML overriding the embedded default.
	Path string `yaml:"path"`
}

type Episodes struct {
	// GapDays is the quiet stretch between dated entries that closes
	// an episode when no discharge phrase is seen.
	GapDays int `yaml:"gap_days"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for chartline.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "chartline")
}

// DataDir returns the XDG data directory for chartline.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "chartline")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/chartline/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'chartline init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Episodes: Episodes{GapDays: 28},
		Server:   Server{Port: 8000},
		Logging:  Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Episodes.GapDays <= 0 {
		return nil, fmt.Errorf("episodes.gap_days must be positive, got %d", cfg.Episodes.GapDays)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
