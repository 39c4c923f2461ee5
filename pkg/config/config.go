/*
Package config manages TOML config for the recipe suggestion services.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"recipesuggest/internal/utils"
)

// Environment overrides for the backend section, matching how the site
// deployment passes them.
const (
	EnvBackendURL = "RECIPES_BACKEND_URL"
	EnvAPIToken   = "RECIPES_API_TOKEN"
)

// Config holds the entire config structure.
type Config struct {
	Backend BackendConfig `toml:"backend"`
	Suggest SuggestConfig `toml:"suggest"`
	Server  ServerConfig  `toml:"server"`
}

// BackendConfig points at the CMS backend.
type BackendConfig struct {
	URL        string `toml:"url"`
	Collection string `toml:"collection"`
	APIToken   string `toml:"api_token"`
	// BulkLimit caps the bulk listing used to build the local index.
	BulkLimit int `toml:"bulk_limit"`
}

// SuggestConfig tunes the suggestion engine.
type SuggestConfig struct {
	Limit      int     `toml:"limit"`
	DebounceMs int     `toml:"debounce_ms"`
	Threshold  float64 `toml:"threshold"`
}

// ServerConfig has IPC server related options.
type ServerConfig struct {
	MaxLimit    int `toml:"max_limit"`
	MaxQueryLen int `toml:"max_query_len"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			Collection: "recepteks",
			BulkLimit:  1000,
		},
		Suggest: SuggestConfig{
			Limit:      5,
			DebounceMs: 300,
			Threshold:  0.3,
		},
		Server: ServerConfig{
			MaxLimit:    24,
			MaxQueryLen: 120,
		},
	}
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/recipesuggest
// 2. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	return filepath.Join(homeDir, ".config", "recipesuggest"), nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: ~/.config/recipesuggest/config.toml
// 3. Builtin defaults
// Environment overrides are applied last in every case.
func LoadConfigWithPriority(customConfigPath string) (*Config, string) {
	if customConfigPath != "" {
		if utils.FileExists(customConfigPath) {
			cfg, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return applyEnv(cfg), customConfigPath
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s. Trying default path...", customConfigPath)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return applyEnv(DefaultConfig()), ""
	}

	cfg, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return applyEnv(DefaultConfig()), ""
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return applyEnv(cfg), defaultPath
}

// InitConfig loads config from file or creates default if missing.
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)
	if err := utils.EnsureDir(configDir); err != nil {
		return nil, err
	}

	if !utils.FileExists(configPath) {
		cfg := DefaultConfig()
		if err := SaveConfig(cfg, configPath); err != nil {
			return nil, err
		}
		log.Debugf("Created default config file at: %s", configPath)
		return cfg, nil
	}
	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file; missing keys keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	if err := utils.LoadTOMLFile(configPath, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig saves into a TOML file.
func SaveConfig(cfg *Config, configPath string) error {
	return utils.SaveTOMLFile(cfg, configPath)
}

// applyEnv lets the process environment override the backend section.
func applyEnv(cfg *Config) *Config {
	if v := os.Getenv(EnvBackendURL); v != "" {
		cfg.Backend.URL = v
	}
	if v := os.Getenv(EnvAPIToken); v != "" {
		cfg.Backend.APIToken = v
	}
	return cfg
}
