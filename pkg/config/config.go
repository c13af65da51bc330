package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	xdgAppName = "taskflow"
	configFile = "config.toml"
	cacheFile  = "cache.db"

	DefaultTaskList   = "TaskFlow"
	DefaultCollection = "tasks"
)

type Config struct {
	TaskList         string `toml:"task_list"`
	FirestoreProject string `toml:"firestore_project"`
	Collection       string `toml:"collection"`
	CachePath        string `toml:"cache_path"`
	Debounce         string `toml:"debounce"`
	SimilarityWindow string `toml:"similarity_window"`
	StatsTTL         string `toml:"stats_ttl"`
	RetryBackoff     string `toml:"retry_backoff"`
	SummaryRecipient string `toml:"summary_recipient,omitempty"`
	// Account is the identity seen at the last sign-in, used when the
	// identity provider cannot be reached.
	Account          string `toml:"account,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		TaskList:         DefaultTaskList,
		Collection:       DefaultCollection,
		Debounce:         "1s",
		SimilarityWindow: "24h",
		StatsTTL:         "5m",
		RetryBackoff:     "500ms",
	}
}

// Dir is the per-user configuration directory, also home to credentials and tokens.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the configuration file, falling back to defaults when it is missing.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

func SaveFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.TaskList == "" {
		c.TaskList = def.TaskList
	}
	if c.Collection == "" {
		c.Collection = def.Collection
	}
	if c.Debounce == "" {
		c.Debounce = def.Debounce
	}
	if c.SimilarityWindow == "" {
		c.SimilarityWindow = def.SimilarityWindow
	}
	if c.StatsTTL == "" {
		c.StatsTTL = def.StatsTTL
	}
	if c.RetryBackoff == "" {
		c.RetryBackoff = def.RetryBackoff
	}
}

// ResolveCachePath returns the configured cache path or the default under Dir.
func (c *Config) ResolveCachePath() (string, error) {
	if c.CachePath != "" {
		return c.CachePath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, cacheFile), nil
}

func (c *Config) DebounceWindow() time.Duration {
	return durationOr(c.Debounce, time.Second)
}

func (c *Config) SimilarityTolerance() time.Duration {
	return durationOr(c.SimilarityWindow, 24*time.Hour)
}

func (c *Config) StatsExpiry() time.Duration {
	return durationOr(c.StatsTTL, 5*time.Minute)
}

func (c *Config) RetryDelay() time.Duration {
	return durationOr(c.RetryBackoff, 500*time.Millisecond)
}

func durationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
