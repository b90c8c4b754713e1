package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

type Config struct {
	// DataDir holds the article database, the feed list and the user file.
	DataDir string `toml:"data_dir"`

	// ListenAddr is the address the API server binds to.
	ListenAddr string `toml:"listen_addr"`

	// FetchInterval is how often the harvester runs once started.
	FetchInterval Duration `toml:"fetch_interval"`

	// MaxItemsPerFeed caps how many items are ingested per feed per run.
	MaxItemsPerFeed int `toml:"max_items_per_feed"`

	// RequestTimeout bounds every outgoing feed/article HTTP request.
	RequestTimeout Duration `toml:"request_timeout"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func GetDefaultConfig() (*Config, error) {
	dataDir, err := GetDefaultDataDir()
	if err != nil {
		return nil, fmt.Errorf("getting default data directory: %w", err)
	}
	return &Config{
		DataDir:         dataDir,
		ListenAddr:      ":5000",
		FetchInterval:   Duration{5 * time.Minute},
		MaxItemsPerFeed: 50,
		RequestTimeout:  Duration{30 * time.Second},
	}, nil
}

func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.DataDir == "" {
		dataDir, err := GetDefaultDataDir()
		if err != nil {
			return nil, fmt.Errorf("getting default data directory: %w", err)
		}
		config.DataDir = dataDir
	}

	if config.ListenAddr == "" {
		config.ListenAddr = ":5000"
	}

	if config.FetchInterval.Duration == 0 {
		config.FetchInterval = Duration{5 * time.Minute}
	}

	if config.MaxItemsPerFeed <= 0 {
		config.MaxItemsPerFeed = 50
	}

	if config.RequestTimeout.Duration == 0 {
		config.RequestTimeout = Duration{30 * time.Second}
	}

	return &config, nil
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	dataDir := c.DataDir
	if dataDir == "" {
		var err error
		dataDir, err = GetDefaultDataDir()
		if err != nil {
			return fmt.Errorf("getting default data directory: %w", err)
		}
	}

	// Replace the placeholder data_dir with the actual path
	template := strings.Replace(configTemplate, "/home/user/.local/share/newsbin", dataDir, 1)
	return os.WriteFile(configPath, []byte(template), 0644)
}

// DatabasePath returns the article database path inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "articles.db")
}

// FeedsPath returns the feed list file path inside the data directory.
func (c *Config) FeedsPath() string {
	return filepath.Join(c.DataDir, "feeds.txt")
}

// UserPath returns the user credentials file path inside the data directory.
func (c *Config) UserPath() string {
	return filepath.Join(c.DataDir, "user.json")
}

// GetDefaultDataDir returns the default directory for the database and
// data files.
func GetDefaultDataDir() (string, error) {
	// Use XDG_DATA_HOME if set, otherwise use ~/.local/share
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	newsbinDir := filepath.Join(dataDir, "newsbin")

	if err := os.MkdirAll(newsbinDir, 0755); err != nil {
		return "", fmt.Errorf("creating data directory %s: %w", newsbinDir, err)
	}

	return newsbinDir, nil
}

// GetConfigDir returns the configuration directory for newsbin
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	newsbinConfigDir := filepath.Join(configDir, "newsbin")

	if err := os.MkdirAll(newsbinConfigDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", newsbinConfigDir, err)
	}

	return newsbinConfigDir, nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
