package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const appName = "lazyes"

// Config holds all application configuration
type Config struct {
	General GeneralConfig `mapstructure:"general"`
	UI      UIConfig      `mapstructure:"ui"`
	Data    DataConfig    `mapstructure:"data"`
	Backend BackendConfig `mapstructure:"backend"`
	Storage StorageConfig `mapstructure:"storage"`
	History HistoryConfig `mapstructure:"history"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type GeneralConfig struct {
	ConfirmDestructiveOps bool   `mapstructure:"confirm_destructive_ops"`
	DefaultPageSize       int    `mapstructure:"default_page_size"`
	PageSizeOptions       []int  `mapstructure:"page_size_options"`
	DefaultFilter         string `mapstructure:"default_filter"`
}

type UIConfig struct {
	Theme           string `mapstructure:"theme"`
	MouseEnabled    bool   `mapstructure:"mouse_enabled"`
	PanelWidthRatio int    `mapstructure:"panel_width_ratio"`
}

type DataConfig struct {
	MaxCellDisplayLength int `mapstructure:"max_cell_display_length"`
}

type BackendConfig struct {
	// RequestTimeout bounds each backend call. Zero leaves it to the transport.
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RefreshOnMutation bool          `mapstructure:"refresh_on_mutation"`
}

// StorageConfig holds file locations. Empty paths resolve under the user
// config directory.
type StorageConfig struct {
	ConnectionsFile string `mapstructure:"connections_file"`
	FavoritesFile   string `mapstructure:"favorites_file"`
	HistoryDB       string `mapstructure:"history_db"`
	ExportDir       string `mapstructure:"export_dir"`
}

type HistoryConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	MaxEntries int  `mapstructure:"max_entries"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type MetricsConfig struct {
	// Listen is the address of the Prometheus endpoint; empty disables it
	Listen string `mapstructure:"listen"`
}

// DefaultFilter matches every document
const DefaultFilter = `{
  "bool": {
    "must": [
      {
        "match_all": {}
      }
    ]
  }
}`

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		General: GeneralConfig{
			ConfirmDestructiveOps: true,
			DefaultPageSize:       100,
			PageSizeOptions:       []int{100, 150, 200, 500},
			DefaultFilter:         DefaultFilter,
		},
		UI: UIConfig{
			Theme:           "default",
			MouseEnabled:    true,
			PanelWidthRatio: 25,
		},
		Data: DataConfig{
			MaxCellDisplayLength: 50,
		},
		Backend: BackendConfig{
			RequestTimeout:    0,
			RefreshOnMutation: true,
		},
		History: HistoryConfig{
			Enabled:    true,
			MaxEntries: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// flagKeys maps command line flags to the config keys they override
var flagKeys = map[string]string{
	"log-level":      "logging.level",
	"log-format":     "logging.format",
	"metrics-listen": "metrics.listen",
}

// Load loads configuration from files. An explicit path takes precedence
// over the search paths; a missing file in the search paths is not an error.
func Load(path string) (*Config, error) {
	return LoadWithFlags(path, nil)
}

// LoadWithFlags is Load with command line flags layered on top. Only flags
// that were set on the command line override the file.
func LoadWithFlags(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 1. User config directory
		if configDir, err := GetConfigPath(); err == nil {
			v.AddConfigPath(configDir)
		}
		// 2. Current directory
		v.AddConfigPath(".")
		// 3. Default config directory
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(appName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := GetDefaults()
	v.SetDefault("general.confirm_destructive_ops", d.General.ConfirmDestructiveOps)
	v.SetDefault("general.default_page_size", d.General.DefaultPageSize)
	v.SetDefault("general.page_size_options", d.General.PageSizeOptions)
	v.SetDefault("general.default_filter", d.General.DefaultFilter)
	v.SetDefault("ui.theme", d.UI.Theme)
	v.SetDefault("ui.mouse_enabled", d.UI.MouseEnabled)
	v.SetDefault("ui.panel_width_ratio", d.UI.PanelWidthRatio)
	v.SetDefault("data.max_cell_display_length", d.Data.MaxCellDisplayLength)
	v.SetDefault("backend.request_timeout", d.Backend.RequestTimeout)
	v.SetDefault("backend.refresh_on_mutation", d.Backend.RefreshOnMutation)
	v.SetDefault("storage.connections_file", "")
	v.SetDefault("storage.favorites_file", "")
	v.SetDefault("storage.history_db", "")
	v.SetDefault("storage.export_dir", "")
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.max_entries", d.History.MaxEntries)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", "")
	v.SetDefault("metrics.listen", "")

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	// Read config (it's okay if file doesn't exist, we have defaults)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the session cannot work with
func (c *Config) Validate() error {
	if c.General.DefaultPageSize <= 0 {
		return fmt.Errorf("general.default_page_size must be positive, got %d", c.General.DefaultPageSize)
	}
	for _, size := range c.General.PageSizeOptions {
		if size <= 0 {
			return fmt.Errorf("general.page_size_options must be positive, got %d", size)
		}
	}
	if c.Backend.RequestTimeout < 0 {
		return fmt.Errorf("backend.request_timeout must not be negative")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

// ResolveStorage fills empty storage paths with locations under dir
func (c *Config) ResolveStorage(dir string) {
	if c.Storage.ConnectionsFile == "" {
		c.Storage.ConnectionsFile = filepath.Join(dir, "connections.json")
	}
	if c.Storage.FavoritesFile == "" {
		c.Storage.FavoritesFile = filepath.Join(dir, "favorites.yaml")
	}
	if c.Storage.HistoryDB == "" {
		c.Storage.HistoryDB = filepath.Join(dir, "history.db")
	}
	if c.Storage.ExportDir == "" {
		c.Storage.ExportDir = filepath.Join(dir, "exports")
	}
	if c.Logging.File == "" {
		c.Logging.File = filepath.Join(dir, appName+".log")
	}
}
