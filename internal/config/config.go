// Package config loads sociogrid settings with viper: defaults, an optional
// YAML file and SOCIOGRID_* environment variables, in increasing priority.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"sociogrid/datatable"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// SOCIOGRID_GRID_DEFAULT_PAGE_SIZE.
const EnvPrefix = "SOCIOGRID"

// Config represents the complete sociogrid configuration
type Config struct {
	Grid    GridConfig    `mapstructure:"grid"`
	CSV     CSVConfig     `mapstructure:"csv"`
	Remote  RemoteConfig  `mapstructure:"remote"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// GridConfig controls the data grid
type GridConfig struct {
	// PageSizes are the choices of the page-size selector.
	PageSizes []int `mapstructure:"page_sizes"`
	// DefaultPageSize must be one of PageSizes.
	DefaultPageSize int `mapstructure:"default_page_size"`
	// EmptyTitle and EmptyDescription replace the empty-state texts.
	EmptyTitle       string `mapstructure:"empty_title"`
	EmptyDescription string `mapstructure:"empty_description"`
	// MaxCellWidth truncates cells in text output. Zero disables it.
	MaxCellWidth int `mapstructure:"max_cell_width"`
}

// CSVConfig controls how CSV files are read
type CSVConfig struct {
	// Delimiter is a single character, or "auto" to detect it.
	Delimiter  string   `mapstructure:"delimiter"`
	HasHeaders bool     `mapstructure:"has_headers"`
	NullValues []string `mapstructure:"null_values"`
}

// RemoteConfig controls remote tables
type RemoteConfig struct {
	// APITimeoutSeconds bounds every remote call.
	APITimeoutSeconds int `mapstructure:"api_timeout_seconds"`
	// PageSize is the first page size of remote tables.
	PageSize int `mapstructure:"page_size"`
	// ProfilePath is the Delta Sharing profile opened by default.
	ProfilePath string `mapstructure:"profile_path"`
}

// LoggingConfig controls logging
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	// Dir holds sociogrid.log. Empty logs to stderr.
	Dir string `mapstructure:"dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	m := datatable.DefaultMessages()
	return &Config{
		Grid: GridConfig{
			PageSizes:        datatable.DefaultPageSizes(),
			DefaultPageSize:  datatable.DefaultPageSize,
			EmptyTitle:       m.EmptyTitle,
			EmptyDescription: m.EmptyDescription,
			MaxCellWidth:     32,
		},
		CSV: CSVConfig{
			Delimiter:  "auto",
			HasHeaders: true,
			NullValues: []string{"", "NULL", "null", "NA"},
		},
		Remote: RemoteConfig{
			APITimeoutSeconds: 60,
			PageSize:          datatable.DefaultPageSize,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SetDefaults registers the defaults with v.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("grid.page_sizes", d.Grid.PageSizes)
	v.SetDefault("grid.default_page_size", d.Grid.DefaultPageSize)
	v.SetDefault("grid.empty_title", d.Grid.EmptyTitle)
	v.SetDefault("grid.empty_description", d.Grid.EmptyDescription)
	v.SetDefault("grid.max_cell_width", d.Grid.MaxCellWidth)

	v.SetDefault("csv.delimiter", d.CSV.Delimiter)
	v.SetDefault("csv.has_headers", d.CSV.HasHeaders)
	v.SetDefault("csv.null_values", d.CSV.NullValues)

	v.SetDefault("remote.api_timeout_seconds", d.Remote.APITimeoutSeconds)
	v.SetDefault("remote.page_size", d.Remote.PageSize)
	v.SetDefault("remote.profile_path", d.Remote.ProfilePath)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.dir", d.Logging.Dir)
}

// Init prepares v: defaults, environment overrides and the config file.
// An explicit cfgFile must exist; the default file is optional.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return err
	}
	return nil
}

// Load reads the configuration from v into a Config struct and validates it
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sociogrid")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sociogrid"
	}
	return filepath.Join(home, ".config", "sociogrid")
}

// ConfigFile returns the path to the default config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// APITimeout returns the remote call timeout.
func (c *RemoteConfig) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutSeconds) * time.Second
}

// Messages returns the default messages with the configured empty-state
// texts.
func (c *GridConfig) Messages() datatable.Messages {
	m := datatable.DefaultMessages()
	if c.EmptyTitle != "" {
		m.EmptyTitle = c.EmptyTitle
	}
	if c.EmptyDescription != "" {
		m.EmptyDescription = c.EmptyDescription
	}
	return m
}

// DelimiterRune returns the configured CSV delimiter, or 0 for "auto".
func (c *CSVConfig) DelimiterRune() rune {
	switch c.Delimiter {
	case "", "auto":
		return 0
	case `\t`, "tab":
		return '\t'
	}
	return []rune(c.Delimiter)[0]
}
