// internal/config/config.go
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"

	"github.com/nhath/ezgrid/internal/logging"
)

// Config represents the application configuration
type Config struct {
	DefaultProfile string                 `toml:"default_profile"`
	Profiles       []Profile              `toml:"profiles"`
	Grid           GridConfig             `toml:"grid"`
	Tables         map[string]TableConfig `toml:"tables"`
	Log            LogConfig              `toml:"log"`
	Metrics        MetricsConfig          `toml:"metrics"`
	History        HistoryConfig          `toml:"history"`
	Theme          Theme                  `toml:"theme_colors"`
	Keys           KeyMap                 `toml:"keys"`

	path string
}

// LogConfig selects where the debug log goes. The terminal is taken by the
// grid, so without a file nothing is logged.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text, json, json-pretty
	File   string `toml:"file"`
}

// Logging converts the section for the logging package
func (l LogConfig) Logging() logging.Config {
	return logging.Config{Level: l.Level, Format: l.Format, File: l.File}
}

// MetricsConfig enables the Prometheus endpoint when Listen is set
type MetricsConfig struct {
	Listen string `toml:"listen"`
}

// HistoryConfig controls the query log
type HistoryConfig struct {
	Enabled    bool `toml:"enabled"`
	MaxEntries int  `toml:"max_entries"`
}

// Theme defines the color palette
type Theme struct {
	TextPrimary   string `toml:"text_primary"`
	TextSecondary string `toml:"text_secondary"`
	TextFaint     string `toml:"text_faint"`
	Accent        string `toml:"accent"`
	Success       string `toml:"success"`
	Error         string `toml:"error"`
	Highlight     string `toml:"highlight"`
	Warning       string `toml:"warning"`
	BgPrimary     string `toml:"bg_primary"`
	BgSecondary   string `toml:"bg_secondary"`
}

// KeyMap defines key bindings
type KeyMap struct {
	Exit        []string `toml:"exit"`
	Up          []string `toml:"up"`
	Down        []string `toml:"down"`
	PageUp      []string `toml:"page_up"`
	PageDown    []string `toml:"page_down"`
	Top         []string `toml:"top"`
	Bottom      []string `toml:"bottom"`
	ScrollLeft  []string `toml:"scroll_left"`
	ScrollRight []string `toml:"scroll_right"`
	NextColumn  []string `toml:"next_column"`
	PrevColumn  []string `toml:"prev_column"`
	Sort        []string `toml:"sort"`
	SortMulti   []string `toml:"sort_multi"`
	Reload      []string `toml:"reload"`
	Filter      []string `toml:"filter"`
}

// Profile represents a database connection profile
type Profile struct {
	Name     string `toml:"name"`
	Type     string `toml:"type"` // postgres, mysql, sqlite
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Database string `toml:"database"`
	// Password is resolved from the keyring and never written back
	Password string `toml:"-"`
	// SealedPassword is an AES-GCM sealed password for hosts without a
	// keyring entry
	SealedPassword string `toml:"password,omitempty"`

	// SSH Tunnel Configuration
	SSHHost           string `toml:"ssh_host,omitempty"`
	SSHPort           int    `toml:"ssh_port,omitempty"`
	SSHUser           string `toml:"ssh_user,omitempty"`
	SSHPassword       string `toml:"-"`
	SSHKeyPath        string `toml:"ssh_key_path,omitempty"`
	SSHAgent          bool   `toml:"ssh_agent,omitempty"`
	SealedSSHPassword string `toml:"ssh_password,omitempty"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Profiles: []Profile{},
		Grid:     DefaultGridConfig(),
		Tables:   make(map[string]TableConfig),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		History: HistoryConfig{
			Enabled:    true,
			MaxEntries: 1000,
		},
		Theme: Theme{
			// Nord
			TextPrimary:   "#D8DEE9",
			TextSecondary: "#81A1C1",
			TextFaint:     "#4C566A",
			Accent:        "#88C0D0",
			Success:       "#A3BE8C",
			Error:         "#BF616A",
			Highlight:     "#8FBCBB",
			Warning:       "#D08770",
			BgPrimary:     "#2E3440",
			BgSecondary:   "#3B4252",
		},
		Keys: DefaultKeyMap(),
	}
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Exit:        []string{"esc", "ctrl+c", "q"},
		Up:          []string{"k", "up"},
		Down:        []string{"j", "down"},
		PageUp:      []string{"b", "pgup"},
		PageDown:    []string{"f", "pgdown", " "},
		Top:         []string{"g", "home"},
		Bottom:      []string{"G", "end"},
		ScrollLeft:  []string{"h", "left"},
		ScrollRight: []string{"l", "right"},
		NextColumn:  []string{"tab"},
		PrevColumn:  []string{"shift+tab"},
		Sort:        []string{"s"},
		SortMulti:   []string{"S"},
		Reload:      []string{"r"},
		Filter:      []string{"/"},
	}
}

// ConfigPath returns the XDG-compliant config file path
func ConfigPath() (string, error) {
	return xdg.ConfigFile("ezgrid/config.toml")
}

// Load loads the config from the XDG path, writing the defaults on first
// run
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile loads the config at path. A missing file is created with the
// defaults.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.path = path
		if err := cfg.Save(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	cfg.path = path
	cfg.applyDefaults(md)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills sections missing from an older or hand-written file
func (c *Config) applyDefaults(md toml.MetaData) {
	defaults := DefaultConfig()
	c.Grid.fill(defaults.Grid)
	if c.Tables == nil {
		c.Tables = make(map[string]TableConfig)
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
	if !md.IsDefined("history", "enabled") {
		c.History.Enabled = defaults.History.Enabled
	}
	if c.History.MaxEntries <= 0 {
		c.History.MaxEntries = defaults.History.MaxEntries
	}
	if c.Theme.TextPrimary == "" {
		c.Theme = defaults.Theme
	}
	if len(c.Keys.Exit) == 0 {
		c.Keys = defaults.Keys
	}
}

// Validate checks the parts of the config that are parsed lazily, so a
// bad length fails at load time rather than when a table opens
func (c *Config) Validate() error {
	if _, err := c.Grid.RowHeight(); err != nil {
		return err
	}
	for name, t := range c.Tables {
		if _, err := t.Specs(); err != nil {
			return &TableError{Table: name, Err: err}
		}
	}
	return nil
}

// Path returns the file the config was loaded from
func (c *Config) Path() string { return c.path }

// Save writes the config back to the file it was loaded from
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		var err error
		if path, err = ConfigPath(); err != nil {
			return err
		}
		c.path = path
	}

	// Ensure directory exists with secure permissions
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	// Create/truncate file with secure permissions (owner read/write only)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(c)
}
