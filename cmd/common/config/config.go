// Package config provides configuration loading for beatseek.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/gigurra/beatseek/cmd/common/nav"
)

// HomeEnv overrides the config directory when set.
const HomeEnv = "BEATSEEK_HOME"

// Config represents the beatseek configuration file structure.
type Config struct {
	Navigation *NavigationConfig `json:"navigation,omitempty"`
	Metronome  *MetronomeConfig  `json:"metronome,omitempty"`
}

// NavigationConfig holds settings for seeking.
type NavigationConfig struct {
	// DoubleTapMillis is the window in which a second backward press skips
	// one extra step.
	DoubleTapMillis int `json:"double_tap_millis,omitempty"`
}

// MetronomeConfig holds settings for the click played on beats in `play`.
type MetronomeConfig struct {
	Enabled         bool    `json:"enabled"`
	Frequency       float64 `json:"frequency,omitempty"`
	AccentFrequency float64 `json:"accent_frequency,omitempty"`
	ClickMillis     int     `json:"click_millis,omitempty"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Navigation: &NavigationConfig{
			DoubleTapMillis: int(nav.DefaultDoubleTapWindow / time.Millisecond),
		},
		Metronome: &MetronomeConfig{
			Enabled:         false,
			Frequency:       1000,
			AccentFrequency: 1500,
			ClickMillis:     30,
		},
	}
}

// DoubleTapWindow returns the configured window as a duration.
func (c *NavigationConfig) DoubleTapWindow() time.Duration {
	if c == nil || c.DoubleTapMillis <= 0 {
		return nav.DefaultDoubleTapWindow
	}
	return time.Duration(c.DoubleTapMillis) * time.Millisecond
}

// ClickDuration returns the length of one click.
func (c *MetronomeConfig) ClickDuration() time.Duration {
	return time.Duration(c.ClickMillis) * time.Millisecond
}

// ConfigDir returns the beatseek config directory ($BEATSEEK_HOME or ~/.beatseek).
func ConfigDir() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".beatseek")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// Load loads the config file.
// Returns default config if file doesn't exist.
func Load() (*Config, error) {
	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	defaults := DefaultConfig()
	if config.Navigation == nil {
		config.Navigation = defaults.Navigation
	} else if config.Navigation.DoubleTapMillis <= 0 {
		config.Navigation.DoubleTapMillis = defaults.Navigation.DoubleTapMillis
	}

	if config.Metronome == nil {
		config.Metronome = defaults.Metronome
	} else {
		if config.Metronome.Frequency <= 0 {
			config.Metronome.Frequency = defaults.Metronome.Frequency
		}
		if config.Metronome.AccentFrequency <= 0 {
			config.Metronome.AccentFrequency = defaults.Metronome.AccentFrequency
		}
		if config.Metronome.ClickMillis <= 0 {
			config.Metronome.ClickMillis = defaults.Metronome.ClickMillis
		}
	}

	return &config, nil
}

// Save writes the config file, creating the directory if needed.
func Save(config *Config) error {
	if err := os.MkdirAll(ConfigDir(), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
