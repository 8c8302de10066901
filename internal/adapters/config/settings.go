package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
	"go.trai.ch/hoist/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	// AppName names the settings directory and the environment prefix.
	AppName = "hoist"

	// SettingsFileName is the user settings file inside the settings directory.
	SettingsFileName = "config.yaml"

	// LogFormatPretty selects coloured human output.
	LogFormatPretty = "pretty"
	// LogFormatJSON selects JSON log records.
	LogFormatJSON = "json"

	// DefaultMinHoistingRate is the hoisting rate report checks against by default.
	DefaultMinHoistingRate = 0.8
)

// Settings are the user-level options of hoist.
// They come from defaults, the settings file and HOIST_* environment variables, in rising priority.
type Settings struct {
	Concurrency     int     `mapstructure:"concurrency"`
	Registry        string  `mapstructure:"registry"`
	Lockfile        bool    `mapstructure:"lockfile"`
	MinHoistingRate float64 `mapstructure:"min_hoisting_rate"`
	LogFormat       string  `mapstructure:"log_format"`
	Verbose         bool    `mapstructure:"verbose"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Concurrency:     runtime.NumCPU(),
		Registry:        domain.DefaultRegistryPath(),
		Lockfile:        true,
		MinHoistingRate: DefaultMinHoistingRate,
		LogFormat:       LogFormatPretty,
	}
}

// SettingsOptions controls where settings are read from.
type SettingsOptions struct {
	// File is an explicit settings file. It must exist when set.
	File string
	// Dir overrides the settings directory.
	Dir string
}

// SettingsDir returns $XDG_CONFIG_HOME/hoist, defaulting to ~/.config/hoist.
func SettingsDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrSettingsReadFailed.Error())
	}
	return filepath.Join(home, ".config", AppName), nil
}

// LoadSettings reads the settings. A missing default settings file is not an error.
func LoadSettings(opts SettingsOptions) (*Settings, error) {
	v := viper.New()

	defaults := DefaultSettings()
	v.SetDefault("concurrency", defaults.Concurrency)
	v.SetDefault("registry", defaults.Registry)
	v.SetDefault("lockfile", defaults.Lockfile)
	v.SetDefault("min_hoisting_rate", defaults.MinHoistingRate)
	v.SetDefault("log_format", defaults.LogFormat)
	v.SetDefault("verbose", defaults.Verbose)

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file, err := settingsFile(opts)
	if err != nil {
		return nil, err
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrSettingsReadFailed.Error()), "file", file)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, zerr.Wrap(err, domain.ErrSettingsReadFailed.Error())
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func settingsFile(opts SettingsOptions) (string, error) {
	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return "", zerr.With(zerr.Wrap(err, domain.ErrSettingsReadFailed.Error()), "file", opts.File)
		}
		return opts.File, nil
	}

	dir := opts.Dir
	if dir == "" {
		var err error
		if dir, err = SettingsDir(); err != nil {
			return "", err
		}
	}
	candidate := filepath.Join(dir, SettingsFileName)
	if _, err := os.Stat(candidate); err != nil {
		return "", nil
	}
	return candidate, nil
}

// Validate rejects out-of-range values.
func (s *Settings) Validate() error {
	if s.Concurrency < 1 {
		return zerr.With(domain.ErrInvalidSettings, "concurrency", s.Concurrency)
	}
	if s.MinHoistingRate < 0 || s.MinHoistingRate > 1 {
		return zerr.With(domain.ErrInvalidSettings, "min_hoisting_rate", s.MinHoistingRate)
	}
	if s.LogFormat != LogFormatPretty && s.LogFormat != LogFormatJSON {
		return zerr.With(domain.ErrInvalidSettings, "log_format", s.LogFormat)
	}
	return nil
}
