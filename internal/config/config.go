// Package config provides configuration management for cardeck using
// Viper, layering command-line flags, CARDECK_-prefixed environment
// variables, and an optional .cardeck.yml file.
package config

import (
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"
)

type Config struct {
	Assets AssetsConfig `yaml:"assets"`
	Render RenderConfig `yaml:"render"`
	Server ServerConfig `yaml:"server"`
	Watch  WatchConfig  `yaml:"watch"`
	Log    LogConfig    `yaml:"log"`
}

type AssetsConfig struct {
	// Path is the directory holding deck files; it is also the directory
	// served over HTTP.
	Path string `yaml:"path"`
	// Prefix binds a deck's files together; may contain the "{}"
	// placeholder in pattern mode.
	Prefix string `yaml:"prefix"`
	// Pattern enables multi-deck discovery when non-empty. It must contain
	// one capturing group for the deck identifier.
	Pattern string `yaml:"pattern"`
}

type RenderConfig struct {
	Delimiter    string        `yaml:"delimiter"`
	RenderedFile string        `yaml:"rendered_file"`
	CSVFile      string        `yaml:"csv_file"`
	CSSFile      string        `yaml:"css_file"`
	SettleDelay  time.Duration `yaml:"settle_delay"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	Ignore   []string      `yaml:"ignore"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load() (*Config, error) {
	config := Config{
		Assets: AssetsConfig{
			Path:    viper.GetString("assets.path"),
			Prefix:  viper.GetString("assets.prefix"),
			Pattern: viper.GetString("assets.pattern"),
		},
		Render: RenderConfig{
			Delimiter:    viper.GetString("render.delimiter"),
			RenderedFile: viper.GetString("render.rendered_file"),
			CSVFile:      viper.GetString("render.csv_file"),
			CSSFile:      viper.GetString("render.css_file"),
			SettleDelay:  viper.GetDuration("render.settle_delay"),
		},
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		Watch: WatchConfig{
			Debounce: viper.GetDuration("watch.debounce"),
			Ignore:   viper.GetStringSlice("watch.ignore"),
		},
		Log: LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		},
	}

	applyDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Assets.Path == "" {
		if cwd, err := os.Getwd(); err == nil {
			config.Assets.Path = cwd
		} else {
			config.Assets.Path = "."
		}
	}
	if config.Assets.Prefix == "" {
		config.Assets.Prefix = "_card"
	}
	if config.Render.Delimiter == "" {
		config.Render.Delimiter = ","
	}
	if config.Render.RenderedFile == "" {
		config.Render.RenderedFile = "index.html"
	}
	if config.Render.SettleDelay == 0 {
		config.Render.SettleDelay = 500 * time.Millisecond
	}
	if config.Server.Host == "" {
		config.Server.Host = "0.0.0.0"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8800
	}
	if config.Watch.Debounce == 0 {
		config.Watch.Debounce = 200 * time.Millisecond
	}
	if len(config.Watch.Ignore) == 0 {
		config.Watch.Ignore = []string{"**/.git/**", "**/node_modules/**"}
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

func validate(config *Config) error {
	if config.Server.Port < 0 || config.Server.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Server.Port)
	}

	if utf8.RuneCountInString(config.Render.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", config.Render.Delimiter)
	}

	if info, err := os.Stat(config.Assets.Path); err != nil {
		return fmt.Errorf("assets path: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("assets path %s is not a directory", config.Assets.Path)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("log format must be text or json, got %q", config.Log.Format)
	}

	return nil
}

// DelimiterRune returns the configured CSV delimiter as a rune. Call only
// after Load has validated the config.
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Render.Delimiter)

	return r
}
