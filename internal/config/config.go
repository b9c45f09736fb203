// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package config loads the gateway configuration.
package config // import "mellium.im/jingle/internal/config"

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"mellium.im/xmpp/jid"
)

// EnvPrefix is prepended to the environment variables that override file
// settings, for example JINGLEGW_NATS_URL for nats.url.
const EnvPrefix = "JINGLEGW"

// NATS configures where channel events are published.
// Publishing is disabled if URL is empty.
type NATS struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

// Metrics configures the prometheus endpoint.
// It is disabled if Listen is empty.
type Metrics struct {
	Listen string `mapstructure:"listen"`
}

// Log configures logging.
type Log struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// Config is the gateway configuration.
type Config struct {
	JID          string        `mapstructure:"jid"`
	Password     string        `mapstructure:"password"`
	ReplyTimeout time.Duration `mapstructure:"reply_timeout"`
	QueueSize    int           `mapstructure:"queue_size"`
	Languages    []string      `mapstructure:"languages"`
	Metrics      Metrics       `mapstructure:"metrics"`
	NATS         NATS          `mapstructure:"nats"`
	Log          Log           `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("jid", "")
	v.SetDefault("password", "")
	v.SetDefault("reply_timeout", "30s")
	v.SetDefault("queue_size", 64)
	v.SetDefault("languages", []string{"en"})
	v.SetDefault("metrics.listen", "127.0.0.1:9090")
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject", "jingle.channels")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
}

// Load reads the configuration file at path, if any, and applies environment
// overrides on top of it.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.JID == "" {
		return errors.New("config: jid is required")
	}
	if _, err := jid.Parse(c.JID); err != nil {
		return fmt.Errorf("config: bad jid: %w", err)
	}
	if c.ReplyTimeout <= 0 {
		return errors.New("config: reply_timeout must be positive")
	}
	if c.QueueSize <= 0 {
		return errors.New("config: queue_size must be positive")
	}
	if _, err := c.LanguageTags(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// Address returns the parsed account address.
func (c *Config) Address() (jid.JID, error) {
	return jid.Parse(c.JID)
}

// LanguageTags returns the preferred languages for status messages.
func (c *Config) LanguageTags() ([]language.Tag, error) {
	tags := make([]language.Tag, 0, len(c.Languages))
	for _, l := range c.Languages {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("config: bad language %q: %w", l, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("config: bad log level: %w", err)
	}
	return lvl, nil
}
