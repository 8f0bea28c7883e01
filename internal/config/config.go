// Package config loads the downloader settings from config.json and the
// environment.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sdarotfetcher/sdarotfetcher/internal/util"
	"github.com/spf13/viper"
)

const (
	// DefaultPath is where the CLI looks for the config file
	DefaultPath = "./config.json"

	// MaxConcurrency is the most episodes the site tolerates in flight
	MaxConcurrency = 3

	// SiteCoolDown is the shortest pause the site accepts between the
	// pre-watch token and the metadata request.
	SiteCoolDown = 31 * time.Second
)

// Config holds all configuration settings for the application.
// It maps directly to the keys of config.json.
type Config struct {
	SdarotURL          string        `mapstructure:"sdarot_url"`
	SeriesName         string        `mapstructure:"series_name"`
	OutputDir          string        `mapstructure:"output_dir"`
	Concurrency        int           `mapstructure:"concurrency"`
	CoolDown           time.Duration `mapstructure:"cool_down"`
	Quality            string        `mapstructure:"quality"`
	LegacyQualityToken bool          `mapstructure:"legacy_quality_token"`
	StrictParse        bool          `mapstructure:"strict_parse"`
	CDNScheme          string        `mapstructure:"cdn_scheme"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	UserAgent          string        `mapstructure:"user_agent"`
}

// Load reads the JSON file at path and applies SDAROT_* environment
// overrides. A missing file is not an error; a missing sdarot_url is.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")

	// e.g. SDAROT_SDAROT_URL overrides `sdarot_url`.
	v.SetEnvPrefix("SDAROT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrapf(err, "failed to read config %s", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to stat config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sdarot_url", "")
	v.SetDefault("series_name", "")
	v.SetDefault("output_dir", "./")
	v.SetDefault("concurrency", 3)
	v.SetDefault("cool_down", "31s")
	v.SetDefault("quality", "")
	v.SetDefault("legacy_quality_token", false)
	v.SetDefault("strict_parse", false)
	v.SetDefault("cdn_scheme", "https")
	v.SetDefault("request_timeout", "5m")
	v.SetDefault("user_agent", "")
}

// Validate rejects settings the downloader cannot run with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SdarotURL) == "" {
		return errors.New("sdarot_url is required")
	}
	if c.Concurrency < 1 || c.Concurrency > MaxConcurrency {
		return errors.Errorf("concurrency must be between 1 and %d, got %d", MaxConcurrency, c.Concurrency)
	}
	if c.CoolDown <= 0 {
		return errors.Errorf("cool_down must be positive, got %s", c.CoolDown)
	}
	if c.CoolDown < SiteCoolDown {
		util.Warn("cool_down is shorter than the site accepts, metadata requests may be refused",
			"cool_down", c.CoolDown, "minimum", SiteCoolDown)
	}
	if c.RequestTimeout < 0 {
		return errors.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout)
	}
	switch c.CDNScheme {
	case "http", "https":
	default:
		return errors.Errorf("cdn_scheme must be http or https, got %q", c.CDNScheme)
	}
	return nil
}
