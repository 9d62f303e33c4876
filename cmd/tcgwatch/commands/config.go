package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"tcgwatch/internal/authenticity"
	"tcgwatch/internal/catalog"
	"tcgwatch/internal/fetcher"
	"tcgwatch/internal/notify"
	"tcgwatch/internal/pipeline"
	"tcgwatch/lib/configutil"
	configlibsql "tcgwatch/lib/configutil/libsql"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type FetchConfig struct {
	MaxAttempts     int     `json:"max_attempts" yaml:"max_attempts"`
	TimeoutSeconds  float64 `json:"timeout_seconds" yaml:"timeout_seconds"`
	// MinDelaySeconds and MaxDelaySeconds pace requests to the same host,
	// both unset means 2..5 and a negative value turns pacing off.
	MinDelaySeconds float64 `json:"min_delay_seconds" yaml:"min_delay_seconds"`
	MaxDelaySeconds float64 `json:"max_delay_seconds" yaml:"max_delay_seconds"`
	MinBodyBytes    int     `json:"min_body_bytes" yaml:"min_body_bytes"`
	// DumpDir keeps a copy of every http exchange when set, it is emptied
	// on startup.
	DumpDir string `json:"dump_dir" yaml:"dump_dir"`
}

type AuthenticityConfig struct {
	DenyTerms        []string `json:"deny_terms" yaml:"deny_terms"`
	RecentExpansions []string `json:"recent_expansions" yaml:"recent_expansions"`
}

type ServerConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

type Config struct {
	Retailers  []string           `json:"retailers" yaml:"retailers"`
	Thresholds map[string]float64 `json:"thresholds" yaml:"thresholds"`
	// CheckInterval is the number of seconds between two runs.
	CheckInterval int    `json:"check_interval" yaml:"check_interval"`
	UserAgent     string `json:"user_agent" yaml:"user_agent"`
	// Timezone is an IANA name ("America/Los_Angeles"), empty is the host
	// timezone.
	Timezone string `json:"timezone" yaml:"timezone"`

	Fetch                  FetchConfig `json:"fetch" yaml:"fetch"`
	Concurrency            int         `json:"concurrency" yaml:"concurrency"`
	RunTimeoutSeconds      int         `json:"run_timeout_seconds" yaml:"run_timeout_seconds"`
	RetailerTimeoutSeconds int         `json:"retailer_timeout_seconds" yaml:"retailer_timeout_seconds"`

	SnapshotDir  string              `json:"snapshot_dir" yaml:"snapshot_dir"`
	History      configlibsql.Struct `json:"history" yaml:"history"`
	Email        notify.SmtpConfig   `json:"email" yaml:"email"`
	Authenticity AuthenticityConfig  `json:"authenticity" yaml:"authenticity"`
	Server       ServerConfig        `json:"server" yaml:"server"`

	// the key names used by config.json files of the python tracker
	RetailPriceThresholds map[string]float64 `json:"retail_price_thresholds" yaml:"retail_price_thresholds"`
	EmailConfig           notify.SmtpConfig  `json:"email_config" yaml:"email_config"`
}

// Env holds the secrets read from the environment, every variable is
// prefixed with TCGWATCH_.
type Env struct {
	APIKey       string `envconfig:"API_KEY"`
	SmtpPassword string `envconfig:"SMTP_PASSWORD"`
}

func (c Config) withDefaults() Config {
	if len(c.Thresholds) == 0 {
		c.Thresholds = c.RetailPriceThresholds
	}
	if c.Email == (notify.SmtpConfig{}) {
		c.Email = c.EmailConfig
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 1800
	}
	if c.SnapshotDir == "" {
		c.SnapshotDir = "."
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port <= 0 {
		c.Server.Port = 8000
	}
	return c
}

func seconds(value float64) time.Duration {
	return time.Duration(value * float64(time.Second))
}

func (c Config) Interval() time.Duration {
	return time.Duration(c.CheckInterval) * time.Second
}

// Request is the pipeline request described by the config, an empty
// retailer list means every known retailer.
func (c Config) Request() (pipeline.Request, error) {
	retailers := catalog.AllRetailers()
	if len(c.Retailers) > 0 {
		parsed, err := catalog.ParseRetailers(c.Retailers)
		if err != nil {
			return pipeline.Request{}, err
		}
		retailers = parsed
	}
	for key, ceiling := range c.Thresholds {
		if ceiling < 0 {
			return pipeline.Request{}, fmt.Errorf("negative threshold for %q", key)
		}
	}
	return pipeline.Request{
		Retailers:  retailers,
		Thresholds: catalog.NewThresholds(c.Thresholds),
	}, nil
}

func (c Config) FetcherOptions() fetcher.Options {
	return fetcher.Options{
		UserAgent:    c.UserAgent,
		MaxAttempts:  c.Fetch.MaxAttempts,
		Timeout:      seconds(c.Fetch.TimeoutSeconds),
		MinDelay:     seconds(c.Fetch.MinDelaySeconds),
		MaxDelay:     seconds(c.Fetch.MaxDelaySeconds),
		MinBodyBytes: c.Fetch.MinBodyBytes,
	}
}

func (c Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Concurrency:     c.Concurrency,
		RunTimeout:      time.Duration(c.RunTimeoutSeconds) * time.Second,
		RetailerTimeout: time.Duration(c.RetailerTimeoutSeconds) * time.Second,
	}
}

func (c Config) AuthenticityLists() authenticity.Lists {
	return authenticity.DefaultLists().Extend(authenticity.Lists{
		DenyTerms:        c.Authenticity.DenyTerms,
		RecentExpansions: c.Authenticity.RecentExpansions,
	})
}

// LoadConfig reads the config file (plus its .local overlay) and the
// environment. A missing config file is not an error, every option has a
// default.
func LoadConfig(path string) (Config, Env, error) {
	var env Env

	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, env, fmt.Errorf("load .env: %w", err)
	}
	err = envconfig.Process("TCGWATCH", &env)
	if err != nil {
		return Config{}, env, fmt.Errorf("read environment: %w", err)
	}

	config, err := configutil.ReadConfig[Config](path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, env, fmt.Errorf("read config %s: %w", path, err)
	}
	config = config.withDefaults()
	if env.SmtpPassword != "" {
		config.Email.Password = env.SmtpPassword
	}
	return config, env, nil
}
