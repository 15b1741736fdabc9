// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/careers-crawler/internal/discovery"
	"github.com/JakeFAU/careers-crawler/internal/keywords"
)

// DefaultUserAgent is a desktop Chrome user agent; target sites often
// reject obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	Language  LanguageConfig  `mapstructure:"language"`
	Translate TranslateConfig `mapstructure:"translate"`
	Store     StoreConfig     `mapstructure:"store"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Publish   PublishConfig   `mapstructure:"publish"`
	Server    ServerConfig    `mapstructure:"server"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// CrawlerConfig governs the worker pool and politeness.
type CrawlerConfig struct {
	Concurrency     int     `mapstructure:"concurrency"`
	PageConcurrency int     `mapstructure:"page_concurrency"`
	QueueDepth      int     `mapstructure:"queue_depth"`
	DelayMs         int     `mapstructure:"delay_ms"`
	JitterMs        int     `mapstructure:"jitter_ms"`
	DomainRPS       float64 `mapstructure:"domain_rps"`
	DomainBurst     int     `mapstructure:"domain_burst"`
	FetchAttempts   int     `mapstructure:"fetch_attempts"`
	UserAgent       string  `mapstructure:"user_agent"`
	Referer         string  `mapstructure:"referer"`
	RespectRobots   bool    `mapstructure:"respect_robots"`
}

// HTTPConfig configures the HTTP page fetcher.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// FetcherConfig selects the page fetcher.
type FetcherConfig struct {
	Mode string `mapstructure:"mode"`
}

// HeadlessConfig configures the headless rendering fetcher.
type HeadlessConfig struct {
	MaxParallel        int    `mapstructure:"max_parallel"`
	NavTimeoutSeconds  int    `mapstructure:"nav_timeout_seconds"`
	RenderWaitMs       int    `mapstructure:"render_wait_ms"`
	PromotionThreshold int    `mapstructure:"promotion_threshold"`
	ExecPath           string `mapstructure:"exec_path"`
}

// DiscoveryConfig tunes career link classification.
type DiscoveryConfig struct {
	MatchStrategy  string   `mapstructure:"match_strategy"`
	RootPolicy     string   `mapstructure:"root_policy"`
	CareerKeywords []string `mapstructure:"career_keywords"`
}

// JobsConfig lists the job titles searched for on job pages.
type JobsConfig struct {
	Titles []string `mapstructure:"titles"`
}

// LanguageConfig tunes statistical language detection.
type LanguageConfig struct {
	MinConfidence float64 `mapstructure:"min_confidence"`
}

// TranslateConfig selects the keyword translator.
type TranslateConfig struct {
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	// Glossary maps language -> English term -> localized term.
	Glossary map[string]map[string]string `mapstructure:"glossary"`
}

// StoreConfig selects and configures the tabular store.
type StoreConfig struct {
	Provider        string         `mapstructure:"provider"`
	Spreadsheet     string         `mapstructure:"spreadsheet"`
	Worksheet       string         `mapstructure:"worksheet"`
	ThrottleRetries int            `mapstructure:"throttle_retries"`
	Sheets          SheetsConfig   `mapstructure:"sheets"`
	Postgres        PostgresConfig `mapstructure:"postgres"`
}

// SheetsConfig holds Google Sheets access settings.
type SheetsConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
}

// PostgresConfig holds the relational store settings.
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// ArchiveConfig selects where landing pages are archived.
type ArchiveConfig struct {
	Provider  string `mapstructure:"provider"`
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// PublishConfig selects where per-site events are published.
type PublishConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// ServerConfig controls the optional status server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CAREERS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("crawler.concurrency", 5)
	v.SetDefault("crawler.page_concurrency", 1)
	v.SetDefault("crawler.queue_depth", 64)
	v.SetDefault("crawler.delay_ms", 1000)
	v.SetDefault("crawler.jitter_ms", 500)
	v.SetDefault("crawler.domain_rps", 0)
	v.SetDefault("crawler.domain_burst", 1)
	v.SetDefault("crawler.fetch_attempts", 2)
	v.SetDefault("crawler.user_agent", DefaultUserAgent)
	v.SetDefault("crawler.referer", "https://www.google.com/")
	v.SetDefault("crawler.respect_robots", false)
	v.SetDefault("http.timeout_seconds", 10)
	v.SetDefault("fetcher.mode", "http")
	v.SetDefault("headless.max_parallel", 2)
	v.SetDefault("headless.nav_timeout_seconds", 30)
	v.SetDefault("headless.render_wait_ms", 3000)
	v.SetDefault("headless.promotion_threshold", 2048)
	v.SetDefault("discovery.match_strategy", "substring")
	v.SetDefault("discovery.root_policy", string(discovery.ShortestPrefix))
	v.SetDefault("discovery.career_keywords", keywords.DefaultCareerKeywords)
	v.SetDefault("jobs.titles", keywords.DefaultJobTitles)
	v.SetDefault("language.min_confidence", 0.5)
	v.SetDefault("translate.provider", "google")
	v.SetDefault("store.provider", "sheets")
	v.SetDefault("store.spreadsheet", "Parser")
	v.SetDefault("store.throttle_retries", 3)
	v.SetDefault("store.sheets.credentials_file", "credentials.json")
	v.SetDefault("store.postgres.table", "cells")
	v.SetDefault("store.postgres.max_conns", 4)
	v.SetDefault("archive.provider", "none")
	v.SetDefault("archive.prefix", "landing")
	v.SetDefault("publish.provider", "none")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.Crawler.PageConcurrency <= 0 {
		return fmt.Errorf("crawler.page_concurrency must be > 0")
	}
	if c.Crawler.DelayMs < 0 || c.Crawler.JitterMs < 0 {
		return fmt.Errorf("crawler.delay_ms and crawler.jitter_ms must be >= 0")
	}
	if c.Crawler.DomainRPS < 0 {
		return fmt.Errorf("crawler.domain_rps must be >= 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if _, err := discovery.StrategyByName(c.Discovery.MatchStrategy); err != nil {
		return fmt.Errorf("discovery.match_strategy: %w", err)
	}
	if _, err := discovery.ParseRootPolicy(c.Discovery.RootPolicy); err != nil {
		return fmt.Errorf("discovery.root_policy: %w", err)
	}
	if len(c.Discovery.CareerKeywords) == 0 {
		return fmt.Errorf("discovery.career_keywords must not be empty")
	}
	if len(c.Jobs.Titles) == 0 {
		return fmt.Errorf("jobs.titles must not be empty")
	}
	if err := c.validateFetcher(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

func (c Config) validateFetcher() error {
	switch c.Fetcher.Mode {
	case "http":
		return nil
	case "headless", "auto":
		if c.Headless.MaxParallel <= 0 {
			return fmt.Errorf("headless.max_parallel must be > 0 when fetcher.mode is %s", c.Fetcher.Mode)
		}
		if c.Headless.NavTimeoutSeconds <= 0 {
			return fmt.Errorf("headless.nav_timeout_seconds must be > 0")
		}
		return nil
	default:
		return fmt.Errorf("fetcher.mode %q is not one of http, headless, auto", c.Fetcher.Mode)
	}
}

func (c Config) validateProviders() error {
	switch c.Translate.Provider {
	case "google", "none":
	case "static":
		if len(c.Translate.Glossary) == 0 {
			return fmt.Errorf("translate.glossary must be set when translate.provider is static")
		}
	default:
		return fmt.Errorf("translate.provider %q is not one of google, static, none", c.Translate.Provider)
	}

	switch c.Store.Provider {
	case "sheets":
		if c.Store.Sheets.SpreadsheetID == "" && c.Store.Spreadsheet == "" {
			return fmt.Errorf("store.spreadsheet or store.sheets.spreadsheet_id must be set")
		}
		if c.Store.Sheets.CredentialsFile == "" {
			return fmt.Errorf("store.sheets.credentials_file must be set")
		}
	case "postgres":
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn must be set when store.provider is postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("store.provider %q is not one of sheets, postgres, memory", c.Store.Provider)
	}

	switch c.Archive.Provider {
	case "none", "memory":
	case "local":
		if c.Archive.BaseDir == "" {
			return fmt.Errorf("archive.base_dir must be set when archive.provider is local")
		}
	case "gcs":
		if c.Archive.GCSBucket == "" {
			return fmt.Errorf("archive.gcs_bucket must be set when archive.provider is gcs")
		}
	default:
		return fmt.Errorf("archive.provider %q is not one of none, memory, local, gcs", c.Archive.Provider)
	}

	switch c.Publish.Provider {
	case "none":
	case "memory":
		if c.Publish.Topic == "" {
			return fmt.Errorf("publish.topic must be set when publishing")
		}
	case "pubsub":
		if c.Publish.ProjectID == "" || c.Publish.Topic == "" {
			return fmt.Errorf("publish.project_id and publish.topic must be set when publish.provider is pubsub")
		}
	default:
		return fmt.Errorf("publish.provider %q is not one of none, memory, pubsub", c.Publish.Provider)
	}
	return nil
}

// FetchTimeout returns the per-request HTTP timeout.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// Delay returns the fixed pause between fetches.
func (c Config) Delay() time.Duration {
	return time.Duration(c.Crawler.DelayMs) * time.Millisecond
}

// Jitter returns the random extra pause between fetches.
func (c Config) Jitter() time.Duration {
	return time.Duration(c.Crawler.JitterMs) * time.Millisecond
}
