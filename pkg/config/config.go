package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the crawler, the worker and the API.
type Config struct {
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	ServerPort  string `mapstructure:"SERVER_PORT"`
	MetricsPort string `mapstructure:"METRICS_PORT"` // crawler /metrics listener, empty disables it

	BaseURL         string `mapstructure:"BASE_URL"`
	MaxSections     int    `mapstructure:"MAX_SECTIONS"`
	PagesPerSection int    `mapstructure:"PAGES_PER_SECTION"`
	MonthWindow     int    `mapstructure:"MONTH_WINDOW"`

	WaitTimeoutSeconds int `mapstructure:"WAIT_TIMEOUT_SECONDS"`
	ClickSettleMS      int `mapstructure:"CLICK_SETTLE_MS"`
	PageSettleMS       int `mapstructure:"PAGE_SETTLE_MS"`
	SectionSettleMS    int `mapstructure:"SECTION_SETTLE_MS"`
	DetailSettleMS     int `mapstructure:"DETAIL_SETTLE_MS"`
	MonthSettleMS      int `mapstructure:"MONTH_SETTLE_MS"`
	TabCloseSettleMS   int `mapstructure:"TAB_CLOSE_SETTLE_MS"`

	FirstSectionStartControl int `mapstructure:"FIRST_SECTION_START_CONTROL"`
	LaterSectionStartControl int `mapstructure:"LATER_SECTION_START_CONTROL"`
	RunStartControl          int `mapstructure:"RUN_START_CONTROL"`

	LoginWaitSeconds     int      `mapstructure:"LOGIN_WAIT_SECONDS"`
	Headless             bool     `mapstructure:"HEADLESS"`
	Proxies              []string `mapstructure:"PROXIES"`
	UserAgents           []string `mapstructure:"USER_AGENTS"`
	ListingRatePerSecond float64  `mapstructure:"LISTING_RATE_PER_SECOND"`

	OutputDir          string `mapstructure:"OUTPUT_DIR"`
	ImageDir           string `mapstructure:"IMAGE_DIR"`
	DownloadThumbnails bool   `mapstructure:"DOWNLOAD_THUMBNAILS"`

	PostgresURL   string `mapstructure:"POSTGRES_URL"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	RecrawlTTLHours int    `mapstructure:"RECRAWL_TTL_HOURS"`
	TimeAPIURL      string `mapstructure:"TIME_API_URL"`
	TimeZone        string `mapstructure:"TIME_ZONE"`
}

var defaults = map[string]any{
	"LOG_LEVEL":    "info",
	"SERVER_PORT":  "8080",
	"METRICS_PORT": "9091",

	"BASE_URL":          "https://33m2.co.kr",
	"MAX_SECTIONS":      100,
	"PAGES_PER_SECTION": 10,
	"MONTH_WINDOW":      3,

	"WAIT_TIMEOUT_SECONDS": 10,
	"CLICK_SETTLE_MS":      500,
	"PAGE_SETTLE_MS":       2000,
	"SECTION_SETTLE_MS":    3000,
	"DETAIL_SETTLE_MS":     1000,
	"MONTH_SETTLE_MS":      1000,
	"TAB_CLOSE_SETTLE_MS":  500,

	"FIRST_SECTION_START_CONTROL": 2,
	"LATER_SECTION_START_CONTROL": 3,
	"RUN_START_CONTROL":           4,

	"LOGIN_WAIT_SECONDS":      0,
	"HEADLESS":                true,
	"PROXIES":                 "",
	"USER_AGENTS":             "",
	"LISTING_RATE_PER_SECOND": 0.0,

	"OUTPUT_DIR":          "output",
	"IMAGE_DIR":           "images",
	"DOWNLOAD_THUMBNAILS": false,

	"POSTGRES_URL":   "",
	"REDIS_ADDR":     "localhost:6379",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,

	"RECRAWL_TTL_HOURS": 48,
	"TIME_API_URL":      "https://worldtimeapi.org/api/timezone/Asia/Seoul",
	"TIME_ZONE":         "Asia/Seoul",
}

// Load reads configuration from the optional env file at path and the environment.
// An empty path means ".env" in the working directory.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ".env"
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// A missing file is fine; the environment alone is enough in production.
	_ = v.ReadInConfig()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Proxies = compact(cfg.Proxies)
	cfg.UserAgents = compact(cfg.UserAgents)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the crawler cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.BaseURL) == "" {
		errs = append(errs, errors.New("BASE_URL is required"))
	}
	if c.MaxSections < 1 {
		errs = append(errs, fmt.Errorf("MAX_SECTIONS must be >= 1, got %d", c.MaxSections))
	}
	if c.PagesPerSection < 1 {
		errs = append(errs, fmt.Errorf("PAGES_PER_SECTION must be >= 1, got %d", c.PagesPerSection))
	}
	if c.MonthWindow < 1 {
		errs = append(errs, fmt.Errorf("MONTH_WINDOW must be >= 1, got %d", c.MonthWindow))
	}
	if c.WaitTimeoutSeconds < 1 {
		errs = append(errs, fmt.Errorf("WAIT_TIMEOUT_SECONDS must be >= 1, got %d", c.WaitTimeoutSeconds))
	}
	if c.ListingRatePerSecond < 0 {
		errs = append(errs, fmt.Errorf("LISTING_RATE_PER_SECOND must not be negative, got %v", c.ListingRatePerSecond))
	}
	return errors.Join(errs...)
}

func (c *Config) WaitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutSeconds) * time.Second
}

func (c *Config) LoginWait() time.Duration {
	return time.Duration(c.LoginWaitSeconds) * time.Second
}

func (c *Config) RecrawlTTL() time.Duration {
	return time.Duration(c.RecrawlTTLHours) * time.Hour
}

// Millis converts one of the *_MS settings to a duration.
func Millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func compact(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
