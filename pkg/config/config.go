package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the bot tagger
type Config struct {
	// Reddit endpoint and credentials
	Reddit RedditConfig `yaml:"reddit" json:"reddit"`

	// Scan/drain cadence and throttle recovery
	Schedule ScheduleConfig `yaml:"schedule" json:"schedule"`

	// Fetch queue bounds
	Queue QueueConfig `yaml:"queue" json:"queue"`

	// Scoring policy
	Scoring ScoringConfig `yaml:"scoring" json:"scoring"`

	// Throttle state backend and proactive pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Page source and annotated output
	Page PageConfig `yaml:"page" json:"page"`

	// Feature settings store
	Settings SettingsConfig `yaml:"settings" json:"settings"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Prometheus endpoint
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Terminal UI
	UI UIConfig `yaml:"ui" json:"ui"`
}

// RedditConfig holds Reddit API configuration
type RedditConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	OAuthBaseURL   string        `yaml:"oauth_base_url" json:"oauth_base_url"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	AccessToken    string        `yaml:"access_token" json:"access_token"`
	Account        string        `yaml:"account" json:"account"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// ScheduleConfig holds the scheduler cadence
type ScheduleConfig struct {
	ScanInterval     time.Duration `yaml:"scan_interval" json:"scan_interval"`
	DrainInterval    time.Duration `yaml:"drain_interval" json:"drain_interval"`
	ThrottleFallback time.Duration `yaml:"throttle_fallback" json:"throttle_fallback"`
	RequeueOnTimeout bool          `yaml:"requeue_on_timeout" json:"requeue_on_timeout"`
}

// QueueConfig bounds the fetch queue
type QueueConfig struct {
	Capacity int    `yaml:"capacity" json:"capacity"`
	Overflow string `yaml:"overflow" json:"overflow"`
}

// ScoringConfig holds the automation likelihood policy
type ScoringConfig struct {
	EligibilityFloor int64   `yaml:"eligibility_floor" json:"eligibility_floor"`
	AgeDecay         bool    `yaml:"age_decay" json:"age_decay"`
	DecayPerYear     float64 `yaml:"decay_per_year" json:"decay_per_year"`
	MediumThreshold  float64 `yaml:"medium_threshold" json:"medium_threshold"`
	HighThreshold    float64 `yaml:"high_threshold" json:"high_threshold"`
	Presentation     string  `yaml:"presentation" json:"presentation"`
	GradientMin      float64 `yaml:"gradient_min" json:"gradient_min"`
	GradientMax      float64 `yaml:"gradient_max" json:"gradient_max"`
}

// RateLimitConfig holds throttle storage and pacing configuration
type RateLimitConfig struct {
	Backend           string `yaml:"backend" json:"backend"`
	RedisAddr         string `yaml:"redis_addr" json:"redis_addr"`
	RedisPassword     string `yaml:"redis_password" json:"redis_password"`
	RedisDB           int    `yaml:"redis_db" json:"redis_db"`
	RedisPrefix       string `yaml:"redis_prefix" json:"redis_prefix"`
	RequestsPerMinute int    `yaml:"requests_per_minute" json:"requests_per_minute"`
	Algorithm         string `yaml:"algorithm" json:"algorithm"`
}

// PageConfig holds page source and snapshot output configuration
type PageConfig struct {
	Source          string        `yaml:"source" json:"source"`
	RefreshInterval time.Duration `yaml:"refresh_interval" json:"refresh_interval"`
	Output          string        `yaml:"output" json:"output"`
	FlushInterval   time.Duration `yaml:"flush_interval" json:"flush_interval"`
	RetryAttempts   int           `yaml:"retry_attempts" json:"retry_attempts"`
}

// SettingsConfig locates the feature settings store
type SettingsConfig struct {
	Path string `yaml:"path" json:"path"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	OnRateLimit      bool   `yaml:"on_rate_limit" json:"on_rate_limit"`
	OnError          bool   `yaml:"on_error" json:"on_error"`
	NotificationType string `yaml:"notification_type" json:"notification_type"`
}

// MetricsConfig holds the Prometheus listener configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// UIConfig holds terminal UI preferences
type UIConfig struct {
	Dashboard bool `yaml:"dashboard" json:"dashboard"`
	Recent    int  `yaml:"recent" json:"recent"`
}

// Presentation modes
const (
	PresentationBands    = "bands"
	PresentationGradient = "gradient"
)

// Overflow policies
const (
	OverflowDropNew    = "drop_new"
	OverflowDropOldest = "drop_oldest"
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Reddit: RedditConfig{
			BaseURL:        "https://www.reddit.com",
			OAuthBaseURL:   "https://oauth.reddit.com",
			UserAgent:      "bottagger/1.0 (profile ratio annotator)",
			RequestTimeout: 15 * time.Second,
		},
		Schedule: ScheduleConfig{
			ScanInterval:     time.Second,
			DrainInterval:    2 * time.Second,
			ThrottleFallback: 600 * time.Second,
			RequeueOnTimeout: true,
		},
		Queue: QueueConfig{
			Capacity: 500,
			Overflow: OverflowDropNew,
		},
		Scoring: ScoringConfig{
			EligibilityFloor: 100000,
			AgeDecay:         true,
			DecayPerYear:     5,
			MediumThreshold:  50,
			HighThreshold:    100,
			Presentation:     PresentationBands,
			GradientMin:      0,
			GradientMax:      10,
		},
		RateLimit: RateLimitConfig{
			Backend:           "memory",
			RedisAddr:         "localhost:6379",
			RedisPrefix:       "bottagger",
			RequestsPerMinute: 0, // 0 disables proactive pacing
			Algorithm:         "token_bucket",
		},
		Page: PageConfig{
			RefreshInterval: 30 * time.Second,
			FlushInterval:   2 * time.Second,
			RetryAttempts:   3,
		},
		Notifications: NotificationConfig{
			Enabled:          true,
			OnRateLimit:      true,
			OnError:          true,
			NotificationType: "terminal",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9464",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		UI: UIConfig{
			Dashboard: false,
			Recent:    12,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv("BOTTAGGER_BASE_URL"); v != "" {
		c.Reddit.BaseURL = v
	}
	if v := os.Getenv("BOTTAGGER_USER_AGENT"); v != "" {
		c.Reddit.UserAgent = v
	}
	if v := os.Getenv("BOTTAGGER_ACCESS_TOKEN"); v != "" {
		c.Reddit.AccessToken = v
	}
	if v := os.Getenv("BOTTAGGER_ACCOUNT"); v != "" {
		c.Reddit.Account = v
	}
	envDuration("BOTTAGGER_REQUEST_TIMEOUT", &c.Reddit.RequestTimeout, &errs)

	envDuration("BOTTAGGER_SCAN_INTERVAL", &c.Schedule.ScanInterval, &errs)
	envDuration("BOTTAGGER_DRAIN_INTERVAL", &c.Schedule.DrainInterval, &errs)
	envDuration("BOTTAGGER_THROTTLE_FALLBACK", &c.Schedule.ThrottleFallback, &errs)

	if v := os.Getenv("BOTTAGGER_QUEUE_CAPACITY"); v != "" {
		var val int
		if _, err := fmt.Sscanf(v, "%d", &val); err != nil {
			errs = append(errs, fmt.Errorf("BOTTAGGER_QUEUE_CAPACITY: %w", err))
		} else if val >= 0 {
			c.Queue.Capacity = val
		}
	}
	if v := os.Getenv("BOTTAGGER_QUEUE_OVERFLOW"); v != "" {
		c.Queue.Overflow = strings.ToLower(v)
	}

	if v := os.Getenv("BOTTAGGER_PRESENTATION"); v != "" {
		c.Scoring.Presentation = strings.ToLower(v)
	}
	if v := os.Getenv("BOTTAGGER_AGE_DECAY"); v != "" {
		c.Scoring.AgeDecay = strings.ToLower(v) == "true"
	}

	if v := os.Getenv("BOTTAGGER_RATE_LIMIT_BACKEND"); v != "" {
		c.RateLimit.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("BOTTAGGER_REDIS_ADDR"); v != "" {
		c.RateLimit.RedisAddr = v
	}
	if v := os.Getenv("BOTTAGGER_REDIS_PASSWORD"); v != "" {
		c.RateLimit.RedisPassword = v
	}
	if v := os.Getenv("BOTTAGGER_REQUESTS_PER_MINUTE"); v != "" {
		var val int
		fmt.Sscanf(v, "%d", &val)
		if val >= 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if v := os.Getenv("BOTTAGGER_PAGE_SOURCE"); v != "" {
		c.Page.Source = v
	}
	if v := os.Getenv("BOTTAGGER_PAGE_OUTPUT"); v != "" {
		c.Page.Output = v
	}
	envDuration("BOTTAGGER_REFRESH_INTERVAL", &c.Page.RefreshInterval, &errs)

	if v := os.Getenv("BOTTAGGER_SETTINGS_PATH"); v != "" {
		c.Settings.Path = v
	}

	if v := os.Getenv("BOTTAGGER_NOTIFICATIONS_ENABLED"); v != "" {
		c.Notifications.Enabled = strings.ToLower(v) == "true"
	}

	if v := os.Getenv("BOTTAGGER_METRICS_ENABLED"); v != "" {
		c.Metrics.Enabled = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("BOTTAGGER_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}

	if v := os.Getenv("BOTTAGGER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("BOTTAGGER_LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return errors.Join(errs...)
}

func envDuration(key string, dst *time.Duration, errs *[]error) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	d, err := parseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = d
}

// parseDuration accepts Go duration strings and bare integers as seconds.
func parseDuration(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".bottagger.yaml",
		".bottagger.yml",
		filepath.Join(home, ".config", "bottagger", "config.yaml"),
		filepath.Join(home, ".config", "bottagger", "config.yml"),
		filepath.Join(home, ".bottagger.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if _, err := url.ParseRequestURI(c.Reddit.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("invalid reddit base URL: %w", err))
	}
	if c.Reddit.AccessToken != "" && c.Reddit.OAuthBaseURL == "" {
		errs = append(errs, errors.New("oauth base URL is required when an access token is set"))
	}
	if c.Reddit.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}
	if c.Reddit.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Schedule.ScanInterval <= 0 {
		errs = append(errs, errors.New("scan interval must be positive"))
	}
	if c.Schedule.DrainInterval <= 0 {
		errs = append(errs, errors.New("drain interval must be positive"))
	}
	if c.Schedule.ThrottleFallback <= 0 {
		errs = append(errs, errors.New("throttle fallback must be positive"))
	}

	if c.Queue.Capacity < 0 {
		errs = append(errs, errors.New("queue capacity cannot be negative"))
	}
	switch c.Queue.Overflow {
	case OverflowDropNew, OverflowDropOldest:
	default:
		errs = append(errs, fmt.Errorf("invalid queue overflow policy %q", c.Queue.Overflow))
	}

	if c.Scoring.EligibilityFloor < 0 {
		errs = append(errs, errors.New("eligibility floor cannot be negative"))
	}
	if c.Scoring.MediumThreshold >= c.Scoring.HighThreshold {
		errs = append(errs, errors.New("medium threshold must be below high threshold"))
	}
	switch c.Scoring.Presentation {
	case PresentationBands:
	case PresentationGradient:
		if c.Scoring.GradientMin >= c.Scoring.GradientMax {
			errs = append(errs, errors.New("gradient min must be below gradient max"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid presentation %q", c.Scoring.Presentation))
	}

	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if c.RateLimit.RedisAddr == "" {
			errs = append(errs, errors.New("redis address is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid rate limit backend %q", c.RateLimit.Backend))
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	switch c.RateLimit.Algorithm {
	case "token_bucket", "sliding_window":
	default:
		errs = append(errs, fmt.Errorf("invalid rate limit algorithm %q", c.RateLimit.Algorithm))
	}

	if c.Page.RefreshInterval < 0 {
		errs = append(errs, errors.New("refresh interval cannot be negative"))
	}
	if c.Page.FlushInterval <= 0 {
		errs = append(errs, errors.New("flush interval must be positive"))
	}
	if c.Page.RetryAttempts < 1 {
		errs = append(errs, errors.New("page retry attempts must be at least 1"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	validNotifTypes := map[string]bool{
		"terminal": true, "desktop": true, "none": true,
	}
	if !validNotifTypes[strings.ToLower(c.Notifications.NotificationType)] {
		errs = append(errs, errors.New("invalid notification type"))
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, errors.New("metrics address is required when metrics are enabled"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Zero values are ignored so unset flags never override other sources.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Page.Output = v
	}
	if v, ok := flags["source"].(string); ok && v != "" {
		c.Page.Source = v
	}
	if v, ok := flags["refresh-interval"].(time.Duration); ok && v > 0 {
		c.Page.RefreshInterval = v
	}
	if v, ok := flags["scan-interval"].(time.Duration); ok && v > 0 {
		c.Schedule.ScanInterval = v
	}
	if v, ok := flags["drain-interval"].(time.Duration); ok && v > 0 {
		c.Schedule.DrainInterval = v
	}
	if v, ok := flags["presentation"].(string); ok && v != "" {
		c.Scoring.Presentation = strings.ToLower(v)
	}
	if v, ok := flags["account"].(string); ok && v != "" {
		c.Reddit.Account = v
	}
	if v, ok := flags["metrics-addr"].(string); ok && v != "" {
		c.Metrics.Enabled = true
		c.Metrics.Addr = v
	}
	if v, ok := flags["redis-addr"].(string); ok && v != "" {
		c.RateLimit.Backend = "redis"
		c.RateLimit.RedisAddr = v
	}
	if v, ok := flags["dashboard"].(bool); ok && v {
		c.UI.Dashboard = true
	}
	if v, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".bottagger.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
