// Package config loads and validates bot configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all bot configuration knobs loaded via Viper. It is
// constructed once at startup and handed to each component explicitly.
type Config struct {
	Download     DownloadConfig     `mapstructure:"download"`
	Paths        PathsConfig        `mapstructure:"paths"`
	DatePatterns DatePatternsConfig `mapstructure:"date_patterns"`
	Months       map[string]string  `mapstructure:"months"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	LlamaParse   LlamaParseConfig   `mapstructure:"llama_parse"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Notify       NotifyConfig       `mapstructure:"notify"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

// DownloadConfig governs the report download and its retry schedule.
type DownloadConfig struct {
	URL            string  `mapstructure:"url"`
	TimeoutSeconds int     `mapstructure:"timeout"`
	MaxRetries     int     `mapstructure:"max_retries"`
	BackoffBaseSec float64 `mapstructure:"backoff_base"`
}

// Timeout converts the per-request timeout into a duration.
func (d DownloadConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// BackoffBase converts the backoff base into a duration.
func (d DownloadConfig) BackoffBase() time.Duration {
	return time.Duration(d.BackoffBaseSec * float64(time.Second))
}

// PathsConfig sets the on-disk layout: ledger file, debug artifact, and the
// root of the raw PDF archive.
type PathsConfig struct {
	LedgerFile string `mapstructure:"json_status_file"`
	DebugFile  string `mapstructure:"debug_file"`
	RawPDFBase string `mapstructure:"raw_pdf_base"`
}

// DatePatternsConfig holds the ordered publication-date patterns.
type DatePatternsConfig struct {
	Primary  string `mapstructure:"primary"`
	Fallback string `mapstructure:"fallback"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LlamaParseConfig configures the text-extraction collaborator.
type LlamaParseConfig struct {
	Provider        string `mapstructure:"provider"`
	BaseURL         string `mapstructure:"base_url"`
	APIKey          string `mapstructure:"api_key"`
	ResultType      string `mapstructure:"result_type"`
	Verbose         bool   `mapstructure:"verbose"`
	Language        string `mapstructure:"language"`
	PollIntervalSec int    `mapstructure:"poll_interval_seconds"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
}

// PollInterval converts the job polling interval into a duration.
func (l LlamaParseConfig) PollInterval() time.Duration {
	return time.Duration(l.PollIntervalSec) * time.Second
}

// Timeout converts the overall extraction deadline into a duration.
func (l LlamaParseConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// StorageConfig selects the optional cloud mirror for archived PDFs.
type StorageConfig struct {
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// NotifyConfig holds Pub/Sub coordinates for new-report notifications.
type NotifyConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// Enabled reports whether a Pub/Sub publisher should be constructed.
func (n NotifyConfig) Enabled() bool {
	return n.ProjectID != "" && n.TopicID != ""
}

// MetricsConfig configures the Pushgateway used at end of run.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	JobName        string `mapstructure:"job_name"`
}

// ConfigError marks a missing or malformed configuration value, detected at
// startup before any network activity.
type ConfigError struct {
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %v", e.Err)
}

// Unwrap exposes the underlying failure.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Load builds a Config from disk/environment. When path is empty only
// defaults and RENTAFIC_* environment variables apply.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RENTAFIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, &ConfigError{Err: fmt.Errorf("read config: %w", err)}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, &ConfigError{Err: fmt.Errorf("unmarshal config: %w", err)}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("download.timeout", 30)
	v.SetDefault("download.max_retries", 3)
	v.SetDefault("download.backoff_base", 5)
	v.SetDefault("paths.json_status_file", "data/state/processed.json")
	v.SetDefault("paths.debug_file", "data/debug/first_page.md")
	v.SetDefault("paths.raw_pdf_base", "data/raw")
	v.SetDefault("date_patterns.primary",
		`Fecha de publicación:\s*(\d{1,2}) de ([a-záéíóúñ]+) de (\d{4})`)
	v.SetDefault("date_patterns.fallback",
		`Fecha de publicación\s+(\d{1,2})\s+de\s+([a-záéíóúñ]+)\s+de\s+(\d{4})`)
	v.SetDefault("months", map[string]string{
		"enero": "01", "febrero": "02", "marzo": "03", "abril": "04",
		"mayo": "05", "junio": "06", "julio": "07", "agosto": "08",
		"septiembre": "09", "octubre": "10", "noviembre": "11", "diciembre": "12",
	})
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("llama_parse.provider", "llama")
	v.SetDefault("llama_parse.base_url", "https://api.cloud.llamaindex.ai")
	v.SetDefault("llama_parse.result_type", "markdown")
	v.SetDefault("llama_parse.verbose", false)
	v.SetDefault("llama_parse.language", "es")
	v.SetDefault("llama_parse.poll_interval_seconds", 2)
	v.SetDefault("llama_parse.timeout_seconds", 120)
	v.SetDefault("metrics.job_name", "rentafic")
}

// Validate enforces required values before any network activity happens.
// Every failure is returned as a *ConfigError.
func (c Config) Validate() error {
	if err := c.validate(); err != nil {
		return &ConfigError{Err: err}
	}
	return nil
}

func (c Config) validate() error {
	if c.Download.URL == "" {
		return fmt.Errorf("download.url must be set")
	}
	if u, err := url.Parse(c.Download.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("download.url %q is not an absolute URL", c.Download.URL)
	}
	if c.Download.TimeoutSeconds <= 0 {
		return fmt.Errorf("download.timeout must be > 0")
	}
	if c.Download.MaxRetries < 0 {
		return fmt.Errorf("download.max_retries must be >= 0")
	}
	if c.Download.BackoffBaseSec <= 0 {
		return fmt.Errorf("download.backoff_base must be > 0")
	}
	if c.Paths.LedgerFile == "" {
		return fmt.Errorf("paths.json_status_file must be set")
	}
	if c.Paths.DebugFile == "" {
		return fmt.Errorf("paths.debug_file must be set")
	}
	if c.Paths.RawPDFBase == "" {
		return fmt.Errorf("paths.raw_pdf_base must be set")
	}
	if err := validatePattern("date_patterns.primary", c.DatePatterns.Primary); err != nil {
		return err
	}
	if err := validatePattern("date_patterns.fallback", c.DatePatterns.Fallback); err != nil {
		return err
	}
	if err := validateMonths(c.Months); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	switch c.LlamaParse.Provider {
	case "llama", "local":
	default:
		return fmt.Errorf("llama_parse.provider must be llama or local, got %q", c.LlamaParse.Provider)
	}
	if c.LlamaParse.PollIntervalSec <= 0 {
		return fmt.Errorf("llama_parse.poll_interval_seconds must be > 0")
	}
	if c.LlamaParse.TimeoutSeconds <= 0 {
		return fmt.Errorf("llama_parse.timeout_seconds must be > 0")
	}
	return nil
}

func validatePattern(key, pattern string) error {
	if pattern == "" {
		return fmt.Errorf("%s must be set", key)
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return fmt.Errorf("%s does not compile: %w", key, err)
	}
	if re.NumSubexp() != 3 {
		return fmt.Errorf("%s must capture day, month and year (3 groups), has %d", key, re.NumSubexp())
	}
	return nil
}

// validateMonths requires a complete month table: twelve names, each mapped
// to a distinct two-digit number 01..12. A partial table is a configuration
// error, not a runtime surprise.
func validateMonths(months map[string]string) error {
	if len(months) != 12 {
		return fmt.Errorf("months must have exactly 12 entries, has %d", len(months))
	}
	seen := make(map[string]string, 12)
	for name, num := range months {
		if name != strings.ToLower(name) {
			return fmt.Errorf("months: name %q must be lowercase", name)
		}
		if len(num) != 2 || num < "01" || num > "12" {
			return fmt.Errorf("months: %q maps to invalid month number %q", name, num)
		}
		if prev, dup := seen[num]; dup {
			return fmt.Errorf("months: %q and %q both map to %s", prev, name, num)
		}
		seen[num] = name
	}
	return nil
}
