package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Catalog   CatalogConfig
	Stores    StoresConfig
	Innergy   InnergyConfig
	Templates TemplatesConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	Output     string // stdout, stderr, or file path
	MaxSizeMB  int    // rotation size for file output
	MaxBackups int
	MaxAgeDays int
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// CatalogConfig holds the shared catalog connection settings.
// A postgres:// URL selects postgres; anything else is a sqlite file path.
type CatalogConfig struct {
	ConnectionString string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  int // in minutes
}

// StoresConfig holds per-project store settings
type StoresConfig struct {
	Dir string
}

// InnergyConfig holds credentials for the external project system
type InnergyConfig struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
}

// TemplatesConfig lists template search paths used by downstream exporters
type TemplatesConfig struct {
	Paths []string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string // browser origins allowed to call the API
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool // Enable catalog query tracing (otelgorm)
	DBLogFullSQL      bool
	MetricsEnabled    bool // Export sync metrics over OTLP
	MetricsInterval   int  // export interval in seconds
}

// Settings is the immutable value injected into services that talk to the
// external system or resolve stores. Obtain it with Config.Settings.
type Settings struct {
	apiKey           string
	baseURL          string
	connectionString string
	templatePaths    []string
}

// NewSettings builds a Settings value
func NewSettings(apiKey, baseURL, connectionString string, templatePaths []string) Settings {
	return Settings{
		apiKey:           strings.TrimSpace(apiKey),
		baseURL:          strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		connectionString: connectionString,
		templatePaths:    append([]string(nil), templatePaths...),
	}
}

// APIKey returns the external API key
func (s Settings) APIKey() string { return s.apiKey }

// BaseURL returns the external API base URL without a trailing slash
func (s Settings) BaseURL() string { return s.baseURL }

// ConnectionString returns the catalog connection string
func (s Settings) ConnectionString() string { return s.connectionString }

// TemplatePaths returns a copy of the template search paths
func (s Settings) TemplatePaths() []string { return append([]string(nil), s.templatePaths...) }

// HasCredentials reports whether both the API key and base URL are set
func (s Settings) HasCredentials() bool {
	return s.apiKey != "" && s.baseURL != ""
}

// Settings returns the immutable settings value for this configuration
func (c *Config) Settings() Settings {
	return NewSettings(c.Innergy.APIKey, c.Innergy.BaseURL, c.Catalog.ConnectionString, c.Templates.Paths)
}

// Load loads configuration from config.toml in the usual search paths and
// environment variables.
// Priority (highest to lowest):
// 1. Environment variables with MMX_ prefix (e.g., MMX_INNERGY_API_KEY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the
// default locations.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("./data")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("MMX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unprefixed names used by existing desktop installs
	_ = v.BindEnv("innergy.api_key", "MMX_INNERGY_API_KEY", "INNERGY_API_KEY")
	_ = v.BindEnv("innergy.base_url", "MMX_INNERGY_BASE_URL", "INNERGY_BASE_URL")
	_ = v.BindEnv("catalog.connection_string", "MMX_CATALOG_CONNECTION_STRING", "DATABASE_URL")

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Catalog: CatalogConfig{
			ConnectionString: v.GetString("catalog.connection_string"),
			MaxOpenConns:     v.GetInt("catalog.max_open_conns"),
			MaxIdleConns:     v.GetInt("catalog.max_idle_conns"),
			ConnMaxLifetime:  v.GetInt("catalog.conn_max_lifetime"),
		},
		Stores: StoresConfig{
			Dir: v.GetString("stores.dir"),
		},
		Innergy: InnergyConfig{
			APIKey:         v.GetString("innergy.api_key"),
			BaseURL:        v.GetString("innergy.base_url"),
			TimeoutSeconds: v.GetInt("innergy.timeout_seconds"),
		},
		Templates: TemplatesConfig{
			Paths: v.GetStringSlice("templates.paths"),
		},
		Log: LogConfig{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Output:     v.GetString("log.output"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetInt("telemetry.metrics_interval"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "spec-manager"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Catalog.ConnectionString == "" {
		cfg.Catalog.ConnectionString = "data/catalog.db"
	}
	if cfg.Catalog.MaxOpenConns == 0 {
		cfg.Catalog.MaxOpenConns = 10
	}
	if cfg.Catalog.MaxIdleConns == 0 {
		cfg.Catalog.MaxIdleConns = 2
	}
	if cfg.Catalog.ConnMaxLifetime == 0 {
		cfg.Catalog.ConnMaxLifetime = 60
	}
	if cfg.Stores.Dir == "" {
		cfg.Stores.Dir = "data/projects"
	}
	if cfg.Innergy.TimeoutSeconds == 0 {
		cfg.Innergy.TimeoutSeconds = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 50
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 5
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = 30
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	// Sync and activation can take a while on large projects
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 5 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "spec-manager"
	}
	if cfg.Telemetry.MetricsInterval <= 0 {
		cfg.Telemetry.MetricsInterval = 60
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Catalog.MaxOpenConns <= 0 {
		return fmt.Errorf("catalog.max_open_conns must be positive")
	}
	if c.Catalog.MaxIdleConns < 0 {
		return fmt.Errorf("catalog.max_idle_conns cannot be negative")
	}
	if c.Catalog.MaxIdleConns > c.Catalog.MaxOpenConns {
		return fmt.Errorf("catalog.max_idle_conns (%d) cannot exceed catalog.max_open_conns (%d)",
			c.Catalog.MaxIdleConns, c.Catalog.MaxOpenConns)
	}
	if c.Innergy.TimeoutSeconds < 0 {
		return fmt.Errorf("innergy.timeout_seconds cannot be negative")
	}
	if c.Innergy.BaseURL != "" {
		u, err := url.Parse(c.Innergy.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("innergy.base_url must be an absolute URL, got %q", c.Innergy.BaseURL)
		}
	}
	if c.App.Env == "production" && c.Telemetry.DBLogFullSQL {
		return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	return nil
}

// IsPostgres reports whether the catalog connection string selects postgres
func (c *CatalogConfig) IsPostgres() bool {
	s := strings.ToLower(c.ConnectionString)
	return strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://")
}

// InnergyTimeout returns the HTTP timeout for the external client
func (c *InnergyConfig) InnergyTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
