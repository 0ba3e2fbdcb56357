package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// EnvPrefix namespaces every environment variable, e.g. SALES_SERVER_PORT
const EnvPrefix = "SALES"

// ConfigFileEnv names the variable that points at an explicit YAML file
const ConfigFileEnv = "SALES_CONFIG_FILE"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Domain    DomainConfig    `yaml:"domain" envconfig:"DOMAIN"`
	Period    PeriodConfig    `yaml:"period" envconfig:"PERIOD"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration   `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	RunTimeout      time.Duration   `yaml:"run_timeout" envconfig:"RUN_TIMEOUT" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration.
// Relative input and report paths resolve against DataDir.
type PathsConfig struct {
	DataDir          string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	TransactionsFile string `yaml:"transactions_file" envconfig:"TRANSACTIONS_FILE" validate:"required"`
	ProductsFile     string `yaml:"products_file" envconfig:"PRODUCTS_FILE" validate:"required"`
	CategoriesFile   string `yaml:"categories_file" envconfig:"CATEGORIES_FILE" validate:"required"`
	ReportsDir       string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	LogsDir          string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// DomainConfig holds the domain filter and tier thresholds.
// Empty lists are legal; an empty allowlist yields an empty dataset.
type DomainConfig struct {
	Denylist       []string              `yaml:"denylist" envconfig:"DENYLIST"`
	Allowlist      []string              `yaml:"allowlist" envconfig:"ALLOWLIST"`
	TierThresholds domain.TierThresholds `yaml:"tier_thresholds" envconfig:"TIER_THRESHOLDS"`
}

// PeriodConfig selects the one-month window a run analyses
type PeriodConfig struct {
	Enabled     bool `yaml:"enabled" envconfig:"ENABLED"`
	TargetYear  int  `yaml:"target_year" envconfig:"TARGET_YEAR" validate:"min=1,max=9999"`
	TargetMonth int  `yaml:"target_month" envconfig:"TARGET_MONTH" validate:"min=1,max=12"`
	SourceYear  int  `yaml:"source_year" envconfig:"SOURCE_YEAR" validate:"min=0,max=9999"`
}

// AnalysisConfig tunes the reporting consumers
type AnalysisConfig struct {
	COGSRatio           float64 `yaml:"cogs_ratio" envconfig:"COGS_RATIO" validate:"gte=0,lte=1"`
	ForecastHorizonDays int     `yaml:"forecast_horizon_days" envconfig:"FORECAST_HORIZON_DAYS" validate:"min=0,max=366"`
	TopN                int     `yaml:"top_n" envconfig:"TOP_N" validate:"min=1"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" validate:"gtfield=PingPeriod"`
}

// TelemetryConfig controls OpenTelemetry setup
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TracesEnabled  bool   `yaml:"traces_enabled" envconfig:"TRACES_ENABLED"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// Load builds the configuration from defaults, the YAML file named by
// SALES_CONFIG_FILE (or the first config.yaml found) and the environment.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(ConfigFileEnv))
}

// LoadFile is Load with an explicit config file. An empty path searches the
// usual locations; an explicit path that does not exist is an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	} else if _, err := os.Stat(path); err != nil {
		return nil, apperrors.NewConfigError("config file not readable", err).WithContext("path", path)
	}

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).WithContext("path", path)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays the YAML document onto cfg. Keys absent from the
// file keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var validate = validator.New()

// Validate checks struct constraints and the cross-field tier rule
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}
	if err := c.Domain.TierThresholds.Validate(); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
		"../../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Resolve joins a configured path onto the data directory unless absolute
func (c *Config) Resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Paths.DataDir, p)
}

// Summary returns the attributes worth logging at startup
func (c *Config) Summary() map[string]interface{} {
	return map[string]interface{}{
		"data_dir":        c.Paths.DataDir,
		"reports_dir":     c.Resolve(c.Paths.ReportsDir),
		"allowlist_size":  len(c.Domain.Allowlist),
		"denylist_size":   len(c.Domain.Denylist),
		"tier_a":          c.Domain.TierThresholds.A,
		"tier_b":          c.Domain.TierThresholds.B,
		"period_enabled":  c.Period.Enabled,
		"period":          fmt.Sprintf("%04d-%02d", c.Period.TargetYear, c.Period.TargetMonth),
		"cogs_ratio":      c.Analysis.COGSRatio,
		"forecast_days":   c.Analysis.ForecastHorizonDays,
		"metrics_enabled": c.Telemetry.MetricsEnabled,
	}
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  30 * time.Second,
			RunTimeout:      DefaultRunTimeout,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimitRPS,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Output:   "both",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir:          DefaultDataDir,
			TransactionsFile: DefaultTransactionsFile,
			ProductsFile:     DefaultProductsFile,
			CategoriesFile:   DefaultCategoriesFile,
			ReportsDir:       DefaultReportsDir,
			LogsDir:          DefaultLogsDir,
		},
		Domain: DomainConfig{
			Denylist:       append([]string(nil), DefaultDenylist...),
			Allowlist:      append([]string(nil), DefaultAllowlist...),
			TierThresholds: domain.DefaultTierThresholds(),
		},
		Period: PeriodConfig{
			Enabled:     true,
			TargetYear:  DefaultTargetYear,
			TargetMonth: DefaultTargetMonth,
			SourceYear:  DefaultSourceYear,
		},
		Analysis: AnalysisConfig{
			COGSRatio:           DefaultCOGSRatio,
			ForecastHorizonDays: DefaultForecastHorizonDays,
			TopN:                DefaultTopN,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  WebSocketReadBufferSize,
			WriteBufferSize: WebSocketWriteBufferSize,
			PingPeriod:      WebSocketPingPeriod,
			PongWait:        WebSocketPongWait,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			TracesEnabled:  false,
			MetricsEnabled: true,
		},
	}
}
