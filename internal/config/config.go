package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "pricescope/internal/errors"
)

// EnvPrefix namespaces every environment variable, e.g. PRICESCOPE_SERVER_PORT
const EnvPrefix = "PRICESCOPE"

// ConfigFileEnv names the YAML file to load, overriding the search locations
const ConfigFileEnv = EnvPrefix + "_CONFIG_FILE"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Store     StoreConfig     `yaml:"store" envconfig:"STORE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" envconfig:"MAX_BODY_BYTES"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ReportConfig controls how reports are produced
type ReportConfig struct {
	OutputDir       string  `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	LogoPath        string  `yaml:"logo_path" envconfig:"LOGO_PATH"`
	PageSize        string  `yaml:"page_size" envconfig:"PAGE_SIZE"`
	PreviewLimit    int     `yaml:"preview_limit" envconfig:"PREVIEW_LIMIT"`
	PriceBand       float64 `yaml:"price_band" envconfig:"PRICE_BAND"`
	MaxRecords      int     `yaml:"max_records" envconfig:"MAX_RECORDS"`
	IncludeXLSX     bool    `yaml:"include_xlsx" envconfig:"INCLUDE_XLSX"`
	CSVBOM          bool    `yaml:"csv_bom" envconfig:"CSV_BOM"`
	CopyrightHolder string  `yaml:"copyright_holder" envconfig:"COPYRIGHT_HOLDER"`
	Compress        bool    `yaml:"compress" envconfig:"COMPRESS"`
}

// StoreConfig selects the record source
type StoreConfig struct {
	Driver string `yaml:"driver" envconfig:"DRIVER"`
	DSN    string `yaml:"dsn" envconfig:"DSN"`
	Table  string `yaml:"table" envconfig:"TABLE"`
	Limit  int    `yaml:"limit" envconfig:"LIMIT"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. A .env file in the working
// directory is read first; it never overrides variables already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NewConfigError("failed to read .env file", err)
	}
	return LoadFile(configFilePath())
}

// LoadFile is Load without .env handling and with an explicit YAML file.
// An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperrors.NewConfigError("failed to read config file", err).WithContext("path", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to parse config file", err).WithContext("path", path)
		}
	}

	// Fields carry no default tags, so unset variables leave file values alone
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return apperrors.NewConfigError(fmt.Sprintf("invalid server port: %d", c.Server.Port), nil)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return apperrors.NewConfigError("server timeouts must be positive", nil)
	}
	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return apperrors.NewConfigError("rate limit rps and burst must be positive", nil)
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		return apperrors.NewConfigError(fmt.Sprintf("unknown logging output %q", c.Logging.Output), nil)
	}
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Report.PreviewLimit <= 0 {
		return apperrors.NewConfigError("report preview limit must be positive", nil)
	}
	if c.Report.PriceBand < 0 {
		return apperrors.NewConfigError("report price band must not be negative", nil)
	}
	if c.Report.MaxRecords <= 0 {
		return apperrors.NewConfigError("report max records must be positive", nil)
	}

	switch c.Store.Driver {
	case "json", "postgres", "sqlite":
	default:
		return apperrors.NewConfigError(fmt.Sprintf("unknown store driver %q", c.Store.Driver), nil)
	}
	if c.Store.DSN == "" {
		return apperrors.NewConfigError("store dsn must be set", nil)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return apperrors.NewConfigError("telemetry sample ratio must be within [0, 1]", nil)
	}
	return nil
}

// configFilePath returns the YAML file to load, or "" for none
func configFilePath() string {
	if path := os.Getenv(ConfigFileEnv); path != "" {
		return path
	}

	for _, location := range []string{"config.yaml", "configs/config.yaml"} {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     10,
				Burst:   20,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Report: ReportConfig{
			OutputDir:       "output",
			PageSize:        "Letter",
			PreviewLimit:    10,
			PriceBand:       50000,
			MaxRecords:      10000,
			CopyrightHolder: "Kelvin Njuguna",
			Compress:        true,
		},
		Store: StoreConfig{
			Driver: "json",
			DSN:    "data/predictions.json",
			Table:  "prediction",
			Limit:  10000,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "pricescope",
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
