package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/echotools/groupseed/internal/intents"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config is the server configuration, loaded from a YAML file.
type Config struct {
	Name         string                `yaml:"name" json:"name" usage:"Server name, used as a metrics tag and in logs."`
	Logger       *LoggerConfig         `yaml:"logger" json:"logger" usage:"Logger levels and output."`
	API          *APIConfig            `yaml:"api" json:"api" usage:"HTTP API settings."`
	Metrics      *MetricsConfig        `yaml:"metrics" json:"metrics" usage:"Metrics settings."`
	Distribution *DistributionSettings `yaml:"distribution" json:"distribution" usage:"Default distribution settings used when a request carries none."`
}

func NewConfig() *Config {
	return &Config{
		Name:         "groupseed",
		Logger:       NewLoggerConfig(),
		API:          NewAPIConfig(),
		Metrics:      NewMetricsConfig(),
		Distribution: NewDistributionSettings(),
	}
}

// ParseConfigFile reads the YAML file at path over the defaults. An empty
// path returns the defaults.
func ParseConfigFile(logger *zap.Logger, path string) (*Config, error) {
	config := NewConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.setDefaults()

	logger.Info("Loaded config file", zap.String("path", path))
	return config, nil
}

func (c *Config) setDefaults() {
	if c.Logger == nil {
		c.Logger = NewLoggerConfig()
	}
	if c.API == nil {
		c.API = NewAPIConfig()
	}
	if c.Metrics == nil {
		c.Metrics = NewMetricsConfig()
	}
	if c.Distribution == nil {
		c.Distribution = NewDistributionSettings()
	}
	c.Distribution.SetDefaults()
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("name must be set")
	}
	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logger.level must be one of debug, info, warn, error, got %q", c.Logger.Level)
	}
	if _, err := parseFormat(c.Logger.Format); err != nil {
		return err
	}
	if c.Logger.Rotation && c.Logger.File == "" {
		return errors.New("logger.file must be set when logger.rotation is enabled")
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("api.port must be between 1 and 65535, got %d", c.API.Port)
	}
	if c.API.MaxRequestSizeBytes < 1 {
		return fmt.Errorf("api.max_request_size_bytes must be > 0, got %d", c.API.MaxRequestSizeBytes)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit must be >= 0, got %f", c.API.RateLimit)
	}
	if c.API.RateLimit > 0 && c.API.RateBurst < 1 {
		return fmt.Errorf("api.rate_burst must be > 0 when rate_limit is set, got %d", c.API.RateBurst)
	}
	if c.Metrics.ReportingFreqSec < 1 {
		return fmt.Errorf("metrics.reporting_freq_sec must be > 0, got %d", c.Metrics.ReportingFreqSec)
	}
	if err := c.Distribution.Validate(); err != nil {
		return fmt.Errorf("distribution: %w", err)
	}
	return nil
}

func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cfgCopy := *c
	if c.Logger != nil {
		logger := *c.Logger
		cfgCopy.Logger = &logger
	}
	if c.API != nil {
		api := *c.API
		api.Keys = make(map[string]intents.Intent, len(c.API.Keys))
		for k, v := range c.API.Keys {
			api.Keys[k] = v
		}
		cfgCopy.API = &api
	}
	if c.Metrics != nil {
		metrics := *c.Metrics
		cfgCopy.Metrics = &metrics
	}
	cfgCopy.Distribution = c.Distribution.Clone()
	return &cfgCopy
}

// LoggerConfig is configuration relevant to logging levels and output.
type LoggerConfig struct {
	Level      string `yaml:"level" json:"level" usage:"Log level to set. Valid values are 'debug', 'info', 'warn', 'error'. Default 'info'."`
	Stdout     bool   `yaml:"stdout" json:"stdout" usage:"Log to standard console output (as well as to a file if set). Default true."`
	File       string `yaml:"file" json:"file" usage:"Log output to a file (as well as stdout if set). Make sure that the directory and the file is writable."`
	Rotation   bool   `yaml:"rotation" json:"rotation" usage:"Rotate log files. Default is false."`
	MaxSize    int    `yaml:"max_size" json:"max_size" usage:"The maximum size in megabytes of the log file before it gets rotated. Default 100 megabytes."`
	MaxAge     int    `yaml:"max_age" json:"max_age" usage:"The maximum number of days to retain old log files based on the timestamp encoded in their filename."`
	MaxBackups int    `yaml:"max_backups" json:"max_backups" usage:"The maximum number of old log files to retain."`
	LocalTime  bool   `yaml:"local_time" json:"local_time" usage:"Use the computer's local time for timestamps in backup files. Default is UTC."`
	Compress   bool   `yaml:"compress" json:"compress" usage:"Compress rotated log files using gzip. Default is false."`
	Format     string `yaml:"format" json:"format" usage:"Set logging output format. Can either be 'JSON' or 'Stackdriver'. Default is 'JSON'."`
}

func NewLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:   "info",
		Stdout:  true,
		MaxSize: 100,
		Format:  "json",
	}
}

// APIConfig is configuration relevant to the HTTP API.
type APIConfig struct {
	Address             string                    `yaml:"address" json:"address" usage:"Interface to listen on. Default all interfaces."`
	Port                int                       `yaml:"port" json:"port" usage:"Port to listen on. Default 7350."`
	MaxRequestSizeBytes int64                     `yaml:"max_request_size_bytes" json:"max_request_size_bytes" usage:"Maximum size of a request body in bytes. Default 4194304."`
	ReadTimeoutMs       int                       `yaml:"read_timeout_ms" json:"read_timeout_ms" usage:"Maximum duration in milliseconds for reading a request. Default 10000."`
	WriteTimeoutMs      int                       `yaml:"write_timeout_ms" json:"write_timeout_ms" usage:"Maximum duration in milliseconds for writing a response. Default 10000."`
	RateLimit           float64                   `yaml:"rate_limit" json:"rate_limit" usage:"Requests per second allowed across the API. 0 disables limiting. Default 50."`
	RateBurst           int                       `yaml:"rate_burst" json:"rate_burst" usage:"Request burst allowed above rate_limit. Default 100."`
	Keys                map[string]intents.Intent `yaml:"keys" json:"-" usage:"API keys mapped to comma separated intents ('distribute', 'settings'). Empty disables authentication."`
}

func NewAPIConfig() *APIConfig {
	return &APIConfig{
		Port:                7350,
		MaxRequestSizeBytes: 4 * 1024 * 1024,
		ReadTimeoutMs:       10_000,
		WriteTimeoutMs:      10_000,
		RateLimit:           50,
		RateBurst:           100,
		Keys:                map[string]intents.Intent{},
	}
}

// MetricsConfig is configuration relevant to metrics capturing and output.
type MetricsConfig struct {
	ReportingFreqSec int    `yaml:"reporting_freq_sec" json:"reporting_freq_sec" usage:"Frequency of metrics exports. Default is 60 seconds."`
	Namespace        string `yaml:"namespace" json:"namespace" usage:"Namespace for Prometheus metrics. It will always prepend node name."`
	PrometheusPort   int    `yaml:"prometheus_port" json:"prometheus_port" usage:"Port to expose Prometheus. If '0' Prometheus exports are disabled."`
	Prefix           string `yaml:"prefix" json:"prefix" usage:"Prefix for metric names. Default is 'groupseed', empty string '' disables the prefix."`
}

func NewMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		ReportingFreqSec: 60,
		Prefix:           "groupseed",
	}
}
