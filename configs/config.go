package configs

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// FileConfig defines the structure loaded from the YAML configuration file.
// Every field here can also be set (and is overridden) by environment
// variables with the DROIDBRIDGE_ prefix.
type FileConfig struct {
	HTTPAddr       string `yaml:"http_addr"`
	StudioBaseURL  string `yaml:"studio_base_url"`
	DeviceCloudURL string `yaml:"device_cloud_url"`
	DeviceCloudKey string `yaml:"device_cloud_api_key"`
	LogLevel       string `yaml:"log_level"`
}

// Config holds the final application configuration, merged from defaults,
// the optional YAML file, and environment variables (in increasing
// precedence). Defaults are seeded in code rather than struct tags so that
// the env pass never clobbers file-loaded values.
type Config struct {
	// Config file path (loaded first from env). Empty means no file.
	ConfigFilePath string `envconfig:"CONFIG_FILE"`

	// HTTPAddr is the listen address of the embedded control-plane server.
	// The agent-facing contract fixes this to localhost:8765 in production.
	HTTPAddr string `envconfig:"HTTP_ADDR"`

	// StudioBaseURL is the IDE plugin control API the lifecycle tools
	// forward to.
	StudioBaseURL string `envconfig:"STUDIO_URL"`

	// Device cloud API (box provisioning / screenshots / UI actions).
	DeviceCloudURL string `envconfig:"DEVICE_CLOUD_URL"`
	DeviceCloudKey string `envconfig:"DEVICE_CLOUD_API_KEY"`

	HTTPClientTimeout time.Duration `envconfig:"HTTP_CLIENT_TIMEOUT"`
	ShutdownTimeout   time.Duration `envconfig:"SHUTDOWN_TIMEOUT"`

	// RestartGrace is the pause between stop and start during a rerun,
	// letting OS-level process teardown settle.
	RestartGrace time.Duration `envconfig:"RESTART_GRACE"`

	OtelExporterOtlpEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelExporterOtlpInsecure bool   `envconfig:"OTEL_EXPORTER_OTLP_INSECURE"`
	LogLevel                 string `envconfig:"LOG_LEVEL"`
}

// Default returns a Config populated with the built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr:                 "localhost:8765",
		StudioBaseURL:            "http://localhost:63342",
		DeviceCloudURL:           "https://api.devicecloud.dev/v1",
		HTTPClientTimeout:        30 * time.Second,
		ShutdownTimeout:          5 * time.Second,
		RestartGrace:             time.Second,
		OtelExporterOtlpInsecure: true,
		LogLevel:                 "info",
	}
}

// ParsedLogLevel returns the slog.Level for the configured LogLevel string.
func (c *Config) ParsedLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		fallthrough
	default:
		return slog.LevelInfo
	}
}

// Load loads configuration first from environment variables (to get the file
// path), then from the YAML file if one is configured, and finally processes
// the environment again so env vars override file settings.
func Load() (*Config, error) {
	var initialCfg Config
	if err := envconfig.Process("droidbridge", &initialCfg); err != nil {
		return nil, fmt.Errorf("failed to process initial environment variables: %w", err)
	}

	finalCfg := Default()
	finalCfg.ConfigFilePath = initialCfg.ConfigFilePath

	if initialCfg.ConfigFilePath != "" {
		yamlFile, err := os.ReadFile(initialCfg.ConfigFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", initialCfg.ConfigFilePath, err)
		}

		var fileCfg FileConfig
		if err := yaml.Unmarshal(yamlFile, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file '%s': %w", initialCfg.ConfigFilePath, err)
		}
		slog.Info("Loaded configuration from file.", "path", initialCfg.ConfigFilePath)

		if fileCfg.HTTPAddr != "" {
			finalCfg.HTTPAddr = fileCfg.HTTPAddr
		}
		if fileCfg.StudioBaseURL != "" {
			finalCfg.StudioBaseURL = fileCfg.StudioBaseURL
		}
		if fileCfg.DeviceCloudURL != "" {
			finalCfg.DeviceCloudURL = fileCfg.DeviceCloudURL
		}
		if fileCfg.DeviceCloudKey != "" {
			finalCfg.DeviceCloudKey = fileCfg.DeviceCloudKey
		}
		if fileCfg.LogLevel != "" {
			finalCfg.LogLevel = fileCfg.LogLevel
		}
	}

	// Process environment variables again so they override file settings.
	// Fields without a set env var are left untouched.
	if err := envconfig.Process("droidbridge", &finalCfg); err != nil {
		return nil, fmt.Errorf("failed to process overriding environment variables: %w", err)
	}

	return &finalCfg, nil
}
