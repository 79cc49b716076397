package config

import (
	"fmt"
	"os"
	"strconv"

	"hybridtest/internal/errors"
)

// ToyConfig controls the hybrid calculator ensembles
type ToyConfig struct {
	NullToys           int
	AltToys            int
	EventsPerToy       int
	Workers            int
	Seed               uint64
	MinSuccessFraction float64
}

// StorageConfig locates the workspace database
type StorageConfig struct {
	Path string
}

// ReportConfig locates report output
type ReportConfig struct {
	ExcelPath string
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Port int
}

// Config is the full application configuration, loaded from environment
// variables with defaults suitable for the bundled examples
type Config struct {
	Toys    ToyConfig
	Storage StorageConfig
	Report  ReportConfig
	Server  ServerConfig
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{
		Toys: ToyConfig{
			NullToys:           getEnvIntOrDefault("NULL_TOYS", 6000),
			AltToys:            getEnvIntOrDefault("ALT_TOYS", 300),
			EventsPerToy:       getEnvIntOrDefault("EVENTS_PER_TOY", 1),
			Workers:            getEnvIntOrDefault("TOY_WORKERS", 0),
			Seed:               uint64(getEnvIntOrDefault("TOY_SEED", 42)),
			MinSuccessFraction: getEnvFloatOrDefault("MIN_SUCCESS_FRACTION", 0.8),
		},
		Storage: StorageConfig{
			Path: getEnvOrDefault("WORKSPACE_DB", "workspaces.db"),
		},
		Report: ReportConfig{
			ExcelPath: getEnvOrDefault("REPORT_XLSX", "hypotest_report.xlsx"),
		},
		Server: ServerConfig{
			Port: getEnvIntOrDefault("PORT", 8080),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Toys.NullToys <= 0 || c.Toys.AltToys <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("toy counts must be positive, got %d/%d", c.Toys.NullToys, c.Toys.AltToys))
	}
	if c.Toys.MinSuccessFraction <= 0 || c.Toys.MinSuccessFraction > 1 {
		return errors.ConfigInvalid(fmt.Sprintf("MIN_SUCCESS_FRACTION %g outside (0, 1]", c.Toys.MinSuccessFraction))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.ConfigInvalid(fmt.Sprintf("PORT %d outside (0, 65535]", c.Server.Port))
	}
	if c.Storage.Path == "" {
		return errors.ConfigInvalid("WORKSPACE_DB must not be empty")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
