package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/worklog/pkg/core/dates"
)

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"

	configFileName = "worklog_config"
	envPrefix      = "WORKLOG_"
)

// DefaultUtilizationCategories are the activity labels pivoted by the utilization report
var DefaultUtilizationCategories = []string{"Training", "Leave", "Admin", "Meeting"}

// Config represents the application configuration
type Config struct {
	Backend               string   `yaml:"backend" env:"BACKEND" validate:"required,oneof=postgres sqlite"`
	DatabaseURL           string   `yaml:"databaseURL,omitempty" env:"DATABASE_URL" validate:"required_if=Backend postgres"`
	SQLitePath            string   `yaml:"sqlitePath,omitempty" env:"SQLITE_PATH" validate:"required_if=Backend sqlite"`
	Timezone              string   `yaml:"timezone" env:"TIMEZONE" validate:"required"`
	Workdays              string   `yaml:"workdays" env:"WORKDAYS" validate:"required"`
	UtilizationCategories []string `yaml:"utilizationCategories" env:"UTILIZATION_CATEGORIES" envSeparator:"," validate:"min=1,dive,required"`
	LogsDir               string   `yaml:"logsDir" env:"LOGS_DIR" validate:"required"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration for environment appEnv.
// .env and .env.local are loaded into the process environment first, then
// worklog_config.<appEnv>.yaml or worklog_config.yaml is read from the current directory
// or the user's home directory, then WORKLOG_* variables override individual fields.
// Without a config file the defaults and environment alone are used.
func Load(appEnv string) (*Config, error) {
	if _, err := LoadEnv([]string{".env", ".env.local"}); err != nil {
		return nil, fmt.Errorf("failed to load .env files: %w", err)
	}

	configPath, err := findConfigFile(appEnv)
	if errors.Is(err, os.ErrNotExist) {
		return fromDefaults()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadEnv loads whichever of envFiles exist, returning how many were loaded.
// Variables already set in the process win over the files.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return finish(cfg)
}

func fromDefaults() (*Config, error) {
	return finish(defaults())
}

func finish(cfg *Config) (*Config, error) {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Backend:               BackendSQLite,
		SQLitePath:            "worklog.db",
		Timezone:              "UTC",
		Workdays:              dates.DefaultWorkdays,
		UtilizationCategories: append([]string(nil), DefaultUtilizationCategories...),
		LogsDir:               "logs",
	}
}

// Validate validates the configuration struct, the timezone and the workdays rule
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	if _, err := rrule.StrToRRule(cfg.Workdays); err != nil {
		return fmt.Errorf("invalid workdays rrule: %w", err)
	}

	seen := make(map[string]bool, len(cfg.UtilizationCategories))
	for i, c := range cfg.UtilizationCategories {
		key := strings.ToLower(strings.TrimSpace(c))
		if seen[key] {
			return fmt.Errorf("duplicate category in utilizationCategories[%d]: %q", i, c)
		}
		seen[key] = true
	}

	return nil
}

// findConfigFile searches for worklog_config.<appEnv>.yaml, then worklog_config.yaml, in the
// current directory and then the home directory
func findConfigFile(appEnv string) (string, error) {
	names := []string{configFileName + ".yaml"}
	if appEnv != "" {
		names = append([]string{fmt.Sprintf("%s.%s.yaml", configFileName, appEnv)}, names...)
	}

	dirs := []string{"."}
	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, homeDir)
	}

	for _, dir := range dirs {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", fmt.Errorf("config file not found in current directory or home directory: %w", os.ErrNotExist)
}
