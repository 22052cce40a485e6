package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/worklog/pkg/core/dates"
)

func validConfig() *Config {
	return &Config{
		Backend:               BackendPostgres,
		DatabaseURL:           "postgres://localhost:5432/worklog",
		Timezone:              "Europe/London",
		Workdays:              dates.DefaultWorkdays,
		UtilizationCategories: []string{"Training", "Leave"},
		LogsDir:               "logs",
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidate_SQLiteConfig(t *testing.T) {
	cfg := defaults()
	assert.NoError(t, Validate(cfg))
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "unknown backend", mutate: func(c *Config) { c.Backend = "mysql" }, errMsg: "validation failed"},
		{name: "postgres without url", mutate: func(c *Config) { c.DatabaseURL = "" }, errMsg: "validation failed"},
		{name: "sqlite without path", mutate: func(c *Config) { c.Backend = BackendSQLite }, errMsg: "validation failed"},
		{name: "bad timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }, errMsg: "invalid timezone"},
		{name: "bad workdays", mutate: func(c *Config) { c.Workdays = "INVALID_RRULE_SYNTAX" }, errMsg: "invalid workdays"},
		{name: "no categories", mutate: func(c *Config) { c.UtilizationCategories = nil }, errMsg: "validation failed"},
		{name: "blank category", mutate: func(c *Config) { c.UtilizationCategories = []string{"Training", ""} }, errMsg: "validation failed"},
		{name: "duplicate category", mutate: func(c *Config) { c.UtilizationCategories = []string{"Leave", "leave"} }, errMsg: "duplicate category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadFromPath_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "worklog_config.yaml")

	content := `
backend: postgres
databaseURL: postgres://db.internal:5432/worklog
timezone: Asia/Tokyo
workdays: FREQ=WEEKLY;BYDAY=MO,TU,WE,TH
utilizationCategories:
  - Training
  - Support
`
	err := os.WriteFile(configPath, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadFromPath(configPath)
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.Backend)
	assert.Equal(t, "postgres://db.internal:5432/worklog", cfg.DatabaseURL)
	assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH", cfg.Workdays)
	assert.Equal(t, []string{"Training", "Support"}, cfg.UtilizationCategories)
	assert.Equal(t, "logs", cfg.LogsDir)
}

func TestLoadFromPath_MinimalConfigUsesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "worklog_config.yaml")

	err := os.WriteFile(configPath, []byte("backend: sqlite\n"), 0644)
	require.NoError(t, err)

	cfg, err := LoadFromPath(configPath)
	require.NoError(t, err)

	assert.Equal(t, "worklog.db", cfg.SQLitePath)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, dates.DefaultWorkdays, cfg.Workdays)
	assert.Equal(t, DefaultUtilizationCategories, cfg.UtilizationCategories)
}

func TestLoadFromPath_EnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "worklog_config.yaml")

	err := os.WriteFile(configPath, []byte("backend: sqlite\nsqlitePath: file.db\n"), 0644)
	require.NoError(t, err)

	t.Setenv("WORKLOG_SQLITE_PATH", "/var/lib/worklog/override.db")
	t.Setenv("WORKLOG_UTILIZATION_CATEGORIES", "Leave,Training")

	cfg, err := LoadFromPath(configPath)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/worklog/override.db", cfg.SQLitePath)
	assert.Equal(t, []string{"Leave", "Training"}, cfg.UtilizationCategories)
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "worklog_config.yaml")

	err := os.WriteFile(configPath, []byte("backend: [sqlite\n"), 0644)
	require.NoError(t, err)

	_, err = LoadFromPath(configPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_PrefersEnvironmentSpecificFile(t *testing.T) {
	tmpDir := t.TempDir()
	chdir(t, tmpDir)
	t.Setenv("HOME", tmpDir)

	require.NoError(t, os.WriteFile("worklog_config.yaml", []byte("backend: sqlite\nsqlitePath: base.db\n"), 0644))
	require.NoError(t, os.WriteFile("worklog_config.test.yaml", []byte("backend: sqlite\nsqlitePath: test.db\n"), 0644))

	cfg, err := Load("test")
	require.NoError(t, err)
	assert.Equal(t, "test.db", cfg.SQLitePath)

	cfg, err = Load("prod")
	require.NoError(t, err)
	assert.Equal(t, "base.db", cfg.SQLitePath)
}

func TestLoad_DotEnvFile(t *testing.T) {
	tmpDir := t.TempDir()
	chdir(t, tmpDir)
	t.Setenv("HOME", tmpDir)
	// Registers cleanup so the value loaded from .env does not leak into other tests
	t.Setenv("WORKLOG_TIMEZONE", "")
	require.NoError(t, os.Unsetenv("WORKLOG_TIMEZONE"))

	require.NoError(t, os.WriteFile(".env", []byte("WORKLOG_TIMEZONE=Australia/Sydney\n"), 0644))

	cfg, err := Load("dev")
	require.NoError(t, err)
	assert.Equal(t, "Australia/Sydney", cfg.Timezone)
	assert.Equal(t, BackendSQLite, cfg.Backend)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
