package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected LogLevel 'info', got '%s'", cfg.LogLevel)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("Expected Database.Driver 'postgres', got '%s'", cfg.Database.Driver)
	}

	// Load defaults
	if cfg.Load.Encoding != "windows-1252" {
		t.Errorf("Expected Load.Encoding 'windows-1252', got '%s'", cfg.Load.Encoding)
	}
	if !cfg.Load.MergeDuplicates {
		t.Error("Expected Load.MergeDuplicates true")
	}
	if cfg.Load.MaxAttempts != 3 {
		t.Errorf("Expected Load.MaxAttempts 3, got %d", cfg.Load.MaxAttempts)
	}
	if cfg.Load.MaxConflictWarnings != 5 {
		t.Errorf("Expected Load.MaxConflictWarnings 5, got %d", cfg.Load.MaxConflictWarnings)
	}

	// Generate defaults
	if cfg.Generate.Rows != 10000 {
		t.Errorf("Expected Generate.Rows 10000, got %d", cfg.Generate.Rows)
	}
	if cfg.Generate.StartYear != 2014 {
		t.Errorf("Expected Generate.StartYear 2014, got %d", cfg.Generate.StartYear)
	}
	if cfg.Export.Output != "superstore.xlsx" {
		t.Errorf("Expected Export.Output 'superstore.xlsx', got '%s'", cfg.Export.Output)
	}
}

func TestDatabaseValidate(t *testing.T) {
	tests := []struct {
		name      string
		db        DatabaseConfig
		wantError bool
	}{
		{
			name:      "postgres with name",
			db:        DatabaseConfig{Driver: DriverPostgres, Name: "superstore"},
			wantError: false,
		},
		{
			name:      "postgres with connection",
			db:        DatabaseConfig{Driver: DriverPostgres, Connection: "postgres://localhost/db"},
			wantError: false,
		},
		{
			name:      "postgres without name",
			db:        DatabaseConfig{Driver: DriverPostgres},
			wantError: true,
		},
		{
			name:      "mysql with name",
			db:        DatabaseConfig{Driver: DriverMySQL, Name: "superstore"},
			wantError: false,
		},
		{
			name:      "sqlite with path",
			db:        DatabaseConfig{Driver: DriverSQLite, Path: "warehouse.db"},
			wantError: false,
		},
		{
			name:      "sqlite without path",
			db:        DatabaseConfig{Driver: DriverSQLite},
			wantError: true,
		},
		{
			name:      "missing driver",
			db:        DatabaseConfig{Name: "superstore"},
			wantError: true,
		},
		{
			name:      "unknown driver",
			db:        DatabaseConfig{Driver: "oracle", Name: "superstore"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.db.Validate()
			if tt.wantError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestConfigValidateLoad(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Database.Name = "superstore"
		return cfg
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError bool
	}{
		{"valid load config", func(*Config) {}, false},
		{"utf-8 encoding", func(c *Config) { c.Load.Encoding = "utf-8" }, false},
		{"missing source", func(c *Config) { c.Load.Source = "" }, true},
		{"bad encoding", func(c *Config) { c.Load.Encoding = "latin-9" }, true},
		{"zero attempts", func(c *Config) { c.Load.MaxAttempts = 0 }, true},
		{"negative delay", func(c *Config) { c.Load.RetryDelayMS = -1 }, true},
		{"missing database", func(c *Config) { c.Database.Name = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.ValidateLoad()
			if tt.wantError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestConfigValidateGenerate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero rows", func(c *Config) { c.Generate.Rows = 0 }, true},
		{"no output", func(c *Config) { c.Generate.Output = "" }, true},
		{"zero years", func(c *Config) { c.Generate.Years = 0 }, true},
		{"ancient start", func(c *Config) { c.Generate.StartYear = 1200 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.ValidateGenerate()
			if tt.wantError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		db   DatabaseConfig
		want string
	}{
		{
			name: "explicit connection wins",
			db:   DatabaseConfig{Driver: DriverPostgres, Connection: "postgres://x/y", Name: "ignored"},
			want: "postgres://x/y",
		},
		{
			name: "postgres from parts",
			db: DatabaseConfig{Driver: DriverPostgres, Host: "db", User: "etl",
				Password: "secret", Name: "superstore", SSLMode: "disable"},
			want: "postgres://etl:secret@db:5432/superstore?sslmode=disable",
		},
		{
			name: "sqlite from path",
			db:   DatabaseConfig{Driver: DriverSQLite, Path: "/tmp/w.db"},
			want: "file:/tmp/w.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.db.DSN(); got != tt.want {
				t.Errorf("DSN() = %q, expected %q", got, tt.want)
			}
		})
	}
}

func TestMySQLDSN(t *testing.T) {
	d := DatabaseConfig{Driver: DriverMySQL, Host: "db", Port: 3307, User: "etl",
		Password: "p/ss?word", Name: "superstore"}
	dsn := d.DSN()

	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("ParseDSN(%q) error = %v", dsn, err)
	}
	if parsed.User != "etl" || parsed.Passwd != "p/ss?word" {
		t.Errorf("Expected credentials etl/p/ss?word, got %s/%s", parsed.User, parsed.Passwd)
	}
	if parsed.Net != "tcp" || parsed.Addr != "db:3307" || parsed.DBName != "superstore" {
		t.Errorf("Unexpected address in %q", dsn)
	}
	if parsed.MultiStatements {
		t.Errorf("Expected multiStatements to be off in %q", dsn)
	}
	if !strings.Contains(dsn, "charset=utf8mb4") {
		t.Errorf("Expected charset=utf8mb4 in %q", dsn)
	}

	d.Port = 0
	if parsed, err := mysql.ParseDSN(d.DSN()); err != nil || parsed.Addr != "db:3306" {
		t.Errorf("Expected default port 3306, got %v (err %v)", parsed, err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "pgedge-superstore.yaml")

	configContent := `
log_level: "debug"

database:
  driver: "mysql"
  host: "warehouse.internal"
  port: 3306
  user: "etl"
  name: "superstore"

load:
  source: "/data/superstore.csv"
  encoding: "utf-8"
  merge_duplicates: false
  max_attempts: 5
  retry_delay_ms: 250

generate:
  rows: 500
  seed: 99

export:
  output: "/tmp/out.xlsx"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel mismatch: %s", cfg.LogLevel)
	}
	if cfg.Database.Driver != DriverMySQL {
		t.Errorf("Database.Driver mismatch: %s", cfg.Database.Driver)
	}
	if cfg.Database.Host != "warehouse.internal" {
		t.Errorf("Database.Host mismatch: %s", cfg.Database.Host)
	}
	if cfg.Load.Source != "/data/superstore.csv" {
		t.Errorf("Load.Source mismatch: %s", cfg.Load.Source)
	}
	if cfg.Load.MergeDuplicates {
		t.Error("Load.MergeDuplicates mismatch")
	}
	if cfg.Load.MaxAttempts != 5 {
		t.Errorf("Load.MaxAttempts mismatch: %d", cfg.Load.MaxAttempts)
	}
	if cfg.Generate.Rows != 500 {
		t.Errorf("Generate.Rows mismatch: %d", cfg.Generate.Rows)
	}
	if cfg.Generate.Seed != 99 {
		t.Errorf("Generate.Seed mismatch: %d", cfg.Generate.Seed)
	}
	// Untouched keys keep their defaults
	if cfg.Generate.Years != 4 {
		t.Errorf("Generate.Years should keep default 4, got %d", cfg.Generate.Years)
	}
	if cfg.Export.Output != "/tmp/out.xlsx" {
		t.Errorf("Export.Output mismatch: %s", cfg.Export.Output)
	}
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "/var/lib/superstore.db")
	t.Setenv("DB_PORT", "6543")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("Database.Driver from env mismatch: %s", cfg.Database.Driver)
	}
	if cfg.Database.Path != "/var/lib/superstore.db" {
		t.Errorf("Database.Path from env mismatch: %s", cfg.Database.Path)
	}
	if cfg.Database.Port != 6543 {
		t.Errorf("Database.Port from env mismatch: %d", cfg.Database.Port)
	}
}

func TestLoadDotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	envPath := filepath.Join(tmpDir, ".env")
	content := "DB_HOST=dotenv-host\nDB_NAME=dotenv_db\n"
	if err := os.WriteFile(envPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}

	// t.Setenv registers cleanup for variables the .env file populates.
	t.Setenv("DB_HOST", "")
	os.Unsetenv("DB_HOST")
	t.Setenv("DB_NAME", "preset_db")

	if err := LoadDotEnv(envPath); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("DB_HOST"); got != "dotenv-host" {
		t.Errorf("Expected DB_HOST from .env, got %q", got)
	}
	// Existing variables are not overridden
	if got := os.Getenv("DB_NAME"); got != "preset_db" {
		t.Errorf("Expected DB_NAME to stay 'preset_db', got %q", got)
	}
}

func TestLoadDotEnvMissing(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("Missing .env should not be an error, got: %v", err)
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load should error when specified config file doesn't exist")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidContent := `
database: [invalid yaml
  that: won't parse
`
	err := os.WriteFile(configPath, []byte(invalidContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err = Load(configPath)
	if err == nil {
		t.Error("Expected error for invalid YAML, got nil")
	} else if !strings.Contains(err.Error(), "config") {
		t.Errorf("Expected config error, got: %v", err)
	}
}
