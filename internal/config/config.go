//-------------------------------------------------------------------------
//
// pgEdge Superstore Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-superstore.
// Configuration is loaded from a config file, then from the environment
// (including a .env file in the working directory) for database settings.
// CLI flags take precedence over both.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration for pgedge-superstore.
type Config struct {
	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Database holds the warehouse connection settings.
	Database DatabaseConfig `mapstructure:"database"`

	// Load holds configuration for the load subcommand.
	Load LoadConfig `mapstructure:"load"`

	// Generate holds configuration for the generate subcommand.
	Generate GenerateConfig `mapstructure:"generate"`

	// Export holds configuration for the export subcommand.
	Export ExportConfig `mapstructure:"export"`
}

// DatabaseConfig describes how to reach the warehouse.
type DatabaseConfig struct {
	// Driver selects the backend: postgres, mysql or sqlite.
	Driver string `mapstructure:"driver"`

	// Connection is a complete driver-specific DSN. When set it wins over
	// the individual fields below.
	Connection string `mapstructure:"connection"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`

	// SSLMode is passed to Postgres as sslmode.
	SSLMode string `mapstructure:"sslmode"`

	// Path is the database file for the sqlite driver.
	Path string `mapstructure:"path"`
}

// LoadConfig holds configuration for an ETL run.
type LoadConfig struct {
	// Source is the path of the flat Superstore extract (CSV).
	Source string `mapstructure:"source"`

	// Encoding of the extract: windows-1252 or utf-8.
	Encoding string `mapstructure:"encoding"`

	// MergeDuplicates merges rows sharing (Order ID, Product ID) before loading.
	MergeDuplicates bool `mapstructure:"merge_duplicates"`

	// MaxAttempts is how many times a failed run is retried from scratch.
	MaxAttempts int `mapstructure:"max_attempts"`

	// RetryDelayMS is the pause between attempts in milliseconds.
	RetryDelayMS int `mapstructure:"retry_delay_ms"`

	// ProgressInterval is how often (in source rows) load progress is logged.
	ProgressInterval int64 `mapstructure:"progress_interval"`

	// MaxConflictWarnings caps individually logged data-quality conflicts per table.
	MaxConflictWarnings int `mapstructure:"max_conflict_warnings"`
}

// GenerateConfig holds configuration for synthetic extract generation.
type GenerateConfig struct {
	// Rows is the number of line items to generate.
	Rows int `mapstructure:"rows"`

	// Seed makes generation reproducible.
	Seed uint64 `mapstructure:"seed"`

	// Output is the CSV file to write.
	Output string `mapstructure:"output"`

	// StartYear is the first order year.
	StartYear int `mapstructure:"start_year"`

	// Years is how many calendar years of orders to spread rows over.
	Years int `mapstructure:"years"`
}

// ExportConfig holds configuration for the workbook export.
type ExportConfig struct {
	// Output is the .xlsx file to write.
	Output string `mapstructure:"output"`
}

// envBindings maps config keys to the environment variables used by the
// original deployment scripts.
var envBindings = map[string]string{
	"database.driver":     "DB_DRIVER",
	"database.connection": "DB_CONNECTION",
	"database.host":       "DB_HOST",
	"database.port":       "DB_PORT",
	"database.user":       "DB_USER",
	"database.password":   "DB_PASSWORD",
	"database.name":       "DB_NAME",
	"database.path":       "DB_PATH",
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Database: DatabaseConfig{
			Driver:  DriverPostgres,
			Host:    "localhost",
			SSLMode: "prefer",
			Path:    "superstore.db",
		},
		Load: LoadConfig{
			Source:              "Sample - Superstore.csv",
			Encoding:            "windows-1252",
			MergeDuplicates:     true,
			MaxAttempts:         3,
			RetryDelayMS:        2000,
			ProgressInterval:    2000,
			MaxConflictWarnings: 5,
		},
		Generate: GenerateConfig{
			Rows:      10000,
			Seed:      1,
			Output:    "superstore.csv",
			StartYear: 2014,
			Years:     4,
		},
		Export: ExportConfig{
			Output: "superstore.xlsx",
		},
	}
}

// LoadDotEnv reads a .env file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from config files and the environment.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./pgedge-superstore.yaml
// 3. ~/.config/pgedge-superstore/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("pgedge-superstore")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pgedge-superstore"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", env, err)
		}
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the database configuration is usable.
func (c *Config) Validate() error {
	return c.Database.Validate()
}

// ValidateLoad checks configuration required for the load command.
func (c *Config) ValidateLoad() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Load.Source == "" {
		return fmt.Errorf("source extract path is required for load")
	}
	switch strings.ToLower(c.Load.Encoding) {
	case "windows-1252", "cp1252", "utf-8", "utf8", "":
	default:
		return fmt.Errorf("unsupported encoding %q (use windows-1252 or utf-8)", c.Load.Encoding)
	}
	if c.Load.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}
	if c.Load.RetryDelayMS < 0 {
		return fmt.Errorf("retry_delay_ms must be non-negative")
	}
	return nil
}

// ValidateGenerate checks configuration required for the generate command.
func (c *Config) ValidateGenerate() error {
	if c.Generate.Rows < 1 {
		return fmt.Errorf("rows must be at least 1")
	}
	if c.Generate.Output == "" {
		return fmt.Errorf("output path is required for generate")
	}
	if c.Generate.Years < 1 {
		return fmt.Errorf("years must be at least 1")
	}
	if c.Generate.StartYear < 1900 {
		return fmt.Errorf("start_year must be 1900 or later")
	}
	return nil
}

// ValidateExport checks configuration required for the export command.
func (c *Config) ValidateExport() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Export.Output == "" {
		return fmt.Errorf("output path is required for export")
	}
	return nil
}

// Validate checks the database section on its own.
func (d DatabaseConfig) Validate() error {
	switch d.Driver {
	case DriverPostgres, DriverMySQL:
		if d.Connection == "" && d.Name == "" {
			return fmt.Errorf("database name (DB_NAME) or a connection string is required")
		}
	case DriverSQLite:
		if d.Connection == "" && d.Path == "" {
			return fmt.Errorf("database path (DB_PATH) is required for sqlite")
		}
	case "":
		return fmt.Errorf("database driver is required")
	default:
		return fmt.Errorf("unsupported database driver %q", d.Driver)
	}
	return nil
}

// DSN returns the driver-specific connection string.
func (d DatabaseConfig) DSN() string {
	if d.Connection != "" {
		return d.Connection
	}

	switch d.Driver {
	case DriverMySQL:
		port := d.Port
		if port == 0 {
			port = 3306
		}
		my := mysql.NewConfig()
		my.User = d.User
		my.Passwd = d.Password
		my.Net = "tcp"
		my.Addr = net.JoinHostPort(d.Host, strconv.Itoa(port))
		my.DBName = d.Name
		my.Params = map[string]string{"charset": "utf8mb4"}
		return my.FormatDSN()
	case DriverSQLite:
		return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", d.Path)
	default:
		port := d.Port
		if port == 0 {
			port = 5432
		}
		u := url.URL{
			Scheme: "postgres",
			Host:   fmt.Sprintf("%s:%d", d.Host, port),
			Path:   "/" + d.Name,
		}
		if d.User != "" {
			if d.Password != "" {
				u.User = url.UserPassword(d.User, d.Password)
			} else {
				u.User = url.User(d.User)
			}
		}
		if d.SSLMode != "" {
			u.RawQuery = "sslmode=" + url.QueryEscape(d.SSLMode)
		}
		return u.String()
	}
}
