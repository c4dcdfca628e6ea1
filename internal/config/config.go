// Package config loads izposoja settings from a YAML file, an optional .env
// file and IZPOSOJA_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// AdminUser names the admin account created with a new database.
	AdminUser string `yaml:"admin_user"`

	// TokenExpiry is the lifetime of issued login tokens.
	TokenExpiry time.Duration `yaml:"token_expiry"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text" or "json"
	File   string `yaml:"file"`
}

// SchedulerConfig holds cron specs with a leading seconds field.
type SchedulerConfig struct {
	Enabled         bool          `yaml:"enabled"`
	CheckOverdue    string        `yaml:"check_overdue"`
	ReturnReminders string        `yaml:"return_reminders"`
	PurgeTokens     string        `yaml:"purge_tokens"`
	ReminderWindow  time.Duration `yaml:"reminder_window"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8080", AdminUser: "Admin", TokenExpiry: 12 * time.Hour},
		Database: DatabaseConfig{Path: "izposoja.sqlite3"},
		Log:      LogConfig{Level: "info", Format: "text"},
		Scheduler: SchedulerConfig{
			Enabled:         true,
			CheckOverdue:    "0 */15 * * * *",
			ReturnReminders: "0 0 9 * * *",
			PurgeTokens:     "0 30 3 * * *",
			ReminderWindow:  24 * time.Hour,
		},
	}
}

// Load builds the configuration. configPath and envFile may be empty; a
// missing envFile is not an error, a missing configPath is.
func Load(configPath, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
	}

	cfg := Default()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.overrideWithEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) overrideWithEnv() error {
	strs := map[string]*string{
		"IZPOSOJA_ADDR":          &c.Server.Addr,
		"IZPOSOJA_ADMIN_USER":    &c.Server.AdminUser,
		"IZPOSOJA_DB":            &c.Database.Path,
		"IZPOSOJA_LOG_LEVEL":     &c.Log.Level,
		"IZPOSOJA_LOG_FORMAT":    &c.Log.Format,
		"IZPOSOJA_LOG_FILE":      &c.Log.File,
		"IZPOSOJA_OVERDUE_CRON":  &c.Scheduler.CheckOverdue,
		"IZPOSOJA_REMINDER_CRON": &c.Scheduler.ReturnReminders,
		"IZPOSOJA_PURGE_CRON":    &c.Scheduler.PurgeTokens,
	}
	for key, dst := range strs {
		if val := os.Getenv(key); val != "" {
			*dst = val
		}
	}

	if val := os.Getenv("IZPOSOJA_SCHEDULER_ENABLED"); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("IZPOSOJA_SCHEDULER_ENABLED: %w", err)
		}
		c.Scheduler.Enabled = enabled
	}
	if val := os.Getenv("IZPOSOJA_REMINDER_WINDOW"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("IZPOSOJA_REMINDER_WINDOW: %w", err)
		}
		c.Scheduler.ReminderWindow = d
	}
	return nil
}

// CronParser parses the scheduler's six-field specs.
var CronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks the configuration and reports the first problem.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server address is required")
	}
	if strings.TrimSpace(c.Server.AdminUser) == "" {
		return errors.New("admin user is required")
	}
	if c.Server.TokenExpiry <= 0 {
		return fmt.Errorf("server.token_expiry must be positive, got %s", c.Server.TokenExpiry)
	}
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %q", c.Log.Format)
	}

	specs := map[string]string{
		"check_overdue":    c.Scheduler.CheckOverdue,
		"return_reminders": c.Scheduler.ReturnReminders,
		"purge_tokens":     c.Scheduler.PurgeTokens,
	}
	for name, spec := range specs {
		if _, err := CronParser.Parse(spec); err != nil {
			return fmt.Errorf("invalid scheduler.%s: %w", name, err)
		}
	}
	if c.Scheduler.ReminderWindow <= 0 {
		return fmt.Errorf("scheduler.reminder_window must be positive, got %s", c.Scheduler.ReminderWindow)
	}
	return nil
}
