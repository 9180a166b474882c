/*
Package config loads server configuration from the environment.

PURPOSE:
  Builds the runtime configuration from environment variables, with a
  .env file picked up via godotenv when present. Organization policy
  values (timezone, office hours, break rules) feed the engine settings;
  the rest configures the HTTP server and storage.

ENVIRONMENT VARIABLES:
  APP_PORT                       HTTP port (default 8080)
  DB_PATH                        SQLite database path (default ./data/attendance.db)
  ORG_TIMEZONE                   IANA timezone (default Australia/Sydney)
  OFFICE_START, OFFICE_END       Office hours window, HH:MM
  REQUIRED_SHIFT_HOURS           Hours after which a session auto-closes
  BREAK_HOURS                    Break deduction amount
  BREAK_THRESHOLD_HOURS          Raw hours above which the break applies
  AUTO_CLOCKOUT_ENABLED          true/false
  AUTO_CLOCKOUT_INTERVAL_MINUTES Sweep interval
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
)

type Config struct {
	Port     int
	DBPath   string
	Settings attendance.Settings
}

func Load() (*Config, error) {
	// A missing .env is fine; real env vars still apply.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	settings := attendance.DefaultSettings()

	if tz := os.Getenv("ORG_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid ORG_TIMEZONE: %w", err)
		}
		settings.Location = loc
	}
	if v := os.Getenv("OFFICE_START"); v != "" {
		tod, err := attendance.ParseTimeOfDay(v)
		if err != nil {
			return nil, fmt.Errorf("invalid OFFICE_START: %w", err)
		}
		settings.OfficeStart = tod
	}
	if v := os.Getenv("OFFICE_END"); v != "" {
		tod, err := attendance.ParseTimeOfDay(v)
		if err != nil {
			return nil, fmt.Errorf("invalid OFFICE_END: %w", err)
		}
		settings.OfficeEnd = tod
	}
	if v := os.Getenv("REQUIRED_SHIFT_HOURS"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REQUIRED_SHIFT_HOURS: %w", err)
		}
		settings.RequiredShiftHours = d
	}
	if v := os.Getenv("BREAK_HOURS"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BREAK_HOURS: %w", err)
		}
		settings.BreakHours = d
	}
	if v := os.Getenv("BREAK_THRESHOLD_HOURS"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BREAK_THRESHOLD_HOURS: %w", err)
		}
		settings.BreakThresholdHours = d
	}
	if v := os.Getenv("AUTO_CLOCKOUT_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTO_CLOCKOUT_ENABLED: %w", err)
		}
		settings.AutoClockOutEnabled = enabled
	}
	if v := os.Getenv("AUTO_CLOCKOUT_INTERVAL_MINUTES"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTO_CLOCKOUT_INTERVAL_MINUTES: %w", err)
		}
		settings.AutoClockOutInterval = time.Duration(minutes) * time.Minute
	}

	return &Config{
		Port:     port,
		DBPath:   getEnv("DB_PATH", "./data/attendance.db"),
		Settings: settings,
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
