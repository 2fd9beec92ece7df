package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/warp/shift-allowance/allowance"
)

// Config holds all configuration for the server
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	Port        string `mapstructure:"PORT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// Storage
	DBPath string `mapstructure:"DB_PATH"`

	// Calendar dates and slot bounds are evaluated in this zone
	Timezone string `mapstructure:"TIMEZONE"`

	// Static tables; empty selects the built-in default
	RateScheduleFile string `mapstructure:"RATE_SCHEDULE_FILE"`
	HolidayFile      string `mapstructure:"HOLIDAY_FILE"`
	DutyTypesFile    string `mapstructure:"DUTY_TYPES_FILE"`

	// Monthly allowance targets in hours
	FullAllowanceHours string `mapstructure:"FULL_ALLOWANCE_HOURS"`
	HalfAllowanceHours string `mapstructure:"HALF_ALLOWANCE_HOURS"`

	// CORS configuration
	AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS"`

	location   *time.Location
	thresholds allowance.Thresholds
}

// Load reads configuration from config.yaml (in the given directories, or
// "." and "./config") and environment variables, which take precedence.
func Load(configPaths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(configPaths) == 0 {
		configPaths = []string{".", "./config"}
	}
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_PATH", "shift-allowance.db")
	v.SetDefault("TIMEZONE", "Asia/Hong_Kong")

	v.SetDefault("RATE_SCHEDULE_FILE", "")
	v.SetDefault("HOLIDAY_FILE", "")
	v.SetDefault("DUTY_TYPES_FILE", "")

	v.SetDefault("FULL_ALLOWANCE_HOURS", "50")
	v.SetDefault("HALF_ALLOWANCE_HOURS", "25")

	v.SetDefault("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:8080"})
}

func validate(c *Config) error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	c.location = loc

	full, err := decimal.NewFromString(c.FullAllowanceHours)
	if err != nil {
		return fmt.Errorf("invalid FULL_ALLOWANCE_HOURS %q: %w", c.FullAllowanceHours, err)
	}
	half, err := decimal.NewFromString(c.HalfAllowanceHours)
	if err != nil {
		return fmt.Errorf("invalid HALF_ALLOWANCE_HOURS %q: %w", c.HalfAllowanceHours, err)
	}
	if !half.IsPositive() || half.GreaterThan(full) {
		return fmt.Errorf("allowance hours must satisfy 0 < half (%s) <= full (%s)", half, full)
	}
	c.thresholds = allowance.Thresholds{Full: full, Half: half}

	return nil
}

// Location returns the loaded TIMEZONE.
func (c *Config) Location() *time.Location { return c.location }

// Thresholds returns the monthly allowance targets.
func (c *Config) Thresholds() allowance.Thresholds { return c.thresholds }

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool { return c.Environment == "production" }

// SetupLogging configures the global logrus logger: JSON in production,
// text otherwise. Unknown levels fall back to info.
func SetupLogging(c *Config) {
	if c.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
