// Package config reads meetme's settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	PrimaryTimezone string `mapstructure:"PRIMARY_TIMEZONE"`

	// Google OAuth client; credentials.json is used when unset.
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleCalendarIDs  string `mapstructure:"GOOGLE_CALENDAR_IDS"`

	// CalDAV account.
	ICloudUsername     string `mapstructure:"ICLOUD_USERNAME"`
	ICloudPassword     string `mapstructure:"ICLOUD_APP_SPECIFIC_PASSWORD"`
	ICloudCalendarName string `mapstructure:"ICLOUD_CALENDAR_NAME"`
	CalDAVEndpoint     string `mapstructure:"CALDAV_ENDPOINT"`

	// Store is "bolt" or "mongo".
	Store        string `mapstructure:"STORE"`
	BoltPath     string `mapstructure:"BOLT_PATH"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis caching of busy times is off while RedisAddr is empty.
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`

	AppPort           string `mapstructure:"APP_PORT"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
}

// Load reads the given .env files (".env" when none are given) into the
// environment and returns the resulting configuration. Missing files are ignored.
func Load(envFiles ...string) (Config, error) {
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PRIMARY_TIMEZONE", "UTC")
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_CALENDAR_IDS", "")
	v.SetDefault("ICLOUD_USERNAME", "")
	v.SetDefault("ICLOUD_APP_SPECIFIC_PASSWORD", "")
	v.SetDefault("ICLOUD_CALENDAR_NAME", "")
	v.SetDefault("CALDAV_ENDPOINT", "https://caldav.icloud.com/")
	v.SetDefault("STORE", "bolt")
	v.SetDefault("BOLT_PATH", "meetme.db")
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "meetme")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "10m")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Store != "bolt" && cfg.Store != "mongo" {
		return Config{}, fmt.Errorf("unknown STORE %q, want bolt or mongo", cfg.Store)
	}
	return cfg, nil
}

// Location resolves PRIMARY_TIMEZONE.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.PrimaryTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", c.PrimaryTimezone, err)
	}
	return loc, nil
}

// CalendarIDs splits GOOGLE_CALENDAR_IDS on commas.
func (c Config) CalendarIDs() []string {
	var ids []string
	for _, id := range strings.Split(c.GoogleCalendarIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
