package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if cfg.Store != "bolt" || cfg.BoltPath != "meetme.db" {
		t.Errorf("unexpected store settings %q %q", cfg.Store, cfg.BoltPath)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Errorf("want 10m cache TTL, have %v", cfg.CacheTTL)
	}
	if cfg.MaxRequestsPerMin != 100 || cfg.AppPort != "8080" {
		t.Errorf("unexpected server settings %d %q", cfg.MaxRequestsPerMin, cfg.AppPort)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("STORE", "mongo")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CACHE_TTL", "90s")

	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("GOOGLE_CALENDAR_IDS=me@example.com, team\nSTORE=bolt\n"), 0600); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	t.Cleanup(func() { os.Unsetenv("GOOGLE_CALENDAR_IDS") })

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	// Variables already in the environment win over the .env file.
	if cfg.Store != "mongo" {
		t.Errorf("want mongo store, have %q", cfg.Store)
	}
	if cfg.RedisDB != 3 || cfg.CacheTTL != 90*time.Second {
		t.Errorf("unexpected redis settings %d %v", cfg.RedisDB, cfg.CacheTTL)
	}
	if want := []string{"me@example.com", "team"}; !slices.Equal(cfg.CalendarIDs(), want) {
		t.Errorf("want calendars %v, have %v", want, cfg.CalendarIDs())
	}
}

func TestLoadUnknownStore(t *testing.T) {
	t.Setenv("STORE", "sqlite")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("expected error for unknown store")
	}
}

func TestLocation(t *testing.T) {
	loc, err := Config{PrimaryTimezone: "UTC"}.Location()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if loc != time.UTC {
		t.Errorf("want UTC, have %v", loc)
	}

	if _, err := (Config{PrimaryTimezone: "Nowhere/Special"}).Location(); err == nil {
		t.Error("expected error for unknown timezone")
	}
}
