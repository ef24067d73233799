package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"meetme/internal/agenda"
	"meetme/internal/cache"
	"meetme/internal/config"
	"meetme/internal/google"
	"meetme/internal/icloud"
	"meetme/internal/models"
	"meetme/internal/planner"
	"meetme/internal/store"

	"github.com/go-redis/redis/v8"
)

type accountClient struct {
	account string
	client  *google.CalendarClient
}

// eventLister reads titled events, where a busy source only knows busy periods.
type eventLister interface {
	Events(ctx context.Context, calendarID string, min, max time.Time) ([]models.Event, error)
}

var _ eventLister = (*google.CalendarClient)(nil)

// namedSource is a busy-time source and the calendars to read from it.
type namedSource struct {
	name      string
	source    planner.BusySource
	calendars []string
	titles    eventLister
}

// googleClients loads a client for every account that has a token file.
func googleClients(ctx context.Context, cfg config.Config, logger *slog.Logger) ([]accountClient, error) {
	accounts, err := google.TokenAccounts(".")
	if err != nil {
		return nil, fmt.Errorf("could not find any google accounts, did you run auth command? %w", err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no google accounts found. Run the 'auth' command first")
	}

	var clients []accountClient
	for _, acc := range accounts {
		gClient, err := google.NewClient(ctx, logger, cfg.GoogleClientID, cfg.GoogleClientSecret, acc)
		if err != nil {
			return nil, fmt.Errorf("failed to create google client for account %s: %w", acc, err)
		}
		clients = append(clients, accountClient{account: acc, client: gClient})
	}
	logger.Info("Initialized Google clients for all accounts.", "count", len(clients))
	return clients, nil
}

func caldavClient(cfg config.Config, logger *slog.Logger, loc *time.Location) (*icloud.CalDAVClient, error) {
	if cfg.ICloudCalendarName == "" {
		return nil, fmt.Errorf("ICLOUD_CALENDAR_NAME environment variable not set")
	}
	iClient, err := icloud.NewClient(logger, cfg.CalDAVEndpoint, cfg.ICloudUsername, cfg.ICloudPassword, cfg.ICloudCalendarName, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to create icloud client: %w", err)
	}
	return iClient, nil
}

// busySources returns every Google account, and the CalDAV calendar when
// withCalDAV is set, behind the Redis cache if one is configured.
func busySources(ctx context.Context, cfg config.Config, logger *slog.Logger, loc *time.Location, calendarIDs []string, withCalDAV bool) ([]namedSource, error) {
	if len(calendarIDs) == 0 {
		calendarIDs = cfg.CalendarIDs()
	}
	if len(calendarIDs) == 0 {
		calendarIDs = []string{"primary"}
	}

	clients, err := googleClients(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var sources []namedSource
	for _, gc := range clients {
		sources = append(sources, namedSource{name: gc.account, source: gc.client, calendars: calendarIDs, titles: gc.client})
	}

	if withCalDAV {
		iClient, err := caldavClient(cfg, logger, loc)
		if err != nil {
			return nil, err
		}
		sources = append(sources, namedSource{name: "caldav", source: iClient, calendars: []string{cfg.ICloudCalendarName}})
	}

	if cfg.RedisAddr == "" {
		return sources, nil
	}
	rdb, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("Busy times will not be cached", "error", err)
		return sources, nil
	}
	return cached(logger, rdb, cfg.CacheTTL, sources), nil
}

func cached(logger *slog.Logger, rdb *redis.Client, ttl time.Duration, sources []namedSource) []namedSource {
	wrapped := make([]namedSource, 0, len(sources))
	for _, src := range sources {
		src.source = cache.New(logger, rdb, src.name, src.source, ttl)
		wrapped = append(wrapped, src)
	}
	return wrapped
}

// timelineEvents returns the titled events of calID over the windows, falling
// back to busy when src cannot list events or the listing fails.
func timelineEvents(ctx context.Context, logger *slog.Logger, src namedSource, calID string, windows []agenda.Appt, busy []models.Event) []models.Event {
	if src.titles == nil || len(windows) == 0 {
		return busy
	}
	events, err := src.titles.Events(ctx, calID, windows[0].Begin(), windows[len(windows)-1].End())
	if err != nil {
		logger.Warn("Could not list events, showing busy periods only", "source", src.name, "calendarID", calID, "error", err)
		return busy
	}
	return events
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Store {
	case "mongo":
		s, err := store.OpenMongo(ctx, cfg.DatabaseURL, cfg.DatabaseName)
		if err != nil {
			return nil, fmt.Errorf("failed to open mongo store: %w", err)
		}
		return s, nil
	default:
		s, err := store.OpenBolt(cfg.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt store: %w", err)
		}
		return s, nil
	}
}

func busyAppts(logger *slog.Logger, events []models.Event) []agenda.Appt {
	appts := make([]agenda.Appt, 0, len(events))
	for _, e := range events {
		a, err := e.Appt()
		if err != nil {
			logger.Warn("Skipping busy time with invalid range", "title", e.Title, "error", err)
			continue
		}
		appts = append(appts, a)
	}
	return appts
}

// parseIgnored reads a busy time given as calendar/start/end.
func parseIgnored(s string) (models.Event, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return models.Event{}, fmt.Errorf("invalid ignored busy time %q, want calendar/start/end", s)
	}
	start, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return models.Event{}, fmt.Errorf("invalid start in %q: %w", s, err)
	}
	end, err := time.Parse(time.RFC3339, parts[2])
	if err != nil {
		return models.Event{}, fmt.Errorf("invalid end in %q: %w", s, err)
	}
	return models.Event{Calendar: parts[0], Start: start, End: end}, nil
}
