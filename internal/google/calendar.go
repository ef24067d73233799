package google

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"meetme/internal/models"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// CalendarClient provides a client for interacting with the Google Calendar API.
type CalendarClient struct {
	service *calendar.Service
	logger  *slog.Logger
	account string
}

// NewClient creates a new Google Calendar client.
// It handles loading credentials and setting up an authenticated HTTP client.
// It supports multiple accounts by looking for token files like token-user1.json, token-user2.json, etc.
// The accountName is used to find the correct token file.
func NewClient(ctx context.Context, logger *slog.Logger, clientID, clientSecret, accountName string) (*CalendarClient, error) {
	config, err := getOAuthConfig(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	token, err := tokenFromFile(tokenFile(accountName))
	if err != nil {
		return nil, fmt.Errorf("could not load token for account %s: %w. Please run the 'auth' command first", accountName, err)
	}

	client := config.Client(ctx, token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &CalendarClient{service: service, logger: logger, account: accountName}, nil
}

// Calendars lists the account's calendars, primary first, then selected ones.
func (c *CalendarClient) Calendars(ctx context.Context) ([]models.Calendar, error) {
	list, err := c.service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	cals := toCalendars(list.Items)
	c.logger.Debug("Listed calendars", "account", c.account, "count", len(cals))
	return cals, nil
}

// Busy queries the free/busy service for the busy periods of a calendar between min and max.
func (c *CalendarClient) Busy(ctx context.Context, calendarID string, min, max time.Time) ([]models.Event, error) {
	resp, err := c.service.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: min.Format(time.RFC3339),
		TimeMax: max.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query free/busy: %w", err)
	}

	cal, ok := resp.Calendars[calendarID]
	if !ok {
		return nil, fmt.Errorf("free/busy response has no entry for calendar %s", calendarID)
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("free/busy for calendar %s: %s", calendarID, cal.Errors[0].Reason)
	}

	events, err := toBusyEvents(cal.Busy, calendarID, min.Location())
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Fetched busy times", "calendarID", calendarID, "count", len(events))
	return events, nil
}

// Events fetches the timed events of a calendar between min and max.
func (c *CalendarClient) Events(ctx context.Context, calendarID string, min, max time.Time) ([]models.Event, error) {
	events, err := c.service.Events.List(calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(min.Format(time.RFC3339)).
		TimeMax(max.Format(time.RFC3339)).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve events: %w", err)
	}

	c.logger.Info("Successfully fetched events from Google Calendar", "count", len(events.Items), "calendarID", calendarID)
	return toInternalEvents(events.Items, events.Summary), nil
}

// toInternalEvents converts Google Calendar events to the internal Event model.
func toInternalEvents(googleEvents []*calendar.Event, calendarName string) []models.Event {
	var internalEvents []models.Event
	for _, item := range googleEvents {
		// All-day events carry a date rather than a date-time.
		if item.Start == nil || item.Start.DateTime == "" || item.End == nil || item.End.DateTime == "" {
			continue
		}

		startTime, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			continue
		}
		endTime, err := time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			continue
		}

		title := item.Summary
		if title == "" {
			title = "no summary"
		}

		internalEvents = append(internalEvents, models.Event{
			ID:          item.Id,
			Title:       title,
			Start:       startTime,
			End:         endTime,
			Calendar:    calendarName,
			Source:      "google",
			Transparent: item.Transparency == "transparent",
		})
	}
	return internalEvents
}

// toBusyEvents converts free/busy periods to events in loc.
func toBusyEvents(periods []*calendar.TimePeriod, calendarID string, loc *time.Location) ([]models.Event, error) {
	events := make([]models.Event, 0, len(periods))
	for _, p := range periods {
		start, err := time.Parse(time.RFC3339, p.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid busy start %q: %w", p.Start, err)
		}
		end, err := time.Parse(time.RFC3339, p.End)
		if err != nil {
			return nil, fmt.Errorf("invalid busy end %q: %w", p.End, err)
		}
		events = append(events, models.Event{
			Title:    "busy",
			Start:    start.In(loc),
			End:      end.In(loc),
			Calendar: calendarID,
			Source:   "google",
		})
	}
	return events, nil
}

func toCalendars(items []*calendar.CalendarListEntry) []models.Calendar {
	cals := make([]models.Calendar, 0, len(items))
	for _, item := range items {
		desc := item.Description
		if desc == "" {
			desc = "(no description)"
		}
		cals = append(cals, models.Calendar{
			ID:          item.Id,
			Summary:     strings.TrimSpace(item.Summary),
			Description: desc,
			Primary:     item.Primary,
			Selected:    item.Selected,
		})
	}
	models.SortCalendars(cals)
	return cals
}
