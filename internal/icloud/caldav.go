package icloud

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"sync"
	"time"

	"meetme/internal/agenda"
	"meetme/internal/models"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"
)

// DefaultEndpoint is the iCloud CalDAV server.
const DefaultEndpoint = "https://caldav.icloud.com/"

// customTransport handles adding Basic Auth and custom headers to requests.
type customTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "meetme/1.0")
	return t.Transport.RoundTrip(req)
}

// CalDAVClient reads busy times from, and publishes free blocks to, a CalDAV server.
type CalDAVClient struct {
	caldavClient *caldav.Client
	webdavClient *webdav.Client
	logger       *slog.Logger
	loc          *time.Location

	// publishTo is the calendar free blocks are written to.
	publishTo string

	mu        sync.Mutex
	calendars map[string]string // name -> path
}

// NewClient creates a CalDAV client for endpoint. Busy times are reported in loc;
// PublishFree writes to the calendar named publishTo.
func NewClient(logger *slog.Logger, endpoint, username, password, publishTo string, loc *time.Location) (*CalDAVClient, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	httpClient := &http.Client{Transport: &customTransport{
		Username:  username,
		Password:  password,
		Transport: http.DefaultTransport,
	}}

	caldavClient, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	webdavClient, err := webdav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdav client: %w", err)
	}

	return &CalDAVClient{
		caldavClient: caldavClient,
		webdavClient: webdavClient,
		logger:       logger,
		loc:          loc,
		publishTo:    publishTo,
	}, nil
}

// Busy returns the opaque, non-cancelled events of the named calendar between min and max.
func (c *CalDAVClient) Busy(ctx context.Context, calendarName string, min, max time.Time) ([]models.Event, error) {
	calPath, err := c.findCalendar(ctx, calendarName)
	if err != nil {
		return nil, err
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: ical.CompCalendar,
			Comps: []caldav.CalendarCompRequest{{
				Name: ical.CompEvent,
				Props: []string{
					ical.PropUID, ical.PropSummary, ical.PropDateTimeStart, ical.PropDateTimeEnd,
					ical.PropDuration, ical.PropTransparency, ical.PropStatus,
				},
			}},
		},
		CompFilter: caldav.CompFilter{
			Name:  ical.CompCalendar,
			Comps: []caldav.CompFilter{{Name: ical.CompEvent, Start: min, End: max}},
		},
	}

	objects, err := c.caldavClient.QueryCalendar(ctx, calPath, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar '%s': %w", calendarName, err)
	}

	var events []models.Event
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		found, err := eventsFromCalendar(obj.Data, calendarName, c.loc)
		if err != nil {
			c.logger.Warn("Skipping unreadable calendar object", "path", obj.Path, "error", err)
			continue
		}
		events = append(events, found...)
	}

	c.logger.Debug("Fetched busy times from CalDAV", "calendar", calendarName, "count", len(events))
	return events, nil
}

// PublishFree writes every free block to the publishing calendar as a
// transparent event titled after the meeting.
func (c *CalDAVClient) PublishFree(ctx context.Context, title string, free *agenda.Agenda) error {
	calPath, err := c.findCalendar(ctx, c.publishTo)
	if err != nil {
		return err
	}

	for appt := range free.All() {
		uid := GenerateUID()
		eventPath := path.Join(calPath, uid+".ics")

		writer, err := c.webdavClient.Create(ctx, eventPath)
		if err != nil {
			return fmt.Errorf("failed to create event on CalDAV server: %w", err)
		}
		if err := ical.NewEncoder(writer).Encode(freeBlockCalendar(uid, title, appt)); err != nil {
			writer.Close()
			return fmt.Errorf("failed to encode event to iCal format: %w", err)
		}
		if err := writer.Close(); err != nil {
			return fmt.Errorf("failed to upload event: %w", err)
		}
		c.logger.Info("Published free block", "title", title, "start", appt.Begin())
	}
	return nil
}

// findCalendar discovers the user's calendars and returns the path of the one with the matching name.
func (c *CalDAVClient) findCalendar(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.calendars == nil {
		principalPath, err := c.caldavClient.FindCurrentUserPrincipal(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to find principal path: %w", err)
		}

		homeSetPath, err := c.caldavClient.FindCalendarHomeSet(ctx, principalPath)
		if err != nil {
			return "", fmt.Errorf("failed to find calendar home set: %w", err)
		}

		calendars, err := c.caldavClient.FindCalendars(ctx, homeSetPath)
		if err != nil {
			return "", fmt.Errorf("failed to find calendars: %w", err)
		}

		c.calendars = make(map[string]string, len(calendars))
		for _, cal := range calendars {
			c.calendars[cal.Name] = cal.Path
		}
		c.logger.Info("Discovered CalDAV calendars", "count", len(calendars))
	}

	calPath, ok := c.calendars[name]
	if !ok {
		return "", fmt.Errorf("no calendar found with name '%s'", name)
	}
	return calPath, nil
}

// GenerateUID creates a new unique identifier for an event.
func GenerateUID() string {
	return uuid.New().String()
}
