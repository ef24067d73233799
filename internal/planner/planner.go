// Package planner finds free time for meeting proposals from the busy times
// of their respondents.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"meetme/internal/agenda"
	"meetme/internal/models"
	"meetme/internal/store"
)

// BusySource reads busy blocks of a calendar between min and max.
type BusySource interface {
	Busy(ctx context.Context, calendarID string, min, max time.Time) ([]models.Event, error)
}

// CalendarTimes holds the busy and free times found in one calendar.
type CalendarTimes struct {
	Calendar string
	Busy     []models.Event
	Free     *agenda.Agenda
}

// Availability is what a meeting's respondents have in common.
type Availability struct {
	Meeting     models.Meeting
	Respondents []string
	Free        *agenda.Agenda
}

// Planner orchestrates busy-time lookups and free-time computation.
type Planner struct {
	logger *slog.Logger
	store  store.Store
	loc    *time.Location
}

// New creates a new Planner. Meeting windows are interpreted in loc.
func New(logger *slog.Logger, s store.Store, loc *time.Location) *Planner {
	return &Planner{logger: logger, store: s, loc: loc}
}

// CheckCalendars reads every calendar from src one meeting window at a time
// and returns, per calendar, its busy events and the free time left in the
// windows. A calendar that cannot be read is logged and skipped.
func (p *Planner) CheckCalendars(ctx context.Context, m models.Meeting, src BusySource, calendarIDs []string) ([]CalendarTimes, error) {
	windows, err := Windows(m, p.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid meeting window: %w", err)
	}

	var results []CalendarTimes
	for _, calID := range calendarIDs {
		if calID == "" {
			continue
		}
		times, err := p.checkCalendar(ctx, src, calID, windows)
		if err != nil {
			p.logger.Error("Could not read busy times for a calendar", "calendarID", calID, "error", err)
			continue
		}
		results = append(results, times)
	}
	return results, nil
}

func (p *Planner) checkCalendar(ctx context.Context, src BusySource, calID string, windows []agenda.Appt) (CalendarTimes, error) {
	times := CalendarTimes{Calendar: calID}

	var busy []agenda.Appt
	seen := make(map[eventKey]bool)
	for _, w := range windows {
		events, err := src.Busy(ctx, calID, w.Begin(), w.End())
		if err != nil {
			return times, fmt.Errorf("window %s: %w", w, err)
		}
		for _, e := range events {
			if e.Transparent {
				continue
			}
			// Events spanning several windows are reported once per window.
			key := keyOf(e)
			if seen[key] {
				continue
			}
			seen[key] = true
			a, err := e.Appt()
			if err != nil {
				p.logger.Warn("Skipping busy time with invalid range", "calendarID", calID, "title", e.Title, "error", err)
				continue
			}
			busy = append(busy, a)
			times.Busy = append(times.Busy, e)
		}
	}

	times.Free = FreeTimes(busy, windows)
	p.logger.Debug("Checked calendar", "calendarID", calID, "busy", len(times.Busy), "free", times.Free.Len())
	return times, nil
}

type eventKey struct {
	id, calendar string
	start, end   int64
}

func keyOf(e models.Event) eventKey {
	return eventKey{id: e.ID, calendar: e.Calendar, start: e.Start.UnixNano(), end: e.End.UnixNano()}
}

// Respond stores the busy events of respondent name for the meeting.
// Every event is validated before anything is stored.
func (p *Planner) Respond(ctx context.Context, meetingID, name string, events []models.Event) ([]models.BusyTime, error) {
	if _, err := p.store.Meeting(ctx, meetingID); err != nil {
		return nil, err
	}

	busy := make([]models.BusyTime, 0, len(events))
	for _, e := range events {
		bt := models.BusyTime{
			ID:        store.NewID(),
			MeetingID: meetingID,
			Name:      name,
			Calendar:  e.Calendar,
			Start:     e.Start,
			End:       e.End,
		}
		if _, err := bt.Appt(); err != nil {
			return nil, fmt.Errorf("busy time %q: %w", e.Title, err)
		}
		busy = append(busy, bt)
	}

	if err := p.store.AddBusyTimes(ctx, busy); err != nil {
		return nil, fmt.Errorf("failed to store busy times: %w", err)
	}
	p.logger.Info("Stored busy times", "meetingID", meetingID, "name", name, "count", len(busy))
	return busy, nil
}

// Available pools the busy times of every respondent to the meeting and
// returns the time left free in each of its daily windows.
func (p *Planner) Available(ctx context.Context, meetingID string) (*Availability, error) {
	m, err := p.store.Meeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	windows, err := Windows(m, p.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid meeting window: %w", err)
	}

	records, err := p.store.BusyTimes(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load busy times: %w", err)
	}

	var (
		busy  []agenda.Appt
		names []string
	)
	for _, r := range records {
		if !slices.Contains(names, r.Name) {
			names = append(names, r.Name)
		}
		a, err := r.Appt()
		if err != nil {
			p.logger.Warn("Ignoring stored busy time with invalid range", "id", r.ID, "error", err)
			continue
		}
		busy = append(busy, a)
	}

	return &Availability{
		Meeting:     m,
		Respondents: names,
		Free:        FreeTimes(busy, windows),
	}, nil
}
