package planner

import (
	"fmt"
	"slices"
	"time"

	"meetme/internal/agenda"
	"meetme/internal/models"
)

// FreeSummary describes gaps in a timeline.
const FreeSummary = "Free"

// Windows returns one bound per day of the meeting's date range, from the
// daily begin time to the daily end time in loc, described by the title.
func Windows(m models.Meeting, loc *time.Location) ([]agenda.Appt, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	first, err := time.ParseInLocation(models.DateLayout, m.StartDate, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}
	last, err := time.ParseInLocation(models.DateLayout, m.EndDate, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid end date: %w", err)
	}
	begin, _ := time.Parse(models.ClockLayout, m.BeginTime)
	end, _ := time.Parse(models.ClockLayout, m.EndTime)

	var windows []agenda.Appt
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		y, mo, d := day.Date()
		w, err := agenda.NewAppt(
			time.Date(y, mo, d, begin.Hour(), begin.Minute(), 0, 0, loc),
			time.Date(y, mo, d, end.Hour(), end.Minute(), 0, 0, loc),
			m.Title,
		)
		if err != nil {
			return nil, fmt.Errorf("window on %s: %w", day.Format(models.DateLayout), err)
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// FreeTimes pools busy into a single agenda and returns its complement
// within every window, in window order.
func FreeTimes(busy []agenda.Appt, windows []agenda.Appt) *agenda.Agenda {
	pooled := agenda.New(busy...).Canonical()

	free := agenda.New()
	for _, w := range windows {
		for gap := range pooled.Complement(w).All() {
			free.Append(gap)
		}
	}
	return free
}

// Timeline lists, for every window, the busy events clipped to the window
// alongside the free gaps between them, ordered by start. Transparent
// events and events that end before they start are left out.
func Timeline(events []models.Event, windows []agenda.Appt) []models.TimeRange {
	busy := agenda.New()
	for _, e := range events {
		if e.Transparent {
			continue
		}
		a, err := e.Appt()
		if err != nil {
			continue
		}
		busy.Append(a)
	}

	var timeline []models.TimeRange
	for _, w := range windows {
		bound, _ := agenda.NewAppt(w.Begin(), w.End(), FreeSummary)

		day := busy.Intersect(agenda.New(bound)).Appts()
		day = append(day, busy.Complement(bound).Appts()...)
		slices.SortStableFunc(day, func(x, y agenda.Appt) int {
			return x.Begin().Compare(y.Begin())
		})

		for _, a := range day {
			timeline = append(timeline, models.NewTimeRange(a))
		}
	}
	return timeline
}

// Without drops the busy events matching an ignored event's calendar,
// start and end.
func Without(busy, ignored []models.Event) []models.Event {
	return slices.DeleteFunc(slices.Clone(busy), func(e models.Event) bool {
		return slices.ContainsFunc(ignored, func(i models.Event) bool {
			return i.Calendar == e.Calendar && i.Start.Equal(e.Start) && i.End.Equal(e.End)
		})
	})
}
