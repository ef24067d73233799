package planner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"meetme/internal/agenda"
	"meetme/internal/models"
	"meetme/internal/store"
)

var pst = time.FixedZone("PST", -8*60*60)

func ts(day, clock string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", day+" "+clock, pst)
	if err != nil {
		panic(err)
	}
	return t
}

func event(title, day, begin, end string) models.Event {
	return models.Event{Title: title, Calendar: "work", Start: ts(day, begin), End: ts(day, end)}
}

func meeting() models.Meeting {
	return models.Meeting{
		Title:     "Planning",
		StartDate: "2016-11-17",
		EndDate:   "2016-11-19",
		BeginTime: "08:00",
		EndTime:   "17:00",
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWindows(t *testing.T) {
	windows, err := Windows(meeting(), pst)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(windows) != 3 {
		t.Fatalf("want 3 windows, have %d", len(windows))
	}

	for i, day := range []string{"2016-11-17", "2016-11-18", "2016-11-19"} {
		w := windows[i]
		if !w.Begin().Equal(ts(day, "08:00")) || !w.End().Equal(ts(day, "17:00")) {
			t.Errorf("unexpected window %d: %v", i, w)
		}
		if w.Desc() != "Planning" {
			t.Errorf("unexpected window description %q", w.Desc())
		}
	}

	bad := meeting()
	bad.EndTime = "07:00"
	if _, err := Windows(bad, pst); !errors.Is(err, agenda.ErrInvalidRange) {
		t.Errorf("want ErrInvalidRange, have %v", err)
	}
}

func TestFreeTimes(t *testing.T) {
	windows, _ := Windows(meeting(), pst)

	var busy []agenda.Appt
	for _, e := range []models.Event{
		event("standup", "2016-11-17", "08:00", "08:30"),
		event("lunch", "2016-11-17", "12:00", "13:00"),
		event("lunch overrun", "2016-11-17", "12:30", "13:30"),
		event("offsite", "2016-11-18", "07:00", "18:00"),
	} {
		a, err := e.Appt()
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		busy = append(busy, a)
	}

	free := FreeTimes(busy, windows)

	want := []models.TimeRange{
		{Start: "2016-11-17T08:30:00-08:00", End: "2016-11-17T12:00:00-08:00", Summary: "Planning"},
		{Start: "2016-11-17T13:30:00-08:00", End: "2016-11-17T17:00:00-08:00", Summary: "Planning"},
		{Start: "2016-11-19T08:00:00-08:00", End: "2016-11-19T17:00:00-08:00", Summary: "Planning"},
	}
	got := models.TimeRanges(free)
	if len(got) != len(want) {
		t.Fatalf("want %v, have %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("range %d: want %v, have %v", i, want[i], got[i])
		}
	}
}

func TestTimeline(t *testing.T) {
	single := meeting()
	single.EndDate = single.StartDate
	windows, _ := Windows(single, pst)

	testCases := []struct {
		name   string
		events []models.Event
		want   []models.TimeRange
	}{
		{
			name: "no events",
			want: []models.TimeRange{
				{Start: "2016-11-17T08:00:00-08:00", End: "2016-11-17T17:00:00-08:00", Summary: "Free"},
			},
		},
		{
			name:   "single event",
			events: []models.Event{event("test", "2016-11-17", "08:00", "08:30")},
			want: []models.TimeRange{
				{Start: "2016-11-17T08:00:00-08:00", End: "2016-11-17T08:30:00-08:00", Summary: "test"},
				{Start: "2016-11-17T08:30:00-08:00", End: "2016-11-17T17:00:00-08:00", Summary: "Free"},
			},
		},
		{
			name: "multiple events",
			events: []models.Event{
				event("test2", "2016-11-17", "13:21", "15:55"),
				event("test1", "2016-11-17", "08:00", "08:30"),
				{Title: "hidden", Start: ts("2016-11-17", "09:00"), End: ts("2016-11-17", "10:00"), Transparent: true},
			},
			want: []models.TimeRange{
				{Start: "2016-11-17T08:00:00-08:00", End: "2016-11-17T08:30:00-08:00", Summary: "test1"},
				{Start: "2016-11-17T08:30:00-08:00", End: "2016-11-17T13:21:00-08:00", Summary: "Free"},
				{Start: "2016-11-17T13:21:00-08:00", End: "2016-11-17T15:55:00-08:00", Summary: "test2"},
				{Start: "2016-11-17T15:55:00-08:00", End: "2016-11-17T17:00:00-08:00", Summary: "Free"},
			},
		},
		{
			name:   "event clipped to window",
			events: []models.Event{event("early", "2016-11-17", "07:00", "09:00")},
			want: []models.TimeRange{
				{Start: "2016-11-17T08:00:00-08:00", End: "2016-11-17T09:00:00-08:00", Summary: "early"},
				{Start: "2016-11-17T09:00:00-08:00", End: "2016-11-17T17:00:00-08:00", Summary: "Free"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Timeline(tc.events, windows)
			if len(got) != len(tc.want) {
				t.Fatalf("want %v, have %v", tc.want, got)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("entry %d: want %v, have %v", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestWithout(t *testing.T) {
	busy := []models.Event{
		event("a", "2016-11-17", "08:00", "09:00"),
		event("b", "2016-11-17", "10:00", "11:00"),
	}
	other := event("b", "2016-11-17", "10:00", "11:00")
	other.Calendar = "home"

	got := Without(busy, []models.Event{busy[1], other})
	if len(got) != 1 || got[0].Title != "a" {
		t.Errorf("unexpected busy times %v", got)
	}
	if len(busy) != 2 {
		t.Error("Without modified its input")
	}
}

type fakeSource map[string][]models.Event

func (f fakeSource) Busy(_ context.Context, calendarID string, min, max time.Time) ([]models.Event, error) {
	events, ok := f[calendarID]
	if !ok {
		return nil, errors.New("no such calendar")
	}
	var in []models.Event
	for _, e := range events {
		if e.Start.Before(max) && e.End.After(min) {
			in = append(in, e)
		}
	}
	return in, nil
}

func TestPlanner_CheckCalendars(t *testing.T) {
	src := fakeSource{
		"work": {
			event("standup", "2016-11-17", "08:00", "08:30"),
			event("review", "2016-11-18", "16:00", "17:00"),
			{Title: "broken", Start: ts("2016-11-19", "10:00"), End: ts("2016-11-19", "09:00")},
		},
	}

	p := New(discard(), nil, pst)
	results, err := p.CheckCalendars(context.Background(), meeting(), src, []string{"work", "", "missing"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(results) != 1 {
		t.Fatalf("want results for 1 calendar, have %d", len(results))
	}

	work := results[0]
	if work.Calendar != "work" || len(work.Busy) != 2 {
		t.Errorf("unexpected busy times %+v", work.Busy)
	}
	if work.Free.Len() != 3 {
		t.Errorf("want 3 free blocks, have\n%v", work.Free)
	}
}

func TestPlanner_CheckCalendarsSpanningEvent(t *testing.T) {
	trip := models.Event{ID: "trip-1", Title: "trip", Calendar: "work", Start: ts("2016-11-17", "16:00"), End: ts("2016-11-18", "10:00")}
	src := fakeSource{"work": {trip}}

	p := New(discard(), nil, pst)
	results, err := p.CheckCalendars(context.Background(), meeting(), src, []string{"work"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(results) != 1 || len(results[0].Busy) != 1 {
		t.Fatalf("want the trip once, have %+v", results)
	}

	windows, _ := Windows(meeting(), pst)
	want := []models.TimeRange{
		{Start: "2016-11-17T08:00:00-08:00", End: "2016-11-17T16:00:00-08:00", Summary: "Free"},
		{Start: "2016-11-17T16:00:00-08:00", End: "2016-11-17T17:00:00-08:00", Summary: "trip"},
		{Start: "2016-11-18T08:00:00-08:00", End: "2016-11-18T10:00:00-08:00", Summary: "trip"},
		{Start: "2016-11-18T10:00:00-08:00", End: "2016-11-18T17:00:00-08:00", Summary: "Free"},
		{Start: "2016-11-19T08:00:00-08:00", End: "2016-11-19T17:00:00-08:00", Summary: "Free"},
	}
	got := Timeline(results[0].Busy, windows)
	if len(got) != len(want) {
		t.Fatalf("want %v, have %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: want %v, have %v", i, want[i], got[i])
		}
	}
	if results[0].Free.Len() != 3 {
		t.Errorf("want 3 free blocks, have\n%v", results[0].Free)
	}
}

func TestPlanner_respondAndAvailable(t *testing.T) {
	ctx := context.Background()

	s, err := store.OpenBolt(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("can't open database: %s", err)
	}
	defer s.Close()

	id, err := s.CreateMeeting(ctx, meeting())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	p := New(discard(), s, pst)

	_, err = p.Respond(ctx, id, "alice", []models.Event{
		event("standup", "2016-11-17", "08:00", "09:00"),
		event("offsite", "2016-11-18", "08:00", "17:00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	_, err = p.Respond(ctx, id, "bob", []models.Event{
		event("dentist", "2016-11-17", "08:30", "10:00"),
		event("gym", "2016-11-19", "12:00", "13:00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	_, err = p.Respond(ctx, id, "carol", []models.Event{
		{Title: "reversed", Start: ts("2016-11-17", "12:00"), End: ts("2016-11-17", "11:00")},
	})
	if !errors.Is(err, agenda.ErrInvalidRange) {
		t.Errorf("want ErrInvalidRange, have %v", err)
	}

	if _, err := p.Respond(ctx, "missing", "dave", nil); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("want ErrNotFound, have %v", err)
	}

	avail, err := p.Available(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if len(avail.Respondents) != 2 || avail.Respondents[0] != "alice" || avail.Respondents[1] != "bob" {
		t.Errorf("unexpected respondents %v", avail.Respondents)
	}

	want := agenda.New(
		mustAppt(t, ts("2016-11-17", "10:00"), ts("2016-11-17", "17:00")),
		mustAppt(t, ts("2016-11-19", "08:00"), ts("2016-11-19", "12:00")),
		mustAppt(t, ts("2016-11-19", "13:00"), ts("2016-11-19", "17:00")),
	)
	if !avail.Free.Equal(want) {
		t.Errorf("unexpected availability, want\n%v\nhave\n%v", want, avail.Free)
	}
}

func mustAppt(t *testing.T, begin, end time.Time) agenda.Appt {
	t.Helper()
	a, err := agenda.NewAppt(begin, end, "")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	return a
}
