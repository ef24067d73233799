package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"meetme/internal/models"
)

func openTestBolt(t *testing.T) *Bolt {
	t.Helper()
	s, err := OpenBolt(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("can't open database: %s", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBolt_meetings(t *testing.T) {
	ctx := context.Background()
	s := openTestBolt(t)

	first, err := s.CreateMeeting(ctx, models.Meeting{Title: "first", CreatedAt: time.Unix(100, 0).UTC()})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	second, err := s.CreateMeeting(ctx, models.Meeting{Title: "second", CreatedAt: time.Unix(200, 0).UTC()})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if first == "" || first == second {
		t.Fatalf("unexpected ids %q, %q", first, second)
	}

	m, err := s.Meeting(ctx, second)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if m.Title != "second" || m.ID != second {
		t.Errorf("unexpected meeting %+v", m)
	}

	meetings, err := s.Meetings(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(meetings) != 2 || meetings[0].Title != "first" || meetings[1].Title != "second" {
		t.Errorf("unexpected meetings %+v", meetings)
	}

	if _, err := s.Meeting(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound, have %v", err)
	}
}

func TestBolt_busyTimes(t *testing.T) {
	ctx := context.Background()
	s := openTestBolt(t)

	keep, _ := s.CreateMeeting(ctx, models.Meeting{Title: "keep"})
	drop, _ := s.CreateMeeting(ctx, models.Meeting{Title: "drop"})

	start := time.Date(2016, 11, 17, 9, 0, 0, 0, time.UTC)
	err := s.AddBusyTimes(ctx, []models.BusyTime{
		{MeetingID: keep, Name: "bob", Start: start.Add(2 * time.Hour), End: start.Add(3 * time.Hour)},
		{MeetingID: keep, Name: "alice", Start: start, End: start.Add(time.Hour)},
		{MeetingID: drop, Name: "carol", Start: start, End: start.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	busy, err := s.BusyTimes(ctx, keep)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(busy) != 2 {
		t.Fatalf("want 2 busy times, have %d", len(busy))
	}
	if busy[0].Name != "alice" || busy[1].Name != "bob" {
		t.Errorf("busy times not ordered by start: %+v", busy)
	}
	if busy[0].ID == "" {
		t.Error("busy time without id")
	}

	if err := s.DeleteMeetings(ctx, drop, ""); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if _, err := s.Meeting(ctx, drop); !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound, have %v", err)
	}
	busy, err = s.BusyTimes(ctx, drop)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(busy) != 0 {
		t.Errorf("busy times survived their meeting: %+v", busy)
	}

	busy, _ = s.BusyTimes(ctx, keep)
	if len(busy) != 2 {
		t.Errorf("deleting one meeting removed another's busy times: %+v", busy)
	}
}
