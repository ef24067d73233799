package icloud

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"meetme/internal/agenda"

	"github.com/emersion/go-ical"
)

func decode(t *testing.T, lines ...string) *ical.Calendar {
	t.Helper()
	cal, err := ical.NewDecoder(strings.NewReader(strings.Join(lines, "\r\n") + "\r\n")).Decode()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	return cal
}

func TestEventsFromCalendar(t *testing.T) {
	loc := time.FixedZone("PST", -8*60*60)
	cal := decode(t,
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:standup",
		"SUMMARY:Standup",
		"DTSTART:20161117T160000Z",
		"DTEND:20161117T163000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:lunch",
		"SUMMARY:Lunch",
		"DTSTART:20161117T200000Z",
		"DURATION:PT1H",
		"TRANSP:TRANSPARENT",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:cancelled",
		"STATUS:CANCELLED",
		"DTSTART:20161117T180000Z",
		"DTEND:20161117T190000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:holiday",
		"DTSTART;VALUE=DATE:20161118",
		"DTEND;VALUE=DATE:20161119",
		"END:VEVENT",
		"END:VCALENDAR",
	)

	events, err := eventsFromCalendar(cal, "Home", loc)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(events) != 2 {
		t.Fatalf("want 2 events, have %d: %+v", len(events), events)
	}

	standup := events[0]
	if standup.ID != "standup" || standup.Title != "Standup" || standup.Calendar != "Home" || standup.Transparent {
		t.Errorf("unexpected event %+v", standup)
	}
	if got := standup.Start.Format(time.RFC3339); got != "2016-11-17T08:00:00-08:00" {
		t.Errorf("start not converted to location: %s", got)
	}

	lunch := events[1]
	if !lunch.Transparent {
		t.Error("expected lunch to be transparent")
	}
	if d := lunch.End.Sub(lunch.Start); d != time.Hour {
		t.Errorf("want end from DURATION, have duration %v", d)
	}
}

func TestEventsFromCalendarMissingEnd(t *testing.T) {
	cal := decode(t,
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:open",
		"DTSTART:20161117T160000Z",
		"END:VEVENT",
		"END:VCALENDAR",
	)

	if _, err := eventsFromCalendar(cal, "Home", time.UTC); err == nil {
		t.Error("expected error for event without end")
	}
}

func TestFreeBlockCalendar(t *testing.T) {
	begin := time.Date(2016, 11, 17, 9, 0, 0, 0, time.UTC)
	free, err := agenda.NewAppt(begin, begin.Add(90*time.Minute), "Free")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(freeBlockCalendar("uid-1", "Planning", free)); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	text := buf.String()
	for _, want := range []string{"UID:uid-1", "SUMMARY:Free: Planning", "TRANSP:TRANSPARENT", "DESCRIPTION:Free"} {
		if !strings.Contains(text, want) {
			t.Errorf("encoded calendar lacks %q:\n%s", want, text)
		}
	}

	cal, err := ical.NewDecoder(&buf).Decode()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	events, err := eventsFromCalendar(cal, "Published", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(events) != 1 || !events[0].Start.Equal(free.Begin()) || !events[0].End.Equal(free.End()) {
		t.Errorf("free block did not survive encoding: %+v", events)
	}
}

func TestGenerateUID(t *testing.T) {
	if a, b := GenerateUID(), GenerateUID(); a == "" || a == b {
		t.Errorf("want distinct identifiers, have %q and %q", a, b)
	}
}
