package models

import (
	"fmt"
	"time"

	"meetme/internal/agenda"
)

// Event represents a busy block read from a calendar.
// This is an internal representation, independent of any specific calendar provider.
type Event struct {
	ID          string    // Identifier at the source, if any
	Title       string    // Summary or title of the event
	Start       time.Time // Start time of the event
	End         time.Time // End time of the event
	Calendar    string    // Calendar the event was read from
	Source      string    // The source of the event (e.g., "google", "caldav")
	Transparent bool      // Event does not block time
}

// Appt converts the event to an appointment described by its title.
func (e Event) Appt() (agenda.Appt, error) {
	return agenda.NewAppt(e.Start, e.End, e.Title)
}

// TimeRange is the serialised form of a block of time handed to API clients.
type TimeRange struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Summary string `json:"summary,omitempty"`
}

// NewTimeRange serialises appt with RFC 3339 timestamps, keeping sub-second precision.
func NewTimeRange(appt agenda.Appt) TimeRange {
	start, end := appt.ISORange()
	return TimeRange{Start: start, End: end, Summary: appt.Desc()}
}

// TimeRanges serialises every appointment in ag, in order.
func TimeRanges(ag *agenda.Agenda) []TimeRange {
	ranges := make([]TimeRange, 0, ag.Len())
	for appt := range ag.All() {
		ranges = append(ranges, NewTimeRange(appt))
	}
	return ranges
}

// Appt parses the range back into an appointment.
func (r TimeRange) Appt() (agenda.Appt, error) {
	start, err := time.Parse(time.RFC3339Nano, r.Start)
	if err != nil {
		return agenda.Appt{}, fmt.Errorf("invalid start %q: %w", r.Start, err)
	}
	end, err := time.Parse(time.RFC3339Nano, r.End)
	if err != nil {
		return agenda.Appt{}, fmt.Errorf("invalid end %q: %w", r.End, err)
	}
	return agenda.NewAppt(start, end, r.Summary)
}
