package models

import (
	"errors"
	"fmt"
	"time"

	"meetme/internal/agenda"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Meeting is a proposal for which respondents submit their busy times.
type Meeting struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Proposer    string    `json:"proposer" bson:"proposer_name"`
	Description string    `json:"description,omitempty" bson:"desc"`
	StartDate   string    `json:"startDate" bson:"start_date"` // first day, DateLayout
	EndDate     string    `json:"endDate" bson:"end_date"`     // last day, inclusive
	BeginTime   string    `json:"beginTime" bson:"start_time"` // daily window start, ClockLayout
	EndTime     string    `json:"endTime" bson:"end_time"`     // daily window end
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
}

// Validate checks that the meeting's dates and daily window parse and are ordered.
func (m *Meeting) Validate() error {
	if m.Title == "" {
		return errors.New("meeting title is required")
	}
	start, err := time.Parse(DateLayout, m.StartDate)
	if err != nil {
		return fmt.Errorf("invalid start date %q: %w", m.StartDate, err)
	}
	end, err := time.Parse(DateLayout, m.EndDate)
	if err != nil {
		return fmt.Errorf("invalid end date %q: %w", m.EndDate, err)
	}
	if end.Before(start) {
		return fmt.Errorf("end date %s is before start date %s", m.EndDate, m.StartDate)
	}
	begin, err := time.Parse(ClockLayout, m.BeginTime)
	if err != nil {
		return fmt.Errorf("invalid begin time %q: %w", m.BeginTime, err)
	}
	finish, err := time.Parse(ClockLayout, m.EndTime)
	if err != nil {
		return fmt.Errorf("invalid end time %q: %w", m.EndTime, err)
	}
	if !begin.Before(finish) {
		return fmt.Errorf("daily window %s-%s: %w", m.BeginTime, m.EndTime, agenda.ErrInvalidRange)
	}
	return nil
}

// BusyTime is a block of time a respondent cannot attend a meeting.
type BusyTime struct {
	ID        string    `json:"id" bson:"_id"`
	MeetingID string    `json:"meetingId" bson:"proposal_ID"`
	Name      string    `json:"name" bson:"name"`
	Calendar  string    `json:"calendar,omitempty" bson:"calendar,omitempty"`
	Start     time.Time `json:"start" bson:"start"`
	End       time.Time `json:"end" bson:"end"`
}

// Appt converts the busy time to an appointment described by the respondent's name.
func (b BusyTime) Appt() (agenda.Appt, error) {
	return agenda.NewAppt(b.Start, b.End, b.Name)
}
