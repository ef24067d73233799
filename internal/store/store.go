// Package store persists meeting proposals and the busy times respondents
// submit for them.
package store

import (
	"context"
	"errors"

	"meetme/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a meeting does not exist.
var ErrNotFound = errors.New("not found")

// Store keeps meetings and busy times.
type Store interface {
	// CreateMeeting stores m, assigning an ID if it has none, and returns the ID.
	CreateMeeting(ctx context.Context, m models.Meeting) (string, error)
	Meeting(ctx context.Context, id string) (models.Meeting, error)
	Meetings(ctx context.Context) ([]models.Meeting, error)
	// DeleteMeetings removes the meetings and every busy time submitted for them.
	DeleteMeetings(ctx context.Context, ids ...string) error
	// AddBusyTimes stores busy times, assigning IDs where missing.
	AddBusyTimes(ctx context.Context, busy []models.BusyTime) error
	BusyTimes(ctx context.Context, meetingID string) ([]models.BusyTime, error)
	Close() error
}

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.New().String()
}
