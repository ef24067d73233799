package agenda

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidRange is returned when an appointment would not end after it begins.
	ErrInvalidRange = errors.New("appointment end must be after begin")
	// ErrPrecondition marks misuse of Intersect or Union on appointments that do not overlap.
	ErrPrecondition = errors.New("appointments do not overlap")
)

// PreconditionError is the panic value raised by Intersect and Union when the
// caller did not check Overlaps first.
type PreconditionError struct {
	Op   string
	A, B Appt
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s %v and %v: %v", e.Op, e.A, e.B, ErrPrecondition)
}

func (e *PreconditionError) Unwrap() error { return ErrPrecondition }

// Appt is a single appointment from a begin time up to (not including) an end time.
type Appt struct {
	begin time.Time
	end   time.Time
	desc  string
}

// NewAppt creates an appointment from begin to end.
// It fails with ErrInvalidRange unless begin is strictly before end.
func NewAppt(begin, end time.Time, desc string) (Appt, error) {
	if !begin.Before(end) {
		return Appt{}, fmt.Errorf("%s to %s: %w", begin.Format(time.RFC3339), end.Format(time.RFC3339), ErrInvalidRange)
	}
	return Appt{begin: begin, end: end, desc: desc}, nil
}

// Begin returns the time the appointment starts.
func (a Appt) Begin() time.Time { return a.begin }

// End returns the time the appointment is over.
func (a Appt) End() time.Time { return a.end }

// Desc returns the appointment's description.
func (a Appt) Desc() string { return a.desc }

// Duration returns the length of the appointment.
func (a Appt) Duration() time.Duration { return a.end.Sub(a.begin) }

// Precedes reports whether a is done by the time other begins.
// Appointments that touch precede one another; they do not overlap.
func (a Appt) Precedes(other Appt) bool {
	return !other.begin.Before(a.end)
}

// Follows reports whether other is done by the time a begins.
func (a Appt) Follows(other Appt) bool {
	return other.Precedes(a)
}

// Overlaps reports whether a and other share a non-zero stretch of time.
func (a Appt) Overlaps(other Appt) bool {
	return !(a.Precedes(other) || a.Follows(other))
}

// Intersect returns the period a and other have in common, described by a's
// description unless WithDesc overrides it.
//
// It panics with a *PreconditionError if the appointments do not overlap.
func (a Appt) Intersect(other Appt, opts ...Option) Appt {
	if !a.Overlaps(other) {
		panic(&PreconditionError{Op: "intersect", A: a, B: other})
	}
	desc := resolve(opts, a.desc)
	return Appt{
		begin: latest(a.begin, other.begin),
		end:   earliest(a.end, other.end),
		desc:  desc,
	}
}

// Union returns the period spanning both a and other. The description is the
// two descriptions joined by a space unless WithDesc overrides it.
//
// It panics with a *PreconditionError if the appointments do not overlap.
func (a Appt) Union(other Appt, opts ...Option) Appt {
	if !a.Overlaps(other) {
		panic(&PreconditionError{Op: "union", A: a, B: other})
	}
	desc := resolve(opts, a.desc+" "+other.desc)
	return Appt{
		begin: earliest(a.begin, other.begin),
		end:   latest(a.end, other.end),
		desc:  desc,
	}
}

// ISORange returns begin and end formatted as RFC 3339 timestamps, with
// fractional seconds only when present.
func (a Appt) ISORange() (string, string) {
	return a.begin.Format(time.RFC3339Nano), a.end.Format(time.RFC3339Nano)
}

func (a Appt) String() string {
	return fmt.Sprintf("%s %s|%s", a.begin.Format("2006-01-02 15:04"), a.end.Format("15:04"), a.desc)
}

func earliest(x, y time.Time) time.Time {
	if y.Before(x) {
		return y
	}
	return x
}

func latest(x, y time.Time) time.Time {
	if y.After(x) {
		return y
	}
	return x
}
