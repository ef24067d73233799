// Package agenda represents a schedule of appointments and the set algebra
// used to find free time in it.
//
// An Agenda is a list of Appt kept in insertion order until it is
// normalized, after which it is sorted by begin time and no two of its
// appointments overlap.
package agenda

import (
	"iter"
	"slices"
	"strings"
)

// Agenda is an ordered collection of appointments. It is not safe for
// concurrent use.
type Agenda struct {
	appts []Appt
}

// New returns an agenda holding appts in the given order.
func New(appts ...Appt) *Agenda {
	return &Agenda{appts: slices.Clone(appts)}
}

// Append adds appt to the end of the agenda. No ordering is enforced.
func (a *Agenda) Append(appt Appt) {
	a.appts = append(a.appts, appt)
}

// Len returns the number of appointments in the agenda.
func (a *Agenda) Len() int {
	return len(a.appts)
}

// All iterates over the appointments in their current order.
func (a *Agenda) All() iter.Seq[Appt] {
	return func(yield func(Appt) bool) {
		for _, appt := range a.appts {
			if !yield(appt) {
				return
			}
		}
	}
}

// Appts returns a copy of the appointments in their current order.
func (a *Agenda) Appts() []Appt {
	return slices.Clone(a.appts)
}

// Intersect returns a new agenda with the overlap of every pair of
// appointments from a and other. Descriptions come from a's appointments
// unless WithDesc overrides them all.
//
// The result is in a-major, other-minor order and is not normalized.
func (a *Agenda) Intersect(other *Agenda, opts ...Option) *Agenda {
	result := &Agenda{}
	for _, mine := range a.appts {
		for _, theirs := range other.appts {
			if mine.Overlaps(theirs) {
				result.Append(mine.Intersect(theirs, opts...))
			}
		}
	}
	return result
}

// IntersectNormalized is Intersect followed by Normalize.
func (a *Agenda) IntersectNormalized(other *Agenda, opts ...Option) *Agenda {
	result := a.Intersect(other, opts...)
	result.Normalize()
	return result
}

// Normalize merges overlapping appointments in place. Afterwards the agenda
// is sorted by begin time and no two appointments overlap. Merged
// appointments get the combined description of their parts.
func (a *Agenda) Normalize() {
	if len(a.appts) == 0 {
		return
	}

	slices.SortStableFunc(a.appts, func(x, y Appt) int {
		return x.begin.Compare(y.begin)
	})

	normalized := make([]Appt, 0, len(a.appts))
	cur := a.appts[0]
	for _, appt := range a.appts[1:] {
		if appt.Follows(cur) {
			normalized = append(normalized, cur)
			cur = appt
			continue
		}
		cur = cur.Union(appt)
	}
	a.appts = append(normalized, cur)
}

// Normalized returns a normalized copy of the agenda, leaving a untouched.
func (a *Agenda) Normalized() *Agenda {
	copied := New(a.appts...)
	copied.Normalize()
	return copied
}

// Canonical returns the normalized form of the agenda.
func (a *Agenda) Canonical() Normalized {
	return Normalized{appts: a.Normalized().appts}
}

// Complement returns the times within bound not covered by any appointment
// in the agenda. Each gap carries bound's description.
func (a *Agenda) Complement(bound Appt) *Agenda {
	return a.Canonical().Complement(bound)
}

// Equal reports whether a and other cover the same blocks of time in the
// same order. Descriptions are ignored.
func (a *Agenda) Equal(other *Agenda) bool {
	return slices.EqualFunc(a.appts, other.appts, func(x, y Appt) bool {
		return x.begin.Equal(y.begin) && x.end.Equal(y.end)
	})
}

func (a *Agenda) String() string {
	lines := make([]string, 0, len(a.appts))
	for _, appt := range a.appts {
		lines = append(lines, appt.String())
	}
	return strings.Join(lines, "\n")
}
