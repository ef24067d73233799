package agenda

import (
	"iter"
	"slices"
)

// Normalized is an agenda known to be sorted by begin time with no
// overlapping appointments. The zero value is an empty schedule.
type Normalized struct {
	appts []Appt
}

// Len returns the number of appointments.
func (n Normalized) Len() int {
	return len(n.appts)
}

// All iterates over the appointments in begin order.
func (n Normalized) All() iter.Seq[Appt] {
	return slices.Values(n.appts)
}

// Agenda returns a mutable copy.
func (n Normalized) Agenda() *Agenda {
	return New(n.appts...)
}

// Complement returns the gaps within bound not covered by n, in order.
// Every gap is described by bound's description.
func (n Normalized) Complement(bound Appt) *Agenda {
	comp := &Agenda{}
	cur := bound.begin
	for _, appt := range n.appts {
		if appt.Precedes(bound) {
			continue
		}
		if appt.Follows(bound) {
			if cur.Before(bound.end) {
				comp.Append(Appt{begin: cur, end: bound.end, desc: bound.desc})
				cur = bound.end
			}
			// Sorted input: nothing later can reach back into bound.
			break
		}
		if cur.Before(appt.begin) {
			comp.Append(Appt{begin: cur, end: appt.begin, desc: bound.desc})
		}
		cur = latest(cur, appt.end)
	}
	if cur.Before(bound.end) {
		comp.Append(Appt{begin: cur, end: bound.end, desc: bound.desc})
	}
	return comp
}
