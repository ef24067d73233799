package models

import (
	"cmp"
	"slices"
)

// Calendar describes a calendar a respondent can read busy times from.
type Calendar struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	Primary     bool   `json:"primary"`
	Selected    bool   `json:"selected"`
}

// SortCalendars orders the primary calendar first, then selected calendars,
// then everything else, each group by summary.
func SortCalendars(cals []Calendar) {
	slices.SortStableFunc(cals, func(a, b Calendar) int {
		if c := cmpFirst(a.Primary, b.Primary); c != 0 {
			return c
		}
		if c := cmpFirst(a.Selected, b.Selected); c != 0 {
			return c
		}
		return cmp.Compare(a.Summary, b.Summary)
	})
}

// cmpFirst sorts true before false.
func cmpFirst(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	default:
		return 1
	}
}
