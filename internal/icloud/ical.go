package icloud

import (
	"fmt"
	"strings"
	"time"

	"meetme/internal/agenda"
	"meetme/internal/models"

	"github.com/emersion/go-ical"
)

// eventsFromCalendar converts the timed VEVENTs of cal to events in loc.
// Cancelled and all-day events are dropped; transparent ones are marked.
func eventsFromCalendar(cal *ical.Calendar, calendarName string, loc *time.Location) ([]models.Event, error) {
	var events []models.Event
	for _, comp := range cal.Children {
		if comp.Name != ical.CompEvent {
			continue
		}

		if status := comp.Props.Get(ical.PropStatus); status != nil && strings.EqualFold(status.Value, "CANCELLED") {
			continue
		}

		startProp := comp.Props.Get(ical.PropDateTimeStart)
		if startProp == nil || startProp.ValueType() == ical.ValueDate {
			continue
		}
		start, err := startProp.DateTime(loc)
		if err != nil {
			return nil, fmt.Errorf("invalid DTSTART: %w", err)
		}

		end, err := eventEnd(comp, start, loc)
		if err != nil {
			return nil, err
		}

		e := models.Event{
			Start:    start.In(loc),
			End:      end.In(loc),
			Calendar: calendarName,
			Source:   "caldav",
		}
		if uid := comp.Props.Get(ical.PropUID); uid != nil {
			e.ID = uid.Value
		}
		if summary := comp.Props.Get(ical.PropSummary); summary != nil {
			e.Title = summary.Value
		}
		if transp := comp.Props.Get(ical.PropTransparency); transp != nil {
			e.Transparent = strings.EqualFold(transp.Value, "TRANSPARENT")
		}
		events = append(events, e)
	}
	return events, nil
}

// eventEnd reads DTEND, falling back to DTSTART plus DURATION.
func eventEnd(comp *ical.Component, start time.Time, loc *time.Location) (time.Time, error) {
	if endProp := comp.Props.Get(ical.PropDateTimeEnd); endProp != nil {
		end, err := endProp.DateTime(loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid DTEND: %w", err)
		}
		return end, nil
	}
	if durProp := comp.Props.Get(ical.PropDuration); durProp != nil {
		d, err := durProp.Duration()
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid DURATION: %w", err)
		}
		return start.Add(d), nil
	}
	return time.Time{}, fmt.Errorf("event at %s has neither DTEND nor DURATION", start.Format(time.RFC3339))
}

// freeBlockCalendar wraps a free block in a calendar holding one transparent VEVENT.
func freeBlockCalendar(uid, title string, appt agenda.Appt) *ical.Calendar {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uid)
	ve.Props.SetText(ical.PropSummary, "Free: "+title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, appt.Begin().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, appt.End().UTC())
	ve.Props.SetText(ical.PropTransparency, "TRANSPARENT")
	if appt.Desc() != "" && appt.Desc() != title {
		ve.Props.SetText(ical.PropDescription, appt.Desc())
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//meetme//EN")
	cal.Children = append(cal.Children, ve)
	return cal
}
