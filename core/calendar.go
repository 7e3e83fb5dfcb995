package core

import (
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

const calendarProductId = "-//club-directory//events//EN"

// RenderCalendar serializes events as an iCalendar feed of all-day entries.
// Events with an invalid date are skipped.
func RenderCalendar(events []Event, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductId)

	for _, event := range events {
		date, err := ParseDate(event.Date)
		if err != nil {
			continue
		}

		vevent := cal.AddEvent(event.Id + "@club-directory")
		vevent.SetDtStampTime(stamp)
		vevent.SetAllDayStartAt(date)
		vevent.SetAllDayEndAt(date.AddDate(0, 0, 1))
		vevent.SetSummary(event.Title)
		vevent.SetDescription(calendarDescription(event))

		if event.Location != nil && *event.Location != "" {
			vevent.SetLocation(*event.Location)
		}

		if event.LinkURL != nil && *event.LinkURL != "" {
			vevent.SetURL(*event.LinkURL)
		}

		if event.Category != "" {
			vevent.SetProperty(ics.ComponentPropertyCategories, event.Category)
		}
	}

	return cal.Serialize()
}

func calendarDescription(event Event) string {
	lines := make([]string, 0, 3)

	if event.Time != "" {
		lines = append(lines, "Time: "+FormatTime(event.Time))
	}

	if event.Club != "" {
		lines = append(lines, "Hosted by "+event.Club)
	}

	if event.Description != "" {
		lines = append(lines, event.Description)
	}

	return strings.Join(lines, "\n")
}
