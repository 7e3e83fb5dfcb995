package core

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCalendar(t *testing.T) {
	t.Parallel()

	stamp := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{
			Id:       "evt-1",
			Title:    "Marketing Analytics Workshop",
			Date:     "2025-11-15",
			Time:     "18:30",
			Location: ptr("Stuzin Hall Auditorium"),
			Category: "Workshop",
			LinkURL:  ptr("https://www.amagator.com/events"),
			Club:     "American Marketing Association",
		},
		{Id: "evt-2", Title: "Undated", Date: "TBD"},
	}

	out := RenderCalendar(events, stamp)

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)

	vevents := cal.Events()
	require.Len(t, vevents, 1)

	vevent := vevents[0]
	assert.Equal(t, "evt-1@club-directory", vevent.Id())
	assert.Equal(t, "Marketing Analytics Workshop", vevent.GetProperty(ics.ComponentPropertySummary).Value)
	assert.Equal(t, "Stuzin Hall Auditorium", vevent.GetProperty(ics.ComponentPropertyLocation).Value)
	assert.Equal(t, "Workshop", vevent.GetProperty(ics.ComponentPropertyCategories).Value)
	assert.Contains(t, out, "20251115")
	assert.Contains(t, out, "Time: 6:30 PM")
}

func TestRenderCalendar_Empty(t *testing.T) {
	t.Parallel()

	out := RenderCalendar(nil, time.Now())
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.NotContains(t, out, "BEGIN:VEVENT")
}
