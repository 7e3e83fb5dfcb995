package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dates(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Date
	}

	return out
}

func TestExpand(t *testing.T) {
	t.Parallel()

	location := "Stuzin Hall"
	base := Event{
		OrganizationId: "org-1",
		Title:          "Info Session",
		Description:    "Learn about us",
		Date:           "2025-11-01",
		Time:           "18:30",
		Location:       &location,
		Category:       "Workshop",
		Status:         StatusDraft,
	}

	tests := []struct {
		name      string
		base      Event
		spec      RecurrenceSpec
		wantDates []string
		wantErr   bool
	}{
		{
			name:      "not recurring",
			base:      base,
			spec:      RecurrenceSpec{IsRecurring: false, RecurrenceType: RecurrenceWeekly, RecurrenceCount: 5},
			wantDates: []string{"2025-11-01"},
		},
		{
			name:      "type none",
			base:      base,
			spec:      RecurrenceSpec{IsRecurring: true, RecurrenceType: RecurrenceNone, RecurrenceCount: 5},
			wantDates: []string{"2025-11-01"},
		},
		{
			name:      "count of one",
			base:      base,
			spec:      RecurrenceSpec{IsRecurring: true, RecurrenceType: RecurrenceDaily, RecurrenceInterval: 1, RecurrenceCount: 1},
			wantDates: []string{"2025-11-01"},
		},
		{
			name:      "daily every two days",
			base:      base,
			spec:      RecurrenceSpec{IsRecurring: true, RecurrenceType: RecurrenceDaily, RecurrenceInterval: 2, RecurrenceCount: 3},
			wantDates: []string{"2025-11-01", "2025-11-03", "2025-11-05"},
		},
		{
			name:      "weekly count",
			base:      base,
			spec:      RecurrenceSpec{IsRecurring: true, RecurrenceType: RecurrenceWeekly, RecurrenceInterval: 1, RecurrenceCount: 4},
			wantDates: []string{"2025-11-01", "2025-11-08", "2025-11-15", "2025-11-22"},
		},
		{
			name: "weekly end date",
			base: Event{Title: "Meeting", Date: "2025-01-01"},
			spec: RecurrenceSpec{
				IsRecurring: true, RecurrenceType: RecurrenceWeekly, RecurrenceInterval: 1,
				RecurrenceCount: 10, RecurrenceEndDate: "2025-01-10",
			},
			wantDates: []string{"2025-01-01", "2025-01-08"},
		},
		{
			name: "end date on an occurrence is inclusive",
			base: Event{Title: "Meeting", Date: "2025-01-01"},
			spec: RecurrenceSpec{
				IsRecurring: true, RecurrenceType: RecurrenceWeekly, RecurrenceInterval: 1,
				RecurrenceCount: 10, RecurrenceEndDate: "2025-01-15",
			},
			wantDates: []string{"2025-01-01", "2025-01-08", "2025-01-15"},
		},
		{
			name: "end date before base date",
			base: base,
			spec: RecurrenceSpec{
				IsRecurring: true, RecurrenceType: RecurrenceDaily, RecurrenceCount: 10, RecurrenceEndDate: "2025-10-01",
			},
			wantDates: []string{"2025-11-01"},
		},
		{
			name:      "monthly rolls over short months",
			base:      Event{Title: "Dues", Date: "2025-01-31"},
			spec:      RecurrenceSpec{IsRecurring: true, RecurrenceType: RecurrenceMonthly, RecurrenceInterval: 1, RecurrenceCount: 3},
			wantDates: []string{"2025-01-31", "2025-03-03", "2025-04-03"},
		},
		{
			name:      "zero interval treated as one",
			base:      base,
			spec:      RecurrenceSpec{IsRecurring: true, RecurrenceType: RecurrenceDaily, RecurrenceCount: 2},
			wantDates: []string{"2025-11-01", "2025-11-02"},
		},
		{
			name: "unset count stops at the end date",
			base: Event{Title: "Standup", Date: "2025-01-01"},
			spec: RecurrenceSpec{
				IsRecurring: true, RecurrenceType: RecurrenceWeekly, RecurrenceInterval: 1, RecurrenceEndDate: "2025-01-10",
			},
			wantDates: []string{"2025-01-01", "2025-01-08"},
		},
		{
			name: "unset count defaults to ten",
			base: base,
			spec: RecurrenceSpec{IsRecurring: true, RecurrenceType: RecurrenceDaily},
			wantDates: []string{
				"2025-11-01", "2025-11-02", "2025-11-03", "2025-11-04", "2025-11-05",
				"2025-11-06", "2025-11-07", "2025-11-08", "2025-11-09", "2025-11-10",
			},
		},
		{
			name:    "negative interval",
			base:    base,
			spec:    RecurrenceSpec{IsRecurring: true, RecurrenceType: RecurrenceDaily, RecurrenceInterval: -1, RecurrenceCount: 3},
			wantErr: true,
		},
		{
			name:    "count above limit",
			base:    base,
			spec:    RecurrenceSpec{IsRecurring: true, RecurrenceType: RecurrenceDaily, RecurrenceCount: 51},
			wantErr: true,
		},
		{
			name:    "unknown type",
			base:    base,
			spec:    RecurrenceSpec{IsRecurring: true, RecurrenceType: "yearly", RecurrenceCount: 3},
			wantErr: true,
		},
		{
			name:    "invalid base date",
			base:    Event{Title: "Broken", Date: "11/01/2025"},
			spec:    RecurrenceSpec{},
			wantErr: true,
		},
		{
			name: "invalid end date",
			base: base,
			spec: RecurrenceSpec{
				IsRecurring: true, RecurrenceType: RecurrenceDaily, RecurrenceCount: 3, RecurrenceEndDate: "soon",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Expand(tt.base, tt.spec)
			if tt.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, ErrInvalidInput)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantDates, dates(got))
			assert.Equal(t, tt.base, got[0])
		})
	}
}

func TestExpand_MonthlyScenario(t *testing.T) {
	t.Parallel()

	base := Event{Title: "Info Session", Date: "2025-11-01", Category: "Workshop", Status: StatusDraft}
	spec := RecurrenceSpec{IsRecurring: true, RecurrenceType: RecurrenceMonthly, RecurrenceInterval: 1, RecurrenceCount: 3}

	got, err := Expand(base, spec)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, []string{"2025-11-01", "2025-12-01", "2026-01-01"}, dates(got))
	assert.Equal(t, "Info Session", got[0].Title)
	assert.Equal(t, "Info Session (Recurring 2)", got[1].Title)
	assert.Equal(t, "Info Session (Recurring 3)", got[2].Title)

	for _, e := range got {
		assert.Equal(t, StatusDraft, e.Status)
		assert.Equal(t, "Workshop", e.Category)
	}
}

func TestExpand_SharedFields(t *testing.T) {
	t.Parallel()

	link := "https://example.org/rsvp"
	base := Event{
		OrganizationId: "org-9",
		Title:          "Case Competition",
		Description:    "Teams of four",
		Date:           "2025-03-03",
		Category:       "Competition",
		LinkURL:        &link,
		Status:         StatusPublished,
	}

	got, err := Expand(base, RecurrenceSpec{IsRecurring: true, RecurrenceType: RecurrenceWeekly, RecurrenceInterval: 2, RecurrenceCount: 5})
	require.NoError(t, err)
	require.Len(t, got, 5)

	for i, e := range got[1:] {
		assert.Equal(t, base.OrganizationId, e.OrganizationId, "occurrence %d", i+2)
		assert.Equal(t, base.Description, e.Description)
		assert.Equal(t, base.Category, e.Category)
		assert.Equal(t, base.LinkURL, e.LinkURL)
		assert.Equal(t, StatusPublished, e.Status)
	}
}
