package core

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// FilterState is the public events page selection.
type FilterState struct {
	Category      string
	Organizations []string
	SearchTerm    string
	Now           time.Time
}

type MonthGroup struct {
	Month  string  `json:"month"`
	Events []Event `json:"events"`
}

type EventsView struct {
	Filtered []Event      `json:"filtered"`
	Upcoming []Event      `json:"upcoming"`
	Past     []Event      `json:"past"`
	ByMonth  []MonthGroup `json:"by_month"`
}

type DashboardView struct {
	Upcoming  []Event      `json:"upcoming"`
	Past      []Event      `json:"past"`
	Published []Event      `json:"published"`
	Drafts    []Event      `json:"drafts"`
	ByMonth   []MonthGroup `json:"by_month"`
}

// FilterEvents keeps the events with a valid date that match the category,
// organization and search selections, earliest first.
func FilterEvents(events []Event, state FilterState) []Event {
	search := strings.ToLower(state.SearchTerm)
	filtered := make([]Event, 0, len(events))

	for _, event := range events {
		_, err := ParseDate(event.Date)
		if err != nil {
			continue
		}

		if state.Category != "" && state.Category != AllCategories && event.Category != state.Category {
			continue
		}

		if len(state.Organizations) > 0 && (event.Club == "" || !slices.Contains(state.Organizations, event.Club)) {
			continue
		}

		if search != "" && !matchesSearch(event, search) {
			continue
		}

		filtered = append(filtered, event)
	}

	sortByDate(filtered, true)

	return filtered
}

func matchesSearch(event Event, search string) bool {
	return strings.Contains(strings.ToLower(event.Title), search) ||
		strings.Contains(strings.ToLower(event.Description), search) ||
		strings.Contains(strings.ToLower(event.Club), search)
}

// PartitionByDate splits events into upcoming (ascending) and past
// (descending) relative to now. Events with an invalid date land in neither.
func PartitionByDate(events []Event, now time.Time) ([]Event, []Event) {
	upcoming := make([]Event, 0)
	past := make([]Event, 0)

	for _, event := range events {
		date, err := ParseDate(event.Date)
		if err != nil {
			continue
		}

		if date.Before(now) {
			past = append(past, event)
		} else {
			upcoming = append(upcoming, event)
		}
	}

	sortByDate(upcoming, true)
	sortByDate(past, false)

	return upcoming, past
}

// PartitionByStatus splits events into published and drafts. Events without a
// status count as drafts.
func PartitionByStatus(events []Event) ([]Event, []Event) {
	published := make([]Event, 0)
	drafts := make([]Event, 0)

	for _, event := range events {
		switch event.Status {
		case StatusPublished:
			published = append(published, event)
		case StatusDraft, "":
			drafts = append(drafts, event)
		}
	}

	return published, drafts
}

// GroupByMonth groups events under a "January 2025" label, keeping input
// order inside each group and ordering groups by first appearance.
func GroupByMonth(events []Event) []MonthGroup {
	groups := make([]MonthGroup, 0)
	index := make(map[string]int)

	for _, event := range events {
		date, err := ParseDate(event.Date)
		if err != nil {
			continue
		}

		label := date.Format("January 2006")

		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, MonthGroup{Month: label})
		}

		groups[i].Events = append(groups[i].Events, event)
	}

	return groups
}

// EventsOn returns the events scheduled on the given YYYY-MM-DD date.
func EventsOn(events []Event, date string) []Event {
	out := make([]Event, 0)

	for _, event := range events {
		if event.Date == date {
			out = append(out, event)
		}
	}

	return out
}

func BuildEventsView(events []Event, state FilterState) EventsView {
	filtered := FilterEvents(events, state)
	upcoming, past := PartitionByDate(filtered, state.Now)

	return EventsView{
		Filtered: filtered,
		Upcoming: upcoming,
		Past:     past,
		ByMonth:  GroupByMonth(filtered),
	}
}

func BuildDashboardView(events []Event, now time.Time) DashboardView {
	upcoming, past := PartitionByDate(events, now)
	published, drafts := PartitionByStatus(events)

	return DashboardView{
		Upcoming:  upcoming,
		Past:      past,
		Published: published,
		Drafts:    drafts,
		ByMonth:   GroupByMonth(events),
	}
}

// FormatTime renders a 24-hour HH:MM[:SS] time as "H:MM AM". Values already
// carrying AM/PM, and values that do not parse, are returned unchanged.
func FormatTime(value string) string {
	if value == "" {
		return ""
	}

	if strings.Contains(value, "AM") || strings.Contains(value, "PM") {
		return value
	}

	parts := strings.Split(value, ":")
	if len(parts) < 2 {
		return value
	}

	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || hour < 0 {
		return value
	}

	period := "AM"
	if hour >= 12 {
		period = "PM"
	}

	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}

	return fmt.Sprintf("%d:%s %s", hour12, parts[1], period)
}
