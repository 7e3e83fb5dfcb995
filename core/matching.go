package core

import (
	"slices"
	"strings"
	"time"
)

// MatchOrganization finds the organization a free-text name refers to.
// A case-insensitive exact match anywhere in the list wins; otherwise the
// first organization whose name contains, or is contained in, the text.
func MatchOrganization(name string, organizations []Organization) (Organization, bool) {
	if strings.TrimSpace(name) == "" {
		return Organization{}, false
	}

	for _, org := range organizations {
		if strings.EqualFold(org.Name, name) {
			return org, true
		}
	}

	for _, org := range organizations {
		if namesOverlap(org.Name, name) {
			return org, true
		}
	}

	return Organization{}, false
}

// BelongsTo reports whether event is owned by the named organization. The
// organization id is compared first when both sides carry one; the display
// name is the fallback.
func BelongsTo(event Event, name string, match *Organization) bool {
	if match != nil && match.Id != "" && event.OrganizationId == match.Id {
		return true
	}

	if event.Club == "" {
		return false
	}

	return strings.EqualFold(event.Club, name) || namesOverlap(event.Club, name)
}

// RelatedEvents lists the upcoming published events of the named organization,
// earliest first.
func RelatedEvents(name string, events []Event, organizations []Organization, now time.Time) []Event {
	if name == "" || len(events) == 0 {
		return []Event{}
	}

	var match *Organization
	if org, ok := MatchOrganization(name, organizations); ok {
		match = &org
	}

	related := make([]Event, 0)

	for _, event := range events {
		if !BelongsTo(event, name, match) {
			continue
		}

		date, err := ParseDate(event.Date)
		if err != nil || date.Before(now) || event.Status != StatusPublished {
			continue
		}

		related = append(related, event)
	}

	sortByDate(related, true)

	return related
}

func namesOverlap(a string, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// sortByDate orders events by calendar date keeping equal dates in input
// order. Unparseable dates are expected to be filtered out beforehand.
func sortByDate(events []Event, ascending bool) {
	slices.SortStableFunc(events, func(a, b Event) int {
		ta, _ := ParseDate(a.Date)
		tb, _ := ParseDate(b.Date)

		if ascending {
			return ta.Compare(tb)
		}

		return tb.Compare(ta)
	})
}
