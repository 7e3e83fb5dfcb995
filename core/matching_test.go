package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMatchOrganization(t *testing.T) {
	t.Parallel()

	orgs := []Organization{
		{Id: "1", Name: "Finance Club Alumni Network"},
		{Id: "2", Name: "Finance Club"},
		{Id: "3", Name: "American Marketing Association"},
		{Id: "4", Name: "Beta Alpha Psi"},
	}

	tests := []struct {
		name   string
		input  string
		wantId string
		wantOk bool
	}{
		{name: "exact match beats earlier substring match", input: "finance club", wantId: "2", wantOk: true},
		{name: "organization name inside input", input: "UF Beta Alpha Psi Chapter", wantId: "4", wantOk: true},
		{name: "input inside organization name", input: "marketing", wantId: "3", wantOk: true},
		{name: "first containment wins", input: "Finance", wantId: "1", wantOk: true},
		{name: "abbreviation does not match", input: "AMA", wantOk: false},
		{name: "empty input", input: "  ", wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := MatchOrganization(tt.input, orgs)
			assert.Equal(t, tt.wantOk, ok)

			if tt.wantOk {
				assert.Equal(t, tt.wantId, got.Id)
			}
		})
	}
}

func TestRelatedEvents(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("abbreviated club label does not match", func(t *testing.T) {
		t.Parallel()

		events := []Event{
			{Id: "a", Club: "AMA", Date: "2099-01-01", Status: StatusPublished},
			{Id: "b", Club: "AMA", Date: "2020-01-01", Status: StatusPublished},
		}
		orgs := []Organization{{Name: "American Marketing Association"}}

		got := RelatedEvents("American Marketing Association", events, orgs, now)
		assert.Empty(t, got)
	})

	t.Run("id match then name fallback", func(t *testing.T) {
		t.Parallel()

		orgs := []Organization{{Id: "org-ama", Name: "American Marketing Association"}}
		events := []Event{
			{Id: "late", OrganizationId: "org-ama", Club: "Renamed Label", Date: "2025-09-01", Status: StatusPublished},
			{Id: "by-name", Club: "american marketing association", Date: "2025-07-01", Status: StatusPublished},
			{Id: "partial", Club: "Marketing Association", Date: "2025-07-01", Status: StatusPublished},
			{Id: "draft", OrganizationId: "org-ama", Date: "2025-08-01", Status: StatusDraft},
			{Id: "past", OrganizationId: "org-ama", Date: "2025-05-01", Status: StatusPublished},
			{Id: "other", OrganizationId: "org-x", Club: "Beta Alpha Psi", Date: "2025-07-01", Status: StatusPublished},
			{Id: "bad-date", OrganizationId: "org-ama", Date: "tbd", Status: StatusPublished},
		}

		got := RelatedEvents("American Marketing Association", events, orgs, now)

		ids := make([]string, len(got))
		for i, e := range got {
			ids[i] = e.Id
		}

		assert.Equal(t, []string{"by-name", "partial", "late"}, ids)
	})

	t.Run("empty ids never match each other", func(t *testing.T) {
		t.Parallel()

		orgs := []Organization{{Name: "Beta Alpha Psi"}}
		events := []Event{{Id: "x", Club: "Finance Club", Date: "2099-01-01", Status: StatusPublished}}

		assert.Empty(t, RelatedEvents("Beta Alpha Psi", events, orgs, now))
	})

	t.Run("no name", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, RelatedEvents("", []Event{{Club: "X", Date: "2099-01-01", Status: StatusPublished}}, nil, now))
	})
}
