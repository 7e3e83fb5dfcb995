package core

import (
	"time"
)

// State is what the handlers share: the backend and the static organization
// directory. It is built once at startup and only read afterwards.
type State struct {
	Backend   Backend
	Directory []Organization
	Clock     func() time.Time
}

func NewState(backend Backend, directory []Organization) *State {
	if backend == nil {
		backend = NewUnconfiguredBackend()
	}

	if directory == nil {
		directory = []Organization{}
	}

	return &State{
		Backend:   backend,
		Directory: directory,
		Clock:     time.Now,
	}
}

func (s *State) Now() time.Time {
	return s.Clock()
}

// DuplicateEvent copies event as a new draft of the same organization.
func DuplicateEvent(event Event, organizationId string) Event {
	return Event{
		OrganizationId: organizationId,
		Title:          event.Title + " (Copy)",
		Description:    event.Description,
		Date:           event.Date,
		Time:           event.Time,
		Location:       nullable(event.Location),
		Category:       event.Category,
		LinkURL:        nullable(event.LinkURL),
		LinkText:       nullable(event.LinkText),
		Status:         StatusDraft,
	}
}

// PrepareEvents validates a new event and expands its recurrence into the
// rows to insert.
func PrepareEvents(base Event, organizationId string, spec RecurrenceSpec) ([]Event, error) {
	base.Id = ""
	base.OrganizationId = organizationId
	base.Club = ""
	base.OrganizationImage = nil
	base.Location = nullable(base.Location)
	base.LinkURL = nullable(base.LinkURL)
	base.LinkText = nullable(base.LinkText)

	if base.Status == "" {
		base.Status = StatusDraft
	}

	err := ValidateEvent(base)
	if err != nil {
		return nil, err
	}

	events, err := Expand(base, spec)
	if err != nil {
		return nil, err
	}

	err = ValidateTitles(events)
	if err != nil {
		return nil, err
	}

	return events, nil
}

// WithClub sets the display name of the owning organization on each event.
func WithClub(events []Event, organization Organization) []Event {
	out := make([]Event, len(events))

	for i, e := range events {
		e.Club = organization.Name
		if e.OrganizationImage == nil {
			e.OrganizationImage = organization.Image
		}

		out[i] = e
	}

	return out
}

// ForDisplay renders event times in 12-hour form.
func ForDisplay(events []Event) []Event {
	out := make([]Event, len(events))

	for i, e := range events {
		e.Time = FormatTime(e.Time)
		if e.Club == "" {
			e.Club = UnknownOrganization
		}

		out[i] = e
	}

	return out
}
