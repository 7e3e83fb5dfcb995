package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DateLayout = "2006-01-02"

	UnknownOrganization = "Unknown Organization"
	AllCategories       = "All"
)

// EventCategories are the tags offered for events, "All" first.
var EventCategories = []string{
	AllCategories,
	"Workshop",
	"Networking",
	"Panel",
	"Speaker",
	"Competition",
	"Applications",
	"Social",
	"Conference",
	"Site Visit",
	"Info Session",
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

type Event struct {
	Id                string  `json:"id,omitempty"`
	OrganizationId    string  `json:"organization_id,omitempty"`
	Title             string  `json:"title,omitempty"`
	Description       string  `json:"description,omitempty"`
	Date              string  `json:"date,omitempty"`
	Time              string  `json:"time,omitempty"`
	Location          *string `json:"location,omitempty"`
	Category          string  `json:"category,omitempty"`
	LinkURL           *string `json:"link_url,omitempty"`
	LinkText          *string `json:"link_text,omitempty"`
	Status            Status  `json:"status,omitempty"`
	Club              string  `json:"club,omitempty"`
	OrganizationImage *string `json:"organization_image,omitempty"`

	CreatedAt time.Time `json:"created_at,omitzero"`
}

// EventPatch carries the fields of an edit; nil fields are left untouched.
type EventPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty"`
	Time        *string `json:"time,omitempty"`
	Location    *string `json:"location,omitempty"`
	Category    *string `json:"category,omitempty"`
	LinkURL     *string `json:"link_url,omitempty"`
	LinkText    *string `json:"link_text,omitempty"`
	Status      *Status `json:"status,omitempty"`
}

type RecurrenceType string

const (
	RecurrenceNone    RecurrenceType = "none"
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
)

type RecurrenceSpec struct {
	IsRecurring        bool           `json:"is_recurring"`
	RecurrenceType     RecurrenceType `json:"recurrence_type,omitempty"`
	RecurrenceInterval int            `json:"recurrence_interval,omitempty"`
	RecurrenceCount    int            `json:"recurrence_count,omitempty"`
	RecurrenceEndDate  string         `json:"recurrence_end_date,omitempty"`
}

type Organization struct {
	Id          string     `json:"id,omitempty" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Category    Categories `json:"category" yaml:"category"`
	Description string     `json:"description,omitempty" yaml:"description"`
	Website     *string    `json:"website,omitempty" yaml:"website,omitempty"`
	Email       *string    `json:"email,omitempty" yaml:"email,omitempty"`
	Image       *string    `json:"image,omitempty" yaml:"image,omitempty"`
}

// Categories is an organization's ordered tag list. Both a bare string and a
// list are accepted when decoding.
type Categories []string

func (c *Categories) UnmarshalJSON(data []byte) error {
	var list []string

	err := json.Unmarshal(data, &list)
	if err == nil {
		*c = normalizeCategories(list)
		return nil
	}

	var single string

	err = json.Unmarshal(data, &single)
	if err != nil {
		return fmt.Errorf("category must be a string or a list of strings: %w", err)
	}

	*c = normalizeCategories([]string{single})

	return nil
}

func (c *Categories) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*c = normalizeCategories([]string{node.Value})
		return nil
	case yaml.SequenceNode:
		var list []string

		err := node.Decode(&list)
		if err != nil {
			return fmt.Errorf("failed to decode category list: %w", err)
		}

		*c = normalizeCategories(list)

		return nil
	default:
		return fmt.Errorf("category must be a string or a list of strings (line %d)", node.Line)
	}
}

func normalizeCategories(in []string) Categories {
	out := make(Categories, 0, len(in))

	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}

	return out
}

type User struct {
	Id    string `json:"id"`
	Email string `json:"email"`
}

// Profile links a user to the organization it administers.
type Profile struct {
	Id           string        `json:"id"`
	Email        string        `json:"email"`
	Organization *Organization `json:"organization,omitempty"`
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
	Profile   Profile   `json:"profile"`
}

type Invitation struct {
	UserId         string    `json:"user_id"`
	Email          string    `json:"email"`
	OrganizationId string    `json:"organization_id"`
	Token          string    `json:"token"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// ParseDate reads a calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}

	return t, nil
}
