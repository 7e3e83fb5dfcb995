package core

import (
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"
)

const MaxTitleLength = 100

func ValidateEvent(event Event) error {
	err := validateTitle(event.Title)
	if err != nil {
		return err
	}

	if strings.TrimSpace(event.Description) == "" {
		return NewValidationError("description", "is required")
	}

	if strings.TrimSpace(event.Date) == "" {
		return NewValidationError("date", "is required")
	}

	_, err = ParseDate(event.Date)
	if err != nil {
		return NewValidationError("date", "must be formatted as YYYY-MM-DD")
	}

	if strings.TrimSpace(event.Time) == "" {
		return NewValidationError("time", "is required")
	}

	if strings.TrimSpace(event.Category) == "" {
		return NewValidationError("category", "is required")
	}

	if event.OrganizationId == "" {
		return NewValidationError("organization_id", "is required")
	}

	err = validateStatus(event.Status)
	if err != nil {
		return err
	}

	return validateLink(event.LinkURL)
}

func ValidatePatch(patch EventPatch) error {
	if patch.Title != nil {
		err := validateTitle(*patch.Title)
		if err != nil {
			return err
		}
	}

	if patch.Date != nil {
		_, err := ParseDate(*patch.Date)
		if err != nil {
			return NewValidationError("date", "must be formatted as YYYY-MM-DD")
		}
	}

	required := []struct {
		field string
		value *string
	}{
		{field: "description", value: patch.Description},
		{field: "time", value: patch.Time},
		{field: "category", value: patch.Category},
	}

	for _, r := range required {
		if r.value != nil && strings.TrimSpace(*r.value) == "" {
			return NewValidationError(r.field, "is required")
		}
	}

	if patch.Status != nil {
		err := validateStatus(*patch.Status)
		if err != nil {
			return err
		}
	}

	return validateLink(patch.LinkURL)
}

// ValidateTitles checks the final titles of generated rows, which may carry a
// suffix the submitted title did not.
func ValidateTitles(events []Event) error {
	for _, event := range events {
		err := validateTitle(event.Title)
		if err != nil {
			return err
		}
	}

	return nil
}

func ValidateIds(ids []string) error {
	if len(ids) == 0 {
		return NewValidationError("ids", "at least one event must be selected")
	}

	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return NewValidationError("ids", "must not contain empty values")
		}
	}

	return nil
}

func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return NewValidationError("email", "is required")
	}

	_, err := mail.ParseAddress(email)
	if err != nil {
		return NewValidationError("email", "is not a valid address")
	}

	return nil
}

// validateTitle counts characters, not bytes, to agree with VARCHAR(100).
func validateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return NewValidationError("title", "is required")
	}

	if utf8.RuneCountInString(title) > MaxTitleLength {
		return NewValidationError("title", "is too long (100 characters tops)")
	}

	return nil
}

func validateStatus(status Status) error {
	switch status {
	case "", StatusDraft, StatusPublished:
		return nil
	default:
		return NewValidationError("status", "must be draft or published")
	}
}

func validateLink(link *string) error {
	if link == nil || *link == "" {
		return nil
	}

	u, err := url.Parse(*link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewValidationError("link_url", "must be an absolute http(s) URL")
	}

	return nil
}
