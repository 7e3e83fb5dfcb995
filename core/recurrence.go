package core

import (
	"fmt"
	"time"
)

const (
	MaxRecurrenceCount     = 50
	DefaultRecurrenceCount = 10
)

// Expand materializes base into the dated events described by spec. The first
// element is always base itself. Expansion stops at the occurrence count or
// past the end date, whichever comes first.
func Expand(base Event, spec RecurrenceSpec) ([]Event, error) {
	cursor, err := ParseDate(base.Date)
	if err != nil {
		return nil, NewValidationError("date", err.Error())
	}

	if !spec.IsRecurring || spec.RecurrenceType == RecurrenceNone || spec.RecurrenceType == "" {
		return []Event{base}, nil
	}

	spec, err = normalizeRecurrence(spec)
	if err != nil {
		return nil, err
	}

	var (
		endDate    time.Time
		hasEndDate bool
	)

	if spec.RecurrenceEndDate != "" {
		endDate, err = ParseDate(spec.RecurrenceEndDate)
		if err != nil {
			return nil, NewValidationError("recurrence_end_date", err.Error())
		}

		hasEndDate = true
	}

	events := make([]Event, 1, spec.RecurrenceCount)
	events[0] = base

	for len(events) < spec.RecurrenceCount {
		cursor = advance(cursor, spec.RecurrenceType, spec.RecurrenceInterval)
		if hasEndDate && cursor.After(endDate) {
			break
		}

		occurrence := base
		occurrence.Date = cursor.Format(DateLayout)
		occurrence.Title = fmt.Sprintf("%s (Recurring %d)", base.Title, len(events)+1)
		events = append(events, occurrence)
	}

	return events, nil
}

func advance(t time.Time, kind RecurrenceType, interval int) time.Time {
	switch kind {
	case RecurrenceDaily:
		return t.AddDate(0, 0, interval)
	case RecurrenceWeekly:
		return t.AddDate(0, 0, 7*interval)
	case RecurrenceMonthly:
		return t.AddDate(0, interval, 0)
	default:
		return t
	}
}

// normalizeRecurrence applies the defaults for unset numbers: a zero interval
// means every period, a zero count means DefaultRecurrenceCount occurrences.
func normalizeRecurrence(spec RecurrenceSpec) (RecurrenceSpec, error) {
	switch spec.RecurrenceType {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
	default:
		return spec, NewValidationError("recurrence_type", fmt.Sprintf("unsupported recurrence type %q", spec.RecurrenceType))
	}

	if spec.RecurrenceInterval < 0 {
		return spec, NewValidationError("recurrence_interval", "must be a positive number")
	}

	if spec.RecurrenceInterval == 0 {
		spec.RecurrenceInterval = 1
	}

	if spec.RecurrenceCount < 0 || spec.RecurrenceCount > MaxRecurrenceCount {
		return spec, NewValidationError("recurrence_count", fmt.Sprintf("must be between 1 and %d", MaxRecurrenceCount))
	}

	if spec.RecurrenceCount == 0 {
		spec.RecurrenceCount = DefaultRecurrenceCount
	}

	return spec, nil
}
