package project

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for start, end and due dates.
const DateLayout = "2006-01-02"

// Validate checks a complete project before it is sent anywhere.
func Validate(p Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if _, ok := ParseStatus(string(p.Status)); !ok {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, p.Status)
	}
	if p.Budget < 0 {
		return fmt.Errorf("%w: budget must be nonnegative", ErrInvalidInput)
	}
	return validateDates(p.StartDate, p.EndDate)
}

// ValidatePatch checks the fields present in a patch.
func ValidatePatch(pt Patch) error {
	if pt.Name != nil && strings.TrimSpace(*pt.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if pt.Status != nil {
		if _, ok := ParseStatus(string(*pt.Status)); !ok {
			return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *pt.Status)
		}
	}
	if pt.Budget != nil && *pt.Budget < 0 {
		return fmt.Errorf("%w: budget must be nonnegative", ErrInvalidInput)
	}
	start, end := "", ""
	if pt.StartDate != nil {
		start = *pt.StartDate
	}
	if pt.EndDate != nil {
		end = *pt.EndDate
	}
	return validateDates(start, end)
}

func validateDates(start, end string) error {
	var s, e time.Time
	var err error
	if start != "" {
		if s, err = time.Parse(DateLayout, start); err != nil {
			return fmt.Errorf("%w: start date %q", ErrInvalidInput, start)
		}
	}
	if end != "" {
		if e, err = time.Parse(DateLayout, end); err != nil {
			return fmt.Errorf("%w: end date %q", ErrInvalidInput, end)
		}
	}
	if !s.IsZero() && !e.IsZero() && e.Before(s) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidInput)
	}
	return nil
}
