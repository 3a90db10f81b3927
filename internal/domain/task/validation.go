package task

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format for due dates.
const DateLayout = "2006-01-02"

// Validate checks a complete task.
func Validate(t Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(t.ProjectID) == "" {
		return fmt.Errorf("%w: project is required", ErrInvalidInput)
	}
	return ValidatePatch(Patch{Priority: &t.Priority, Status: &t.Status, DueDate: &t.DueDate, TimeSpent: &t.TimeSpent})
}

// ValidatePatch checks the fields present in a patch.
func ValidatePatch(pt Patch) error {
	if pt.Title != nil && strings.TrimSpace(*pt.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if pt.ProjectID != nil && strings.TrimSpace(*pt.ProjectID) == "" {
		return fmt.Errorf("%w: project is required", ErrInvalidInput)
	}
	if pt.Priority != nil {
		if _, ok := ParsePriority(string(*pt.Priority)); !ok {
			return fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, *pt.Priority)
		}
	}
	if pt.Status != nil {
		if _, ok := ParseStatus(string(*pt.Status)); !ok {
			return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *pt.Status)
		}
	}
	if pt.DueDate != nil && *pt.DueDate != "" {
		if _, err := time.Parse(DateLayout, *pt.DueDate); err != nil {
			return fmt.Errorf("%w: due date %q", ErrInvalidInput, *pt.DueDate)
		}
	}
	if pt.TimeSpent != nil && *pt.TimeSpent < 0 {
		return fmt.Errorf("%w: time spent must be nonnegative", ErrInvalidInput)
	}
	if pt.Subtasks != nil {
		for _, s := range *pt.Subtasks {
			if strings.TrimSpace(s.Title) == "" {
				return fmt.Errorf("%w: subtask title is required", ErrInvalidInput)
			}
		}
	}
	return nil
}
