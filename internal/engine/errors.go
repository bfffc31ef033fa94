package engine

import (
	"errors"
	"fmt"

	"teamtask/internal/engine/recurrence"
	"teamtask/internal/repo"
)

// ValidationError rejects a request before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string { return e.Message }

func asValidation(err error) error {
	var ire *recurrence.InvalidRuleError
	if errors.As(err, &ire) {
		return ValidationError{Field: ire.Field, Message: ire.Message}
	}
	return err
}

// notFound names the missing entity, e.g. "template not found". Other errors pass through.
func notFound(entity string, err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%s %w", entity, repo.ErrNotFound)
	}
	return err
}

func parseDate(s string) (recurrence.Date, error) {
	if s == "" {
		return recurrence.Date{}, ValidationError{Field: "date", Message: "date required (YYYY-MM-DD)"}
	}
	d, err := recurrence.ParseDate(s)
	if err != nil {
		return d, asValidation(err)
	}
	return d, nil
}
