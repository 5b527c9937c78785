package service

import (
	"time"

	"ai-receipt/internal/apperr"
	"ai-receipt/internal/extraction"
)

// dateField is an optional date from a partial update.
type dateField struct {
	present bool
	value   *time.Time
}

// parseOptionalDate parses a strict YYYY-MM-DD value. A nil raw value means
// the field was not sent.
func parseOptionalDate(raw *string) (dateField, error) {
	if raw == nil {
		return dateField{}, nil
	}
	d, err := extraction.ParseDate(*raw)
	if err != nil {
		return dateField{}, apperr.Wrap(apperr.ErrValidation, "receiptDate must be in YYYY-MM-DD format", err)
	}
	return dateField{present: true, value: &d}, nil
}

// monthBounds returns the first and last calendar day of now's month.
func monthBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

func validateRange(start, end *time.Time) error {
	if start == nil || end == nil {
		return apperr.Validation("start and end are required")
	}
	if end.Before(*start) {
		return apperr.Validation("end must be on or after start")
	}
	return nil
}
