package utils

import (
	"strings"
	"time"
)

var sessionDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseSessionDate accepts the date formats emitted by HTML date and datetime-local
// inputs as well as RFC3339. Values without a zone are read as UTC.
func ParseSessionDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, NewValidationError("Date is required")
	}

	for _, layout := range sessionDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, NewValidationError("Date must be RFC3339 or YYYY-MM-DD")
}
