package newsletter

import (
	"regexp"
	"time"
)

// DateLayout is the publish date format.
const DateLayout = "2006-01-02"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateDate checks that date is a YYYY-MM-DD calendar date.
func ValidateDate(date string) error {
	if !datePattern.MatchString(date) {
		return &ValidationError{Field: "date", Value: date, Message: "expected format YYYY-MM-DD"}
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return &ValidationError{Field: "date", Value: date, Message: "not a calendar date"}
	}
	return nil
}

// FormatDate renders t as a publish date in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
