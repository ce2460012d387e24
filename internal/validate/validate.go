// Package validate holds the request checks shared by the handlers.
package validate

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"mediguru/internal/apperr"
)

var fieldValidator = validator.New()

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Text renders a decoded JSON value as trimmed text. Spreadsheet cells arrive
// as strings or numbers depending on the sheet, so both are accepted.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "1"
		}
		return ""
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return ""
	}
}

// Required fails listing every key whose value is absent or blank.
func Required(fields map[string]any, keys ...string) error {
	var missing []string
	for _, k := range keys {
		if Text(fields[k]) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return apperr.Validation("Missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// MinLength reports whether s has at least n characters after trimming.
func MinLength(s string, n int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) >= n
}

// Email reports whether s is a well-formed email address.
func Email(s string) bool {
	return fieldValidator.Var(s, "required,email") == nil
}

// Date parses a strict YYYY-MM-DD date. Values that do not survive a
// round trip (2024-02-30, 2024-2-3) are rejected.
func Date(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil || d.Format(DateLayout) != s {
		return time.Time{}, apperr.Validation("Invalid date format. Use YYYY-MM-DD")
	}
	return d, nil
}

// NotPast fails when date falls on a calendar day before now. Time of day is ignored.
func NotPast(date, now time.Time) error {
	if date.Format(DateLayout) < now.Format(DateLayout) {
		return apperr.Validation("Meeting date cannot be in the past")
	}
	return nil
}

// Clock parses a strict 24-hour HH:MM time.
func Clock(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil || t.Format(TimeLayout) != s {
		return time.Time{}, apperr.Validation("Invalid time format. Use HH:MM")
	}
	return t, nil
}
