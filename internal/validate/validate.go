// Package validate collects field-level form errors before anything is sent
// to the document store.
package validate

import (
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MsgRequired     = "This field is required"
	MsgInvalidEmail = "Please enter a valid email"
	MsgInvalidPhone = "Please enter a valid phone number"
	MsgPastDate     = "Date cannot be in the past"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^(?:\+?[0-9]{1,3})?[1-9][0-9]{4,14}$`)
	whitespace   = regexp.MustCompile(`\s`)
)

// Errors maps a field name to its message. A nil or empty Errors means valid.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	slices.Sort(fields)

	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f)
		b.WriteString(": ")
		b.WriteString(e[f])
	}
	return b.String()
}

// Add keeps the first message recorded for a field.
func (e Errors) Add(field, message string) {
	if _, ok := e[field]; !ok {
		e[field] = message
	}
}

// Err returns nil when no field failed.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsPhone ignores whitespace inside the number.
func IsPhone(s string) bool {
	return phonePattern.MatchString(whitespace.ReplaceAllString(s, ""))
}

// MinLen checks the trimmed length in characters.
func MinLen(s string, n int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) >= n
}

// NotPast reports whether a YYYY-MM-DD date is today or later relative to now.
// An unparsable date is reported as false.
func NotPast(date string, now time.Time) bool {
	d, err := time.ParseInLocation("2006-01-02", date, now.Location())
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return !d.Before(today)
}
