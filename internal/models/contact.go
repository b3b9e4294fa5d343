package models

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type ContactForm struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

const badgeColorCount = 15

// BadgeColor picks one of the fifteen avatar colour classes from the name.
func BadgeColor(name string) string {
	if name == "" {
		return "bgcolor__1"
	}
	first, _ := utf8.DecodeRuneInString(name)
	last, _ := utf8.DecodeLastRuneInString(name)
	index := (int(first) + int(last)) % badgeColorCount
	return "bgcolor__" + strconv.Itoa(index+1)
}

// Initials returns the upper-cased first letters of the first and last word.
func Initials(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return ""
	}
	first := firstRune(parts[0])
	if len(parts) == 1 {
		return strings.ToUpper(first)
	}
	return strings.ToUpper(first + firstRune(parts[len(parts)-1]))
}

// GroupLetter is the upper-cased first letter used to bucket contacts.
func GroupLetter(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}

func firstRune(s string) string {
	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return ""
	}
	return string(r)
}
