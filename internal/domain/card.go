package domain

import (
	"strings"
	"time"
	"unicode"
)

// Initials returns up to two uppercase letters for an assignee badge:
// the first letters of the first and last word, or the first two letters
// of a single-word name.
func Initials(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		runes := []rune(parts[0])
		if len(runes) > 2 {
			runes = runes[:2]
		}
		return strings.ToUpper(string(runes))
	default:
		first := []rune(parts[0])[0]
		last := []rune(parts[len(parts)-1])[0]
		return string(unicode.ToUpper(first)) + string(unicode.ToUpper(last))
	}
}

// FormatDue renders a due date as "Jan 2, 2006"; nil renders empty.
func FormatDue(due *time.Time) string {
	if due == nil {
		return ""
	}
	return due.Format("Jan 2, 2006")
}
