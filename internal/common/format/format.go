// Package format holds the pure string conversions shared by the handlers.
package format

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	whitespace   = regexp.MustCompile(`\s+`)
	nonSlugChars = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRuns   = regexp.MustCompile(`-{2,}`)
)

// Slug lowercases s, turns whitespace runs into hyphens and strips anything
// outside [a-z0-9-]. "O'Brien & Sons" becomes "obrien-sons".
func Slug(s string) string {
	out := strings.ToLower(strings.TrimSpace(s))
	out = whitespace.ReplaceAllString(out, "-")
	out = nonSlugChars.ReplaceAllString(out, "")
	out = hyphenRuns.ReplaceAllString(out, "-")
	return strings.Trim(out, "-")
}

// Currency renders an amount in cents as "$12.50".
func Currency(cents int64) string {
	return "$" + decimal(cents)
}

// AmountPaid renders an amount in cents the way the payments table stores it: "12.50$".
func AmountPaid(cents int64) string {
	return decimal(cents) + "$"
}

// Dollars converts cents to a float for numeric table columns.
func Dollars(cents int64) float64 {
	return float64(cents) / 100
}

func decimal(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// ISO renders t in UTC with millisecond precision, e.g. 2024-03-01T10:00:00.000Z.
func ISO(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// Date renders the calendar date of t in UTC.
func Date(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// AddYear returns t one calendar year later.
func AddYear(t time.Time) time.Time {
	return t.AddDate(1, 0, 0)
}
