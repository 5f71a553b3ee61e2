package model

import (
	"fmt"
	"regexp"
	"time"
)

var isoWeekPattern = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// ParseStartingDate resolves ISO calendar dates (2023-04-03) and ISO
// week dates (2023-W14) to a canonical day. A starting week resolves to
// its Monday.
func ParseStartingDate(s string) (time.Time, error) {
	return parseDate(s, false)
}

// ParseEndingDate resolves the same notations as ParseStartingDate; an
// ending week resolves to its Sunday, keeping intervals inclusive.
func ParseEndingDate(s string) (time.Time, error) {
	return parseDate(s, true)
}

func parseDate(s string, endOfWeek bool) (time.Time, error) {
	if m := isoWeekPattern.FindStringSubmatch(s); m != nil {
		var year, week int
		fmt.Sscanf(m[1], "%d", &year)
		fmt.Sscanf(m[2], "%d", &week)
		if week < 1 || week > 53 {
			return time.Time{}, fmt.Errorf("invalid ISO week in %q", s)
		}
		day := isoWeekStart(year, week)
		if endOfWeek {
			day = day.AddDate(0, 0, 6)
		}
		return day, nil
	}

	day, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return day, nil
}

// isoWeekStart returns the Monday of the given ISO week. January 4th is
// always in ISO week 1.
func isoWeekStart(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 { // Sunday is 7 in ISO numbering
		weekday = 7
	}
	week1Monday := jan4.AddDate(0, 0, 1-weekday)
	return week1Monday.AddDate(0, 0, (week-1)*7)
}

// DaysBetween returns the signed number of whole days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// Season returns the meteorological season of a date, exposed to rules
// as the derived field cultivation_season.
func Season(t time.Time) string {
	switch t.Month() {
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	case time.September, time.October, time.November:
		return "autumn"
	default:
		return "winter"
	}
}
