package service

import (
	"fmt"
	"time"
)

// TimeFormat is the layout subscriptions store their dates in.
const TimeFormat = "2006-01-02T15:04:05"

// SubscriptionStartDate formats the current instant as a subscription date.
func SubscriptionStartDate(now time.Time) string {
	return now.Format(TimeFormat)
}

// SubscriptionEndDate returns December 30 of the current year. In the last
// two days of December the window rolls over: a purchase then counts toward
// the following year.
func SubscriptionEndDate(now time.Time) string {
	u := now.UTC()
	year := u.Year()
	if u.Month() == time.December && u.Day() > 29 {
		year++
	}
	end := time.Date(year, time.December, 30, u.Hour(), u.Minute(), u.Second(), 0, time.UTC)
	return end.Format(TimeFormat)
}

// IsPaidFor reports whether an issue created at the given time falls inside
// a subscription window ending at endDate. Comparison is calendar time, not
// lexical.
func IsPaidFor(issueCreatedAt time.Time, endDate string) bool {
	end, err := time.Parse(TimeFormat, endDate)
	if err != nil {
		return false
	}
	return issueCreatedAt.Before(end)
}

// StatusText summarizes how far the subscription window is from now, in
// whole months.
func StatusText(endDate string, now time.Time) string {
	end, err := time.Parse(TimeFormat, endDate)
	if err != nil {
		return ""
	}
	if end.After(now) {
		return fmt.Sprintf("Subscription ends in %d months.", wholeMonths(now, end))
	}
	return fmt.Sprintf("Subscription expired %d months ago.", wholeMonths(end, now))
}

// wholeMonths counts full months elapsed from a to b, never negative.
func wholeMonths(a, b time.Time) int {
	if b.Before(a) {
		return 0
	}
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	months := (y2-y1)*12 + int(m2-m1)
	if d2 < d1 {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// normalizeDate reformats a caller-supplied date into TimeFormat. A few
// common layouts are accepted.
func normalizeDate(s string) (string, error) {
	for _, layout := range []string{TimeFormat, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(TimeFormat), nil
		}
	}
	return "", badRequestf("Invalid date %q, expected %s.", s, TimeFormat)
}
