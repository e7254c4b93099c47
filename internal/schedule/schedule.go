package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

// PresentSentinel is the end-date value that resolves to today.
const PresentSentinel = "present"

// Weekly generates purchase dates on one weekday, at midnight UTC.
type Weekly struct {
	weekday time.Weekday
	spec    cron.Schedule
}

// NewWeekly builds a weekly schedule for the given weekday.
func NewWeekly(weekday time.Weekday) (*Weekly, error) {
	if weekday < time.Sunday || weekday > time.Saturday {
		return nil, fmt.Errorf("invalid weekday %d", weekday)
	}
	// cron day-of-week uses 0=Sunday, the same numbering as time.Weekday
	spec, err := cron.ParseStandard(fmt.Sprintf("CRON_TZ=UTC 0 0 * * %d", int(weekday)))
	if err != nil {
		return nil, fmt.Errorf("failed to build weekly schedule: %w", err)
	}
	return &Weekly{weekday: weekday, spec: spec}, nil
}

// Weekday returns the anchor weekday
func (w *Weekly) Weekday() time.Weekday { return w.weekday }

// Dates returns every matching day from start to end inclusive. The first
// date is the earliest matching day on or after start; the result is empty
// when start is after end.
func (w *Weekly) Dates(start, end time.Time) []time.Time {
	start = types.NormalizeDate(start)
	end = types.NormalizeDate(end)
	if start.After(end) {
		return nil
	}

	var dates []time.Time
	first := w.spec.Next(start.Add(-time.Second))
	for d := first; !d.IsZero() && !d.After(end); d = d.AddDate(0, 0, 7) {
		dates = append(dates, d.UTC())
	}
	return dates
}

// Generate is a convenience wrapper around NewWeekly and Dates.
func Generate(start, end time.Time, weekday time.Weekday) ([]time.Time, error) {
	w, err := NewWeekly(weekday)
	if err != nil {
		return nil, err
	}
	return w.Dates(start, end), nil
}

// ParseDate parses a YYYY-MM-DD date at midnight UTC
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(types.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", value, err)
	}
	return t, nil
}

// ResolveEnd turns the "present" sentinel (or an empty value) into today's
// date and parses anything else as YYYY-MM-DD.
func ResolveEnd(value string, now time.Time) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" || strings.EqualFold(v, PresentSentinel) {
		return types.NormalizeDate(now), nil
	}
	return ParseDate(v)
}

var weekdayNames = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

// ParseWeekday accepts an English day name or abbreviation, or an index
// 0..6 counted from Monday.
func ParseWeekday(value string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if wd, ok := weekdayNames[v]; ok {
		return wd, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("weekday index must be 0..6 (0=Monday), got: %d", n)
		}
		return time.Weekday((n + 1) % 7), nil
	}
	return 0, fmt.Errorf("unknown weekday %q", value)
}
