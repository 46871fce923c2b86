package utils

import (
	"fmt"
	"strconv"
	"time"
)

// ParseTime accepts RFC3339 or a bare YYYY-MM-DD date in loc. An empty value
// yields nil.
func ParseTime(value string, loc *time.Location) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(time.DateOnly, value, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: use RFC3339 or YYYY-MM-DD", value)
	}
	return &t, nil
}

// ParseDateRange parses optional start and end bounds. A bare end date
// covers the whole day.
func ParseDateRange(start, end string, loc *time.Location) (*time.Time, *time.Time, error) {
	from, err := ParseTime(start, loc)
	if err != nil {
		return nil, nil, fmt.Errorf("start: %w", err)
	}
	to, err := ParseTime(end, loc)
	if err != nil {
		return nil, nil, fmt.Errorf("end: %w", err)
	}
	if to != nil && len(end) == len(time.DateOnly) {
		endOfDay := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		to = &endOfDay
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, fmt.Errorf("end %s is before start %s", to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	return from, to, nil
}

// ParsePositiveInt returns def for an empty value and rejects anything that is
// not a positive integer.
func ParsePositiveInt(value string, def int) (int, error) {
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%q must be a positive integer", value)
	}
	return n, nil
}
