package attendance

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// parseHourMinute extracts the hour and minute from a wall-clock value.
// Schedule rows store plain "HH:MM" strings, but imported data occasionally
// carries full datetimes, so a few fallback layouts are accepted.
func parseHourMinute(value string) (int, int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, 0, fmt.Errorf("time value cannot be empty")
	}

	layout := "15:04"
	if colonCount := strings.Count(value, ":"); colonCount >= 2 {
		layout = "15:04:05"
	}

	if t, err := time.Parse(layout, value); err == nil {
		return t.Hour(), t.Minute(), nil
	} else {
		fallbackLayouts := []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02 15:04:05",
			"2006-01-02T15:04:05",
			"2006-01-02 15:04",
			"2006-01-02T15:04",
		}

		for _, layout := range fallbackLayouts {
			if parsed, altErr := time.Parse(layout, value); altErr == nil {
				return parsed.Hour(), parsed.Minute(), nil
			}
		}

		timePattern := regexp.MustCompile(`\d{1,2}:\d{2}(?::\d{2})?`)
		if match := timePattern.FindString(value); match != "" && match != value {
			return parseHourMinute(match)
		}

		return 0, 0, fmt.Errorf("invalid time format %q: %w", value, err)
	}
}

// minutesOfDay converts a wall-clock string to minutes since midnight.
func minutesOfDay(value string) (int, error) {
	h, m, err := parseHourMinute(value)
	if err != nil {
		return 0, err
	}
	return h*60 + m, nil
}

// clockMinutes returns the minutes since local midnight for t.
func clockMinutes(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// withinWindow reports whether now falls inside [start, end], bounds
// inclusive. Malformed window strings never match.
func withinWindow(now time.Time, start, end string) bool {
	startMin, err := minutesOfDay(start)
	if err != nil {
		return false
	}
	endMin, err := minutesOfDay(end)
	if err != nil {
		return false
	}
	n := clockMinutes(now)
	return n >= startMin && n <= endMin
}
