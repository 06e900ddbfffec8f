package timeutil

import (
	"fmt"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

func StartOfDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

func FormatDay(value time.Time) string {
	return value.Format(dayLayout)
}

func ParseDay(value string) (time.Time, error) {
	parsed, err := time.ParseInLocation(dayLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", value, err)
	}
	return parsed, nil
}
