package timeutil

import (
	"testing"
	"time"
)

func TestStartOfDay(t *testing.T) {
	t.Parallel()

	input := time.Date(2026, 3, 1, 14, 37, 9, 123, time.Local)
	got := StartOfDay(input)

	if got.Year() != 2026 || got.Month() != time.March || got.Day() != 1 {
		t.Fatalf("unexpected date: %v", got)
	}
	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 || got.Nanosecond() != 0 {
		t.Fatalf("expected midnight, got %v", got)
	}
}

func TestFormatDay(t *testing.T) {
	t.Parallel()

	input := time.Date(2026, 3, 1, 14, 37, 9, 0, time.Local)
	if got := FormatDay(input); got != "2026-03-01" {
		t.Fatalf("expected 2026-03-01, got %s", got)
	}
}

func TestParseDay(t *testing.T) {
	t.Parallel()

	parsed, err := ParseDay(" 2026-03-01 ")
	if err != nil {
		t.Fatalf("parse day: %v", err)
	}
	if parsed.Year() != 2026 || parsed.Month() != time.March || parsed.Day() != 1 {
		t.Fatalf("unexpected parsed day: %v", parsed)
	}
	if parsed.Hour() != 0 || parsed.Minute() != 0 {
		t.Fatalf("expected midnight, got %v", parsed)
	}

	if _, err := ParseDay("01.03.2026"); err == nil {
		t.Fatalf("expected error for unsupported layout")
	}
}
