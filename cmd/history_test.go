package cmd

import (
	"testing"
	"time"

	"togimport/storage"
)

func TestFormatRunLine(t *testing.T) {
	run := storage.RunRecord{
		ID:         3,
		StartedAt:  time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC),
		From:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		To:         time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Fetched:    12,
		Imported:   9,
		Duplicates: 2,
		Unresolved: 1,
		Failed:     0,
	}

	got := formatRunLine(run)
	want := "Run 3: started 2026-03-02 09:15:00, range 2026-03-01..2026-03-02, fetched 12, imported 9, duplicates 2, unresolved 1, failed 0"
	if got != want {
		t.Fatalf("unexpected run line:\nexpected %q\ngot      %q", want, got)
	}

	run.DryRun = true
	got = formatRunLine(run)
	if got != want+" (dry-run)" {
		t.Fatalf("expected dry-run suffix, got %q", got)
	}
}

func TestFormatOutcomeLine(t *testing.T) {
	tests := []struct {
		name   string
		record storage.OutcomeRecord
		want   string
	}{
		{
			name: "imported with record id",
			record: storage.OutcomeRecord{
				Kind:          "imported",
				SourceID:      1001,
				Description:   "Fixed bug #482",
				WorkPackageID: 482,
				RecordID:      77,
			},
			want: `[imported] entry 1001 "Fixed bug #482" -> work package 482 (time entry 77)`,
		},
		{
			name: "duplicate without record id",
			record: storage.OutcomeRecord{
				Kind:          "duplicate",
				SourceID:      1002,
				Description:   "Review op#12",
				WorkPackageID: 12,
			},
			want: `[duplicate] entry 1002 "Review op#12" -> work package 12`,
		},
		{
			name: "unresolved with detail",
			record: storage.OutcomeRecord{
				Kind:        "unresolved",
				SourceID:    1003,
				Description: "Standup",
				Detail:      "no reference found",
			},
			want: `[unresolved] entry 1003 "Standup": no reference found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatOutcomeLine(tt.record); got != tt.want {
				t.Fatalf("unexpected outcome line:\nexpected %q\ngot      %q", tt.want, got)
			}
		})
	}
}

func TestResolveHistoryDBPath(t *testing.T) {
	if got := resolveHistoryDBPath("./custom.db"); got != "./custom.db" {
		t.Fatalf("expected flag value to win, got %q", got)
	}
}
