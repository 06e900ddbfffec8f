package output

import (
	"testing"
	"time"

	"togimport/storage"
)

func TestBuildDailySummaries_CountsOutcomeKinds(t *testing.T) {
	outcomes := []storage.OutcomeRecord{
		{SourceID: 1001, StartedAt: startedAt(2, 9), DurationSeconds: 3600, Kind: "imported"},
		{SourceID: 1002, StartedAt: startedAt(2, 11), DurationSeconds: 1800, Kind: "imported"},
		{SourceID: 1003, StartedAt: startedAt(2, 13), DurationSeconds: 900, Kind: "duplicate"},
		{SourceID: 1004, StartedAt: startedAt(2, 14), DurationSeconds: 600, Kind: "unresolved"},
		{SourceID: 1005, StartedAt: startedAt(2, 16), DurationSeconds: 600, Kind: "failed"},
	}

	summaries := BuildDailySummaries(outcomes)
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}

	summary := summaries[0]
	if summary.Date != "2026-03-02" {
		t.Fatalf("expected date 2026-03-02, got %s", summary.Date)
	}
	if summary.Entries != 5 {
		t.Fatalf("expected 5 entries, got %d", summary.Entries)
	}
	if summary.Imported != 2 || summary.Duplicates != 1 || summary.Unresolved != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected kind counts: %+v", summary)
	}
	assertFloatEqual(t, 1.50, summary.ImportedHours, "imported hours")
}

func TestBuildDailySummaries_OnlyImportedTimeCountsTowardHours(t *testing.T) {
	outcomes := []storage.OutcomeRecord{
		{SourceID: 1001, StartedAt: startedAt(2, 9), DurationSeconds: 1800, Kind: "imported"},
		{SourceID: 1002, StartedAt: startedAt(2, 10), DurationSeconds: 7200, Kind: "duplicate"},
		{SourceID: 1003, StartedAt: startedAt(2, 12), DurationSeconds: 7200, Kind: "failed"},
	}

	summaries := BuildDailySummaries(outcomes)
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	assertFloatEqual(t, 0.50, summaries[0].ImportedHours, "imported hours")
}

func TestBuildDailySummaries_GroupsAndSortsByDay(t *testing.T) {
	outcomes := []storage.OutcomeRecord{
		{SourceID: 1001, StartedAt: startedAt(3, 10), DurationSeconds: 1800, Kind: "imported"},
		{SourceID: 1002, StartedAt: startedAt(2, 9), DurationSeconds: 3600, Kind: "imported"},
		{SourceID: 1003, StartedAt: startedAt(3, 14), DurationSeconds: 900, Kind: "duplicate"},
	}

	summaries := BuildDailySummaries(outcomes)
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}

	if summaries[0].Date != "2026-03-02" || summaries[1].Date != "2026-03-03" {
		t.Fatalf("unexpected dates: %s, %s", summaries[0].Date, summaries[1].Date)
	}
	if summaries[0].Entries != 1 || summaries[1].Entries != 2 {
		t.Fatalf("unexpected entry counts: %d, %d", summaries[0].Entries, summaries[1].Entries)
	}
	assertFloatEqual(t, 1.00, summaries[0].ImportedHours, "first day imported hours")
	assertFloatEqual(t, 0.50, summaries[1].ImportedHours, "second day imported hours")
}

func TestBuildDailySummaries_EmptyInput(t *testing.T) {
	summaries := BuildDailySummaries(nil)
	if len(summaries) != 0 {
		t.Fatalf("expected no summaries, got %d", len(summaries))
	}
}

func TestWriteDailySummaries_RejectsUnknownFormat(t *testing.T) {
	err := WriteDailySummaries("ignored.csv", "pdf", nil)
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func startedAt(day, hour int) time.Time {
	return time.Date(2026, 3, day, hour, 0, 0, 0, time.Local)
}

func assertFloatEqual(t *testing.T, expected, actual float64, field string) {
	t.Helper()
	if expected != actual {
		t.Fatalf("unexpected %s: expected %.2f, got %.2f", field, expected, actual)
	}
}
