package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"togimport/storage"
)

func TestWriterForFormat_SelectsWriter(t *testing.T) {
	cases := []struct {
		format string
		excel  bool
	}{
		{format: "csv"},
		{format: " CSV "},
		{format: "excel", excel: true},
		{format: "xlsx", excel: true},
	}

	for _, tc := range cases {
		writer, err := WriterForFormat(tc.format)
		if err != nil {
			t.Fatalf("WriterForFormat(%q) returned error: %v", tc.format, err)
		}
		if _, ok := writer.(*ExcelWriter); ok != tc.excel {
			t.Fatalf("WriterForFormat(%q) returned %T", tc.format, writer)
		}
	}

	if _, err := WriterForFormat("pdf"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestCSVWriter_WritesOutcomes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outcomes.csv")
	outcomes := []storage.OutcomeRecord{
		{
			SourceID:        1001,
			Description:     "Fixed bug #482",
			StartedAt:       time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			DurationSeconds: 3600,
			Kind:            "imported",
			WorkPackageID:   482,
			RecordID:        77,
		},
		{
			SourceID:        1002,
			Description:     "standup",
			StartedAt:       time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
			DurationSeconds: 900,
			Kind:            "unresolved",
			Reason:          "no_reference_found",
			Detail:          "description carries no work package reference",
		},
	}

	writer := &CSVWriter{}
	if err := writer.Write(path, outcomes); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header and 2 rows, got %d records", len(records))
	}
	if records[0][0] != "SourceID" || records[0][4] != "Kind" {
		t.Fatalf("unexpected headers: %v", records[0])
	}

	first := records[1]
	if first[0] != "1001" || first[1] != "Fixed bug #482" || first[2] != "2026-03-02T09:00:00Z" {
		t.Fatalf("unexpected first row: %v", first)
	}
	if first[4] != "imported" || first[6] != "482" || first[7] != "77" {
		t.Fatalf("unexpected first row: %v", first)
	}

	second := records[2]
	if second[4] != "unresolved" || second[5] != "no_reference_found" {
		t.Fatalf("unexpected second row: %v", second)
	}
}
