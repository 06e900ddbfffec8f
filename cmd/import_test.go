package cmd

import (
	"testing"

	"togimport/internal/timeutil"
)

func TestParseImportRange(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		to       string
		wantFrom string
		wantTo   string
		wantErr  bool
	}{
		{name: "valid pair", from: "2026-03-02", to: "2026-03-05", wantFrom: "2026-03-02", wantTo: "2026-03-05"},
		{name: "to defaults to from", from: "2026-03-02", to: "", wantFrom: "2026-03-02", wantTo: "2026-03-02"},
		{name: "single day pair", from: "2026-03-02", to: "2026-03-02", wantFrom: "2026-03-02", wantTo: "2026-03-02"},
		{name: "inverted range", from: "2026-03-05", to: "2026-03-02", wantErr: true},
		{name: "empty from", from: "", to: "2026-03-02", wantErr: true},
		{name: "whitespace from", from: "   ", to: "", wantErr: true},
		{name: "invalid from", from: "03/02/2026", to: "", wantErr: true},
		{name: "invalid to", from: "2026-03-02", to: "garbage", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := parseImportRange(tt.from, tt.to)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := timeutil.FormatDay(from); got != tt.wantFrom {
				t.Fatalf("unexpected from: expected %s, got %s", tt.wantFrom, got)
			}
			if got := timeutil.FormatDay(to); got != tt.wantTo {
				t.Fatalf("unexpected to: expected %s, got %s", tt.wantTo, got)
			}
		})
	}
}
