package cmd

import "testing"

func TestDetectExportFormat(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "csv extension", path: "./outcomes.csv", want: "csv"},
		{name: "uppercase csv", path: "./OUTCOMES.CSV", want: "csv"},
		{name: "xlsx extension", path: "./outcomes.xlsx", want: "excel"},
		{name: "xlsm extension", path: "./outcomes.xlsm", want: "excel"},
		{name: "xls extension", path: "./outcomes.xls", want: "excel"},
		{name: "unknown extension defaults to csv", path: "./outcomes.out", want: "csv"},
		{name: "no extension defaults to csv", path: "./outcomes", want: "csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectExportFormat(tt.path); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
