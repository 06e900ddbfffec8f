package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

func writeDailySummariesCSV(path string, summaries []DailySummary) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv output %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	headers := []string{"Date", "Entries", "Imported", "Duplicates", "Unresolved", "Failed", "ImportedHours"}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}

	for _, summary := range summaries {
		row := []string{
			summary.Date,
			strconv.Itoa(summary.Entries),
			strconv.Itoa(summary.Imported),
			strconv.Itoa(summary.Duplicates),
			strconv.Itoa(summary.Unresolved),
			strconv.Itoa(summary.Failed),
			fmt.Sprintf("%.2f", summary.ImportedHours),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}

	return nil
}
