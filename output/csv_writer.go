package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"togimport/storage"
)

type CSVWriter struct{}

func (w *CSVWriter) Write(path string, outcomes []storage.OutcomeRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv output %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	headers := []string{"SourceID", "Description", "StartedAt", "DurationSeconds", "Kind", "Reason", "WorkPackageID", "RecordID", "Detail"}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}

	for _, outcome := range outcomes {
		row := []string{
			strconv.FormatInt(outcome.SourceID, 10),
			outcome.Description,
			outcome.StartedAt.Format(time.RFC3339),
			strconv.FormatInt(outcome.DurationSeconds, 10),
			outcome.Kind,
			outcome.Reason,
			strconv.FormatInt(outcome.WorkPackageID, 10),
			strconv.FormatInt(outcome.RecordID, 10),
			outcome.Detail,
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
