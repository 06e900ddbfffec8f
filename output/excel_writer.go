package output

import (
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"togimport/storage"
)

type ExcelWriter struct{}

func (w *ExcelWriter) Write(path string, outcomes []storage.OutcomeRecord) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	headers := []string{"SourceID", "Description", "StartedAt", "DurationSeconds", "Kind", "Reason", "WorkPackageID", "RecordID", "Detail"}

	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("set excel header %s: %w", cell, err)
		}
	}

	for i, outcome := range outcomes {
		row := i + 2
		values := []string{
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

		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set excel value %s: %w", cell, err)
			}
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save excel output %s: %w", path, err)
	}

	return nil
}
