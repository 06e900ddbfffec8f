package output

import (
	"fmt"
	"math"
	"sort"
	"time"

	"togimport/pipeline"
	"togimport/storage"
)

// DailySummary aggregates the outcomes of a run for one calendar day.
type DailySummary struct {
	Date          string
	Entries       int
	Imported      int
	Duplicates    int
	Unresolved    int
	Failed        int
	ImportedHours float64
}

func BuildDailySummaries(outcomes []storage.OutcomeRecord) []DailySummary {
	if len(outcomes) == 0 {
		return []DailySummary{}
	}

	byDay := make(map[string][]storage.OutcomeRecord)
	for _, outcome := range outcomes {
		day := outcome.StartedAt.In(time.Local).Format("2006-01-02")
		byDay[day] = append(byDay[day], outcome)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	summaries := make([]DailySummary, 0, len(days))
	for _, day := range days {
		summaries = append(summaries, summarizeDay(day, byDay[day]))
	}

	return summaries
}

func summarizeDay(day string, outcomes []storage.OutcomeRecord) DailySummary {
	summary := DailySummary{
		Date:    day,
		Entries: len(outcomes),
	}

	importedSeconds := int64(0)
	for _, outcome := range outcomes {
		switch outcome.Kind {
		case pipeline.OutcomeImported.String():
			summary.Imported++
			importedSeconds += outcome.DurationSeconds
		case pipeline.OutcomeDuplicate.String():
			summary.Duplicates++
		case pipeline.OutcomeUnresolved.String():
			summary.Unresolved++
		case pipeline.OutcomeFailed.String():
			summary.Failed++
		}
	}

	summary.ImportedHours = roundHours(float64(importedSeconds) / 3600.0)
	return summary
}

func roundHours(value float64) float64 {
	return math.Round(value*100) / 100
}

func WriteDailySummaries(path, format string, summaries []DailySummary) error {
	switch normalizeFormat(format) {
	case "csv":
		return writeDailySummariesCSV(path, summaries)
	case "excel", "xlsx":
		return writeDailySummariesExcel(path, summaries)
	default:
		return fmt.Errorf("unsupported output format for daily summaries: %s", format)
	}
}
