package pipeline

import (
	"strconv"
	"strings"
	"time"

	"togimport/internal/wpref"
	"togimport/toggl"
)

// OutcomeKind classifies what happened to a single fetched time entry.
type OutcomeKind int

const (
	OutcomeImported OutcomeKind = iota
	OutcomeDuplicate
	OutcomeUnresolved
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeImported:
		return "imported"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeUnresolved:
		return "unresolved"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ReasonCode explains why an entry was skipped as unresolved.
type ReasonCode string

const (
	ReasonNoReferenceFound ReasonCode = "no_reference_found"
	ReasonWorkItemNotFound ReasonCode = "work_item_not_found"
	ReasonUserNotMapped    ReasonCode = "user_not_mapped"
	ReasonProjectNotMapped ReasonCode = "project_not_mapped"
	ReasonNotImportable    ReasonCode = "not_importable"
)

// Outcome is the terminal result for one fetched entry. Every entry the
// source yields ends up in exactly one Outcome.
type Outcome struct {
	Entry     toggl.TimeEntry
	Kind      OutcomeKind
	Reference wpref.Reference
	Reason    ReasonCode
	Detail    string
	RecordID  int64
	Err       error
}

// Report is the result of one pipeline run over a date range.
type Report struct {
	From     time.Time
	To       time.Time
	DryRun   bool
	Outcomes []Outcome
}

type Counts struct {
	Fetched    int
	Imported   int
	Duplicates int
	Unresolved int
	Failed     int
}

func (r Report) Counts() Counts {
	counts := Counts{Fetched: len(r.Outcomes)}
	for _, outcome := range r.Outcomes {
		switch outcome.Kind {
		case OutcomeImported:
			counts.Imported++
		case OutcomeDuplicate:
			counts.Duplicates++
		case OutcomeUnresolved:
			counts.Unresolved++
		case OutcomeFailed:
			counts.Failed++
		}
	}
	return counts
}

// Fingerprint identifies a source entry on a target work package. It is
// derived only from stable ids, so reruns recompute the same value.
type Fingerprint struct {
	SourceID      int64
	WorkPackageID int64
}

// commentSeparator splits the source entry id from the free text in
// comments written by the committer.
const commentSeparator = " - "

func commentForEntry(sourceID int64, text string) string {
	if text == "" {
		return strconv.FormatInt(sourceID, 10)
	}
	return strconv.FormatInt(sourceID, 10) + commentSeparator + text
}

// sourceIDFromComment recovers the source entry id from a comment written
// by commentForEntry. Comments authored by hand do not parse and are
// ignored by the dedup guard.
func sourceIDFromComment(comment string) (int64, bool) {
	prefix, _, found := strings.Cut(comment, commentSeparator)
	if !found {
		prefix = comment
	}
	id, err := strconv.ParseInt(strings.TrimSpace(prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
