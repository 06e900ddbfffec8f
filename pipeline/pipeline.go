package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"togimport/internal/timeutil"
	"togimport/internal/wpref"
	"togimport/openproject"
	"togimport/toggl"
)

const defaultWorkers = 4

type Config struct {
	Source toggl.Client
	Target openproject.Client

	// ActivityID is the target activity every imported entry is booked
	// on.
	ActivityID int64

	Workers        int
	DryRun         bool
	MinDuration    time.Duration
	DurationSource DurationSource
	MaxAttempts    int
	RetryInterval  time.Duration

	ResolveUsers    bool
	ResolveProjects bool
	PinnedUsers     map[string]int64
	PinnedProjects  map[string]int64

	Logger *slog.Logger
}

// Pipeline streams time entries from the source and drives each one
// through parse, resolve, dedup, and commit.
type Pipeline struct {
	source      toggl.Client
	resolver    *Resolver
	guard       *Guard
	committer   *Committer
	activityID  int64
	workers     int
	dryRun      bool
	minDuration time.Duration
	logger      *slog.Logger
}

func New(cfg Config) (*Pipeline, error) {
	if cfg.Source == nil {
		return nil, errors.New("source client is required")
	}
	if cfg.Target == nil {
		return nil, errors.New("target client is required")
	}
	if cfg.ActivityID <= 0 {
		return nil, errors.New("activity id is required")
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Pipeline{
		source: cfg.Source,
		resolver: NewResolver(ResolverConfig{
			Client:          cfg.Target,
			ResolveUsers:    cfg.ResolveUsers,
			ResolveProjects: cfg.ResolveProjects,
			PinnedUsers:     cfg.PinnedUsers,
			PinnedProjects:  cfg.PinnedProjects,
		}),
		guard: NewGuard(cfg.Target),
		committer: NewCommitter(CommitterConfig{
			Client:         cfg.Target,
			DurationSource: cfg.DurationSource,
			MaxAttempts:    cfg.MaxAttempts,
			RetryInterval:  cfg.RetryInterval,
		}),
		activityID:  cfg.ActivityID,
		workers:     workers,
		dryRun:      cfg.DryRun,
		minDuration: cfg.MinDuration,
		logger:      logger,
	}, nil
}

// Run imports every entry started between from and to, both days
// inclusive. Source failures abort the run; everything else becomes an
// outcome.
func (p *Pipeline) Run(ctx context.Context, from, to time.Time) (Report, error) {
	report := Report{
		From:   timeutil.StartOfDay(from),
		To:     timeutil.StartOfDay(to),
		DryRun: p.dryRun,
	}
	if report.To.Before(report.From) {
		return Report{}, errors.New("invalid range: from must be before or equal to to")
	}

	// The source treats the end date as exclusive.
	it := p.source.TimeEntries(report.From, report.To.AddDate(0, 0, 1))

	jobs := make(chan toggl.TimeEntry)
	results := make(chan Outcome)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				results <- p.process(ctx, entry)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for it.Next(ctx) {
			select {
			case jobs <- it.Entry():
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for outcome := range results {
		p.logOutcome(outcome)
		report.Outcomes = append(report.Outcomes, outcome)
	}

	if err := it.Err(); err != nil {
		return Report{}, fmt.Errorf("fetch time entries: %w", err)
	}

	sortOutcomes(report.Outcomes)
	return report, nil
}

// process drives a single entry to its terminal outcome.
func (p *Pipeline) process(ctx context.Context, entry toggl.TimeEntry) Outcome {
	if entry.Running() {
		return Outcome{
			Entry:  entry,
			Kind:   OutcomeUnresolved,
			Reason: ReasonNotImportable,
			Detail: "entry is still running",
		}
	}
	if minSeconds := int64(p.minDuration / time.Second); entry.Duration < minSeconds {
		return Outcome{
			Entry:  entry,
			Kind:   OutcomeUnresolved,
			Reason: ReasonNotImportable,
			Detail: fmt.Sprintf("duration %ds is below the %ds minimum", entry.Duration, minSeconds),
		}
	}

	ref, ok := wpref.Parse(entry.Description)
	if !ok {
		return Outcome{
			Entry:  entry,
			Kind:   OutcomeUnresolved,
			Reason: ReasonNoReferenceFound,
			Detail: "description carries no work package reference",
		}
	}

	target, unresolved, err := p.resolver.Resolve(ctx, entry, ref)
	if err != nil {
		return Outcome{Entry: entry, Kind: OutcomeFailed, Reference: ref, Detail: err.Error(), Err: err}
	}
	if unresolved != nil {
		return Outcome{Entry: entry, Kind: OutcomeUnresolved, Reference: ref, Reason: unresolved.Code, Detail: unresolved.Detail}
	}
	target.ActivityID = p.activityID

	duplicate, err := p.guard.Check(ctx, Fingerprint{SourceID: entry.ID, WorkPackageID: target.WorkPackageID})
	if err != nil {
		return Outcome{Entry: entry, Kind: OutcomeFailed, Reference: ref, Detail: err.Error(), Err: err}
	}
	if duplicate {
		return Outcome{
			Entry:     entry,
			Kind:      OutcomeDuplicate,
			Reference: ref,
			Detail:    fmt.Sprintf("work package %d already carries this entry", target.WorkPackageID),
		}
	}

	if p.dryRun {
		return Outcome{Entry: entry, Kind: OutcomeImported, Reference: ref}
	}

	recordID, err := p.committer.Commit(ctx, target, entry, ref)
	if err != nil {
		return Outcome{Entry: entry, Kind: OutcomeFailed, Reference: ref, Detail: err.Error(), Err: err}
	}
	return Outcome{Entry: entry, Kind: OutcomeImported, Reference: ref, RecordID: recordID}
}

func (p *Pipeline) logOutcome(outcome Outcome) {
	switch outcome.Kind {
	case OutcomeImported:
		p.logger.Debug("time entry imported",
			"entry", outcome.Entry.ID, "workPackage", outcome.Reference.ID, "record", outcome.RecordID)
	case OutcomeDuplicate:
		p.logger.Debug("time entry already present",
			"entry", outcome.Entry.ID, "workPackage", outcome.Reference.ID)
	case OutcomeUnresolved:
		p.logger.Info("time entry skipped",
			"entry", outcome.Entry.ID, "reason", string(outcome.Reason), "detail", outcome.Detail)
	case OutcomeFailed:
		p.logger.Error("time entry failed",
			"entry", outcome.Entry.ID, "error", outcome.Err)
	}
}

// sortOutcomes orders by start time, then source id, so reports are
// stable regardless of worker interleaving.
func sortOutcomes(outcomes []Outcome) {
	sort.Slice(outcomes, func(i, j int) bool {
		if !outcomes[i].Entry.Start.Equal(outcomes[j].Entry.Start) {
			return outcomes[i].Entry.Start.Before(outcomes[j].Entry.Start)
		}
		return outcomes[i].Entry.ID < outcomes[j].Entry.ID
	})
}
