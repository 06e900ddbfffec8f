package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"togimport/internal/timeutil"
	"togimport/internal/wpref"
	"togimport/openproject"
	"togimport/toggl"
)

// DurationSource selects which duration is written to the target.
type DurationSource string

const (
	// DurationReported uses the seconds the source reports for the entry.
	DurationReported DurationSource = "reported"
	// DurationDerived recomputes the seconds from start and stop times.
	DurationDerived DurationSource = "derived"
)

const (
	defaultMaxAttempts   = 3
	defaultRetryInterval = 500 * time.Millisecond
)

type CommitterConfig struct {
	Client         openproject.Client
	DurationSource DurationSource
	MaxAttempts    int
	RetryInterval  time.Duration
}

// Committer writes resolved entries to the target, retrying rate limits,
// server errors, and transport failures with exponential backoff. A
// commit that exhausts its attempts returns an error and never aborts
// the surrounding run.
type Committer struct {
	client         openproject.Client
	durationSource DurationSource
	maxAttempts    int
	retryInterval  time.Duration
}

func NewCommitter(cfg CommitterConfig) *Committer {
	durationSource := cfg.DurationSource
	if durationSource == "" {
		durationSource = DurationReported
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	retryInterval := cfg.RetryInterval
	if retryInterval <= 0 {
		retryInterval = defaultRetryInterval
	}
	return &Committer{
		client:         cfg.Client,
		durationSource: durationSource,
		maxAttempts:    maxAttempts,
		retryInterval:  retryInterval,
	}
}

// Commit creates the time entry for target and returns the created
// record id.
func (c *Committer) Commit(ctx context.Context, target Target, entry toggl.TimeEntry, ref wpref.Reference) (int64, error) {
	request := c.buildRequest(target, entry, ref)

	var created openproject.TimeEntry
	operation := func() error {
		result, err := c.client.CreateTimeEntry(ctx, request)
		if err != nil {
			if isTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		created = result
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval

	err := backoff.Retry(operation, backoff.WithMaxRetries(backoff.WithContext(bo, ctx), uint64(c.maxAttempts-1)))
	if err != nil {
		return 0, fmt.Errorf("create time entry for work package %d: %w", target.WorkPackageID, err)
	}
	return created.ID, nil
}

func (c *Committer) buildRequest(target Target, entry toggl.TimeEntry, ref wpref.Reference) openproject.TimeEntryRequest {
	seconds := entry.Duration
	if c.durationSource == DurationDerived && entry.Stop != nil {
		seconds = int64(entry.Stop.Sub(entry.Start) / time.Second)
	}
	if seconds < 0 {
		seconds = 0
	}

	stop := entry.Start.Add(time.Duration(seconds) * time.Second)
	if entry.Stop != nil {
		stop = *entry.Stop
	}

	request := openproject.TimeEntryRequest{
		Links: openproject.Links{
			WorkPackage: openproject.Link{Href: openproject.WorkPackageHref(target.WorkPackageID)},
			Activity:    openproject.Link{Href: openproject.ActivityHref(target.ActivityID)},
		},
		Hours:     fmt.Sprintf("PT%dS", seconds),
		StartTime: entry.Start,
		StopTime:  stop,
		Comment:   openproject.Comment{Raw: commentForEntry(entry.ID, ref.Text)},
		SpentOn:   timeutil.FormatDay(entry.Start),
	}
	if target.UserID != 0 {
		request.Links.User = &openproject.Link{Href: openproject.UserHref(target.UserID)}
	}
	if target.ProjectID != 0 {
		request.Links.Project = &openproject.Link{Href: openproject.ProjectHref(target.ProjectID)}
	}
	return request
}

// isTransient reports whether err is worth another attempt. Rate limits,
// server errors, and transport failures qualify; every other API error
// is final.
func isTransient(err error) bool {
	var apiErr *openproject.APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRateLimited() || apiErr.IsServerError()
	}
	return true
}
