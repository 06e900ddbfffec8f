package toggl

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"togimport/internal/timeutil"
)

// TimeEntry is one tracked entry as returned by the v9 API with meta fields.
// Duration is in seconds and negative while the entry is still running.
type TimeEntry struct {
	ID          int64      `json:"id"`
	WorkspaceID int64      `json:"workspace_id"`
	Description string     `json:"description"`
	Start       time.Time  `json:"start"`
	Stop        *time.Time `json:"stop"`
	Duration    int64      `json:"duration"`
	UserID      int64      `json:"user_id"`
	UserName    string     `json:"user_name"`
	ProjectID   int64      `json:"project_id"`
	ProjectName string     `json:"project_name"`
	Tags        []string   `json:"tags"`
}

// Running reports whether the entry is still being tracked.
func (e TimeEntry) Running() bool {
	return e.Stop == nil || e.Duration < 0
}

// EntryIterator streams time entries for a date range, one page at a time.
// Next reports whether another entry is available and loads further pages on
// demand; Err must be checked once Next returns false.
type EntryIterator interface {
	Next(ctx context.Context) bool
	Entry() TimeEntry
	Err() error
}

type pageIterator struct {
	client  *HTTPClient
	from    time.Time
	to      time.Time
	page    int
	buffer  []TimeEntry
	index   int
	current TimeEntry
	done    bool
	err     error
}

func (it *pageIterator) Next(ctx context.Context) bool {
	for it.err == nil {
		if it.index < len(it.buffer) {
			it.current = it.buffer[it.index]
			it.index++
			return true
		}
		if it.done {
			return false
		}
		it.fetchPage(ctx)
	}
	return false
}

func (it *pageIterator) Entry() TimeEntry {
	return it.current
}

func (it *pageIterator) Err() error {
	return it.err
}

// fetchPage loads the next page into the buffer. A page shorter than the
// configured page size is the last one.
func (it *pageIterator) fetchPage(ctx context.Context) {
	query := url.Values{}
	query.Set("meta", "true")
	query.Set("start_date", timeutil.FormatDay(it.from))
	query.Set("end_date", timeutil.FormatDay(it.to))
	query.Set("page", strconv.Itoa(it.page))
	query.Set("per_page", strconv.Itoa(it.client.pageSize))
	if it.client.workspaceID > 0 {
		query.Set("workspace_id", strconv.FormatInt(it.client.workspaceID, 10))
	}

	var page []TimeEntry
	if err := it.client.doJSON(ctx, http.MethodGet, "/api/v9/me/time_entries?"+query.Encode(), &page); err != nil {
		it.err = err
		return
	}

	it.buffer = page
	it.index = 0
	it.page++
	if len(page) < it.client.pageSize {
		it.done = true
	}
}
