package pipeline

import (
	"context"
	"fmt"
	"sync"

	"togimport/openproject"
)

// Guard decides whether a resolved entry was already imported. It loads
// the existing time entries of each work package once per run and keeps
// the recovered fingerprints in memory.
type Guard struct {
	client openproject.Client

	fetchMu sync.Mutex
	mu      sync.Mutex

	listed map[int64]struct{}
	seen   map[Fingerprint]struct{}
}

func NewGuard(client openproject.Client) *Guard {
	return &Guard{
		client: client,
		listed: make(map[int64]struct{}),
		seen:   make(map[Fingerprint]struct{}),
	}
}

// Check reports whether fp already exists on the target. A negative
// answer reserves fp, so a second occurrence of the same fingerprint
// within the run reports duplicate instead of committing twice.
func (g *Guard) Check(ctx context.Context, fp Fingerprint) (bool, error) {
	if err := g.ensureListed(ctx, fp.WorkPackageID); err != nil {
		return false, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.seen[fp]; ok {
		return true, nil
	}
	g.seen[fp] = struct{}{}
	return false, nil
}

func (g *Guard) ensureListed(ctx context.Context, workPackageID int64) error {
	g.mu.Lock()
	_, ok := g.listed[workPackageID]
	g.mu.Unlock()
	if ok {
		return nil
	}

	// Serialize miss handling so concurrent workers don't list the same
	// work package twice.
	g.fetchMu.Lock()
	defer g.fetchMu.Unlock()

	g.mu.Lock()
	_, ok = g.listed[workPackageID]
	g.mu.Unlock()
	if ok {
		return nil
	}

	entries, err := g.client.WorkPackageTimeEntries(ctx, workPackageID)
	if err != nil {
		return fmt.Errorf("list time entries for work package %d: %w", workPackageID, err)
	}

	g.mu.Lock()
	for _, entry := range entries {
		if sourceID, ok := sourceIDFromComment(entry.Comment.Raw); ok {
			g.seen[Fingerprint{SourceID: sourceID, WorkPackageID: workPackageID}] = struct{}{}
		}
	}
	g.listed[workPackageID] = struct{}{}
	g.mu.Unlock()
	return nil
}
