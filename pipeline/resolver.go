package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"togimport/internal/wpref"
	"togimport/openproject"
	"togimport/toggl"
)

// Target is the fully resolved destination for one time entry.
type Target struct {
	WorkPackageID int64
	ActivityID    int64
	UserID        int64
	ProjectID     int64
}

// Unresolved reports why an entry cannot be mapped onto the target system.
// It is a normal skip, never a run failure.
type Unresolved struct {
	Code   ReasonCode
	Detail string
}

type lookupResult struct {
	id     int64
	found  bool
	detail string
}

type ResolverConfig struct {
	Client          openproject.Client
	ResolveUsers    bool
	ResolveProjects bool

	// Pinned mappings from configuration rules. Pinned names never hit
	// the API.
	PinnedUsers    map[string]int64
	PinnedProjects map[string]int64
}

// Resolver maps parsed references and entry metadata onto target ids. All
// lookups are cached for the lifetime of the resolver, so each distinct
// work package id, user name, and project name is asked of the API at
// most once per run.
type Resolver struct {
	client          openproject.Client
	resolveUsers    bool
	resolveProjects bool

	fetchMu sync.Mutex
	mu      sync.RWMutex

	workPackages map[int64]lookupResult
	users        map[string]lookupResult
	projects     map[string]lookupResult
}

func NewResolver(cfg ResolverConfig) *Resolver {
	resolver := &Resolver{
		client:          cfg.Client,
		resolveUsers:    cfg.ResolveUsers,
		resolveProjects: cfg.ResolveProjects,
		workPackages:    make(map[int64]lookupResult),
		users:           make(map[string]lookupResult, len(cfg.PinnedUsers)),
		projects:        make(map[string]lookupResult, len(cfg.PinnedProjects)),
	}
	for name, id := range cfg.PinnedUsers {
		resolver.users[nameKey(name)] = lookupResult{id: id, found: true}
	}
	for name, id := range cfg.PinnedProjects {
		resolver.projects[nameKey(name)] = lookupResult{id: id, found: true}
	}
	return resolver
}

// Resolve returns the commit target for entry. A non-nil Unresolved means
// the entry must be skipped; a non-nil error means the lookup itself
// failed and the entry counts as failed.
func (r *Resolver) Resolve(ctx context.Context, entry toggl.TimeEntry, ref wpref.Reference) (Target, *Unresolved, error) {
	exists, err := r.workPackageExists(ctx, ref.ID)
	if err != nil {
		return Target{}, nil, fmt.Errorf("look up work package %d: %w", ref.ID, err)
	}
	if !exists {
		return Target{}, &Unresolved{
			Code:   ReasonWorkItemNotFound,
			Detail: fmt.Sprintf("work package %d does not exist", ref.ID),
		}, nil
	}

	target := Target{WorkPackageID: ref.ID}

	if r.resolveUsers {
		name := normalizeName(entry.UserName)
		if name == "" {
			return Target{}, &Unresolved{Code: ReasonUserNotMapped, Detail: "time entry carries no user name"}, nil
		}
		result, err := r.lookupUser(ctx, name)
		if err != nil {
			return Target{}, nil, fmt.Errorf("look up user %q: %w", name, err)
		}
		if !result.found {
			detail := result.detail
			if detail == "" {
				detail = fmt.Sprintf("no user matches %q", name)
			}
			return Target{}, &Unresolved{Code: ReasonUserNotMapped, Detail: detail}, nil
		}
		target.UserID = result.id
	}

	if r.resolveProjects {
		name := normalizeName(entry.ProjectName)
		if name == "" {
			return Target{}, &Unresolved{Code: ReasonProjectNotMapped, Detail: "time entry carries no project name"}, nil
		}
		result, err := r.lookupProject(ctx, name)
		if err != nil {
			return Target{}, nil, fmt.Errorf("look up project %q: %w", name, err)
		}
		if !result.found {
			detail := result.detail
			if detail == "" {
				detail = fmt.Sprintf("no project matches %q", name)
			}
			return Target{}, &Unresolved{Code: ReasonProjectNotMapped, Detail: detail}, nil
		}
		target.ProjectID = result.id
	}

	return target, nil, nil
}

func (r *Resolver) workPackageExists(ctx context.Context, id int64) (bool, error) {
	r.mu.RLock()
	cached, ok := r.workPackages[id]
	r.mu.RUnlock()
	if ok {
		return cached.found, nil
	}

	// Serialize miss handling so concurrent workers don't trigger
	// duplicate lookups for the same id.
	r.fetchMu.Lock()
	defer r.fetchMu.Unlock()

	r.mu.RLock()
	cached, ok = r.workPackages[id]
	r.mu.RUnlock()
	if ok {
		return cached.found, nil
	}

	_, err := r.client.WorkPackage(ctx, id)
	switch {
	case err == nil:
		r.mu.Lock()
		r.workPackages[id] = lookupResult{id: id, found: true}
		r.mu.Unlock()
		return true, nil
	case errors.Is(err, openproject.ErrNotFound):
		r.mu.Lock()
		r.workPackages[id] = lookupResult{}
		r.mu.Unlock()
		return false, nil
	default:
		// Transient failures are not cached so a later entry can retry.
		return false, err
	}
}

func (r *Resolver) lookupUser(ctx context.Context, name string) (lookupResult, error) {
	key := nameKey(name)

	r.mu.RLock()
	cached, ok := r.users[key]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	r.fetchMu.Lock()
	defer r.fetchMu.Unlock()

	r.mu.RLock()
	cached, ok = r.users[key]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	user, err := r.client.FindUser(ctx, name)
	switch {
	case err == nil:
		result := lookupResult{id: user.ID, found: true}
		r.mu.Lock()
		r.users[key] = result
		r.mu.Unlock()
		return result, nil
	case errors.Is(err, openproject.ErrNotFound), errors.Is(err, openproject.ErrAmbiguous):
		result := lookupResult{detail: err.Error()}
		r.mu.Lock()
		r.users[key] = result
		r.mu.Unlock()
		return result, nil
	default:
		return lookupResult{}, err
	}
}

func (r *Resolver) lookupProject(ctx context.Context, name string) (lookupResult, error) {
	key := nameKey(name)

	r.mu.RLock()
	cached, ok := r.projects[key]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	r.fetchMu.Lock()
	defer r.fetchMu.Unlock()

	r.mu.RLock()
	cached, ok = r.projects[key]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	project, err := r.client.FindProject(ctx, name)
	switch {
	case err == nil:
		result := lookupResult{id: project.ID, found: true}
		r.mu.Lock()
		r.projects[key] = result
		r.mu.Unlock()
		return result, nil
	case errors.Is(err, openproject.ErrNotFound), errors.Is(err, openproject.ErrAmbiguous):
		result := lookupResult{detail: err.Error()}
		r.mu.Lock()
		r.projects[key] = result
		r.mu.Unlock()
		return result, nil
	default:
		return lookupResult{}, err
	}
}

func nameKey(value string) string {
	return strings.ToLower(normalizeName(value))
}

func normalizeName(value string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(value)), " ")
}
