// internal/generation/registry.go
package generation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/listing-studio/internal/models"
)

// Guard is consulted before every listing write of a run. A non-nil error
// means the run no longer owns its listing key.
type Guard func(ctx context.Context) error

// Run is one in-flight generation for a listing key.
type Run struct {
	ID       uuid.UUID
	Key      models.ListingKey
	Progress *Projector

	registry *Registry
	cancel   context.CancelFunc
	guards   []Guard
}

// Check reports whether the run may still write to its listing.
func (r *Run) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return ErrRunCanceled
	}
	if r.registry != nil && !r.registry.owns(r) {
		return ErrSuperseded
	}
	for _, g := range r.guards {
		if err := g(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Registry keeps at most one active run per listing key and retains the final
// snapshot of the last finished run so late observers can still read it.
type Registry struct {
	mu       sync.Mutex
	active   map[models.ListingKey]*Run
	finished map[models.ListingKey]Snapshot
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		active:   make(map[models.ListingKey]*Run),
		finished: make(map[models.ListingKey]Snapshot),
		now:      time.Now,
	}
}

// Begin registers a run for key. The returned context is canceled by Cancel
// or when the run ends.
func (r *Registry) Begin(ctx context.Context, key models.ListingKey, runID uuid.UUID, guards ...Guard) (*Run, context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.active[key]; busy {
		return nil, nil, ErrRunInProgress
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := &Run{
		ID:       runID,
		Key:      key,
		Progress: NewProjector(runID, r.now()),
		registry: r,
		cancel:   cancel,
		guards:   guards,
	}
	r.active[key] = run
	return run, runCtx, nil
}

// Active returns the run currently holding key.
func (r *Registry) Active(key models.ListingKey) (*Run, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.active[key]
	return run, ok
}

// Cancel revokes the active run for key and cancels its context. Writes the
// run attempts afterwards are rejected by Check.
func (r *Registry) Cancel(key models.ListingKey) bool {
	r.mu.Lock()
	run, ok := r.active[key]
	if ok {
		delete(r.active, key)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	run.cancel()
	return true
}

// End releases the run and keeps its last snapshot.
func (r *Registry) End(run *Run) {
	r.mu.Lock()
	if cur, ok := r.active[run.Key]; !ok || cur == run {
		delete(r.active, run.Key)
		r.finished[run.Key] = run.Progress.Read()
	}
	r.mu.Unlock()

	run.cancel()
	run.Progress.Close()
}

// Snapshot returns the live snapshot of the active run, or the final snapshot
// of the last run that ended for key.
func (r *Registry) Snapshot(key models.ListingKey) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.active[key]; ok {
		return run.Progress.Read(), true
	}
	snap, ok := r.finished[key]
	return snap, ok
}

func (r *Registry) owns(run *Run) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[run.Key] == run
}
