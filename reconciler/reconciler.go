// Package reconciler owns the local snapshot of all issues with resolved
// vote membership and keeps it consistent with the authoritative store.
// Every other component reads the snapshot as an immutable value; only the
// reconciler replaces it.
package reconciler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"civicsync/models"
	"civicsync/store"
)

// Snapshot is the denormalized local copy every view renders from. A
// snapshot is never mutated after publication; refresh swaps in a new one.
type Snapshot struct {
	Version   uuid.UUID               `json:"version"`
	FetchedAt time.Time               `json:"fetchedAt"`
	Issues    []models.IssueWithVotes `json:"issues"`
}

// Listener is re-rendered with the new snapshot after each successful
// refresh, before a blocking refresh caller gets control back.
type Listener func(*Snapshot)

type refreshCall struct {
	done chan struct{}
	snap *Snapshot
	err  error
}

// Reconciler coalesces refresh triggers (mutation success, periodic poll,
// store push notification) into at most one in-flight fetch.
type Reconciler struct {
	store    store.IssueStore
	logger   *logrus.Logger
	interval time.Duration

	mu        sync.Mutex
	snapshot  *Snapshot
	inflight  *refreshCall
	listeners []Listener
}

// New builds a reconciler with an empty snapshot. pollInterval is the
// periodic refresh cadence used by Start.
func New(st store.IssueStore, logger *logrus.Logger, pollInterval time.Duration) *Reconciler {
	return &Reconciler{
		store:    st,
		logger:   logger,
		interval: pollInterval,
		snapshot: &Snapshot{Version: uuid.New(), FetchedAt: time.Time{}},
	}
}

// Snapshot returns the current snapshot. Callers must treat it as read-only.
func (r *Reconciler) Snapshot() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot
}

// OnUpdate registers a view to be recomputed after every successful refresh.
func (r *Reconciler) OnUpdate(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Refresh fetches authoritative state and atomically replaces the snapshot.
// If a refresh is already in flight the caller attaches to it and observes
// its result; concurrent overlapping fetches never happen. On store failure
// the previous snapshot stays visible and the error is returned.
func (r *Reconciler) Refresh(ctx context.Context) (*Snapshot, error) {
	r.mu.Lock()
	if call := r.inflight; call != nil {
		r.mu.Unlock()
		select {
		case <-call.done:
			return call.snap, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	r.inflight = call
	r.mu.Unlock()

	issues, err := r.store.FetchAll(ctx)

	r.mu.Lock()
	if err == nil {
		call.snap = &Snapshot{
			Version:   uuid.New(),
			FetchedAt: time.Now(),
			Issues:    issues,
		}
		r.snapshot = call.snap
	} else {
		// Attached callers see the unchanged snapshot alongside the error.
		call.snap = r.snapshot
		call.err = err
	}
	listeners := append([]Listener(nil), r.listeners...)
	r.inflight = nil
	r.mu.Unlock()

	if err != nil {
		r.logger.WithError(err).Error("Refresh failed, keeping previous snapshot")
		close(call.done)
		return call.snap, err
	}

	// Dependent views recompute before any blocking caller resumes.
	for _, l := range listeners {
		l(call.snap)
	}
	close(call.done)
	return call.snap, nil
}

// Start wires the periodic poll and the store push subscription, both of
// which funnel into Refresh. The returned stop function tears both down.
func (r *Reconciler) Start(ctx context.Context) (func(), error) {
	unsubscribe, err := r.store.Subscribe(ctx, func() {
		if _, err := r.Refresh(ctx); err != nil {
			r.logger.WithError(err).Warn("Push-triggered refresh failed")
		}
	})
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(r.interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if _, err := r.Refresh(ctx); err != nil {
					r.logger.WithError(err).Warn("Periodic refresh failed")
				}
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
			unsubscribe()
		})
	}
	return stop, nil
}
