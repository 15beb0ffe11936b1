// Package pending implements the asynchronous pending-approval query
// service: fetch the chains awaiting a principal, tolerate overlapping
// in-flight requests via a monotonic sequence guard, and optionally poll on
// a fixed interval.
package pending

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gateflow-tech/gateflow/internal/domain/approval"
	gferrors "github.com/gateflow-tech/gateflow/internal/errors"
)

// Fetcher loads the pending approval items for a principal: every chain
// where the principal holds a pending step at the chain's current level.
type Fetcher interface {
	FetchPending(ctx context.Context, principalID string) ([]approval.PendingItem, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, principalID string) ([]approval.PendingItem, error)

// FetchPending implements Fetcher.
func (f FetcherFunc) FetchPending(ctx context.Context, principalID string) ([]approval.PendingItem, error) {
	return f(ctx, principalID)
}

// Snapshot is the service's observable state. Items holds the last
// successful result; a failed fetch sets Err but keeps the previous items.
type Snapshot struct {
	Items       []approval.PendingItem
	Loading     bool
	Err         error
	LastUpdated time.Time
}

// Count returns how many approvals are pending.
func (s Snapshot) Count() int {
	return len(s.Items)
}

// Service runs sequence-guarded fetches for one principal. Every request is
// tagged with a monotonically increasing sequence number; a response is
// applied only if no newer request has been issued since, so stale results
// can never overwrite fresher state.
type Service struct {
	fetcher   Fetcher
	principal string
	interval  time.Duration
	onUpdate  func(Snapshot)
	logger    *slog.Logger

	seq atomic.Uint64

	mu   sync.Mutex
	snap Snapshot

	skip    atomic.Bool
	started atomic.Bool
	stopped atomic.Bool
	stop    chan struct{}
	done    chan struct{}
}

// ServiceOption configures the service.
type ServiceOption func(*Service)

// WithInterval enables polling at the given fixed interval.
func WithInterval(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.interval = d
	}
}

// WithOnUpdate registers a callback invoked after every snapshot change,
// outside the service's lock. Useful for badge rendering.
func WithOnUpdate(fn func(Snapshot)) ServiceOption {
	return func(s *Service) {
		s.onUpdate = fn
	}
}

// NewService creates a query service for one principal.
func NewService(fetcher Fetcher, principalID string, opts ...ServiceOption) (*Service, error) {
	if fetcher == nil {
		return nil, gferrors.Validation("pending.NewService", "fetcher is required")
	}
	if principalID == "" {
		return nil, gferrors.Validation("pending.NewService", "principal id is required")
	}

	s := &Service{
		fetcher:   fetcher,
		principal: principalID,
		logger:    slog.Default().With("component", "pending", "principal", principalID),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Snapshot returns the current observable state.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cloneLocked()
}

// cloneLocked copies the snapshot so callers cannot alias the items slice.
func (s *Service) cloneLocked() Snapshot {
	out := s.snap
	if len(s.snap.Items) > 0 {
		out.Items = make([]approval.PendingItem, len(s.snap.Items))
		copy(out.Items, s.snap.Items)
	}
	return out
}

// Refetch issues a fetch immediately and returns the snapshot after it
// settles. If a newer request was issued while this one was in flight, the
// stale response is discarded and the fresher state is returned.
func (s *Service) Refetch(ctx context.Context) Snapshot {
	s.fetchOnce(ctx)
	return s.Snapshot()
}

// SetSkip suspends (true) or resumes (false) polling. Skipping does not
// stop the schedule, only the fetches it would issue.
func (s *Service) SetSkip(skip bool) {
	s.skip.Store(skip)
}

// Skipped returns whether polling is currently suspended.
func (s *Service) Skipped() bool {
	return s.skip.Load()
}

// Start begins polling at the configured interval. Cancellation of ctx or a
// call to Stop ends the schedule; neither aborts an in-flight fetch.
func (s *Service) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return gferrors.Validation("pending.Start", "polling requires a positive interval")
	}
	if !s.started.CompareAndSwap(false, true) {
		return gferrors.Validation("pending.Start", "polling already started")
	}

	go s.poll(ctx)
	return nil
}

func (s *Service) poll(ctx context.Context) {
	defer close(s.done)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-timer.C:
			if !s.skip.Load() {
				s.fetchOnce(ctx)
			}
			timer.Reset(s.interval)
		}
	}
}

// Stop ends the polling schedule and waits for the loop to exit. Safe to
// call multiple times and before Start.
func (s *Service) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stop)
	}
	if s.started.Load() {
		<-s.done
	}
}

func (s *Service) fetchOnce(ctx context.Context) {
	tag := s.seq.Add(1)

	s.mu.Lock()
	s.snap.Loading = true
	loading := s.cloneLocked()
	s.mu.Unlock()
	s.emit(loading)

	items, err := s.fetcher.FetchPending(ctx, s.principal)

	s.mu.Lock()
	if latest := s.seq.Load(); tag != latest {
		s.mu.Unlock()
		s.logger.Debug("discarding stale pending response", "seq", tag, "latest", latest)
		return
	}
	if err != nil {
		s.snap.Err = err
		s.snap.Loading = false
	} else {
		s.snap.Items = items
		s.snap.Err = nil
		s.snap.Loading = false
		s.snap.LastUpdated = time.Now()
	}
	settled := s.cloneLocked()
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("pending fetch failed", "seq", tag, "error", err)
	}
	s.emit(settled)
}

func (s *Service) emit(snap Snapshot) {
	if s.onUpdate != nil {
		s.onUpdate(snap)
	}
}
