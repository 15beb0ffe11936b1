package persistence

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gateflow-tech/gateflow/internal/application/lifecycle"
	"github.com/gateflow-tech/gateflow/internal/domain/approval"
	"github.com/gateflow-tech/gateflow/internal/domain/revision"
	"github.com/gateflow-tech/gateflow/internal/errors"
)

// MemoryRevisionStore keeps revisions in process memory. Suitable for tests
// and for the simulate command.
type MemoryRevisionStore struct {
	mu   sync.RWMutex
	rows map[revision.RevisionID]*revisionRecord
}

// NewMemoryRevisionStore creates an empty in-memory revision store.
func NewMemoryRevisionStore() *MemoryRevisionStore {
	return &MemoryRevisionStore{
		rows: make(map[revision.RevisionID]*revisionRecord),
	}
}

var _ lifecycle.RevisionRepository = (*MemoryRevisionStore)(nil)

// Create stores a new revision.
func (s *MemoryRevisionStore) Create(ctx context.Context, rev *revision.Revision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[rev.ID()]; ok {
		return errors.Conflict("persistence.CreateRevision",
			fmt.Sprintf("revision %s already exists", rev.ID()))
	}
	s.rows[rev.ID()] = revisionToRecord(rev)
	return nil
}

// Update stores a modified revision if expected matches the stored UpdatedAt.
func (s *MemoryRevisionStore) Update(ctx context.Context, rev *revision.Revision, expected time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.rows[rev.ID()]
	if !ok {
		return errors.NotFound("persistence.UpdateRevision",
			fmt.Sprintf("revision %s not found", rev.ID()))
	}
	if !stored.UpdatedAt.Equal(expected) {
		return errors.Conflict("persistence.UpdateRevision",
			fmt.Sprintf("revision %s was modified concurrently", rev.ID()))
	}
	s.rows[rev.ID()] = revisionToRecord(rev)
	return nil
}

// Get retrieves a revision by ID.
func (s *MemoryRevisionStore) Get(ctx context.Context, id revision.RevisionID) (*revision.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.rows[id]
	if !ok {
		return nil, errors.NotFound("persistence.GetRevision",
			fmt.Sprintf("revision %s not found", id))
	}
	return revisionFromRecord(rec)
}

// ListByDocument returns all revisions of a document, oldest first.
func (s *MemoryRevisionStore) ListByDocument(ctx context.Context, documentID string) ([]*revision.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []*revisionRecord
	for _, rec := range s.rows {
		if rec.DocumentID == documentID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})

	out := make([]*revision.Revision, 0, len(recs))
	for _, rec := range recs {
		rev, err := revisionFromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, nil
}

// MemoryChainStore keeps approval chains in process memory.
type MemoryChainStore struct {
	mu   sync.RWMutex
	rows map[string]*chainRecord
}

// NewMemoryChainStore creates an empty in-memory chain store.
func NewMemoryChainStore() *MemoryChainStore {
	return &MemoryChainStore{
		rows: make(map[string]*chainRecord),
	}
}

var _ lifecycle.ChainRepository = (*MemoryChainStore)(nil)

// Create stores a new chain.
func (s *MemoryChainStore) Create(ctx context.Context, chain *approval.Chain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[chain.ID()]; ok {
		return errors.Conflict("persistence.CreateChain",
			fmt.Sprintf("chain %s already exists", chain.ID()))
	}
	s.rows[chain.ID()] = chainToRecord(chain)
	return nil
}

// Update stores a modified chain if expected matches the stored UpdatedAt.
func (s *MemoryChainStore) Update(ctx context.Context, chain *approval.Chain, expected time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.rows[chain.ID()]
	if !ok {
		return errors.NotFound("persistence.UpdateChain",
			fmt.Sprintf("chain %s not found", chain.ID()))
	}
	if !stored.UpdatedAt.Equal(expected) {
		return errors.Conflict("persistence.UpdateChain",
			fmt.Sprintf("chain %s was modified concurrently", chain.ID()))
	}
	s.rows[chain.ID()] = chainToRecord(chain)
	return nil
}

// Get retrieves a chain by ID.
func (s *MemoryChainStore) Get(ctx context.Context, id string) (*approval.Chain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.rows[id]
	if !ok {
		return nil, errors.NotFound("persistence.GetChain",
			fmt.Sprintf("chain %s not found", id))
	}
	return chainFromRecord(rec), nil
}

// LatestByRevision returns the most recently started chain for a revision.
func (s *MemoryChainStore) LatestByRevision(ctx context.Context, revisionID string) (*approval.Chain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *chainRecord
	for _, rec := range s.rows {
		if rec.RevisionID != revisionID {
			continue
		}
		if latest == nil || rec.StartedAt.After(latest.StartedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, errors.NotFound("persistence.LatestByRevision",
			fmt.Sprintf("no chain for revision %s", revisionID))
	}
	return chainFromRecord(latest), nil
}

// ListPendingFor returns the pending items actionable by a principal across
// all open chains, oldest chain first.
func (s *MemoryChainStore) ListPendingFor(ctx context.Context, principalID string) ([]approval.PendingItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []approval.PendingItem
	for _, rec := range s.rows {
		if rec.Complete {
			continue
		}
		if item, ok := chainFromRecord(rec).PendingItemFor(principalID); ok {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].StartedAt.Equal(items[j].StartedAt) {
			return items[i].ChainID < items[j].ChainID
		}
		return items[i].StartedAt.Before(items[j].StartedAt)
	})
	return items, nil
}
