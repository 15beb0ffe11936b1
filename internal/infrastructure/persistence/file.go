package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gateflow-tech/gateflow/internal/application/lifecycle"
	"github.com/gateflow-tech/gateflow/internal/domain/approval"
	"github.com/gateflow-tech/gateflow/internal/domain/revision"
	"github.com/gateflow-tech/gateflow/internal/errors"
)

const (
	revisionsDir = "revisions"
	chainsDir    = "chains"
	recordSuffix = ".json"
)

// writeFileAtomic writes data to a temp file and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.IOWrap(err, "persistence.writeFileAtomic", "failed to write temp file")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp) // Best-effort cleanup on failure
		return errors.IOWrap(err, "persistence.writeFileAtomic", "failed to rename temp file")
	}
	return nil
}

// FileRevisionStore persists revisions as JSON files under root/revisions.
type FileRevisionStore struct {
	mu   sync.RWMutex
	root string
}

// NewFileRevisionStore creates a file-backed revision store rooted at root.
func NewFileRevisionStore(root string) *FileRevisionStore {
	return &FileRevisionStore{root: root}
}

var _ lifecycle.RevisionRepository = (*FileRevisionStore)(nil)

func (s *FileRevisionStore) dir() string {
	return filepath.Join(s.root, revisionsDir)
}

// path validates the ID against traversal by keeping only its base name.
func (s *FileRevisionStore) path(id revision.RevisionID) string {
	return filepath.Join(s.dir(), filepath.Base(string(id))+recordSuffix)
}

// Create stores a new revision.
func (s *FileRevisionStore) Create(ctx context.Context, rev *revision.Revision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir(), 0755); err != nil {
		return errors.IOWrap(err, "persistence.CreateRevision", "failed to create revisions directory")
	}
	path := s.path(rev.ID())
	if _, err := os.Stat(path); err == nil {
		return errors.Conflict("persistence.CreateRevision",
			fmt.Sprintf("revision %s already exists", rev.ID()))
	}
	return writeRevisionRecord(path, revisionToRecord(rev))
}

// Update stores a modified revision if expected matches the stored UpdatedAt.
func (s *FileRevisionStore) Update(ctx context.Context, rev *revision.Revision, expected time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(rev.ID())
	stored, err := readRevisionRecord(path, rev.ID())
	if err != nil {
		return err
	}
	if !stored.UpdatedAt.Equal(expected) {
		return errors.Conflict("persistence.UpdateRevision",
			fmt.Sprintf("revision %s was modified concurrently", rev.ID()))
	}
	return writeRevisionRecord(path, revisionToRecord(rev))
}

// Get retrieves a revision by ID.
func (s *FileRevisionStore) Get(ctx context.Context, id revision.RevisionID) (*revision.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := readRevisionRecord(s.path(id), id)
	if err != nil {
		return nil, err
	}
	return revisionFromRecord(rec)
}

// ListByDocument returns all revisions of a document, oldest first.
func (s *FileRevisionStore) ListByDocument(ctx context.Context, documentID string) ([]*revision.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.IOWrap(err, "persistence.ListByDocument", "failed to read revisions directory")
	}

	var out []*revision.Revision
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordSuffix) {
			continue
		}
		id := revision.RevisionID(strings.TrimSuffix(entry.Name(), recordSuffix))
		rec, err := readRevisionRecord(filepath.Join(s.dir(), entry.Name()), id)
		if err != nil {
			return nil, err
		}
		if rec.DocumentID != documentID {
			continue
		}
		rev, err := revisionFromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out, nil
}

func readRevisionRecord(path string, id revision.RevisionID) (*revisionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("persistence.readRevisionRecord",
				fmt.Sprintf("revision %s not found", id))
		}
		return nil, errors.IOWrap(err, "persistence.readRevisionRecord", "failed to read revision file")
	}
	var rec revisionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.IOWrap(err, "persistence.readRevisionRecord",
			fmt.Sprintf("corrupt revision record %s", id))
	}
	return &rec, nil
}

func writeRevisionRecord(path string, rec *revisionRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.IOWrap(err, "persistence.writeRevisionRecord", "failed to marshal revision")
	}
	return writeFileAtomic(path, data)
}

// FileChainStore persists approval chains as JSON files under root/chains.
type FileChainStore struct {
	mu   sync.RWMutex
	root string
}

// NewFileChainStore creates a file-backed chain store rooted at root.
func NewFileChainStore(root string) *FileChainStore {
	return &FileChainStore{root: root}
}

var _ lifecycle.ChainRepository = (*FileChainStore)(nil)

func (s *FileChainStore) dir() string {
	return filepath.Join(s.root, chainsDir)
}

func (s *FileChainStore) path(id string) string {
	return filepath.Join(s.dir(), filepath.Base(id)+recordSuffix)
}

// Create stores a new chain.
func (s *FileChainStore) Create(ctx context.Context, chain *approval.Chain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir(), 0755); err != nil {
		return errors.IOWrap(err, "persistence.CreateChain", "failed to create chains directory")
	}
	path := s.path(chain.ID())
	if _, err := os.Stat(path); err == nil {
		return errors.Conflict("persistence.CreateChain",
			fmt.Sprintf("chain %s already exists", chain.ID()))
	}
	return writeChainRecord(path, chainToRecord(chain))
}

// Update stores a modified chain if expected matches the stored UpdatedAt.
func (s *FileChainStore) Update(ctx context.Context, chain *approval.Chain, expected time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(chain.ID())
	stored, err := readChainRecord(path, chain.ID())
	if err != nil {
		return err
	}
	if !stored.UpdatedAt.Equal(expected) {
		return errors.Conflict("persistence.UpdateChain",
			fmt.Sprintf("chain %s was modified concurrently", chain.ID()))
	}
	return writeChainRecord(path, chainToRecord(chain))
}

// Get retrieves a chain by ID.
func (s *FileChainStore) Get(ctx context.Context, id string) (*approval.Chain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := readChainRecord(s.path(id), id)
	if err != nil {
		return nil, err
	}
	return chainFromRecord(rec), nil
}

// LatestByRevision returns the most recently started chain for a revision.
func (s *FileChainStore) LatestByRevision(ctx context.Context, revisionID string) (*approval.Chain, error) {
	recs, err := s.scan()
	if err != nil {
		return nil, err
	}

	var latest *chainRecord
	for _, rec := range recs {
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
func (s *FileChainStore) ListPendingFor(ctx context.Context, principalID string) ([]approval.PendingItem, error) {
	recs, err := s.scan()
	if err != nil {
		return nil, err
	}

	var items []approval.PendingItem
	for _, rec := range recs {
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

func (s *FileChainStore) scan() ([]*chainRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.IOWrap(err, "persistence.scanChains", "failed to read chains directory")
	}

	var recs []*chainRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordSuffix) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), recordSuffix)
		rec, err := readChainRecord(filepath.Join(s.dir(), entry.Name()), id)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func readChainRecord(path string, id string) (*chainRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("persistence.readChainRecord",
				fmt.Sprintf("chain %s not found", id))
		}
		return nil, errors.IOWrap(err, "persistence.readChainRecord", "failed to read chain file")
	}
	var rec chainRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.IOWrap(err, "persistence.readChainRecord",
			fmt.Sprintf("corrupt chain record %s", id))
	}
	return &rec, nil
}

func writeChainRecord(path string, rec *chainRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.IOWrap(err, "persistence.writeChainRecord", "failed to marshal chain")
	}
	return writeFileAtomic(path, data)
}
