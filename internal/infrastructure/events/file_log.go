// Package events persists domain events as append-only JSON lines, one
// stream per subject. The streams double as the audit trail for revisions.
package events

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
	"github.com/gateflow-tech/gateflow/internal/errors"
)

const (
	eventsDir    = "events"
	eventsSuffix = ".events.jsonl"
)

// StoredEvent is one persisted event record. The payload keeps the event's
// original JSON so streams stay readable even as event shapes evolve.
type StoredEvent struct {
	ID          string          `json:"id"`
	SubjectID   string          `json:"subject_id"`
	EventName   string          `json:"event_name"`
	OccurredAt  time.Time       `json:"occurred_at"`
	StoredAt    time.Time       `json:"stored_at"`
	SequenceNum int64           `json:"sequence_num"`
	Payload     json.RawMessage `json:"payload"`
}

// FileLog appends domain events to per-subject JSON lines files under
// <root>/events.
type FileLog struct {
	mu   sync.Mutex
	root string
}

var _ lifecycle.EventPublisher = (*FileLog)(nil)

// NewFileLog creates an event log rooted at the given directory.
func NewFileLog(root string) *FileLog {
	return &FileLog{root: root}
}

func (l *FileLog) dir() string {
	return filepath.Join(l.root, eventsDir)
}

// path maps a subject to its stream file. Base strips separators so a
// subject id can never escape the events directory.
func (l *FileLog) path(subjectID string) string {
	return filepath.Join(l.dir(), filepath.Base(subjectID)+eventsSuffix)
}

// Publish appends the events to the subject's stream in order.
func (l *FileLog) Publish(ctx context.Context, subjectID string, events ...lifecycle.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir(), 0755); err != nil {
		return errors.IOWrap(err, "events.Publish", "failed to create events directory")
	}

	path := l.path(subjectID)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.IOWrap(err, "events.Publish", "failed to open event stream")
	}

	seq := l.nextSequence(path)
	encoder := json.NewEncoder(f)
	now := time.Now().UTC()

	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			_ = f.Close()
			return errors.IOWrap(err, "events.Publish", "failed to marshal event")
		}

		rec := StoredEvent{
			ID:          fmt.Sprintf("%s-%d", subjectID, seq),
			SubjectID:   subjectID,
			EventName:   event.EventName(),
			OccurredAt:  event.OccurredAt(),
			StoredAt:    now,
			SequenceNum: seq,
			Payload:     payload,
		}
		if err := encoder.Encode(rec); err != nil {
			_ = f.Close()
			return errors.IOWrap(err, "events.Publish", "failed to write event")
		}
		seq++
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		return errors.IOWrap(err, "events.Publish", "failed to sync event stream")
	}
	if err := f.Close(); err != nil {
		return errors.IOWrap(err, "events.Publish", "failed to close event stream")
	}
	return nil
}

// Load returns the subject's stored events in append order. A subject with
// no stream yet yields an empty slice.
func (l *FileLog) Load(ctx context.Context, subjectID string) ([]StoredEvent, error) {
	recs, err := readStream(l.path(subjectID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.IOWrap(err, "events.Load", "failed to read event stream")
	}
	return recs, nil
}

// LoadAll returns every stored event across subjects, ordered by occurrence.
func (l *FileLog) LoadAll(ctx context.Context) ([]StoredEvent, error) {
	entries, err := os.ReadDir(l.dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.IOWrap(err, "events.LoadAll", "failed to read events directory")
	}

	var all []StoredEvent
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), eventsSuffix) {
			continue
		}
		recs, err := readStream(filepath.Join(l.dir(), entry.Name()))
		if err != nil {
			continue
		}
		all = append(all, recs...)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].OccurredAt.Before(all[j].OccurredAt)
	})
	return all, nil
}

// nextSequence continues a stream's numbering from its last record.
func (l *FileLog) nextSequence(path string) int64 {
	recs, err := readStream(path)
	if err != nil || len(recs) == 0 {
		return 1
	}
	return recs[len(recs)-1].SequenceNum + 1
}

// readStream decodes a JSONL stream. Decoding stops at the first malformed
// record, which is how a torn final write presents; everything before it is
// still returned.
func readStream(path string) ([]StoredEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var recs []StoredEvent
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	for decoder.More() {
		var rec StoredEvent
		if err := decoder.Decode(&rec); err != nil {
			break
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
