// Package persistence provides repository implementations for revisions and
// approval chains, backed by memory and by JSON files on disk.
package persistence

import (
	"time"

	"github.com/gateflow-tech/gateflow/internal/domain/approval"
	"github.com/gateflow-tech/gateflow/internal/domain/revision"
	"github.com/gateflow-tech/gateflow/internal/errors"
	"github.com/gateflow-tech/gateflow/internal/fsm"
)

// chainRecord is the serialized form of an approval chain.
type chainRecord struct {
	ID           string          `json:"id"`
	RevisionID   string          `json:"revision_id"`
	Steps        []approval.Step `json:"steps"`
	CurrentLevel int             `json:"current_level"`
	Complete     bool            `json:"complete"`
	Outcome      string          `json:"outcome"`
	LevelPolicy  string          `json:"level_policy"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func chainToRecord(c *approval.Chain) *chainRecord {
	return &chainRecord{
		ID:           c.ID(),
		RevisionID:   c.RevisionID(),
		Steps:        c.Steps(),
		CurrentLevel: c.CurrentLevel(),
		Complete:     c.IsComplete(),
		Outcome:      string(c.Outcome()),
		LevelPolicy:  string(c.LevelPolicy()),
		StartedAt:    c.StartedAt(),
		CompletedAt:  c.CompletedAt(),
		UpdatedAt:    c.UpdatedAt(),
	}
}

func chainFromRecord(rec *chainRecord) *approval.Chain {
	return approval.ReconstructChain(
		rec.ID,
		rec.RevisionID,
		rec.Steps,
		rec.CurrentLevel,
		rec.Complete,
		approval.Outcome(rec.Outcome),
		approval.LevelPolicy(rec.LevelPolicy),
		rec.StartedAt,
		rec.CompletedAt,
		rec.UpdatedAt,
	)
}

// revisionRecord is the serialized form of a revision.
type revisionRecord struct {
	ID            string           `json:"id"`
	DocumentID    string           `json:"document_id"`
	DocumentType  string           `json:"document_type"`
	Version       string           `json:"version"`
	Status        string           `json:"status"`
	InstanceID    string           `json:"instance_id,omitempty"`
	ChainID       string           `json:"chain_id,omitempty"`
	OriginalTotal float64          `json:"original_total"`
	ProposedTotal float64          `json:"proposed_total"`
	ChangedFields []string         `json:"changed_fields,omitempty"`
	Cycles        []approval.Cycle `json:"cycles,omitempty"`
	CreatedBy     string           `json:"created_by"`
	Notes         string           `json:"notes,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func revisionToRecord(r *revision.Revision) *revisionRecord {
	return &revisionRecord{
		ID:            string(r.ID()),
		DocumentID:    r.DocumentID(),
		DocumentType:  string(r.DocumentType()),
		Version:       r.Version().String(),
		Status:        string(r.Status()),
		InstanceID:    r.InstanceID(),
		ChainID:       r.ChainID(),
		OriginalTotal: r.OriginalTotal(),
		ProposedTotal: r.ProposedTotal(),
		ChangedFields: r.ChangedFields(),
		Cycles:        r.Cycles(),
		CreatedBy:     r.CreatedBy(),
		Notes:         r.Notes(),
		CreatedAt:     r.CreatedAt(),
		UpdatedAt:     r.UpdatedAt(),
	}
}

func revisionFromRecord(rec *revisionRecord) (*revision.Revision, error) {
	ver, err := revision.ParseVersion(rec.Version)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "persistence.revisionFromRecord",
			"revision %s has invalid version %q", rec.ID, rec.Version)
	}
	return revision.ReconstructRevision(
		revision.RevisionID(rec.ID),
		rec.DocumentID,
		revision.DocumentType(rec.DocumentType),
		ver,
		fsm.StateID(rec.Status),
		rec.InstanceID,
		rec.ChainID,
		rec.OriginalTotal,
		rec.ProposedTotal,
		rec.ChangedFields,
		rec.Cycles,
		rec.CreatedBy,
		rec.Notes,
		rec.CreatedAt,
		rec.UpdatedAt,
	), nil
}
