// Package directory resolves the approvers that staff an approval chain.
package directory

import (
	"context"
	"sort"

	"github.com/gateflow-tech/gateflow/internal/application/lifecycle"
	"github.com/gateflow-tech/gateflow/internal/domain/approval"
	"github.com/gateflow-tech/gateflow/internal/domain/revision"
	"github.com/gateflow-tech/gateflow/internal/domain/threshold"
	"github.com/gateflow-tech/gateflow/internal/errors"
)

// Static resolves approvers from fixed per-document-type ladders, usually
// loaded from configuration. A ladder lists one or more approvers per level;
// requests are answered with the ladder trimmed to the requested tier's depth.
type Static struct {
	ladders map[revision.DocumentType][]approval.Approver
}

var _ lifecycle.ApproverDirectory = (*Static)(nil)

// NewStatic builds a directory from per-document-type ladders. Entries are
// validated up front and each ladder is sorted by level.
func NewStatic(ladders map[revision.DocumentType][]approval.Approver) (*Static, error) {
	s := &Static{ladders: make(map[revision.DocumentType][]approval.Approver, len(ladders))}
	for docType, ladder := range ladders {
		if !docType.IsValid() {
			return nil, errors.Newf(errors.KindConfig, "unknown document type %q in approver ladders", docType)
		}
		sorted := make([]approval.Approver, len(ladder))
		copy(sorted, ladder)
		for i := range sorted {
			if err := sorted[i].Validate(); err != nil {
				return nil, errors.Wrapf(err, errors.KindConfig, "directory.NewStatic",
					"invalid approver for %s", docType)
			}
		}
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })
		s.ladders[docType] = sorted
	}
	return s, nil
}

// Ladder returns the full configured ladder for a document type.
func (s *Static) Ladder(docType revision.DocumentType) ([]approval.Approver, bool) {
	ladder, ok := s.ladders[docType]
	if !ok {
		return nil, false
	}
	out := make([]approval.Approver, len(ladder))
	copy(out, ladder)
	return out, true
}

// ApproversFor returns the document type's ladder trimmed to the tier's
// depth: a manager tier keeps level 1, an executive tier keeps levels 1-3.
func (s *Static) ApproversFor(ctx context.Context, docType revision.DocumentType, tier threshold.Tier) ([]approval.Approver, error) {
	ladder, ok := s.ladders[docType]
	if !ok {
		return nil, errors.Newf(errors.KindConfig, "no approver ladder configured for document type %q", docType)
	}

	depth := tier.Rank()
	var out []approval.Approver
	for _, a := range ladder {
		if a.Level <= depth {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return nil, errors.Newf(errors.KindConfig,
			"approver ladder for %s has no levels at or below tier %s", docType, tier)
	}
	return out, nil
}
