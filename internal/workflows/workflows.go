// Package workflows ships the predefined document workflow definitions:
// purchase-order, sales-order, RMA, and revision status. Each is a plain
// fsm.Definition built on the generic engine, with permission guards on
// privileged actions and threshold guards deciding whether a submission
// needs the approval chain at all.
package workflows

import (
	"github.com/gateflow-tech/gateflow/internal/domain/revision"
	"github.com/gateflow-tech/gateflow/internal/domain/threshold"
	"github.com/gateflow-tech/gateflow/internal/errors"
	"github.com/gateflow-tech/gateflow/internal/fsm"
)

// Definition identifiers.
const (
	PurchaseOrderID  = "purchase-order-status"
	SalesOrderID     = "sales-order-status"
	RMAID            = "rma-status"
	RevisionStatusID = "revision-status"
)

// Actions shared across the shipped definitions.
const (
	ActionSubmit           = fsm.Action("submit")
	ActionFastTrack        = fsm.Action("fast_track")
	ActionApprove          = fsm.Action("approve")
	ActionRequestChanges   = fsm.Action("request_changes")
	ActionReject           = fsm.Action("reject")
	ActionSend             = fsm.Action("send")
	ActionAcknowledge      = fsm.Action("acknowledge")
	ActionConfirm          = fsm.Action("confirm")
	ActionBeginFulfillment = fsm.Action("begin_fulfillment")
	ActionComplete         = fsm.Action("complete")
	ActionFulfill          = fsm.Action("fulfill")
	ActionCancel           = fsm.Action("cancel")
	ActionReopen           = fsm.Action("reopen")
)

// Payload data keys the threshold guard reads.
const (
	DataOriginalTotal = "original_total"
	DataProposedTotal = "proposed_total"
)

// Catalog builds the shipped definitions against one threshold
// configuration, so the guards on submit/fast_track agree with the policy
// the rest of the system applies.
type Catalog struct {
	thresholds threshold.Config
}

// CatalogOption configures a catalog.
type CatalogOption func(*Catalog)

// WithThresholds overrides the default threshold configuration.
func WithThresholds(cfg threshold.Config) CatalogOption {
	return func(c *Catalog) {
		c.thresholds = cfg
	}
}

// NewCatalog returns a catalog using the default thresholds unless
// configured otherwise.
func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{thresholds: threshold.DefaultConfig()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Thresholds returns the threshold configuration the catalog builds with.
func (c *Catalog) Thresholds() threshold.Config {
	return c.thresholds
}

// All returns every shipped definition.
func (c *Catalog) All() []fsm.Definition {
	return []fsm.Definition{
		c.PurchaseOrder(),
		c.SalesOrder(),
		c.RMA(),
		c.RevisionStatus(),
	}
}

// ByID returns the shipped definition with the given identifier.
func (c *Catalog) ByID(id string) (fsm.Definition, bool) {
	for _, def := range c.All() {
		if def.ID == id {
			return def, true
		}
	}
	return fsm.Definition{}, false
}

// ForDocument returns the definition a document type follows.
func (c *Catalog) ForDocument(t revision.DocumentType) (fsm.Definition, bool) {
	switch t {
	case revision.DocumentPurchaseOrder:
		return c.PurchaseOrder(), true
	case revision.DocumentSalesOrder:
		return c.SalesOrder(), true
	case revision.DocumentRMA:
		return c.RMA(), true
	}
	return fsm.Definition{}, false
}

// RevisionGate returns the definition that gates cost revisions of a
// document type. Purchase and sales orders embed the gate in their own
// status workflow; RMAs track physical return processing in theirs, so
// their cost revisions ride the generic revision workflow instead.
func (c *Catalog) RevisionGate(t revision.DocumentType) (fsm.Definition, bool) {
	switch t {
	case revision.DocumentPurchaseOrder:
		return c.PurchaseOrder(), true
	case revision.DocumentSalesOrder:
		return c.SalesOrder(), true
	case revision.DocumentRMA:
		return c.RevisionStatus(), true
	}
	return fsm.Definition{}, false
}

// Machine compiles the shipped definition with the given identifier.
func (c *Catalog) Machine(id string, opts ...fsm.Option) (*fsm.Machine, error) {
	def, ok := c.ByID(id)
	if !ok {
		return nil, errors.Newf(errors.KindDefinition, "unknown workflow definition %q", id)
	}
	return fsm.New(def, opts...)
}

// NewGuardRegistry returns a guard registry that also resolves the threshold
// guard kind, for loading declarative definition files.
func NewGuardRegistry() *fsm.GuardRegistry {
	reg := fsm.NewGuardRegistry()
	RegisterGuards(reg)
	return reg
}
