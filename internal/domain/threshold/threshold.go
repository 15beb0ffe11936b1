// Package threshold decides whether a proposed change to a monetary total
// requires approval. Two policies are provided: a dual-threshold policy
// combining a percentage and an absolute limit, and a banded-tier policy
// mapping the change percentage onto an escalation tier. Both are pure
// functions over the same percent-change computation; the integrating
// document type declares which policy it uses.
package threshold

import (
	"math"

	"github.com/gateflow-tech/gateflow/internal/errors"
)

// Mode selects how the dual-threshold policy combines its two limits.
type Mode string

const (
	// ModeOr exceeds when either limit is reached.
	ModeOr Mode = "OR"
	// ModeAnd exceeds only when both limits are reached.
	ModeAnd Mode = "AND"
)

// IsValid returns true if the mode is recognized.
func (m Mode) IsValid() bool {
	return m == ModeOr || m == ModeAnd
}

// Policy names one of the selectable approval-gating policies.
type Policy string

const (
	// PolicyDual is the percentage-or-absolute dual-threshold policy.
	PolicyDual Policy = "dual"
	// PolicyBanded is the four-tier percentage banding policy.
	PolicyBanded Policy = "banded"
)

// IsValid returns true if the policy name is recognized.
func (p Policy) IsValid() bool {
	return p == PolicyDual || p == PolicyBanded
}

// Default dual-policy limits: a change of 5% or 500 currency units.
const (
	DefaultPercentThreshold  = 0.05
	DefaultAbsoluteThreshold = 500.0
)

// Config parameterizes the dual-threshold policy.
type Config struct {
	// PercentThreshold is a fraction (0.05 means 5%). Must be >= 0.
	PercentThreshold float64 `json:"percent_threshold" yaml:"percent_threshold"`
	// AbsoluteThreshold is in currency units. Must be >= 0.
	AbsoluteThreshold float64 `json:"absolute_threshold" yaml:"absolute_threshold"`
	// Mode combines the two limits. An empty mode evaluates as OR.
	Mode Mode `json:"mode" yaml:"mode"`
}

// DefaultConfig returns the 5%-or-$500 policy.
func DefaultConfig() Config {
	return Config{
		PercentThreshold:  DefaultPercentThreshold,
		AbsoluteThreshold: DefaultAbsoluteThreshold,
		Mode:              ModeOr,
	}
}

// Validate checks the config for structural soundness.
func (c Config) Validate() error {
	const op = "threshold.Config.Validate"
	if c.PercentThreshold < 0 {
		return errors.Validation(op, "percent threshold must not be negative")
	}
	if c.AbsoluteThreshold < 0 {
		return errors.Validation(op, "absolute threshold must not be negative")
	}
	if c.Mode != "" && !c.Mode.IsValid() {
		return errors.Newf(errors.KindValidation, "unknown threshold mode %q", c.Mode)
	}
	return nil
}

// Delta is the derived comparison of an original and a proposed total.
// It is computed on demand, never stored.
type Delta struct {
	OriginalCost     float64 `json:"original_cost"`
	NewCost          float64 `json:"new_cost"`
	Delta            float64 `json:"delta"`
	PercentChange    float64 `json:"percent_change"`
	ExceedsThreshold bool    `json:"exceeds_threshold"`
}

// CostDelta evaluates a proposed total against the dual-threshold policy.
// PercentChange is 0 when the original cost is 0; the absolute limit still
// applies in that case. Both limits compare magnitudes, so decreases gate
// the same way as increases.
func CostDelta(originalCost, newCost float64, cfg Config) Delta {
	d := Delta{
		OriginalCost: originalCost,
		NewCost:      newCost,
		Delta:        newCost - originalCost,
	}
	if originalCost != 0 {
		d.PercentChange = d.Delta / originalCost
	}

	overPercent := math.Abs(d.PercentChange) >= cfg.PercentThreshold
	overAbsolute := math.Abs(d.Delta) >= cfg.AbsoluteThreshold
	if cfg.Mode == ModeAnd {
		d.ExceedsThreshold = overPercent && overAbsolute
	} else {
		d.ExceedsThreshold = overPercent || overAbsolute
	}
	return d
}
