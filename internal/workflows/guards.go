package workflows

import (
	"fmt"

	"github.com/gateflow-tech/gateflow/internal/domain/threshold"
	"github.com/gateflow-tech/gateflow/internal/errors"
	"github.com/gateflow-tech/gateflow/internal/fsm"
)

// ThresholdWhen is the gate direction of a threshold guard.
type ThresholdWhen string

const (
	// WhenExceeds allows the transition only when the cost delta exceeds
	// the threshold (the route into the approval chain).
	WhenExceeds ThresholdWhen = "exceeds"
	// WhenWithin allows the transition only when the cost delta stays
	// within the threshold (the route around the chain).
	WhenWithin ThresholdWhen = "within"
)

// ThresholdGuard gates a transition on the revision's cost delta, read from
// the payload's original_total and proposed_total values.
type ThresholdGuard struct {
	Config threshold.Config
	When   ThresholdWhen
}

// Kind implements fsm.Guard.
func (g ThresholdGuard) Kind() string { return fsm.GuardKindThreshold }

// Evaluate implements fsm.Guard.
func (g ThresholdGuard) Evaluate(_ fsm.Instance, p fsm.Payload) fsm.Verdict {
	proposed, ok := p.Float(DataProposedTotal)
	if !ok {
		return fsm.Deny(fmt.Sprintf("payload is missing %q for threshold evaluation", DataProposedTotal))
	}
	original, _ := p.Float(DataOriginalTotal)

	d := threshold.CostDelta(original, proposed, g.Config)
	if g.When == WhenWithin {
		if d.ExceedsThreshold {
			return fsm.Deny(fmt.Sprintf("cost delta %+.2f (%+.1f%%) requires approval", d.Delta, d.PercentChange*100))
		}
		return fsm.Allow()
	}
	if !d.ExceedsThreshold {
		return fsm.Deny(fmt.Sprintf("cost delta %+.2f (%+.1f%%) is within the approval threshold", d.Delta, d.PercentChange*100))
	}
	return fsm.Allow()
}

// RegisterGuards installs the threshold guard factory into a registry so
// declarative definition files can reference the threshold kind.
func RegisterGuards(reg *fsm.GuardRegistry) {
	reg.RegisterFactory(fsm.GuardKindThreshold, thresholdFactory)
}

func thresholdFactory(_ string, params map[string]any) (fsm.Guard, error) {
	const op = "workflows.thresholdFactory"

	cfg := threshold.DefaultConfig()
	if v, ok, err := floatParam(params, "percent"); err != nil {
		return nil, err
	} else if ok {
		cfg.PercentThreshold = v
	}
	if v, ok, err := floatParam(params, "absolute"); err != nil {
		return nil, err
	} else if ok {
		cfg.AbsoluteThreshold = v
	}
	if raw, ok := params["mode"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, errors.Definition(op, "threshold guard parameter \"mode\" must be a string")
		}
		cfg.Mode = threshold.Mode(s)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.DefinitionWrap(err, op, "invalid threshold guard configuration")
	}

	when := WhenExceeds
	if raw, ok := params["when"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, errors.Definition(op, "threshold guard parameter \"when\" must be a string")
		}
		when = ThresholdWhen(s)
	}
	if when != WhenExceeds && when != WhenWithin {
		return nil, errors.Newf(errors.KindDefinition, "unknown threshold guard direction %q", when)
	}

	return ThresholdGuard{Config: cfg, When: when}, nil
}

// floatParam reads an optional numeric parameter, tolerating the int and
// float encodings YAML produces.
func floatParam(params map[string]any, key string) (float64, bool, error) {
	raw, ok := params[key]
	if !ok {
		return 0, false, nil
	}
	switch n := raw.(type) {
	case float64:
		return n, true, nil
	case int:
		return float64(n), true, nil
	case int64:
		return float64(n), true, nil
	default:
		return 0, false, errors.Newf(errors.KindDefinition, "threshold guard parameter %q must be numeric", key)
	}
}
