package lifecycle

import (
	"github.com/gateflow-tech/gateflow/internal/domain/approval"
	"github.com/gateflow-tech/gateflow/internal/domain/threshold"
)

// routing holds the settings that decide how a submission is routed into
// approval. Submit and resubmit share them.
type routing struct {
	policy      threshold.Policy
	levelPolicy approval.LevelPolicy
}

func defaultRouting() routing {
	return routing{policy: threshold.PolicyBanded}
}

// RoutingOption configures how submissions are routed into approval.
type RoutingOption func(*routing)

// WithApprovalPolicy selects how deep approval ladders go: the dual policy
// keeps a flat manager sign-off, the banded policy escalates with the cost
// delta's tier. Banded is the default.
func WithApprovalPolicy(p threshold.Policy) RoutingOption {
	return func(r *routing) {
		r.policy = p
	}
}

// WithLevelPolicy sets how approvers sharing a chain level resolve it.
func WithLevelPolicy(p approval.LevelPolicy) RoutingOption {
	return func(r *routing) {
		r.levelPolicy = p
	}
}
