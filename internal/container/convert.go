package container

import (
	"github.com/gateflow-tech/gateflow/internal/config"
	"github.com/gateflow-tech/gateflow/internal/domain/approval"
	"github.com/gateflow-tech/gateflow/internal/domain/revision"
	"github.com/gateflow-tech/gateflow/internal/domain/threshold"
	"github.com/gateflow-tech/gateflow/internal/errors"
	"github.com/gateflow-tech/gateflow/internal/pending"
)

// The config package carries plain strings and numbers so it stays free of
// domain imports. These helpers translate its sections into domain types at
// the one place both sides are visible.

func thresholdConfig(cfg config.ThresholdsConfig) threshold.Config {
	return threshold.Config{
		PercentThreshold:  cfg.Percent,
		AbsoluteThreshold: cfg.Absolute,
		Mode:              threshold.Mode(cfg.Mode),
	}
}

func approvalPolicy(name string) threshold.Policy {
	p := threshold.Policy(name)
	if !p.IsValid() {
		return threshold.PolicyBanded
	}
	return p
}

func levelPolicy(name string) approval.LevelPolicy {
	p := approval.LevelPolicy(name)
	if !p.IsValid() {
		return approval.LevelPolicyAll
	}
	return p
}

func approverLadders(cfg map[string][]config.ApproverConfig) (map[revision.DocumentType][]approval.Approver, error) {
	ladders := make(map[revision.DocumentType][]approval.Approver, len(cfg))
	for name, entries := range cfg {
		docType := revision.DocumentType(name)
		if !docType.IsValid() {
			return nil, errors.Newf(errors.KindConfig, "unknown document type %q in approver ladders", name)
		}

		approvers := make([]approval.Approver, 0, len(entries))
		for _, entry := range entries {
			approvers = append(approvers, approval.Approver{
				ID:    entry.ID,
				Name:  entry.Name,
				Role:  entry.Role,
				Email: entry.Email,
				Level: entry.Level,
			})
		}
		ladders[docType] = approvers
	}
	return ladders, nil
}

func resilienceConfig(cfg config.PendingConfig) pending.ResilienceConfig {
	return pending.ResilienceConfig{
		RetryAttempts:      cfg.RetryAttempts,
		RetryInitialWait:   cfg.RetryInitialWait,
		RetryMaxWait:       cfg.RetryMaxWait,
		BreakerEnabled:     cfg.BreakerEnabled,
		BreakerThreshold:   cfg.BreakerThreshold,
		BreakerTimeout:     cfg.BreakerTimeout,
		BreakerMaxRequests: cfg.BreakerMaxRequests,
	}
}
