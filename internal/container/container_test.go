package container

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gateflow-tech/gateflow/internal/config"
	"github.com/gateflow-tech/gateflow/internal/domain/approval"
	"github.com/gateflow-tech/gateflow/internal/domain/threshold"
)

// mockCloseable implements Closeable for testing.
type mockCloseable struct {
	closeCount int32
	closeErr   error
}

func (m *mockCloseable) Close() error {
	atomic.AddInt32(&m.closeCount, 1)
	return m.closeErr
}

func (m *mockCloseable) getCloseCount() int32 {
	return atomic.LoadInt32(&m.closeCount)
}

func memoryConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Storage.Backend = "memory"
	return cfg
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil)
	if err == nil {
		t.Fatal("New(nil) should fail")
	}
}

func TestApp_Initialize_MemoryBackend(t *testing.T) {
	app, err := NewInitialized(context.Background(), memoryConfig())
	if err != nil {
		t.Fatalf("NewInitialized failed: %v", err)
	}
	defer app.Close()

	if app.Catalog() == nil {
		t.Error("Catalog should be initialized")
	}
	if app.Revisions() == nil {
		t.Error("Revisions should be initialized")
	}
	if app.Chains() == nil {
		t.Error("Chains should be initialized")
	}
	if app.Approvers() == nil {
		t.Error("Approvers should be initialized")
	}
	if app.EventLog() != nil {
		t.Error("EventLog should be nil for the memory backend")
	}
	if app.SubmitRevision() == nil || app.DecideStep() == nil ||
		app.ResubmitRevision() == nil || app.DocumentStatus() == nil {
		t.Error("all lifecycle use cases should be initialized")
	}
}

func TestApp_Initialize_FileBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Backend = "file"
	cfg.Storage.Dir = t.TempDir()

	app, err := NewInitialized(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewInitialized failed: %v", err)
	}
	defer app.Close()

	if app.EventLog() == nil {
		t.Error("EventLog should be set for the file backend")
	}
}

func TestApp_Initialize_RejectsBadThresholds(t *testing.T) {
	cfg := memoryConfig()
	cfg.Thresholds.Percent = -1

	_, err := NewInitialized(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error for invalid threshold configuration")
	}
}

func TestApp_Initialize_RejectsBadLadder(t *testing.T) {
	cfg := memoryConfig()
	cfg.Approval.Ladders = map[string][]config.ApproverConfig{
		"invoice": {{ID: "mgr-1", Level: 1}},
	}

	_, err := NewInitialized(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error for unknown ladder document type")
	}
}

func TestApp_PendingFetcher(t *testing.T) {
	app, err := NewInitialized(context.Background(), memoryConfig())
	if err != nil {
		t.Fatalf("NewInitialized failed: %v", err)
	}
	defer app.Close()

	fetcher := app.PendingFetcher()
	if fetcher == nil {
		t.Fatal("PendingFetcher returned nil")
	}

	items, err := fetcher.FetchPending(context.Background(), "mgr-1")
	if err != nil {
		t.Fatalf("FetchPending failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no pending items in an empty store, got %d", len(items))
	}
}

func TestApp_Close_EmptyCloseables(t *testing.T) {
	app, err := New(memoryConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := app.Close(); err != nil {
		t.Errorf("Close should not return error for empty closeables, got: %v", err)
	}
}

func TestApp_Close_ClosesAllComponents(t *testing.T) {
	app, err := New(memoryConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	first := &mockCloseable{}
	second := &mockCloseable{closeErr: errors.New("close failed")}

	app.RegisterCloseable(first)
	app.RegisterCloseable(second)

	err = app.Close()
	if err == nil {
		t.Error("Close should surface the first close error")
	}
	if first.getCloseCount() != 1 {
		t.Errorf("first closeable should be closed once, got %d", first.getCloseCount())
	}
	if second.getCloseCount() != 1 {
		t.Errorf("second closeable should be closed once, got %d", second.getCloseCount())
	}

	// Second Close is a no-op
	if err := app.Close(); err != nil {
		t.Errorf("second Close should return nil, got: %v", err)
	}
	if first.getCloseCount() != 1 {
		t.Error("closeables should not be closed twice")
	}
}

func TestApp_Initialize_AfterCloseFails(t *testing.T) {
	app, err := New(memoryConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := app.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := app.Initialize(context.Background()); err == nil {
		t.Error("Initialize should fail on a closed container")
	}
}

func TestThresholdConfigConversion(t *testing.T) {
	got := thresholdConfig(config.ThresholdsConfig{Percent: 0.1, Absolute: 250, Mode: "AND"})

	if got.PercentThreshold != 0.1 {
		t.Errorf("PercentThreshold = %v, want 0.1", got.PercentThreshold)
	}
	if got.AbsoluteThreshold != 250 {
		t.Errorf("AbsoluteThreshold = %v, want 250", got.AbsoluteThreshold)
	}
	if got.Mode != threshold.ModeAnd {
		t.Errorf("Mode = %v, want AND", got.Mode)
	}
}

func TestPolicyConversionFallsBackToDefaults(t *testing.T) {
	if approvalPolicy("dual") != threshold.PolicyDual {
		t.Error("dual should map to PolicyDual")
	}
	if approvalPolicy("") != threshold.PolicyBanded {
		t.Error("empty policy should fall back to banded")
	}
	if levelPolicy("any") != approval.LevelPolicyAny {
		t.Error("any should map to LevelPolicyAny")
	}
	if levelPolicy("nonsense") != approval.LevelPolicyAll {
		t.Error("unknown level policy should fall back to all")
	}
}

func TestApproverLaddersConversion(t *testing.T) {
	ladders, err := approverLadders(map[string][]config.ApproverConfig{
		"rma": {
			{ID: "mgr-1", Name: "Mei Tanaka", Role: "manager", Level: 1},
			{ID: "dir-1", Name: "Dana Ortiz", Role: "director", Level: 2},
		},
	})
	if err != nil {
		t.Fatalf("approverLadders failed: %v", err)
	}

	ladder := ladders["rma"]
	if len(ladder) != 2 {
		t.Fatalf("ladder length = %d, want 2", len(ladder))
	}
	if ladder[0].ID != "mgr-1" || ladder[0].Level != 1 {
		t.Errorf("ladder[0] = %+v, want mgr-1 at level 1", ladder[0])
	}
	if ladder[1].Role != "director" {
		t.Errorf("ladder[1].Role = %q, want director", ladder[1].Role)
	}
}

func TestResilienceConfigConversion(t *testing.T) {
	got := resilienceConfig(config.PendingConfig{
		RetryAttempts:      2,
		RetryInitialWait:   50 * time.Millisecond,
		RetryMaxWait:       time.Second,
		BreakerEnabled:     true,
		BreakerThreshold:   4,
		BreakerTimeout:     10 * time.Second,
		BreakerMaxRequests: 1,
	})

	if got.RetryAttempts != 2 {
		t.Errorf("RetryAttempts = %d, want 2", got.RetryAttempts)
	}
	if got.RetryInitialWait != 50*time.Millisecond {
		t.Errorf("RetryInitialWait = %v, want 50ms", got.RetryInitialWait)
	}
	if !got.BreakerEnabled || got.BreakerThreshold != 4 {
		t.Errorf("breaker settings not carried over: %+v", got)
	}
}
