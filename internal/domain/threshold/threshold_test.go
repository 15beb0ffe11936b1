// Package threshold provides tests for the approval threshold policies.
package threshold

import "testing"

func TestCostDelta_ORMode(t *testing.T) {
	cfg := Config{PercentThreshold: 0.05, AbsoluteThreshold: 500, Mode: ModeOr}

	d := CostDelta(1000, 1060, cfg)
	if d.Delta != 60 {
		t.Errorf("Delta = %v, want 60", d.Delta)
	}
	if d.PercentChange != 0.06 {
		t.Errorf("PercentChange = %v, want 0.06", d.PercentChange)
	}
	// Percent exceeds 5% even though $60 is under the $500 absolute limit.
	if !d.ExceedsThreshold {
		t.Error("ExceedsThreshold = false, want true in OR mode")
	}
}

func TestCostDelta_ANDMode(t *testing.T) {
	cfg := Config{PercentThreshold: 0.05, AbsoluteThreshold: 500, Mode: ModeAnd}

	d := CostDelta(1000, 1060, cfg)
	if d.ExceedsThreshold {
		t.Error("ExceedsThreshold = true, want false in AND mode ($60 < $500)")
	}

	both := CostDelta(1000, 1600, cfg)
	if !both.ExceedsThreshold {
		t.Error("ExceedsThreshold = false, want true when both limits are reached")
	}
}

func TestCostDelta_ZeroOriginalCost(t *testing.T) {
	d := CostDelta(0, 500, DefaultConfig())
	if d.PercentChange != 0 {
		t.Errorf("PercentChange = %v, want 0 for zero original cost", d.PercentChange)
	}
	// The absolute arm still applies: $500 >= $500.
	if !d.ExceedsThreshold {
		t.Error("ExceedsThreshold = false, want true via absolute limit")
	}

	and := CostDelta(0, 500, Config{PercentThreshold: 0.05, AbsoluteThreshold: 500, Mode: ModeAnd})
	if and.ExceedsThreshold {
		t.Error("ExceedsThreshold = true in AND mode, want false (percent arm is 0)")
	}
}

func TestCostDelta_Table(t *testing.T) {
	tests := []struct {
		name     string
		original float64
		new      float64
		cfg      Config
		delta    float64
		percent  float64
		exceeds  bool
	}{
		{
			name:     "unchanged total",
			original: 1000,
			new:      1000,
			cfg:      DefaultConfig(),
			delta:    0,
			percent:  0,
			exceeds:  false,
		},
		{
			name:     "small change under both limits",
			original: 1000,
			new:      1030,
			cfg:      DefaultConfig(),
			delta:    30,
			percent:  0.03,
			exceeds:  false,
		},
		{
			name:     "decrease gates by magnitude",
			original: 1000,
			new:      940,
			cfg:      DefaultConfig(),
			delta:    -60,
			percent:  -0.06,
			exceeds:  true,
		},
		{
			name:     "absolute limit alone trips OR",
			original: 100000,
			new:      100600,
			cfg:      DefaultConfig(),
			delta:    600,
			percent:  0.006,
			exceeds:  true,
		},
		{
			name:     "empty mode evaluates as OR",
			original: 1000,
			new:      1060,
			cfg:      Config{PercentThreshold: 0.05, AbsoluteThreshold: 500},
			delta:    60,
			percent:  0.06,
			exceeds:  true,
		},
		{
			name:     "exactly at percent limit",
			original: 1000,
			new:      1050,
			cfg:      DefaultConfig(),
			delta:    50,
			percent:  0.05,
			exceeds:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CostDelta(tt.original, tt.new, tt.cfg)
			if d.Delta != tt.delta {
				t.Errorf("Delta = %v, want %v", d.Delta, tt.delta)
			}
			if d.PercentChange != tt.percent {
				t.Errorf("PercentChange = %v, want %v", d.PercentChange, tt.percent)
			}
			if d.ExceedsThreshold != tt.exceeds {
				t.Errorf("ExceedsThreshold = %v, want %v", d.ExceedsThreshold, tt.exceeds)
			}
		})
	}
}

func TestCostDelta_Deterministic(t *testing.T) {
	cfg := DefaultConfig()
	first := CostDelta(1234.56, 1399.99, cfg)
	second := CostDelta(1234.56, 1399.99, cfg)
	if first != second {
		t.Errorf("repeated CostDelta() differs: %+v vs %+v", first, second)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.PercentThreshold != 0.05 {
		t.Errorf("PercentThreshold = %v, want 0.05", cfg.PercentThreshold)
	}
	if cfg.AbsoluteThreshold != 500 {
		t.Errorf("AbsoluteThreshold = %v, want 500", cfg.AbsoluteThreshold)
	}
	if cfg.Mode != ModeOr {
		t.Errorf("Mode = %v, want OR", cfg.Mode)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"empty mode", Config{PercentThreshold: 0.1, AbsoluteThreshold: 100}, false},
		{"zero thresholds", Config{Mode: ModeAnd}, false},
		{"negative percent", Config{PercentThreshold: -0.01, Mode: ModeOr}, true},
		{"negative absolute", Config{AbsoluteThreshold: -1, Mode: ModeOr}, true},
		{"unknown mode", Config{Mode: "XOR"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMode_IsValid(t *testing.T) {
	if !ModeOr.IsValid() || !ModeAnd.IsValid() {
		t.Error("IsValid() = false for a declared mode, want true")
	}
	if Mode("XOR").IsValid() || Mode("").IsValid() {
		t.Error("IsValid() = true for an unknown mode, want false")
	}
}

func TestPolicy_IsValid(t *testing.T) {
	if !PolicyDual.IsValid() || !PolicyBanded.IsValid() {
		t.Error("IsValid() = false for a declared policy, want true")
	}
	if Policy("hybrid").IsValid() {
		t.Error("IsValid() = true for an unknown policy, want false")
	}
}
