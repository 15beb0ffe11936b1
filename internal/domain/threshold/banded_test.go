package threshold

import "testing"

func TestTierForPercent(t *testing.T) {
	tests := []struct {
		percent float64
		want    Tier
	}{
		{0, TierNone},
		{0.019, TierNone},
		{0.02, TierManager},
		{0.035, TierManager},
		{0.049, TierManager},
		{0.05, TierDirector},
		{0.08, TierDirector},
		{0.099, TierDirector},
		{0.10, TierExecutive},
		{0.5, TierExecutive},
		{1.0, TierExecutive},
		{-0.06, TierDirector}, // magnitude decides
		{-0.25, TierExecutive},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			if got := TierForPercent(tt.percent); got != tt.want {
				t.Errorf("TierForPercent(%v) = %v, want %v", tt.percent, got, tt.want)
			}
		})
	}
}

func TestRequiresFinancialApproval(t *testing.T) {
	tests := []struct {
		name     string
		original float64
		new      float64
		percent  float64
		change   float64
		tier     Tier
		required bool
	}{
		{
			name:     "under the manager band",
			original: 1000,
			new:      1010,
			percent:  0.01,
			change:   10,
			tier:     TierNone,
			required: false,
		},
		{
			name:     "manager band",
			original: 1000,
			new:      1030,
			percent:  0.03,
			change:   30,
			tier:     TierManager,
			required: true,
		},
		{
			name:     "director band",
			original: 1000,
			new:      1060,
			percent:  0.06,
			change:   60,
			tier:     TierDirector,
			required: true,
		},
		{
			name:     "executive band",
			original: 1000,
			new:      1150,
			percent:  0.15,
			change:   150,
			tier:     TierExecutive,
			required: true,
		},
		{
			name:     "decrease escalates by magnitude",
			original: 1000,
			new:      880,
			percent:  -0.12,
			change:   -120,
			tier:     TierExecutive,
			required: true,
		},
		{
			name:     "zero original with non-zero new is a full change",
			original: 0,
			new:      500,
			percent:  1.0,
			change:   500,
			tier:     TierExecutive,
			required: true,
		},
		{
			name:     "zero original and zero new is no change",
			original: 0,
			new:      0,
			percent:  0,
			change:   0,
			tier:     TierNone,
			required: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := RequiresFinancialApproval(tt.original, tt.new)
			if r.PercentChange != tt.percent {
				t.Errorf("PercentChange = %v, want %v", r.PercentChange, tt.percent)
			}
			if r.ChangeAmount != tt.change {
				t.Errorf("ChangeAmount = %v, want %v", r.ChangeAmount, tt.change)
			}
			if r.Tier != tt.tier {
				t.Errorf("Tier = %v, want %v", r.Tier, tt.tier)
			}
			if r.RequiresApproval != tt.required {
				t.Errorf("RequiresApproval = %v, want %v", r.RequiresApproval, tt.required)
			}
		})
	}
}

func TestTier_Rank(t *testing.T) {
	tests := []struct {
		tier Tier
		want int
	}{
		{TierNone, 0},
		{TierManager, 1},
		{TierDirector, 2},
		{TierExecutive, 3},
		{Tier("bogus"), 0},
	}

	for _, tt := range tests {
		if got := tt.tier.Rank(); got != tt.want {
			t.Errorf("Rank(%v) = %d, want %d", tt.tier, got, tt.want)
		}
	}
}

func TestTier_IsValid(t *testing.T) {
	for _, tier := range []Tier{TierNone, TierManager, TierDirector, TierExecutive} {
		if !tier.IsValid() {
			t.Errorf("IsValid() = false for %s, want true", tier)
		}
	}
	if Tier("vp").IsValid() || Tier("").IsValid() {
		t.Error("IsValid() = true for an unknown tier, want false")
	}
}
