package threshold

import "math"

// Tier is the escalation level the banded policy assigns to a change.
type Tier string

const (
	// TierNone requires no approval (change under 2%).
	TierNone Tier = "none"
	// TierManager covers changes of 2% up to 5%.
	TierManager Tier = "manager"
	// TierDirector covers changes of 5% up to 10%.
	TierDirector Tier = "director"
	// TierExecutive covers changes of 10% and above.
	TierExecutive Tier = "executive"
)

// Band boundaries for the tiered policy, as fractions.
const (
	managerBand   = 0.02
	directorBand  = 0.05
	executiveBand = 0.10
)

// String returns the tier name.
func (t Tier) String() string {
	return string(t)
}

// IsValid returns true if the tier is recognized.
func (t Tier) IsValid() bool {
	switch t {
	case TierNone, TierManager, TierDirector, TierExecutive:
		return true
	default:
		return false
	}
}

// Rank orders tiers by escalation: none is 0, executive is 3. The rank
// doubles as the approval level a chain builder assigns to the tier.
func (t Tier) Rank() int {
	switch t {
	case TierManager:
		return 1
	case TierDirector:
		return 2
	case TierExecutive:
		return 3
	default:
		return 0
	}
}

// TierForPercent classifies a change fraction into an approval tier.
// Magnitude decides: a 6% decrease escalates like a 6% increase.
func TierForPercent(percent float64) Tier {
	p := math.Abs(percent)
	switch {
	case p >= executiveBand:
		return TierExecutive
	case p >= directorBand:
		return TierDirector
	case p >= managerBand:
		return TierManager
	default:
		return TierNone
	}
}

// Requirement is the banded policy's verdict for one change of totals.
type Requirement struct {
	OriginalTotal    float64 `json:"original_total"`
	NewTotal         float64 `json:"new_total"`
	ChangeAmount     float64 `json:"change_amount"`
	PercentChange    float64 `json:"percent_change"`
	Tier             Tier    `json:"tier"`
	RequiresApproval bool    `json:"requires_approval"`
}

// RequiresFinancialApproval classifies a change of totals under the banded
// policy. A zero original total counts as a 100% change when the new total
// is non-zero and a 0% change otherwise.
func RequiresFinancialApproval(originalTotal, newTotal float64) Requirement {
	r := Requirement{
		OriginalTotal: originalTotal,
		NewTotal:      newTotal,
		ChangeAmount:  newTotal - originalTotal,
	}
	switch {
	case originalTotal != 0:
		r.PercentChange = r.ChangeAmount / originalTotal
	case newTotal != 0:
		r.PercentChange = 1.0
	}
	r.Tier = TierForPercent(r.PercentChange)
	r.RequiresApproval = r.Tier != TierNone
	return r
}
