package fsm

import "fmt"

// Guard kinds form a closed set. Custom behavior is injected as a named
// predicate rather than discovered via reflection.
const (
	GuardKindPermission = "permission"
	GuardKindPredicate  = "predicate"
	GuardKindThreshold  = "threshold"
)

// Payload carries the caller-supplied context a guard or hook may consult.
// Guards must base their verdict only on the instance and the payload so
// that evaluation stays deterministic.
type Payload struct {
	// Actor is the principal attempting the action, recorded in history.
	Actor string
	// Permissions are the actor's granted permissions.
	Permissions []string
	// Notes is free-form text recorded on the history entry.
	Notes string
	// Data is arbitrary structured context (amounts, field lists, flags).
	Data map[string]any
}

// Permission reports whether the payload carries the given permission.
func (p Payload) Permission(perm string) bool {
	for _, have := range p.Permissions {
		if have == perm {
			return true
		}
	}
	return false
}

// Float reads a numeric payload value, tolerating int and float encodings.
func (p Payload) Float(key string) (float64, bool) {
	v, ok := p.Data[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Verdict is the outcome of a guard evaluation or a pre-flight check.
// Expected failures are values: a denied verdict carries a caller-facing
// reason instead of raising an error.
type Verdict struct {
	Allowed bool
	Reason  string
}

// Allow returns an allowing verdict.
func Allow() Verdict {
	return Verdict{Allowed: true}
}

// Deny returns a denying verdict with a caller-facing reason.
func Deny(reason string) Verdict {
	return Verdict{Allowed: false, Reason: reason}
}

// Guard gates a transition. Implementations must be pure: same instance and
// payload, same verdict.
type Guard interface {
	// Kind returns the guard's kind from the closed set above.
	Kind() string
	// Evaluate returns whether the transition may fire.
	Evaluate(inst Instance, p Payload) Verdict
}

// PermissionGuard allows a transition only when the payload carries every
// required permission.
type PermissionGuard struct {
	Required []string
}

// Kind implements Guard.
func (g PermissionGuard) Kind() string { return GuardKindPermission }

// Evaluate implements Guard.
func (g PermissionGuard) Evaluate(_ Instance, p Payload) Verdict {
	for _, perm := range g.Required {
		if !p.Permission(perm) {
			return Deny(fmt.Sprintf("missing required permission %q", perm))
		}
	}
	return Allow()
}

// Predicate is an injected guard function.
type Predicate func(inst Instance, p Payload) Verdict

// PredicateGuard wraps a named predicate function as a guard. The name is
// what definition files and exports refer to.
type PredicateGuard struct {
	Name string
	Fn   Predicate
}

// Kind implements Guard.
func (g PredicateGuard) Kind() string { return GuardKindPredicate }

// Evaluate implements Guard.
func (g PredicateGuard) Evaluate(inst Instance, p Payload) Verdict {
	if g.Fn == nil {
		return Deny(fmt.Sprintf("predicate %q is not bound", g.Name))
	}
	return g.Fn(inst, p)
}

// guardLabel names a guard for exports and denial reasons.
func guardLabel(g Guard) string {
	if pg, ok := g.(PredicateGuard); ok && pg.Name != "" {
		return pg.Name
	}
	return g.Kind()
}
