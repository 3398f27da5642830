// Package policy evaluates tenant policies against an authorization
// candidate. It is pure: callers load policies and supply the clock.
package policy

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aussiebroadwan/agentgrant/internal/auth/domain"
)

// Candidate is the (agent, principal, scopes) tuple being authorized.
type Candidate struct {
	AgentID     string
	PrincipalID string
	Scopes      []string
}

// Decision is the outcome of evaluation. A nil Policy means no policy
// matched, which callers treat as "ask the principal".
type Decision struct {
	Policy *domain.Policy
}

// Matched reports whether any policy matched.
func (d Decision) Matched() bool { return d.Policy != nil }

// Allow reports whether the first matching policy allows.
func (d Decision) Allow() bool { return d.Matched() && d.Policy.Effect == domain.EffectAllow }

// Deny reports whether the first matching policy denies.
func (d Decision) Deny() bool { return d.Matched() && d.Policy.Effect == domain.EffectDeny }

// Sort orders policies for evaluation: priority descending, older first on
// ties. Stores already return this order; Sort exists for callers that
// assemble lists themselves.
func Sort(policies []domain.Policy) {
	slices.SortStableFunc(policies, func(a, b domain.Policy) int {
		if a.Priority != b.Priority {
			return b.Priority - a.Priority
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

// Evaluate walks policies in the order given and returns the first match.
func Evaluate(policies []domain.Policy, c Candidate, now time.Time) Decision {
	clock := now.UTC().Format("15:04")
	for i := range policies {
		if matches(&policies[i], c, clock) {
			return Decision{Policy: &policies[i]}
		}
	}
	return Decision{}
}

func matches(p *domain.Policy, c Candidate, clock string) bool {
	if p.AgentID != nil && *p.AgentID != c.AgentID {
		return false
	}
	if p.PrincipalID != nil && *p.PrincipalID != c.PrincipalID {
		return false
	}

	// The policy's scope set must be contained in the requested scopes.
	if p.Scopes != nil {
		for _, s := range p.Scopes {
			if !slices.Contains(c.Scopes, s) {
				return false
			}
		}
	}

	if p.TimeStart != nil && p.TimeEnd != nil {
		if !InWindow(clock, *p.TimeStart, *p.TimeEnd) {
			return false
		}
	}
	return true
}

// InWindow reports whether clock falls in [start, end). A window whose start
// is after its end wraps past midnight. All values are zero-padded "HH:MM",
// so string comparison is time comparison.
func InWindow(clock, start, end string) bool {
	if start <= end {
		return clock >= start && clock < end
	}
	return clock >= start || clock < end
}

var ErrInvalidWindow = errors.New("policy: invalid time window")

// ValidateWindow checks a pair of window bounds. Both must be set or both
// unset, and each must be a valid 24h "HH:MM".
func ValidateWindow(start, end *string) error {
	if (start == nil) != (end == nil) {
		return fmt.Errorf("%w: timeOfDayStart and timeOfDayEnd must be set together", ErrInvalidWindow)
	}
	if start == nil {
		return nil
	}
	for _, v := range []string{*start, *end} {
		if len(v) != 5 {
			return fmt.Errorf("%w: %q is not HH:MM", ErrInvalidWindow, v)
		}
		if _, err := time.Parse("15:04", v); err != nil {
			return fmt.Errorf("%w: %q is not HH:MM", ErrInvalidWindow, v)
		}
	}
	return nil
}
