// Package scopex implements the scope model shared by the control plane and
// resource adapters. A scope is a colon-delimited capability string such as
// "calendar:read". Its last segment may carry a numeric constraint
// ("payments:initiate:max_500"), which applies to the scope with that
// segment removed.
package scopex

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ConstraintKind is the operator of a numeric constraint suffix.
type ConstraintKind string

const (
	// Max rejects values above the bound.
	Max ConstraintKind = "max"
	// Min rejects values below the bound.
	Min ConstraintKind = "min"
	// Limit behaves like Max; kept as a separate spelling for quota style scopes.
	Limit ConstraintKind = "limit"
)

var constraintPattern = regexp.MustCompile(`^(max|min|limit)_(\d+)$`)

// ErrScopeMissing is returned when no granted scope covers the requirement.
var ErrScopeMissing = errors.New("scopex: required scope not granted")

// Constraint is a numeric bound parsed from a scope suffix.
type Constraint struct {
	Kind  ConstraintKind `json:"type"`
	Value int64          `json:"value"`
}

// Scope is a parsed scope string.
type Scope struct {
	Raw        string      `json:"scope"`
	Base       string      `json:"baseScope"`
	Constraint *Constraint `json:"constraint,omitempty"`
}

// ConstraintError reports a value outside a scope's declared bound.
type ConstraintError struct {
	Scope     string
	Kind      ConstraintKind
	Requested float64
	Allowed   int64
}

func (e *ConstraintError) Error() string {
	switch e.Kind {
	case Min:
		return fmt.Sprintf("requested value %s is below the minimum %d allowed by scope %s",
			formatValue(e.Requested), e.Allowed, e.Scope)
	case Limit:
		return fmt.Sprintf("requested value %s exceeds the limit %d allowed by scope %s",
			formatValue(e.Requested), e.Allowed, e.Scope)
	default:
		return fmt.Sprintf("requested value %s exceeds the maximum %d allowed by scope %s",
			formatValue(e.Requested), e.Allowed, e.Scope)
	}
}

// Parse splits a scope into its base and optional constraint. A single
// segment scope never carries a constraint.
func Parse(scope string) Scope {
	out := Scope{Raw: scope, Base: scope}

	i := strings.LastIndexByte(scope, ':')
	if i <= 0 {
		return out
	}

	m := constraintPattern.FindStringSubmatch(scope[i+1:])
	if m == nil {
		return out
	}

	n, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		// Digits that overflow int64 are not a usable bound.
		return out
	}

	out.Base = scope[:i]
	out.Constraint = &Constraint{Kind: ConstraintKind(m[1]), Value: n}
	return out
}

// FindMatch returns the granted scope that covers required. An unconstrained
// exact match is preferred over a constrained scope on the same base, since it
// grants strictly more. required is compared on its base form.
func FindMatch(granted []string, required string) (Scope, bool) {
	want := Parse(required).Base

	var constrained *Scope
	for _, g := range granted {
		p := Parse(g)
		if p.Base != want {
			continue
		}
		if p.Constraint == nil {
			return p, true
		}
		if constrained == nil {
			constrained = &p
		}
	}

	if constrained != nil {
		return *constrained, true
	}
	return Scope{}, false
}

// Allows reports whether value satisfies the scope's constraint. A scope
// without a constraint allows any value.
func (s Scope) Allows(value float64) error {
	c := s.Constraint
	if c == nil {
		return nil
	}

	bound := float64(c.Value)
	switch c.Kind {
	case Min:
		if value < bound {
			return &ConstraintError{Scope: s.Raw, Kind: c.Kind, Requested: value, Allowed: c.Value}
		}
	default:
		if value > bound {
			return &ConstraintError{Scope: s.Raw, Kind: c.Kind, Requested: value, Allowed: c.Value}
		}
	}
	return nil
}

// Enforce locates the scope covering required and checks value against it.
// A nil value skips the constraint check.
func Enforce(granted []string, required string, value *float64) (Scope, error) {
	s, ok := FindMatch(granted, required)
	if !ok {
		return Scope{}, fmt.Errorf("%w: %s", ErrScopeMissing, required)
	}
	if value == nil {
		return s, nil
	}
	if err := s.Allows(*value); err != nil {
		return s, err
	}
	return s, nil
}

// Excess returns the members of requested that are not in allowed, keeping
// the order of requested and dropping duplicates. Comparison is exact.
func Excess(requested, allowed []string) []string {
	have := make(map[string]struct{}, len(allowed))
	for _, s := range allowed {
		have[s] = struct{}{}
	}

	var out []string
	seen := make(map[string]struct{}, len(requested))
	for _, s := range requested {
		if _, ok := have[s]; ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// IsSubset reports whether every member of sub is in super.
func IsSubset(sub, super []string) bool {
	return len(Excess(sub, super)) == 0
}

// Covered returns the members of requested that no declared scope covers.
// A declared scope covers a requested scope when they are equal, or when the
// declared scope is unconstrained and shares the requested scope's base.
func Covered(requested, declared []string) []string {
	var out []string
	for _, r := range requested {
		rp := Parse(r)
		ok := false
		for _, d := range declared {
			if d == r {
				ok = true
				break
			}
			if dp := Parse(d); dp.Constraint == nil && dp.Base == rp.Base {
				ok = true
				break
			}
		}
		if !ok {
			out = append(out, r)
		}
	}
	return out
}

// Normalize trims each scope and drops empties and duplicates, keeping order.
func Normalize(scopes []string) []string {
	out := make([]string, 0, len(scopes))
	seen := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Valid reports whether s is usable as a scope: non-empty with no whitespace
// and no empty segments.
func Valid(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	for _, seg := range strings.Split(s, ":") {
		if seg == "" {
			return false
		}
	}
	return true
}
