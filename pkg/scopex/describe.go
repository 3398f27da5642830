package scopex

import "fmt"

var descriptions = map[string]string{
	"calendar:read":     "Read your calendar events",
	"calendar:write":    "Create, modify, and delete your calendar events",
	"email:read":        "Read your email messages",
	"email:send":        "Send emails on your behalf",
	"email:delete":      "Delete your email messages",
	"files:read":        "Read your files and documents",
	"files:write":       "Create and modify your files",
	"payments:read":     "View your payment history and balances",
	"payments:initiate": "Initiate payments of any amount",
	"profile:read":      "Read your profile and identity information",
	"contacts:read":     "Read your address book and contacts",
}

// Describe returns a human readable sentence for the consent screen. Unknown
// scopes are returned unchanged.
func Describe(scope string) string {
	if d, ok := descriptions[scope]; ok {
		return d
	}

	p := Parse(scope)
	if p.Constraint == nil {
		return scope
	}

	base, ok := descriptions[p.Base]
	if !ok {
		base = p.Base
	}
	switch p.Constraint.Kind {
	case Min:
		return fmt.Sprintf("%s (at least %d)", base, p.Constraint.Value)
	case Limit:
		return fmt.Sprintf("%s (limit %d)", base, p.Constraint.Value)
	default:
		if p.Base == "payments:initiate" {
			return fmt.Sprintf("Initiate payments up to %d in your account's base currency", p.Constraint.Value)
		}
		return fmt.Sprintf("%s (up to %d)", base, p.Constraint.Value)
	}
}

// DescribeAll maps every scope to its description.
func DescribeAll(scopes []string) map[string]string {
	out := make(map[string]string, len(scopes))
	for _, s := range scopes {
		out[s] = Describe(s)
	}
	return out
}
