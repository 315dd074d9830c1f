package alert

import "github.com/code19m/errx"

// KindHTTP is the kind of generic HTTP errors raised by the web framework
// itself (bad method, malformed request and the like).
const KindHTTP = "http"

// DefaultSuppressedKinds returns the kinds that are never worth an alert:
// authentication and authorization failures, generic HTTP errors,
// not-found and validation errors.
func DefaultSuppressedKinds() []string {
	return []string{
		errx.T_Authentication.String(),
		errx.T_Forbidden.String(),
		KindHTTP,
		errx.T_NotFound.String(),
		errx.T_Validation.String(),
	}
}

// SuppressionPolicy is the set of error kinds that must never be reported.
// The zero value suppresses nothing. A policy is read-only after construction
// and safe for concurrent use.
type SuppressionPolicy struct {
	kinds map[string]struct{}
}

// NewPolicy creates a policy suppressing the given kinds.
// Empty kinds are ignored.
func NewPolicy(kinds ...string) SuppressionPolicy {
	set := make(map[string]struct{}, len(kinds))
	for _, k := range kinds {
		if k == "" {
			continue
		}
		set[k] = struct{}{}
	}
	return SuppressionPolicy{kinds: set}
}

// PolicyFromConfig builds the policy from a configured kind list.
// A nil list (key absent from the config) falls back to DefaultSuppressedKinds,
// an explicit empty list reports everything.
func PolicyFromConfig(kinds []string) SuppressionPolicy {
	if kinds == nil {
		return NewPolicy(DefaultSuppressedKinds()...)
	}
	return NewPolicy(kinds...)
}

// Suppresses reports whether errors of the given kind must not be reported.
func (p SuppressionPolicy) Suppresses(kind string) bool {
	_, ok := p.kinds[kind]
	return ok
}

// Kinds returns the suppressed kinds in no particular order.
func (p SuppressionPolicy) Kinds() []string {
	out := make([]string, 0, len(p.kinds))
	for k := range p.kinds {
		out = append(out, k)
	}
	return out
}
