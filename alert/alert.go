// Package alert turns raised errors into chat-ops alerts.
//
// It decides whether an error is worth reporting against a SuppressionPolicy,
// strips the application base path and third-party dependency frames from the
// stack trace, and renders a bounded, human-readable Alert. Delivery of the
// rendered text is left to the caller (see the sink and reporter packages).
//
// Everything in this package is synchronous and free of shared mutable state.
package alert

import "strings"

// Severity distinguishes the two places an error can be reported from.
type Severity int

const (
	// Background is used from global hooks and background jobs.
	// Alerts get the ambient mention and plain text.
	Background Severity = iota
	// InRequest is used from the request render path.
	// Alerts get the broadcast mention and code-formatted message and trace.
	InRequest
)

// String returns the lower-case name of the severity.
func (s Severity) String() string {
	switch s {
	case Background:
		return "background"
	case InRequest:
		return "in_request"
	default:
		return "unknown"
	}
}

// Outcome is the result of running an error through the policy.
type Outcome int

const (
	// Suppressed means the error kind matched the policy and no alert was built.
	Suppressed Outcome = iota
	// Reported means an alert was built and handed to a sink.
	Reported
)

// String returns the lower-case name of the outcome.
func (o Outcome) String() string {
	if o == Reported {
		return "reported"
	}
	return "suppressed"
}

// Alert is a rendered alert ready for delivery.
// It has no identity beyond the single delivery attempt and is never persisted.
type Alert struct {
	HeaderMention string
	Message       string
	Location      string
	Trace         string
}

// Text joins the alert into a single text payload for a chat channel.
// Empty sections are left out.
func (a Alert) Text() string {
	var b strings.Builder

	if a.HeaderMention != "" {
		b.WriteString(a.HeaderMention)
		b.WriteByte('\n')
	}
	if a.Message != "" {
		b.WriteString("**Error:** ")
		b.WriteString(a.Message)
		b.WriteByte('\n')
	}
	if a.Location != "" {
		b.WriteString("**Location:** ")
		b.WriteString(a.Location)
		b.WriteByte('\n')
	}
	if a.Trace != "" {
		b.WriteString("**Trace:**\n")
		b.WriteString(a.Trace)
		b.WriteByte('\n')
	}

	return strings.TrimSuffix(b.String(), "\n")
}
