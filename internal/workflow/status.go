// Package workflow holds the payment request approval rules: the closed
// status and action sets, privilege checks and the transition table.
package workflow

import "strings"

// Status is the lifecycle state of a payment request.
type Status string

const (
	StatusPendingReview      Status = "Pending Review"
	StatusApproved           Status = "Approved"
	StatusRejected           Status = "Rejected"
	StatusReturned           Status = "Returned"
	StatusApprovedForPayment Status = "Approved for Payment"
	StatusPaid               Status = "Paid"
)

var knownStatuses = []Status{
	StatusPendingReview,
	StatusApproved,
	StatusRejected,
	StatusReturned,
	StatusApprovedForPayment,
	StatusPaid,
}

// statusAliases covers labels that older records were written with.
var statusAliases = map[string]Status{
	"pending":                 StatusPendingReview,
	"under review":            StatusPendingReview,
	"returned for correction": StatusReturned,
	"ready for payment":       StatusApprovedForPayment,
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// ParseStatus maps free text onto a known status ignoring case and
// separators. Unknown text is returned trimmed with ok=false so it can still
// be shown verbatim.
func ParseStatus(raw string) (Status, bool) {
	key := normalizeLabel(raw)
	for _, s := range knownStatuses {
		if normalizeLabel(string(s)) == key {
			return s, true
		}
	}
	if s, ok := statusAliases[key]; ok {
		return s, true
	}
	return Status(strings.TrimSpace(raw)), false
}

// Known reports whether s is one of the canonical statuses.
func (s Status) Known() bool {
	for _, k := range knownStatuses {
		if s == k {
			return true
		}
	}
	return false
}

// ReadOnly reports whether no workflow action can move a request out of s.
func (s Status) ReadOnly() bool {
	switch s {
	case StatusPendingReview, StatusReturned, StatusApprovedForPayment:
		return false
	default:
		return true
	}
}

// KnownStatuses returns the canonical statuses in workflow order.
func KnownStatuses() []Status {
	out := make([]Status, len(knownStatuses))
	copy(out, knownStatuses)
	return out
}
