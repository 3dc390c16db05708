package payments

import "strings"

// Provider transaction statuses, normalized to lower case. PENDING and
// ACCEPTED are the only non-terminal states.
const (
	StatusPending          = "pending"
	StatusAccepted         = "accepted"
	StatusCompleted        = "completed"
	StatusFailed           = "failed"
	StatusRejected         = "rejected"
	StatusDuplicateIgnored = "duplicate_ignored"
)

const (
	EventTypeDeposit = "deposit"
	EventTypePayout  = "payout"
	EventTypeRefund  = "refund"
)

const ProviderTypePawaPay = "pawapay"

// NormalizeProviderStatus is the single authoritative mapping from the
// provider's status vocabulary to ours. Every reconciliation mutation must go
// through it. SUBMITTED is treated as ACCEPTED (in flight, not yet terminal);
// only COMPLETED ever marks an installment paid.
func NormalizeProviderStatus(raw string) string {
	status := strings.ToLower(strings.TrimSpace(raw))

	switch status {
	case "submitted":
		return StatusAccepted
	case StatusPending, StatusAccepted, StatusCompleted, StatusFailed, StatusRejected, StatusDuplicateIgnored:
		return status
	}

	// Unknown vocabulary stays as-is so the engine treats it as non-terminal
	// rather than guessing a terminal outcome.
	return status
}

// IsTerminalStatus reports whether no further transition can occur.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusRejected, StatusDuplicateIgnored:
		return true
	}
	return false
}
