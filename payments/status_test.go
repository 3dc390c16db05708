package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeProviderStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"COMPLETED", StatusCompleted},
		{"completed", StatusCompleted},
		{" Completed ", StatusCompleted},
		{"SUBMITTED", StatusAccepted},
		{"submitted", StatusAccepted},
		{"ACCEPTED", StatusAccepted},
		{"PENDING", StatusPending},
		{"FAILED", StatusFailed},
		{"REJECTED", StatusRejected},
		{"DUPLICATE_IGNORED", StatusDuplicateIgnored},
		{"ENQUEUED", "enqueued"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeProviderStatus(tt.raw), "raw=%q", tt.raw)
	}
}

func TestIsTerminalStatus(t *testing.T) {
	assert.True(t, IsTerminalStatus(StatusCompleted))
	assert.True(t, IsTerminalStatus(StatusFailed))
	assert.True(t, IsTerminalStatus(StatusRejected))
	assert.True(t, IsTerminalStatus(StatusDuplicateIgnored))

	assert.False(t, IsTerminalStatus(StatusPending))
	assert.False(t, IsTerminalStatus(StatusAccepted))
	assert.False(t, IsTerminalStatus("enqueued"))
}
