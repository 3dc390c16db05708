package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "whsec_test"
	service := NewSignatureService("", "key", "token", secret)
	body := []byte(`{"depositId":"dep-1","status":"COMPLETED"}`)

	t.Run("valid signature passes", func(t *testing.T) {
		assert.True(t, service.VerifyWebhookSignature(body, signBody(secret, body), ""))
	})

	t.Run("tampered body fails", func(t *testing.T) {
		tampered := []byte(`{"depositId":"dep-1","status":"FAILED"}`)
		assert.False(t, service.VerifyWebhookSignature(tampered, signBody(secret, body), ""))
	})

	t.Run("missing signature fails", func(t *testing.T) {
		assert.False(t, service.VerifyWebhookSignature(body, "", ""))
	})

	t.Run("fresh timestamp passes", func(t *testing.T) {
		ts := time.Now().Format(time.RFC3339)
		assert.True(t, service.VerifyWebhookSignature(body, signBody(secret, body), ts))
	})

	t.Run("stale timestamp fails even with a valid signature", func(t *testing.T) {
		ts := time.Now().Add(-10 * time.Minute).Format(time.RFC3339)
		assert.False(t, service.VerifyWebhookSignature(body, signBody(secret, body), ts))
	})

	t.Run("verification is skipped without a configured secret", func(t *testing.T) {
		open := NewSignatureService("", "key", "token", "")
		assert.True(t, open.VerifyWebhookSignature(body, "", ""))
	})
}
