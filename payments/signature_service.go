package payments

import (
	"crypto"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

// SignatureService signs outbound provider requests with an RSA private key
// when one is configured and falls back to plain token auth otherwise. It
// also verifies the authenticity of inbound webhooks.
type SignatureService struct {
	privateKey    *rsa.PrivateKey
	apiKey        string
	apiToken      string
	webhookSecret string
}

func NewSignatureService(privateKeyPath, apiKey, apiToken, webhookSecret string) *SignatureService {
	s := &SignatureService{
		apiKey:        apiKey,
		apiToken:      apiToken,
		webhookSecret: webhookSecret,
	}

	if privateKeyPath == "" {
		return s
	}

	keyBytes, err := os.ReadFile(privateKeyPath)
	if err != nil {
		log.Printf("⚠️ PawaPay private key not found at %s, falling back to token auth", privateKeyPath)
		return s
	}

	key, err := parsePrivateKey(keyBytes)
	if err != nil {
		log.Printf("⚠️ Failed to parse PawaPay private key, falling back to token auth: %v", err)
		return s
	}

	s.privateKey = key
	return s
}

func parsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return key, nil
}

// SignRequest sets the auth headers on an outbound request. With a private
// key present it signs method + path + timestamp + body; otherwise it sends
// the bearer token.
func (s *SignatureService) SignRequest(req *http.Request, method, path string, body []byte) error {
	if s.privateKey == nil {
		req.Header.Set("Authorization", "Bearer "+s.apiToken)
		return nil
	}

	timestamp := time.Now().Format(time.RFC3339)
	stringToSign := fmt.Sprintf("%s\n%s\n%s\n%s", method, path, timestamp, string(body))

	digest := sha256.Sum256([]byte(stringToSign))
	signature, err := rsa.SignPKCS1v15(rand.Reader, s.privateKey, crypto.SHA256, digest[:])
	if err != nil {
		return fmt.Errorf("failed to sign request: %w", err)
	}

	req.Header.Set("X-Api-Key", s.apiKey)
	req.Header.Set("X-Timestamp", timestamp)
	req.Header.Set("X-Signature", base64.StdEncoding.EncodeToString(signature))
	return nil
}

// VerifyWebhookSignature checks the HMAC-SHA256 signature of an inbound
// webhook body. Verification is disabled when no webhook secret is
// configured. A timestamp older than five minutes is rejected to block
// replays.
func (s *SignatureService) VerifyWebhookSignature(body []byte, signature, timestamp string) bool {
	if s.webhookSecret == "" {
		return true
	}

	if signature == "" {
		log.Println("⚠️ Webhook signature header missing")
		return false
	}

	if timestamp != "" {
		sentAt, err := time.Parse(time.RFC3339, timestamp)
		if err == nil && time.Since(sentAt) > 5*time.Minute {
			log.Printf("⚠️ Webhook timestamp too old: %s", timestamp)
			return false
		}
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		log.Println("⚠️ Webhook signature mismatch")
		return false
	}

	return true
}
