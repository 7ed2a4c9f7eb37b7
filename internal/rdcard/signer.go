package rdcard

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signer produces the X-SIGNATURE value for a request payload.
// Implementations must be deterministic for a given key and payload.
type Signer interface {
	Sign(payload []byte) string
}

// SignerFunc adapts an ordinary function to the Signer interface.
type SignerFunc func(payload []byte) string

// Sign calls f(payload).
func (f SignerFunc) Sign(payload []byte) string {
	return f(payload)
}

// HMACSigner signs payloads with HMAC-SHA256 and renders lowercase hex.
type HMACSigner struct {
	secret []byte
}

// NewHMACSigner returns a signer keyed by secret.
func NewHMACSigner(secret string) *HMACSigner {
	return &HMACSigner{secret: []byte(secret)}
}

// Sign returns the lowercase hex HMAC-SHA256 of payload.
func (s *HMACSigner) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
