package rdcard

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func hmacHex(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestHMACSignerMatchesReferenceDigest(t *testing.T) {
	body, err := json.Marshal(PaymentSessionRequest{
		Amount:   5000,
		Currency: "USD",
		Customer: CustomerInfo{Email: "jane@example.com", Name: "Jane"},
	})
	require.NoError(t, err)

	signer := NewHMACSigner("s3cret")
	first := signer.Sign(body)
	second := signer.Sign(body)

	require.Equal(t, first, second)
	require.Equal(t, hmacHex("s3cret", body), first)
	require.Len(t, first, 64)
}

func TestHMACSignerKeyMatters(t *testing.T) {
	payload := []byte("pay_123")
	require.NotEqual(t, NewHMACSigner("a").Sign(payload), NewHMACSigner("b").Sign(payload))
}

func TestSignerFunc(t *testing.T) {
	var got []byte
	s := SignerFunc(func(payload []byte) string {
		got = payload
		return "fixed"
	})

	require.Equal(t, "fixed", s.Sign([]byte("abc")))
	require.Equal(t, []byte("abc"), got)
}
