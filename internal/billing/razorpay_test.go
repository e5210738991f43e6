package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyRazorpaySignature(t *testing.T) {
	body := []byte(`{"event":"payment.captured","payload":{}}`)
	secret := "whsec_test"

	assert.True(t, VerifyRazorpaySignature(body, sign(body, secret), secret))
	assert.False(t, VerifyRazorpaySignature(body, sign(body, "other"), secret))
	assert.False(t, VerifyRazorpaySignature(body, "deadbeef", secret))
	assert.False(t, VerifyRazorpaySignature(body, "", secret))

	tampered := append([]byte{}, body...)
	tampered[0] = '['
	assert.False(t, VerifyRazorpaySignature(tampered, sign(body, secret), secret))
}
