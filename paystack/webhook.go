package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
)

var (
	ErrUntrustedSource  = errors.New("source IP is not on the Paystack allow-list")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Verifier authenticates inbound webhooks before any side effect runs:
// source IP allow-list first, then HMAC-SHA512 over the exact raw body
// bytes. Hashing anything other than the bytes as received breaks the
// signature when key order or number formatting differs, so callers must
// pass the body untouched.
type Verifier struct {
	secret     []byte
	allowedIPs map[string]struct{}
}

func NewVerifier(secret string, allowedIPs []string) *Verifier {
	ips := make(map[string]struct{}, len(allowedIPs))
	for _, ip := range allowedIPs {
		ips[ip] = struct{}{}
	}
	return &Verifier{secret: []byte(secret), allowedIPs: ips}
}

// Verify returns nil when the request is authentic, ErrUntrustedSource or
// ErrInvalidSignature otherwise. Checks short-circuit in that order.
func (v *Verifier) Verify(rawBody []byte, signature, sourceIP string) error {
	if _, ok := v.allowedIPs[sourceIP]; !ok {
		return ErrUntrustedSource
	}

	mac := hmac.New(sha512.New, v.secret)
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}
