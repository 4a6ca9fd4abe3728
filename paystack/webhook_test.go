package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"testing"
)

const testSecret = "sk_test_secret"

var allowedIPs = []string{"52.31.139.75", "52.49.173.169", "52.214.14.220"}

func sign(t *testing.T, body []byte) string {
	t.Helper()
	mac := hmac.New(sha512.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyAcceptsValidRequest(t *testing.T) {
	v := NewVerifier(testSecret, allowedIPs)
	body := []byte(`{"event":"charge.success","data":{"status":"success"}}`)

	if err := v.Verify(body, sign(t, body), "52.31.139.75"); err != nil {
		t.Fatalf("expected accept, got %v", err)
	}
}

func TestVerifyRejectsUntrustedIP(t *testing.T) {
	v := NewVerifier(testSecret, allowedIPs)
	body := []byte(`{"event":"charge.success"}`)

	// even with a correct signature, an unknown source IP is rejected first
	err := v.Verify(body, sign(t, body), "203.0.113.9")
	if !errors.Is(err, ErrUntrustedSource) {
		t.Fatalf("expected ErrUntrustedSource, got %v", err)
	}
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	v := NewVerifier(testSecret, allowedIPs)
	body := []byte(`{"event":"charge.success"}`)

	err := v.Verify(body, sign(t, []byte(`{"tampered":true}`)), "52.31.139.75")
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifySignatureIsOverExactBytes(t *testing.T) {
	v := NewVerifier(testSecret, allowedIPs)
	body := []byte(`{"b":1,"a":2}`)
	reordered := []byte(`{"a":2,"b":1}`)

	if err := v.Verify(body, sign(t, body), "52.31.139.75"); err != nil {
		t.Fatalf("expected accept for exact bytes, got %v", err)
	}
	if err := v.Verify(reordered, sign(t, body), "52.31.139.75"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("reordered body must not validate, got %v", err)
	}
}
