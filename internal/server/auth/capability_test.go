package auth

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"fileshare/internal/common"
)

func newCapabilityService(t *testing.T, secret string) *CapabilityService {
	t.Helper()
	s, err := NewCapabilityService([]byte(secret))
	if err != nil {
		t.Fatalf("NewCapabilityService error: %v", err)
	}
	return s
}

func TestCapability_RoundTrip(t *testing.T) {
	t.Parallel()

	s := newCapabilityService(t, "download-secret")

	tok, err := s.Issue(42, 7, 5*time.Minute)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	payload, err := s.Validate(tok)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if payload.FileID != 42 || payload.UserID != 7 {
		t.Fatalf("payload mismatch: got file=%d user=%d", payload.FileID, payload.UserID)
	}
	if payload.ExpiresAt <= time.Now().Unix() {
		t.Fatalf("expected expiry in the future, got %d", payload.ExpiresAt)
	}
}

func TestCapability_Expired(t *testing.T) {
	s := newCapabilityService(t, "download-secret")

	tok, err := s.Issue(42, 7, time.Second)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	// ExpiresAt has one-second resolution, so wait past the window.
	time.Sleep(2100 * time.Millisecond)

	_, err = s.Validate(tok)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestCapability_BitFlipNeverValidates(t *testing.T) {
	t.Parallel()

	s := newCapabilityService(t, "download-secret")

	tok, err := s.Issue(42, 7, 5*time.Minute)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		t.Fatalf("token is not valid base64url: %v", err)
	}

	for i := range raw {
		for bit := 0; bit < 8; bit++ {
			corrupted := make([]byte, len(raw))
			copy(corrupted, raw)
			corrupted[i] ^= 1 << bit

			_, err := s.Validate(base64.RawURLEncoding.EncodeToString(corrupted))
			if !errors.Is(err, common.ErrInvalidToken) {
				t.Fatalf("byte %d bit %d: expected common.ErrInvalidToken, got %v", i, bit, err)
			}
		}
	}
}

func TestCapability_WrongKey(t *testing.T) {
	t.Parallel()

	issuer := newCapabilityService(t, "key-one")
	verifier := newCapabilityService(t, "key-two")

	tok, err := issuer.Issue(42, 7, 5*time.Minute)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = verifier.Validate(tok)
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestCapability_SameSecretSameKey(t *testing.T) {
	t.Parallel()

	// Two instances configured with the same secret must accept each
	// other's tokens (the key is derived, not generated per process).
	a := newCapabilityService(t, "shared-secret")
	b := newCapabilityService(t, "shared-secret")

	tok, err := a.Issue(42, 7, 5*time.Minute)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := b.Validate(tok); err != nil {
		t.Fatalf("second instance rejected token: %v", err)
	}
}

func TestCapability_MalformedText(t *testing.T) {
	t.Parallel()

	s := newCapabilityService(t, "download-secret")

	for _, tok := range []string{"", "!!!not-base64!!!", "c2hvcnQ"} {
		_, err := s.Validate(tok)
		if !errors.Is(err, common.ErrInvalidToken) {
			t.Fatalf("token %q: expected common.ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestCapability_IssueRejectsBadInput(t *testing.T) {
	t.Parallel()

	s := newCapabilityService(t, "download-secret")

	cases := []struct {
		name   string
		fileID int64
		userID int64
		ttl    time.Duration
	}{
		{"zero file id", 0, 7, time.Minute},
		{"negative user id", 42, -1, time.Minute},
		{"zero ttl", 42, 7, 0},
		{"negative ttl", 42, 7, -time.Minute},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Issue(tc.fileID, tc.userID, tc.ttl)
			if !errors.Is(err, common.ErrValidation) {
				t.Fatalf("expected common.ErrValidation, got %v", err)
			}
		})
	}
}
