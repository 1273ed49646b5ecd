package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"fileshare/internal/common"
)

// CapabilityPayload is the plaintext of a download capability token. It binds
// a file to the user the token was minted for. A validated payload proves the
// server encrypted exactly these fields; it does NOT prove the presenter is
// the authorized user — that ownership check belongs to the caller.
type CapabilityPayload struct {
	FileID    int64 `json:"file_id"`
	UserID    int64 `json:"user_id"`
	ExpiresAt int64 `json:"expires_at"`
}

// CapabilityService issues and validates encrypted, time-limited download
// tokens. Tokens are self-describing: validation needs no storage lookup,
// only the key. The key is derived from durable configuration so tokens
// survive restarts and verify on any instance sharing the secret.
type CapabilityService struct {
	aead cipher.AEAD
}

// NewCapabilityService derives a 256-bit AES-GCM key from secret.
func NewCapabilityService(secret []byte) (*CapabilityService, error) {
	key := sha256.Sum256(secret)

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &CapabilityService{aead: aead}, nil
}

// Issue mints a token authorizing userID to fetch fileID until now+ttl.
// The payload is serialized to JSON, sealed with AES-GCM under a fresh
// nonce, and encoded as base64url(nonce || ciphertext) so it can travel as
// a path or query parameter.
func (s *CapabilityService) Issue(fileID, userID int64, ttl time.Duration) (string, error) {
	if fileID <= 0 || userID <= 0 {
		return "", fmt.Errorf("%w: invalid identifier", common.ErrValidation)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("%w: non-positive ttl", common.ErrValidation)
	}

	payload := CapabilityPayload{
		FileID:    fileID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl).Unix(),
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	nonce := common.GenerateRandByteArray(s.aead.NonceSize())
	ciphertext := s.aead.Seal(nil, nonce, plaintext, nil)

	token := make([]byte, 0, len(nonce)+len(ciphertext))
	token = append(token, nonce...)
	token = append(token, ciphertext...)

	return base64.RawURLEncoding.EncodeToString(token), nil
}

// Validate decrypts and checks a token. Malformed encoding, a failed
// authentication tag (tamper, wrong key, corruption) or a malformed payload
// all yield common.ErrInvalidToken; a structurally valid token past its
// expiry yields common.ErrTokenExpired. Nothing of a failed decryption is
// ever interpreted.
func (s *CapabilityService) Validate(tokenText string) (*CapabilityPayload, error) {
	raw, err := base64.RawURLEncoding.DecodeString(tokenText)
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	if len(raw) <= s.aead.NonceSize() {
		return nil, common.ErrInvalidToken
	}
	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]

	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	payload := &CapabilityPayload{}
	if err := json.Unmarshal(plaintext, payload); err != nil {
		return nil, common.ErrInvalidToken
	}
	if payload.FileID <= 0 || payload.UserID <= 0 || payload.ExpiresAt == 0 {
		return nil, common.ErrInvalidToken
	}

	if payload.ExpiresAt <= time.Now().Unix() {
		return nil, common.ErrTokenExpired
	}

	return payload, nil
}
