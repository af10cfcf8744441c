package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

const ResetTokenTTL = time.Hour

var (
	ErrTokenInvalid = errors.New("reset token is invalid")
	ErrTokenExpired = errors.New("reset token has expired")
)

// ResetSealer mints and verifies the encrypted forgot-password token that
// goes out by email. The token carries the user id and an expiry, sealed
// with AES-GCM so it cannot be forged or read client-side.
type ResetSealer struct {
	aead cipher.AEAD
}

func NewResetSealer(key []byte) (*ResetSealer, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("reset token key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	return &ResetSealer{aead: aead}, nil
}

type resetClaims struct {
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt int64     `json:"exp"`
}

func (s *ResetSealer) Seal(userID uuid.UUID) (string, error) {
	plaintext, err := json.Marshal(resetClaims{
		UserID:    userID,
		ExpiresAt: time.Now().Add(ResetTokenTTL).Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := s.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (s *ResetSealer) Open(token string) (uuid.UUID, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}

	if len(sealed) < s.aead.NonceSize() {
		return uuid.Nil, ErrTokenInvalid
	}
	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]

	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}

	var claims resetClaims
	if err := json.Unmarshal(plaintext, &claims); err != nil {
		return uuid.Nil, ErrTokenInvalid
	}

	if time.Now().Unix() > claims.ExpiresAt {
		return uuid.Nil, ErrTokenExpired
	}
	return claims.UserID, nil
}
