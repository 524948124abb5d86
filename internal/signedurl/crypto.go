package signedurl

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"mastery/internal/apperr"
)

const keyLen = 32

// CheckKey validates symmetric key material. Wrong-length keys are a server
// configuration fault, not a caller error.
func CheckKey(key []byte) error {
	if len(key) != keyLen {
		return apperr.New(apperr.ProviderMisconfigured, "encryption key must be 32 bytes")
	}
	return nil
}

// CheckKeyHex validates hex-encoded key material without decoding twice at
// call sites.
func CheckKeyHex(keyHex string) error {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return apperr.Wrap(apperr.ProviderMisconfigured, "encryption key is not valid hex", err)
	}
	return CheckKey(key)
}

// Encrypt wraps plaintext with AES-256-GCM under a fresh random nonce and
// returns ivHex:ciphertextHex. The nonce must never repeat under the same
// key, hence crypto/rand on every call.
func Encrypt(key []byte, plaintext string) (string, error) {
	if err := CheckKey(key); err != nil {
		return "", err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", apperr.Wrap(apperr.ProviderMisconfigured, "failed to initialize cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", apperr.Wrap(apperr.ProviderMisconfigured, "failed to initialize GCM", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. It exists server-side for tests and tooling;
// production decryption happens client-side with the key from the key
// endpoint.
func Decrypt(key []byte, encoded string) (string, error) {
	if err := CheckKey(key); err != nil {
		return "", err
	}
	parts := strings.SplitN(encoded, ":", 2)
	if len(parts) != 2 {
		return "", apperr.New(apperr.MalformedRequest, "encrypted payload must be ivHex:ciphertextHex")
	}
	nonce, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", apperr.Wrap(apperr.MalformedRequest, "invalid iv hex", err)
	}
	ciphertext, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", apperr.Wrap(apperr.MalformedRequest, "invalid ciphertext hex", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", apperr.Wrap(apperr.ProviderMisconfigured, "failed to initialize cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", apperr.Wrap(apperr.ProviderMisconfigured, "failed to initialize GCM", err)
	}
	if len(nonce) != gcm.NonceSize() {
		return "", apperr.New(apperr.MalformedRequest, "invalid iv length")
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", apperr.Wrap(apperr.MalformedRequest, "decryption failed", err)
	}
	return string(plaintext), nil
}
