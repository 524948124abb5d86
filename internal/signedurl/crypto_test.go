package signedurl

import (
	"bytes"
	"strings"
	"testing"

	"mastery/internal/apperr"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey()
	plaintext := "https://media.example.com/video/v-1?exp=123&_a=deadbeef"

	wrapped, err := Encrypt(key, plaintext)
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}
	parts := strings.SplitN(wrapped, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		t.Fatalf("expected ivHex:ciphertextHex output, got %q", wrapped)
	}

	got, err := Decrypt(key, wrapped)
	if err != nil {
		t.Fatalf("Decrypt returned error: %v", err)
	}
	if got != plaintext {
		t.Fatalf("round trip mismatch: got %q", got)
	}
}

func TestEncryptFreshIVPerCall(t *testing.T) {
	key := testKey()

	a, err := Encrypt(key, "same payload")
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}
	b, err := Encrypt(key, "same payload")
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct ciphertexts for repeated encryption of the same payload")
	}
	if strings.SplitN(a, ":", 2)[0] == strings.SplitN(b, ":", 2)[0] {
		t.Fatal("expected distinct IVs per call")
	}
}

func TestCheckKeyLength(t *testing.T) {
	if err := CheckKey(testKey()); err != nil {
		t.Fatalf("expected 32-byte key to pass, got %v", err)
	}
	if err := CheckKey(bytes.Repeat([]byte{1}, 16)); apperr.KindOf(err) != apperr.ProviderMisconfigured {
		t.Fatalf("expected ProviderMisconfigured for 16-byte key, got %v", err)
	}
	if err := CheckKeyHex("not-hex"); apperr.KindOf(err) != apperr.ProviderMisconfigured {
		t.Fatalf("expected ProviderMisconfigured for invalid hex, got %v", err)
	}
}

func TestDecryptRejectsTampering(t *testing.T) {
	key := testKey()
	wrapped, err := Encrypt(key, "payload")
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}

	// Flip one ciphertext hex digit.
	tampered := []byte(wrapped)
	last := len(tampered) - 1
	if tampered[last] == '0' {
		tampered[last] = '1'
	} else {
		tampered[last] = '0'
	}
	if _, err := Decrypt(key, string(tampered)); apperr.KindOf(err) != apperr.MalformedRequest {
		t.Fatalf("expected MalformedRequest for tampered ciphertext, got %v", err)
	}

	if _, err := Decrypt(key, "no-separator"); apperr.KindOf(err) != apperr.MalformedRequest {
		t.Fatalf("expected MalformedRequest for missing separator, got %v", err)
	}

	wrongKey := bytes.Repeat([]byte{0xcd}, 32)
	if _, err := Decrypt(wrongKey, wrapped); apperr.KindOf(err) != apperr.MalformedRequest {
		t.Fatalf("expected MalformedRequest under wrong key, got %v", err)
	}
}
