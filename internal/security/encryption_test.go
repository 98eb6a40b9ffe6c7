package security

import (
	"encoding/base64"
	"strings"
	"testing"
)

const testHexKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestNewEncryptorKeyValidation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid 32-byte hex key", testHexKey, false},
		{"not hex", "zz" + testHexKey[2:], true},
		{"too short", testHexKey[:32], true},
		{"too long", testHexKey + "00", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEncryptor(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewEncryptor() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncryptorRoundTrip(t *testing.T) {
	enc, err := NewEncryptor(testHexKey)
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}

	for _, plaintext := range []string{"", "hunter2", "аккаунт:пароль", strings.Repeat("x", 4096)} {
		sealed, err := enc.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		if sealed == plaintext && plaintext != "" {
			t.Fatal("ciphertext equals plaintext")
		}

		got, err := enc.Decrypt(sealed)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if got != plaintext {
			t.Errorf("round trip mismatch: got %q, want %q", got, plaintext)
		}
	}
}

func TestEncryptorNonceIsFresh(t *testing.T) {
	enc, err := NewEncryptor(testHexKey)
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}

	a, _ := enc.Encrypt("same input")
	b, _ := enc.Encrypt("same input")
	if a == b {
		t.Error("two encryptions of the same input must not repeat")
	}
}

func TestEncryptorRejectsTampering(t *testing.T) {
	enc, err := NewEncryptor(testHexKey)
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}

	sealed, err := enc.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	raw, _ := base64.StdEncoding.DecodeString(sealed)
	raw[len(raw)-1] ^= 0x01
	tampered := base64.StdEncoding.EncodeToString(raw)

	if _, err := enc.Decrypt(tampered); err == nil {
		t.Error("tampered ciphertext must fail authentication")
	}

	if _, err := enc.Decrypt("not base64!!"); err == nil {
		t.Error("invalid base64 must return an error")
	}
	if _, err := enc.Decrypt(base64.StdEncoding.EncodeToString([]byte("short"))); err == nil {
		t.Error("ciphertext shorter than the nonce must return an error")
	}
}
