package internal

import (
	"bytes"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0xAB}, 32)

	tests := []struct {
		name  string
		plain []byte
	}{
		{"empty", nil},
		{"short", []byte("x")},
		{"token sized", bytes.Repeat([]byte("claim"), 100)},
		{"beyond one block", bytes.Repeat([]byte{0x00}, 65)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			armored := Seal(tc.plain, key)
			out, err := Open(armored, key)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if !bytes.Equal(out, tc.plain) {
				t.Fatalf("round trip mismatch: %q != %q", out, tc.plain)
			}
		})
	}
}

func TestSealHidesPlaintext(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 32)
	secret := []byte("eyJhbGciOiJIUzI1NiJ9.super-secret-token")

	armored := Seal(secret, key)
	if bytes.Contains([]byte(armored), secret) {
		t.Fatal("sealed blob contains the plaintext")
	}
}

func TestOpenRejectsBrokenArmor(t *testing.T) {
	key := bytes.Repeat([]byte{0x01}, 32)
	if _, err := Open("not base64url !!!", key); err == nil {
		t.Fatal("Open must reject invalid armor")
	}
}

func TestWrongKeyYieldsGarbageNotError(t *testing.T) {
	keyA := bytes.Repeat([]byte{0x01}, 32)
	keyB := bytes.Repeat([]byte{0x02}, 32)
	plain := []byte("profile payload")

	armored := Seal(plain, keyA)
	out, err := Open(armored, keyB)
	if err != nil {
		t.Fatalf("Open with wrong key errored: %v", err)
	}
	// XOR is unauthenticated: corruption is detected by the caller's decoder.
	if bytes.Equal(out, plain) {
		t.Fatal("wrong key must not recover the plaintext")
	}
}

func TestKeystreamDeterministic(t *testing.T) {
	key := []byte("fingerprint material")
	a := keystream(key, 100)
	b := keystream(key, 100)
	if !bytes.Equal(a, b) {
		t.Fatal("keystream not deterministic")
	}
	if bytes.Equal(a[:32], a[32:64]) {
		t.Fatal("keystream blocks must differ")
	}
}
