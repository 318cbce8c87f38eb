package internal

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
)

// The vault blobs are XORed against a fingerprint-derived keystream and
// base64url-armored. This is casual-inspection deterrence only — symmetric,
// unauthenticated, and explicitly not cryptographic protection. Corruption
// surfaces later, when the unsealed payload fails to decode.

// Seal obfuscates plain with the keystream derived from key.
func Seal(plain, key []byte) string {
	out := make([]byte, len(plain))
	pad := keystream(key, len(plain))
	for i := range plain {
		out[i] = plain[i] ^ pad[i]
	}
	return base64.RawURLEncoding.EncodeToString(out)
}

// Open reverses Seal. The only detectable failure here is broken armor;
// a wrong key produces garbage for the caller's decoder to reject.
func Open(armored string, key []byte) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(armored)
	if err != nil {
		return nil, errors.New("invalid armored blob")
	}
	pad := keystream(key, len(raw))
	for i := range raw {
		raw[i] ^= pad[i]
	}
	return raw, nil
}

// keystream expands key into n bytes via counter-mode SHA-256 blocks.
func keystream(key []byte, n int) []byte {
	out := make([]byte, 0, n+sha256.Size)
	var counter [8]byte
	for block := uint64(0); len(out) < n; block++ {
		binary.BigEndian.PutUint64(counter[:], block)
		h := sha256.New()
		h.Write(key)
		h.Write(counter[:])
		out = h.Sum(out)
	}
	return out[:n]
}
