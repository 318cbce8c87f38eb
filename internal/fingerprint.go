package internal

import (
	"crypto/sha256"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const deviceIDFile = "device-id"

// Material derives the device fingerprint and the obfuscation key from the
// host name plus a per-device identifier persisted under stateDir. The
// fingerprint is deliberately non-unique and non-secret: it only namespaces
// vault entries and keys the XOR keystream.
func Material(stateDir string) (fingerprint string, key []byte, err error) {
	id, err := deviceID(stateDir)
	if err != nil {
		return "", nil, err
	}

	host, _ := os.Hostname()

	sum := sha256.Sum256([]byte(host + "\x00" + id))
	return base64.RawURLEncoding.EncodeToString(sum[:12]), sum[:], nil
}

// deviceID reads the persisted device identifier, creating it on first use.
func deviceID(stateDir string) (string, error) {
	path := filepath.Join(stateDir, deviceIDFile)

	if data, err := os.ReadFile(path); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}

	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return "", err
	}

	id := uuid.NewString()
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", err
	}
	return id, nil
}
