package crypto

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/hkdf"
)

// Key derivation contexts. Each purpose gets its own info string so derived
// keys are independent of one another.
const (
	InfoTokenSigning = "serverconf/v1/token-signing"
)

// DeriveKey derives a 32-byte key from the given secret using HKDF-SHA256.
// The info parameter provides domain separation per NIST SP 800-56C.
func DeriveKey(secret, info string) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("crypto: secret must not be empty")
	}

	hkdfReader := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	key := make([]byte, 32)
	if _, err := hkdfReader.Read(key); err != nil {
		return nil, fmt.Errorf("crypto: hkdf key derivation failed: %w", err)
	}
	return key, nil
}
