package crypto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// SessionKeySize is the length of every derived session key.
const SessionKeySize = 32

// sessionKeyLabel is the HKDF info string. Changing it changes every key.
var sessionKeyLabel = []byte("ridecipher/v1 session key")

// deriveSessionKey stretches a raw ECDH secret with HKDF-SHA256.
func deriveSessionKey(secret []byte) (*SecretKey, error) {
	r := hkdf.New(sha256.New, secret, nil, sessionKeyLabel)
	key := make([]byte, SessionKeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		Wipe(key)
		return nil, err
	}
	return NewSecretKey(key), nil
}
