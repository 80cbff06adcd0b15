package session

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// Suite names the AEAD construction used by a session. Every suite takes a
// 256-bit key, a 96-bit nonce and produces a 128-bit tag.
type Suite string

const (
	SuiteAES256GCM        Suite = "aes-256-gcm"
	SuiteChaCha20Poly1305 Suite = "chacha20-poly1305"
)

// ParseSuite maps a configuration string to a Suite.
func ParseSuite(s string) (Suite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "aes-256-gcm", "aes256gcm", "aes-gcm":
		return SuiteAES256GCM, nil
	case "chacha20-poly1305", "chacha20poly1305":
		return SuiteChaCha20Poly1305, nil
	default:
		return "", fmt.Errorf("unsupported cipher suite %q", s)
	}
}

func (s Suite) newAEAD(key []byte) (cipher.AEAD, error) {
	switch s {
	case SuiteAES256GCM, "":
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	case SuiteChaCha20Poly1305:
		return chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("unsupported cipher suite %q", s)
	}
}
