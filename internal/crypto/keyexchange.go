package crypto

import (
	"crypto/ecdh"
	"crypto/rand"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/curve25519"

	"ridecipher/internal/domain"
)

// Curve names an ECDH group.
type Curve string

const (
	// CurveP256 is NIST P-256. Public keys use the 65-byte uncompressed
	// SEC 1 encoding.
	CurveP256 Curve = "p256"
	// CurveX25519 is Curve25519. Public keys are 32 raw bytes.
	CurveX25519 Curve = "x25519"
)

// ParseCurve maps a configuration string to a Curve.
func ParseCurve(s string) (Curve, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "p256", "p-256", "secp256r1", "prime256v1":
		return CurveP256, nil
	case "x25519", "curve25519":
		return CurveX25519, nil
	default:
		return "", fmt.Errorf("unsupported curve %q", s)
	}
}

// PublicKeySize returns the encoded public key length for c.
func (c Curve) PublicKeySize() int {
	if c == CurveX25519 {
		return curve25519.PointSize
	}
	return 65
}

// KeyPair is an ephemeral ECDH key pair. The private half never leaves it.
type KeyPair struct {
	curve Curve

	mu     sync.Mutex
	p256   *ecdh.PrivateKey
	x25519 [32]byte
	public []byte
	gone   bool
}

// GenerateKeyPair returns a fresh key pair on curve.
func GenerateKeyPair(curve Curve) (*KeyPair, error) {
	switch curve {
	case CurveP256:
		priv, err := ecdh.P256().GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		return &KeyPair{curve: curve, p256: priv, public: priv.PublicKey().Bytes()}, nil
	case CurveX25519:
		kp := &KeyPair{curve: curve}
		if _, err := rand.Read(kp.x25519[:]); err != nil {
			return nil, err
		}
		clamp(&kp.x25519)
		pub, err := curve25519.X25519(kp.x25519[:], curve25519.Basepoint)
		if err != nil {
			return nil, err
		}
		kp.public = pub
		return kp, nil
	default:
		return nil, fmt.Errorf("unsupported curve %q", curve)
	}
}

// Curve reports the group the key pair lives on.
func (k *KeyPair) Curve() Curve { return k.curve }

// PublicBytes returns a copy of the encoded public key.
func (k *KeyPair) PublicBytes() []byte {
	out := make([]byte, len(k.public))
	copy(out, k.public)
	return out
}

// DeriveSharedKey runs ECDH against peerPublic and stretches the result into
// a 32-byte key suitable for AES-256-GCM or ChaCha20-Poly1305.
func (k *KeyPair) DeriveSharedKey(peerPublic []byte) (*SecretKey, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.gone {
		return nil, fmt.Errorf("%w: key pair destroyed", domain.ErrKeyExchange)
	}

	raw, err := k.agree(peerPublic)
	if err != nil {
		return nil, err
	}
	defer Wipe(raw)

	if isZero(raw) {
		return nil, fmt.Errorf("%w: degenerate shared secret", domain.ErrKeyExchange)
	}
	return deriveSessionKey(raw)
}

func (k *KeyPair) agree(peerPublic []byte) ([]byte, error) {
	if len(peerPublic) != k.curve.PublicKeySize() {
		return nil, fmt.Errorf("%w: %s public key must be %d bytes, got %d",
			domain.ErrKeyExchange, k.curve, k.curve.PublicKeySize(), len(peerPublic))
	}
	switch k.curve {
	case CurveP256:
		peer, err := ecdh.P256().NewPublicKey(peerPublic)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrKeyExchange, err)
		}
		secret, err := k.p256.ECDH(peer)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrKeyExchange, err)
		}
		return secret, nil
	case CurveX25519:
		secret, err := curve25519.X25519(k.x25519[:], peerPublic)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrKeyExchange, err)
		}
		return secret, nil
	default:
		return nil, fmt.Errorf("%w: unsupported curve %q", domain.ErrKeyExchange, k.curve)
	}
}

// Destroy wipes the private scalar held in Go memory. P-256 scalars live
// inside crypto/ecdh and are released for collection instead.
func (k *KeyPair) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()
	Wipe(k.x25519[:])
	k.p256 = nil
	k.gone = true
}

// clamp applies RFC 7748 scalar clamping.
func clamp(k *[32]byte) {
	k[0] &= 248
	k[31] &= 127
	k[31] |= 64
}

func isZero(b []byte) bool {
	var v byte
	for _, c := range b {
		v |= c
	}
	return v == 0
}
