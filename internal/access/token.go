package access

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is stamped into and required on every token.
const Issuer = "ridecipher"

var (
	// ErrUnauthenticated is returned for missing, malformed or expired tokens.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when a valid token lacks a capability.
	ErrForbidden = errors.New("forbidden")
)

// Claims is the token payload.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller.
type Principal struct {
	Subject string
	Role    Role
}

// Can reports whether the principal holds c.
func (p Principal) Can(c Capability) bool { return Allowed(p.Role, c) }

// TokenVerifier checks HS256 bearer tokens.
type TokenVerifier struct {
	secret []byte
	leeway time.Duration
}

// NewTokenVerifier returns a verifier for tokens signed with secret.
func NewTokenVerifier(secret []byte, leeway time.Duration) (*TokenVerifier, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("access: jwt secret must be at least 32 bytes")
	}
	return &TokenVerifier{secret: append([]byte(nil), secret...), leeway: leeway}, nil
}

// Verify parses raw and returns the caller it names. The token must carry
// exp, the ridecipher issuer and a known role.
func (v *TokenVerifier) Verify(raw string) (Principal, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(Issuer),
	}
	if v.leeway > 0 {
		options = append(options, jwt.WithLeeway(v.leeway))
	}

	var claims Claims
	_, err := jwt.NewParser(options...).ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	role, err := ParseRole(claims.Role)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return Principal{Subject: claims.Subject, Role: role}, nil
}

// IssueToken signs a token for subject with role, valid for ttl.
func IssueToken(secret []byte, subject string, role Role, ttl time.Duration) (string, error) {
	if _, ok := capabilities[role]; !ok {
		return "", fmt.Errorf("access: unknown role %q", role)
	}
	now := time.Now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
