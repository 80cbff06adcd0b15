package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"ridecipher/internal/domain"
)

const fingerprintLabel = "ridecipher/v1 fingerprint"

// Fingerprint returns a short, log-safe identifier for a public key: the
// first 10 bytes of SHA-256 over a fixed label and the key, as five
// colon-separated hex groups.
func Fingerprint(pub []byte) domain.Fingerprint {
	h := sha256.New()
	h.Write([]byte(fingerprintLabel))
	h.Write(pub)
	sum := h.Sum(nil)

	enc := hex.EncodeToString(sum[:10])
	groups := make([]string, 0, 5)
	for i := 0; i < len(enc); i += 4 {
		groups = append(groups, enc[i:i+4])
	}
	return domain.Fingerprint(strings.Join(groups, ":"))
}
