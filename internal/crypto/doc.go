// Package crypto exposes the primitives the encryption core is built on.
//
// Contents
//
//   - Ephemeral key pairs on P-256 or X25519 and ECDH + HKDF derivation of a
//     32-byte session key (GenerateKeyPair, KeyPair.DeriveSharedKey)
//   - SecretKey, a page-locked key buffer that is zeroed on Destroy
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//   - Short public-key fingerprints for logging (Fingerprint)
//   - Base64 helpers for the transport boundary (B64, FromB64)
//
// # Notes
//
// DeriveSharedKey never returns the raw Diffie-Hellman output; it is always
// stretched through HKDF-SHA256 with a fixed context label and then wiped.
// Peer public keys that do not decode to a valid point, or that produce an
// all-zero shared secret, fail with domain.ErrKeyExchange.
package crypto
