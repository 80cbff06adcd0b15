// Package access decides which callers may use which gateway operations.
//
// Every caller carries exactly one Role. A fixed table maps roles to
// Capabilities and is consulted once, at the transport boundary; the crypto
// packages never see roles. Roles arrive as the "role" claim of an HS256
// bearer token checked by TokenVerifier.
package access
