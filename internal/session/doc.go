// Package session implements the per-ride encryption session.
//
// A Session owns one derived key and seals individual location fixes with an
// AEAD (AES-256-GCM by default, ChaCha20-Poly1305 optionally). Each record
// gets a fresh random 96-bit nonce. The associated data binds the session id,
// the ride id, the record's sequence number and its timestamp, so a record
// replayed into another session, another ride, or with an altered sequence or
// timestamp fails authentication.
//
// # Sequence numbers
//
// The sequence is the session's use count at the moment of sealing. It is
// returned inside the EncryptedRecord and has to be presented unchanged on
// decryption; the receiver never guesses it.
//
// # Lifecycle
//
//	created --first use--> active --max age--> expired
//	   \                      \                    \
//	    +------- End ----------+-------- End -------+--> ended
//
// Encrypt and Decrypt fail with domain.ErrSessionInactive once a session is
// expired or ended. End zeroes the key.
//
// Concurrency: a Session is safe for concurrent use. All key usage is
// serialised by a per-session mutex.
package session
