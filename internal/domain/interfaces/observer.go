package interfaces

// Observer receives lifecycle and operation events from the manager and the
// vault. Implementations must be safe for concurrent use and must not block.
type Observer interface {
	SessionCreated()
	SessionEnded()
	SessionEvicted(reason string)
	Encrypted()
	Decrypted(ok bool)
	KeyExchangeFailed()
	VaultFull()
}
