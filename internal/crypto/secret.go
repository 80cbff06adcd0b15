package crypto

import (
	"crypto/subtle"
	"errors"
	"sync"
)

// ErrKeyDestroyed is returned by Use after Destroy.
var ErrKeyDestroyed = errors.New("key destroyed")

// SecretKey owns a symmetric key buffer. The buffer is page-locked where
// the platform allows it and zeroed by Destroy.
type SecretKey struct {
	mu     sync.RWMutex
	b      []byte
	locked bool
}

// NewSecretKey takes ownership of b. Callers must not keep other references
// to it.
func NewSecretKey(b []byte) *SecretKey {
	k := &SecretKey{b: b}
	k.locked = lockMemory(b) == nil
	return k
}

// Len returns the key length, or 0 once destroyed.
func (k *SecretKey) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.b)
}

// Use calls fn with the key bytes while holding a read lock. fn must not
// retain the slice.
func (k *SecretKey) Use(fn func(key []byte) error) error {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.b == nil {
		return ErrKeyDestroyed
	}
	return fn(k.b)
}

// Equal reports whether two keys hold identical bytes, in constant time.
func (k *SecretKey) Equal(other *SecretKey) bool {
	if k == other {
		return !k.Destroyed()
	}
	var eq bool
	_ = k.Use(func(a []byte) error {
		return other.Use(func(b []byte) error {
			eq = subtle.ConstantTimeCompare(a, b) == 1
			return nil
		})
	})
	return eq
}

// Destroyed reports whether Destroy has run.
func (k *SecretKey) Destroyed() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.b == nil
}

// Destroy zeroes and releases the key. It is safe to call more than once.
func (k *SecretKey) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.b == nil {
		return
	}
	Wipe(k.b)
	if k.locked {
		_ = unlockMemory(k.b)
	}
	k.b = nil
	k.locked = false
}
