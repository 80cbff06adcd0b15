package crypto

import (
	"crypto/subtle"
	"runtime"
)

// Wipe zeroes every provided buffer. This is best-effort and aims to
// reduce the chance of the compiler eliding the write.
//
//go:noinline
func Wipe(bufs ...[]byte) {
	for _, b := range bufs {
		if len(b) == 0 {
			continue
		}
		subtle.XORBytes(b, b, b)
		runtime.KeepAlive(&b)
	}
}
