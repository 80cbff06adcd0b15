package crypto_test

import (
	"bytes"
	"errors"
	"testing"

	"ridecipher/internal/crypto"
)

func TestSecretKey_DestroyZeroesBuffer(t *testing.T) {
	buf := bytes.Repeat([]byte{0xAB}, 32)
	alias := buf
	k := crypto.NewSecretKey(buf)

	k.Destroy()

	if !k.Destroyed() || k.Len() != 0 {
		t.Fatal("key not marked destroyed")
	}
	if !bytes.Equal(alias, make([]byte, 32)) {
		t.Fatalf("buffer not zeroed: %x", alias)
	}
	if err := k.Use(func([]byte) error { return nil }); !errors.Is(err, crypto.ErrKeyDestroyed) {
		t.Fatalf("Use after Destroy: got %v", err)
	}
	k.Destroy()
}

func TestWipe(t *testing.T) {
	a := []byte("secret")
	b := []byte("other")
	crypto.Wipe(a, nil, b)
	if !bytes.Equal(a, make([]byte, len(a))) || !bytes.Equal(b, make([]byte, len(b))) {
		t.Fatalf("Wipe left data: %q %q", a, b)
	}
}

func TestFromB64_AcceptsVariants(t *testing.T) {
	raw := []byte{0xfb, 0xff, 0x01, 0x02}
	for _, s := range []string{"+/8BAg==", "+/8BAg", "-_8BAg"} {
		got, err := crypto.FromB64(s)
		if err != nil || !bytes.Equal(got, raw) {
			t.Fatalf("FromB64(%q) = %x, %v", s, got, err)
		}
	}
	if crypto.B64(raw) != "+/8BAg==" {
		t.Fatalf("B64 = %q", crypto.B64(raw))
	}
}
