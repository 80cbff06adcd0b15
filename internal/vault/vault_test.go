package vault_test

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ridecipher/internal/crypto"
	"ridecipher/internal/domain"
	"ridecipher/internal/session"
	"ridecipher/internal/vault"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type countingObserver struct {
	domain.NopObserver
	evicted atomic.Int64
	full    atomic.Int64
}

func (o *countingObserver) SessionEvicted(string) { o.evicted.Add(1) }
func (o *countingObserver) VaultFull()            { o.full.Add(1) }

type panickingObserver struct{ domain.NopObserver }

func (panickingObserver) SessionEvicted(string) { panic("observer exploded") }

// newSession builds a session on clock with a one hour lifetime.
func newSession(t *testing.T, id string, clock *fakeClock) (*session.Session, *crypto.SecretKey) {
	t.Helper()
	b := make([]byte, crypto.SessionKeySize)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand: %v", err)
	}
	key := crypto.NewSecretKey(b)
	s, err := session.New(domain.SessionID(id), "R1", key, session.Options{MaxAge: time.Hour, Now: clock.Now})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	return s, key
}

func mustStore(t *testing.T, v *vault.Vault, s *session.Session) {
	t.Helper()
	if err := v.Store(s); err != nil {
		t.Fatalf("Store(%s): %v", s.ID(), err)
	}
}

func TestStoreGetRemove(t *testing.T) {
	clock := newClock()
	v := vault.New(vault.Options{Capacity: 4, Now: clock.Now})

	s, key := newSession(t, "S1", clock)
	mustStore(t, v, s)

	got, ok := v.Get("S1")
	if !ok || got != s {
		t.Fatalf("Get = %v, %v", got, ok)
	}
	if _, ok := v.Get("nope"); ok {
		t.Fatal("Get returned unknown id")
	}
	if !v.Remove("S1") {
		t.Fatal("Remove returned false")
	}
	if v.Remove("S1") {
		t.Fatal("second Remove returned true")
	}
	if !key.Destroyed() {
		t.Fatal("removed session key not destroyed")
	}
	if _, ok := v.Get("S1"); ok {
		t.Fatal("Get after Remove still finds session")
	}
}

func TestStore_DuplicateID(t *testing.T) {
	clock := newClock()
	v := vault.New(vault.Options{Now: clock.Now})
	a, _ := newSession(t, "S1", clock)
	b, _ := newSession(t, "S1", clock)
	mustStore(t, v, a)
	if err := v.Store(b); !errors.Is(err, domain.ErrDuplicateSession) {
		t.Fatalf("want ErrDuplicateSession, got %v", err)
	}
}

func TestStore_CapacityReclaimsExpired(t *testing.T) {
	clock := newClock()
	obs := &countingObserver{}
	v := vault.New(vault.Options{Capacity: 2, Now: clock.Now, Observer: obs})

	old, oldKey := newSession(t, "old", clock)
	mustStore(t, v, old)
	clock.Advance(2 * time.Hour)
	fresh, _ := newSession(t, "fresh", clock)
	mustStore(t, v, fresh)

	next, _ := newSession(t, "next", clock)
	mustStore(t, v, next)

	if v.Len() != 2 {
		t.Fatalf("len = %d, want 2", v.Len())
	}
	if _, ok := v.Get("old"); ok {
		t.Fatal("expired session survived purge")
	}
	if !oldKey.Destroyed() {
		t.Fatal("purged session key not destroyed")
	}
	if obs.evicted.Load() != 1 {
		t.Fatalf("evicted = %d, want 1", obs.evicted.Load())
	}
}

func TestStore_FullWithNothingExpired(t *testing.T) {
	clock := newClock()
	obs := &countingObserver{}
	v := vault.New(vault.Options{Capacity: 2, Now: clock.Now, Observer: obs})
	for i := 0; i < 2; i++ {
		s, _ := newSession(t, fmt.Sprintf("S%d", i), clock)
		mustStore(t, v, s)
	}

	extra, _ := newSession(t, "extra", clock)
	if err := v.Store(extra); !errors.Is(err, domain.ErrVaultFull) {
		t.Fatalf("want ErrVaultFull, got %v", err)
	}
	if obs.full.Load() != 1 {
		t.Fatalf("vault full events = %d, want 1", obs.full.Load())
	}
	if v.Len() != 2 {
		t.Fatalf("len = %d, want 2", v.Len())
	}
}

func TestGet_LazilyExpires(t *testing.T) {
	clock := newClock()
	v := vault.New(vault.Options{Now: clock.Now})
	s, key := newSession(t, "S1", clock)
	mustStore(t, v, s)

	clock.Advance(time.Hour + time.Second)
	if _, ok := v.Get("S1"); ok {
		t.Fatal("Get returned an expired session")
	}
	if v.Len() != 0 {
		t.Fatalf("len = %d, want 0", v.Len())
	}
	if !key.Destroyed() {
		t.Fatal("lazily expired key not destroyed")
	}
}

func TestSweepAndStats(t *testing.T) {
	clock := newClock()
	v := vault.New(vault.Options{Capacity: 10, Now: clock.Now})
	for i := 0; i < 3; i++ {
		s, _ := newSession(t, fmt.Sprintf("old%d", i), clock)
		mustStore(t, v, s)
	}
	clock.Advance(90 * time.Minute)
	for i := 0; i < 2; i++ {
		s, _ := newSession(t, fmt.Sprintf("new%d", i), clock)
		mustStore(t, v, s)
	}

	st := v.Stats()
	want := domain.VaultStats{Total: 5, Active: 2, Expired: 3, Capacity: 10, UtilizationPercent: 50}
	if st != want {
		t.Fatalf("stats = %+v, want %+v", st, want)
	}

	if n := v.Sweep(); n != 3 {
		t.Fatalf("Sweep reclaimed %d, want 3", n)
	}
	if n := v.Sweep(); n != 0 {
		t.Fatalf("second Sweep reclaimed %d, want 0", n)
	}
	st = v.Stats()
	if st.Total != 2 || st.Expired != 0 || st.UtilizationPercent != 20 {
		t.Fatalf("stats after sweep = %+v", st)
	}
}

func TestClose_EndsEverySession(t *testing.T) {
	clock := newClock()
	obs := &countingObserver{}
	v := vault.New(vault.Options{Now: clock.Now, Observer: obs})

	var keys []*crypto.SecretKey
	for i := 0; i < 3; i++ {
		s, k := newSession(t, fmt.Sprintf("S%d", i), clock)
		mustStore(t, v, s)
		keys = append(keys, k)
	}
	if err := v.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := v.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	for i, k := range keys {
		if !k.Destroyed() {
			t.Fatalf("key %d not destroyed on Close", i)
		}
	}
	if v.Len() != 0 {
		t.Fatalf("len after Close = %d", v.Len())
	}
	if obs.evicted.Load() != 3 {
		t.Fatalf("evicted = %d, want 3", obs.evicted.Load())
	}

	s, _ := newSession(t, "late", clock)
	if err := v.Store(s); !errors.Is(err, domain.ErrVaultClosed) {
		t.Fatalf("Store after Close: want ErrVaultClosed, got %v", err)
	}
	if err := v.Start(context.Background()); !errors.Is(err, domain.ErrVaultClosed) {
		t.Fatalf("Start after Close: want ErrVaultClosed, got %v", err)
	}
	if err := v.Close(ctx); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestSweeper_ReclaimsInBackground(t *testing.T) {
	clock := newClock()
	v := vault.New(vault.Options{Now: clock.Now, SweepInterval: 5 * time.Millisecond})
	s, _ := newSession(t, "S1", clock)
	mustStore(t, v, s)

	if err := v.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer v.Stop(context.Background())

	clock.Advance(2 * time.Hour)
	waitFor(t, func() bool { return v.Len() == 0 })
}

func TestSweeper_SurvivesPanics(t *testing.T) {
	clock := newClock()
	v := vault.New(vault.Options{
		Now:           clock.Now,
		SweepInterval: 5 * time.Millisecond,
		Observer:      panickingObserver{},
	})
	if err := v.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer v.Stop(context.Background())

	first, k1 := newSession(t, "S1", clock)
	mustStore(t, v, first)
	clock.Advance(2 * time.Hour)
	waitFor(t, func() bool { return v.Len() == 0 })
	if !k1.Destroyed() {
		t.Fatal("key not destroyed before observer panic")
	}

	second, _ := newSession(t, "S2", clock)
	mustStore(t, v, second)
	clock.Advance(2 * time.Hour)
	waitFor(t, func() bool { return v.Len() == 0 })
}

func TestSweeper_RestartsAfterParentCancel(t *testing.T) {
	clock := newClock()
	v := vault.New(vault.Options{Now: clock.Now, SweepInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	if err := v.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !v.Running() {
		t.Fatal("sweeper not running after Start")
	}
	cancel()
	waitFor(t, func() bool { return !v.Running() })

	if err := v.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer v.Stop(context.Background())
	if !v.Running() {
		t.Fatal("sweeper not running after restart")
	}

	s, _ := newSession(t, "S1", clock)
	mustStore(t, v, s)
	clock.Advance(2 * time.Hour)
	waitFor(t, func() bool { return v.Len() == 0 })
}

func TestStop_BoundedByContext(t *testing.T) {
	v := vault.New(vault.Options{SweepInterval: time.Hour})
	if err := v.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := v.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if v.Running() {
		t.Fatal("sweeper still running after Stop")
	}
	if err := v.Stop(ctx); err != nil {
		t.Fatalf("Stop on stopped sweeper: %v", err)
	}
}

func TestConcurrentStoreAndGet(t *testing.T) {
	clock := newClock()
	v := vault.New(vault.Options{Capacity: 1000, Now: clock.Now})

	batches := make([][]*session.Session, 8)
	for w := range batches {
		for i := 0; i < 25; i++ {
			s, _ := newSession(t, fmt.Sprintf("w%d-%d", w, i), clock)
			batches[w] = append(batches[w], s)
		}
	}

	var wg sync.WaitGroup
	for _, batch := range batches {
		wg.Add(1)
		go func(batch []*session.Session) {
			defer wg.Done()
			for _, s := range batch {
				if err := v.Store(s); err != nil {
					t.Errorf("Store: %v", err)
					return
				}
				if _, ok := v.Get(s.ID()); !ok {
					t.Errorf("Get(%s) missing", s.ID())
					return
				}
				_ = v.Stats()
			}
		}(batch)
	}
	wg.Wait()
	if v.Len() != 200 {
		t.Fatalf("len = %d, want 200", v.Len())
	}
}
