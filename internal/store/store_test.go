package store_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"ridecipher/internal/domain"
	"ridecipher/internal/store"
)

func sampleRecord(ride domain.RideID, seq uint64) domain.EncryptedRecord {
	return domain.EncryptedRecord{
		Ciphertext: []byte{0xde, 0xad, 0xbe, 0xef, byte(seq)},
		Nonce:      bytes.Repeat([]byte{byte(seq)}, 12),
		Sequence:   seq,
		Timestamp:  time.Date(2026, 10, 15, 8, 0, int(seq), 0, time.UTC),
		SessionID:  "01JABCDEFGHJKMNPQRSTVWXYZ0",
		RideID:     ride,
	}
}

func newRedisStore(t *testing.T, ttl time.Duration) (*store.RedisRecordStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := store.NewRedisRecordStore(rdb, "test", ttl)
	t.Cleanup(func() {
		_ = s.Close()
		mr.Close()
	})
	return s, mr
}

func newFileStore(t *testing.T) *store.FileRecordStore {
	t.Helper()
	s, err := store.NewFileRecordStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileRecordStore: %v", err)
	}
	return s
}

// exerciseStore runs the behaviour every RecordStore must share.
func exerciseStore(t *testing.T, s domain.RecordStore) {
	t.Helper()
	ctx := context.Background()

	var ids []string
	for seq := uint64(0); seq < 3; seq++ {
		id, err := s.Append(ctx, sampleRecord("R1", seq))
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		ids = append(ids, id)
	}
	if _, err := s.Append(ctx, sampleRecord("R2", 0)); err != nil {
		t.Fatalf("Append R2: %v", err)
	}

	got, err := s.List(ctx, "R1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List returned %d records, want 3", len(got))
	}
	for i, rec := range got {
		want := sampleRecord("R1", uint64(i))
		if rec.ID != ids[i] {
			t.Fatalf("record %d id = %s, want %s", i, rec.ID, ids[i])
		}
		if rec.Record.Sequence != want.Sequence ||
			!bytes.Equal(rec.Record.Ciphertext, want.Ciphertext) ||
			!bytes.Equal(rec.Record.Nonce, want.Nonce) ||
			!rec.Record.Timestamp.Equal(want.Timestamp) ||
			rec.Record.SessionID != want.SessionID {
			t.Fatalf("record %d = %+v, want %+v", i, rec.Record, want)
		}
		if rec.StoredAt.IsZero() {
			t.Fatalf("record %d has no stored_at", i)
		}
	}

	if err := s.DeleteRide(ctx, "R1"); err != nil {
		t.Fatalf("DeleteRide: %v", err)
	}
	if got, err := s.List(ctx, "R1"); err != nil || len(got) != 0 {
		t.Fatalf("List after delete = %d records, %v", len(got), err)
	}
	if got, err := s.List(ctx, "R2"); err != nil || len(got) != 1 {
		t.Fatalf("other ride affected: %d records, %v", len(got), err)
	}
	if err := s.DeleteRide(ctx, "never-seen"); err != nil {
		t.Fatalf("DeleteRide unknown: %v", err)
	}

	bad := sampleRecord("R3", 0)
	bad.Nonce = nil
	if _, err := s.Append(ctx, bad); !errors.Is(err, domain.ErrInvalidRecord) {
		t.Fatalf("want ErrInvalidRecord, got %v", err)
	}
}

func TestRedisRecordStore(t *testing.T) {
	s, _ := newRedisStore(t, 0)
	exerciseStore(t, s)
}

func TestFileRecordStore(t *testing.T) {
	exerciseStore(t, newFileStore(t))
}

func TestRedisRecordStore_TTLRefreshedOnAppend(t *testing.T) {
	s, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	if _, err := s.Append(ctx, sampleRecord("R1", 0)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	key := "test:ride:R1:records"
	if ttl := mr.TTL(key); ttl != time.Hour {
		t.Fatalf("ttl = %v, want 1h", ttl)
	}

	mr.FastForward(50 * time.Minute)
	if _, err := s.Append(ctx, sampleRecord("R1", 1)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ttl := mr.TTL(key); ttl != time.Hour {
		t.Fatalf("ttl after append = %v, want 1h", ttl)
	}

	mr.FastForward(61 * time.Minute)
	if got, err := s.List(ctx, "R1"); err != nil || len(got) != 0 {
		t.Fatalf("List after expiry = %d records, %v", len(got), err)
	}
}

func TestRedisRecordStore_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	s := store.NewRedisRecordStore(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}), "", 0)
	defer s.Close()
	mr.Close()

	if _, err := s.Append(context.Background(), sampleRecord("R1", 0)); !errors.Is(err, store.ErrStoreUnavailable) {
		t.Fatalf("want ErrStoreUnavailable, got %v", err)
	}
}

func TestOpenRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()

	s, err := store.OpenRedis(context.Background(), "redis://"+mr.Addr()+"/0", time.Minute)
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	defer s.Close()
	if _, err := s.Append(context.Background(), sampleRecord("R1", 0)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if _, err := store.OpenRedis(context.Background(), "not a url", time.Minute); err == nil {
		t.Fatal("expected error for bad url")
	}
}

func TestFileRecordStore_PathsStayInsideDir(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewFileRecordStore(dir)
	if err != nil {
		t.Fatalf("NewFileRecordStore: %v", err)
	}
	if _, err := s.Append(context.Background(), sampleRecord("../../escape", 0)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "..", "escape.json")); !os.IsNotExist(err) {
		t.Fatalf("ride id escaped the store directory: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(dir, "rides"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("rides dir entries = %d, %v", len(entries), err)
	}
	info, _ := entries[0].Info()
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestFileRecordStore_ConcurrentAppends(t *testing.T) {
	s := newFileStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(seq uint64) {
			defer wg.Done()
			if _, err := s.Append(context.Background(), sampleRecord("R1", seq)); err != nil {
				t.Errorf("Append: %v", err)
			}
		}(uint64(i))
	}
	wg.Wait()
	got, err := s.List(context.Background(), "R1")
	if err != nil || len(got) != 20 {
		t.Fatalf("List = %d records, %v", len(got), err)
	}
}
