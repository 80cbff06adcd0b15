package store

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"ridecipher/internal/domain"
)

const ridesDir = "rides"

// FileRecordStore keeps one JSON array of records per ride under dir.
type FileRecordStore struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// NewFileRecordStore returns a store rooted at dir, creating it if needed.
func NewFileRecordStore(dir string) (*FileRecordStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, ridesDir), 0o700); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return &FileRecordStore{dir: dir, now: time.Now}, nil
}

// path encodes ride so arbitrary ids cannot escape the directory.
func (s *FileRecordStore) path(ride domain.RideID) string {
	name := base64.RawURLEncoding.EncodeToString([]byte(ride)) + ".json"
	return filepath.Join(s.dir, ridesDir, name)
}

// Append adds rec to its ride's file.
func (s *FileRecordStore) Append(ctx context.Context, rec domain.EncryptedRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	stored, err := newStoredRecord(rec, s.now())
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(rec.RideID)
	var records []domain.StoredRecord
	if err := readJSON(path, &records); err != nil {
		return "", err
	}
	records = append(records, stored)
	if err := writeJSON(path, records, 0o600); err != nil {
		return "", err
	}
	return stored.ID, nil
}

// List returns a ride's records in append order.
func (s *FileRecordStore) List(ctx context.Context, ride domain.RideID) ([]domain.StoredRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records := []domain.StoredRecord{}
	if err := readJSON(s.path(ride), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteRide removes a ride's file. Deleting an unknown ride is not an error.
func (s *FileRecordStore) DeleteRide(ctx context.Context, ride domain.RideID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(ride)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Close is a no-op.
func (s *FileRecordStore) Close() error { return nil }

var _ domain.RecordStore = (*FileRecordStore)(nil)
