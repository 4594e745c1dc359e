package repository

import (
	"context"
	"sync"
)

type MemoryStorage struct {
	mu      sync.Mutex
	records map[string]Record
	// last version of deleted keys
	tombstones map[string]int64
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records:    make(map[string]Record),
		tombstones: make(map[string]int64),
	}
}

func (s *MemoryStorage) Get(_ context.Context, key string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.Value = append([]byte(nil), rec.Value...)
	return rec, nil
}

func (s *MemoryStorage) Put(_ context.Context, key string, value []byte, expectedVersion int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.records[key]
	if expectedVersion != AnyVersion {
		if expectedVersion == 0 && exists {
			return 0, ErrVersionConflict
		}
		if expectedVersion > 0 && (!exists || current.Version != expectedVersion) {
			return 0, ErrVersionConflict
		}
	}

	if !exists {
		current.Version = s.tombstones[key]
		delete(s.tombstones, key)
	}
	next := current.Version + 1
	s.records[key] = Record{Value: append([]byte(nil), value...), Version: next}
	return next, nil
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[key]; ok {
		s.tombstones[key] = rec.Version
		delete(s.records, key)
	}
	return nil
}
