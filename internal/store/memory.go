package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"
)

// memoryStore is the in-memory implementation of [Store]. It backs tests and
// ephemeral engine setups; contents are lost on process exit.
type memoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Record

	// failPut, when set, makes every Put return the given error. Tests use
	// it to exercise the persistence-failure paths of the queue.
	failPut error
}

// NewMemoryStore returns an empty in-memory [Store].
func NewMemoryStore() Store {
	return &memoryStore{collections: make(map[string]map[string]Record)}
}

// NewFailingMemoryStore returns an in-memory store whose Put always fails
// with err. Reads and deletes still work on whatever was seeded beforehand.
func NewFailingMemoryStore(err error) Store {
	return &memoryStore{collections: make(map[string]map[string]Record), failPut: err}
}

func (s *memoryStore) Get(_ context.Context, collection, key string) (Record, error) {
	if collection == "" || key == "" {
		return Record{}, ErrEmptyKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.collections[collection][key]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	rec.Data = slices.Clone(rec.Data)
	return rec, nil
}

func (s *memoryStore) Put(_ context.Context, record Record) error {
	if record.Collection == "" || record.Key == "" {
		return ErrEmptyKey
	}
	if s.failPut != nil {
		return s.failPut
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record.Data = slices.Clone(record.Data)
	record.UpdatedAt = time.Now().UTC()

	coll, ok := s.collections[record.Collection]
	if !ok {
		coll = make(map[string]Record)
		s.collections[record.Collection] = coll
	}
	coll[record.Key] = record

	return nil
}

func (s *memoryStore) Delete(_ context.Context, collection, key string) error {
	if collection == "" || key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], key)
	return nil
}

func (s *memoryStore) GetAll(_ context.Context, collection string) ([]Record, error) {
	if collection == "" {
		return nil, ErrEmptyKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	coll := s.collections[collection]
	records := make([]Record, 0, len(coll))
	for _, rec := range coll {
		rec.Data = slices.Clone(rec.Data)
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })

	return records, nil
}
