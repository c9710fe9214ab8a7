package shipment

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process Store used by tests and local runs.
type MemoryStore struct {
	mu  sync.Mutex
	now func() time.Time

	records map[string]Record
}

func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		now:     now,
		records: make(map[string]Record),
	}
}

func (s *MemoryStore) Upsert(_ context.Context, r Record) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	existing, ok := s.records[r.SessionReference]
	if ok {
		// Last write wins for shipping fields; settlement signature and
		// creation time survive.
		r.BurnTxSignature = existing.BurnTxSignature
		r.CreatedAt = existing.CreatedAt
	} else {
		r.BurnTxSignature = ""
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	s.records[r.SessionReference] = r
	return nil
}

func (s *MemoryStore) SetBurnSignature(_ context.Context, sessionReference, signature string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[sessionReference]
	if !ok {
		return false, nil
	}
	rec.BurnTxSignature = signature
	rec.UpdatedAt = s.now().UTC()
	s.records[sessionReference] = rec
	return true, nil
}

func (s *MemoryStore) Get(_ context.Context, sessionReference string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[sessionReference]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}
