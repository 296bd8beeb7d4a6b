package sessionstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/keto-dashboard/internal/domain/dashboard"
)

type sessionRecord struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Entries vanish after their TTL.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]sessionRecord
	now      func() time.Time
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[uuid.UUID]sessionRecord),
		now:      time.Now,
	}
}

// Create implements dashboard.SessionStore.
func (s *MemoryStore) Create(ctx context.Context, session dashboard.Session, ttl time.Duration) error {
	return s.Save(ctx, session, ttl)
}

// Get returns a copy of the stored session.
func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (dashboard.Session, bool, error) {
	s.mu.RLock()
	record, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return dashboard.Session{}, false, nil
	}
	if s.hasExpired(record.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return dashboard.Session{}, false, nil
	}
	var session dashboard.Session
	if err := json.Unmarshal(record.payload, &session); err != nil {
		return dashboard.Session{}, false, err
	}
	return session, true, nil
}

// Save stores the session snapshot. Callers never share memory with the store.
func (s *MemoryStore) Save(_ context.Context, session dashboard.Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	exp := time.Time{}
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = sessionRecord{payload: payload, expiresAt: exp}
	return nil
}

// Delete removes the session.
func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (s *MemoryStore) Sweep(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, record := range s.sessions {
		if s.hasExpired(record.expiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored sessions, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return !s.now().Before(ts)
}

var _ dashboard.SessionStore = (*MemoryStore)(nil)
