package session

import (
	"context"
	"sync"
	"time"

	"github.com/dukerupert/jotter/internal/model"
)

// MemoryStore keeps sessions in process memory. Sessions do not survive a
// restart and are not shared between replicas.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]model.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, userID int64) (*model.Session, error) {
	token, hash, err := NewToken()
	if err != nil {
		return nil, err
	}
	sess := model.Session{
		TokenHash: hash,
		UserID:    userID,
		ExpiresAt: s.now().UTC().Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[hash] = sess
	s.mu.Unlock()

	sess.Token = token
	return &sess, nil
}

func (s *MemoryStore) Get(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	s.mu.RLock()
	sess, ok := s.sessions[Hash(token)]
	s.mu.RUnlock()
	if !ok || !sess.ExpiresAt.After(s.now()) {
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, Hash(token))
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeleteByUserID(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, hash)
		}
	}
	return nil
}

func (s *MemoryStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var n int64
	for hash, sess := range s.sessions {
		if !sess.ExpiresAt.After(now) {
			delete(s.sessions, hash)
			n++
		}
	}
	return n, nil
}
