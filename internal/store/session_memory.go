package store

import (
	"sync"

	"talenthub/pkg/domain"
)

// MemorySessionStore keeps sessions in-process. Sessions do not expire and
// vanish on restart; Redis is used where either matters.
type MemorySessionStore struct {
	mu   sync.RWMutex
	sess map[string]string // token -> user ID
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sess: make(map[string]string)}
}

func (s *MemorySessionStore) NewSession(userID string) (string, error) {
	token := domain.NewID()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess[token] = userID
	return token, nil
}

func (s *MemorySessionStore) GetUserIDByToken(token string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.sess[token]
	return id, ok, nil
}

func (s *MemorySessionStore) DeleteSession(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sess, token)
	return nil
}
