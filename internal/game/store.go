package game

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultMaxSessions = 256

type entry struct {
	mu      sync.Mutex
	session *Session
}

// Store keeps the most recently used sessions in memory. The least recently
// used session is dropped once the store is full.
type Store struct {
	mu       sync.Mutex
	sessions *lru.Cache[string, *entry]
}

func NewStore(size int) (*Store, error) {
	if size <= 0 {
		size = DefaultMaxSessions
	}
	cache, err := lru.New[string, *entry](size)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &Store{sessions: cache}, nil
}

// Acquire returns the session for id, creating a fresh one when id is unknown
// or malformed. The caller owns the session until it calls release.
func (s *Store) Acquire(id string) (*Session, func()) {
	s.mu.Lock()
	e, ok := s.sessions.Get(id)
	if !ok {
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		e = &entry{session: NewSession(id)}
		s.sessions.Add(id, e)
	}
	s.mu.Unlock()

	e.mu.Lock()
	return e.session, e.mu.Unlock
}

func (s *Store) Len() int {
	return s.sessions.Len()
}
