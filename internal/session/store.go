package session

import (
	"sync"
	"time"

	"github.com/Lixing-Zhang/sweetheart-kart/internal/cart"
	"github.com/google/uuid"
)

// Store holds sessions in memory
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	seed     func(*cart.Ledger)
}

// NewStore creates a store. seed, if set, prepares the ledger of every new
// session (for example offering catalog coupons).
func NewStore(seed func(*cart.Ledger)) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		seed:     seed,
	}
}

// Create starts a new session
func (s *Store) Create() *Session {
	sess := newSession(uuid.NewString())
	if s.seed != nil {
		s.seed(sess.Ledger)
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session with the given id
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		sess.touch()
	}
	return sess, ok
}

// GetOrCreate returns the session for id, or a new one when id is unknown.
// The boolean reports whether a session was created.
func (s *Store) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if sess, ok := s.Get(id); ok {
			return sess, false
		}
	}
	return s.Create(), true
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than maxIdle and returns how many
// were removed
func (s *Store) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
