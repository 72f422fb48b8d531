package session

import (
	"sync"
)

// State tags the FSM node a user is currently in. The empty state means the
// user is at the top level with no flow in progress.
type State string

const StateNone State = ""

// Session is the ephemeral per-user conversation state: the current FSM
// node plus the form fields accumulated so far.
type Session struct {
	State State
	Data  map[string]string
}

func (s *Session) Set(key, value string) {
	if s.Data == nil {
		s.Data = make(map[string]string)
	}
	s.Data[key] = value
}

func (s *Session) Get(key string) string {
	return s.Data[key]
}

// Reset drops both the state tag and accumulated fields.
func (s *Session) Reset() {
	s.State = StateNone
	s.Data = nil
}

// Store keeps sessions in memory, keyed by user id. Each user's updates are
// serialized: Do holds a per-user lock for the duration of the callback, so
// a double-tapped input never races against itself. Different users proceed
// in parallel.
type Store struct {
	mu    sync.Mutex
	slots map[int64]*slot
}

type slot struct {
	mu   sync.Mutex
	sess Session
}

func NewStore() *Store {
	return &Store{slots: make(map[int64]*slot)}
}

func (st *Store) acquire(userID int64) *slot {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.slots[userID]
	if !ok {
		s = &slot{}
		st.slots[userID] = s
	}
	return s
}

// Do runs fn with exclusive access to the user's session. Mutations made by
// fn are kept.
func (st *Store) Do(userID int64, fn func(sess *Session)) {
	s := st.acquire(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.sess)
}

// Peek returns a copy of the user's session without holding the lock for
// the caller.
func (st *Store) Peek(userID int64) Session {
	s := st.acquire(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := s.sess
	if s.sess.Data != nil {
		copied.Data = make(map[string]string, len(s.sess.Data))
		for k, v := range s.sess.Data {
			copied.Data[k] = v
		}
	}
	return copied
}
