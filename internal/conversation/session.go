package conversation

import (
	"sync"
	"time"
)

// Session carries the per-conversation mutable state: the state-machine step,
// the cooldown timestamp, and the bounded history fed to the LLM fallback.
// Sessions are created lazily and live for the process lifetime.
type Session struct {
	Step           Step
	LastActivityAt time.Time
	History        []Turn
}

// Store holds sessions keyed by conversation identifier. The map itself is
// mutex-guarded; field access on a Session relies on the dispatcher's
// at-most-one-in-flight-task-per-identifier guarantee.
type Store struct {
	mu           sync.Mutex
	sessions     map[string]*Session
	historyLimit int
}

// NewStore creates an empty session store capping history at historyLimit
// turns (oldest dropped first).
func NewStore(historyLimit int) *Store {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	return &Store{
		sessions:     make(map[string]*Session),
		historyLimit: historyLimit,
	}
}

// Get returns the session for id, creating it in step NEW with empty history
// when absent. It never fails.
func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{Step: StepNew}
		s.sessions[id] = sess
	}
	return sess
}

// Touch stamps the session's last-activity timestamp.
func (s *Store) Touch(id string, now time.Time) {
	s.Get(id).LastActivityAt = now
}

// SetStep moves the session to the given step.
func (s *Store) SetStep(id string, step Step) {
	s.Get(id).Step = step
}

// AppendHistory pushes a turn and truncates to the newest historyLimit
// entries.
func (s *Store) AppendHistory(id, role, content string) {
	sess := s.Get(id)
	sess.History = append(sess.History, Turn{Role: role, Content: content})
	if overflow := len(sess.History) - s.historyLimit; overflow > 0 {
		sess.History = sess.History[overflow:]
	}
}

// Len reports how many sessions exist. Used by tests and the health surface.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
