package session

import (
	"sync"
	"time"

	"github.com/brickify/web/internal/models"
	"github.com/brickify/web/internal/uploadgate"
)

// Session is the per-browser state that pages need: authentication and the
// analysis page's upload gate and last outcome. It is passed explicitly to
// handlers instead of living in ambient client storage.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu           sync.RWMutex
	token        string
	email        string
	lastResult   models.AnalysisResult
	lastError    string
	lastAccessed time.Time

	gate *uploadgate.Gate
}

// Gate returns the session's upload gate.
func (s *Session) Gate() *uploadgate.Gate {
	return s.gate
}

// Token returns the bearer token, empty when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Email returns the signed-in user's email.
func (s *Session) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

// Authenticated reports whether a token is held.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// SignIn stores the token returned by the backend.
func (s *Session) SignIn(email, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email = email
	s.token = token
}

// SignOut drops authentication state and the last analysis.
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email = ""
	s.token = ""
	s.lastResult = nil
	s.lastError = ""
}

// BeginAnalysis clears the previous outcome before a new submission.
func (s *Session) BeginAnalysis() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResult = nil
	s.lastError = ""
}

// SetResult records a successful analysis.
func (s *Session) SetResult(r models.AnalysisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResult = r
	s.lastError = ""
}

// SetError records the user-facing message of a failed submission.
func (s *Session) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResult = nil
	s.lastError = msg
}

// Outcome returns the last analysis result and error message.
func (s *Session) Outcome() (models.AnalysisResult, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult, s.lastError
}

// LastAccessed returns when the session was last touched.
func (s *Session) LastAccessed() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccessed
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccessed = now
}
