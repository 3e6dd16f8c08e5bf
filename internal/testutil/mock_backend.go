// mock_backend.go - Fake Brickify backend for testing
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// DefaultAnalysis is the analysis payload returned unless overridden.
const DefaultAnalysis = `{"bricks":[{"part":"3001","color":"red","count":4}],"confidence":0.92}`

// ReceivedImage records one image the fake backend received.
type ReceivedImage struct {
	Filename      string
	ContentType   string
	Size          int
	Authorization string
}

// MockBackend is an httptest server speaking the backend's API.
type MockBackend struct {
	Server *httptest.Server

	mu             sync.Mutex
	analyzeStatus  int
	analyzeBody    string
	analyzeGate    chan struct{}
	analyzeStarted chan struct{}
	users          map[string]string
	tokenField     string
	images         []ReceivedImage
	loginCalls     int
	healthy        bool
}

// NewMockBackend starts a fake backend. Call Close when done.
func NewMockBackend() *MockBackend {
	m := &MockBackend{
		analyzeStatus: http.StatusOK,
		analyzeBody:   DefaultAnalysis,
		users:         make(map[string]string),
		tokenField:    "token",
		healthy:       true,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", m.handleAnalyze)
	mux.HandleFunc("/api/auth/login", m.handleLogin)
	mux.HandleFunc("/api/auth/register", m.handleRegister)
	mux.HandleFunc("/health", m.handleHealth)
	m.Server = httptest.NewServer(mux)
	return m
}

// URL returns the base URL of the fake backend.
func (m *MockBackend) URL() string {
	return m.Server.URL
}

// Close shuts the server down, releasing any held analysis first.
func (m *MockBackend) Close() {
	m.mu.Lock()
	if m.analyzeGate != nil {
		close(m.analyzeGate)
		m.analyzeGate = nil
	}
	m.mu.Unlock()
	m.Server.Close()
}

// SetAnalyzeResponse overrides the analysis status and body.
func (m *MockBackend) SetAnalyzeResponse(status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyzeStatus = status
	m.analyzeBody = body
}

// HoldAnalyze makes analysis requests block until the returned release
// function is called. The returned channel receives once per request that
// has started.
func (m *MockBackend) HoldAnalyze() (started <-chan struct{}, release func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gate := make(chan struct{})
	m.analyzeGate = gate
	m.analyzeStarted = make(chan struct{}, 16)
	var once sync.Once
	return m.analyzeStarted, func() {
		once.Do(func() {
			m.mu.Lock()
			if m.analyzeGate == gate {
				close(gate)
				m.analyzeGate = nil
			}
			m.mu.Unlock()
		})
	}
}

// AddUser registers credentials accepted by the login endpoint.
func (m *MockBackend) AddUser(email, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[email] = password
}

// UseAccessTokenField makes login answer with {"access_token": ...}.
func (m *MockBackend) UseAccessTokenField() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenField = "access_token"
}

// SetHealthy controls the health endpoint.
func (m *MockBackend) SetHealthy(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthy = ok
}

// Images returns every image received so far.
func (m *MockBackend) Images() []ReceivedImage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ReceivedImage(nil), m.images...)
}

// LoginCalls returns how many login requests arrived.
func (m *MockBackend) LoginCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loginCalls
}

func (m *MockBackend) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "image field missing"})
		return
	}
	data, _ := io.ReadAll(file)
	file.Close()

	m.mu.Lock()
	m.images = append(m.images, ReceivedImage{
		Filename:      header.Filename,
		ContentType:   header.Header.Get("Content-Type"),
		Size:          len(data),
		Authorization: r.Header.Get("Authorization"),
	})
	gate, started := m.analyzeGate, m.analyzeStarted
	status, body := m.analyzeStatus, m.analyzeBody
	m.mu.Unlock()

	if gate != nil {
		started <- struct{}{}
		<-gate
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func (m *MockBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid body"})
		return
	}

	m.mu.Lock()
	m.loginCalls++
	password, ok := m.users[req.Email]
	field := m.tokenField
	m.mu.Unlock()

	if !ok || password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
		return
	}
	resp := map[string]string{field: "token-" + req.Email}
	if field == "access_token" {
		resp["token_type"] = "bearer"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (m *MockBackend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid body"})
		return
	}

	m.mu.Lock()
	_, exists := m.users[req.Email]
	if !exists {
		m.users[req.Email] = req.Password
	}
	count := len(m.users)
	m.mu.Unlock()

	if exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Email already registered"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":        count,
		"email":     req.Email,
		"full_name": req.FullName,
	})
}

func (m *MockBackend) handleHealth(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	ok := m.healthy
	m.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
