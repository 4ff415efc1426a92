package auth

import (
	"net/http"
	"strings"
	"time"
)

// OperatorHeader lets development clients act as a specific operator
const OperatorHeader = "X-Operator-ID"

// DevUser is the operator assumed by MockAuth when nothing identifies the caller
var DevUser = User{
	ID:       "dev-operator",
	Email:    "dev@teamforge.local",
	Name:     "Dev Operator",
	Username: "devoperator",
	Groups:   []string{"users", "admins"},
}

// MockAuth provides a mock authentication for local development
type MockAuth struct {
	sessions *sessions
}

// NewMockAuth creates a new mock authentication handler
func NewMockAuth() *MockAuth {
	return &MockAuth{sessions: newSessions()}
}

// LoginHandler auto-creates a session for the dev operator
func (m *MockAuth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	user := DevUser
	session := m.sessions.create(&user, nil, time.Now().Add(24*time.Hour))
	setSessionCookie(w, session, false)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// CallbackHandler is not needed for mock auth
func (m *MockAuth) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LogoutHandler for mock auth
func (m *MockAuth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	m.sessions.remove(r)
	clearCookie(w, sessionCookie)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// identify prefers the operator header, then a session, then the dev operator
func (m *MockAuth) identify(r *http.Request) *User {
	if id := strings.TrimSpace(r.Header.Get(OperatorHeader)); id != "" {
		return &User{ID: id, Username: id, Name: id}
	}
	if session := m.sessions.lookup(r); session != nil {
		return session.User
	}
	user := DevUser
	return &user
}

// Middleware for mock auth never rejects a request
func (m *MockAuth) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), m.identify(r))))
	}
}

// APIMiddleware for mock auth
func (m *MockAuth) APIMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return m.Middleware(next)
}
