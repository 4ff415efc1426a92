package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Billy-Davies-2/teamforge/internal/logger"
)

func init() {
	logger.Init("error")
}

func echoOperator(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(OperatorID(r)))
}

func TestMockAuthIdentifiesOperator(t *testing.T) {
	m := NewMockAuth()
	h := m.APIMiddleware(echoOperator)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/members", nil))
	assert.Equal(t, DevUser.ID, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	req.Header.Set(OperatorHeader, "op-42")
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, "op-42", rec.Body.String())
}

func TestMockAuthLoginSession(t *testing.T) {
	m := NewMockAuth()

	rec := httptest.NewRecorder()
	m.LoginHandler(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookie, cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	require.NotNil(t, m.sessions.lookup(req))

	m.LogoutHandler(httptest.NewRecorder(), req)
	assert.Nil(t, m.sessions.lookup(req))
}

func TestContextHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, GetUser(req))
	assert.Empty(t, OperatorID(req))

	user := &User{ID: "u1", Groups: []string{"admins"}}
	req = req.WithContext(WithUser(req.Context(), user))
	assert.Equal(t, "u1", OperatorID(req))
	assert.True(t, IsAdmin(GetUser(req)))
	assert.False(t, IsAdmin(&User{ID: "u2"}))
	assert.False(t, IsAdmin(nil))
}

// fakeAuthentik serves the token and userinfo endpoints
func fakeAuthentik(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/application/o/token/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "access-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/application/o/userinfo/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"sub":                "operator-sub",
			"email":              "op@example.com",
			"preferred_username": "op",
			"groups":             []string{"users"},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthentikLoginRedirect(t *testing.T) {
	a := NewAuthentikAuth(&AuthentikConfig{BaseURL: "https://sso.example.com", ClientID: "cid", RedirectURL: "http://localhost/auth/callback"})

	rec := httptest.NewRecorder()
	a.LoginHandler(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/application/o/authorize/", loc.Path)
	assert.Equal(t, "cid", loc.Query().Get("client_id"))
	assert.NotEmpty(t, loc.Query().Get("state"))
}

func TestAuthentikCallbackCreatesSession(t *testing.T) {
	srv := fakeAuthentik(t)
	a := NewAuthentikAuth(&AuthentikConfig{BaseURL: srv.URL, ClientID: "cid", ClientSecret: "secret"})

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=s1&code=good-code", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "s1"})
	rec := httptest.NewRecorder()
	a.CallbackHandler(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			session = c
		}
	}
	require.NotNil(t, session)

	api := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	api.AddCookie(session)
	rec = httptest.NewRecorder()
	a.APIMiddleware(echoOperator)(rec, api)
	assert.Equal(t, "operator-sub", rec.Body.String())
}

func TestAuthentikCallbackRejectsBadState(t *testing.T) {
	a := NewAuthentikAuth(&AuthentikConfig{BaseURL: "https://sso.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=other&code=x", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "s1"})
	rec := httptest.NewRecorder()
	a.CallbackHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	a.CallbackHandler(rec, httptest.NewRequest(http.MethodGet, "/auth/callback", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthentikMiddlewareRejectsAnonymous(t *testing.T) {
	a := NewAuthentikAuth(&AuthentikConfig{BaseURL: "https://sso.example.com"})

	rec := httptest.NewRecorder()
	a.APIMiddleware(echoOperator)(rec, httptest.NewRequest(http.MethodGet, "/api/members", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "authentication required"))

	rec = httptest.NewRecorder()
	a.Middleware(echoOperator)(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
}

func TestAuthentikLogout(t *testing.T) {
	a := NewAuthentikAuth(&AuthentikConfig{BaseURL: "https://sso.example.com"})

	rec := httptest.NewRecorder()
	a.LogoutHandler(rec, httptest.NewRequest(http.MethodGet, "/auth/logout", nil))
	assert.Equal(t, "https://sso.example.com/application/o/teamforge/end-session/", rec.Header().Get("Location"))
}
