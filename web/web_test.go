package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visioweb/askboard/config"
	"github.com/visioweb/askboard/database"
	"github.com/visioweb/askboard/database/model"
	"github.com/visioweb/askboard/web/session"
)

type envelope struct {
	Success bool            `json:"success"`
	Msg     string          `json:"msg"`
	Obj     json.RawMessage `json:"obj"`
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	return newTestServerWith(t, nil)
}

// newTestServerWith lets configure adjust the configuration before the router is built.
func newTestServerWith(t *testing.T, configure func(*config.Config)) (*Server, *httptest.Server) {
	t.Helper()
	dbConfig := &config.DatabaseConfig{
		Type:   config.DatabaseTypeSQLite,
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "web.db")},
	}
	require.NoError(t, database.InitDB(dbConfig))
	t.Cleanup(func() { _ = database.CloseDB() })

	cfg := &config.Config{
		Env:              config.EnvDevelopment,
		SecretKey:        "web-test-secret",
		AdminEmail:       "admin@example.com",
		QuestionsPerPage: 10,
		AnswersPerPage:   10,
		ConfirmationTTL:  time.Hour,
		Database:         dbConfig,
	}
	if configure != nil {
		configure(cfg)
	}
	s := NewServer(cfg)
	engine, err := s.initRouter()
	require.NoError(t, err)
	ts := httptest.NewServer(engine)
	t.Cleanup(ts.Close)
	return s, ts
}

func newClient(t *testing.T, ts *httptest.Server) *client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: ts.URL, http: &http.Client{Jar: jar}}
}

func (c *client) do(method, path string, body any) (int, envelope) {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func register(t *testing.T, c *client, username, email string) model.User {
	code, env := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, code, env.Msg)
	return decode[model.User](t, env.Obj)
}

func confirm(t *testing.T, s *Server, c *client, id int) {
	user, err := s.services.Users.GetUser(id)
	require.NoError(t, err)
	tok, err := s.services.Users.GenerateConfirmationToken(user, 0)
	require.NoError(t, err)
	code, env := c.do(http.MethodGet, "/api/auth/confirm/"+tok, nil)
	require.Equal(t, http.StatusOK, code, env.Msg)
}

type questionResponse struct {
	Id              int  `json:"id"`
	CorrectAnswerId *int `json:"correctAnswerId"`
	Upvotes         int  `json:"upvotes"`
	Upvoted         bool `json:"upvoted"`
}

func TestQuestionFlow(t *testing.T) {
	s, ts := newTestServer(t)
	ann := newClient(t, ts)
	bob := newClient(t, ts)
	anon := newClient(t, ts)

	annUser := register(t, ann, "ann", "ann@example.com")
	assert.False(t, annUser.Confirmed)

	question := map[string]string{"title": "How do maps iterate?", "body": "In which order?"}
	code, _ := ann.do(http.MethodPost, "/api/questions", question)
	assert.Equal(t, http.StatusForbidden, code, "unconfirmed users cannot ask")

	confirm(t, s, ann, annUser.Id)
	code, env := ann.do(http.MethodPost, "/api/questions", question)
	require.Equal(t, http.StatusOK, code, env.Msg)
	q := decode[questionResponse](t, env.Obj)
	qPath := fmt.Sprintf("/api/questions/%d", q.Id)

	code, env = ann.do(http.MethodPost, qPath+"/upvote", nil)
	require.Equal(t, http.StatusOK, code, env.Msg)
	code, env = ann.do(http.MethodPost, qPath+"/upvote", nil)
	require.Equal(t, http.StatusOK, code, env.Msg)
	view := decode[questionResponse](t, env.Obj)
	assert.Equal(t, 1, view.Upvotes)
	assert.True(t, view.Upvoted)

	code, env = anon.do(http.MethodGet, qPath, nil)
	require.Equal(t, http.StatusOK, code)
	view = decode[questionResponse](t, env.Obj)
	assert.Equal(t, 1, view.Upvotes)
	assert.False(t, view.Upvoted)

	code, env = ann.do(http.MethodDelete, qPath+"/upvote", nil)
	require.Equal(t, http.StatusOK, code, env.Msg)
	assert.Equal(t, 0, decode[questionResponse](t, env.Obj).Upvotes)

	bobUser := register(t, bob, "bob", "bob@example.com")
	confirm(t, s, bob, bobUser.Id)
	code, env = bob.do(http.MethodPost, qPath+"/answers", map[string]string{"body": "Randomly."})
	require.Equal(t, http.StatusOK, code, env.Msg)
	answer := decode[model.Answer](t, env.Obj)

	code, _ = bob.do(http.MethodPut, qPath+"/correct", map[string]int{"answerId": answer.Id})
	assert.Equal(t, http.StatusForbidden, code)
	code, env = ann.do(http.MethodPut, qPath+"/correct", map[string]int{"answerId": answer.Id})
	require.Equal(t, http.StatusOK, code, env.Msg)

	_, env = anon.do(http.MethodGet, qPath, nil)
	view = decode[questionResponse](t, env.Obj)
	require.NotNil(t, view.CorrectAnswerId)
	assert.Equal(t, answer.Id, *view.CorrectAnswerId)

	code, env = anon.do(http.MethodGet, qPath+"/answers", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Obj), "Randomly.")

	code, _ = ann.do(http.MethodDelete, fmt.Sprintf("/api/answers/%d", answer.Id), nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = bob.do(http.MethodDelete, fmt.Sprintf("/api/answers/%d", answer.Id), nil)
	assert.Equal(t, http.StatusOK, code)
	_, env = anon.do(http.MethodGet, qPath, nil)
	assert.Nil(t, decode[questionResponse](t, env.Obj).CorrectAnswerId)

	code, env = anon.do(http.MethodGet, fmt.Sprintf("/api/users/%d/questions", annUser.Id), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Obj), "How do maps iterate?")

	code, _ = bob.do(http.MethodDelete, qPath, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = ann.do(http.MethodDelete, qPath, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = anon.do(http.MethodGet, qPath, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestFormErrors(t *testing.T) {
	s, ts := newTestServer(t)
	c := newClient(t, ts)
	user := register(t, c, "ann", "ann@example.com")
	confirm(t, s, c, user.Id)

	code, env := c.do(http.MethodPost, "/api/questions", map[string]string{"title": "  ", "body": "b"})
	assert.Equal(t, http.StatusBadRequest, code)
	fields := decode[map[string]string](t, env.Obj)
	assert.Equal(t, "is required", fields["title"])

	code, _ = c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username": "ann", "email": "other@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, code)
}

func TestAuthSession(t *testing.T) {
	_, ts := newTestServer(t)
	c := newClient(t, ts)
	register(t, c, "ann", "ann@example.com")

	code, _ := c.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = c.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = c.do(http.MethodPost, "/api/auth/login", map[string]string{"login": "ann", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := c.do(http.MethodPost, "/api/auth/login", map[string]any{
		"login": "ann@example.com", "password": "password123", "remember": true,
	})
	require.Equal(t, http.StatusOK, code, env.Msg)
	code, env = c.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, code)
	me := decode[model.User](t, env.Obj)
	assert.Equal(t, "ann", me.Username)
	assert.NotContains(t, string(env.Obj), "password")
}

func TestAdminLogs(t *testing.T) {
	_, ts := newTestServer(t)
	user := newClient(t, ts)
	admin := newClient(t, ts)
	register(t, user, "ann", "ann@example.com")
	adminUser := register(t, admin, "root", "Admin@example.com")
	assert.True(t, adminUser.IsAdmin)

	code, _ := user.do(http.MethodGet, "/api/admin/logs", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := admin.do(http.MethodGet, "/api/admin/logs?count=5&level=DEBUG", nil)
	require.Equal(t, http.StatusOK, code)
	logs := decode[[]string](t, env.Obj)
	assert.NotEmpty(t, logs)
	assert.LessOrEqual(t, len(logs), 5)
}

func TestNotFound(t *testing.T) {
	_, ts := newTestServer(t)
	c := newClient(t, ts)

	code, _ := c.do(http.MethodGet, "/api/questions/999", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = c.do(http.MethodGet, "/api/questions/abc", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = c.do(http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestInitRouterNeedsSecret(t *testing.T) {
	s := NewServer(&config.Config{})
	_, err := s.initRouter()
	assert.Error(t, err)
}

func post(t *testing.T, url string, body any, header http.Header, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	require.FailNow(t, "no session cookie in response")
	return nil
}

func TestSessionCookieOptions(t *testing.T) {
	_, ts := newTestServerWith(t, func(cfg *config.Config) { cfg.Env = config.EnvProduction })
	credentials := map[string]any{"login": "ann", "password": "password123", "remember": true}

	resp := post(t, ts.URL+"/api/auth/register", map[string]string{
		"username": "ann", "email": "ann@example.com", "password": "password123",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	registered := sessionCookie(t, resp)
	assert.True(t, registered.Secure)
	assert.True(t, registered.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, registered.SameSite)

	resp = post(t, ts.URL+"/api/auth/login", credentials, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	remembered := sessionCookie(t, resp)
	assert.Equal(t, session.RememberMaxAge, remembered.MaxAge)
	assert.True(t, remembered.Secure)
	assert.True(t, remembered.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, remembered.SameSite)

	resp = post(t, ts.URL+"/api/auth/logout", nil, nil, remembered)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cleared := sessionCookie(t, resp)
	assert.Less(t, cleared.MaxAge, 0)
	assert.True(t, cleared.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cleared.SameSite)
}

func TestLoginRateLimitIgnoresForwardedFor(t *testing.T) {
	tests := []struct {
		name    string
		proxies []string
		limited bool
	}{
		{"untrusted header", nil, true},
		{"trusted proxy", []string{"127.0.0.1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ts := newTestServerWith(t, func(cfg *config.Config) { cfg.TrustedProxies = tt.proxies })

			codes := map[int]int{}
			for i := 0; i < 40; i++ {
				header := http.Header{"X-Forwarded-For": {fmt.Sprintf("203.0.113.%d", i+1)}}
				resp := post(t, ts.URL+"/api/auth/login", map[string]string{"login": "ann", "password": "wrong"}, header)
				codes[resp.StatusCode]++
			}
			if tt.limited {
				assert.Positive(t, codes[http.StatusTooManyRequests], "codes: %v", codes)
				assert.Less(t, codes[http.StatusUnauthorized], 40, "codes: %v", codes)
			} else {
				assert.Equal(t, 40, codes[http.StatusUnauthorized], "codes: %v", codes)
			}
		})
	}
}
