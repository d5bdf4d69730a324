package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"streamnet/internal/handler"
	"streamnet/internal/model"
	"streamnet/internal/repository/memory"
	"streamnet/internal/service"
	"streamnet/internal/transport/http/middleware"
)

type noopSync struct{}

func (noopSync) UserChanged(ctx context.Context, u *model.User) {}
func (noopSync) UserDeleted(ctx context.Context, id int64)      {}

type testServer struct {
	handler  http.Handler
	repos    memory.Repositories
	sessions *service.SessionService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zap.NewNop()
	repos := memory.NewStore().Repositories()
	v := service.NewValidator()
	sessions := service.NewSessionService("test-secret", time.Hour)

	users := service.NewUserService(repos.Tx, repos.Users, v, service.NewAvatarSource("https://avatars.test"), noopSync{}, "admin-secret", log)
	friends := service.NewFriendService(repos.Tx, repos.Users, repos.Friends, log)
	admin := service.NewAdminService(repos.Tx, repos.Users, repos.Friends, repos.Stats, nil, noopSync{}, log)
	support := service.NewSupportService(repos.Support, v, log)

	return &testServer{
		handler: NewRouter(RouterConfig{
			AuthHandler:    handler.NewAuthHandler(users, sessions, false, log),
			UserHandler:    handler.NewUserHandler(users, friends, nil, log),
			AdminHandler:   handler.NewAdminHandler(admin, log),
			SupportHandler: handler.NewSupportHandler(support, log),
			Sessions:       sessions,
			Users:          repos.Users,
			AllowedOrigins: []string{"http://localhost:3000"},
			Log:            log,
		}),
		repos:    repos,
		sessions: sessions,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// signup registers an account and returns its session cookie.
func (s *testServer) signup(t *testing.T, email string) (*http.Cookie, int64) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/signup", model.SignupRequest{
		Email: email, Password: "secret123", FullName: "Test User",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		User model.User `json:"user"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode signup: %v", err)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c, resp.User.ID
		}
	}
	t.Fatal("signup did not set the session cookie")
	return nil, 0
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp.Error.Code
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRouter_SignupSetsSessionCookie(t *testing.T) {
	s := newTestServer(t)
	cookie, id := s.signup(t, "ann@example.com")

	if !cookie.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}
	if cookie.SameSite != http.SameSiteNoneMode {
		t.Errorf("SameSite = %v, want None", cookie.SameSite)
	}

	rec := s.do(t, http.MethodGet, "/api/auth/me", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		User model.User `json:"user"`
	}
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.User.ID != id {
		t.Errorf("me id = %d, want %d", resp.User.ID, id)
	}
}

func TestRouter_RequiresSession(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/auth/me", "/api/users/friends", "/api/admin/stats", "/api/support/tickets"} {
		rec := s.do(t, http.MethodGet, path, nil, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s status = %d, want 401", path, rec.Code)
			continue
		}
		if code := errorCode(t, rec); code != model.CodeUnauthorized {
			t.Errorf("%s code = %q", path, code)
		}
	}
}

func TestRouter_BearerHeader(t *testing.T) {
	s := newTestServer(t)
	_, id := s.signup(t, "bob@example.com")

	token, err := s.sessions.Issue(id)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRouter_BlockedUserIsStopped(t *testing.T) {
	s := newTestServer(t)
	cookie, id := s.signup(t, "cy@example.com")

	if _, err := s.repos.Users.SetBlocked(context.Background(), nil, id, true); err != nil {
		t.Fatalf("block: %v", err)
	}

	rec := s.do(t, http.MethodGet, "/api/users/friends", nil, cookie)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if code := errorCode(t, rec); code != model.CodeAccountBlocked {
		t.Errorf("code = %q, want %q", code, model.CodeAccountBlocked)
	}

	// A blocked user can still see their own account.
	if rec := s.do(t, http.MethodGet, "/api/auth/me", nil, cookie); rec.Code != http.StatusOK {
		t.Errorf("me status = %d, want 200", rec.Code)
	}
}

func TestRouter_AdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	cookie, _ := s.signup(t, "dee@example.com")

	for _, path := range []string{"/api/admin/stats", "/api/admin/users", "/api/support/admin/tickets"} {
		rec := s.do(t, http.MethodGet, path, nil, cookie)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s status = %d, want 403", path, rec.Code)
			continue
		}
		if code := errorCode(t, rec); code != model.CodeAdminRequired {
			t.Errorf("%s code = %q", path, code)
		}
	}
}

func TestRouter_BootstrapAdmin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/auth/create-admin", model.CreateAdminRequest{
		Email: "root@example.com", Password: "secret123", FullName: "Root", SecretKey: "admin-secret",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			session = c
		}
	}
	if session == nil {
		t.Fatal("bootstrap should sign the master admin in")
	}

	if rec := s.do(t, http.MethodGet, "/api/admin/stats", nil, session); rec.Code != http.StatusOK {
		t.Errorf("stats status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// A second anonymous call is no longer a bootstrap.
	rec = s.do(t, http.MethodPost, "/api/auth/create-admin", model.CreateAdminRequest{
		Email: "other@example.com", Password: "secret123", FullName: "Other", SecretKey: "admin-secret",
	}, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("second bootstrap status = %d, want 403", rec.Code)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q", got)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/nope", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRouter_ChatRoutesAbsentWithoutProvider(t *testing.T) {
	s := newTestServer(t)
	cookie, _ := s.signup(t, "eve@example.com")

	rec := s.do(t, http.MethodGet, "/api/chat/token", nil, cookie)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
