package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"ordayna/backend/internal/audit"
	"ordayna/backend/internal/auth/service"
	"ordayna/backend/internal/platform/httpx"
	"ordayna/backend/internal/revocation"
	"ordayna/backend/internal/security"
	"ordayna/backend/internal/user/domain"
)

type fakeUserStore struct {
	user *domain.User
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if f.user != nil && f.user.ID == id {
		cp := *f.user
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if f.user != nil && f.user.Email == email {
		cp := *f.user
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUserStore) Exists(_ context.Context, id int64) (bool, error) {
	return f.user != nil && f.user.ID == id, nil
}

func (f *fakeUserStore) UpdatePasswordHash(_ context.Context, _ int64, hash string) error {
	f.user.PasswordHash = hash
	return nil
}

const testPassword = "correct-horse-battery"

func newTestHandler(t *testing.T) *HTTP {
	t.Helper()
	hasher := security.NewHasher(4)
	hash, err := hasher.Hash([]byte(testPassword))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	users := &fakeUserStore{user: &domain.User{
		ID:           1,
		Email:        "user@example.com",
		PasswordHash: hash,
	}}
	tokens := security.NewTokenProvider("test-secret", "http://ordayna.website", "http://ordayna.website",
		10*time.Minute, 360*time.Hour)
	ledger := revocation.NewMemoryLedger()
	t.Cleanup(ledger.Stop)
	auth := service.NewAuthService(tokens, hasher, ledger, users, zerolog.Nop())

	return NewHTTP(auth, audit.NewLogger(nil, zerolog.Nop()), false, zerolog.Nop())
}

func doLogin(t *testing.T, h *HTTP, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/token/get_refresh_token", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.GetRefreshToken(e.NewContext(req, rec)); err != nil {
		t.Fatalf("GetRefreshToken: %v", err)
	}
	return rec
}

func doWithCookie(t *testing.T, handle echo.HandlerFunc, target string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	if err := handle(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func TestGetRefreshToken(t *testing.T) {
	h := newTestHandler(t)
	rec := doLogin(t, h, `{"email":"user@example.com","pass":"`+testPassword+`"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	cookie := findCookie(t, rec, httpx.RefreshCookieName)
	if cookie.Value == "" {
		t.Error("refresh cookie is empty")
	}
	if cookie.Path != httpx.RefreshCookiePath {
		t.Errorf("cookie path want %s, got %s", httpx.RefreshCookiePath, cookie.Path)
	}
	if !cookie.HttpOnly {
		t.Error("refresh cookie should be HttpOnly")
	}
	if cookie.SameSite != http.SameSiteStrictMode {
		t.Error("refresh cookie should be SameSite=Strict")
	}
	if cookie.MaxAge != int((360 * time.Hour).Seconds()) {
		t.Errorf("cookie Max-Age want %d, got %d", int((360*time.Hour).Seconds()), cookie.MaxAge)
	}
}

func TestGetRefreshToken_WrongPassword(t *testing.T) {
	h := newTestHandler(t)
	rec := doLogin(t, h, `{"email":"user@example.com","pass":"not-the-password"}`)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status want 403, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "Unauthorised" {
		t.Errorf("body want %q, got %q", "Unauthorised", got)
	}
}

func TestGetRefreshToken_UnknownUser(t *testing.T) {
	h := newTestHandler(t)
	rec := doLogin(t, h, `{"email":"nobody@example.com","pass":"`+testPassword+`"}`)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status want 404, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "Not found" {
		t.Fatalf("body want %q, got %q", "Not found", body)
	}
}

func TestGetRefreshToken_InvalidInput(t *testing.T) {
	h := newTestHandler(t)
	cases := []struct {
		name string
		body string
	}{
		{"bad json", `{"email":`},
		{"missing email", `{"pass":"` + testPassword + `"}`},
		{"bad email", `{"email":"not-an-email","pass":"` + testPassword + `"}`},
		{"short password", `{"email":"user@example.com","pass":"short"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doLogin(t, h, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status want 400, got %d", rec.Code)
			}
			if got := rec.Body.String(); got != "Bad request" {
				t.Errorf("body want %q, got %q", "Bad request", got)
			}
		})
	}
}

func TestRefreshRefreshToken(t *testing.T) {
	h := newTestHandler(t)
	login := doLogin(t, h, `{"email":"user@example.com","pass":"`+testPassword+`"}`)
	old := findCookie(t, login, httpx.RefreshCookieName)

	rec := doWithCookie(t, h.RefreshRefreshToken, "/token/refresh_refresh_token", old)
	if rec.Code != http.StatusOK {
		t.Fatalf("status want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	fresh := findCookie(t, rec, httpx.RefreshCookieName)
	if fresh.Value == old.Value {
		t.Error("rotation should issue a different token")
	}

	// The presented token is revoked by the rotation.
	rec = doWithCookie(t, h.RefreshRefreshToken, "/token/refresh_refresh_token", old)
	if rec.Code != http.StatusForbidden {
		t.Errorf("rotated-away token: status want 403, got %d", rec.Code)
	}

	rec = doWithCookie(t, h.RefreshRefreshToken, "/token/refresh_refresh_token", fresh)
	if rec.Code != http.StatusOK {
		t.Errorf("fresh token: status want 200, got %d", rec.Code)
	}
}

func TestRefreshRefreshToken_NoCookie(t *testing.T) {
	h := newTestHandler(t)
	rec := doWithCookie(t, h.RefreshRefreshToken, "/token/refresh_refresh_token", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status want 400, got %d", rec.Code)
	}
}

func TestRefreshRefreshToken_GarbageToken(t *testing.T) {
	h := newTestHandler(t)
	cookie := &http.Cookie{Name: httpx.RefreshCookieName, Value: "not.a.jwt"}
	rec := doWithCookie(t, h.RefreshRefreshToken, "/token/refresh_refresh_token", cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status want 400, got %d", rec.Code)
	}
}

func TestGetAccessToken(t *testing.T) {
	h := newTestHandler(t)
	login := doLogin(t, h, `{"email":"user@example.com","pass":"`+testPassword+`"}`)
	refresh := findCookie(t, login, httpx.RefreshCookieName)

	rec := doWithCookie(t, h.GetAccessToken, "/token/get_access_token", refresh)
	if rec.Code != http.StatusOK {
		t.Fatalf("status want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	access := findCookie(t, rec, httpx.AccessCookieName)
	if access.Path != httpx.AccessCookiePath {
		t.Errorf("cookie path want %s, got %s", httpx.AccessCookiePath, access.Path)
	}
	if access.MaxAge != int((10 * time.Minute).Seconds()) {
		t.Errorf("cookie Max-Age want %d, got %d", int((10*time.Minute).Seconds()), access.MaxAge)
	}

	// Minting an access token does not consume the refresh token.
	rec = doWithCookie(t, h.GetAccessToken, "/token/get_access_token", refresh)
	if rec.Code != http.StatusOK {
		t.Errorf("second mint: status want 200, got %d", rec.Code)
	}
}

func TestGetAccessToken_AccessTokenRejected(t *testing.T) {
	h := newTestHandler(t)
	login := doLogin(t, h, `{"email":"user@example.com","pass":"`+testPassword+`"}`)
	refresh := findCookie(t, login, httpx.RefreshCookieName)
	mint := doWithCookie(t, h.GetAccessToken, "/token/get_access_token", refresh)
	access := findCookie(t, mint, httpx.AccessCookieName)

	// An access token presented where a refresh token is expected fails the
	// kind check.
	cookie := &http.Cookie{Name: httpx.RefreshCookieName, Value: access.Value}
	rec := doWithCookie(t, h.GetAccessToken, "/token/get_access_token", cookie)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status want 403, got %d", rec.Code)
	}
}
