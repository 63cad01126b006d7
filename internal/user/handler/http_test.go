package handler

import (
	"context"
	"encoding/json"
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

// memUsers is an in-memory account store. It backs both the handler and the
// auth service in these tests.
type memUsers struct {
	nextID int64
	users  map[int64]*domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{nextID: 1, users: make(map[int64]*domain.User)}
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := m.users[id]
	return ok, nil
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	u.ID = m.nextID
	m.nextID++
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) Delete(_ context.Context, id int64) error {
	delete(m.users, id)
	return nil
}

func (m *memUsers) UpdateDisplayName(_ context.Context, id int64, displayName string) error {
	if u, ok := m.users[id]; ok {
		u.DisplayName = displayName
	}
	return nil
}

func (m *memUsers) UpdatePhone(_ context.Context, id int64, phone string) error {
	if u, ok := m.users[id]; ok {
		u.Phone = phone
	}
	return nil
}

func (m *memUsers) UpdatePasswordHash(_ context.Context, id int64, passwordHash string) error {
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

// fakeSweeper records orphan sweeps.
type fakeSweeper struct {
	calls int
}

func (f *fakeSweeper) DeleteOrphaned(_ context.Context) error {
	f.calls++
	return nil
}

const testPassword = "correct-horse-battery"

type testHandler struct {
	h       *HTTP
	users   *memUsers
	ledger  *revocation.MemoryLedger
	sweeper *fakeSweeper
}

func newTestHandler(t *testing.T) *testHandler {
	t.Helper()
	users := newMemUsers()
	hasher := security.NewHasher(4)
	tokens := security.NewTokenProvider("test-secret", "http://ordayna.website", "http://ordayna.website",
		10*time.Minute, 360*time.Hour)
	ledger := revocation.NewMemoryLedger()
	t.Cleanup(ledger.Stop)
	auth := service.NewAuthService(tokens, hasher, ledger, users, zerolog.Nop())
	sweeper := &fakeSweeper{}
	h := NewHTTP(users, auth, hasher, sweeper, audit.NewLogger(nil, zerolog.Nop()), false, zerolog.Nop())
	return &testHandler{h: h, users: users, ledger: ledger, sweeper: sweeper}
}

func (th *testHandler) addUser(t *testing.T, email, phone string) *domain.User {
	t.Helper()
	hasher := security.NewHasher(4)
	hash, err := hasher.Hash([]byte(testPassword))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	u := &domain.User{DisplayName: "Tester", Email: email, Phone: phone, PasswordHash: hash}
	if err := th.users.Create(context.Background(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return u
}

func do(t *testing.T, handle echo.HandlerFunc, method, target, body string, userID int64) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID > 0 {
		httpx.SetUserID(c, userID)
	}
	if err := handle(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestCreateUser(t *testing.T) {
	th := newTestHandler(t)

	rec := do(t, th.h.Create, http.MethodPost, "/user/create",
		`{"disp_name":"Tester","email":"user@example.com","pass":"`+testPassword+`","phone_number":"36301234567"}`, 0)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status want 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(th.users.users) != 1 {
		t.Fatalf("want 1 stored user, got %d", len(th.users.users))
	}
	if got := th.users.users[1].PasswordHash; got == testPassword || got == "" {
		t.Error("password stored without hashing")
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	th := newTestHandler(t)
	th.addUser(t, "user@example.com", "")

	rec := do(t, th.h.Create, http.MethodPost, "/user/create",
		`{"disp_name":"Tester","email":"user@example.com","pass":"`+testPassword+`"}`, 0)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status want 400, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "Already exists" {
		t.Fatalf("body want %q, got %q", "Already exists", body)
	}
}

func TestCreateUser_Invalid(t *testing.T) {
	th := newTestHandler(t)
	cases := []struct {
		name string
		body string
	}{
		{"empty display name", `{"disp_name":"","email":"user@example.com","pass":"` + testPassword + `"}`},
		{"bad email", `{"disp_name":"Tester","email":"not-an-email","pass":"` + testPassword + `"}`},
		{"short password", `{"disp_name":"Tester","email":"user@example.com","pass":"short"}`},
		{"bad phone", `{"disp_name":"Tester","email":"user@example.com","pass":"` + testPassword + `","phone_number":"+36 30 123"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, th.h.Create, http.MethodPost, "/user/create", tc.body, 0)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status want 400, got %d", rec.Code)
			}
		})
	}
}

func TestProfile(t *testing.T) {
	th := newTestHandler(t)
	u := th.addUser(t, "user@example.com", "36301234567")

	rec := do(t, th.h.Profile, http.MethodGet, "/user/profile", "", u.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status want 200, got %d", rec.Code)
	}
	var got struct {
		ID          int64   `json:"id"`
		DisplayName string  `json:"display_name"`
		Email       string  `json:"email"`
		PhoneNumber *string `json:"phone_number"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != u.ID || got.Email != "user@example.com" {
		t.Errorf("profile mismatch: %+v", got)
	}
	if got.PhoneNumber == nil || *got.PhoneNumber != "36301234567" {
		t.Errorf("phone_number want 36301234567, got %v", got.PhoneNumber)
	}
}

// An account without a phone number serialises phone_number as null rather
// than an empty string.
func TestProfile_NoPhone(t *testing.T) {
	th := newTestHandler(t)
	u := th.addUser(t, "user@example.com", "")

	rec := do(t, th.h.Profile, http.MethodGet, "/user/profile", "", u.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status want 200, got %d", rec.Code)
	}
	var got map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(got["phone_number"]) != "null" {
		t.Errorf("phone_number want null, got %s", got["phone_number"])
	}
}

func TestDeleteUser(t *testing.T) {
	th := newTestHandler(t)
	u := th.addUser(t, "user@example.com", "")
	before := time.Now()

	rec := do(t, th.h.Delete, http.MethodDelete, "/user/delete",
		`{"pass":"`+testPassword+`"}`, u.ID)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status want 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(th.users.users) != 0 {
		t.Error("account should be gone")
	}
	if th.sweeper.calls != 1 {
		t.Errorf("orphan sweeps want 1, got %d", th.sweeper.calls)
	}

	// Every session issued before the deletion is dead.
	revoked, err := th.ledger.IsRevoked(context.Background(), u.ID, "some-jti", before)
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if !revoked {
		t.Error("sessions issued before deletion still live")
	}

	// Both session cookies are cleared.
	cookies := rec.Result().Cookies()
	for _, name := range []string{httpx.RefreshCookieName, httpx.AccessCookieName} {
		cleared := findCookie(cookies, name)
		if cleared == nil {
			t.Errorf("cookie %s not cleared", name)
			continue
		}
		if cleared.MaxAge != -1 || cleared.Value != "" {
			t.Errorf("cookie %s: MaxAge=%d Value=%q, want expired and empty", name, cleared.MaxAge, cleared.Value)
		}
	}
}

func TestDeleteUser_WrongPassword(t *testing.T) {
	th := newTestHandler(t)
	u := th.addUser(t, "user@example.com", "")

	rec := do(t, th.h.Delete, http.MethodDelete, "/user/delete",
		`{"pass":"not-the-password"}`, u.ID)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status want 403, got %d", rec.Code)
	}
	if len(th.users.users) != 1 {
		t.Error("account should survive a failed deletion")
	}
	if th.sweeper.calls != 0 {
		t.Error("orphan sweep should not run on a failed deletion")
	}
}

func TestChangeDisplayName(t *testing.T) {
	th := newTestHandler(t)
	u := th.addUser(t, "user@example.com", "")

	rec := do(t, th.h.ChangeDisplayName, http.MethodPost, "/user/change/display_name",
		`{"new_disp_name":"Renamed"}`, u.ID)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status want 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := th.users.users[u.ID].DisplayName; got != "Renamed" {
		t.Errorf("display name want Renamed, got %s", got)
	}

	rec = do(t, th.h.ChangeDisplayName, http.MethodPost, "/user/change/display_name",
		`{"new_disp_name":""}`, u.ID)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty name: status want 400, got %d", rec.Code)
	}
}

func TestChangePhoneNumber(t *testing.T) {
	th := newTestHandler(t)
	u := th.addUser(t, "user@example.com", "")

	rec := do(t, th.h.ChangePhoneNumber, http.MethodPost, "/user/change/phone_number",
		`{"new_phone_number":"36301234567"}`, u.ID)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status want 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := th.users.users[u.ID].Phone; got != "36301234567" {
		t.Errorf("phone want 36301234567, got %s", got)
	}

	rec = do(t, th.h.ChangePhoneNumber, http.MethodPost, "/user/change/phone_number",
		`{"new_phone_number":"not digits"}`, u.ID)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad phone: status want 400, got %d", rec.Code)
	}
}

func TestChangePassword(t *testing.T) {
	th := newTestHandler(t)
	u := th.addUser(t, "user@example.com", "")
	oldHash := th.users.users[u.ID].PasswordHash

	rec := do(t, th.h.ChangePassword, http.MethodPost, "/user/change/password",
		`{"pass":"`+testPassword+`","new_pass":"a-brand-new-secret"}`, u.ID)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status want 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if th.users.users[u.ID].PasswordHash == oldHash {
		t.Error("password hash unchanged")
	}

	// Both session cookies are cleared.
	cookies := rec.Result().Cookies()
	for _, name := range []string{httpx.RefreshCookieName, httpx.AccessCookieName} {
		if c := findCookie(cookies, name); c == nil || c.MaxAge != -1 {
			t.Errorf("cookie %s not cleared", name)
		}
	}
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	th := newTestHandler(t)
	u := th.addUser(t, "user@example.com", "")
	oldHash := th.users.users[u.ID].PasswordHash

	rec := do(t, th.h.ChangePassword, http.MethodPost, "/user/change/password",
		`{"pass":"not-the-password","new_pass":"a-brand-new-secret"}`, u.ID)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status want 403, got %d", rec.Code)
	}
	if th.users.users[u.ID].PasswordHash != oldHash {
		t.Error("password hash changed on a refused request")
	}
}
