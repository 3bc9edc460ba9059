package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopzen/storefront/internal/domain"
	"github.com/shopzen/storefront/internal/http/handlers"
	mw "github.com/shopzen/storefront/internal/http/middleware"
	"github.com/shopzen/storefront/pkg/auth"
	"github.com/shopzen/storefront/pkg/config"
)

// ---------- Mocks ----------

type mockAuthService struct {
	users map[int64]*domain.User
}

func newMockAuthService() *mockAuthService {
	return &mockAuthService{users: make(map[int64]*domain.User)}
}

func (m *mockAuthService) Register(_ context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	u := &domain.User{
		ID:     int64(len(m.users) + 1),
		Role:   domain.RoleCustomer,
		Name:   req.Name,
		Mobile: req.Mobile,
		Email:  req.Email,
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockAuthService) Login(_ context.Context, req *domain.LoginRequest) (*domain.User, error) {
	for _, u := range m.users {
		if (req.Email != "" && u.Email == req.Email) || (req.Mobile != "" && u.Mobile == req.Mobile) {
			if req.Password == "correct-horse" {
				return u, nil
			}
			break
		}
	}
	return nil, domain.ErrInvalidCredentials
}

func (m *mockAuthService) GetUser(_ context.Context, id int64) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (m *mockAuthService) ListUsers(_ context.Context, limit, offset int) ([]domain.User, error) {
	var out []domain.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockAuthService) UpdateUserRole(_ context.Context, id int64, role string) error {
	u, ok := m.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Role = role
	return nil
}

// mockLinkingService plays out the two-phase flow: fresh credentials produce a
// pending challenge and each pending token completes exactly once.
type mockLinkingService struct {
	auth     *mockAuthService
	pendings map[string]bool // token -> consumed
	nextTok  int
}

func newMockLinkingService(auth *mockAuthService) *mockLinkingService {
	return &mockLinkingService{auth: auth, pendings: make(map[string]bool)}
}

func (m *mockLinkingService) BeginThirdPartyLogin(_ context.Context, credential string) (domain.LoginOutcome, error) {
	if credential == "" || credential == "bad" {
		return domain.LoginOutcome{}, domain.ErrIdentityAssertion
	}
	m.nextTok++
	token := fmt.Sprintf("pending-%d", m.nextTok)
	m.pendings[token] = false
	return domain.RequireMobile(token), nil
}

func (m *mockLinkingService) CompleteRegistration(_ context.Context, pendingToken, mobile string) (domain.LoginOutcome, error) {
	normalized, err := domain.NormalizeMobile(mobile)
	if err != nil {
		return domain.LoginOutcome{}, err
	}
	consumed, ok := m.pendings[pendingToken]
	if !ok {
		return domain.LoginOutcome{}, domain.ErrExpiredPending
	}
	if consumed {
		return domain.LoginOutcome{}, domain.ErrAlreadyCompleted
	}
	m.pendings[pendingToken] = true

	u := &domain.User{
		ID:     int64(len(m.auth.users) + 1),
		Role:   domain.RoleCustomer,
		Name:   "Google User",
		Mobile: normalized,
		Email:  "google@example.com",
	}
	m.auth.users[u.ID] = u
	return domain.LoggedIn(u), nil
}

// ---------- Helpers ----------

type authFixture struct {
	auth    *mockAuthService
	linking *mockLinkingService
	tokens  *auth.TokenService
	server  *httptest.Server
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:  "test-secret",
			SessionTTL: time.Hour,
			CookieName: "session_token",
		},
	}

	f := &authFixture{auth: newMockAuthService()}
	f.linking = newMockLinkingService(f.auth)
	f.tokens = auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)

	h := handlers.New(f.auth, f.linking, nil, nil, nil, f.tokens, cfg)
	guard := mw.NewAccessGuard(f.tokens, cfg.Auth.CookieName)

	f.server = httptest.NewServer(h.Routes(guard))
	t.Cleanup(f.server.Close)
	return f
}

func (f *authFixture) post(t *testing.T, path string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(f.server.URL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, into interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "session_token" {
			return c
		}
	}
	return nil
}

type sessionBody struct {
	Success bool            `json:"success"`
	Token   string          `json:"token"`
	User    json.RawMessage `json:"user"`
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ---------- Tests ----------

func TestLogin_IssuesSessionEnvelope(t *testing.T) {
	f := newAuthFixture(t)
	f.auth.users[1] = &domain.User{
		ID: 1, Role: domain.RoleAdmin, Name: "Asha", Mobile: "01712345678", Email: "asha@example.com",
		PasswordHash: "secret-hash",
	}

	resp := f.post(t, "/auth/login", domain.LoginRequest{Email: "asha@example.com", Password: "correct-horse"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	cookie := sessionCookie(resp)
	if cookie == nil {
		t.Fatal("session cookie was not set")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}

	var body sessionBody
	decodeJSON(t, resp, &body)
	if !body.Success {
		t.Error("success = false, want true")
	}
	if body.Token != cookie.Value {
		t.Error("envelope token and cookie value must match")
	}

	// The token must carry the stored role, not a default.
	claims, err := f.tokens.Verify(body.Token)
	if err != nil {
		t.Fatalf("issued token failed verification: %v", err)
	}
	if claims.Sub != 1 || claims.Role != domain.RoleAdmin {
		t.Errorf("claims = sub %d role %q", claims.Sub, claims.Role)
	}

	// The projection never leaks credential material.
	var projection map[string]interface{}
	if err := json.Unmarshal(body.User, &projection); err != nil {
		t.Fatalf("decode user projection: %v", err)
	}
	for _, field := range []string{"password", "password_hash", "PasswordHash"} {
		if _, leaked := projection[field]; leaked {
			t.Errorf("projection leaks %q", field)
		}
	}
	if projection["name"] != "Asha" || projection["role"] != "admin" {
		t.Errorf("projection = %v", projection)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newAuthFixture(t)

	resp := f.post(t, "/auth/login", domain.LoginRequest{Email: "nobody@example.com", Password: "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	var body errorBody
	decodeJSON(t, resp, &body)
	if body.Code != "INVALID_CREDENTIALS" {
		t.Errorf("code = %q", body.Code)
	}
	if sessionCookie(resp) != nil {
		t.Error("failed login must not set a cookie")
	}
}

func TestGoogleLogin_NewIdentityGetsChallenge(t *testing.T) {
	f := newAuthFixture(t)

	resp := f.post(t, "/auth/google", domain.GoogleLoginRequest{Credential: "good-token"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if sessionCookie(resp) != nil {
		t.Error("a pending challenge must not set a session cookie")
	}

	var body struct {
		RequireMobile bool   `json:"requireMobile"`
		PendingToken  string `json:"pendingToken"`
		Token         string `json:"token"`
	}
	decodeJSON(t, resp, &body)
	if !body.RequireMobile {
		t.Error("requireMobile = false, want true")
	}
	if body.PendingToken == "" {
		t.Error("expected a pending token")
	}
	if body.Token != "" {
		t.Error("challenge response must not carry a session token")
	}
}

func TestGoogleLogin_RejectedAssertion(t *testing.T) {
	f := newAuthFixture(t)

	resp := f.post(t, "/auth/google", domain.GoogleLoginRequest{Credential: "bad"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	var body errorBody
	decodeJSON(t, resp, &body)
	if body.Code != "IDENTITY_ASSERTION_INVALID" {
		t.Errorf("code = %q", body.Code)
	}
}

func TestGoogleComplete_OnceThenConflict(t *testing.T) {
	f := newAuthFixture(t)

	begin := f.post(t, "/auth/google", domain.GoogleLoginRequest{Credential: "good-token"})
	var challenge struct {
		PendingToken string `json:"pendingToken"`
	}
	decodeJSON(t, begin, &challenge)

	complete := domain.CompleteRegistrationRequest{PendingToken: challenge.PendingToken, Mobile: "01712345678"}

	first := f.post(t, "/auth/google/complete", complete)
	if first.StatusCode != http.StatusOK {
		t.Fatalf("first completion status = %d, want 200", first.StatusCode)
	}
	if sessionCookie(first) == nil {
		t.Error("completion must establish a session cookie")
	}
	var body sessionBody
	decodeJSON(t, first, &body)
	if !body.Success || body.Token == "" {
		t.Errorf("envelope = %+v", body)
	}

	second := f.post(t, "/auth/google/complete", complete)
	if second.StatusCode != http.StatusConflict {
		t.Fatalf("second completion status = %d, want 409", second.StatusCode)
	}
	var conflict errorBody
	decodeJSON(t, second, &conflict)
	if conflict.Code != "ALREADY_COMPLETED" {
		t.Errorf("code = %q", conflict.Code)
	}
}

func TestGoogleComplete_InvalidMobile(t *testing.T) {
	f := newAuthFixture(t)

	begin := f.post(t, "/auth/google", domain.GoogleLoginRequest{Credential: "good-token"})
	var challenge struct {
		PendingToken string `json:"pendingToken"`
	}
	decodeJSON(t, begin, &challenge)

	resp := f.post(t, "/auth/google/complete", domain.CompleteRegistrationRequest{
		PendingToken: challenge.PendingToken,
		Mobile:       "not-a-number",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var body errorBody
	decodeJSON(t, resp, &body)
	if body.Code != "INVALID_MOBILE" {
		t.Errorf("code = %q", body.Code)
	}
}

func TestGoogleComplete_MissingToken(t *testing.T) {
	f := newAuthFixture(t)

	resp := f.post(t, "/auth/google/complete", domain.CompleteRegistrationRequest{Mobile: "01712345678"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGoogleComplete_UnknownTokenExpired(t *testing.T) {
	f := newAuthFixture(t)

	resp := f.post(t, "/auth/google/complete", domain.CompleteRegistrationRequest{
		PendingToken: "never-issued",
		Mobile:       "01712345678",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var body errorBody
	decodeJSON(t, resp, &body)
	if body.Code != "EXPIRED_PENDING" {
		t.Errorf("code = %q", body.Code)
	}
}

func TestMe_WithSessionCookie(t *testing.T) {
	f := newAuthFixture(t)
	f.auth.users[7] = &domain.User{
		ID: 7, Role: domain.RoleCustomer, Name: "Rafiq", Mobile: "01812345678",
	}
	token, err := f.tokens.Issue(7, domain.RoleCustomer)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, f.server.URL+"/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: token})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /auth/me: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var info domain.UserInfo
	decodeJSON(t, resp, &info)
	if info.ID != 7 || info.Name != "Rafiq" {
		t.Errorf("info = %+v", info)
	}
}

func TestMe_WithoutToken(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := http.Get(f.server.URL + "/auth/me")
	if err != nil {
		t.Fatalf("GET /auth/me: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	var body errorBody
	decodeJSON(t, resp, &body)
	if body.Code != "MISSING_TOKEN" {
		t.Errorf("code = %q", body.Code)
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	f := newAuthFixture(t)

	resp := f.post(t, "/auth/logout", map[string]string{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	cookie := sessionCookie(resp)
	if cookie == nil {
		t.Fatal("logout must rewrite the session cookie")
	}
	if cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Errorf("cookie = %+v, want cleared", cookie)
	}
}
