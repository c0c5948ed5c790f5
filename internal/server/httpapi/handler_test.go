package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndegtyarev/eventauth/internal/logging"
	"github.com/ndegtyarev/eventauth/internal/server/config"
	"github.com/ndegtyarev/eventauth/internal/server/repositories/repomanager"
	"github.com/ndegtyarev/eventauth/internal/server/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type testServer struct {
	router   *gin.Engine
	accounts *services.AccountService
	sessions *services.SessionService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "0123456789abcdef0123456789abcdef"
	cfg.AccessTokenValidityDuration = 15 * time.Minute
	cfg.RefreshTokenValidityDuration = 24 * time.Hour

	m := repomanager.NewMemoryRepositoryManager()
	logger := testLogger()
	accounts := services.NewAccountService(nil, m, logger)
	sessions, err := services.NewSessionService(nil, m, accounts, cfg, logger)
	require.NoError(t, err)

	h := NewHandler(sessions, accounts, logger)
	return &testServer{router: h.Router(), accounts: accounts, sessions: sessions}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func signupBody(username string) map[string]string {
	return map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "s3cret-pass",
	}
}

func (ts *testServer) signupAndLogin(t *testing.T, username string) map[string]any {
	t.Helper()

	w := ts.do(t, http.MethodPost, "/api/v1/auth/signup", signupBody(username), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username,
		"password": "s3cret-pass",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	return decodeBody(t, w)
}

func bearer(token any) map[string]string {
	return map[string]string{"Authorization": fmt.Sprintf("Bearer %v", token)}
}

func TestSignup(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/auth/signup", signupBody("alice"), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, true, body["is_active"])
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "password_hash")
}

func TestSignup_Duplicate(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/auth/signup", signupBody("alice"), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/auth/signup", signupBody("alice"), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSignup_InvalidBody(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"username": "alice",
		"email":    "not-an-email",
		"password": "s3cret-pass",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	body := ts.signupAndLogin(t, "alice")

	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])
	assert.Equal(t, "bearer", body["token_type"])
	assert.Equal(t, float64(15*60), body["expires_in"])

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice", user["username"])
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.signupAndLogin(t, "alice")

	w := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "alice",
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefresh_RotatesToken(t *testing.T) {
	ts := newTestServer(t)
	login := ts.signupAndLogin(t, "alice")

	w := ts.do(t, http.MethodPost, "/api/v1/auth/refresh", map[string]any{
		"refresh_token": login["refresh_token"],
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rotated := decodeBody(t, w)
	assert.NotEqual(t, login["refresh_token"], rotated["refresh_token"])

	// The consumed value must be dead.
	w = ts.do(t, http.MethodPost, "/api/v1/auth/refresh", map[string]any{
		"refresh_token": login["refresh_token"],
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The successor keeps working.
	w = ts.do(t, http.MethodPost, "/api/v1/auth/refresh", map[string]any{
		"refresh_token": rotated["refresh_token"],
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRefresh_UnknownToken(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": "never-issued",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	login := ts.signupAndLogin(t, "alice")

	w := ts.do(t, http.MethodPost, "/api/v1/auth/logout", map[string]any{
		"refresh_token": login["refresh_token"],
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["revoked"])

	// Second logout with the same value is a no-op, not an error.
	w = ts.do(t, http.MethodPost, "/api/v1/auth/logout", map[string]any{
		"refresh_token": login["refresh_token"],
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["revoked"])

	w = ts.do(t, http.MethodPost, "/api/v1/auth/refresh", map[string]any{
		"refresh_token": login["refresh_token"],
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutAll(t *testing.T) {
	ts := newTestServer(t)
	first := ts.signupAndLogin(t, "alice")

	// Two more device sessions.
	for i := 0; i < 2; i++ {
		w := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
			"username": "alice",
			"password": "s3cret-pass",
		}, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := ts.do(t, http.MethodPost, "/api/v1/auth/logout-all", nil, bearer(first["access_token"]))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decodeBody(t, w)["revoked_sessions"])

	// Access token stays valid until expiry, but refresh is dead.
	w = ts.do(t, http.MethodGet, "/api/v1/auth/me", nil, bearer(first["access_token"]))
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/auth/refresh", map[string]any{
		"refresh_token": first["refresh_token"],
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe(t *testing.T) {
	ts := newTestServer(t)
	login := ts.signupAndLogin(t, "alice")

	w := ts.do(t, http.MethodGet, "/api/v1/auth/me", nil, bearer(login["access_token"]))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decodeBody(t, w)["username"])
}

func TestMe_MissingToken(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe_GarbageToken(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/auth/me", nil, bearer("not.a.jwt"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/auth/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeBody(t, w)["status"])
}
