package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"authapi/backend/internal/config"
	"authapi/backend/internal/infrastructure/memory"
	"authapi/backend/internal/infrastructure/password"
	"authapi/backend/internal/infrastructure/token"
	authusecase "authapi/backend/internal/usecase/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"
	testIssuer = "auth-test"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	hasher, err := password.NewManager(password.Options{BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	tokens, err := token.NewJWTManager(testSecret, 15*time.Minute, testIssuer)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := authusecase.NewService(memory.NewUserRepository(), hasher, tokens, logger)

	reg := prometheus.NewRegistry()
	authusecase.RegisterMetrics(reg)

	cfg := config.Config{
		HTTPPort:       "0",
		AllowedOrigins: []string{"http://localhost:3000"},
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		IdleTimeout:    5 * time.Second,
	}
	return NewServer(cfg, svc, logger, reg)
}

func do(t *testing.T, srv *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %s", rec.Body.String())
	return body
}

const annSignup = `{"name":"Ann","email":"ann@x.com","password":"secret1","role":"Analyst"}`

func signupAndLogin(t *testing.T, srv *Server) string {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/auth/signup", annSignup, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, srv, http.MethodPost, "/auth/login", `{"email":"ann@x.com","password":"secret1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	return decodeBody(t, rec)["access_token"].(string)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRequestIDIsPropagated(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/health", "", map[string]string{requestIDHeader: "req-42"})
	assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
}

func TestSignupAndLogin(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/auth/signup", annSignup, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "User created successfully", decodeBody(t, rec)["message"])

	rec = do(t, srv, http.MethodPost, "/auth/login", `{"email":"ANN@x.com","password":"secret1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["access_token"])
	assert.Equal(t, "bearer", body["token_type"])
	assert.Equal(t, "Analyst", body["role"])
}

func TestSignupErrors(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/auth/signup", annSignup, nil).Code)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "duplicate email", body: `{"name":"Ann","email":"Ann@X.com","password":"other","role":"Manager"}`, status: http.StatusConflict},
		{name: "unknown role", body: `{"name":"Bob","email":"bob@x.com","password":"pw","role":"Guest"}`, status: http.StatusBadRequest},
		{name: "bad email", body: `{"name":"Bob","email":"bob","password":"pw","role":"Admin"}`, status: http.StatusBadRequest},
		{name: "empty password", body: `{"name":"Bob","email":"bob@x.com","password":"","role":"Admin"}`, status: http.StatusBadRequest},
		{name: "invalid json", body: `{"name":`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/auth/signup", tt.body, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, decodeBody(t, rec)["detail"])
		})
	}
}

func TestLoginFailuresShareOneResponse(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/auth/signup", annSignup, nil).Code)

	wrongPassword := do(t, srv, http.MethodPost, "/auth/login", `{"email":"ann@x.com","password":"nope"}`, nil)
	unknownEmail := do(t, srv, http.MethodPost, "/auth/login", `{"email":"zed@x.com","password":"secret1"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	assert.Equal(t, "Invalid credentials", decodeBody(t, wrongPassword)["detail"])
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/auth/login", "", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestMe(t *testing.T) {
	srv := newTestServer(t)
	tok := signupAndLogin(t, srv)

	rec := do(t, srv, http.MethodGet, "/auth/me", "", map[string]string{"Authorization": "Bearer " + tok})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ann@x.com", body["email"])
	assert.Equal(t, "Analyst", body["role"])
	assert.NotEmpty(t, body["expires_at"])
}

func TestMeRejectsBadTokens(t *testing.T) {
	srv := newTestServer(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, token.Claims{
		Role: "Analyst",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ann@x.com",
			Issuer:    testIssuer,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	expiredToken, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, token.Claims{
		Role: "Admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ann@x.com",
			Issuer:    testIssuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	forgedToken, err := forged.SignedString([]byte("ffffffffffffffffffffffffffffffff"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		detail string
	}{
		{name: "missing header", header: "", detail: "authorization token required"},
		{name: "wrong scheme", header: "Basic abc", detail: "authorization token required"},
		{name: "malformed", header: "Bearer not-a-jwt", detail: "token malformed"},
		{name: "expired", header: "Bearer " + expiredToken, detail: "token expired"},
		{name: "wrong key", header: "Bearer " + forgedToken, detail: "token invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			rec := do(t, srv, http.MethodGet, "/auth/me", "", headers)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
			assert.Equal(t, tt.detail, decodeBody(t, rec)["detail"])
		})
	}
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodOptions, "/auth/login", "", map[string]string{"Origin": "http://localhost:3000"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, srv, http.MethodOptions, "/auth/login", "", map[string]string{"Origin": "http://evil.example"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	signupAndLogin(t, srv)

	rec := do(t, srv, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "auth_signups_total")
	assert.Contains(t, rec.Body.String(), "auth_logins_total")
}

func TestRecoverFromPanic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := withRecover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), logger)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServeOverNetwork(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := ts.Client().Post(ts.URL+"/auth/signup", "application/json", bytes.NewBufferString(annSignup))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	ts.Client().CloseIdleConnections()
}

func TestExtractBearerToken(t *testing.T) {
	assert.Equal(t, "abc", extractBearerToken("Bearer abc"))
	assert.Equal(t, "abc", extractBearerToken("bearer  abc "))
	assert.Empty(t, extractBearerToken("Bearer"))
	assert.Empty(t, extractBearerToken("Token abc"))
	assert.Empty(t, extractBearerToken(""))
}
