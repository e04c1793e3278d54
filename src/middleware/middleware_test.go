package middleware

import (
	"budget-bee-server/src/auth"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoUser(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(UserID(r).String()))
}

func TestJWTAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	userID := uuid.New()
	token, err := tokens.Issue(userID, false)
	require.NoError(t, err)
	h := JWTAuthMiddleware(tokens)(http.HandlerFunc(echoUser))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"no bearer prefix", token, http.StatusUnauthorized},
		{"bad token", "Bearer abc", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, userID.String(), rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"success":false`)
			}
		})
	}
}

func TestSuperAdminMiddleware(t *testing.T) {
	h := SuperAdminMiddleware(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithUser(req.Context(), uuid.New(), false)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithUser(req.Context(), uuid.New(), true)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware([]string{"https://app.example.com"})(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodOptions, "/api/accounts", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestDemoModeMiddleware(t *testing.T) {
	h := DemoModeMiddleware(true)(http.HandlerFunc(echoUser))

	tests := []struct {
		method string
		path   string
		admin  bool
		status int
	}{
		{http.MethodGet, "/api/accounts", false, http.StatusOK},
		{http.MethodPost, "/api/auth/login", false, http.StatusOK},
		{http.MethodPost, "/api/transactions", false, http.StatusForbidden},
		{http.MethodDelete, "/api/accounts/1", false, http.StatusForbidden},
		{http.MethodPost, "/api/transactions", true, http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		req = req.WithContext(WithUser(req.Context(), uuid.New(), tt.admin))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tt.status, rec.Code, "%s %s", tt.method, tt.path)
	}

	rec := httptest.NewRecorder()
	DemoModeMiddleware(false)(http.HandlerFunc(echoUser)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/transactions", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
