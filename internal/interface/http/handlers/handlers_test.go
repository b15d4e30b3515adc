package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCompositeHealthChecker(t *testing.T) {
	hc := NewCompositeHealthChecker("1.2.3")

	status := hc.Check(context.Background())
	assert.True(t, status.Ready)
	assert.Equal(t, "No health checks registered", status.Message)

	hc.AddCheck("snapshot", PingCheck(pingerFunc(func(context.Context) error { return nil })))
	hc.AddCheck("settings_db", func(context.Context) error { return errors.New("locked") })
	hc.AddCheck("redis", func(context.Context) error { return errors.New("refused") })

	status = hc.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.False(t, status.Ready)
	assert.Equal(t, "Some checks failed: redis, settings_db", status.Message)
	assert.Equal(t, "locked", status.Checks["settings_db"].Message)
	assert.True(t, status.Checks["snapshot"].Healthy)
	assert.Equal(t, "1.2.3", status.Version)

	hc.RemoveCheck("settings_db")
	hc.RemoveCheck("redis")
	status = hc.Check(context.Background())
	assert.True(t, status.Ready)
	assert.Equal(t, "All checks passed", status.Message)
}

func TestCompositeHealthChecker_Timeout(t *testing.T) {
	hc := NewCompositeHealthChecker("")
	hc.SetTimeout(20 * time.Millisecond)
	hc.AddCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	status := hc.Check(context.Background())

	assert.False(t, status.Ready)
	assert.Equal(t, context.DeadlineExceeded.Error(), status.Checks["slow"].Message)
}

func TestAdminAuth(t *testing.T) {
	hash, err := HashToken("token-1")
	require.NoError(t, err)
	auth := NewAdminAuth(hash)

	assert.True(t, auth.IsValid("token-1"))
	assert.True(t, auth.IsValid("token-1"), "cached verification")
	assert.False(t, auth.IsValid("token-2"))
	assert.False(t, auth.IsValid(""))
	assert.False(t, NewAdminAuth("").IsValid("token-1"))

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := auth.Middleware(ok)

	cases := []struct {
		header string
		want   int
		code   string
	}{
		{"", http.StatusUnauthorized, "missing_token"},
		{"Basic abc", http.StatusUnauthorized, "missing_token"},
		{"Bearer nope", http.StatusUnauthorized, "invalid_token"},
		{"Bearer token-1", http.StatusNoContent, ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, tc.want, rec.Code, tc.header)
		if tc.code != "" {
			assert.Contains(t, rec.Body.String(), tc.code)
		}
	}
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	h := RequestSizeLimitMiddleware(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("tiny")))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeadersMiddleware(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
