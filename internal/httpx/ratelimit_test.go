package httpx

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func requestFrom(addr string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	r.RemoteAddr = addr
	return r
}

func TestRateLimitByIP(t *testing.T) {
	h := RateLimitByIP(RateLimitConfig{RequestsPerWindow: 2, Window: time.Hour, Burst: 2})(okHandler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("10.0.0.1:5000"))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom("10.0.0.1:5001"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, retry, 1)
	assert.JSONEq(t, `{"success":false,"message":"too many requests, try again later"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom("10.0.0.2:5000"))
	assert.Equal(t, http.StatusNoContent, rec.Code, "other clients keep their own bucket")
}

func TestRateLimitDisabled(t *testing.T) {
	h := RateLimitByIP(RateLimitConfig{})(okHandler())
	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("10.0.0.1:5000"))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestRateLimitEmptyKeyIsAllowed(t *testing.T) {
	h := RateLimitMiddleware(
		RateLimitConfig{RequestsPerWindow: 1, Window: time.Hour, Burst: 1},
		func(*http.Request) string { return "" },
	)(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("10.0.0.1:5000"))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestIPKeyExtractor(t *testing.T) {
	assert.Equal(t, "192.168.1.9", IPKeyExtractor(requestFrom("192.168.1.9:1234")))
	assert.Equal(t, "192.168.1.9", IPKeyExtractor(requestFrom("192.168.1.9")))
}
