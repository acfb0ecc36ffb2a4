package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shop-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/shop-backend/pkg/errors"
)

type fakeCounterStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{counts: map[string]int64{}}
}

func (f *fakeCounterStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeCounterStore) RateLimitKey(scope string) string {
	return "test:rl:" + scope
}

func loginRequest(email, remote string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/auth/login/", strings.NewReader(`{"email":"`+email+`","password":"secret"}`))
	req.RemoteAddr = remote
	return req
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestAuthRateLimitKeepsBodyForHandler(t *testing.T) {
	throttle := Throttle{Name: "login", Window: time.Minute, PerIP: 2, PerEmail: 2}
	handler := AuthRateLimit(throttle, newFakeCounterStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Contains(t, string(body), `"email":"tester@example.com"`)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("tester@example.com", "1.2.3.4:5678"))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRateLimitPerEmail(t *testing.T) {
	throttle := Throttle{Name: "login", Window: time.Minute, PerEmail: 2}
	handler := AuthRateLimit(throttle, newFakeCounterStore(), nil)(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, loginRequest("blocked@example.com", "1.2.3.4:5678"))
		if i < 2 {
			require.Equal(t, http.StatusOK, rec.Code)
			continue
		}
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.Equal(t, "60", rec.Header().Get("Retry-After"))
		require.Equal(t, string(pkgerrors.CodeRateLimit), errorCode(t, rec.Body.Bytes()))
	}
}

func TestAuthRateLimitPerIP(t *testing.T) {
	throttle := RegisterThrottle(config.AuthRateLimitConfig{RegisterWindow: time.Minute, RegisterIPLimit: 1})
	handler := AuthRateLimit(throttle, newFakeCounterStore(), nil)(okHandler())

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, loginRequest("a@example.com", "5.6.7.8:1234"))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, loginRequest("b@example.com", "5.6.7.8:1234"))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestAuthRateLimitDisabledPassesThrough(t *testing.T) {
	store := newFakeCounterStore()
	calls := 0
	handler := AuthRateLimit(LoginThrottle(config.AuthRateLimitConfig{LoginIPLimit: 1, LoginEmailLimit: 1}), store, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))

	for i := 0; i < 3; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), loginRequest("a@example.com", "1.1.1.1:1"))
	}
	require.Equal(t, 3, calls)
	require.Empty(t, store.counts)
}

func TestAuthRateLimitKeyLayout(t *testing.T) {
	store := newFakeCounterStore()
	handler := AuthRateLimit(Throttle{Name: "Login", Window: time.Minute, PerIP: 5, PerEmail: 5}, store, nil)(okHandler())

	req := loginRequest(" Mixed@Example.com ", "")
	req.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.EqualValues(t, 1, store.counts["test:rl:login:ip:9.9.9.9"])
	require.EqualValues(t, 1, store.counts["test:rl:login:email:"+sha256Hex("mixed@example.com")])
}

func TestAuthRateLimitStoreFailure(t *testing.T) {
	store := newFakeCounterStore()
	store.err = errors.New("redis down")
	handler := AuthRateLimit(Throttle{Name: "login", Window: time.Minute, PerIP: 1}, store, nil)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("a@example.com", "1.1.1.1:1"))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
