package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/atmoslabs/weatherhub/internal/security"
	"github.com/gin-gonic/gin"
)

// memStore is an in-memory CounterStore. TTLs are ignored; these tests never
// cross a window boundary.
type memStore struct {
	counts map[string]int64
	values map[string]string
	lists  map[string][]string
}

func newMemStore() *memStore {
	return &memStore{
		counts: make(map[string]int64),
		values: make(map[string]string),
		lists:  make(map[string][]string),
	}
}

func (s *memStore) Increment(_ context.Context, key string) (int64, error) {
	s.counts[key]++
	return s.counts[key], nil
}

func (s *memStore) Expire(context.Context, string, time.Duration) error { return nil }

func (s *memStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.values[key]
	return ok, nil
}

func (s *memStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	s.values[key] = value
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	delete(s.values, key)
	return nil
}

func (s *memStore) ListPrepend(_ context.Context, key, value string) error {
	s.lists[key] = append([]string{value}, s.lists[key]...)
	return nil
}

func (s *memStore) ListLength(_ context.Context, key string) (int64, error) {
	return int64(len(s.lists[key])), nil
}

func (s *memStore) KeysWithPrefix(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for key := range s.values {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func newRateLimitedRouter(gate *security.RateGate, category string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ping", RateLimit(gate, category), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestRateLimit_AllowsUnderCeiling(t *testing.T) {
	gate := security.NewRateGate(newMemStore(), security.Config{SearchPerMinute: 3})
	router := newRateLimitedRouter(gate, CategorySearch)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("User-Agent", "test-client")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
		if w.Header().Get("X-RateLimit-Remaining") == "" {
			t.Fatal("expected X-RateLimit-Remaining header")
		}
	}
}

func TestRateLimit_RejectsOverCeiling(t *testing.T) {
	gate := security.NewRateGate(newMemStore(), security.Config{SearchPerMinute: 2})
	router := newRateLimitedRouter(gate, CategorySearch)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("User-Agent", "test-client")
		router.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", last.Code)
	}
	if !strings.Contains(last.Body.String(), "rate limit exceeded") {
		t.Fatalf("unexpected body: %s", last.Body.String())
	}
	if last.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on a denied request")
	}
}

func TestRateLimit_SeparateClientsDoNotShareBudget(t *testing.T) {
	gate := security.NewRateGate(newMemStore(), security.Config{SearchPerMinute: 1})
	router := newRateLimitedRouter(gate, CategorySearch)

	for _, agent := range []string{"client-a", "client-b"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("User-Agent", agent)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("agent %s: expected 200, got %d", agent, w.Code)
		}
	}
}

func TestRequestGuard_RejectsBotUserAgent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ping", RequestGuard(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("User-Agent", "Googlebot/2.1")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for bot user agent, got %d", w.Code)
	}
}

func TestRequestGuard_RejectsOversizedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/ping", RequestGuard(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ping", strings.NewReader("x"))
	req.Header.Set("User-Agent", "test-client")
	req.ContentLength = 2 << 20
	router.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for oversized body, got %d", w.Code)
	}
}

func TestRequestGuard_AllowsChunkedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/ping", RequestGuard(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ping", strings.NewReader("streamed"))
	req.Header.Set("User-Agent", "test-client")
	// Chunked transfer encoding reports an unknown length.
	req.ContentLength = -1
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected chunked request to pass the guard, got %d", w.Code)
	}
}

func TestRequestGuard_CapsBodyWhileReading(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/ping", RequestGuard(), func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	body := strings.NewReader(strings.Repeat("x", security.MaxRequestBytes+1))
	req := httptest.NewRequest(http.MethodPost, "/ping", body)
	req.Header.Set("User-Agent", "test-client")
	req.ContentLength = -1
	router.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected oversized chunked body to fail while reading, got %d", w.Code)
	}
}

func TestRequestGuard_AllowsNormalRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ping", RequestGuard(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
