package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/FieldScope/FS-Backend/internal/middleware"
	"github.com/FieldScope/FS-Backend/internal/utils"
)

func limitedRequest(handler http.Handler, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	if userID != "" {
		ctx := context.WithValue(req.Context(), utils.ContextUserIDKey, userID)
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// TestRateLimiter_MissingUserID verifies the limiter refuses requests that
// reach it without a session (misconfigured middleware order).
func TestRateLimiter_MissingUserID(t *testing.T) {
	rl := middleware.NewRateLimiter(6, 3)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := limitedRequest(handler, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

// TestRateLimiter_BurstThenReject verifies the burst is honored and the
// next request gets 429 with a Retry-After header.
func TestRateLimiter_BurstThenReject(t *testing.T) {
	rl := middleware.NewRateLimiter(1, 2) // 1/min refill, burst of 2
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		if rec := limitedRequest(handler, "user-a"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := limitedRequest(handler, "user-a")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on 429")
	}
}

// TestRateLimiter_PerUserBuckets verifies one user exhausting their bucket
// does not affect another user.
func TestRateLimiter_PerUserBuckets(t *testing.T) {
	rl := middleware.NewRateLimiter(1, 1)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	if rec := limitedRequest(handler, "user-a"); rec.Code != http.StatusOK {
		t.Fatalf("user-a first request: expected 200, got %d", rec.Code)
	}
	if rec := limitedRequest(handler, "user-a"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("user-a second request: expected 429, got %d", rec.Code)
	}
	if rec := limitedRequest(handler, "user-b"); rec.Code != http.StatusOK {
		t.Errorf("user-b should have their own bucket, got %d", rec.Code)
	}
}
