package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimit_AllowsThenBlocks(t *testing.T) {
	h := RateLimit(60, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "1.2.3.4:1234"

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != 200 {
			t.Fatalf("want 200 got %d", rr.Code)
		}
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != 429 {
		t.Fatalf("want 429 got %d", rr.Code)
	}

	time.Sleep(1100 * time.Millisecond)
	rr2 := httptest.NewRecorder()
	h.ServeHTTP(rr2, req)
	if rr2.Code != 200 {
		t.Fatalf("want 200 after refill got %d", rr2.Code)
	}
}

func TestRateLimit_ClientsAreIndependent(t *testing.T) {
	h := RateLimit(60, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	a := httptest.NewRequest("GET", "/", nil)
	a.RemoteAddr = "10.0.0.1:555"
	b := httptest.NewRequest("GET", "/", nil)
	b.RemoteAddr = "10.0.0.2:555"

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, a)
	if rr.Code != 200 {
		t.Fatalf("first client: want 200 got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, a)
	if rr.Code != 429 {
		t.Fatalf("first client exhausted: want 429 got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, b)
	if rr.Code != 200 {
		t.Fatalf("second client must have its own bucket: got %d", rr.Code)
	}
}

func TestRateLimit_DisabledPassesThrough(t *testing.T) {
	h := RateLimit(0, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "1.2.3.4:1234"
	for i := 0; i < 50; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != 200 {
			t.Fatalf("disabled limiter must pass everything; got %d", rr.Code)
		}
	}
}

func TestLimiter_SweepEvictsIdleBuckets(t *testing.T) {
	l := newLimiter(1, 1, 10*time.Millisecond)
	l.allow("a")
	l.allow("b")

	time.Sleep(25 * time.Millisecond)
	l.allow("c") // triggers the sweep

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.m["a"]; ok {
		t.Fatal("idle bucket should be evicted")
	}
	if _, ok := l.m["c"]; !ok {
		t.Fatal("live bucket must survive the sweep")
	}
}
