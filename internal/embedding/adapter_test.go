package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestServer(t *testing.T, dim int, failTimes int32) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= failTimes {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		vec := make([]float32, dim)
		for i := range vec {
			vec[i] = 0.1
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: vec})
	}))
	return srv, &calls
}

func TestAdapterEmbedReturnsVectorOfConfiguredDim(t *testing.T) {
	srv, _ := newTestServer(t, 8, 0)
	defer srv.Close()

	opts := DefaultAdapterOptions()
	opts.BaseURL = srv.URL
	opts.Dim = 8
	opts.MaxRetries = 1
	opts.Pacing = 0

	a := NewAdapter(opts, nil, nil)
	vec, err := a.Embed(context.Background(), "hola mundo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 8 {
		t.Fatalf("expected vector of length 8, got %d", len(vec))
	}
}

func TestAdapterTruncatesOverlongInput(t *testing.T) {
	opts := DefaultAdapterOptions()
	opts.MaxChars = 10
	a := NewAdapter(opts, nil, nil)

	long := strings.Repeat("a", 100)
	truncated := a.truncate(long)
	if len([]rune(truncated)) != 10 {
		t.Fatalf("expected truncation to 10 runes, got %d", len([]rune(truncated)))
	}
}

func TestAdapterRetriesTransientFailures(t *testing.T) {
	srv, calls := newTestServer(t, 4, 2)
	defer srv.Close()

	opts := DefaultAdapterOptions()
	opts.BaseURL = srv.URL
	opts.Dim = 4
	opts.MaxRetries = 3
	opts.BaseDelay = time.Millisecond
	opts.Pacing = 0

	a := NewAdapter(opts, nil, nil)
	vec, err := a.Embed(context.Background(), "reintentar")
	if err != nil {
		t.Fatalf("expected success after retry, got error: %v", err)
	}
	if len(vec) != 4 {
		t.Fatalf("expected vector of length 4, got %d", len(vec))
	}
	if atomic.LoadInt32(calls) < 3 {
		t.Fatalf("expected at least 3 calls (2 failures + 1 success), got %d", *calls)
	}
}

func TestAdapterCachesEmbeddings(t *testing.T) {
	srv, calls := newTestServer(t, 4, 0)
	defer srv.Close()

	opts := DefaultAdapterOptions()
	opts.BaseURL = srv.URL
	opts.Dim = 4
	opts.Pacing = 0

	cache := NewMemoryCache(100)
	a := NewAdapter(opts, cache, nil)

	if _, err := a.Embed(context.Background(), "misma consulta"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := a.Embed(context.Background(), "misma consulta"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Fatalf("expected cache hit to avoid a second provider call, got %d calls", *calls)
	}
}

func TestAdapterDimMismatchIsFatal(t *testing.T) {
	srv, _ := newTestServer(t, 4, 0)
	defer srv.Close()

	opts := DefaultAdapterOptions()
	opts.BaseURL = srv.URL
	opts.Dim = 999 // provider always returns 4
	opts.MaxRetries = 1
	opts.Pacing = 0

	a := NewAdapter(opts, nil, nil)
	_, err := a.Embed(context.Background(), "dimension incorrecta")
	if err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}
