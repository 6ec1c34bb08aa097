package images

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}
func (m *memCache) Set(_ context.Context, key string, v any, _ int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = b
	return nil
}
func (m *memCache) Del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}
func (m *memCache) DelPrefix(context.Context, string) error { return nil }

func TestResolve_CachesLookups(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if got := r.URL.Query().Get("q"); got != "kims kitchen Food" {
			t.Errorf("query = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"url": "https://img.example/kk.jpg"})
	}))
	defer srv.Close()

	r := New(srv.URL, newMemCache(), 24*time.Hour)
	ctx := context.Background()

	url, err := r.Resolve(ctx, "kims kitchen Food")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if url != "https://img.example/kk.jpg" {
		t.Fatalf("url = %s", url)
	}

	// second lookup is served from the cache
	url, err = r.Resolve(ctx, "kims kitchen Food")
	if err != nil || url != "https://img.example/kk.jpg" {
		t.Fatalf("cached resolve: %s %v", url, err)
	}
	if calls != 1 {
		t.Fatalf("provider calls = %d, want 1", calls)
	}
}

func TestResolve_CachesMisses(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]string{"url": ""})
	}))
	defer srv.Close()

	r := New(srv.URL, newMemCache(), time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		url, err := r.Resolve(ctx, "no such place")
		if err != nil || url != "" {
			t.Fatalf("resolve %d: %q %v", i, url, err)
		}
	}
	if calls != 1 {
		t.Fatalf("a lookup miss must be cached too, calls = %d", calls)
	}
}

func TestResolve_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r := New(srv.URL, newMemCache(), time.Hour)
	if _, err := r.Resolve(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
}
