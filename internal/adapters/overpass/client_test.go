package overpass

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const elementsBody = `{
  "elements": [
    {"type": "node", "id": 1, "lat": 45.52, "lon": -122.67,
     "tags": {"name": "Indie Deli", "shop": "deli"}},
    {"type": "way", "id": 2, "center": {"lat": 45.53, "lon": -122.68},
     "tags": {"name": "Rose City Books", "shop": "books"}},
    {"type": "node", "id": 3, "lat": 45.5, "lon": -122.6},
    {"type": "node", "id": 4, "lat": 45.5, "lon": -122.6, "tags": {"highway": "crossing"}}
  ]
}`

func TestFeatures_CollectsAndFilters(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/interpreter" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		gotQuery = r.FormValue("data")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(elementsBody))
	}))
	defer srv.Close()

	c := New(srv.URL, 10)
	fs, err := c.Features(context.Background(), 45.5231, -122.6765, 1500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fs) != 2 {
		t.Fatalf("got %d features, want 2 (untagged ones dropped): %+v", len(fs), fs)
	}
	if fs[0].ID != 1 || fs[0].Tags["name"] != "Indie Deli" {
		t.Fatalf("first feature wrong: %+v", fs[0])
	}
	// way coordinates come from the center block
	if fs[1].Lat != 45.53 || fs[1].Lon != -122.68 {
		t.Fatalf("center not promoted: %+v", fs[1])
	}

	if !strings.Contains(gotQuery, "around:1500,45.523100,-122.676500") {
		t.Fatalf("query missing around clause: %s", gotQuery)
	}
	if !strings.Contains(gotQuery, "parking") || !strings.Contains(gotQuery, "vending_machine") {
		t.Fatalf("query missing amenity exclusions: %s", gotQuery)
	}
	if !strings.Contains(gotQuery, `["shop"]`) || !strings.Contains(gotQuery, "out center;") {
		t.Fatalf("query missing selectors: %s", gotQuery)
	}
}

func TestFeatures_RetriesTransientErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"elements": [{"type": "node", "id": 9, "tags": {"name": "Late Cafe", "amenity": "cafe"}}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 10)
	fs, err := c.Features(context.Background(), 45.52, -122.67, 1000)
	if err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if len(fs) != 1 || fs[0].Tags["name"] != "Late Cafe" {
		t.Fatalf("got %+v", fs)
	}
}

func TestFeatures_NoRetryOnBadRequest(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "parse error", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, 10)
	if _, err := c.Features(context.Background(), 45.52, -122.67, 1000); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("client error must not be retried, calls = %d", calls)
	}
}

func TestFeatures_ContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := New(srv.URL, 10)
	if _, err := c.Features(ctx, 45.52, -122.67, 1000); err == nil {
		t.Fatal("expected context error")
	}
}
