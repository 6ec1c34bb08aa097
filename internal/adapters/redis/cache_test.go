package redisad

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	return New(mr.Addr(), "", 0)
}

func TestCache_RoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Score int    `json:"score"`
	}

	var missed payload
	ok, err := c.Get(ctx, "catalog:45.5231:-122.6765:2000", &missed)
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	want := payload{Name: "Kim's Kitchen", Score: 85}
	if err := c.Set(ctx, "catalog:45.5231:-122.6765:2000", want, 60); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got payload
	ok, err = c.Get(ctx, "catalog:45.5231:-122.6765:2000", &got)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestCache_Del(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", 60); err != nil {
		t.Fatal(err)
	}
	if err := c.Del(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	var out string
	if ok, _ := c.Get(ctx, "k", &out); ok {
		t.Fatal("key survived delete")
	}
}

func TestCache_DelPrefix(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	keys := []string{
		"catalog:45.5231:-122.6765:2000",
		"catalog:45.5300:-122.6800:1500",
	}
	for _, k := range keys {
		if err := c.Set(ctx, k, "v", 60); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Set(ctx, "img:kims kitchen", "url", 60); err != nil {
		t.Fatal(err)
	}

	if err := c.DelPrefix(ctx, "catalog:"); err != nil {
		t.Fatalf("delprefix: %v", err)
	}

	var out string
	for _, k := range keys {
		if ok, _ := c.Get(ctx, k, &out); ok {
			t.Fatalf("catalog key %s survived the flush", k)
		}
	}
	// unrelated key spaces are untouched
	if ok, _ := c.Get(ctx, "img:kims kitchen", &out); !ok || out != "url" {
		t.Fatal("image key must survive a catalog flush")
	}
}
