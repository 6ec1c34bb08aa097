package images

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"localspot/internal/adapters/observability"
	"localspot/internal/domain"
)

// Resolver calls the image-lookup collaborator and memoizes results in the
// long-TTL image cache. A lookup miss is cached too, so a business with no
// findable image does not trigger a provider call per request.
type Resolver struct {
	base   string
	hc     *http.Client
	rl     *rate.Limiter
	cache  domain.Cache
	ttlSec int
}

func New(base string, cache domain.Cache, ttl time.Duration) *Resolver {
	return &Resolver{
		base:   base,
		hc:     &http.Client{Timeout: 10 * time.Second},
		rl:     rate.NewLimiter(rate.Limit(3), 3),
		cache:  cache,
		ttlSec: int(ttl.Seconds()),
	}
}

func (r *Resolver) Resolve(ctx context.Context, query string) (string, error) {
	key := "img:" + query
	var cached string
	if ok, _ := r.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}

	if err := r.rl.Wait(ctx); err != nil {
		return "", err
	}
	u := fmt.Sprintf("%s/search?q=%s", r.base, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := r.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("images", "search", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("images: bad status %d", resp.StatusCode)
	}
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	_ = r.cache.Set(ctx, key, body.URL, r.ttlSec)
	return body.URL, nil
}
