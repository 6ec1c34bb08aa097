package overpass

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"localspot/internal/adapters/observability"
	"localspot/internal/domain"
)

// Feature types excluded at the query level: infrastructure that is never a
// surfaced business. Keeping the filter in the query keeps payloads small.
const excludedAmenities = "parking|parking_entrance|parking_space|bench|waste_basket|atm|vending_machine"

// typeTags are the tag keys that mark a feature as a recognizable
// establishment type.
var typeTags = []string{"amenity", "shop", "craft", "office", "tourism", "leisure"}

type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
	cb   *gobreaker.CircuitBreaker[[]domain.GeoFeature]
}

func New(base string, rps int) *Client {
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		base: base,
		hc:   &http.Client{Timeout: 12 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
		cb: gobreaker.NewCircuitBreaker[[]domain.GeoFeature](gobreaker.Settings{
			Name:    "overpass",
			Timeout: 30 * time.Second,
		}),
	}
}

// Features runs one area query against the provider and returns raw map
// features. Records lacking both a name and a recognizable type tag are
// dropped before the result leaves the connector.
func (c *Client) Features(ctx context.Context, lat, lon float64, radiusM int) ([]domain.GeoFeature, error) {
	return c.cb.Execute(func() ([]domain.GeoFeature, error) {
		return c.features(ctx, lat, lon, radiusM)
	})
}

func (c *Client) features(ctx context.Context, lat, lon float64, radiusM int) ([]domain.GeoFeature, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	q := buildQuery(lat, lon, radiusM)
	var lastErr error
	for i := 0; i < 3; i++ {
		start := time.Now()
		resp, err := c.post(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if i < 2 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return nil, lastErr
		}
		observability.ObserveExternal("overpass", "interpreter", resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusOK:
			var body struct {
				Elements []element `json:"elements"`
			}
			err := json.NewDecoder(resp.Body).Decode(&body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("overpass: decode: %w", err)
			}
			return collect(body.Elements), nil

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = fmt.Errorf("overpass: remote %d", resp.StatusCode)
			if i < 2 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			resp.Body.Close()
			return nil, fmt.Errorf("overpass: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return nil, lastErr
}

func (c *Client) post(ctx context.Context, query string) (*http.Response, error) {
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/interpreter",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "localspot/1.0")
	return c.hc.Do(req)
}

// buildQuery selects named establishment features around the center and
// excludes obvious non-business amenities in the query itself.
func buildQuery(lat, lon float64, radiusM int) string {
	around := fmt.Sprintf("around:%d,%.6f,%.6f", radiusM, lat, lon)
	var b strings.Builder
	b.WriteString("[out:json][timeout:10];(")
	fmt.Fprintf(&b, `nwr(%s)["amenity"]["amenity"!~"^(%s)$"];`, around, excludedAmenities)
	for _, key := range []string{"shop", "craft", "office", "tourism", "leisure"} {
		fmt.Fprintf(&b, `nwr(%s)[%q];`, around, key)
	}
	b.WriteString(");out center;")
	return b.String()
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center"`
	Tags map[string]string `json:"tags"`
}

func collect(els []element) []domain.GeoFeature {
	out := make([]domain.GeoFeature, 0, len(els))
	for _, e := range els {
		f := domain.GeoFeature{ID: e.ID, Kind: e.Type, Lat: e.Lat, Lon: e.Lon, Tags: e.Tags}
		if e.Center != nil {
			f.Lat, f.Lon = e.Center.Lat, e.Center.Lon
		}
		if f.Tags["name"] == "" && !hasTypeTag(f.Tags) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func hasTypeTag(tags map[string]string) bool {
	for _, k := range typeTags {
		if tags[k] != "" {
			return true
		}
	}
	return false
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// backoff doubles per attempt (200ms, 400ms, ...) with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
