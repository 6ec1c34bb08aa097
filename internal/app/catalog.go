package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"localspot/internal/adapters/observability"
	"localspot/internal/domain"
)

const catalogKeyPrefix = "catalog:"

var errNoClient = errors.New("source client not configured")

// CatalogQuery is one inbound request for the business catalog.
type CatalogQuery struct {
	Lat, Lon float64
	RadiusM  int
	Search   string          // non-empty bypasses chain dedup
	Category domain.Category // optional filter
	Sort     string          // SortRelevance (default) | SortRating | SortReviews | SortName
}

// CatalogService runs the aggregation pipeline: connectors (cache-checked),
// normalize, classify, rank, image enrichment, then the per-request dedup /
// filter / sort / review overlay.
type CatalogService struct {
	geo      domain.GeoTagClient
	dir      domain.DirectoryClient
	cache    domain.Cache
	overlay  *Overlay
	images   domain.ImageResolver
	snapshot []domain.Business // offline fallback, pre-scored
	disabled bool              // live sources off, snapshot only
	cacheTTL time.Duration
}

func NewCatalogService(geo domain.GeoTagClient, dir domain.DirectoryClient, cache domain.Cache,
	store domain.ReviewStore, images domain.ImageResolver, ttl time.Duration) *CatalogService {
	return &CatalogService{
		geo: geo, dir: dir, cache: cache,
		overlay:  NewOverlay(store),
		images:   images,
		cacheTTL: ttl,
	}
}

// UseSnapshot installs the offline catalog. When disabled is set the live
// connectors are never consulted and every query serves snapshot data.
func (s *CatalogService) UseSnapshot(snapshot []domain.Business, disabled bool) {
	s.snapshot = snapshot
	s.disabled = disabled
}

// Catalog serves one catalog request. The review overlay is applied to every
// record on every call, cached base or not: review data is fresher than
// listing data.
func (s *CatalogService) Catalog(ctx context.Context, q CatalogQuery) ([]domain.Business, error) {
	base, err := s.loadBase(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Business, len(base))
	copy(out, base)

	// A search means a specific chain location may be exactly what the user
	// wants, so every instance stays visible.
	if q.Search == "" {
		out = Dedupe(out)
	}
	out = filterCatalog(out, q)
	Rank(out, q.Sort)
	s.overlay.ApplyAll(ctx, out)
	return out, nil
}

// GetBusiness returns one record by canonical id, overlay applied. Chain
// instances collapsed out of the default view remain addressable here.
func (s *CatalogService) GetBusiness(ctx context.Context, q CatalogQuery, id string) (domain.Business, error) {
	base, err := s.loadBase(ctx, q)
	if err != nil {
		return domain.Business{}, err
	}
	for _, b := range base {
		if b.ID == id {
			s.overlay.Apply(ctx, &b)
			return b, nil
		}
	}
	return domain.Business{}, domain.ErrNotFound
}

// Recommendations scores the merged default catalog against the user's
// favorite set (supplied by the profile collaborator).
func (s *CatalogService) Recommendations(ctx context.Context, q CatalogQuery,
	favoriteIDs []string, preferred []domain.Category, topN int) ([]domain.Business, error) {
	q.Search, q.Category, q.Sort = "", "", SortRelevance
	merged, err := s.Catalog(ctx, q)
	if err != nil {
		return nil, err
	}
	return Recommend(merged, favoriteIDs, preferred, topN), nil
}

// loadBase returns the normalized+classified+ranked (pre-overlay) set for
// the query's geography: cache, then live pipeline, then offline snapshot.
func (s *CatalogService) loadBase(ctx context.Context, q CatalogQuery) ([]domain.Business, error) {
	if s.disabled {
		if len(s.snapshot) > 0 {
			return s.snapshot, nil
		}
		return nil, domain.ErrSourceUnavailable
	}

	key := fmt.Sprintf("%s%.4f:%.4f:%d", catalogKeyPrefix, q.Lat, q.Lon, q.RadiusM)
	var cached []domain.Business
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}

	base, err := s.buildLive(ctx, q)
	if err != nil || len(base) == 0 {
		if len(s.snapshot) > 0 {
			log.Warn().Err(err).Msg("live sources empty, serving offline snapshot")
			return s.snapshot, nil
		}
		if err == nil {
			err = domain.ErrSourceUnavailable
		}
		return nil, err
	}

	_ = s.cache.Set(ctx, key, base, int(s.cacheTTL.Seconds()))
	return base, nil
}

// buildLive runs connectors -> normalize -> classify -> rank -> images.
// Connectors run concurrently and fail soft individually; only the
// everything-failed case surfaces as ErrSourceUnavailable.
func (s *CatalogService) buildLive(ctx context.Context, q CatalogQuery) ([]domain.Business, error) {
	var (
		features []domain.GeoFeature
		listings []domain.DirectoryListing
		geoErr   = errNoClient
		dirErr   = errNoClient
	)
	g, gctx := errgroup.WithContext(ctx)
	if s.geo != nil {
		g.Go(func() error {
			features, geoErr = s.geo.Features(gctx, q.Lat, q.Lon, q.RadiusM)
			if geoErr != nil {
				observability.ObservePipeline("source", "geo_failed")
				log.Warn().Err(geoErr).Msg("geo-tag source failed, continuing without it")
			}
			return nil
		})
	}
	if s.dir != nil {
		g.Go(func() error {
			listings, dirErr = s.dir.Search(gctx, q.Lat, q.Lon, q.RadiusM)
			if dirErr != nil {
				observability.ObservePipeline("source", "directory_failed")
				log.Warn().Err(dirErr).Msg("directory source failed, continuing without it")
			}
			return nil
		})
	}
	_ = g.Wait()

	if geoErr != nil && dirErr != nil {
		return nil, domain.ErrSourceUnavailable
	}

	base := make([]domain.Business, 0, len(features)+len(listings))
	for _, f := range features {
		b := NormalizeGeoFeature(f)
		if b == nil {
			continue
		}
		classifyGeoFeature(b, f)
		base = append(base, *b)
	}
	for _, l := range listings {
		b := NormalizeListing(l)
		if b == nil {
			continue
		}
		classifyListing(b, l)
		base = append(base, *b)
	}

	Rank(base, SortRelevance)
	s.enrichImages(ctx, base)
	return base, nil
}

// enrichImages fills missing display images via the image collaborator.
// Best effort; the resolver memoizes through the long-TTL image cache.
func (s *CatalogService) enrichImages(ctx context.Context, bs []domain.Business) {
	if s.images == nil {
		return
	}
	for i := range bs {
		if bs[i].Image != nil {
			continue
		}
		query := bs[i].Name + " " + string(bs[i].Category)
		url, err := s.images.Resolve(ctx, query)
		if err != nil || url == "" {
			continue
		}
		u := url
		bs[i].Image = &u
	}
}

func filterCatalog(in []domain.Business, q CatalogQuery) []domain.Business {
	if q.Category == "" && q.Search == "" {
		return in
	}
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	out := in[:0]
	for _, b := range in {
		if q.Category != "" && b.Category != q.Category {
			continue
		}
		if needle != "" && !matchesSearch(b, needle) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func matchesSearch(b domain.Business, needle string) bool {
	if strings.Contains(strings.ToLower(b.Name), needle) ||
		strings.Contains(strings.ToLower(b.Description), needle) {
		return true
	}
	for _, t := range b.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

// BuildSnapshot runs the live pipeline once, bypassing the cache. The
// snapshot generator uses it to produce the pre-scored offline catalog.
func (s *CatalogService) BuildSnapshot(ctx context.Context, q CatalogQuery) ([]domain.Business, error) {
	return s.buildLive(ctx, q)
}

// IsRetryable reports whether the caller should retry the request later.
func IsRetryable(err error) bool {
	return errors.Is(err, domain.ErrSourceUnavailable)
}
