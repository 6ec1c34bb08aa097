package app

import (
	"context"
	"math"

	"github.com/rs/zerolog/log"

	"localspot/internal/domain"
)

// Review-count thresholds for exposing the per-category breakdown.
const (
	categoryRatingsMinReviews = 10
	categoryRatingsMinRated   = 5
)

// Overlay recomputes the review-derived fields of a Business from the review
// store on every read. The store is the only source of truth for them.
type Overlay struct {
	store domain.ReviewStore
}

func NewOverlay(store domain.ReviewStore) *Overlay { return &Overlay{store: store} }

// Apply merges the business's non-hidden reviews into its overlay fields.
// A store failure degrades to zero-value aggregates; a business without
// reviews beats no business at all.
func (o *Overlay) Apply(ctx context.Context, b *domain.Business) {
	b.Rating, b.ReviewCount, b.Reviews, b.CategoryRatings = 0, 0, nil, nil

	all, err := o.store.GetReviews(ctx, b.ID)
	if err != nil {
		log.Warn().Err(err).Str("business", b.ID).Msg("review store unavailable, serving zero aggregates")
		return
	}

	visible := make([]domain.Review, 0, len(all))
	for _, r := range all {
		if !r.Hidden {
			visible = append(visible, r)
		}
	}
	b.Reviews = visible
	b.ReviewCount = len(visible)
	if len(visible) == 0 {
		return
	}

	var sum int
	for _, r := range visible {
		sum += r.Rating
	}
	b.Rating = round1(float64(sum) / float64(len(visible)))
	b.CategoryRatings = categoryBreakdown(visible)
}

// ApplyAll overlays every record in place.
func (o *Overlay) ApplyAll(ctx context.Context, bs []domain.Business) {
	for i := range bs {
		o.Apply(ctx, &bs[i])
	}
}

// categoryBreakdown returns the per-category means once the sample is large
// enough (>=10 visible reviews, >=5 carrying all four sub-ratings), nil
// otherwise.
func categoryBreakdown(visible []domain.Review) *domain.CategoryRatings {
	if len(visible) < categoryRatingsMinReviews {
		return nil
	}
	var service, quality, value, atmosphere, n int
	for _, r := range visible {
		if !r.HasCategoryRatings() {
			continue
		}
		service += r.Service
		quality += r.Quality
		value += r.Value
		atmosphere += r.Atmosphere
		n++
	}
	if n < categoryRatingsMinRated {
		return nil
	}
	f := float64(n)
	return &domain.CategoryRatings{
		Service:            round1(float64(service) / f),
		Quality:            round1(float64(quality) / f),
		Value:              round1(float64(value) / f),
		Atmosphere:         round1(float64(atmosphere) / f),
		ReviewsWithRatings: n,
	}
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }
