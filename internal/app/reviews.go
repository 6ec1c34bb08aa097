package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"localspot/internal/domain"
)

// ReviewService owns the review mutations and the cache invalidation they
// imply. Writes go through the store's atomic primitives, not a
// load-mutate-save of the whole collection, so concurrent upvotes and
// reports cannot silently lose each other.
type ReviewService struct {
	store domain.ReviewStore
	cache domain.Cache
}

func NewReviewService(store domain.ReviewStore, cache domain.Cache) *ReviewService {
	return &ReviewService{store: store, cache: cache}
}

// AddReview validates and persists a new review on behalf of the submission
// collaborator, then flushes the catalog cache so the review's presence is
// visible on the next read.
func (s *ReviewService) AddReview(ctx context.Context, r domain.Review) (domain.Review, error) {
	if r.BusinessID == "" {
		return domain.Review{}, fmt.Errorf("review: business id required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return domain.Review{}, fmt.Errorf("review: rating must be 1..5, got %d", r.Rating)
	}
	for _, sub := range []int{r.Service, r.Quality, r.Value, r.Atmosphere} {
		if sub < 0 || sub > 5 {
			return domain.Review{}, fmt.Errorf("review: sub-rating out of range")
		}
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.IsAnonymous || r.Author == "" {
		r.Author = "Anonymous"
	}
	if r.Date.IsZero() {
		r.Date = time.Now().UTC()
	}
	if err := s.store.AddReview(ctx, r); err != nil {
		return domain.Review{}, err
	}
	s.flushCatalog(ctx)
	return r, nil
}

// UpvoteReview records one helpful vote, idempotent per user. The cache is
// flushed only when the vote was new.
func (s *ReviewService) UpvoteReview(ctx context.Context, reviewID, userID string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("review: user id required to upvote")
	}
	added, err := s.store.Upvote(ctx, reviewID, userID)
	if err != nil {
		return false, err
	}
	if added {
		s.flushCatalog(ctx)
	}
	return added, nil
}

// ReportReview files a moderation report. The store hides the review once it
// has collected three; the returned flag reports the resulting state.
func (s *ReviewService) ReportReview(ctx context.Context, reviewID, reason string) (bool, error) {
	hidden, err := s.store.Report(ctx, reviewID, reason)
	if err != nil {
		return false, err
	}
	s.flushCatalog(ctx)
	return hidden, nil
}

// flushCatalog drops every cached catalog entry. Overlay values are cheap to
// recompute; the flush exists so aggregate-reading paths through the cache
// see new reviews promptly.
func (s *ReviewService) flushCatalog(ctx context.Context) {
	if err := s.cache.DelPrefix(ctx, catalogKeyPrefix); err != nil {
		log.Warn().Err(err).Msg("catalog cache flush failed")
	}
}
