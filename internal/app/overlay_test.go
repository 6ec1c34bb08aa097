package app

import (
	"context"
	"fmt"
	"testing"

	"localspot/internal/domain"
)

type fakeReviewStore struct {
	reviews      map[string][]domain.Review
	err          error
	upvoteAdded  bool
	reportHidden bool
}

func (f *fakeReviewStore) GetReviews(_ context.Context, businessID string) ([]domain.Review, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.reviews[businessID], nil
}
func (f *fakeReviewStore) AddReview(_ context.Context, r domain.Review) error {
	if f.err != nil {
		return f.err
	}
	if f.reviews == nil {
		f.reviews = map[string][]domain.Review{}
	}
	f.reviews[r.BusinessID] = append(f.reviews[r.BusinessID], r)
	return nil
}
func (f *fakeReviewStore) Upvote(context.Context, string, string) (bool, error) {
	return f.upvoteAdded, f.err
}
func (f *fakeReviewStore) Report(context.Context, string, string) (bool, error) {
	return f.reportHidden, f.err
}

func mkReview(businessID string, rating int, withSubs, hidden bool) domain.Review {
	r := domain.Review{
		BusinessID: businessID, Rating: rating, Author: "t", Hidden: hidden,
	}
	if withSubs {
		r.Service, r.Quality, r.Value, r.Atmosphere = rating, rating, rating, rating
	}
	return r
}

func TestOverlay_NoReviewsZeroAggregates(t *testing.T) {
	o := NewOverlay(&fakeReviewStore{})
	b := domain.Business{ID: "dir-1", Rating: 9.9, ReviewCount: 42} // stale values must be reset
	o.Apply(context.Background(), &b)
	if b.Rating != 0 || b.ReviewCount != 0 || b.Reviews != nil || b.CategoryRatings != nil {
		t.Fatalf("expected zero-value aggregates, got %+v", b)
	}
}

func TestOverlay_StoreFailureDegrades(t *testing.T) {
	o := NewOverlay(&fakeReviewStore{err: domain.ErrReviewStoreUnavailable})
	b := domain.Business{ID: "dir-1"}
	o.Apply(context.Background(), &b)
	if b.Rating != 0 || b.ReviewCount != 0 {
		t.Fatalf("store failure must serve zero aggregates, got %+v", b)
	}
}

func TestOverlay_HiddenExcluded(t *testing.T) {
	store := &fakeReviewStore{reviews: map[string][]domain.Review{
		"dir-1": {
			mkReview("dir-1", 5, false, false),
			mkReview("dir-1", 1, false, true), // hidden, must not drag the mean
			mkReview("dir-1", 4, false, false),
		},
	}}
	b := domain.Business{ID: "dir-1"}
	NewOverlay(store).Apply(context.Background(), &b)
	if b.ReviewCount != 2 {
		t.Fatalf("review count = %d, want 2", b.ReviewCount)
	}
	if b.Rating != 4.5 {
		t.Fatalf("rating = %v, want 4.5", b.Rating)
	}
	for _, r := range b.Reviews {
		if r.Hidden {
			t.Fatal("hidden review leaked into the overlay")
		}
	}
}

func TestOverlay_CategoryBreakdownThresholds(t *testing.T) {
	// exactly 10 visible reviews, exactly 5 carrying all four sub-ratings
	var rs []domain.Review
	for i := 0; i < 5; i++ {
		rs = append(rs, mkReview("dir-1", 4, true, false))
	}
	for i := 0; i < 5; i++ {
		rs = append(rs, mkReview("dir-1", 4, false, false))
	}
	store := &fakeReviewStore{reviews: map[string][]domain.Review{"dir-1": rs}}

	b := domain.Business{ID: "dir-1"}
	NewOverlay(store).Apply(context.Background(), &b)
	if b.CategoryRatings == nil {
		t.Fatal("breakdown must appear at the 10/5 threshold")
	}
	if b.CategoryRatings.ReviewsWithRatings != 5 {
		t.Fatalf("ReviewsWithRatings = %d, want 5", b.CategoryRatings.ReviewsWithRatings)
	}
	if b.CategoryRatings.Service != 4 || b.CategoryRatings.Atmosphere != 4 {
		t.Fatalf("breakdown means wrong: %+v", b.CategoryRatings)
	}

	// one rated review short: no breakdown
	short := append([]domain.Review{}, rs[1:]...)
	short = append(short, mkReview("dir-1", 4, false, false))
	store.reviews["dir-1"] = short
	b = domain.Business{ID: "dir-1"}
	NewOverlay(store).Apply(context.Background(), &b)
	if b.CategoryRatings != nil {
		t.Fatalf("breakdown must be nil with only 4 rated reviews: %+v", b.CategoryRatings)
	}

	// under 10 visible reviews: no breakdown even if all are rated
	var few []domain.Review
	for i := 0; i < 9; i++ {
		few = append(few, mkReview("dir-1", 5, true, false))
	}
	store.reviews["dir-1"] = few
	b = domain.Business{ID: "dir-1"}
	NewOverlay(store).Apply(context.Background(), &b)
	if b.CategoryRatings != nil {
		t.Fatalf("breakdown must be nil under 10 reviews: %+v", b.CategoryRatings)
	}
}

func TestOverlay_RatingRoundedToOneDecimal(t *testing.T) {
	store := &fakeReviewStore{reviews: map[string][]domain.Review{
		"dir-1": {
			mkReview("dir-1", 5, false, false),
			mkReview("dir-1", 4, false, false),
			mkReview("dir-1", 4, false, false),
		},
	}}
	b := domain.Business{ID: "dir-1"}
	NewOverlay(store).Apply(context.Background(), &b)
	if got := fmt.Sprintf("%.1f", b.Rating); got != "4.3" {
		t.Fatalf("rating = %v", b.Rating)
	}
}
