package domain

import (
	"context"
	"errors"
)

var (
	// ErrSourceUnavailable: every connector failed and neither cache nor
	// offline snapshot can serve the query. Retryable.
	ErrSourceUnavailable = errors.New("catalog: all sources unavailable")
	ErrNotFound          = errors.New("catalog: not found")
	// ErrReviewStoreUnavailable never crosses the read path; the overlay
	// converts it into zero-value aggregates.
	ErrReviewStoreUnavailable = errors.New("reviews: store unavailable")
)

// GeoTagClient is the geographic-tag provider connector (raw map features
// with free-form key/value tags).
type GeoTagClient interface {
	Features(ctx context.Context, lat, lon float64, radiusM int) ([]GeoFeature, error)
}

// DirectoryClient is the commercial-directory provider connector
// (structured listings with categories, ratings, hours).
type DirectoryClient interface {
	Search(ctx context.Context, lat, lon float64, radiusM int) ([]DirectoryListing, error)
}

// ReviewStore is the keyed review collection. The core reads; the review
// submission collaborator writes through the same port.
type ReviewStore interface {
	GetReviews(ctx context.Context, businessID string) ([]Review, error)
	AddReview(ctx context.Context, r Review) error
	// Upvote is idempotent per user; it reports whether the vote was new.
	Upvote(ctx context.Context, reviewID, userID string) (bool, error)
	// Report appends a moderation report and hides the review once it has
	// three; it returns the resulting hidden state.
	Report(ctx context.Context, reviewID, reason string) (bool, error)
}

// Cache is a TTL'd byte-value cache shared by all requests in a process.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	DelPrefix(ctx context.Context, prefix string) error
}

// ImageResolver is the image-lookup collaborator: free-text query in, image
// URL (or empty) out.
type ImageResolver interface {
	Resolve(ctx context.Context, query string) (string, error)
}

// GeoFeature is the geo-tag provider's raw record, validated at the
// connector boundary. Ways carry their centroid in Lat/Lon.
type GeoFeature struct {
	ID   int64             `json:"id"`
	Kind string            `json:"type"` // node|way
	Lat  float64           `json:"lat"`
	Lon  float64           `json:"lon"`
	Tags map[string]string `json:"tags"`
}

// DirectoryCategory is one category assignment on a directory listing.
type DirectoryCategory struct {
	Alias string `json:"alias"`
	Title string `json:"title"`
}

// DirectoryLocation is the listing's address block.
type DirectoryLocation struct {
	Address1 string `json:"address1"`
	City     string `json:"city"`
	ZipCode  string `json:"zip_code"`
}

// DirectoryListing is the commercial-directory provider's raw record.
type DirectoryListing struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Categories  []DirectoryCategory `json:"categories"`
	Rating      float64             `json:"rating"`
	ReviewCount int                 `json:"review_count"`
	Price       string              `json:"price"`
	Phone       string              `json:"display_phone"`
	Location    DirectoryLocation   `json:"location"`
	Latitude    *float64            `json:"latitude"`
	Longitude   *float64            `json:"longitude"`
	URL         string              `json:"url"`
	ImageURL    string              `json:"image_url"`
	Hours       string              `json:"hours"`
	Deal        *Deal               `json:"deal"`
}
