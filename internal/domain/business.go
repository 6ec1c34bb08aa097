package domain

// Category is the fixed 3-way taxonomy every provider record resolves into.
type Category string

const (
	CategoryFood     Category = "Food"
	CategoryRetail   Category = "Retail"
	CategoryServices Category = "Services"
)

// Deal is a promotional offer attached to a directory listing.
type Deal struct {
	Title   string `json:"title"`
	Expires string `json:"expires,omitempty"`
}

// Business is the canonical record all provider data normalizes into.
// IsChain and RelevancyScore are derived once at classification time and are
// functions of the source record only. Rating, ReviewCount, Reviews and
// CategoryRatings are overlay fields recomputed from the review store on
// every read; they are never stored with the record.
type Business struct {
	ID            string   `json:"id"` // provider-prefixed: "osm-123", "dir-abc"
	Name          string   `json:"name"`
	Category      Category `json:"category"`
	Tags          []string `json:"tags,omitempty"` // ordered, at most 5
	Address       string   `json:"address,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	Hours         string   `json:"hours,omitempty"`
	Website       string   `json:"website,omitempty"`
	PriceRange    string   `json:"priceRange,omitempty"`
	Description   string   `json:"description,omitempty"`
	Lat           *float64 `json:"lat,omitempty"`
	Lon           *float64 `json:"lon,omitempty"`
	GoogleMapsURL string   `json:"googleMapsUrl"`
	Image         *string  `json:"image"`

	IsChain        bool `json:"isChain"`
	RelevancyScore int  `json:"-"` // internal ordering only, never shown to users

	// Provider-reported externals; inputs to relevancy and recommendation
	// scoring, distinct from the overlay aggregates below.
	SourceRating      float64 `json:"sourceRating,omitempty"`
	SourceReviewCount int     `json:"sourceReviewCount,omitempty"`

	Deal *Deal `json:"deal,omitempty"`

	// Overlay fields.
	Rating          float64          `json:"rating"`
	ReviewCount     int              `json:"reviewCount"`
	Reviews         []Review         `json:"reviews,omitempty"`
	CategoryRatings *CategoryRatings `json:"categoryRatings"`
}

// CategoryRatings is the per-aspect breakdown exposed once a business has
// enough reviews carrying sub-ratings.
type CategoryRatings struct {
	Service            float64 `json:"service"`
	Quality            float64 `json:"quality"`
	Value              float64 `json:"value"`
	Atmosphere         float64 `json:"atmosphere"`
	ReviewsWithRatings int     `json:"reviewsWithRatings"`
}

// UserRef is the gateway-validated identity handed to the core by the auth
// collaborator. Nil means anonymous.
type UserRef struct {
	UserID   string
	Username string
}
