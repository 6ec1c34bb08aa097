package domain

import "time"

// Report is a single moderation report against a review.
type Report struct {
	Reason string    `json:"reason"`
	Date   time.Time `json:"date"`
}

// Review lives in the review store, keyed by business id, and outlives any
// Business snapshot. Helpful must equal len(UpvotedBy); Hidden is set once a
// review has collected three reports.
type Review struct {
	ID          string    `json:"id"`
	BusinessID  string    `json:"businessId"`
	UserID      string    `json:"userId"`
	Author      string    `json:"author"` // display name, "Anonymous" when IsAnonymous
	IsAnonymous bool      `json:"isAnonymous"`
	Rating      int       `json:"rating"` // 1..5
	Service     int       `json:"service,omitempty"`
	Quality     int       `json:"quality,omitempty"`
	Value       int       `json:"value,omitempty"`
	Atmosphere  int       `json:"atmosphere,omitempty"`
	Comment     string    `json:"comment,omitempty"`
	Date        time.Time `json:"date"`
	Helpful     int       `json:"helpful"`
	UpvotedBy   []string  `json:"upvotedBy,omitempty"`
	Reports     []Report  `json:"reports,omitempty"`
	Hidden      bool      `json:"hidden"`
}

// HasCategoryRatings reports whether the review carries all four sub-ratings.
func (r Review) HasCategoryRatings() bool {
	return r.Service > 0 && r.Quality > 0 && r.Value > 0 && r.Atmosphere > 0
}
