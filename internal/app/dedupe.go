package app

import (
	"regexp"
	"sort"
	"strings"

	"localspot/internal/domain"
)

// Sort keys accepted by the catalog. Anything else falls back to relevance.
const (
	SortRelevance = "relevance"
	SortRating    = "rating"
	SortReviews   = "reviews"
	SortName      = "name"
)

// trailing store numbers and hash suffixes ("Subway #4521", "Store 12").
var storeSuffixRe = regexp.MustCompile(`\s*(#\s*\d+|store\s+\d+|no\.?\s*\d+|\d+)$`)

// baseName normalizes a chain name for grouping.
func baseName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSpace(storeSuffixRe.ReplaceAllString(n, ""))
}

// Dedupe collapses repeated chain instances to the first-encountered one per
// normalized base name. Independent businesses pass through untouched, so
// the pass is idempotent.
func Dedupe(in []domain.Business) []domain.Business {
	seen := make(map[string]bool, len(in))
	out := make([]domain.Business, 0, len(in))
	for _, b := range in {
		if b.IsChain {
			key := baseName(b.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, b)
	}
	return out
}

// Rank orders the candidate set. The default is descending relevancy; the
// alternate sorts bypass relevancy entirely. All sorts are stable so ties
// preserve fetch order across runs.
func Rank(in []domain.Business, key string) {
	switch key {
	case SortRating:
		sort.SliceStable(in, func(i, j int) bool { return in[i].SourceRating > in[j].SourceRating })
	case SortReviews:
		sort.SliceStable(in, func(i, j int) bool { return in[i].SourceReviewCount > in[j].SourceReviewCount })
	case SortName:
		sort.SliceStable(in, func(i, j int) bool {
			return strings.ToLower(in[i].Name) < strings.ToLower(in[j].Name)
		})
	default:
		sort.SliceStable(in, func(i, j int) bool { return in[i].RelevancyScore > in[j].RelevancyScore })
	}
}
