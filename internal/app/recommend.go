package app

import (
	"sort"

	"localspot/internal/domain"
)

// DefaultRecommendations is the end-user view size.
const DefaultRecommendations = 4

// Recommend produces a personalized ranking over the merged catalog from a
// user's favorite set and optional explicit category preferences. Ties keep
// input order (stable sort), so repeated runs over identical input agree.
func Recommend(catalog []domain.Business, favoriteIDs []string, preferred []domain.Category, topN int) []domain.Business {
	if topN <= 0 {
		topN = DefaultRecommendations
	}

	favorites := make(map[string]bool, len(favoriteIDs))
	for _, id := range favoriteIDs {
		favorites[id] = true
	}

	// Category preference weights: favorite occurrences dominate, explicit
	// preferences nudge.
	weights := make(map[domain.Category]int)
	for _, b := range catalog {
		if favorites[b.ID] {
			weights[b.Category] += 10
		}
	}
	for _, c := range preferred {
		weights[c] += 2
	}

	type scored struct {
		b     domain.Business
		score int
	}
	candidates := make([]scored, 0, len(catalog))
	for _, b := range catalog {
		if favorites[b.ID] {
			continue
		}
		candidates = append(candidates, scored{b: b, score: recommendScore(b, weights)})
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	out := make([]domain.Business, len(candidates))
	for i, c := range candidates {
		out[i] = c.b
	}
	return out
}

func recommendScore(b domain.Business, weights map[domain.Category]int) int {
	score := weights[b.Category]
	switch {
	case b.SourceRating >= 4.5:
		score += 15
	case b.SourceRating >= 4.0:
		score += 10
	}
	if b.Deal != nil {
		score += 5
	}
	if !b.IsChain {
		score += 3 // tiebreak favoring local
	}
	// review-volume bonus, diminishing and capped
	if bonus := b.SourceReviewCount / 100; bonus > 0 {
		if bonus > 2 {
			bonus = 2
		}
		score += bonus
	}
	return score
}
