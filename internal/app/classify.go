package app

import (
	"regexp"
	"strings"

	"localspot/internal/domain"
)

/********** chain detection **********/

// chainBrands is the heuristic brand list. Substring matching accepts false
// positives and negatives; the list is a package var so deployments can swap
// it without touching pipeline logic.
var chainBrands = []string{
	"mcdonald", "starbucks", "subway", "burger king", "kfc", "pizza hut",
	"domino", "dunkin", "taco bell", "wendy", "chipotle", "chick-fil-a",
	"panera", "papa john", "little caesars", "dairy queen", "popeyes",
	"baskin", "walmart", "target", "costco", "walgreens", "cvs",
	"7-eleven", "home depot",
}

// IsChainName reports whether a name or explicit brand attribute matches a
// known chain brand.
func IsChainName(name, brand string) bool {
	n := strings.ToLower(name)
	b := strings.ToLower(brand)
	for _, c := range chainBrands {
		if strings.Contains(n, c) {
			return true
		}
		if b != "" && strings.Contains(b, c) {
			return true
		}
	}
	return false
}

/********** relevancy scoring **********/

const baseScore = 50

var familyKeywords = []string{
	"family", "local", "mom", "pop", "& son", "& sons", "& daughters",
	"brothers", "sisters", "hermanos",
}

// possessive names ("Joe's", "Kim's Kitchen") read as independent owners.
var possessiveRe = regexp.MustCompile(`\w+'s\b`)

var craftTrades = map[string]bool{
	"electrician": true, "plumber": true, "carpenter": true, "painter": true,
	"shoemaker": true, "tailor": true, "photographer": true, "locksmith": true,
	"blacksmith": true, "upholsterer": true,
}

// favoredSubtypes get a boost: the small independent shops this catalog is
// built to surface.
var favoredSubtypes = map[string]bool{
	"deli": true, "bakery": true, "cafe": true, "butcher": true,
	"greengrocer": true, "books": true, "florist": true, "ice_cream": true,
	"cheese": true, "coffee": true,
}

// infrastructure mislabeled as a business must never rank into the catalog.
var infrastructureTags = map[string]bool{
	"parking": true, "parking_entrance": true, "parking_space": true,
	"atm": true, "vending_machine": true,
}

// scoreCommon applies the provider-independent adjustments.
func scoreCommon(name string, externalReviews int, isChain bool) int {
	score := baseScore
	if isChain {
		score -= 40
	}
	switch {
	case externalReviews > 500:
		score -= 10
	case externalReviews > 0 && externalReviews < 50:
		score += 15
	case externalReviews >= 50 && externalReviews < 100:
		score += 10
	}
	lower := strings.ToLower(name)
	for _, kw := range familyKeywords {
		if strings.Contains(lower, kw) {
			score += 25
			break
		}
	}
	if possessiveRe.MatchString(name) {
		score += 20
	}
	return score
}

// ScoreListing scores a directory-sourced business. The directory provider
// exposes no raw tags, so only the common adjustments apply.
func ScoreListing(l domain.DirectoryListing, isChain bool) int {
	return scoreCommon(l.Name, l.ReviewCount, isChain)
}

// ScoreGeoFeature scores a geo-tag-sourced business. Raw tags unlock the
// richer adjustments; the asymmetry with ScoreListing is deliberate.
func ScoreGeoFeature(f domain.GeoFeature, isChain bool) int {
	score := scoreCommon(f.Tags["name"], 0, isChain)

	if craftTrades[f.Tags["craft"]] {
		score += 40
	}
	if f.Tags["brand"] == "" {
		score += 20
	}
	if favoredSubtypes[f.Tags["shop"]] || favoredSubtypes[f.Tags["amenity"]] {
		score += 15
	}
	if f.Tags["website"] != "" || f.Tags["contact:website"] != "" {
		score += 10
	}
	if infrastructureTags[f.Tags["amenity"]] {
		// guarantee exclusion even if the query filter let it through
		score -= 200
	}
	return score
}

// Classify stamps the classification-time fields on a normalized business.
// They are immutable afterwards.
func classifyListing(b *domain.Business, l domain.DirectoryListing) {
	b.IsChain = IsChainName(l.Name, "")
	b.RelevancyScore = ScoreListing(l, b.IsChain)
}

func classifyGeoFeature(b *domain.Business, f domain.GeoFeature) {
	b.IsChain = IsChainName(f.Tags["name"], f.Tags["brand"])
	b.RelevancyScore = ScoreGeoFeature(f, b.IsChain)
}
