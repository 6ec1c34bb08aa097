package app

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"localspot/internal/adapters/observability"
	"localspot/internal/domain"
)

/********** taxonomy registries (single source of truth) **********/

// directoryAliases maps the directory provider's closed category-code set to
// the 3-way taxonomy.
var directoryAliases = map[string]domain.Category{
	"restaurants":    domain.CategoryFood,
	"food":           domain.CategoryFood,
	"coffee":         domain.CategoryFood,
	"cafes":          domain.CategoryFood,
	"bakeries":       domain.CategoryFood,
	"bars":           domain.CategoryFood,
	"delis":          domain.CategoryFood,
	"icecream":       domain.CategoryFood,
	"juicebars":      domain.CategoryFood,
	"grocery":        domain.CategoryRetail,
	"shopping":       domain.CategoryRetail,
	"fashion":        domain.CategoryRetail,
	"bookstores":     domain.CategoryRetail,
	"flowers":        domain.CategoryRetail,
	"antiques":       domain.CategoryRetail,
	"drugstores":     domain.CategoryRetail,
	"convenience":    domain.CategoryRetail,
	"homeandgarden":  domain.CategoryRetail,
	"beautysvc":      domain.CategoryServices,
	"hair":           domain.CategoryServices,
	"barbers":        domain.CategoryServices,
	"autorepair":     domain.CategoryServices,
	"drycleaning":    domain.CategoryServices,
	"gyms":           domain.CategoryServices,
	"plumbing":       domain.CategoryServices,
	"electricians":   domain.CategoryServices,
	"locksmiths":     domain.CategoryServices,
	"petservices":    domain.CategoryServices,
	"professional":   domain.CategoryServices,
	"homeservices":   domain.CategoryServices,
	"eventservices":  domain.CategoryServices,
	"realestate":     domain.CategoryServices,
	"financialsvcs":  domain.CategoryServices,
	"tattooshops":    domain.CategoryServices,
	"photographers":  domain.CategoryServices,
	"fitness":        domain.CategoryServices,
	"massage":        domain.CategoryServices,
	"opticians":      domain.CategoryServices,
	"veterinarians":  domain.CategoryServices,
	"laundryservice": domain.CategoryServices,
}

// directoryDenylist rejects codes that never represent a local business in
// this catalog, regardless of any other category on the listing.
var directoryDenylist = map[string]bool{
	"parks":         true,
	"libraries":     true,
	"museums":       true,
	"religiousorgs": true,
	"churches":      true,
	"synagogues":    true,
	"mosques":       true,
	"govt":          true,
	"publicservicesgovt": true,
	"landmarks":          true,
}

// foodKeywords back the fallback scan of human-readable category titles when
// no code matched.
var foodKeywords = []string{
	"food", "restaurant", "cafe", "coffee", "bakery", "bar", "grill",
	"kitchen", "pizza", "deli", "taco", "sushi", "noodle", "bbq", "diner",
}

// amenityCategories resolves geo-tag amenity values.
var amenityCategories = map[string]domain.Category{
	"restaurant": domain.CategoryFood,
	"cafe":       domain.CategoryFood,
	"fast_food":  domain.CategoryFood,
	"bar":        domain.CategoryFood,
	"pub":        domain.CategoryFood,
	"ice_cream":  domain.CategoryFood,
	"food_court": domain.CategoryFood,
	"pharmacy":   domain.CategoryRetail,
	"marketplace": domain.CategoryRetail,
	"bank":        domain.CategoryServices,
	"car_wash":    domain.CategoryServices,
	"car_rental":  domain.CategoryServices,
	"veterinary":  domain.CategoryServices,
	"dentist":     domain.CategoryServices,
	"clinic":      domain.CategoryServices,
}

// geoDenylist: amenity/tourism/leisure values that are not catalog material.
var geoDenylist = map[string]bool{
	"place_of_worship": true,
	"library":          true,
	"townhall":         true,
	"courthouse":       true,
	"police":           true,
	"fire_station":     true,
	"school":           true,
	"university":       true,
	"museum":           true,
	"park":             true,
	"monument":         true,
	"memorial":         true,
}

// foodShops: shop values that sell food and belong under Food rather than
// the Retail default for shops.
var foodShops = map[string]bool{
	"bakery": true, "butcher": true, "deli": true, "greengrocer": true,
	"confectionery": true, "ice_cream": true, "coffee": true, "tea": true,
}

// serviceShops: shop values that are really service businesses.
var serviceShops = map[string]bool{
	"hairdresser": true, "beauty": true, "dry_cleaning": true, "laundry": true,
	"tailor": true, "optician": true, "travel_agency": true, "massage": true,
	"tattoo": true, "car_repair": true, "shoe_repair": true,
}

/********** directory listing normalizer **********/

// NormalizeListing maps one directory record to a canonical Business, or nil
// when the record does not represent a surfaced establishment.
func NormalizeListing(l domain.DirectoryListing) *domain.Business {
	if strings.TrimSpace(l.Name) == "" {
		drop("directory", "unnamed")
		return nil
	}
	for _, c := range l.Categories {
		if directoryDenylist[c.Alias] {
			drop("directory", "denylisted")
			return nil
		}
	}

	cat, matched := resolveDirectoryCategory(l.Categories)
	if !matched && len(l.Categories) == 0 {
		drop("directory", "untyped")
		return nil
	}

	b := &domain.Business{
		ID:                "dir-" + l.ID,
		Name:              l.Name,
		Category:          cat,
		Address:           joinAddress(l.Location.Address1, l.Location.City),
		Phone:             l.Phone,
		Hours:             l.Hours,
		Website:           l.URL,
		PriceRange:        l.Price,
		SourceRating:      l.Rating,
		SourceReviewCount: l.ReviewCount,
		Deal:              l.Deal,
	}
	for _, c := range l.Categories {
		if len(b.Tags) == maxTags {
			break
		}
		if c.Title != "" {
			b.Tags = append(b.Tags, c.Title)
		}
	}
	if l.Latitude != nil && l.Longitude != nil {
		b.Lat, b.Lon = l.Latitude, l.Longitude
	}
	if l.ImageURL != "" {
		img := l.ImageURL
		b.Image = &img
	}
	b.GoogleMapsURL = mapsURL(b)
	b.Description = synthesizeDescription(cat, categoryTitles(l.Categories), l.Location.City)
	return b
}

func resolveDirectoryCategory(cats []domain.DirectoryCategory) (domain.Category, bool) {
	// 1) closed alias set
	for _, c := range cats {
		if resolved, ok := directoryAliases[c.Alias]; ok {
			return resolved, true
		}
	}
	// 2) fallback keyword scan over human-readable titles
	for _, c := range cats {
		title := strings.ToLower(c.Title)
		for _, kw := range foodKeywords {
			if strings.Contains(title, kw) {
				return domain.CategoryFood, true
			}
		}
	}
	// 3) default
	return domain.CategoryServices, false
}

/********** geo feature normalizer **********/

// NormalizeGeoFeature maps one raw map feature to a canonical Business, or
// nil when the feature is not a real establishment.
func NormalizeGeoFeature(f domain.GeoFeature) *domain.Business {
	name := strings.TrimSpace(f.Tags["name"])
	typed := f.Tags["amenity"] != "" || f.Tags["shop"] != "" || f.Tags["craft"] != "" ||
		f.Tags["office"] != "" || f.Tags["tourism"] != "" || f.Tags["leisure"] != ""
	if name == "" || !typed {
		drop("geo", "unnamed_or_untyped")
		return nil
	}
	if geoDenylist[f.Tags["amenity"]] || geoDenylist[f.Tags["tourism"]] || geoDenylist[f.Tags["leisure"]] {
		drop("geo", "denylisted")
		return nil
	}

	cat := resolveGeoCategory(f.Tags)
	lat, lon := f.Lat, f.Lon
	b := &domain.Business{
		ID:       fmt.Sprintf("osm-%d", f.ID),
		Name:     name,
		Category: cat,
		Address:  geoAddress(f.Tags),
		Phone:    firstTag(f.Tags, "phone", "contact:phone"),
		Hours:    f.Tags["opening_hours"],
		Website:  firstTag(f.Tags, "website", "contact:website"),
	}
	if lat != 0 || lon != 0 {
		b.Lat, b.Lon = &lat, &lon
	}
	b.Tags = geoLabels(f.Tags)
	b.GoogleMapsURL = mapsURL(b)
	b.Description = synthesizeDescription(cat, geoLabels(f.Tags), f.Tags["addr:city"])
	return b
}

func resolveGeoCategory(tags map[string]string) domain.Category {
	if c, ok := amenityCategories[tags["amenity"]]; ok {
		return c
	}
	if shop := tags["shop"]; shop != "" {
		if foodShops[shop] {
			return domain.CategoryFood
		}
		if serviceShops[shop] {
			return domain.CategoryServices
		}
		return domain.CategoryRetail
	}
	return domain.CategoryServices
}

/********** shared helpers **********/

const maxTags = 5

func drop(source, reason string) {
	observability.ObservePipeline("normalize", "dropped")
	log.Debug().Str("source", source).Str("reason", reason).Msg("record dropped")
}

func categoryTitles(cats []domain.DirectoryCategory) []string {
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		if c.Title != "" {
			out = append(out, c.Title)
		}
	}
	return out
}

// geoLabels turns the feature's type tags into short display labels, at most
// maxTags, insertion order fixed by tag-key priority.
func geoLabels(tags map[string]string) []string {
	var out []string
	for _, k := range []string{"amenity", "shop", "craft", "cuisine", "office", "tourism", "leisure"} {
		v := tags[k]
		if v == "" {
			continue
		}
		for _, part := range strings.Split(v, ";") {
			if len(out) == maxTags {
				return out
			}
			label := strings.ReplaceAll(strings.TrimSpace(part), "_", " ")
			if label != "" {
				out = append(out, label)
			}
		}
	}
	return out
}

func geoAddress(tags map[string]string) string {
	street := strings.TrimSpace(tags["addr:housenumber"] + " " + tags["addr:street"])
	return joinAddress(street, tags["addr:city"])
}

func joinAddress(parts ...string) string {
	var out []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, ", ")
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := tags[k]; v != "" {
			return v
		}
	}
	return ""
}

// synthesizeDescription builds the template description (category + up to 2
// titles + city). It never fabricates beyond this template; an empty result
// is acceptable output.
func synthesizeDescription(cat domain.Category, titles []string, city string) string {
	if len(titles) > 2 {
		titles = titles[:2]
	}
	var b strings.Builder
	b.WriteString(string(cat))
	if len(titles) > 0 {
		b.WriteString(" · " + strings.Join(titles, ", "))
	}
	if city != "" {
		b.WriteString(" · " + city)
	}
	return b.String()
}

// mapsURL derives a map link: exact coordinates when present, otherwise a
// text-query link from name and address. Never empty.
func mapsURL(b *domain.Business) string {
	if b.Lat != nil && b.Lon != nil {
		return fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%.6f%%2C%.6f", *b.Lat, *b.Lon)
	}
	q := url.QueryEscape(strings.TrimSpace(b.Name + " " + b.Address))
	return "https://www.google.com/maps/search/?api=1&query=" + q
}
