package app

import (
	"strings"
	"testing"

	"localspot/internal/domain"
)

func geoFeature(tags map[string]string) domain.GeoFeature {
	return domain.GeoFeature{ID: 101, Kind: "node", Lat: 45.52, Lon: -122.68, Tags: tags}
}

func TestNormalizeGeoFeature_DropsNamelessAndTypeless(t *testing.T) {
	cases := []map[string]string{
		{},                          // nothing at all
		{"amenity": "restaurant"},   // typed but unnamed
		{"name": "Mystery Corner"},  // named but untyped
		{"building": "yes", "name": ""}, // irrelevant tag only
	}
	for _, tags := range cases {
		if b := NormalizeGeoFeature(geoFeature(tags)); b != nil {
			t.Fatalf("expected nil for tags %v, got %+v", tags, b)
		}
	}
}

func TestNormalizeGeoFeature_Denylist(t *testing.T) {
	for _, tags := range []map[string]string{
		{"name": "St. Mary's", "amenity": "place_of_worship"},
		{"name": "Central Library", "amenity": "library"},
		{"name": "City Museum", "tourism": "museum", "amenity": "cafe"},
		{"name": "Laurelhurst", "leisure": "park"},
	} {
		if b := NormalizeGeoFeature(geoFeature(tags)); b != nil {
			t.Fatalf("denylisted feature survived: %v", tags)
		}
	}
}

func TestNormalizeGeoFeature_CategoryResolution(t *testing.T) {
	cases := []struct {
		tags map[string]string
		want domain.Category
	}{
		{map[string]string{"name": "A", "amenity": "restaurant"}, domain.CategoryFood},
		{map[string]string{"name": "B", "shop": "bakery"}, domain.CategoryFood},
		{map[string]string{"name": "C", "shop": "clothes"}, domain.CategoryRetail},
		{map[string]string{"name": "D", "shop": "hairdresser"}, domain.CategoryServices},
		{map[string]string{"name": "E", "craft": "plumber"}, domain.CategoryServices},
		{map[string]string{"name": "F", "office": "lawyer"}, domain.CategoryServices},
	}
	for _, c := range cases {
		b := NormalizeGeoFeature(geoFeature(c.tags))
		if b == nil {
			t.Fatalf("unexpected drop: %v", c.tags)
		}
		if b.Category != c.want {
			t.Fatalf("tags %v: category %s, want %s", c.tags, b.Category, c.want)
		}
	}
}

func TestNormalizeGeoFeature_FieldsAndMapsURL(t *testing.T) {
	b := NormalizeGeoFeature(geoFeature(map[string]string{
		"name":             "Rose City Books",
		"shop":             "books",
		"addr:housenumber": "714",
		"addr:street":      "NW 23rd Ave",
		"addr:city":        "Portland",
		"website":          "https://rosecitybooks.example",
		"opening_hours":    "Mo-Sa 10:00-18:00",
	}))
	if b == nil {
		t.Fatal("unexpected drop")
	}
	if b.ID != "osm-101" {
		t.Fatalf("id = %s", b.ID)
	}
	if b.Address != "714 NW 23rd Ave, Portland" {
		t.Fatalf("address = %q", b.Address)
	}
	if b.Lat == nil || b.Lon == nil {
		t.Fatal("coordinates missing")
	}
	if !strings.Contains(b.GoogleMapsURL, "45.52") {
		t.Fatalf("maps url should use coordinates: %s", b.GoogleMapsURL)
	}
	if b.Hours != "Mo-Sa 10:00-18:00" || b.Website != "https://rosecitybooks.example" {
		t.Fatalf("hours/website not mapped: %+v", b)
	}
}

func TestNormalizeGeoFeature_TagCap(t *testing.T) {
	b := NormalizeGeoFeature(geoFeature(map[string]string{
		"name":    "Everything Cafe",
		"amenity": "cafe",
		"cuisine": "coffee_shop;sandwich;soup;salad;breakfast;brunch",
	}))
	if b == nil {
		t.Fatal("unexpected drop")
	}
	if len(b.Tags) > 5 {
		t.Fatalf("tags must be capped at 5, got %d: %v", len(b.Tags), b.Tags)
	}
}

func TestNormalizeListing_DenylistAndCategories(t *testing.T) {
	park := domain.DirectoryListing{
		ID: "p1", Name: "Riverside Park",
		Categories: []domain.DirectoryCategory{{Alias: "parks", Title: "Parks"}},
	}
	if b := NormalizeListing(park); b != nil {
		t.Fatalf("park should be rejected, got %+v", b)
	}

	cafe := domain.DirectoryListing{
		ID: "c1", Name: "Bloom Cafe",
		Categories: []domain.DirectoryCategory{{Alias: "coffee", Title: "Coffee & Tea"}},
	}
	b := NormalizeListing(cafe)
	if b == nil || b.Category != domain.CategoryFood {
		t.Fatalf("expected Food, got %+v", b)
	}
	if b.ID != "dir-c1" {
		t.Fatalf("id = %s", b.ID)
	}
}

func TestNormalizeListing_KeywordFallbackThenDefault(t *testing.T) {
	// alias unknown, title carries a food keyword
	ramen := domain.DirectoryListing{
		ID: "r1", Name: "Noodle House",
		Categories: []domain.DirectoryCategory{{Alias: "ramenplaces", Title: "Ramen Restaurant"}},
	}
	if b := NormalizeListing(ramen); b == nil || b.Category != domain.CategoryFood {
		t.Fatalf("keyword fallback failed: %+v", b)
	}

	// nothing recognizable resolves to Services
	misc := domain.DirectoryListing{
		ID: "m1", Name: "Widget Co",
		Categories: []domain.DirectoryCategory{{Alias: "widgetry", Title: "Widgetry"}},
	}
	if b := NormalizeListing(misc); b == nil || b.Category != domain.CategoryServices {
		t.Fatalf("default category failed: %+v", b)
	}
}

func TestNormalizeListing_MapsURLTextFallback(t *testing.T) {
	l := domain.DirectoryListing{
		ID: "t1", Name: "Corner Store",
		Categories: []domain.DirectoryCategory{{Alias: "convenience", Title: "Convenience Store"}},
		Location:   domain.DirectoryLocation{Address1: "100 Main St", City: "Portland"},
	}
	b := NormalizeListing(l)
	if b == nil {
		t.Fatal("unexpected drop")
	}
	if b.GoogleMapsURL == "" {
		t.Fatal("maps url must never be empty")
	}
	if !strings.Contains(b.GoogleMapsURL, "Corner+Store") && !strings.Contains(b.GoogleMapsURL, "Corner%20Store") {
		t.Fatalf("expected text-query maps link, got %s", b.GoogleMapsURL)
	}
}

func TestNormalizeListing_DescriptionTemplate(t *testing.T) {
	l := domain.DirectoryListing{
		ID: "d1", Name: "Bloom Cafe",
		Categories: []domain.DirectoryCategory{
			{Alias: "coffee", Title: "Coffee & Tea"},
			{Alias: "bakeries", Title: "Bakeries"},
			{Alias: "cafes", Title: "Cafes"},
		},
		Location: domain.DirectoryLocation{City: "Portland"},
	}
	b := NormalizeListing(l)
	if b == nil {
		t.Fatal("unexpected drop")
	}
	// category + at most 2 titles + city, nothing more
	if !strings.Contains(b.Description, "Food") ||
		!strings.Contains(b.Description, "Coffee & Tea") ||
		!strings.Contains(b.Description, "Portland") {
		t.Fatalf("description = %q", b.Description)
	}
	if strings.Contains(b.Description, "Cafes") {
		t.Fatalf("description should carry at most 2 titles: %q", b.Description)
	}
}
