package query

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/rendis/proximo/internal/engine/geo"
	"github.com/rendis/proximo/internal/model"
)

var userLoc = orb.Point{-96.7970, 32.7767} // Dallas

func located(s State) State {
	s.SetUserLocation(userLoc)
	return s
}

func sampleProviders() []model.Provider {
	return []model.Provider{
		{
			ID: "near-available", Name: "Near Available",
			Lat: 32.80, Lng: -96.80, HasCoords: true,
			PriceUSD: 100, Rating: 4.8, Available: true, Incall: true,
			Badges: []string{"verified"},
		},
		{
			ID: "near-busy", Name: "Near Busy",
			Lat: 32.75, Lng: -96.85, HasCoords: true,
			PriceUSD: 150, Rating: 4.2, Outcall: true, OffersTravel: true,
		},
		{
			ID: "far-featured", Name: "Far Featured",
			Lat: 29.76, Lng: -95.37, HasCoords: true, // Houston, ~225 mi
			PriceUSD: 200, Rating: 5.0, Available: true, Featured: true,
			Badges: []string{"verified"},
		},
		{
			ID: "unplaced", Name: "Unplaced",
			PriceUSD: 90, Rating: 3.9, Available: true, Incall: true, Outcall: true,
		},
	}
}

func ids(list []Enriched) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.ID
	}
	return out
}

func contains(list []Enriched, id string) bool {
	for _, e := range list {
		if e.ID == id {
			return true
		}
	}
	return false
}

func TestFilterTogglesAreConjunctive(t *testing.T) {
	providers := sampleProviders()
	s := NewState()
	s.PriceMin, s.PriceMax = 0, 1000

	got := Filter(Enrich(providers, s), s)
	if len(got) != 4 {
		t.Fatalf("no toggles: got %d records, want 4", len(got))
	}

	s.AvailableOnly = true
	got = Filter(Enrich(providers, s), s)
	if len(got) != 3 || contains(got, "near-busy") {
		t.Fatalf("availableOnly: got %v", ids(got))
	}

	s.IncallOnly = true
	got = Filter(Enrich(providers, s), s)
	if len(got) != 2 {
		t.Fatalf("available+incall: got %v", ids(got))
	}
}

// Adding one more active toggle never grows the result set.
func TestFilterMonotonicity(t *testing.T) {
	providers := sampleProviders()
	base := located(NewState())
	base.PriceMin, base.PriceMax = 0, 1000

	toggles := []func(*State){
		func(s *State) { s.AvailableOnly = true },
		func(s *State) { s.IncallOnly = true },
		func(s *State) { s.OutcallOnly = true },
		func(s *State) { s.VerifiedOnly = true },
		func(s *State) { s.FeaturedOnly = true },
		func(s *State) { s.TravelOnly = true },
	}

	baseResult := Filter(Enrich(providers, base), base)
	for i, toggle := range toggles {
		narrowed := base
		toggle(&narrowed)
		result := Filter(Enrich(providers, narrowed), narrowed)

		if len(result) > len(baseResult) {
			t.Fatalf("toggle %d grew the result set: %d > %d", i, len(result), len(baseResult))
		}
		for _, e := range result {
			if !contains(baseResult, e.ID) {
				t.Fatalf("toggle %d produced %s not present in the wider set", i, e.ID)
			}
		}
	}
}

func TestPriceRangeInclusive(t *testing.T) {
	providers := []model.Provider{
		{ID: "at-min", PriceUSD: 80},
		{ID: "at-max", PriceUSD: 250},
		{ID: "below", PriceUSD: 79.99},
		{ID: "above", PriceUSD: 250.01},
	}
	s := NewState() // 80..250

	got := Filter(Enrich(providers, s), s)
	if !contains(got, "at-min") || !contains(got, "at-max") {
		t.Fatalf("boundary prices must be included, got %v", ids(got))
	}
	if contains(got, "below") || contains(got, "above") {
		t.Fatalf("out-of-range prices must be excluded, got %v", ids(got))
	}
}

func TestRadiusBoundary(t *testing.T) {
	// Place one provider exactly 25 miles north of the user and one just
	// beyond, then filter with a 25-mile radius.
	exact := geo.OffsetMiles(userLoc, 25, 0)
	beyond := geo.OffsetMiles(userLoc, 25.05, 0)

	providers := []model.Provider{
		{ID: "exact", Lat: exact.Lat(), Lng: exact.Lon(), HasCoords: true, PriceUSD: 100},
		{ID: "beyond", Lat: beyond.Lat(), Lng: beyond.Lon(), HasCoords: true, PriceUSD: 100},
		{ID: "no-coords", PriceUSD: 100},
	}

	s := located(NewState())
	// Pin the radius to the measured distance so "exact" sits precisely on
	// the boundary regardless of floating-point rounding in the offset.
	s.SetRadius(geo.HaversineMiles(userLoc, exact))
	got := Filter(Enrich(providers, s), s)

	if !contains(got, "exact") {
		t.Error("record at exactly the radius must be included")
	}
	if contains(got, "beyond") {
		t.Error("record beyond the radius must be excluded")
	}
	if contains(got, "no-coords") {
		t.Error("record without coordinates must be excluded while the radius filter is active")
	}
}

func TestRadiusInactiveWithoutUserLocation(t *testing.T) {
	providers := []model.Provider{
		{ID: "anywhere", Lat: 1, Lng: 1, HasCoords: true, PriceUSD: 100},
		{ID: "no-coords", PriceUSD: 100},
	}
	s := NewState() // no user location

	got := Filter(Enrich(providers, s), s)
	if len(got) != 2 {
		t.Fatalf("radius must not apply without a user location, got %v", ids(got))
	}
}

// §8 property 8: A fits the price but has no coordinates, B is inside the
// radius but priced out. Both filters together leave nothing.
func TestFilterEndToEndEmpty(t *testing.T) {
	near := geo.OffsetMiles(userLoc, 5, 0)
	providers := []model.Provider{
		{ID: "A", PriceUSD: 90, Available: true},
		{ID: "B", PriceUSD: 300, Lat: near.Lat(), Lng: near.Lon(), HasCoords: true},
	}

	s := located(NewState())
	s.AvailableOnly = true

	if got := Apply(providers, s); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", ids(got))
	}
}

func TestEnrichDistances(t *testing.T) {
	providers := sampleProviders()

	// Without a user location no distances exist.
	plain := Enrich(providers, NewState())
	for _, e := range plain {
		if e.HasDistance {
			t.Fatalf("record %s has a distance without a user location", e.ID)
		}
	}

	enriched := Enrich(providers, located(NewState()))
	for _, e := range enriched {
		if e.HasCoords != e.HasDistance {
			t.Fatalf("record %s: HasCoords=%v but HasDistance=%v", e.ID, e.HasCoords, e.HasDistance)
		}
	}
}
