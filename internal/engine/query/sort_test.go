package query

import (
	"testing"

	"github.com/rendis/proximo/internal/model"
)

func enrichedFixture() []Enriched {
	return []Enriched{
		{Provider: model.Provider{ID: "a", PriceUSD: 150, Rating: 4.0, Available: true}, DistanceMiles: 12, HasDistance: true},
		{Provider: model.Provider{ID: "b", PriceUSD: 90, Rating: 4.9}},
		{Provider: model.Provider{ID: "c", PriceUSD: 200, Rating: 3.5, Featured: true}, DistanceMiles: 3, HasDistance: true},
		{Provider: model.Provider{ID: "d", PriceUSD: 90, Rating: 4.0, Available: true}, DistanceMiles: 30, HasDistance: true},
	}
}

func order(list []Enriched) []string {
	return ids(list)
}

func TestSortDistance(t *testing.T) {
	list := enrichedFixture()
	Sort(list, SortDistance)

	want := []string{"c", "a", "d", "b"}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("order = %v; want %v", order(list), want)
		}
	}
}

// Records without coordinates always come after every record with a
// distance under distance sort.
func TestSortDistanceMissingLast(t *testing.T) {
	list := []Enriched{
		{Provider: model.Provider{ID: "x"}},
		{Provider: model.Provider{ID: "y"}, DistanceMiles: 999, HasDistance: true},
		{Provider: model.Provider{ID: "z"}},
	}
	Sort(list, SortDistance)

	if list[0].ID != "y" {
		t.Fatalf("order = %v; record with a distance must sort first", order(list))
	}
	// Stable: x and z keep their relative order.
	if list[1].ID != "x" || list[2].ID != "z" {
		t.Fatalf("order = %v; distance-less ties must keep prior order", order(list))
	}
}

func TestSortPrice(t *testing.T) {
	list := enrichedFixture()
	Sort(list, SortPrice)

	want := []string{"b", "d", "a", "c"} // b before d: stable tie at 90
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("order = %v; want %v", order(list), want)
		}
	}
}

func TestSortRating(t *testing.T) {
	list := enrichedFixture()
	Sort(list, SortRating)

	want := []string{"b", "a", "d", "c"} // a before d: stable tie at 4.0
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("order = %v; want %v", order(list), want)
		}
	}
}

func TestSortAvailabilityAndFeatured(t *testing.T) {
	list := enrichedFixture()
	Sort(list, SortAvailability)
	if !list[0].Available || !list[1].Available || list[2].Available {
		t.Fatalf("availability sort: %v", order(list))
	}
	if list[0].ID != "a" || list[1].ID != "d" {
		t.Fatalf("availability ties must keep prior order: %v", order(list))
	}

	list = enrichedFixture()
	Sort(list, SortFeatured)
	if list[0].ID != "c" {
		t.Fatalf("featured-first sort: %v", order(list))
	}
}

func TestSortIsStableAcrossKeys(t *testing.T) {
	// All equal under every key: order must never change.
	mk := func() []Enriched {
		return []Enriched{
			{Provider: model.Provider{ID: "1", PriceUSD: 100, Rating: 4}},
			{Provider: model.Provider{ID: "2", PriceUSD: 100, Rating: 4}},
			{Provider: model.Provider{ID: "3", PriceUSD: 100, Rating: 4}},
		}
	}
	for _, key := range []SortKey{SortDistance, SortAvailability, SortFeatured, SortPrice, SortRating} {
		list := mk()
		Sort(list, key)
		if list[0].ID != "1" || list[1].ID != "2" || list[2].ID != "3" {
			t.Fatalf("%s sort reordered equal records: %v", key, order(list))
		}
	}
}

func TestNextSortKeyCycles(t *testing.T) {
	k := SortDistance
	seen := map[SortKey]bool{}
	for range sortKeys {
		seen[k] = true
		k = NextSortKey(k)
	}
	if k != SortDistance || len(seen) != len(sortKeys) {
		t.Fatalf("cycle visited %d keys, ended at %s", len(seen), k)
	}
}
