package query

import (
	"testing"

	"github.com/paulmach/orb"
)

// §4.5: two load-mores from the base of 12 give 28; any filter change
// snaps back to 12.
func TestPaginationGrowAndReset(t *testing.T) {
	s := NewState()
	total := 100

	s.GrowPage(total)
	s.GrowPage(total)
	if s.VisibleCount != 28 {
		t.Fatalf("VisibleCount = %d after two grows; want 28", s.VisibleCount)
	}

	mutations := []struct {
		name string
		run  func(*State)
	}{
		{"toggle available", func(s *State) { s.Toggle("available") }},
		{"toggle verified", func(s *State) { s.Toggle("verified") }},
		{"radius", func(s *State) { s.SetRadius(50) }},
		{"price min", func(s *State) { s.SetPriceMin(100) }},
		{"price max", func(s *State) { s.SetPriceMax(300) }},
		{"sort", func(s *State) { s.SetSort(SortPrice) }},
		{"user location", func(s *State) { s.SetUserLocation(orb.Point{-96.8, 32.8}) }},
	}

	for _, m := range mutations {
		t.Run(m.name, func(t *testing.T) {
			st := NewState()
			st.GrowPage(total)
			st.GrowPage(total)
			m.run(&st)
			if st.VisibleCount != BasePageSize {
				t.Fatalf("VisibleCount = %d after %s; want %d", st.VisibleCount, m.name, BasePageSize)
			}
		})
	}
}

func TestGrowPageCapsAtTotal(t *testing.T) {
	s := NewState()
	s.GrowPage(15)
	if s.VisibleCount != 15 {
		t.Fatalf("VisibleCount = %d; want 15", s.VisibleCount)
	}
	s.GrowPage(15)
	if s.VisibleCount != 15 {
		t.Fatalf("VisibleCount = %d after growing past total; want 15", s.VisibleCount)
	}
	// Shrinking total never shrinks the prefix retroactively; Page clamps.
	s.GrowPage(5)
	if s.VisibleCount != 15 {
		t.Fatalf("VisibleCount = %d; want 15", s.VisibleCount)
	}
}

func TestPriceClamping(t *testing.T) {
	s := NewState() // 80..250

	s.SetPriceMin(400)
	if s.PriceMin != 250 {
		t.Fatalf("PriceMin = %v; must clamp to PriceMax", s.PriceMin)
	}

	s = NewState()
	s.SetPriceMax(10)
	if s.PriceMax != 80 {
		t.Fatalf("PriceMax = %v; must clamp to PriceMin", s.PriceMax)
	}

	s = NewState()
	s.SetPriceMin(-5)
	if s.PriceMin != 0 {
		t.Fatalf("PriceMin = %v; negative input must clamp to 0", s.PriceMin)
	}
}

func TestSetSortNeedsLocation(t *testing.T) {
	s := NewState()
	if !s.SetSort(SortDistance) {
		t.Error("distance sort without a location must signal needs-location")
	}
	if s.SetSort(SortPrice) {
		t.Error("price sort never needs a location")
	}

	s.SetUserLocation(orb.Point{-96.8, 32.8})
	if s.SetSort(SortDistance) {
		t.Error("distance sort with a known location must not signal")
	}
}

func TestToggleUnknownNameIsNoop(t *testing.T) {
	s := NewState()
	s.GrowPage(100)
	before := s
	s.Toggle("bogus")
	if s != before {
		t.Fatalf("unknown toggle mutated state: %+v", s)
	}
}

func TestPageClamps(t *testing.T) {
	list := make([]Enriched, 10)
	if got := Page(list, 25); len(got) != 10 {
		t.Fatalf("Page beyond length = %d; want 10", len(got))
	}
	if got := Page(list, 4); len(got) != 4 {
		t.Fatalf("Page = %d; want 4", len(got))
	}
	if got := Page(list, -1); len(got) != 0 {
		t.Fatalf("negative count = %d; want 0", len(got))
	}
}

func TestMapPins(t *testing.T) {
	list := []Enriched{}
	for i := 0; i < 60; i++ {
		e := Enriched{}
		e.ID = string(rune('a' + i%26))
		e.HasCoords = i%2 == 0
		list = append(list, e)
	}

	pins := MapPins(list, 0) // 0 = default limit
	if len(pins) != MapPinLimit {
		t.Fatalf("len(pins) = %d; want %d", len(pins), MapPinLimit)
	}
	for _, p := range pins {
		if !p.HasCoords {
			t.Fatal("pin without coordinates")
		}
	}

	if got := MapPins(list[:3], 10); len(got) != 2 {
		t.Fatalf("short list pins = %d; want 2", len(got))
	}
}
