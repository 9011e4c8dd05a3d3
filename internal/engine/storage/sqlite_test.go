package storage

import (
	"path/filepath"
	"testing"

	"github.com/rendis/proximo/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)

	in := []model.Provider{
		{
			ID: "alex-dallas", Name: "Alex", RawLocation: "Dallas - TX",
			City: "Dallas", State: "TX",
			Lat: 32.7767, Lng: -96.797, HasCoords: true,
			Rating: 4.5, RatingCount: 37,
			Tags: []string{"Deep Tissue", "Sports"}, PriceUSD: 120,
			Phone: "+12145550101", PhotoURL: "https://cdn.example.com/a.jpg",
			Badges: []string{"verified"},
			Available: true, Incall: true,
		},
		{
			ID: "sam-sp", Name: "Sam", RawLocation: "01310-100",
			Rating: 5, PriceUSD: 100,
			OffersTravel: true, Outcall: true,
		},
	}

	n, err := s.InsertBatch(in)
	if err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	if n != 2 {
		t.Fatalf("stored = %d; want 2", n)
	}

	out, err := s.LoadProviders()
	if err != nil {
		t.Fatalf("LoadProviders: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("loaded %d providers", len(out))
	}

	// Ordered by name.
	alex, sam := out[0], out[1]
	if alex.ID != "alex-dallas" || sam.ID != "sam-sp" {
		t.Fatalf("order = %s, %s", alex.ID, sam.ID)
	}
	if !alex.HasCoords || alex.Lat != 32.7767 || alex.Lng != -96.797 {
		t.Errorf("alex coords = %+v", alex)
	}
	if sam.HasCoords {
		t.Error("sam has no coordinates; NULL must round-trip to HasCoords=false")
	}
	if len(alex.Tags) != 2 || alex.Tags[1] != "Sports" {
		t.Errorf("alex tags = %v", alex.Tags)
	}
	if !alex.Available || !alex.Incall || alex.Outcall {
		t.Errorf("alex flags = %+v", alex)
	}
	if !sam.OffersTravel || !sam.Outcall {
		t.Errorf("sam flags = %+v", sam)
	}
	if alex.RawLocation != "Dallas - TX" {
		t.Errorf("RawLocation = %q", alex.RawLocation)
	}

	// Dataset-relative flags derived on load: sam has the top rating, alex
	// the most reviews.
	if !sam.HighestRated || alex.HighestRated {
		t.Errorf("HighestRated: alex=%v sam=%v", alex.HighestRated, sam.HighestRated)
	}
	if !alex.HighestReview || sam.HighestReview {
		t.Errorf("HighestReview: alex=%v sam=%v", alex.HighestReview, sam.HighestReview)
	}
}

func TestInsertBatchUpserts(t *testing.T) {
	s := openTestStore(t)

	first := model.Provider{ID: "p-1", Name: "Before", PriceUSD: 90}
	if _, err := s.InsertBatch([]model.Provider{first}); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	second := first
	second.Name = "After"
	second.PriceUSD = 150
	second.Lat, second.Lng, second.HasCoords = 10, 20, true
	if _, err := s.InsertBatch([]model.Provider{second}); err != nil {
		t.Fatalf("second insert: %v", err)
	}

	count, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d; re-sync must not duplicate", count)
	}

	out, err := s.LoadProviders()
	if err != nil {
		t.Fatalf("LoadProviders: %v", err)
	}
	p := out[0]
	if p.Name != "After" || p.PriceUSD != 150 || !p.HasCoords {
		t.Fatalf("row not refreshed: %+v", p)
	}
}

func TestInsertBatchSkipsEmptyID(t *testing.T) {
	s := openTestStore(t)

	n, err := s.InsertBatch([]model.Provider{{Name: "No ID"}, {ID: "ok", Name: "OK"}})
	if err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	if n != 1 {
		t.Fatalf("stored = %d; record without an id must be skipped", n)
	}
}
