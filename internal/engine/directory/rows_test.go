package directory

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
)

func TestRowProviderMapping(t *testing.T) {
	raw := `{
		"user_id": "u-123",
		"slug": "alex-dallas",
		"display_name": "  Alex  ",
		"latitude": "32.7767",
		"longitude": -96.797,
		"services": "Deep Tissue, Mobile Massage, ",
		"profile_photo": "https://cdn.example.com/alex.jpg",
		"zip_code": "75001",
		"phone": "+1 (214) 555-0101",
		"city": "Dallas",
		"state": "TX",
		"status": "active",
		"rating": "4.5",
		"rating_count": 37,
		"starting_price": 120,
		"incall": true,
		"outcall": false
	}`

	var row Row
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	p := row.Provider()

	if p.ID != "alex-dallas" {
		t.Errorf("ID = %q; want slug", p.ID)
	}
	if p.Name != "Alex" {
		t.Errorf("Name = %q; want trimmed", p.Name)
	}
	if !p.HasCoords || p.Lat != 32.7767 || p.Lng != -96.797 {
		t.Errorf("coords = (%v, %v, %v); string and number forms must both parse", p.Lat, p.Lng, p.HasCoords)
	}
	if len(p.Tags) != 2 || p.Tags[0] != "Deep Tissue" || p.Tags[1] != "Mobile Massage" {
		t.Errorf("Tags = %v; want trimmed non-empty entries", p.Tags)
	}
	if !p.OffersTravel {
		t.Error("OffersTravel must be derived from the mobile tag")
	}
	if p.Rating != 4.5 || p.RatingCount != 37 {
		t.Errorf("rating = %v (%d)", p.Rating, p.RatingCount)
	}
	if p.PriceUSD != 120 {
		t.Errorf("PriceUSD = %v", p.PriceUSD)
	}
	if !p.Available {
		t.Error("active status must map to Available")
	}
	if !p.Incall || p.Outcall {
		t.Errorf("incall/outcall = %v/%v", p.Incall, p.Outcall)
	}
	if p.RawLocation != "Dallas - TX" {
		t.Errorf("RawLocation = %q; city+state form wins over zip", p.RawLocation)
	}
	if !p.Verified() {
		t.Error("rows default to the verified badge")
	}
}

func TestRowProviderDefaults(t *testing.T) {
	var row Row
	if err := json.Unmarshal([]byte(`{"user_id":"u-9","status":"paused","zip_code":"01310-100","rating":"not-a-number"}`), &row); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	p := row.Provider()

	if p.ID != "u-9" {
		t.Errorf("ID = %q; want user_id fallback", p.ID)
	}
	if p.Name != "Unnamed Provider" {
		t.Errorf("Name = %q", p.Name)
	}
	if p.HasCoords {
		t.Error("no coordinates in the row")
	}
	if p.Rating != 5 {
		t.Errorf("Rating = %v; malformed cell falls back to default", p.Rating)
	}
	if p.PriceUSD != 100 {
		t.Errorf("PriceUSD = %v; want default", p.PriceUSD)
	}
	if p.Available {
		t.Error("paused status is not available")
	}
	if p.RawLocation != "01310-100" {
		t.Errorf("RawLocation = %q; zip is the fallback signal", p.RawLocation)
	}
}

func TestRowServicesArrayForm(t *testing.T) {
	var row Row
	if err := json.Unmarshal([]byte(`{"services":["Swedish"," Sports ",""]}`), &row); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(row.Services) != 2 || row.Services[1] != "Sports" {
		t.Fatalf("Services = %v", row.Services)
	}
}

func TestRatingClamped(t *testing.T) {
	var row Row
	if err := json.Unmarshal([]byte(`{"rating": 9.9}`), &row); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := row.Provider().Rating; got != 5 {
		t.Fatalf("Rating = %v; want clamp to 5", got)
	}
}

func TestFetchPage(t *testing.T) {
	var gotQuery string
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("apikey")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"user_id":"u-1","slug":"a","status":"active"},{"user_id":"u-2","slug":"b","status":"active"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "")
	rows, err := c.FetchPage(t.Context(), 0, 50)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if len(rows) != 2 || rows[0].Slug != "a" {
		t.Fatalf("rows = %+v", rows)
	}
	if gotKey != "test-key" {
		t.Errorf("apikey header = %q", gotKey)
	}
	for _, frag := range []string{"status=eq.active", "offset=0", "limit=50"} {
		if !containsParam(gotQuery, frag) {
			t.Errorf("query %q missing %q", gotQuery, frag)
		}
	}
}

func TestFetchPageBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "")
	if _, err := c.FetchPage(t.Context(), 0, 10); err == nil {
		t.Fatal("expected error on 401")
	}
}

func containsParam(query, frag string) bool {
	return slices.Contains(strings.Split(query, "&"), frag)
}
