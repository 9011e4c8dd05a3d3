package model

import (
	"strings"

	"github.com/paulmach/orb"
)

// Provider represents a directory listing for a single massage provider.
type Provider struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	RawLocation string   `json:"raw_location"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	HasCoords   bool     `json:"has_coords"`
	Rating      float64  `json:"rating"`
	RatingCount int      `json:"rating_count"`
	Tags        []string `json:"tags"`
	PriceUSD    float64  `json:"price_usd"`
	Phone       string   `json:"phone"`
	PhotoURL    string   `json:"photo_url"`
	Badges      []string `json:"badges"`

	Available     bool `json:"available"`
	OffersTravel  bool `json:"offers_travel"`
	Featured      bool `json:"featured"`
	Incall        bool `json:"incall"`
	Outcall       bool `json:"outcall"`
	HighestRated  bool `json:"highest_rated"`
	HighestReview bool `json:"highest_review"`
}

// Point returns the provider's coordinates as an orb point ([lng, lat]).
// Only meaningful when HasCoords is true.
func (p Provider) Point() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// Verified reports whether the provider carries the verified badge.
func (p Provider) Verified() bool {
	for _, b := range p.Badges {
		if b == "verified" {
			return true
		}
	}
	return false
}

// Location renders "City, ST" with whichever parts are known, falling back
// to the raw location string when resolution produced nothing.
func (p Provider) Location() string {
	switch {
	case p.City != "" && p.State != "":
		return p.City + ", " + p.State
	case p.City != "":
		return p.City
	case p.State != "":
		return p.State
	default:
		return p.RawLocation
	}
}

// WhatsAppURL builds a wa.me deep link from the provider's phone number.
// Returns "" when no phone is on file.
func (p Provider) WhatsAppURL() string {
	digits := digitsOnly(p.Phone)
	if digits == "" {
		return ""
	}
	return "https://wa.me/" + digits
}

// TelURL builds a tel: link for the provider's phone number.
func (p Provider) TelURL() string {
	digits := digitsOnly(p.Phone)
	if digits == "" {
		return ""
	}
	return "tel:+" + digits
}

// ProfilePath is the site-relative route for the provider's full profile.
func (p Provider) ProfilePath() string {
	return "/therapist/" + p.ID
}

// MarkTop flags the highest-rated provider(s) and the one(s) with the most
// reviews, relative to the whole dataset. Derived at load time, never
// persisted; ties all get the flag.
func MarkTop(providers []Provider) {
	var maxRating float64
	maxCount := 0
	for _, p := range providers {
		if p.Rating > maxRating {
			maxRating = p.Rating
		}
		if p.RatingCount > maxCount {
			maxCount = p.RatingCount
		}
	}
	for i := range providers {
		providers[i].HighestRated = maxRating > 0 && providers[i].Rating == maxRating
		providers[i].HighestReview = maxCount > 0 && providers[i].RatingCount == maxCount
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SyncParams holds all configuration for a directory sync session.
type SyncParams struct {
	SourceURL   string // directory API base URL
	APIKey      string
	Limit       int // max rows to fetch (0 = all)
	PageSize    int
	Concurrency int // geocoding fan-out cap
	DBPath      string
	ProxyURL    string
	Debug       bool
}
