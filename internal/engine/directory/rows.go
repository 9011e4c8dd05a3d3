package directory

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rendis/proximo/internal/model"
)

const (
	defaultRating   = 5
	defaultPriceUSD = 100
)

// flexFloat accepts both JSON numbers and quoted numbers. The hosted API
// serves numeric columns as either depending on the column type.
type flexFloat struct {
	Value float64
	Valid bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = flexFloat{}
		return nil
	}
	s := string(data)
	if s[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = flexFloat{}
			return nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Keep the row; a malformed numeric cell is not worth dropping it.
		*f = flexFloat{}
		return nil
	}
	*f = flexFloat{Value: v, Valid: true}
	return nil
}

// flexStrings accepts either a JSON array of strings or a single
// comma-joined string.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = nil
		return nil
	}
	if data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*f = cleanTags(list)
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	*f = cleanTags(strings.Split(joined, ","))
	return nil
}

func cleanTags(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Row is one provider record as served by the directory API.
type Row struct {
	UserID       string      `json:"user_id"`
	Slug         string      `json:"slug"`
	DisplayName  string      `json:"display_name"`
	Latitude     flexFloat   `json:"latitude"`
	Longitude    flexFloat   `json:"longitude"`
	Services     flexStrings `json:"services"`
	ProfilePhoto string      `json:"profile_photo"`
	ZipCode      string      `json:"zip_code"`
	Phone        string      `json:"phone"`
	City         string      `json:"city"`
	State        string      `json:"state"`
	Status       string      `json:"status"`
	Rating       flexFloat   `json:"rating"`
	RatingCount  flexFloat   `json:"rating_count"`
	Price        flexFloat   `json:"starting_price"`
	Incall       *bool       `json:"incall"`
	Outcall      *bool       `json:"outcall"`
	Featured     *bool       `json:"featured"`
}

// Provider maps a raw API row to the domain record. Missing fields get
// deterministic defaults so two syncs of the same dataset agree.
func (r Row) Provider() model.Provider {
	p := model.Provider{
		ID:        r.Slug,
		Name:      strings.TrimSpace(r.DisplayName),
		City:      strings.TrimSpace(r.City),
		State:     strings.TrimSpace(r.State),
		Tags:      r.Services,
		Phone:     strings.TrimSpace(r.Phone),
		PhotoURL:  r.ProfilePhoto,
		Rating:    defaultRating,
		PriceUSD:  defaultPriceUSD,
		Badges:    []string{"verified"},
		Available: r.Status == "active",
		Incall:    r.Incall != nil && *r.Incall,
		Outcall:   r.Outcall != nil && *r.Outcall,
		Featured:  r.Featured != nil && *r.Featured,
	}
	if p.ID == "" {
		p.ID = r.UserID
	}
	if p.Name == "" {
		p.Name = "Unnamed Provider"
	}

	if r.Latitude.Valid && r.Longitude.Valid {
		p.Lat = r.Latitude.Value
		p.Lng = r.Longitude.Value
		p.HasCoords = true
	}
	if r.Rating.Valid {
		p.Rating = clampRating(r.Rating.Value)
	}
	if r.RatingCount.Valid && r.RatingCount.Value > 0 {
		p.RatingCount = int(r.RatingCount.Value)
	}
	if r.Price.Valid && r.Price.Value >= 0 {
		p.PriceUSD = r.Price.Value
	}

	for _, tag := range r.Services {
		low := strings.ToLower(tag)
		if strings.Contains(low, "mobile") || strings.Contains(low, "travel") {
			p.OffersTravel = true
			break
		}
	}

	// Raw location feeds the resolver when coordinates are absent. Prefer
	// the most specific signal the row carries.
	switch {
	case p.City != "" && p.State != "":
		p.RawLocation = p.City + " - " + p.State
	case r.ZipCode != "":
		p.RawLocation = strings.TrimSpace(r.ZipCode)
	case p.City != "":
		p.RawLocation = p.City
	}

	return p
}

func clampRating(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 5 {
		return 5
	}
	return v
}
