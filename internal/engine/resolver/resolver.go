package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const userAgent = "proximo/0.1 (provider directory sync)"

// Place is the best-effort result of resolving a raw location string.
// HasCoords is false when no geocoding stage produced coordinates; City
// and State may still be populated from a postal lookup.
type Place struct {
	City      string
	State     string
	Lat       float64
	Lng       float64
	HasCoords bool
}

// Resolver turns ambiguous location strings (free text, US ZIP, Brazilian
// CEP) into normalized places via up to two outbound lookups per string.
type Resolver struct {
	http         *http.Client
	nominatimURL string
	zippoURL     string
	viacepURL    string
}

// Option overrides a Resolver default, mainly for tests.
type Option func(*Resolver)

func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.http = c }
}

func WithNominatimURL(u string) Option {
	return func(r *Resolver) { r.nominatimURL = u }
}

func WithZippopotamURL(u string) Option {
	return func(r *Resolver) { r.zippoURL = u }
}

func WithViaCepURL(u string) Option {
	return func(r *Resolver) { r.viacepURL = u }
}

func New(opts ...Option) *Resolver {
	r := &Resolver{
		http:         &http.Client{Timeout: 10 * time.Second},
		nominatimURL: "https://nominatim.openstreetmap.org/search",
		zippoURL:     "https://api.zippopotam.us/us",
		viacepURL:    "https://viacep.com.br/ws",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve classifies raw and resolves it into a Place. It never returns an
// error: any lookup failure along the way leaves the corresponding fields
// empty, so callers always get the best partial result available.
func (r *Resolver) Resolve(ctx context.Context, raw string) Place {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Place{}
	}

	switch Classify(s) {
	case KindCityState:
		city, state := SplitCityState(s)
		p := Place{City: city, State: state}
		if lat, lng, ok := r.geocode(ctx, city+" "+state); ok {
			p.Lat, p.Lng, p.HasCoords = lat, lng, true
		}
		return p

	case KindZipUS:
		if p, ok := r.lookupZip(ctx, s); ok {
			return p
		}
		// Postal lookup failed; fall back to geocoding the code itself.
		p := Place{}
		if lat, lng, ok := r.geocode(ctx, s); ok {
			p.Lat, p.Lng, p.HasCoords = lat, lng, true
		}
		return p

	case KindCepBR:
		p, ok := r.lookupCep(ctx, s)
		if !ok {
			return Place{}
		}
		// ViaCEP has no coordinates; follow up with a free-text geocode.
		if lat, lng, ok := r.geocode(ctx, p.City+" "+p.State); ok {
			p.Lat, p.Lng, p.HasCoords = lat, lng, true
		}
		return p

	default:
		p := Place{}
		if lat, lng, ok := r.geocodeWithName(ctx, s, &p.City); ok {
			p.Lat, p.Lng, p.HasCoords = lat, lng, true
		}
		return p
	}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (r *Resolver) geocode(ctx context.Context, query string) (lat, lng float64, ok bool) {
	var city string
	return r.geocodeWithName(ctx, query, &city)
}

// geocodeWithName geocodes free text via Nominatim and, when the caller's
// city is still unknown, fills it from the first display-name segment.
func (r *Resolver) geocodeWithName(ctx context.Context, query string, city *string) (lat, lng float64, ok bool) {
	u := r.nominatimURL + "?" + url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}.Encode()

	var results []nominatimResult
	if err := r.getJSON(ctx, u, &results); err != nil || len(results) == 0 {
		return 0, 0, false
	}

	lat, err1 := strconv.ParseFloat(results[0].Lat, 64)
	lng, err2 := strconv.ParseFloat(results[0].Lon, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}

	if city != nil && *city == "" && results[0].DisplayName != "" {
		*city = strings.TrimSpace(strings.SplitN(results[0].DisplayName, ",", 2)[0])
	}
	return lat, lng, true
}

type zippoResponse struct {
	Places []struct {
		PlaceName string `json:"place name"`
		StateAbbr string `json:"state abbreviation"`
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"places"`
}

func (r *Resolver) lookupZip(ctx context.Context, zip string) (Place, bool) {
	var resp zippoResponse
	if err := r.getJSON(ctx, r.zippoURL+"/"+url.PathEscape(zip), &resp); err != nil || len(resp.Places) == 0 {
		return Place{}, false
	}

	place := resp.Places[0]
	lat, err1 := strconv.ParseFloat(place.Latitude, 64)
	lng, err2 := strconv.ParseFloat(place.Longitude, 64)
	p := Place{City: place.PlaceName, State: place.StateAbbr}
	if err1 == nil && err2 == nil {
		p.Lat, p.Lng, p.HasCoords = lat, lng, true
	}
	return p, true
}

type viacepResponse struct {
	Localidade string `json:"localidade"`
	UF         string `json:"uf"`
	Erro       bool   `json:"erro"`
}

func (r *Resolver) lookupCep(ctx context.Context, cep string) (Place, bool) {
	sanitized := strings.ReplaceAll(cep, "-", "")
	var resp viacepResponse
	if err := r.getJSON(ctx, r.viacepURL+"/"+url.PathEscape(sanitized)+"/json/", &resp); err != nil || resp.Erro {
		return Place{}, false
	}
	return Place{City: resp.Localidade, State: resp.UF}, true
}

func (r *Resolver) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
