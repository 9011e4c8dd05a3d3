package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/paulmach/orb"
)

// ErrLocationDenied means the geolocation service refused the request.
// Terminal for the session; browsing continues without proximity features.
var ErrLocationDenied = errors.New("location lookup denied")

const defaultLocateURL = "http://ip-api.com/json/"

type locateResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city"`
	Region  string  `json:"region"`
}

// Locator resolves the user's own position from their public IP. One-shot:
// success yields coordinates, ErrLocationDenied is terminal, anything else
// is retryable by calling Locate again.
type Locator struct {
	http *http.Client
	url  string
}

func NewLocator() *Locator {
	return &Locator{
		http: &http.Client{Timeout: 7 * time.Second},
		url:  defaultLocateURL,
	}
}

// NewLocatorURL is used by tests to point at a stub server.
func NewLocatorURL(u string) *Locator {
	l := NewLocator()
	l.url = u
	return l
}

// Locate returns the user's approximate position and locality.
func (l *Locator) Locate(ctx context.Context) (orb.Point, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return orb.Point{}, "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.http.Do(req)
	if err != nil {
		return orb.Point{}, "", fmt.Errorf("locating: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		return orb.Point{}, "", ErrLocationDenied
	}
	if resp.StatusCode != http.StatusOK {
		return orb.Point{}, "", fmt.Errorf("locate returned status %d", resp.StatusCode)
	}

	var body locateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return orb.Point{}, "", fmt.Errorf("decoding locate response: %w", err)
	}
	if body.Status != "success" {
		return orb.Point{}, "", fmt.Errorf("locate failed: %s", body.Message)
	}

	locality := body.City
	if body.Region != "" {
		locality += ", " + body.Region
	}
	return orb.Point{body.Lon, body.Lat}, locality, nil
}
