package query

import (
	"github.com/rendis/proximo/internal/engine/geo"
	"github.com/rendis/proximo/internal/model"
)

// Enriched is a provider plus its derived distance from the user. The
// distance exists only when both the user location and the provider's
// coordinates are known; it is recomputed on demand and never persisted.
type Enriched struct {
	model.Provider
	DistanceMiles float64
	HasDistance   bool
}

// Enrich projects providers into enriched records, computing distances
// against the state's user location when available.
func Enrich(providers []model.Provider, s State) []Enriched {
	out := make([]Enriched, len(providers))
	for i, p := range providers {
		e := Enriched{Provider: p}
		if s.UserLocation != nil && p.HasCoords {
			e.DistanceMiles = geo.HaversineMiles(*s.UserLocation, p.Point())
			e.HasDistance = true
		}
		out[i] = e
	}
	return out
}

// Filter keeps the records satisfying every active predicate. Toggles are
// conjunctive, the price range is inclusive and always applied, and the
// radius check runs last (it is the only one that needs a distance).
// Records without a distance cannot be proven inside the radius and are
// excluded once that filter is active.
func Filter(list []Enriched, s State) []Enriched {
	radiusActive := s.UserLocation != nil && s.RadiusMiles > 0

	var out []Enriched
	for _, e := range list {
		if s.AvailableOnly && !e.Available {
			continue
		}
		if s.IncallOnly && !e.Incall {
			continue
		}
		if s.OutcallOnly && !e.Outcall {
			continue
		}
		if s.VerifiedOnly && !e.Verified() {
			continue
		}
		if s.FeaturedOnly && !e.Featured {
			continue
		}
		if s.TravelOnly && !e.OffersTravel {
			continue
		}
		if e.PriceUSD < s.PriceMin || e.PriceUSD > s.PriceMax {
			continue
		}
		if radiusActive && (!e.HasDistance || e.DistanceMiles > s.RadiusMiles) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Apply runs the full pipeline: enrich, filter, sort.
func Apply(providers []model.Provider, s State) []Enriched {
	list := Filter(Enrich(providers, s), s)
	Sort(list, s.Sort)
	return list
}
