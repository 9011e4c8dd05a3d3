package query

import "github.com/paulmach/orb"

// SortKey selects the ordering of the directory view.
type SortKey string

const (
	SortDistance     SortKey = "distance"
	SortAvailability SortKey = "availability"
	SortFeatured     SortKey = "featured"
	SortPrice        SortKey = "price"
	SortRating       SortKey = "rating"
)

var sortKeys = []SortKey{SortDistance, SortAvailability, SortFeatured, SortPrice, SortRating}

// ValidSortKey reports whether s names one of the five sort keys.
func ValidSortKey(s string) bool {
	for _, k := range sortKeys {
		if SortKey(s) == k {
			return true
		}
	}
	return false
}

// NextSortKey cycles to the following sort key, wrapping around.
func NextSortKey(k SortKey) SortKey {
	for i, s := range sortKeys {
		if s == k {
			return sortKeys[(i+1)%len(sortKeys)]
		}
	}
	return SortDistance
}

const (
	DefaultRadiusMiles = 25
	DefaultPriceMin    = 80
	DefaultPriceMax    = 250
	BasePageSize       = 12
	PageIncrement      = 8
	MapPinLimit        = 25
)

// State is the full filter/sort/pagination state of the directory view. It
// round-trips through a URL-style query string (see codec.go) so views are
// shareable; UserLocation and VisibleCount are session-only and excluded
// from that contract.
type State struct {
	RadiusMiles float64
	PriceMin    float64
	PriceMax    float64

	AvailableOnly bool
	IncallOnly    bool
	OutcallOnly   bool
	VerifiedOnly  bool
	FeaturedOnly  bool
	TravelOnly    bool

	Sort    SortKey
	ShowMap bool

	UserLocation *orb.Point
	VisibleCount int
}

// NewState returns the default view state.
func NewState() State {
	return State{
		RadiusMiles:  DefaultRadiusMiles,
		PriceMin:     DefaultPriceMin,
		PriceMax:     DefaultPriceMax,
		Sort:         SortDistance,
		ShowMap:      true,
		VisibleCount: BasePageSize,
	}
}

// SetPriceMin updates the lower price bound, clamped so min never exceeds
// max. Resets pagination.
func (s *State) SetPriceMin(v float64) {
	if v < 0 {
		v = 0
	}
	if v > s.PriceMax {
		v = s.PriceMax
	}
	s.PriceMin = v
	s.ResetPage()
}

// SetPriceMax updates the upper price bound, clamped so max never drops
// below min. Resets pagination.
func (s *State) SetPriceMax(v float64) {
	if v < s.PriceMin {
		v = s.PriceMin
	}
	s.PriceMax = v
	s.ResetPage()
}

// SetRadius updates the search radius. Resets pagination.
func (s *State) SetRadius(miles float64) {
	if miles < 0 {
		miles = 0
	}
	s.RadiusMiles = miles
	s.ResetPage()
}

// SetSort switches the active sort key and reports whether the caller needs
// to acquire the user's location first (distance sort with no known
// location). The state itself never triggers acquisition.
func (s *State) SetSort(k SortKey) (needsLocation bool) {
	s.Sort = k
	s.ResetPage()
	return k == SortDistance && s.UserLocation == nil
}

// Toggle flips the named boolean filter. Resets pagination. Unknown names
// are ignored.
func (s *State) Toggle(name string) {
	switch name {
	case "available":
		s.AvailableOnly = !s.AvailableOnly
	case "incall":
		s.IncallOnly = !s.IncallOnly
	case "outcall":
		s.OutcallOnly = !s.OutcallOnly
	case "verified":
		s.VerifiedOnly = !s.VerifiedOnly
	case "featured":
		s.FeaturedOnly = !s.FeaturedOnly
	case "travel":
		s.TravelOnly = !s.TravelOnly
	default:
		return
	}
	s.ResetPage()
}

// SetUserLocation records the acquired position. Resets pagination since
// distances, the radius filter, and distance sort all change with it.
func (s *State) SetUserLocation(p orb.Point) {
	s.UserLocation = &p
	s.ResetPage()
}

// ResetPage snaps pagination back to the base page size. Called on every
// state change other than pagination growth itself.
func (s *State) ResetPage() {
	s.VisibleCount = BasePageSize
}

// GrowPage extends the visible prefix by one increment, capped at total.
func (s *State) GrowPage(total int) {
	next := s.VisibleCount + PageIncrement
	if next > total {
		next = total
	}
	if next > s.VisibleCount {
		s.VisibleCount = next
	}
}
