package query

import (
	"net/url"
	"strconv"
)

// Query-string keys. This is a persisted contract: encoded strings are
// shared and bookmarked, so key names and the presence-means-true flag
// convention must not change.
const (
	keyRadius   = "radius"
	keyPriceMin = "pmin"
	keyPriceMax = "pmax"
	keySort     = "sort"
	keyMap      = "map"

	keyAvailable = "avail"
	keyIncall    = "incall"
	keyOutcall   = "outcall"
	keyVerified  = "ver"
	keyFeatured  = "feat"
	keyTravel    = "offer"
)

// Encode serializes the shareable portion of the state. Numeric keys and
// sort/map are always present; boolean flags appear as "1" only when set.
func Encode(s State) url.Values {
	v := url.Values{}
	v.Set(keyRadius, formatNum(s.RadiusMiles))
	v.Set(keyPriceMin, formatNum(s.PriceMin))
	v.Set(keyPriceMax, formatNum(s.PriceMax))
	v.Set(keySort, string(s.Sort))
	if s.ShowMap {
		v.Set(keyMap, "1")
	} else {
		v.Set(keyMap, "0")
	}

	setBool := func(key string, on bool) {
		if on {
			v.Set(key, "1")
		}
	}
	setBool(keyAvailable, s.AvailableOnly)
	setBool(keyIncall, s.IncallOnly)
	setBool(keyOutcall, s.OutcallOnly)
	setBool(keyVerified, s.VerifiedOnly)
	setBool(keyFeatured, s.FeaturedOnly)
	setBool(keyTravel, s.TravelOnly)

	return v
}

// EncodeString returns the encoded state as a canonical query string.
func EncodeString(s State) string {
	return Encode(s).Encode()
}

// Decode builds a State from query parameters, starting from defaults and
// overriding with whatever valid values are present. Malformed numbers,
// unknown sort keys, and absent flags keep their defaults; price bounds are
// re-clamped so min ≤ max always holds after decoding.
func Decode(v url.Values) State {
	s := NewState()

	if r, err := strconv.ParseFloat(v.Get(keyRadius), 64); err == nil && r > 0 {
		s.RadiusMiles = r
	}
	if p, err := strconv.ParseFloat(v.Get(keyPriceMin), 64); err == nil && p >= 0 {
		s.PriceMin = p
	}
	if p, err := strconv.ParseFloat(v.Get(keyPriceMax), 64); err == nil && p >= 0 {
		s.PriceMax = p
	}
	if s.PriceMin > s.PriceMax {
		s.PriceMin = s.PriceMax
	}
	if sort := v.Get(keySort); ValidSortKey(sort) {
		s.Sort = SortKey(sort)
	}
	s.ShowMap = v.Get(keyMap) != "0"

	s.AvailableOnly = v.Get(keyAvailable) == "1"
	s.IncallOnly = v.Get(keyIncall) == "1"
	s.OutcallOnly = v.Get(keyOutcall) == "1"
	s.VerifiedOnly = v.Get(keyVerified) == "1"
	s.FeaturedOnly = v.Get(keyFeatured) == "1"
	s.TravelOnly = v.Get(keyTravel) == "1"

	return s
}

// DecodeString parses a raw query string; invalid input yields defaults.
func DecodeString(raw string) State {
	v, err := url.ParseQuery(raw)
	if err != nil {
		return NewState()
	}
	return Decode(v)
}

func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
