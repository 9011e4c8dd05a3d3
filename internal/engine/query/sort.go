package query

import (
	"math"
	"sort"
)

// Sort orders the list in place by the given key. The sort is stable, so
// ties keep their prior relative order; that is the documented tie-break
// for every key. Records without a distance sort as +Inf under distance.
func Sort(list []Enriched, key SortKey) {
	var less func(a, b Enriched) bool

	switch key {
	case SortDistance:
		less = func(a, b Enriched) bool {
			return distanceOrInf(a) < distanceOrInf(b)
		}
	case SortAvailability:
		less = func(a, b Enriched) bool {
			return a.Available && !b.Available
		}
	case SortFeatured:
		less = func(a, b Enriched) bool {
			return a.Featured && !b.Featured
		}
	case SortPrice:
		less = func(a, b Enriched) bool {
			return a.PriceUSD < b.PriceUSD
		}
	case SortRating:
		less = func(a, b Enriched) bool {
			return a.Rating > b.Rating
		}
	default:
		return
	}

	sort.SliceStable(list, func(i, j int) bool {
		return less(list[i], list[j])
	})
}

func distanceOrInf(e Enriched) float64 {
	if !e.HasDistance {
		return math.Inf(1)
	}
	return e.DistanceMiles
}
