package query

// Page returns the visible prefix of the sorted list.
func Page(list []Enriched, visibleCount int) []Enriched {
	if visibleCount < 0 {
		visibleCount = 0
	}
	if visibleCount > len(list) {
		visibleCount = len(list)
	}
	return list[:visibleCount]
}

// MapPins returns the first n records of the already-sorted list that have
// coordinates, for plotting. A pure read projection; no further filtering
// or ordering happens here.
func MapPins(list []Enriched, n int) []Enriched {
	if n <= 0 {
		n = MapPinLimit
	}
	var pins []Enriched
	for _, e := range list {
		if len(pins) >= n {
			break
		}
		if e.HasCoords {
			pins = append(pins, e)
		}
	}
	return pins
}
