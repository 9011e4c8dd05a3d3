package resolver

import (
	"regexp"
	"strings"
)

// LocationKind classifies a raw location string from the directory dataset.
type LocationKind int

const (
	KindFreeText LocationKind = iota
	KindCityState
	KindZipUS
	KindCepBR
)

func (k LocationKind) String() string {
	switch k {
	case KindCityState:
		return "city-state"
	case KindZipUS:
		return "zip-us"
	case KindCepBR:
		return "cep-br"
	default:
		return "free-text"
	}
}

var (
	zipUSRe = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	cepBRRe = regexp.MustCompile(`^\d{5}-?\d{3}$`)
)

// Classify decides how a raw location string should be resolved. Precedence:
// a hyphenated string that is not a postal code is "City - State"; then US
// ZIP; then Brazilian CEP; anything else is generic free text. Hyphenated
// city names that happen to look like postal codes will be misclassified;
// non-US/non-BR postal formats are not recognized and fall through to free
// text.
func Classify(raw string) LocationKind {
	s := strings.TrimSpace(raw)
	if s == "" {
		return KindFreeText
	}
	isZip := zipUSRe.MatchString(s)
	isCep := cepBRRe.MatchString(s)
	if strings.Contains(s, "-") && !isZip && !isCep {
		return KindCityState
	}
	if isZip {
		return KindZipUS
	}
	if isCep {
		return KindCepBR
	}
	return KindFreeText
}

// SplitCityState splits a "City - State" string on the first hyphen.
func SplitCityState(raw string) (city, state string) {
	city, state, _ = strings.Cut(raw, "-")
	return strings.TrimSpace(city), strings.TrimSpace(state)
}
