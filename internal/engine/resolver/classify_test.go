package resolver

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  LocationKind
	}{
		{"us zip", "75001", KindZipUS},
		{"us zip plus four", "75001-1234", KindZipUS},
		{"brazilian cep", "01310-100", KindCepBR},
		{"brazilian cep no hyphen", "01310100", KindCepBR},
		{"city state", "Dallas - TX", KindCityState},
		{"city state tight", "Atlanta-GA", KindCityState},
		{"free text", "some unstructured string", KindFreeText},
		{"free text single word", "Orlando", KindFreeText},
		{"empty", "", KindFreeText},
		{"whitespace only", "   ", KindFreeText},
		{"hyphenated city name", "Winston - Salem", KindCityState},
		// Non-US/non-BR postal formats are not recognized.
		{"uk postcode", "SW1A 1AA", KindFreeText},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.input); got != tc.want {
				t.Fatalf("Classify(%q) = %v; want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestSplitCityState(t *testing.T) {
	cases := []struct {
		input     string
		wantCity  string
		wantState string
	}{
		{"Dallas - TX", "Dallas", "TX"},
		{"Atlanta-GA", "Atlanta", "GA"},
		// Split happens on the first hyphen only.
		{"Winston - Salem - NC", "Winston", "Salem - NC"},
	}

	for _, tc := range cases {
		city, state := SplitCityState(tc.input)
		if city != tc.wantCity || state != tc.wantState {
			t.Errorf("SplitCityState(%q) = (%q, %q); want (%q, %q)",
				tc.input, city, state, tc.wantCity, tc.wantState)
		}
	}
}
