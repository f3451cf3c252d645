package resolver

import (
	"reflect"
	"testing"
)

func TestExtractDiscreteGraphicsVariants(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{"NVIDIA GeForce RTX 3070 8GB", []string{"RTX 3070"}},
		{"NVIDIA GeForce RTX 3070 Ti", []string{"RTX 3070 Ti", "RTX 3070"}},
		{"AMD Radeon RX 6600 XT 8GB GDDR6", []string{"RX 6600 XT", "RX 6600"}},
		{"Intel Arc A770 16GB", []string{"Arc A770"}},
		{"GeForce MX550", []string{"MX 550"}},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got := extractDiscreteGraphics(tc.raw)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("candidates = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestExtractDisplayPhraseVariants(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{"15-inch FHD (144Hz)", []string{"15 FHD 144Hz", "15 FHD"}},
		{`15.6" QHD 165Hz display`, []string{"15.6 QHD 165Hz", "15.6 QHD", "15 QHD 165Hz", "15 QHD"}},
		{"14 OLED", []string{"14 OLED"}},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got := extractDisplayPhrase(tc.raw)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("candidates = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestExtractCandidatesDedupes(t *testing.T) {
	got := extractCandidates("graphics", "RTX 3070 and another RTX 3070")
	count := 0
	for _, candidate := range got {
		if candidate == "RTX 3070" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("candidate %q appears %d times, want 1", "RTX 3070", count)
	}
}

func TestExtractCandidatesUnknownCategory(t *testing.T) {
	if got := extractCandidates("memory", "16GB DDR5"); got != nil {
		t.Errorf("candidates = %v, want nil for category without heuristics", got)
	}
}
