package match

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNameMatchConfidence_ExactMatch(t *testing.T) {
	require.Equal(t, 100.0, NameMatchConfidence("John Smith", "John Smith"))
	require.Equal(t, 100.0, NameMatchConfidence("JOHN smith", "john SMITH"))
	require.Equal(t, 100.0, NameMatchConfidence("  John   Smith ", "John Smith"))
}

func TestNameMatchConfidence_ReversedTokens(t *testing.T) {
	// registries often return "surname firstname"
	require.Equal(t, 100.0, NameMatchConfidence("John Smith", "Smith John"))
}

func TestNameMatchConfidence_NearMatch(t *testing.T) {
	// "Jon" vs "John" is one edit over four characters: 75 for that
	// token, averaged with the exact surname.
	got := NameMatchConfidence("Jon Snow", "John Snow")
	require.InDelta(t, 87.5, got, 0.001)
}

func TestNameMatchConfidence_ExtraMiddleName(t *testing.T) {
	// two perfect pairs scaled by 2/3 for the unmatched middle name
	got := NameMatchConfidence("John Smith", "John Smith Michael")
	require.InDelta(t, 100.0*2.0/3.0, got, 0.001)
}

func TestNameMatchConfidence_Diacritics(t *testing.T) {
	require.Equal(t, 100.0, NameMatchConfidence("José García", "Jose Garcia"))
}

func TestNameMatchConfidence_Empty(t *testing.T) {
	require.Equal(t, 0.0, NameMatchConfidence("", "John Smith"))
	require.Equal(t, 0.0, NameMatchConfidence("John Smith", ""))
	require.Equal(t, 0.0, NameMatchConfidence("", ""))
}

func TestNameMatchConfidence_DifferentNames(t *testing.T) {
	got := NameMatchConfidence("Jane Doe", "Amaka Obi")
	require.Less(t, got, 50.0)
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, LevenshteinDistance(tt.a, tt.b), "distance(%q, %q)", tt.a, tt.b)
		// edit distance is symmetric
		require.Equal(t, tt.want, LevenshteinDistance(tt.b, tt.a), "distance(%q, %q)", tt.b, tt.a)
	}
}

func TestNormalize(t *testing.T) {
	require.Equal(t, "jose", Normalize("José"))
	require.Equal(t, "maria luisa", Normalize("  MARIA   Luisa "))
	require.Equal(t, "", Normalize("   "))
}
