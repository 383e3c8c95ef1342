// Name matching is the backbone of our identity verification decisions.
// Identity records are entered by humans and come back from government
// registries with middle names, reordered tokens and transliteration
// differences, so a strict equality check would reject too many
// legitimate matches. We score partial credit instead and let the
// caller apply a threshold.
package match

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NameMatchConfidence scores how well a claimed name matches an observed
// name on a 0-100 scale. Both inputs are normalized before comparison.
// Providers disagree on name ordering ("surname firstname" vs
// "firstname surname"), so the observed tokens are also tried in reverse
// and the better of the two alignments wins.
func NameMatchConfidence(claimed, observed string) float64 {
	claimed = Normalize(claimed)
	observed = Normalize(observed)

	if claimed == "" || observed == "" {
		return 0
	}

	if claimed == observed {
		return 100
	}

	claimedTokens := strings.Fields(claimed)
	observedTokens := strings.Fields(observed)

	forward := orderedMatch(claimedTokens, observedTokens)

	reversed := make([]string, len(observedTokens))
	for i, token := range observedTokens {
		reversed[len(observedTokens)-1-i] = token
	}
	backward := orderedMatch(claimedTokens, reversed)

	return math.Max(forward, backward)
}

// orderedMatch aligns tokens pairwise up to the shorter list, averages
// the per-pair scores and scales the result by the token-count ratio.
// Extra or missing tokens reduce the score proportionally but never
// zero it out.
func orderedMatch(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	minLen := len(a)
	maxLen := len(b)
	if minLen > maxLen {
		minLen, maxLen = maxLen, minLen
	}

	var total float64
	for i := 0; i < minLen; i++ {
		if a[i] == b[i] {
			total += 100
			continue
		}
		total += tokenSimilarity(a[i], b[i]) * 100
	}

	average := total / float64(minLen)

	return average * float64(minLen) / float64(maxLen)
}

// tokenSimilarity is 1 - distance/longest, in [0,1].
func tokenSimilarity(a, b string) float64 {
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}

	distance := LevenshteinDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}

// LevenshteinDistance is the classic dynamic-programming edit distance
// with unit cost for insert, delete and substitute. Inputs are compared
// as runes, case-sensitively; callers are expected to have normalized
// case already.
func LevenshteinDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	previous := make([]int, len(rb)+1)
	current := make([]int, len(rb)+1)

	for j := 0; j <= len(rb); j++ {
		previous[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		current[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			deletion := previous[j] + 1
			insertion := current[j-1] + 1
			substitution := previous[j-1] + cost

			min := deletion
			if insertion < min {
				min = insertion
			}
			if substitution < min {
				min = substitution
			}
			current[j] = min
		}
		previous, current = current, previous
	}

	return previous[len(rb)]
}

var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lower-cases, trims, collapses internal whitespace and strips
// diacritic marks so that "José" and "jose" compare as equal tokens.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	stripped, _, err := transform.String(stripDiacritics, s)
	if err == nil {
		s = stripped
	}

	return strings.Join(strings.Fields(s), " ")
}
