package matching

import (
	"slices"
	"strings"

	"github.com/xrash/smetrics"
)

// Scorer computes a similarity in [0, 1] between two normalized names.
type Scorer func(a, b string) float64

// TokenSortRatio compares a and b after sorting their whitespace-separated
// tokens, so word order does not matter. The result is the normalized indel
// similarity of the sorted strings. Two empty strings score 0.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortTokens(a), sortTokens(b))
}

// Ratio returns 1 - d/(len(a)+len(b)) where d is the insert/delete distance
// between a and b. Lengths and edits count runes, not bytes.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 0
	}
	return float64(total-indelDistance(ra, rb)) / float64(total)
}

// indelDistance maps each distinct rune to one byte so smetrics, which
// compares bytes, sees one symbol per character.
func indelDistance(a, b []rune) int {
	alphabet := make(map[rune]byte)
	encode := func(runes []rune) (string, bool) {
		buf := make([]byte, len(runes))
		for i, r := range runes {
			c, ok := alphabet[r]
			if !ok {
				if len(alphabet) > 255 {
					return "", false
				}
				c = byte(len(alphabet))
				alphabet[r] = c
			}
			buf[i] = c
		}
		return string(buf), true
	}
	ea, okA := encode(a)
	eb, okB := encode(b)
	if !okA || !okB {
		return runeIndelDistance(a, b)
	}
	// A substitution costs one delete plus one insert.
	return smetrics.WagnerFischer(ea, eb, 1, 1, 2)
}

// runeIndelDistance is len(a)+len(b) minus twice the longest common subsequence.
func runeIndelDistance(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return len(a) + len(b) - 2*prev[len(b)]
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	slices.Sort(tokens)
	return strings.Join(tokens, " ")
}
