package util

import (
	"regexp"
	"strings"

	"github.com/rivo/uniseg"
)

// ContainsFold reports whether needle is within text, ignoring case.
func ContainsFold(text, needle string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(needle))
}

// HasNonASCII reports whether any rune is above code point 127.
func HasNonASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return true
		}
	}
	return false
}

const (
	ellipsis  = "…"
	urlWeight = 23
)

var urlRe = regexp.MustCompile(`https?://\S+`)

// lightRanges weigh 1; every other code point weighs 2.
var lightRanges = [][2]rune{{0, 4351}, {8192, 8205}, {8208, 8223}, {8242, 8247}}

func runeWeight(r rune) int {
	for _, lr := range lightRanges {
		if r >= lr[0] && r <= lr[1] {
			return 1
		}
	}
	return 2
}

func isEmoji(cluster string) bool {
	for _, r := range cluster {
		if r >= 0x1F000 || r == 0x200D || r == 0xFE0F {
			return true
		}
	}
	return false
}

func clusterWeight(cluster string) int {
	if isEmoji(cluster) {
		return 2
	}
	w := 0
	for _, r := range cluster {
		w += runeWeight(r)
	}
	return w
}

// WeightedLen is the length the platform charges against its post limit: a URL
// with a scheme counts 23, an emoji sequence 2, and other characters 1 or 2 by range.
func WeightedLen(s string) int {
	n := urlWeight * len(urlRe.FindAllStringIndex(s, -1))
	g := uniseg.NewGraphemes(urlRe.ReplaceAllString(s, ""))
	for g.Next() {
		n += clusterWeight(g.Str())
	}
	return n
}

// TruncateWeighted cuts s at a grapheme boundary so that WeightedLen of the result,
// including the trailing "…", is at most n.
func TruncateWeighted(s string, n int) string {
	if WeightedLen(s) <= n {
		return s
	}
	budget := n - WeightedLen(ellipsis)
	if budget < 0 {
		return ""
	}
	var b strings.Builder
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		// Re-measured each step because a URL prefix changes weight once it has a scheme.
		if WeightedLen(b.String()+g.Str()) > budget {
			break
		}
		b.WriteString(g.Str())
	}
	return b.String() + ellipsis
}
