package trend

import (
	"strings"
	"unicode"
)

// SplitSuggestions turns raw suggestion strings into display entries.
//
// Each raw string is split on line breaks, leading bullet glyphs are removed,
// and the text is cut at every enumeration marker: a run of digits followed by
// ". ", at the start of the text or right after whitespace. The marker itself
// is dropped. Entries are trimmed and empty ones discarded; order is kept.
func SplitSuggestions(raw []string) []string {
	out := []string{}
	for _, s := range raw {
		for _, line := range strings.FieldsFunc(s, isLineBreak) {
			line = strings.TrimLeftFunc(line, isBulletOrSpace)
			for _, seg := range splitMarkers(line) {
				if seg = strings.TrimSpace(seg); seg != "" {
					out = append(out, seg)
				}
			}
		}
	}
	return out
}

func isLineBreak(r rune) bool {
	return r == '\n' || r == '\r'
}

func isBulletOrSpace(r rune) bool {
	return r == '•' || r == '-' || r == '*' || unicode.IsSpace(r)
}

// splitMarkers cuts s at each enumeration marker. Text before the first
// marker is returned as its own segment.
func splitMarkers(s string) []string {
	var segs []string
	start := 0
	for i := 0; i < len(s); i++ {
		if i > 0 && !isASCIISpace(s[i-1]) {
			continue
		}
		end, ok := markerAt(s, i)
		if !ok {
			continue
		}
		segs = append(segs, s[start:i])
		start = end
		i = end - 1
	}
	return append(segs, s[start:])
}

// markerAt reports whether a marker begins at i and returns the index just
// past it.
func markerAt(s string, i int) (int, bool) {
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == i || j+1 >= len(s) || s[j] != '.' || !isASCIISpace(s[j+1]) {
		return 0, false
	}
	return j + 2, true
}

func isASCIISpace(b byte) bool {
	return b == ' ' || b == '\t'
}
