// Package trend talks to the analysis endpoint and turns whatever shape it
// returns into a stable, ordered model.
package trend

import "strings"

// HashtagRecord is one ranked trend. Tag always starts with "#".
type HashtagRecord struct {
	Tag      string
	Volume   int
	Score    float64
	Velocity *float64 // nil when the backend has no velocity for this tag
}

// Analysis is the normalized result of one /analyze call.
// All three slices are non-nil after Normalize.
type Analysis struct {
	Keywords    []string
	Trends      []HashtagRecord
	Suggestions []string
}

// Empty returns an Analysis with empty, non-nil containers.
func Empty() Analysis {
	return Analysis{
		Keywords:    []string{},
		Trends:      []HashtagRecord{},
		Suggestions: []string{},
	}
}

// NormalizeTag guarantees exactly one leading "#" is present.
// Already-prefixed tags are returned unchanged (after trimming).
func NormalizeTag(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	if strings.HasPrefix(tag, "#") {
		return tag
	}
	return "#" + tag
}
