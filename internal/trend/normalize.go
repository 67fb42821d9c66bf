package trend

import (
	"math"

	"github.com/tidwall/gjson"
)

// Normalize converts a raw /analyze body into an Analysis.
//
// trends may be an object (tag -> stats) or an array of records. For the
// object shape the document order is the rank order; nothing is re-sorted.
// Missing, null, or mistyped fields fall back to empty containers. Normalize
// never fails: a body that is not a JSON object yields Empty().
func Normalize(body []byte) Analysis {
	out := Empty()
	if !gjson.ValidBytes(body) {
		return out
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return out
	}

	out.Keywords = normalizeKeywords(root.Get("keywords"))
	out.Trends = normalizeTrends(root.Get("trends"))
	out.Suggestions = normalizeSuggestions(root.Get("suggestions"))
	return out
}

// normalizeKeywords keeps the list only when every element is a string.
func normalizeKeywords(v gjson.Result) []string {
	keywords := []string{}
	if !v.IsArray() {
		return keywords
	}
	ok := true
	v.ForEach(func(_, item gjson.Result) bool {
		if item.Type != gjson.String {
			ok = false
			return false
		}
		keywords = append(keywords, item.String())
		return true
	})
	if !ok {
		return []string{}
	}
	return keywords
}

func normalizeTrends(v gjson.Result) []HashtagRecord {
	records := []HashtagRecord{}
	switch {
	case v.IsObject():
		// ForEach walks object keys in document order.
		v.ForEach(func(key, stats gjson.Result) bool {
			tag := NormalizeTag(key.String())
			if tag == "" {
				return true
			}
			records = append(records, recordFromStats(tag, stats))
			return true
		})
	case v.IsArray():
		v.ForEach(func(_, item gjson.Result) bool {
			if !item.IsObject() {
				return true
			}
			tag := NormalizeTag(item.Get("tag").String())
			if tag == "" {
				return true
			}
			records = append(records, recordFromStats(tag, item))
			return true
		})
	}
	return records
}

func recordFromStats(tag string, stats gjson.Result) HashtagRecord {
	rec := HashtagRecord{Tag: tag}
	if !stats.IsObject() {
		return rec
	}
	rec.Volume = Count(stats.Get("volume"))
	if s := stats.Get("score"); s.Type == gjson.Number {
		rec.Score = s.Float()
	}
	if vel := stats.Get("velocity"); vel.Type == gjson.Number {
		f := vel.Float()
		rec.Velocity = &f
	}
	return rec
}

// Count reads a JSON number as a non-negative int. Fractions are truncated,
// negatives and non-numbers become 0, and values past math.MaxInt saturate.
func Count(v gjson.Result) int {
	if v.Type != gjson.Number {
		return 0
	}
	f := math.Trunc(v.Float())
	switch {
	case f <= 0:
		return 0
	case f >= float64(math.MaxInt):
		return math.MaxInt
	}
	return int(f)
}

func normalizeSuggestions(v gjson.Result) []string {
	if !v.IsArray() {
		return []string{}
	}
	var raw []string
	v.ForEach(func(_, item gjson.Result) bool {
		if item.Type == gjson.String {
			raw = append(raw, item.String())
		}
		return true
	})
	return SplitSuggestions(raw)
}
