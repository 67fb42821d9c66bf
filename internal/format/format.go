// Package format derives display values from scores and counts.
// Everything here is pure; nothing is stored back into the model.
package format

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// Tier is a display band for a trend score.
type Tier int

const (
	TierCool Tier = iota
	TierSteady
	TierRising
	TierHot
)

// Score thresholds for each tier (inclusive lower bounds).
const (
	hotScore    = 8.0
	risingScore = 5.0
	steadyScore = 2.0
)

// ScoreCeiling is the score that fills a progress bar completely.
const ScoreCeiling = 10.0

// TierFor maps a score to its tier. NaN is treated as zero.
func TierFor(score float64) Tier {
	switch {
	case math.IsNaN(score):
		return TierCool
	case score >= hotScore:
		return TierHot
	case score >= risingScore:
		return TierRising
	case score >= steadyScore:
		return TierSteady
	default:
		return TierCool
	}
}

// String returns the tier label.
func (t Tier) String() string {
	switch t {
	case TierHot:
		return "hot"
	case TierRising:
		return "rising"
	case TierSteady:
		return "steady"
	default:
		return "cool"
	}
}

// Class returns a stable style class name, e.g. "tier-hot".
func (t Tier) Class() string {
	return "tier-" + t.String()
}

// Gradient returns the start and end hex colors used for the tier's bar.
func (t Tier) Gradient() (string, string) {
	switch t {
	case TierHot:
		return "#f85149", "#ff7b72"
	case TierRising:
		return "#d29922", "#f2cc60"
	case TierSteady:
		return "#3fb950", "#7ee787"
	default:
		return "#58a6ff", "#a5d6ff"
	}
}

// Fraction maps a score onto [0, 1] for a progress bar, relative to ScoreCeiling.
func Fraction(score float64) float64 {
	if math.IsNaN(score) || score <= 0 {
		return 0
	}
	f := score / ScoreCeiling
	if f > 1 {
		return 1
	}
	return f
}

var compactUnits = []struct {
	div    float64
	suffix string
}{
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// Compact formats a count with one decimal and a K/M/B suffix:
// 950 -> "950", 1234 -> "1.2K", 3400000 -> "3.4M", 2000 -> "2K".
// A value that rounds up to the next unit is promoted (999950 -> "1M").
func Compact(n int64) string {
	if n < 0 {
		if n == math.MinInt64 {
			n++
		}
		return "-" + Compact(-n)
	}
	v := float64(n)
	for i, u := range compactUnits {
		if v < u.div {
			continue
		}
		r := math.Round(v/u.div*10) / 10
		if r >= 1000 && i > 0 {
			// rounding crossed into the next unit up
			return trimDecimal(math.Round(v/compactUnits[i-1].div*10)/10) + compactUnits[i-1].suffix
		}
		return trimDecimal(r) + u.suffix
	}
	return strconv.FormatInt(n, 10)
}

// trimDecimal prints one decimal place, dropping a trailing ".0".
func trimDecimal(f float64) string {
	if f == math.Trunc(f) {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', 1, 64)
}

// Thousands formats a count with separators (1234567 -> "1,234,567"),
// used where exact numbers are shown.
func Thousands(n int64) string {
	return humanize.Comma(n)
}
