package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/trendscope/internal/otel"
)

// debugPanelChrome is the number of lines DebugPanel's border and padding take.
const debugPanelChrome = 4

// debugOverlay renders pipeline counters and recent events. Empty when ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Pipelines"))
	lines = append(lines, fmt.Sprintf("  Analyze:    %d started, %d complete, %d errors, %d stale",
		stats[otel.KindAnalyzeStart], stats[otel.KindAnalyzeComplete], stats[otel.KindAnalyzeError], stats[otel.KindAnalyzeStale]))
	lines = append(lines, fmt.Sprintf("  Drilldown:  %d started, %d complete, %d errors, %d stale",
		stats[otel.KindDrilldownStart], stats[otel.KindDrilldownComplete], stats[otel.KindDrilldownError], stats[otel.KindDrilldownStale]))
	lines = append(lines, fmt.Sprintf("  Images:     %d failed", stats[otel.KindImageProbeFail]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range ring.Last(20) {
		line := fmt.Sprintf("  %6s  %-20s", formatAge(time.Since(e.Time)), string(e.Kind))
		if e.Ticket != 0 {
			line += fmt.Sprintf("  #%d", e.Ticket)
		}
		if e.Tag != "" {
			line += "  " + truncateRunes(e.Tag, 20)
		}
		if e.Status != 0 {
			line += fmt.Sprintf("  http:%d", e.Status)
		}
		if e.Dur > 0 {
			line += fmt.Sprintf("  %dms", e.Dur.Milliseconds())
		}
		if e.Msg != "" {
			line += "  " + truncateRunes(e.Msg, 30)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateRunes(e.Err, 30)
		}
		lines = append(lines, line)
	}

	if maxHeight := max(height-debugPanelChrome, 1); len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}
	panelWidth := min(max(width-4, 20), 96)
	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

// formatAge formats a duration compactly. Negative durations from clock
// skew read as "0ms".
func formatAge(d time.Duration) string {
	switch {
	case d < 0:
		return "0ms"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
