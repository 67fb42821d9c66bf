package ui

import (
	"fmt"
	"strings"

	"github.com/abelbrown/trendscope/internal/drilldown"
	"github.com/abelbrown/trendscope/internal/format"
	"github.com/abelbrown/trendscope/internal/remote"
	"github.com/abelbrown/trendscope/internal/session"
	"github.com/abelbrown/trendscope/internal/trend"
	"github.com/charmbracelet/lipgloss"
)

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}
	if a.showDebug {
		return lipgloss.JoinVertical(lipgloss.Left,
			debugOverlay(a.cfg.Ring, a.width, a.height-1),
			debugStatusBar(a.width))
	}

	var body string
	if d, ok := a.machine.Drilldown(); ok {
		body = a.renderDrilldown(d)
	} else {
		body = a.renderMain()
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, a.renderStatusBar())
}

func (a App) renderMain() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("trendscope"))
	b.WriteString("\n")

	box := PromptBox
	if a.focus == focusPrompt {
		box = PromptBoxFocused
	}
	b.WriteString(box.Render(a.input.View()))
	b.WriteString("\n")
	if a.notice != "" {
		b.WriteString(NoticeStyle.Render(a.notice))
		b.WriteString("\n")
	}

	switch a.machine.Status() {
	case session.StatusIdle:
		b.WriteString(MutedText.Render("Describe what you post and press enter to find trending hashtags."))
	case session.StatusLoading:
		b.WriteString(a.spinner.View() + " Analyzing trends...")
	case session.StatusError:
		b.WriteString(ErrorStyle.Render(session.Describe(a.machine.Err())))
		b.WriteString("\n")
		b.WriteString(MutedText.Render("Press enter to try again."))
	case session.StatusEmpty:
		b.WriteString(MutedText.Render("No trending hashtags found for this description."))
		b.WriteString(a.renderKeywords())
		b.WriteString(a.renderSuggestions())
	case session.StatusReady:
		b.WriteString(a.renderKeywords())
		b.WriteString(SectionHeader.Render("Trending hashtags"))
		b.WriteString("\n")
		for i, rec := range a.machine.Trends() {
			b.WriteString(a.renderTrendRow(rec, i == a.cursor && a.focus == focusResults))
			b.WriteString("\n")
		}
		b.WriteString(a.renderSuggestions())
	}
	return b.String()
}

func (a App) renderKeywords() string {
	kws := a.machine.Keywords()
	if len(kws) == 0 {
		return ""
	}
	chips := make([]string, len(kws))
	for i, k := range kws {
		chips[i] = KeywordChip.Render(k)
	}
	return "\n" + MutedText.Render("Keywords ") + strings.Join(chips, "") + "\n"
}

func (a App) renderTrendRow(rec trend.HashtagRecord, selected bool) string {
	tier := format.TierFor(rec.Score)
	marker := "  "
	style := NormalRow
	if selected {
		marker = "▸ "
		style = SelectedRow
	}

	tag := style.Render(fmt.Sprintf("%-20s", truncateRunes(rec.Tag, 20)))
	bar := a.bars[tier].ViewAs(format.Fraction(rec.Score))
	score := fmt.Sprintf("%5.1f", rec.Score)
	label := tierStyle(tier).Render(fmt.Sprintf("%-6s", tier))
	volume := MutedText.Render(format.Compact(int64(rec.Volume)) + " posts")

	row := marker + tag + " " + bar + " " + score + " " + label + " " + volume
	if rec.Velocity != nil {
		row += MutedText.Render(fmt.Sprintf("  %+.1f/h", *rec.Velocity))
	}
	return row
}

func (a App) renderSuggestions() string {
	sugg := a.machine.Suggestions()
	if len(sugg) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(SectionHeader.Render("Content strategy"))
	b.WriteString("\n")
	for i, s := range sugg {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return b.String()
}

func (a App) renderDrilldown(d session.Drilldown) string {
	var b strings.Builder
	rec := d.Selected
	tier := format.TierFor(rec.Score)

	b.WriteString(TitleStyle.Render(rec.Tag))
	b.WriteString(" ")
	b.WriteString(tierStyle(tier).Render(tier.String()))
	b.WriteString(MutedText.Render(fmt.Sprintf("  score %.1f · %s posts", rec.Score, format.Compact(int64(rec.Volume)))))
	b.WriteString("\n\n")

	switch d.Status() {
	case session.StatusLoading:
		b.WriteString(a.spinner.View() + " Loading top posts...")
	case session.StatusError:
		b.WriteString(ErrorStyle.Render(session.Describe(d.Err)))
		b.WriteString("\n")
		b.WriteString(StatusBarKey.Render("[r]") + MutedText.Render(" retry  ") +
			StatusBarKey.Render("[esc]") + MutedText.Render(" back"))
	case session.StatusEmpty:
		b.WriteString(MutedText.Render("No posts found for " + rec.Tag + "."))
	default:
		for i, p := range d.Posts {
			b.WriteString(a.renderPost(p, i == a.postCursor))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (a App) renderPost(p drilldown.Post, selected bool) string {
	marker := "  "
	head := NormalRow
	if selected {
		marker = "▸ "
		head = SelectedRow
	}

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString(head.Render("@" + p.Username))
	b.WriteString(MutedText.Render(fmt.Sprintf("  %s  ♥ %s  💬 %s",
		p.Timestamp, format.Thousands(int64(p.Likes)), format.Thousands(int64(p.Comments)))))
	b.WriteString("\n")

	width := max(a.width-6, 20)
	if p.Caption != "" {
		b.WriteString("    " + truncateRunes(firstLine(p.Caption), width) + "\n")
	}
	if selected {
		b.WriteString(MutedText.Render("    image  " + a.cfg.Media.DisplayImage(p, a.imageFailed[p.ID])))
		b.WriteString("\n")
		b.WriteString(MutedText.Render("    avatar " + p.AvatarURL))
		b.WriteString("\n")
		if p.Permalink != "" {
			b.WriteString(MutedText.Render("    link   " + p.Permalink))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (a App) renderStatusBar() string {
	var left string
	var hints []string
	hint := func(k, desc string) string {
		return StatusBarKey.Render(k) + StatusBarText.Render(":"+desc)
	}

	if d, ok := a.machine.Drilldown(); ok {
		if d.Loading {
			left = " Loading... "
		} else {
			left = fmt.Sprintf(" %d posts ", len(d.Posts))
		}
		hints = append(hints, hint("j/k", "nav"))
		if d.Status() == session.StatusError {
			hints = append(hints, hint("r", "retry"))
		}
		hints = append(hints, hint("esc", "back"), hint("D", "debug"), hint("q", "quit"))
	} else {
		switch {
		case a.machine.Loading():
			left = " Analyzing... "
		case len(a.machine.Trends()) > 0:
			left = fmt.Sprintf(" %d/%d ", a.cursor+1, len(a.machine.Trends()))
		default:
			left = " "
		}
		if a.focus == focusPrompt {
			hints = append(hints, hint("enter", "analyze"), hint("ctrl+p/n", "history"))
			if len(a.machine.Trends()) > 0 {
				hints = append(hints, hint("tab", "results"))
			}
			hints = append(hints, hint("ctrl+c", "quit"))
		} else {
			hints = append(hints, hint("j/k", "nav"), hint("enter", "posts"), hint("tab", "prompt"),
				hint("D", "debug"), hint("q", "quit"))
		}
	}

	keyHints := strings.Join(hints, " ")
	padding := max(a.width-lipgloss.Width(left)-lipgloss.Width(keyHints)-2, 0)
	return StatusBar.Width(a.width).Render(left + strings.Repeat(" ", padding) + keyHints)
}

// remoteStatus returns the HTTP status of a server error.
func remoteStatus(err error) (int, bool) {
	return remote.IsServer(err)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// truncateRunes shortens s to at most n runes, ending in "…" when cut.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
