package ui

import (
	"github.com/abelbrown/trendscope/internal/format"
	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary   = lipgloss.Color("62")  // purple
	colorSecondary = lipgloss.Color("241") // gray
	colorMuted     = lipgloss.Color("240")
	colorHighlight = lipgloss.Color("212") // pink
	colorError     = lipgloss.Color("196")
)

var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

var SectionHeader = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	MarginTop(1)

// SelectedRow highlights the trend or post under the cursor.
var SelectedRow = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255"))

var NormalRow = lipgloss.NewStyle().
	Foreground(lipgloss.Color("252"))

var MutedText = lipgloss.NewStyle().
	Foreground(colorSecondary)

var KeywordChip = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Background(lipgloss.Color("236")).
	Padding(0, 1).
	MarginRight(1)

var PromptBox = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorMuted).
	Padding(0, 1)

var PromptBoxFocused = PromptBox.
	BorderForeground(colorHighlight)

var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorError).
	Bold(true)

// NoticeStyle is for inline validation messages under the prompt.
var NoticeStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("214"))

var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// tierStyle colors a tier label with the start of its bar gradient.
func tierStyle(t format.Tier) lipgloss.Style {
	from, _ := t.Gradient()
	return lipgloss.NewStyle().Foreground(lipgloss.Color(from)).Bold(t == format.TierHot)
}
