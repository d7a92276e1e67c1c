package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/glassbox-io/glassbox/internal/models"
)

// Colors using AdaptiveColor for light/dark terminal support.
var (
	colorWhite  = lipgloss.AdaptiveColor{Light: "0", Dark: "15"}
	colorDim    = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	colorRed    = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	colorYellow = lipgloss.AdaptiveColor{Light: "136", Dark: "220"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "30", Dark: "45"}
	colorPurple = lipgloss.AdaptiveColor{Light: "55", Dark: "141"}
)

// Layout styles.
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Background(lipgloss.AdaptiveColor{Light: "235", Dark: "236"})

	panelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)
)

// Transcript styles.
var (
	userMsgStyle      = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	assistantMsgStyle = lipgloss.NewStyle().Foreground(colorWhite)
	reasoningStyle    = lipgloss.NewStyle().Foreground(colorDim).Italic(true)
	abortedStyle      = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
)

// Entry status styles.
var (
	statusPendingStyle = lipgloss.NewStyle().Foreground(colorYellow)
	statusSuccessStyle = lipgloss.NewStyle().Foreground(colorGreen)
	statusFailureStyle = lipgloss.NewStyle().Foreground(colorRed)
)

// Key hint styles for the status bar.
var (
	keyStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	hintStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// kindGlyphs give each entry kind a one-character marker in the log panel.
var kindGlyphs = map[models.EntryKind]string{
	models.KindInput:       "»",
	models.KindRouting:     "→",
	models.KindThinking:    "…",
	models.KindText:        "¶",
	models.KindToolCall:    "⚙",
	models.KindToolResult:  "⚙",
	models.KindValidation:  "✗",
	models.KindPerformance: "Σ",
}

// kindStyles color entry kinds in the log panel.
var kindStyles = map[models.EntryKind]lipgloss.Style{
	models.KindInput:       lipgloss.NewStyle().Foreground(colorCyan),
	models.KindRouting:     lipgloss.NewStyle().Foreground(colorPurple),
	models.KindThinking:    lipgloss.NewStyle().Foreground(colorDim),
	models.KindText:        lipgloss.NewStyle().Foreground(colorWhite),
	models.KindToolCall:    lipgloss.NewStyle().Foreground(colorYellow),
	models.KindToolResult:  lipgloss.NewStyle().Foreground(colorGreen),
	models.KindValidation:  lipgloss.NewStyle().Foreground(colorRed),
	models.KindPerformance: lipgloss.NewStyle().Foreground(colorCyan),
}

func statusStyle(status models.EntryStatus) lipgloss.Style {
	switch status {
	case models.StatusSuccess:
		return statusSuccessStyle
	case models.StatusFailure:
		return statusFailureStyle
	default:
		return statusPendingStyle
	}
}
