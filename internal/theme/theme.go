package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
)

// SuccessStyle is used for one-line confirmations printed by commands.
var SuccessStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGreen)

// HintStyle is used for follow-up hints after a confirmation.
var HintStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// LevelStyle returns the badge style of a log level.
func LevelStyle(level log.Level) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).MaxWidth(5)

	switch level {
	case log.DebugLevel:
		return base.SetString("DEBUG").Foreground(ColorGray)
	case log.InfoLevel:
		return base.SetString("INFO").Foreground(ColorBlue)
	case log.WarnLevel:
		return base.SetString("WARN").Foreground(ColorYellow)
	case log.ErrorLevel:
		return base.SetString("ERROR").Foreground(ColorRed)
	case log.FatalLevel:
		return base.SetString("FATAL").Foreground(ColorRed)
	default:
		return base.SetString(level.String()).Foreground(ColorGray)
	}
}

// ErrorKeyStyle and ErrorValueStyle highlight "err" fields in log lines.
var (
	ErrorKeyStyle   = lipgloss.NewStyle().Foreground(ColorRed)
	ErrorValueStyle = lipgloss.NewStyle().Bold(true)
)
