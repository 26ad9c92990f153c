package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/magicseth/donewithemail-sub001/internal/model"
	"github.com/magicseth/donewithemail-sub001/internal/triage"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for rows in the inbox list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused inbox row.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// IndicatorStyle renders the draggable row indicator at rest.
var IndicatorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGray)

// TargetColor returns the accent color for a triage target.
func TargetColor(id triage.TargetID) lipgloss.AdaptiveColor {
	switch id {
	case triage.TargetDone:
		return ColorGreen
	case triage.TargetReply:
		return ColorBlue
	case triage.TargetMic:
		return ColorOrange
	case triage.TargetUnsubscribe:
		return ColorRed
	default:
		return ColorGray
	}
}

// TargetStyle returns the style for a triage target glyph, brightening
// and bolding as the indicator approaches. Proximity runs 0 to 1.
func TargetStyle(id triage.TargetID, proximity float64) lipgloss.Style {
	base := lipgloss.NewStyle()
	if proximity >= 0.5 {
		return base.Bold(true).Foreground(TargetColor(id))
	}
	return base.Foreground(ColorGray)
}

// StatusStyle returns a color-coded style for a triage status.
func StatusStyle(status model.EmailStatus) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch status {
	case model.StatusInbox:
		return base.Foreground(ColorBlue)
	case model.StatusDone:
		return base.Foreground(ColorGreen)
	case model.StatusReplied:
		return base.Foreground(ColorMagenta)
	case model.StatusUnsubscribed:
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}

// CategoryStyle returns a color-coded style for a message category.
func CategoryStyle(category model.Category) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch category {
	case model.CategoryPersonal:
		return base.Foreground(ColorGreen)
	case model.CategoryWork:
		return base.Foreground(ColorBlue)
	case model.CategoryNewsletter:
		return base.Foreground(ColorOrange)
	case model.CategoryNotification:
		return base.Foreground(ColorGray)
	case model.CategoryCalendar:
		return base.Foreground(ColorMagenta)
	default:
		return base.Foreground(ColorGray)
	}
}
