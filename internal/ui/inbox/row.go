package inbox

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/magicseth/donewithemail-sub001/internal/model"
	"github.com/magicseth/donewithemail-sub001/internal/theme"
	"github.com/magicseth/donewithemail-sub001/internal/triage"
)

// ballGlyph is the draggable indicator rendered on the active row.
const ballGlyph = "●"

// renderRowTitle draws the first line of a row: sender, subject, and
// badges.
func (m Model) renderRowTitle(e model.Email, active bool) string {
	sender := lipgloss.NewStyle().Bold(true).Render(e.Sender())

	badge := ""
	if e.Category != "" {
		badge = " " + theme.CategoryStyle(e.Category).Render(string(e.Category))
	}
	if e.IsSubscription {
		badge += lipgloss.NewStyle().Foreground(theme.ColorGray).Render(" ✉")
	}
	if e.HasCalendarEvent {
		badge += lipgloss.NewStyle().Foreground(theme.ColorMagenta).Render(" ◆")
	}

	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(e.Date))

	line := fmt.Sprintf("%s  %s%s  %s", sender, e.Subject, badge, timeStr)

	if active {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(line)
}

// renderRowSecond draws the second line: the snippet for inactive rows,
// the drag indicator for the active one.
func (m Model) renderRowSecond(e model.Email, active bool, frame *triage.Frame) string {
	if !active {
		text := e.Summary
		if text == "" {
			text = e.Snippet
		}
		line := theme.ListItemStyle.
			Foreground(theme.ColorGray).
			Render(text)
		return lipgloss.NewStyle().MaxWidth(m.width).Render(line)
	}

	return m.renderIndicatorLine(frame)
}

// renderIndicatorLine places the ball at its current horizontal
// position. While dragging, the ball picks up the color of the nearest
// target once its proximity crosses the feedback threshold.
func (m Model) renderIndicatorLine(frame *triage.Frame) string {
	style := theme.IndicatorStyle
	if frame.Phase == triage.PhaseDragging {
		if closest := frame.Result.Closest; closest != nil && closest.Proximity >= 0.5 {
			style = style.Foreground(theme.TargetColor(closest.ID))
		}
	}
	if frame.Phase == triage.PhaseProcessing {
		style = style.Foreground(theme.ColorYellow)
	}

	col := int(math.Round(frame.BallX))
	return overlay(m.width, []glyphCell{{col: col, text: style.Render(ballGlyph)}})
}

// renderTargetBar draws the fixed action bar under the header. Targets
// brighten as the indicator approaches; hidden targets render nothing.
func (m Model) renderTargetBar(frame *triage.Frame) string {
	geo := m.state().Geometry()

	var cells []glyphCell
	for _, t := range triage.Targets() {
		if !triage.IsVisible(t, frame.Flags) {
			continue
		}

		col := int(math.Round(geo.CenterX + triage.EffectivePosition(t, frame.Flags)))
		proximity := frame.Result.Proximities[t.ID]
		cells = append(cells, glyphCell{
			col:  col,
			text: theme.TargetStyle(t.ID, proximity).Render(t.Icon),
		})
	}

	return overlay(m.width, cells)
}

// glyphCell is one styled glyph placed at an absolute column.
type glyphCell struct {
	col  int
	text string
}

// overlay renders single-cell glyphs onto a blank line of the given
// width. Out-of-range and overlapping placements are dropped.
func overlay(width int, cells []glyphCell) string {
	sort.Slice(cells, func(i, j int) bool { return cells[i].col < cells[j].col })

	var sb strings.Builder
	cursor := 0
	for _, c := range cells {
		if c.col < cursor || c.col >= width {
			continue
		}
		sb.WriteString(strings.Repeat(" ", c.col-cursor))
		sb.WriteString(c.text)
		cursor = c.col + 1
	}
	return sb.String()
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1w ago"
		}
		return fmt.Sprintf("%dw ago", weeks)
	}
}
