package notify

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/attendance-kiosk/internal/model"
	"github.com/nhle/attendance-kiosk/internal/theme"
)

// Icon returns the glyph shown for a category.
func Icon(c model.Category) string {
	switch c {
	case model.CategorySuccess:
		return "✓"
	case model.CategoryError:
		return "✕"
	case model.CategoryInfo:
		return "i"
	default:
		return ""
	}
}

// ConfidenceLabel formats a match score in [0, 1] as a whole percentage,
// rounding halves up.
func ConfidenceLabel(confidence float64) string {
	return fmt.Sprintf("Match Confidence: %d%%", int(math.Round(confidence*100)))
}

// TimestampLabel renders a server timestamp as local wall-clock time.
// Unparseable timestamps are shown as sent.
func TimestampLabel(ts string) string {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Local().Format("3:04:05 PM")
		}
	}
	return ts
}

// Details returns the extra lines shown under the message: confidence
// when positive, and the timestamp when supplied on a non-info entry.
func Details(n model.Notification) []string {
	var lines []string
	if c := n.Payload.Confidence; c != nil && *c > 0 {
		lines = append(lines, ConfidenceLabel(*n.Payload.Confidence))
	}
	if n.Payload.Timestamp != "" && n.Category != model.CategoryInfo {
		lines = append(lines, TimestampLabel(n.Payload.Timestamp))
	}
	return lines
}

// View renders the notifications stacked oldest first.
func (m Model) View() string {
	if len(m.entries) == 0 {
		return ""
	}

	cards := make([]string, 0, len(m.entries))
	for _, n := range m.entries {
		cards = append(cards, m.renderCard(n))
	}
	return lipgloss.JoinVertical(lipgloss.Right, cards...)
}

func (m Model) renderCard(n model.Notification) string {
	accent := theme.CategoryStyle(string(n.Category))

	header := accent.Render(Icon(n.Category)) + " " + accent.Render(n.Title)

	var body []string
	body = append(body, header)
	if n.Payload.Photo != "" {
		body = append(body, theme.HelpStyle.Render("Photo: "+n.Payload.Photo))
	}
	if n.Message != "" {
		body = append(body, n.Message)
	}
	if details := Details(n); len(details) > 0 {
		body = append(body, "", strings.Join(details, "  "))
	}
	body = append(body, theme.HelpStyle.Render("✕ d to dismiss"))

	content := strings.Join(body, "\n")

	style := theme.ToastStyle
	width := m.width
	if n.Variant == model.VariantHero {
		style = theme.HeroToastStyle
		width = m.width + m.width/3
	}
	style = style.Width(width).BorderForeground(theme.CategoryColor(string(n.Category)))

	if n.Exiting {
		return style.BorderForeground(theme.ColorSubtle).Render(theme.DimmedStyle.Render(content))
	}
	return style.Render(content)
}
