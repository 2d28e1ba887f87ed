package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the top bar and the application title.
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

// CardStyle wraps the centered screen cards (start, stopped, processing).
var CardStyle = lipgloss.NewStyle().
	Padding(1, 4).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder).
	Align(lipgloss.Center)

// TitleStyle is the heading inside a card.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	MarginBottom(1)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// DimmedStyle renders content that is fading out.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorSubtle).
	Faint(true)

// ToastStyle is the base notification card.
var ToastStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Border(lipgloss.RoundedBorder())

// HeroToastStyle is the emphasized notification card.
var HeroToastStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.ThickBorder())

// CategoryColor returns the accent color for a notification category.
func CategoryColor(category string) lipgloss.AdaptiveColor {
	switch category {
	case "success":
		return ColorGreen
	case "error":
		return ColorRed
	case "info":
		return ColorBlue
	default:
		return ColorGray
	}
}

// CategoryStyle returns a bold style in the category's accent color.
func CategoryStyle(category string) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(CategoryColor(category))
}

// DetectionStyle colors the face-presence indicator.
func DetectionStyle(detected bool) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	if detected {
		return base.Foreground(ColorGreen)
	}
	return base.Foreground(ColorYellow)
}
