package kiosk

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/attendance-kiosk/internal/theme"
)

// Screen texts.
const (
	IdleTitle   = "Ready to Mark Attendance"
	IdlePrompt  = "Press enter to mark my attendance"
	ProcessText = "Processing..."
)

// StoppedScreen is the icon and copy shown for a stop reason.
type StoppedScreen struct {
	Icon    string
	Title   string
	Message string
}

// StoppedCopy returns the stopped-screen content for reason.
func StoppedCopy(reason StopReason) StoppedScreen {
	switch reason {
	case ReasonError:
		return StoppedScreen{
			Icon:    "⚠",
			Title:   "Let's Try Again",
			Message: "We could not confirm your face. Ensure good lighting and keep your face centered.",
		}
	case ReasonCancelled:
		return StoppedScreen{
			Icon:    "✓",
			Title:   "Camera Stopped",
			Message: "You can resume anytime. Press r to try again.",
		}
	default:
		return StoppedScreen{
			Icon:    "✓",
			Title:   "Capture Complete",
			Message: "Attendance has been submitted. You can retry to capture again if needed.",
		}
	}
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Attendance Kiosk", m.deviceStatus())
	var content string
	if m.showHelp {
		content = lipgloss.Place(
			m.layout.ContentWidth(), m.layout.ContentHeight(),
			lipgloss.Center, lipgloss.Center,
			m.helpView.View(),
		)
	} else {
		content = m.layout.RenderMain(m.renderScreen(), m.notices.View())
	}
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderScreen returns the card for the current phase.
func (m Model) renderScreen() string {
	switch m.state.Phase {
	case PhaseScanning:
		return m.renderScanning()
	case PhaseSubmitting:
		return theme.CardStyle.Render(
			m.spinner.View() + " " + theme.TitleStyle.UnsetMarginBottom().Render(ProcessText),
		)
	case PhaseStopped:
		c := StoppedCopy(m.state.Reason)
		icon := theme.CategoryStyle("success").Render(c.Icon)
		if m.state.Reason == ReasonError {
			icon = theme.CategoryStyle("error").Render(c.Icon)
		}
		return theme.CardStyle.Render(strings.Join([]string{
			icon,
			theme.TitleStyle.Render(c.Title),
			c.Message,
			"",
			theme.HelpStyle.Render("r retry"),
		}, "\n"))
	default:
		return theme.CardStyle.Render(strings.Join([]string{
			theme.TitleStyle.Render(IdleTitle),
			theme.HelpStyle.Render(IdlePrompt),
		}, "\n"))
	}
}

func (m Model) renderScanning() string {
	lines := []string{theme.TitleStyle.Render("Look at the camera")}

	switch {
	case m.source == nil:
		lines = append(lines, m.spinner.View()+" opening camera…")
	case m.detStat == detectorFailed:
		lines = append(lines, theme.CategoryStyle("error").Render("detector unavailable"))
	case m.detector == nil:
		lines = append(lines, m.spinner.View()+" loading model…")
	case m.state.FaceDetected:
		lines = append(lines, theme.DetectionStyle(true).Render("● face detected"))
	default:
		lines = append(lines, theme.DetectionStyle(false).Render("○ scanning for a face"))
	}

	lines = append(lines, "", theme.HelpStyle.Render("c cancel"))
	return theme.CardStyle.Render(strings.Join(lines, "\n"))
}

// deviceStatus summarizes camera and detector state for the header.
func (m Model) deviceStatus() string {
	camera := "camera off"
	if m.source != nil {
		camera = "camera on"
	}

	var det string
	switch m.detStat {
	case detectorLoading:
		det = "loading model"
	case detectorReady:
		det = "detector ready"
	case detectorFailed:
		det = "detector unavailable"
	default:
		det = "detector idle"
	}
	return camera + " · " + det
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.showHelp {
		return "? close help | esc back"
	}

	var hints string
	switch m.state.Phase {
	case PhaseIdle:
		hints = "enter start"
	case PhaseScanning:
		hints = "c cancel"
	case PhaseSubmitting:
		hints = "processing"
	case PhaseStopped:
		hints = "r retry"
	}
	if m.notices.Len() > 0 {
		hints += " | d dismiss | x dismiss all"
	}
	return hints + " | ? help | q quit"
}
