// Package setup is the first-run configuration form.
package setup

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/attendance-kiosk/internal/model"
	"github.com/nhle/attendance-kiosk/internal/theme"
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	baseURL     string
	device      string
	cascadePath string
	confirm     bool
}

// Model is a standalone Bubble Tea program that edits an AppConfig and
// saves it to path.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	cfg    model.AppConfig
	path   string
	saved  bool
	err    error
	width  int
	height int
}

// New creates the setup form pre-filled from cfg.
func New(cfg *model.AppConfig, path string) Model {
	m := Model{
		fb: &formBindings{
			baseURL:     cfg.API.BaseURL,
			device:      cfg.Camera.Device,
			cascadePath: cfg.Detector.CascadePath,
			confirm:     true,
		},
		cfg:    *cfg,
		path:   path,
		width:  80,
		height: 24,
	}
	m.form = m.buildForm()
	return m
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update drives the form and saves on completion.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		if m.fb.confirm {
			m.cfg = *m.Apply()
			if err := model.SaveConfig(m.path, &m.cfg); err != nil {
				m.err = err
			} else {
				m.saved = true
			}
		}
		return m, tea.Quit
	case huh.StateAborted:
		return m, tea.Quit
	}

	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Attendance Kiosk Setup") + "\n" + m.form.View()
	if m.err != nil {
		content += "\n" + theme.CategoryStyle("error").Render(m.err.Error())
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// Apply returns a copy of the config with the form's current values.
func (m Model) Apply() *model.AppConfig {
	cfg := m.cfg
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(m.fb.baseURL), "/")
	cfg.Camera.Device = strings.TrimSpace(m.fb.device)
	cfg.Detector.CascadePath = strings.TrimSpace(m.fb.cascadePath)
	return &cfg
}

// Saved reports whether the config was written.
func (m Model) Saved() bool {
	return m.saved
}

// Config returns the edited configuration.
func (m Model) Config() *model.AppConfig {
	cfg := m.cfg
	return &cfg
}

// Err returns the save error, if any.
func (m Model) Err() error {
	return m.err
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Attendance API URL").
				Placeholder(model.DefaultBaseURL).
				Value(&m.fb.baseURL).
				Validate(ValidateBaseURL),
			huh.NewInput().
				Title("Camera device").
				Description("Device index (0) or a capture URL/path").
				Value(&m.fb.device).
				Validate(ValidateDevice),
			huh.NewInput().
				Title("Face cascade file").
				Value(&m.fb.cascadePath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("cascade path is required")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Save configuration?").
				Value(&m.fb.confirm),
		),
	).WithWidth(min(m.width-4, 72)).WithShowHelp(true)
}

// ValidateBaseURL accepts absolute http(s) URLs.
func ValidateBaseURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("URL is required")
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("URL must start with http:// or https://")
	}
	if u.Host == "" {
		return errors.New("URL must include a host")
	}
	return nil
}

// ValidateDevice accepts a non-negative device index or any non-empty
// capture path.
func ValidateDevice(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("device is required")
	}
	if n, err := strconv.Atoi(s); err == nil && n < 0 {
		return errors.New("device index must not be negative")
	}
	return nil
}
