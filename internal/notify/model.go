// Package notify is the kiosk's notification surface: a queue of timed,
// dismissible messages with per-key debounce.
package notify

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/attendance-kiosk/internal/model"
	"github.com/nhle/attendance-kiosk/internal/ui"
)

const (
	// DefaultDuration applies when Options.Duration is zero.
	DefaultDuration = 3 * time.Second

	// ExitDelay is the grace period between marking an entry as exiting
	// and removing it.
	ExitDelay = 300 * time.Millisecond

	// DedupeWindow suppresses repeats of the same key.
	DedupeWindow = 3 * time.Second
)

// Options tune a single notification.
type Options struct {
	Duration time.Duration
	Variant  model.Variant
	Payload  model.Payload
}

// expireMsg fires when a notification's duration has elapsed.
type expireMsg struct{ id int64 }

// removeMsg fires after the exit grace period of one notification.
type removeMsg struct{ id int64 }

// clearMsg fires after the exit grace period of DismissAll.
type clearMsg struct{ ids []int64 }

// Model holds the visible notifications.
type Model struct {
	entries  []model.Notification
	cooldown *Cooldown
	now      func() time.Time
	after    ui.Scheduler
	lastID   int64
	width    int
}

// New creates an empty notification surface using the wall clock.
func New() Model {
	return NewWithClock(time.Now, ui.After)
}

// NewWithClock creates a notification surface with an injected clock and
// timer scheduler.
func NewWithClock(now func() time.Time, after ui.Scheduler) Model {
	return Model{
		cooldown: NewCooldown(DedupeWindow),
		now:      now,
		after:    after,
		width:    60,
	}
}

// Show enqueues a notification and returns the command that expires it.
// When key is non-empty and the same key was shown within DedupeWindow,
// Show does nothing and returns nil.
func (m *Model) Show(
	category model.Category,
	title string,
	message string,
	key string,
	opts Options,
) tea.Cmd {
	now := m.now()
	if key != "" && !m.cooldown.Allow(key, now) {
		return nil
	}

	duration := opts.Duration
	if duration <= 0 {
		duration = DefaultDuration
	}

	id := now.UnixMilli()
	if id <= m.lastID {
		id = m.lastID + 1
	}
	m.lastID = id

	m.entries = append(m.entries, model.Notification{
		ID:        id,
		Category:  category,
		Title:     title,
		Message:   message,
		Variant:   opts.Variant,
		Payload:   opts.Payload,
		Duration:  duration,
		CreatedAt: now,
	})

	return m.after(duration, expireMsg{id: id})
}

// Remove marks the notification as exiting and returns the command that
// removes it after ExitDelay. Unknown IDs return nil.
func (m *Model) Remove(id int64) tea.Cmd {
	for i := range m.entries {
		if m.entries[i].ID == id {
			m.entries[i].Exiting = true
			return m.after(ExitDelay, removeMsg{id: id})
		}
	}
	return nil
}

// RemoveNewest dismisses the most recent notification that is not
// already exiting.
func (m *Model) RemoveNewest() tea.Cmd {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if !m.entries[i].Exiting {
			return m.Remove(m.entries[i].ID)
		}
	}
	return nil
}

// DismissAll marks every current notification as exiting and clears
// them after ExitDelay. Notifications shown after the call are kept.
func (m *Model) DismissAll() tea.Cmd {
	if len(m.entries) == 0 {
		return nil
	}
	ids := make([]int64, len(m.entries))
	for i := range m.entries {
		m.entries[i].Exiting = true
		ids[i] = m.entries[i].ID
	}
	return m.after(ExitDelay, clearMsg{ids: ids})
}

// Update handles the surface's own timer messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case expireMsg:
		cmd := m.Remove(msg.id)
		return m, cmd

	case removeMsg:
		m.drop(map[int64]bool{msg.id: true})
		return m, nil

	case clearMsg:
		ids := make(map[int64]bool, len(msg.ids))
		for _, id := range msg.ids {
			ids[id] = true
		}
		m.drop(ids)
		return m, nil
	}
	return m, nil
}

// drop physically removes the given IDs.
func (m *Model) drop(ids map[int64]bool) {
	kept := make([]model.Notification, 0, len(m.entries))
	for _, n := range m.entries {
		if !ids[n.ID] {
			kept = append(kept, n)
		}
	}
	m.entries = kept
}

// Items returns a copy of the current notifications, oldest first.
func (m Model) Items() []model.Notification {
	out := make([]model.Notification, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of notifications, exiting ones included.
func (m Model) Len() int {
	return len(m.entries)
}

// SetWidth sets the render width of notification cards.
func (m *Model) SetWidth(width int) {
	m.width = width
}
