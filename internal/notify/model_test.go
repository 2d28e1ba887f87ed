package notify

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/attendance-kiosk/internal/model"
)

// timer is one scheduled delivery captured by fakeClock.
type timer struct {
	at  time.Time
	msg tea.Msg
}

// fakeClock is a manual clock that records scheduled timers instead of
// sleeping.
type fakeClock struct {
	now    time.Time
	timers []timer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) After(d time.Duration, msg tea.Msg) tea.Cmd {
	c.timers = append(c.timers, timer{at: c.now.Add(d), msg: msg})
	return func() tea.Msg { return msg }
}

// advance moves the clock forward and feeds every timer that is due to m.
func (c *fakeClock) advance(m Model, d time.Duration) Model {
	c.now = c.now.Add(d)
	for {
		due := -1
		for i, tm := range c.timers {
			if !tm.at.After(c.now) {
				due = i
				break
			}
		}
		if due < 0 {
			return m
		}
		tm := c.timers[due]
		c.timers = append(c.timers[:due], c.timers[due+1:]...)
		m, _ = m.Update(tm.msg)
	}
}

func newTestModel() (Model, *fakeClock) {
	c := newFakeClock()
	return NewWithClock(c.Now, c.After), c
}

func TestDedupeWithinWindow(t *testing.T) {
	m, c := newTestModel()

	if cmd := m.Show(model.CategoryError, "A", "first", "k", Options{}); cmd == nil {
		t.Fatal("first Show returned nil command")
	}
	c.now = c.now.Add(2999 * time.Millisecond)
	if cmd := m.Show(model.CategoryError, "A", "second", "k", Options{}); cmd != nil {
		t.Error("duplicate within the window must be a no-op")
	}
	if m.Len() != 1 {
		t.Fatalf("Len = %d, want 1", m.Len())
	}

	c.now = c.now.Add(time.Millisecond)
	m.Show(model.CategoryError, "A", "third", "k", Options{})
	if m.Len() != 2 {
		t.Errorf("Show after the window should enqueue, Len = %d", m.Len())
	}
}

func TestDedupeIsPerKey(t *testing.T) {
	m, _ := newTestModel()

	m.Show(model.CategoryError, "A", "", "one", Options{})
	m.Show(model.CategoryError, "B", "", "two", Options{})
	m.Show(model.CategoryInfo, "C", "", "", Options{})
	m.Show(model.CategoryInfo, "D", "", "", Options{})

	if m.Len() != 4 {
		t.Errorf("Len = %d, want 4", m.Len())
	}
}

func TestExpiryTiming(t *testing.T) {
	m, c := newTestModel()
	m.Show(model.CategorySuccess, "Saved", "", "", Options{Duration: 6 * time.Second})

	m = c.advance(m, 6*time.Second-time.Millisecond)
	items := m.Items()
	if len(items) != 1 || items[0].Exiting {
		t.Fatalf("notification changed before its duration: %+v", items)
	}

	m = c.advance(m, time.Millisecond)
	items = m.Items()
	if len(items) != 1 || !items[0].Exiting {
		t.Fatalf("notification should be exiting at its duration: %+v", items)
	}

	m = c.advance(m, ExitDelay)
	if m.Len() != 0 {
		t.Errorf("notification still present %v after duration + exit delay", ExitDelay)
	}
}

func TestDefaultDuration(t *testing.T) {
	m, c := newTestModel()
	m.Show(model.CategoryInfo, "Hi", "", "", Options{})

	if got := m.Items()[0].Duration; got != DefaultDuration {
		t.Errorf("Duration = %v, want %v", got, DefaultDuration)
	}
	m = c.advance(m, DefaultDuration)
	m = c.advance(m, ExitDelay)
	if m.Len() != 0 {
		t.Error("default-duration notification not removed")
	}
}

func TestRemoveEarly(t *testing.T) {
	m, c := newTestModel()
	m.Show(model.CategoryInfo, "Hi", "", "", Options{Duration: 10 * time.Second})
	id := m.Items()[0].ID

	if cmd := m.Remove(id); cmd == nil {
		t.Fatal("Remove returned nil")
	}
	if !m.Items()[0].Exiting {
		t.Error("Remove must mark the entry exiting")
	}
	m = c.advance(m, ExitDelay)
	if m.Len() != 0 {
		t.Error("entry not removed after the exit delay")
	}

	// The original expiry timer now targets a missing ID.
	m = c.advance(m, 10*time.Second)
	if m.Len() != 0 {
		t.Error("stale expiry resurrected an entry")
	}

	if m.Remove(12345) != nil {
		t.Error("Remove of unknown ID should return nil")
	}
}

func TestDismissAllKeepsLaterEntries(t *testing.T) {
	m, c := newTestModel()
	m.Show(model.CategoryInfo, "One", "", "", Options{Duration: time.Minute})
	c.now = c.now.Add(time.Millisecond)
	m.Show(model.CategoryInfo, "Two", "", "", Options{Duration: time.Minute})

	m.DismissAll()
	for _, n := range m.Items() {
		if !n.Exiting {
			t.Errorf("%s not exiting after DismissAll", n.Title)
		}
	}

	m.Show(model.CategoryInfo, "Three", "", "", Options{Duration: time.Minute})
	m = c.advance(m, ExitDelay)

	items := m.Items()
	if len(items) != 1 || items[0].Title != "Three" {
		t.Errorf("unexpected entries after DismissAll: %+v", items)
	}
}

func TestIDsAreUniqueWithinAMillisecond(t *testing.T) {
	m, _ := newTestModel()
	m.Show(model.CategoryInfo, "One", "", "", Options{})
	m.Show(model.CategoryInfo, "Two", "", "", Options{})

	items := m.Items()
	if items[0].ID == items[1].ID {
		t.Errorf("duplicate IDs %d", items[0].ID)
	}
}

func TestViewShowsDetails(t *testing.T) {
	m, _ := newTestModel()
	conf := 0.87
	m.Show(model.CategorySuccess, "Check-In Successful", "Welcome", "", Options{
		Variant: model.VariantHero,
		Payload: model.Payload{Confidence: &conf, Photo: "/media/e1.jpg"},
	})

	view := m.View()
	for _, want := range []string{"Check-In Successful", "Match Confidence: 87%", "/media/e1.jpg", "✓"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestDetailsHideTimestampForInfo(t *testing.T) {
	ts := "2026-10-14T09:00:00Z"
	info := model.Notification{Category: model.CategoryInfo, Payload: model.Payload{Timestamp: ts}}
	if got := Details(info); len(got) != 0 {
		t.Errorf("info details = %v, want none", got)
	}

	success := model.Notification{Category: model.CategorySuccess, Payload: model.Payload{Timestamp: ts}}
	if got := Details(success); len(got) != 1 || got[0] != TimestampLabel(ts) {
		t.Errorf("success details = %v", got)
	}
}

func TestConfidenceLabel(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.87, "Match Confidence: 87%"},
		{0.125, "Match Confidence: 13%"},
		{0.5, "Match Confidence: 50%"},
		{1, "Match Confidence: 100%"},
	}
	for _, tt := range tests {
		if got := ConfidenceLabel(tt.in); got != tt.want {
			t.Errorf("ConfidenceLabel(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDetailsHideZeroConfidence(t *testing.T) {
	zero := 0.0
	n := model.Notification{Category: model.CategorySuccess, Payload: model.Payload{Confidence: &zero}}
	if got := Details(n); len(got) != 0 {
		t.Errorf("details = %v, want none for zero confidence", got)
	}
}

func TestCooldownEvicts(t *testing.T) {
	c := NewCooldown(time.Second)
	now := time.Now()
	c.Allow("a", now)
	c.Allow("b", now.Add(500*time.Millisecond))

	c.Evict(now.Add(time.Second))
	if c.Len() != 1 {
		t.Errorf("Len = %d after evicting one expired key, want 1", c.Len())
	}
	if !c.Allow("a", now.Add(time.Second)) {
		t.Error("expired key should be allowed again")
	}
}
