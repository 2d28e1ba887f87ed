package notify

import "time"

// Cooldown remembers when each key was last let through and refuses the
// same key again until the window has passed. Expired keys are evicted
// on every call so the map only holds keys inside their window.
type Cooldown struct {
	window time.Duration
	seen   map[string]time.Time
}

// NewCooldown returns a Cooldown with the given window.
func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		window: window,
		seen:   make(map[string]time.Time),
	}
}

// Allow reports whether key may fire at now, and records it if so.
func (c *Cooldown) Allow(key string, now time.Time) bool {
	c.Evict(now)
	if _, ok := c.seen[key]; ok {
		return false
	}
	c.seen[key] = now
	return true
}

// Evict drops keys whose window has elapsed at now.
func (c *Cooldown) Evict(now time.Time) {
	for k, at := range c.seen {
		if now.Sub(at) >= c.window {
			delete(c.seen, k)
		}
	}
}

// Len returns the number of keys still cooling down.
func (c *Cooldown) Len() int {
	return len(c.seen)
}
