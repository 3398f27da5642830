package denylist

import "time"

// SetClock replaces the clock of a memory denylist.
func SetClock(m *Memory, now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}
