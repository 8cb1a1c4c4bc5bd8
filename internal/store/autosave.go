package store

import (
	"time"
)

// AutosavePolicy decides whether a dirty application state should be flushed
// to the local snapshot. It is a pure function of time and the dirty flag so
// the debounce behavior is testable without a running store.
type AutosavePolicy struct {
	// MinInterval is the minimum time between two flushes. Zero disables
	// debouncing: every mutation persists immediately.
	MinInterval time.Duration
}

// ShouldSave reports whether a flush is due.
func (p AutosavePolicy) ShouldSave(now, lastSave time.Time, dirty bool) bool {
	if !dirty {
		return false
	}
	if p.MinInterval <= 0 {
		return true
	}
	return now.Sub(lastSave) >= p.MinInterval
}
