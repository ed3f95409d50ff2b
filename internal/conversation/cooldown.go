package conversation

import "time"

// CooldownGuard suppresses duplicate or rapid-fire processing of message
// bursts from the same conversation (multi-part pastes, double sends). It is
// not a global throughput control.
type CooldownGuard struct {
	window time.Duration
}

// NewCooldownGuard builds a guard with the given window.
func NewCooldownGuard(window time.Duration) *CooldownGuard {
	if window <= 0 {
		window = 1200 * time.Millisecond
	}
	return &CooldownGuard{window: window}
}

// Allow reports whether a message arriving at now may be processed. Inside
// the window it returns false and leaves the session untouched; otherwise it
// stamps LastActivityAt and returns true, so a suppressed burst message does
// not extend the window.
func (g *CooldownGuard) Allow(sess *Session, now time.Time) bool {
	if g == nil || sess == nil {
		return true
	}
	if now.Sub(sess.LastActivityAt) < g.window {
		return false
	}
	sess.LastActivityAt = now
	return true
}
