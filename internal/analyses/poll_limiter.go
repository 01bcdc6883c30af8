package analyses

import (
	"sync"
	"time"
)

const pollLimitWindow = 1 * time.Second

// pollLimiter allows one status query per caller and job within window.
type pollLimiter struct {
	mu      sync.Mutex
	lastHit map[string]time.Time
	now     func() time.Time
	window  time.Duration
}

func newPollLimiter(window time.Duration, now func() time.Time) *pollLimiter {
	if now == nil {
		now = time.Now
	}
	if window <= 0 {
		window = pollLimitWindow
	}
	return &pollLimiter{
		lastHit: make(map[string]time.Time),
		now:     now,
		window:  window,
	}
}

func (l *pollLimiter) Allow(caller, jobID string) bool {
	if l == nil {
		return true
	}
	key := caller + "|" + jobID
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.lastHit[key]; ok && now.Sub(last) < l.window {
		return false
	}
	l.lastHit[key] = now
	l.sweep(now)
	return true
}

// sweep drops entries older than the window once the map grows.
func (l *pollLimiter) sweep(now time.Time) {
	if len(l.lastHit) < 1024 {
		return
	}
	for k, t := range l.lastHit {
		if now.Sub(t) >= l.window {
			delete(l.lastHit, k)
		}
	}
}

func (l *pollLimiter) RetryAfterSeconds() int {
	window := pollLimitWindow
	if l != nil {
		window = l.window
	}
	secs := int(window.Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}
