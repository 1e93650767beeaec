package sign

import (
	"sync"
	"time"
)

type lastSeen struct {
	label Label
	at    time.Time
}

// Repeats suppresses the same label from the same source inside a window.
// A zero window disables suppression.
type Repeats struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]lastSeen
	now    func() time.Time
}

func NewRepeats(window time.Duration) *Repeats {
	return &Repeats{
		window: window,
		last:   make(map[string]lastSeen),
		now:    time.Now,
	}
}

// Allow records label for key and reports whether it should be published.
func (r *Repeats) Allow(key string, label Label) bool {
	if r == nil || r.window <= 0 {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	prev, ok := r.last[key]
	if ok && prev.label == label && now.Sub(prev.at) < r.window {
		return false
	}
	r.last[key] = lastSeen{label: label, at: now}
	return true
}

func (r *Repeats) Forget(key string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	delete(r.last, key)
	r.mu.Unlock()
}
