package limiter

import (
	"context"
	"crypto/sha256"
	"strings"
	"sync"
	"time"
)

type entry struct {
	fails        int
	blockedUntil time.Time
	updatedAt    time.Time
}

// Memory is an in-process limiter with sliding window and lockout.
type Memory struct {
	mu       sync.Mutex
	entries  map[string]*entry
	window   time.Duration
	maxFails int
	blockFor time.Duration
	now      func() time.Time

	lastSweep time.Time
}

// NewMemory constructs an in-process limiter.
func NewMemory(window time.Duration, maxFails int, blockFor time.Duration) *Memory {
	return &Memory{
		entries:  map[string]*entry{},
		window:   window,
		maxFails: maxFails,
		blockFor: blockFor,
		now:      time.Now,
	}
}

// HashClient returns a stable hash for a client identifier to avoid keeping raw addresses.
func HashClient(client string) []byte {
	h := sha256.Sum256([]byte(client))
	return h[:]
}

func key(email string, clientHash []byte) string {
	return strings.ToLower(strings.TrimSpace(email)) + "\x00" + string(clientHash)
}

// sweep drops entries that are neither blocked nor inside the failure window.
// It runs at most once per window. Callers hold mu.
func (l *Memory) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for k, e := range l.entries {
		if !e.blockedUntil.After(now) && now.Sub(e.updatedAt) > l.window {
			delete(l.entries, k)
		}
	}
}

// Allow reports whether login is currently allowed and a retry-after duration.
func (l *Memory) Allow(_ context.Context, email string, clientHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)
	e, ok := l.entries[key(email, clientHash)]
	if !ok {
		return true, 0, nil
	}
	if e.blockedUntil.After(now) {
		return false, e.blockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

// Success resets counters for (email, client).
func (l *Memory) Success(_ context.Context, email string, clientHash []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, key(email, clientHash))
	return nil
}

// Failure records a failed attempt; may set a block until a future time.
func (l *Memory) Failure(_ context.Context, email string, clientHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)
	k := key(email, clientHash)
	e, ok := l.entries[k]
	switch {
	case !ok:
		e = &entry{}
		l.entries[k] = e
	case now.Sub(e.updatedAt) > l.window:
		e.fails = 0
	}
	e.fails++
	e.updatedAt = now

	if e.fails >= l.maxFails {
		e.blockedUntil = now.Add(l.blockFor)
		return true, l.blockFor, nil
	}
	return false, 0, nil
}
