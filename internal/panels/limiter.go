package panels

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/JonMunkholm/jsonkv/internal/logging"
)

// ErrTooManyRenders is returned when no document slot frees up in time.
var ErrTooManyRenders = errors.New("too many concurrent renders, please try again later")

const (
	// DefaultMaxConcurrent matches the default database pool headroom.
	DefaultMaxConcurrent = 5

	// DefaultMaxWait is how long a document render queues for a slot.
	DefaultMaxWait = 10 * time.Second
)

// Limiter caps stored-document renders, each of which holds a pool
// connection for its load and lookups.
type Limiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu       sync.Mutex
	active   map[string]int
	waiting  int
	rejected uint64
}

// NewLimiter allows maxConcurrent document renders at once; a render waits
// at most maxWait for a slot. Non-positive arguments select the defaults.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &Limiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		active:  make(map[string]int),
	}
}

// Acquire claims a slot for a render of panel. Every successful call must be
// paired with Release(panel).
func (l *Limiter) Acquire(ctx context.Context, panel string) error {
	l.mu.Lock()
	l.waiting++
	l.mu.Unlock()

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	var err error
	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		err = ctx.Err()
	case <-timer.C:
		err = ErrTooManyRenders
	}

	l.mu.Lock()
	l.waiting--
	switch {
	case err == nil:
		l.active[panel]++
	case errors.Is(err, ErrTooManyRenders):
		l.rejected++
	}
	l.mu.Unlock()

	if errors.Is(err, ErrTooManyRenders) {
		logging.FromContext(ctx).Warn("document render rejected",
			"panel", panel, "capacity", cap(l.slots), "waited", l.maxWait)
	}
	return err
}

// Release returns the slot held by a render of panel.
func (l *Limiter) Release(panel string) {
	l.mu.Lock()
	if l.active[panel]--; l.active[panel] <= 0 {
		delete(l.active, panel)
	}
	l.mu.Unlock()

	<-l.slots
}

// ActiveCount returns the number of documents rendering now.
func (l *Limiter) ActiveCount() int {
	return len(l.slots)
}

// WaitForDrain blocks until in-flight renders finish or ctx ends.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for l.ActiveCount() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// LimiterStatus is reported by the health endpoint.
type LimiterStatus struct {
	Active    int            `json:"active"`
	Available int            `json:"available"`
	Capacity  int            `json:"capacity"`
	Waiting   int            `json:"waiting"`
	Rejected  uint64         `json:"rejected"`
	ByPanel   map[string]int `json:"by_panel,omitempty"`
}

// Status snapshots the limiter.
func (l *Limiter) Status() LimiterStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	byPanel := make(map[string]int, len(l.active))
	for name, n := range l.active {
		byPanel[name] = n
	}

	active := len(l.slots)
	return LimiterStatus{
		Active:    active,
		Available: cap(l.slots) - active,
		Capacity:  cap(l.slots),
		Waiting:   l.waiting,
		Rejected:  l.rejected,
		ByPanel:   byPanel,
	}
}
