package dispatcher

import (
	"sync"
	"time"
)

type BreakerState int

const (
	Closed BreakerState = iota
	Open
	HalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// MicroBreaker opens after failThreshold consecutive failures and lets a single
// probe through once openFor has elapsed.
type MicroBreaker struct {
	mu        sync.Mutex
	state     BreakerState
	fails     int
	threshold int
	openFor   time.Duration
	retryAt   time.Time
	probing   bool
	now       func() time.Time
}

func NewMicroBreaker(threshold int, openFor time.Duration) *MicroBreaker {
	if threshold < 1 {
		threshold = 1
	}
	return &MicroBreaker{threshold: threshold, openFor: openFor, now: time.Now}
}

func (b *MicroBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Ready reports whether a call may be attempted, without reserving the probe slot.
func (b *MicroBreaker) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.admits()
}

// TryAcquire reserves the call. An open breaker past its cooldown turns half-open
// and hands out exactly one probe.
func (b *MicroBreaker) TryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.admits() {
		return false
	}
	if b.state == Open {
		b.state = HalfOpen
	}
	if b.state == HalfOpen {
		b.probing = true
	}
	return true
}

func (b *MicroBreaker) admits() bool {
	switch b.state {
	case Open:
		return !b.probing && !b.now().Before(b.retryAt)
	case HalfOpen:
		return !b.probing
	default:
		return true
	}
}

func (b *MicroBreaker) OnSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fails = 0
	b.state = Closed
	b.probing = false
}

func (b *MicroBreaker) OnFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.fails++
	if b.state == HalfOpen || b.fails >= b.threshold {
		b.trip()
	}
}

func (b *MicroBreaker) trip() {
	b.state = Open
	b.probing = false
	b.retryAt = b.now().Add(b.openFor)
}
