package core

// dispatch_limiter.go bounds how many upload requests dispatch at once.
//
// Each request already keeps at most BatchWidth sends in flight; the limiter
// caps the number of such requests so the shared transport sees at most
// MaxConcurrent*BatchWidth concurrent sends. Requests that cannot get a slot
// within maxWait fail with ErrTooManyDispatches.
//
// WaitForDrain lets shutdown block until every running dispatch completes.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyDispatches is returned when all dispatch slots are occupied and
// the wait timeout expires. Clients should retry after a short delay.
var ErrTooManyDispatches = errors.New("too many uploads dispatching, please try again later")

// DefaultMaxConcurrentDispatches is the default limit for parallel dispatches.
const DefaultMaxConcurrentDispatches = 4

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// DispatchLimiter is a counting semaphore with drain support.
type DispatchLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu      sync.Mutex
	active  int
	drained chan struct{} // closed when active drops back to zero
}

// DispatchLimiterStatus is a snapshot of the limiter for monitoring.
type DispatchLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// NewDispatchLimiter allows at most maxConcurrent simultaneous dispatches.
func NewDispatchLimiter(maxConcurrent int, maxWait time.Duration) *DispatchLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentDispatches
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &DispatchLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits up to maxWait for a slot. The caller must call Release
// exactly once after a nil return.
func (l *DispatchLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.enter()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyDispatches
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *DispatchLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.enter()
		return true
	default:
		return false
	}
}

// Release frees a slot obtained by Acquire or TryAcquire.
func (l *DispatchLimiter) Release() {
	l.mu.Lock()
	l.active--
	if l.active == 0 && l.drained != nil {
		close(l.drained)
		l.drained = nil
	}
	l.mu.Unlock()

	<-l.slots
}

func (l *DispatchLimiter) enter() {
	l.mu.Lock()
	if l.active == 0 {
		l.drained = make(chan struct{})
	}
	l.active++
	l.mu.Unlock()
}

// ActiveCount returns the number of running dispatches.
func (l *DispatchLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// MaxConcurrent returns the configured slot count.
func (l *DispatchLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// Available returns the number of free slots.
func (l *DispatchLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no dispatch is running or ctx is done.
func (l *DispatchLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	if l.active == 0 {
		l.mu.Unlock()
		return nil
	}
	drained := l.drained
	l.mu.Unlock()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns a snapshot of the limiter state.
func (l *DispatchLimiter) Status() DispatchLimiterStatus {
	return DispatchLimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: l.MaxConcurrent(),
	}
}
