package core

// limiter.go bounds how many exports the server encodes at once.
//
// Each export holds a slot from Acquire until its release func runs. Callers
// that find every slot taken queue for up to maxWait, then fail with
// ErrTooManyExports. The limiter tracks what each slot is encoding so the
// status endpoint and metrics can show which formats are busy, how many
// requests are queued, and how many were turned away.
//
// On shutdown, Close stops new exports and WaitForDrain blocks until the
// running ones finish.

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrTooManyExports is returned when no slot frees up within the wait
	// timeout. Clients should retry after a short delay.
	ErrTooManyExports = errors.New("too many exports in progress, please try again later")

	// ErrExportsClosed is returned by Acquire after Close.
	ErrExportsClosed = errors.New("exports closed: server shutting down")
)

// DefaultMaxConcurrentExports is the default limit for parallel exports.
const DefaultMaxConcurrentExports = 5

// DefaultMaxWaitTime is how long to queue for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// ExportLimiter hands out a fixed number of export slots.
type ExportLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu       sync.Mutex
	byFormat map[ExportFormat]int
	active   int
	queued   int
	rejected int64
	closed   bool
	idle     chan struct{} // closed while active == 0
}

// NewExportLimiter creates a limiter with maxConcurrent slots. Requests
// queue for at most maxWait.
func NewExportLimiter(maxConcurrent int, maxWait time.Duration) *ExportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentExports
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	idle := make(chan struct{})
	close(idle)
	return &ExportLimiter{
		slots:    make(chan struct{}, maxConcurrent),
		maxWait:  maxWait,
		byFormat: make(map[ExportFormat]int),
		idle:     idle,
	}
}

// Acquire takes a slot for an export of the given format, queueing while all
// slots are busy. The returned release func frees the slot; calling it more
// than once is harmless.
//
//	release, err := limiter.Acquire(ctx, FormatCSV)
//	if err != nil {
//	    return err
//	}
//	defer release()
func (l *ExportLimiter) Acquire(ctx context.Context, format ExportFormat) (func(), error) {
	if release, ok := l.TryAcquire(format); ok {
		return release, nil
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrExportsClosed
	}
	l.queued++
	l.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.queued--
		if l.closed {
			l.mu.Unlock()
			<-l.slots
			return nil, ErrExportsClosed
		}
		release := l.start(format)
		l.mu.Unlock()
		return release, nil

	case <-waitCtx.Done():
		l.mu.Lock()
		l.queued--
		l.mu.Unlock()

		// Caller cancellation wins over our own timeout.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		l.mu.Lock()
		l.rejected++
		l.mu.Unlock()
		return nil, ErrTooManyExports
	}
}

// TryAcquire takes a slot without waiting. ok is false when every slot is
// busy or the limiter is closed.
func (l *ExportLimiter) TryAcquire(format ExportFormat) (release func(), ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, false
	}
	select {
	case l.slots <- struct{}{}:
		return l.start(format), true
	default:
		return nil, false
	}
}

// start records a taken slot. l.mu must be held.
func (l *ExportLimiter) start(format ExportFormat) func() {
	if l.active == 0 {
		l.idle = make(chan struct{})
	}
	l.active++
	l.byFormat[format]++

	var once sync.Once
	return func() {
		once.Do(func() { l.finish(format) })
	}
}

func (l *ExportLimiter) finish(format ExportFormat) {
	l.mu.Lock()
	l.active--
	if l.byFormat[format]--; l.byFormat[format] == 0 {
		delete(l.byFormat, format)
	}
	if l.active == 0 {
		close(l.idle)
	}
	l.mu.Unlock()

	<-l.slots
}

// Close makes every later Acquire fail with ErrExportsClosed. Exports that
// already hold a slot keep running.
func (l *ExportLimiter) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

// WaitForDrain blocks until no export holds a slot or ctx is done.
func (l *ExportLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExportLimiterStatus is a snapshot of the limiter's state.
type ExportLimiterStatus struct {
	Active        int            `json:"active"`
	Queued        int            `json:"queued"`
	Available     int            `json:"available"`
	MaxConcurrent int            `json:"max_concurrent"`
	Rejected      int64          `json:"rejected"`
	ByFormat      map[string]int `json:"by_format,omitempty"`
	Closed        bool           `json:"closed,omitempty"`
}

// Status returns the current limiter state.
func (l *ExportLimiter) Status() ExportLimiterStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := ExportLimiterStatus{
		Active:        l.active,
		Queued:        l.queued,
		Available:     cap(l.slots) - l.active,
		MaxConcurrent: cap(l.slots),
		Rejected:      l.rejected,
		Closed:        l.closed,
	}
	if len(l.byFormat) > 0 {
		s.ByFormat = make(map[string]int, len(l.byFormat))
		for f, n := range l.byFormat {
			s.ByFormat[string(f)] = n
		}
	}
	return s
}
