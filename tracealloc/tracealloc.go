// Package tracealloc wraps an allocator with structured logging.
//
// Every capability call is logged at debug level through log/slog. Failures
// are logged at warn level and throttled with a rate limiter, so a hot path
// stuck against an exhausted allocator cannot flood the log.
//
// The tracer changes nothing about the calls it forwards; arguments and
// results flow through unchanged.
package tracealloc

import (
	"log/slog"
	"time"
	"unsafe"

	"golang.org/x/time/rate"

	"github.com/hupe1980/polyalloc"
)

// Tracer logs capability calls made against an inner allocator. The tracer's
// own state is immutable after construction; it is exactly as thread-safe as
// the inner allocator.
type Tracer struct {
	inner     polyalloc.Allocator
	log       *slog.Logger
	failEvery *rate.Limiter
}

var _ polyalloc.Allocator = (*Tracer)(nil)

// Option configures a Tracer.
type Option func(*Tracer)

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracer) {
		if l != nil {
			t.log = l
		}
	}
}

// WithFailureLogEvery throttles failure logging to at most one record per
// interval. Defaults to one per second; zero disables throttling.
func WithFailureLogEvery(interval time.Duration) Option {
	return func(t *Tracer) {
		if interval <= 0 {
			t.failEvery = nil
			return
		}
		t.failEvery = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// New wraps inner with a logging tracer.
func New(inner polyalloc.Allocator, opts ...Option) *Tracer {
	t := &Tracer{
		inner:     inner,
		log:       slog.Default(),
		failEvery: rate.NewLimiter(rate.Every(time.Second), 1),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Clone returns the same tracer; duplicated handles share the logger.
func (t *Tracer) Clone() *Tracer { return t }

func (t *Tracer) logResult(op string, blk polyalloc.Block, err error, attrs ...any) {
	if err != nil {
		if t.failEvery == nil || t.failEvery.Allow() {
			t.log.Warn(op+" failed", append(attrs, "error", err)...)
		}
		return
	}
	t.log.Debug(op, append(attrs, "ptr", uintptr(blk.Ptr), "usable", blk.Size)...)
}

// Allocate forwards to the inner allocator and logs the outcome.
func (t *Tracer) Allocate(size, align uintptr) (polyalloc.Block, error) {
	blk, err := t.inner.Allocate(size, align)
	t.logResult("allocate", blk, err, "size", size, "align", align)
	return blk, err
}

// AllocateZeroed forwards to the inner allocator and logs the outcome.
func (t *Tracer) AllocateZeroed(size, align uintptr) (polyalloc.Block, error) {
	blk, err := t.inner.AllocateZeroed(size, align)
	t.logResult("allocate_zeroed", blk, err, "size", size, "align", align)
	return blk, err
}

// Deallocate forwards to the inner allocator and logs the call.
func (t *Tracer) Deallocate(ptr unsafe.Pointer, size, align uintptr) {
	t.inner.Deallocate(ptr, size, align)
	t.log.Debug("deallocate", "ptr", uintptr(ptr), "size", size, "align", align)
}

// Grow forwards to the inner allocator and logs the outcome.
func (t *Tracer) Grow(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (polyalloc.Block, error) {
	blk, err := t.inner.Grow(ptr, oldSize, oldAlign, newSize)
	t.logResult("grow", blk, err, "ptr", uintptr(ptr), "old_size", oldSize, "new_size", newSize)
	return blk, err
}

// GrowZeroed forwards to the inner allocator and logs the outcome.
func (t *Tracer) GrowZeroed(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (polyalloc.Block, error) {
	blk, err := t.inner.GrowZeroed(ptr, oldSize, oldAlign, newSize)
	t.logResult("grow_zeroed", blk, err, "ptr", uintptr(ptr), "old_size", oldSize, "new_size", newSize)
	return blk, err
}

// Shrink forwards to the inner allocator and logs the outcome.
func (t *Tracer) Shrink(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (polyalloc.Block, error) {
	blk, err := t.inner.Shrink(ptr, oldSize, oldAlign, newSize)
	t.logResult("shrink", blk, err, "ptr", uintptr(ptr), "old_size", oldSize, "new_size", newSize)
	return blk, err
}
