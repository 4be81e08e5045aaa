// Package numbering allocates gap-free sequence numbers per (family, year) and formats them
// into document numbers.
package numbering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ErrStorageUnavailable wraps counter store failures. Retrying may burn a number.
var ErrStorageUnavailable = errors.New("numbering: storage unavailable")

// ErrUnknownFamily is returned for families without a formatter.
var ErrUnknownFamily = errors.New("numbering: unknown family")

// Allocator issues numbers from a Store.
type Allocator struct {
	store      Store
	formatters map[string]Formatter
	clock      func() time.Time
	allocated  *prometheus.CounterVec
}

// Option customises an Allocator.
type Option func(*Allocator)

// WithClock overrides the time source used to pick the scope year.
func WithClock(clock func() time.Time) Option {
	return func(a *Allocator) { a.clock = clock }
}

// WithRequestPrefix overrides the DDV prefix used for request numbers.
func WithRequestPrefix(prefix string) Option {
	return func(a *Allocator) { a.formatters = Formatters(prefix) }
}

// WithRegisterer exports an allocation counter per family.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(a *Allocator) {
		if reg == nil {
			return
		}
		a.allocated = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devis_numbers_allocated_total",
			Help: "Document numbers allocated per family.",
		}, []string{"family"})
		reg.MustRegister(a.allocated)
	}
}

// NewAllocator wires an allocator over store.
func NewAllocator(store Store, opts ...Option) *Allocator {
	a := &Allocator{
		store:      store,
		formatters: Formatters(DefaultRequestPrefix),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate increments the counter for (family, year) and returns the new value.
func (a *Allocator) Allocate(ctx context.Context, year int, family string) (int64, error) {
	seq, err := a.store.Increment(ctx, ScopeKey(family, year))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if a.allocated != nil {
		a.allocated.WithLabelValues(family).Inc()
	}
	return seq, nil
}

// Peek returns the last allocated value for (family, year) without allocating.
func (a *Allocator) Peek(ctx context.Context, year int, family string) (int64, error) {
	seq, err := a.store.Current(ctx, ScopeKey(family, year))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return seq, nil
}

// Next allocates and formats a number for family in the current year.
func (a *Allocator) Next(ctx context.Context, family string) (string, error) {
	format, ok := a.formatters[family]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFamily, family)
	}
	year := a.clock().Year()
	seq, err := a.Allocate(ctx, year, family)
	if err != nil {
		return "", err
	}
	return format(year, seq), nil
}

// PreviewNext formats the number the next allocation would likely receive. It is advisory
// only: concurrent allocations may take it first.
func (a *Allocator) PreviewNext(ctx context.Context, family string) (string, error) {
	format, ok := a.formatters[family]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFamily, family)
	}
	year := a.clock().Year()
	seq, err := a.Peek(ctx, year, family)
	if err != nil {
		return "", err
	}
	return format(year, seq+1), nil
}
