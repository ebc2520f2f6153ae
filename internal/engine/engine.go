// Package engine implements the installment and contemplation engine of
// the consortium backend.
//
// The engine only depends on the repository interfaces of a Store.
// All operations that change more than one entity run in a single
// transaction of the store while holding a lock for their consortium.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/consorcio/backend/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// Rules are the business rules of the engine.
type Rules struct {
	QuotaStep    decimal.Decimal // Quota counts must be a multiple of this
	QuotaMin     decimal.Decimal
	QuotaMax     decimal.Decimal
	DueDay       int             // Day of the month obligations are due on
	Capacity     decimal.Decimal // Quota units a month can be contemplated for
	Epsilon      decimal.Decimal // Tolerance for quota share comparisons
	MaxGroupSize int             // Maximum number of members contemplated together in one month
}

// DefaultRules returns the rules consortiums are usually run with.
func DefaultRules() Rules {
	return Rules{
		QuotaStep:    decimal.RequireFromString("0.5"),
		QuotaMin:     decimal.RequireFromString("0.5"),
		QuotaMax:     decimal.RequireFromString("3"),
		DueDay:       8,
		Capacity:     decimal.NewFromInt(1),
		Epsilon:      decimal.RequireFromString("0.01"),
		MaxGroupSize: 2,
	}
}

// Validate checks that the rules are consistent.
func (r Rules) Validate() error {
	if !r.QuotaStep.IsPositive() {
		return errors.New("quota step must be positive")
	}

	if r.QuotaMin.LessThan(r.QuotaStep) || r.QuotaMax.LessThan(r.QuotaMin) {
		return fmt.Errorf("quota bounds [%s, %s] are invalid for step %s", r.QuotaMin, r.QuotaMax, r.QuotaStep)
	}

	if r.DueDay < 1 || r.DueDay > 31 {
		return fmt.Errorf("due day must be between 1 and 31, is %d", r.DueDay)
	}

	if !r.Capacity.IsPositive() {
		return errors.New("capacity must be positive")
	}

	if r.Epsilon.IsNegative() {
		return errors.New("epsilon must not be negative")
	}

	if r.MaxGroupSize < 1 {
		return fmt.Errorf("maximum group size must be at least 1, is %d", r.MaxGroupSize)
	}

	return nil
}

// limit is the capacity of a month including the tolerance.
func (r Rules) limit() decimal.Decimal {
	return r.Capacity.Add(r.Epsilon)
}

// full reports whether a month holding used quota shares is at capacity.
func (r Rules) full(used decimal.Decimal) bool {
	return used.GreaterThanOrEqual(r.Capacity.Sub(r.Epsilon))
}

// core holds what all components of the engine share.
type core struct {
	store    Store
	rules    Rules
	now      func() time.Time
	location *time.Location
	locks    *KeyedMutex
	metrics  *Metrics
}

// Engine bundles the components of the engine.
type Engine struct {
	Ledger      *Ledger
	Sweeper     *Sweeper
	Allocator   *Allocator
	Memberships *Memberships
	Timeline    *TimelineBuilder

	metrics *Metrics
}

type options struct {
	rules    Rules
	now      func() time.Time
	location *time.Location
	shuffler Shuffler
	strategy BundlingStrategy
	locale   language.Tag
}

// Option configures the engine.
type Option func(*options)

// WithRules sets the business rules.
func WithRules(r Rules) Option {
	return func(o *options) {
		o.rules = r
	}
}

// WithClock sets the function returning the current time.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLocation sets the time zone "today" is determined in.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		o.location = loc
	}
}

// WithShuffler sets the random source for automatic allocation.
func WithShuffler(s Shuffler) Option {
	return func(o *options) {
		o.shuffler = s
	}
}

// WithStrategy sets the bundling strategy for automatic allocation.
func WithStrategy(s BundlingStrategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithLocale sets the locale amounts on the timeline are formatted for.
func WithLocale(tag language.Tag) Option {
	return func(o *options) {
		o.locale = tag
	}
}

// New creates an engine working on the store.
func New(store Store, opts ...Option) (*Engine, error) {
	o := options{
		rules:    DefaultRules(),
		now:      time.Now,
		location: time.UTC,
		strategy: WholeQuotaFirst{},
		locale:   language.BrazilianPortuguese,
	}

	for _, opt := range opts {
		opt(&o)
	}

	if err := o.rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}

	if o.shuffler == nil {
		o.shuffler = NewRandomShuffler(uint64(o.now().UnixNano()))
	}

	c := &core{
		store:    store,
		rules:    o.rules,
		now:      o.now,
		location: o.location,
		locks:    NewKeyedMutex(),
		metrics:  NewMetrics(),
	}

	ledger := &Ledger{core: c}

	return &Engine{
		Ledger:      ledger,
		Sweeper:     &Sweeper{core: c},
		Allocator:   &Allocator{core: c, shuffler: o.shuffler, strategy: o.strategy},
		Memberships: &Memberships{core: c},
		Timeline:    &TimelineBuilder{core: c, ledger: ledger, locale: o.locale},
		metrics:     c.metrics,
	}, nil
}

// Metrics returns the Prometheus metrics of the engine.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// today returns the current date in the configured location.
func (c *core) today() types.Date {
	return types.DateOf(c.now().In(c.location))
}

// lock locks the consortium and returns the function to unlock it.
func (c *core) lock(consortiumID uuid.UUID) func() {
	return c.locks.Lock(consortiumID.String())
}
