// Package bot contains the quoting loop: a local order registry, a
// reconciler against the venue's open-order list, a position risk gate,
// the quote calculator, and the lifecycle that ties them together.
package bot

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/nadoquoter/pkg/nado"
)

// TrackedOrder is one order this process placed and still believes is
// resting on the venue.
type TrackedOrder struct {
	Digest   string
	Side     nado.Side
	Price    decimal.Decimal
	Size     decimal.Decimal
	PlacedAt time.Time
}

// Registry holds the orders placed by this process, keyed by digest.
// It is confined to the quoting loop goroutine; other components see
// its state only through copies in cycle reports.
type Registry struct {
	orders map[string]TrackedOrder
}

func NewRegistry() *Registry {
	return &Registry{orders: make(map[string]TrackedOrder)}
}

// Insert records an order. Re-inserting the same digest overwrites.
func (r *Registry) Insert(o TrackedOrder) {
	r.orders[o.Digest] = o
}

// Remove drops an order by digest. Removing an unknown digest is a no-op.
func (r *Registry) Remove(digest string) bool {
	if _, ok := r.orders[digest]; !ok {
		return false
	}
	delete(r.orders, digest)
	return true
}

func (r *Registry) Has(digest string) bool {
	_, ok := r.orders[digest]
	return ok
}

func (r *Registry) Len() int { return len(r.orders) }

// Clear empties the registry. Used after a product-wide cancel, which
// removes every resting order on the venue side.
func (r *Registry) Clear() {
	r.orders = make(map[string]TrackedOrder)
}

// CountBySide returns how many tracked orders rest on the given side.
func (r *Registry) CountBySide(side nado.Side) int {
	n := 0
	for _, o := range r.orders {
		if o.Side == side {
			n++
		}
	}
	return n
}

// Oldest returns the earliest PlacedAt among tracked orders, or false
// when the registry is empty.
func (r *Registry) Oldest() (time.Time, bool) {
	var oldest time.Time
	found := false
	for _, o := range r.orders {
		if !found || o.PlacedAt.Before(oldest) {
			oldest = o.PlacedAt
			found = true
		}
	}
	return oldest, found
}

// AnyOlderThan reports whether any tracked order was placed at or before
// now minus maxAge.
func (r *Registry) AnyOlderThan(now time.Time, maxAge time.Duration) bool {
	oldest, ok := r.Oldest()
	if !ok {
		return false
	}
	return now.Sub(oldest) >= maxAge
}

// RemoveOlderThan drops every order aged maxAge or more, returning how
// many were dropped.
func (r *Registry) RemoveOlderThan(now time.Time, maxAge time.Duration) int {
	removed := 0
	for digest, o := range r.orders {
		if now.Sub(o.PlacedAt) >= maxAge {
			delete(r.orders, digest)
			removed++
		}
	}
	return removed
}

// Snapshot copies the tracked orders for reporting.
func (r *Registry) Snapshot() []TrackedOrder {
	out := make([]TrackedOrder, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	return out
}
