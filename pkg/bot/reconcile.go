package bot

import "github.com/uhyunpark/nadoquoter/pkg/nado"

// Reconcile drops every registry entry whose digest is absent from the
// venue's open-order list. Orders filled or cancelled out-of-band
// disappear from the venue list first; reconciliation is how the local
// view catches up. Venue orders the registry never tracked are left
// alone. Returns how many entries were removed per side.
func Reconcile(reg *Registry, venueOrders []nado.OpenOrder) (removedBuys, removedSells int) {
	alive := make(map[string]struct{}, len(venueOrders))
	for _, o := range venueOrders {
		alive[o.Digest] = struct{}{}
	}

	for _, o := range reg.Snapshot() {
		if _, ok := alive[o.Digest]; ok {
			continue
		}
		reg.Remove(o.Digest)
		if o.Side == nado.Buy {
			removedBuys++
		} else {
			removedSells++
		}
	}
	return removedBuys, removedSells
}
