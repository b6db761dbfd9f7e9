// Package cart implements the client-side cart item list. Every operation
// returns a new slice and leaves its input untouched, so callers can hand out
// previous lists as immutable snapshots.
package cart

import (
	"github.com/jcmexdev/storefront/internal/pkg/ident"
)

// SyncState tracks whether an entry has been confirmed by the server.
type SyncState string

const (
	// SyncLocal marks entries of a guest cart that is never sent to the server.
	SyncLocal   SyncState = "local"
	SyncPending SyncState = "pending"
	SyncSynced  SyncState = "synced"
	SyncFailed  SyncState = "failed"
)

// Item is one cart entry. At most one Item exists per ID.
type Item struct {
	ID       ident.ID  `json:"id"`
	Quantity int       `json:"quantity"`
	Title    string    `json:"title,omitempty"`
	Price    float64   `json:"price,omitempty"`
	Image    string    `json:"image,omitempty"`
	Sync     SyncState `json:"sync,omitempty"`
}

// Unsynced reports whether the entry diverges from the last server state.
func (it Item) Unsynced() bool {
	return it.Sync == SyncPending || it.Sync == SyncFailed
}

// Find returns the index of the entry with the given id, or -1.
func Find(items []Item, id ident.ID) int {
	for i := range items {
		if items[i].ID.Equal(id) {
			return i
		}
	}
	return -1
}

func clone(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// Add merges item into items: an existing entry has its quantity increased
// by item.Quantity and takes item's sync state, otherwise item is appended.
func Add(items []Item, item Item) []Item {
	out := clone(items)
	if i := Find(out, item.ID); i >= 0 {
		out[i].Quantity += item.Quantity
		out[i].Sync = item.Sync
		if out[i].Title == "" {
			out[i].Title, out[i].Price, out[i].Image = item.Title, item.Price, item.Image
		}
		return out
	}
	return append(out, item)
}

// Increment adds one to the entry's quantity. Unknown ids are a no-op.
func Increment(items []Item, id ident.ID, sync SyncState) []Item {
	out := clone(items)
	if i := Find(out, id); i >= 0 {
		out[i].Quantity++
		out[i].Sync = sync
	}
	return out
}

// Decrement subtracts one from the entry's quantity and removes the entry
// when it reaches zero. Unknown ids are a no-op.
func Decrement(items []Item, id ident.ID, sync SyncState) []Item {
	i := Find(items, id)
	if i < 0 {
		return clone(items)
	}
	if items[i].Quantity <= 1 {
		return Remove(items, id)
	}
	out := clone(items)
	out[i].Quantity--
	out[i].Sync = sync
	return out
}

// SetQuantity overwrites the entry's quantity; zero or less removes it.
func SetQuantity(items []Item, id ident.ID, qty int, sync SyncState) []Item {
	if qty <= 0 {
		return Remove(items, id)
	}
	out := clone(items)
	if i := Find(out, id); i >= 0 {
		out[i].Quantity = qty
		out[i].Sync = sync
	}
	return out
}

// Remove drops the entry with the given id.
func Remove(items []Item, id ident.ID) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if !it.ID.Equal(id) {
			out = append(out, it)
		}
	}
	return out
}

// Mark sets the sync state of the entry with the given id.
func Mark(items []Item, id ident.ID, sync SyncState) []Item {
	out := clone(items)
	if i := Find(out, id); i >= 0 {
		out[i].Sync = sync
	}
	return out
}

// Confirm returns server items marked as synced.
func Confirm(server []Item) []Item {
	out := clone(server)
	for i := range out {
		out[i].Sync = SyncSynced
	}
	return out
}

// Count returns the total quantity across entries.
func Count(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// Total returns the sum of price times quantity.
func Total(items []Item) float64 {
	var t float64
	for _, it := range items {
		t += it.Price * float64(it.Quantity)
	}
	return t
}
