package domain

import "context"

// CartLine is one product in a cart. At most one line exists per ID.
type CartLine struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Image    string  `json:"image"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Stock    int     `json:"stock"`
}

// RemoteCartRecord is a loosely shaped cart record as returned by GET /cart.
// Keys seen in practice: item_id, id, name, image, price, quantity, stock.
type RemoteCartRecord map[string]any

// MergeItem is the wire shape of one guest line submitted to POST /cart/merge.
type MergeItem struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// CartAPI is the remote cart collaborator of an authenticated user.
type CartAPI interface {
	FetchCart(ctx context.Context) ([]RemoteCartRecord, error)
	AddItem(ctx context.Context, itemID string, quantity int) error
	UpdateItem(ctx context.Context, itemID string, quantity int) error
	RemoveItem(ctx context.Context, itemID string) error
	// MergeCart authenticates with token explicitly rather than the stored credential.
	MergeCart(ctx context.Context, token string, items []MergeItem) error
}

// CartStore is the in-memory cart view presented to the UI.
type CartStore interface {
	Load(ctx context.Context) error
	AddItem(ctx context.Context, line CartLine) error
	UpdateItem(ctx context.Context, id string, quantity int) error
	RemoveItem(ctx context.Context, id string) error
	Cart() []CartLine
	Loading() bool
	LoadError() error
	Count() int
	Total() float64
	// Invalidate schedules a background refetch of authoritative state.
	Invalidate()
	// Wait blocks until in-flight background refetches have settled.
	Wait()
	Close()
	Subscribe(handler func([]CartLine)) (unsubscribe func())
}
