package statushistory

import "time"

// Entry is one append-only audit record of a status the order has held.
// Entries are never updated or deleted.
type Entry struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"orderId"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes"`
	ChangedBy string    `json:"changedBy"`
	CreatedAt time.Time `json:"createdAt"`
}
