package models

import "time"

// ItemKind distinguishes which collection an expiration record points at.
type ItemKind string

// Kinds of expiring items.
const (
	ItemKindListing ItemKind = "LISTING"
	ItemKindRequest ItemKind = "REQUEST"
)

// Valid reports whether the kind is one of the known collections.
func (k ItemKind) Valid() bool {
	return k == ItemKindListing || k == ItemKindRequest
}

// Expiration maps an item to a single absolute expiry instant. At most one
// active record exists per item. An item with no record never expires.
type Expiration struct {
	ID        string    `db:"id" json:"id"`
	ItemID    string    `db:"item_id" json:"item_id"`
	ItemKind  ItemKind  `db:"item_kind" json:"item_kind"`
	ExpireAt  time.Time `db:"expire_at" json:"expire_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SweepResult summarises one reconciliation pass over due expirations.
type SweepResult struct {
	Scanned  int       `json:"scanned"`
	Deleted  int       `json:"deleted"`
	Orphans  int       `json:"orphans"`
	Skipped  int       `json:"skipped"`
	Failed   int       `json:"failed"`
	SweptAt  time.Time `json:"swept_at"`
	Duration string    `json:"duration"`
}
