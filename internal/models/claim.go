package models

import "time"

// Claim records that a member claimed a quantity from a listing. The sum of
// claim quantities against one listing never exceeds its original quantity;
// the guard is the listing's remaining counter, not a recomputed sum.
type Claim struct {
	ID        string    `db:"id" json:"id"`
	ClaimerID string    `db:"claimer_id" json:"claimer_id"`
	ListingID string    `db:"listing_id" json:"listing_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ClaimFilter captures filtering criteria for claim queries.
type ClaimFilter struct {
	ClaimerID string
	ListingID string
}
