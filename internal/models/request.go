package models

import "time"

// Request is a need posted by a community member: the quantity-less,
// monetary analog of a Listing. Offers are made against it, and accepting
// an offer hides it.
type Request struct {
	ID          string    `db:"id" json:"id"`
	RequesterID string    `db:"requester_id" json:"requester_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	BudgetCents int64     `db:"budget_cents" json:"budget_cents"`
	Hidden      bool      `db:"hidden" json:"hidden"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// RequestUpdate carries a partial edit; nil fields are left untouched.
type RequestUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	BudgetCents *int64  `json:"budget_cents,omitempty"`
}

// RequestFilter captures filtering criteria for request queries.
type RequestFilter struct {
	RequesterID string
	VisibleOnly bool
	Page        int
	PageSize    int
}
