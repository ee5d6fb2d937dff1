package models

import "time"

// Listing is an item offered to the community. Remaining tracks the live
// claimable quantity; Hidden suppresses the listing from the public feed
// without deleting it. Remaining only ever decreases through claims, and a
// claim that drives it to zero flips Hidden in the same statement.
type Listing struct {
	ID             string    `db:"id" json:"id"`
	AuthorID       string    `db:"author_id" json:"author_id"`
	Name           string    `db:"name" json:"name"`
	Description    string    `db:"description" json:"description"`
	MeetupLocation string    `db:"meetup_location" json:"meetup_location"`
	ImagePath      string    `db:"image_path" json:"image_path,omitempty"`
	Quantity       int       `db:"quantity" json:"quantity"`
	Remaining      int       `db:"remaining" json:"remaining"`
	Hidden         bool      `db:"hidden" json:"hidden"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ListingUpdate carries a partial edit; nil fields are left untouched.
type ListingUpdate struct {
	Name           *string `json:"name,omitempty"`
	Description    *string `json:"description,omitempty"`
	MeetupLocation *string `json:"meetup_location,omitempty"`
	ImagePath      *string `json:"image_path,omitempty"`
	Quantity       *int    `json:"quantity,omitempty"`
}

// ListingFilter captures filtering criteria for listing queries.
type ListingFilter struct {
	AuthorID    string
	VisibleOnly bool
	Page        int
	PageSize    int
}
