package models

import "time"

// Offer is a proposal against a request. Accepting an offer hides the
// request it targets.
type Offer struct {
	ID        string    `db:"id" json:"id"`
	OffererID string    `db:"offerer_id" json:"offerer_id"`
	RequestID string    `db:"request_id" json:"request_id"`
	Location  string    `db:"location" json:"location"`
	ImagePath string    `db:"image_path" json:"image_path,omitempty"`
	Message   string    `db:"message" json:"message,omitempty"`
	Accepted  bool      `db:"accepted" json:"accepted"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// OfferUpdate carries a partial edit; nil fields are left untouched.
type OfferUpdate struct {
	Location  *string `json:"location,omitempty"`
	ImagePath *string `json:"image_path,omitempty"`
	Message   *string `json:"message,omitempty"`
}
