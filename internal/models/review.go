package models

import "time"

// Review is a rating of one member by another after an exchange.
type Review struct {
	ID        string    `db:"id" json:"id"`
	AuthorID  string    `db:"author_id" json:"author_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ReviewSummary aggregates a member's received ratings.
type ReviewSummary struct {
	SubjectID string  `db:"subject_id" json:"subject_id"`
	Count     int     `db:"count" json:"count"`
	Average   float64 `db:"average" json:"average"`
}
