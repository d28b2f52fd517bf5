package models

import "time"

type RecipientKind string

const (
	RecipientUser RecipientKind = "user"
	RecipientTeam RecipientKind = "team"
)

type Notification struct {
	ID            int           `json:"id" db:"id"`
	RecipientID   int           `json:"recipient_id" db:"recipient_id"`
	RecipientKind RecipientKind `json:"recipient_kind" db:"recipient_kind"`
	Title         string        `json:"title" db:"title"`
	Message       string        `json:"message" db:"message"`
	Link          *string       `json:"link,omitempty" db:"link"`
	Read          bool          `json:"read" db:"read"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}
