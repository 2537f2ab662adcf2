package models

import "time"

type PlayerStatus string

const (
	PlayerActive   PlayerStatus = "active"
	PlayerInactive PlayerStatus = "inactive"
	PlayerBanned   PlayerStatus = "banned"
)

type Player struct {
	ID          int          `json:"id" db:"id"`
	Name        string       `json:"name" db:"name"`
	PhoneNumber string       `json:"phone_number" db:"phone_number"`
	Email       string       `json:"email" db:"email"`
	Status      PlayerStatus `json:"status" db:"status"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`

	// TournamentIDs is loaded on demand for the player detail view.
	TournamentIDs []int `json:"tournament_ids,omitempty" db:"-"`
}
