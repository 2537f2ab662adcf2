package models

import "time"

// TournamentStatus matches the ENUM in the DB.
type TournamentStatus string

const (
	TournamentUpcoming  TournamentStatus = "upcoming"
	TournamentOngoing   TournamentStatus = "ongoing"
	TournamentCompleted TournamentStatus = "completed"
	TournamentCanceled  TournamentStatus = "canceled"
)

type TournamentFormat string

const (
	FormatLeague   TournamentFormat = "league"
	FormatKnockout TournamentFormat = "knockout"
	FormatMixed    TournamentFormat = "mixed"
	FormatGroups   TournamentFormat = "groups"
)

type Tournament struct {
	ID                int              `json:"id" db:"id"`
	Name              string           `json:"name" db:"name"`
	Description       string           `json:"description" db:"description"`
	StartDate         time.Time        `json:"start_date" db:"start_date"`
	EndOfRegistration time.Time        `json:"end_of_registration" db:"end_of_registration"`
	Format            TournamentFormat `json:"format" db:"format"`
	Status            TournamentStatus `json:"status" db:"status"`
	MaxPlayers        int              `json:"max_players" db:"max_players"`
	Location          string           `json:"location,omitempty" db:"location"`
	PrizePool         string           `json:"prize_pool,omitempty" db:"prize_pool"`
	MainImage         string           `json:"main_image,omitempty" db:"main_image"`
	WinnerID          *int             `json:"winner_id,omitempty" db:"winner_id"`
	IsPublished       bool             `json:"is_published" db:"is_published"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`

	// Optional linked entities, populated by services when requested.
	Players []Player `json:"players,omitempty" db:"-"`
	Groups  []Group  `json:"groups,omitempty" db:"-"`
	Matches []Match  `json:"matches,omitempty" db:"-"`
	Winner  *Player  `json:"winner,omitempty" db:"-"`
}
