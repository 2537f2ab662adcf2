package models

import "time"

type GroupStatus string

const (
	GroupNotStarted GroupStatus = "not_started"
	GroupInProgress GroupStatus = "in_progress"
	GroupCompleted  GroupStatus = "completed"
)

// GroupPlayer is one roster entry of a group with its per-group counters.
// The roster is fixed at group creation; only the counters and the rank mutate.
type GroupPlayer struct {
	GroupID         int  `json:"-" db:"group_id"`
	PlayerID        int  `json:"player_id" db:"player_id"`
	Seat            int  `json:"-" db:"seat"`
	Points          int  `json:"points" db:"points"`
	Wins            int  `json:"wins" db:"wins"`
	Losses          int  `json:"losses" db:"losses"`
	PointsFor       int  `json:"points_for" db:"points_for"`
	PointsAgainst   int  `json:"points_against" db:"points_against"`
	PointDifference int  `json:"point_difference" db:"point_difference"`
	MatchesPlayed   int  `json:"matches_played" db:"matches_played"`
	Rank            *int `json:"rank,omitempty" db:"rank"`

	Player *Player `json:"player,omitempty" db:"-"`
}

type Group struct {
	ID                       int         `json:"id" db:"id"`
	TournamentID             int         `json:"tournament_id" db:"tournament_id"`
	Name                     string      `json:"name" db:"name"`
	NumberOfAdvancingPlayers int         `json:"number_of_advancing_players" db:"number_of_advancing_players"`
	Status                   GroupStatus `json:"status" db:"status"`
	CreatedAt                time.Time   `json:"created_at" db:"created_at"`

	// Roster in seat order, standings in rank order. Same rows, two sorts.
	Players   []GroupPlayer `json:"players,omitempty" db:"-"`
	Standings []GroupPlayer `json:"standings,omitempty" db:"-"`
	Matches   []Match       `json:"matches,omitempty" db:"-"`
}
