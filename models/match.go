package models

import "time"

type MatchStatus string

const (
	MatchScheduled  MatchStatus = "scheduled"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
	MatchCanceled   MatchStatus = "canceled"
)

type VoteSide string

const (
	VotePlayer1 VoteSide = "player1"
	VotePlayer2 VoteSide = "player2"
)

// MatchVote is one anonymous-session prediction for a scheduled match.
type MatchVote struct {
	MatchID   int       `json:"-" db:"match_id"`
	SessionID string    `json:"session_id" db:"session_id"`
	VotedFor  VoteSide  `json:"voted_for" db:"voted_for"`
	Timestamp time.Time `json:"timestamp" db:"updated_at"`
}

// Match belongs either to a group (GroupID set, Round nil) or to a knockout
// round (Round set, GroupID nil). Player slots are optional so a slot can stay
// open until the feeding round resolves.
type Match struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	GroupID      *int        `json:"group_id,omitempty" db:"group_id"`
	Player1ID    *int        `json:"player1_id,omitempty" db:"player1_id"`
	Player2ID    *int        `json:"player2_id,omitempty" db:"player2_id"`
	Player1Score int         `json:"player1_score" db:"player1_score"`
	Player2Score int         `json:"player2_score" db:"player2_score"`
	WinnerID     *int        `json:"winner_id,omitempty" db:"winner_id"`
	Status       MatchStatus `json:"status" db:"status"`
	TextNotes    string      `json:"text_notes,omitempty" db:"text_notes"`
	Image        string      `json:"image,omitempty" db:"image"`

	// Knockout-only fields.
	Round           *int    `json:"round,omitempty" db:"round"`
	RoundName       *string `json:"round_name,omitempty" db:"round_name"`
	BracketPosition *int    `json:"bracket_position,omitempty" db:"bracket_position"`
	NextMatchID     *int    `json:"next_match_id,omitempty" db:"next_match_id"`

	Player1Votes int `json:"player1_votes" db:"player1_votes"`
	Player2Votes int `json:"player2_votes" db:"player2_votes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Player1 *Player     `json:"player1,omitempty" db:"-"`
	Player2 *Player     `json:"player2,omitempty" db:"-"`
	Winner  *Player     `json:"winner,omitempty" db:"-"`
	Votes   []MatchVote `json:"votes,omitempty" db:"-"`
}
