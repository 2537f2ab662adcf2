package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/matchpoint-dev/pingpong-tournaments/models"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTournamentInvalid = errors.New("match tournament conflict or invalid")
	ErrMatchPlayerInvalid     = errors.New("match player conflict or invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByGroup(ctx context.Context, exec SQLExecutor, groupID int) ([]*models.Match, error)
	CountByGroup(ctx context.Context, exec SQLExecutor, groupID int) (int, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
	ListKnockout(ctx context.Context, tournamentID int) ([]*models.Match, error)
	ListByRound(ctx context.Context, exec SQLExecutor, tournamentID, round int) ([]*models.Match, error)
	MaxRound(ctx context.Context, exec SQLExecutor, tournamentID int) (*int, error)
	MaxBracketPosition(ctx context.Context, exec SQLExecutor, tournamentID, round int) (*int, error)
	ListActiveForPlayersInRound(ctx context.Context, exec SQLExecutor, tournamentID, round int, playerIDs []int) ([]*models.Match, error)
	UpdateScore(ctx context.Context, id int, score1, score2 int, winnerID *int, status models.MatchStatus) error
	UpdateCancellation(ctx context.Context, id int, canceled bool) error
	UpdateImage(ctx context.Context, id int, image string) error
	Delete(ctx context.Context, id int) error
	DeleteKnockoutByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, group_id, player1_id, player2_id, player1_score,
	player2_score, winner_id, status, text_notes, image, round, round_name,
	bracket_position, next_match_id, player1_votes, player2_votes, created_at`

func scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	m := &models.Match{}
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.GroupID, &m.Player1ID, &m.Player2ID,
		&m.Player1Score, &m.Player2Score, &m.WinnerID, &m.Status,
		&m.TextNotes, &m.Image, &m.Round, &m.RoundName,
		&m.BracketPosition, &m.NextMatchID, &m.Player1Votes, &m.Player2Votes,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches
			(tournament_id, group_id, player1_id, player2_id, player1_score, player2_score,
			 winner_id, status, text_notes, image, round, round_name, bracket_position, next_match_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at`
	err := executor.QueryRowContext(ctx, query,
		match.TournamentID, match.GroupID, match.Player1ID, match.Player2ID,
		match.Player1Score, match.Player2Score, match.WinnerID, match.Status,
		match.TextNotes, match.Image, match.Round, match.RoundName,
		match.BracketPosition, match.NextMatchID,
	).Scan(&match.ID, &match.CreatedAt)
	return handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	match, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan match %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByGroup(ctx context.Context, exec SQLExecutor, groupID int) ([]*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches WHERE group_id = $1 ORDER BY id ASC`
	return r.queryMatches(ctx, executor, query, groupID)
}

func (r *postgresMatchRepository) CountByGroup(ctx context.Context, exec SQLExecutor, groupID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches WHERE group_id = $1`, groupID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count matches for group %d: %w", groupID, err)
	}
	return count, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 ORDER BY id ASC`
	return r.queryMatches(ctx, r.db, query, tournamentID)
}

// ListKnockout returns every bracket match of the tournament ordered by round
// and bracket position.
func (r *postgresMatchRepository) ListKnockout(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches
		WHERE tournament_id = $1 AND round IS NOT NULL
		ORDER BY round ASC, bracket_position ASC`
	return r.queryMatches(ctx, r.db, query, tournamentID)
}

func (r *postgresMatchRepository) ListByRound(ctx context.Context, exec SQLExecutor, tournamentID, round int) ([]*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches
		WHERE tournament_id = $1 AND round = $2
		ORDER BY bracket_position ASC, id ASC`
	return r.queryMatches(ctx, executor, query, tournamentID, round)
}

func (r *postgresMatchRepository) MaxRound(ctx context.Context, exec SQLExecutor, tournamentID int) (*int, error) {
	executor := r.getExecutor(exec)
	var round sql.NullInt64
	err := executor.QueryRowContext(ctx,
		`SELECT MAX(round) FROM matches WHERE tournament_id = $1 AND round IS NOT NULL`,
		tournamentID,
	).Scan(&round)
	if err != nil {
		return nil, fmt.Errorf("failed to find max round for tournament %d: %w", tournamentID, err)
	}
	if !round.Valid {
		return nil, nil
	}
	value := int(round.Int64)
	return &value, nil
}

func (r *postgresMatchRepository) MaxBracketPosition(ctx context.Context, exec SQLExecutor, tournamentID, round int) (*int, error) {
	executor := r.getExecutor(exec)
	var position sql.NullInt64
	err := executor.QueryRowContext(ctx,
		`SELECT MAX(bracket_position) FROM matches WHERE tournament_id = $1 AND round = $2`,
		tournamentID, round,
	).Scan(&position)
	if err != nil {
		return nil, fmt.Errorf("failed to find max bracket position for tournament %d round %d: %w", tournamentID, round, err)
	}
	if !position.Valid {
		return nil, nil
	}
	value := int(position.Int64)
	return &value, nil
}

// ListActiveForPlayersInRound finds non-canceled matches in the round that
// already involve any of the given players.
func (r *postgresMatchRepository) ListActiveForPlayersInRound(ctx context.Context, exec SQLExecutor, tournamentID, round int, playerIDs []int) ([]*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches
		WHERE tournament_id = $1 AND round = $2 AND status <> $3
		  AND (player1_id = ANY($4) OR player2_id = ANY($4))
		ORDER BY bracket_position ASC, id ASC`
	return r.queryMatches(ctx, executor, query, tournamentID, round, models.MatchCanceled, pq.Array(playerIDs))
}

func (r *postgresMatchRepository) UpdateScore(ctx context.Context, id int, score1, score2 int, winnerID *int, status models.MatchStatus) error {
	query := `
		UPDATE matches
		SET player1_score = $1, player2_score = $2, winner_id = $3, status = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, score1, score2, winnerID, status, id)
	if err != nil {
		return handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// UpdateCancellation cancels or restores a match. Cancelling is destructive:
// both scores are zeroed and the winner is cleared. Restoring only flips the
// status back to scheduled.
func (r *postgresMatchRepository) UpdateCancellation(ctx context.Context, id int, canceled bool) error {
	var result sql.Result
	var err error
	if canceled {
		result, err = r.db.ExecContext(ctx, `
			UPDATE matches
			SET status = $1, player1_score = 0, player2_score = 0, winner_id = NULL
			WHERE id = $2`, models.MatchCanceled, id)
	} else {
		result, err = r.db.ExecContext(ctx,
			`UPDATE matches SET status = $1 WHERE id = $2`, models.MatchScheduled, id)
	}
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateImage(ctx context.Context, id int, image string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE matches SET image = $1 WHERE id = $2`, image, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteKnockoutByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`DELETE FROM matches WHERE tournament_id = $1 AND round IS NOT NULL`, tournamentID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete knockout matches for tournament %d: %w", tournamentID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey":
			return ErrMatchTournamentInvalid
		case "matches_player1_id_fkey", "matches_player2_id_fkey", "matches_winner_id_fkey":
			return ErrMatchPlayerInvalid
		}
	}
	return err
}
