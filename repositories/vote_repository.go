package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/matchpoint-dev/pingpong-tournaments/models"
)

var ErrVoteNotFound = errors.New("vote not found")

// VoteRepository stores per-session predictions for scheduled matches plus the
// two running tallies kept on the match row.
type VoteRepository interface {
	GetBySession(ctx context.Context, exec SQLExecutor, matchID int, sessionID string) (*models.MatchVote, error)
	Insert(ctx context.Context, exec SQLExecutor, vote *models.MatchVote) error
	UpdateChoice(ctx context.Context, exec SQLExecutor, matchID int, sessionID string, votedFor models.VoteSide) error
	ListByMatch(ctx context.Context, matchID int) ([]models.MatchVote, error)
	AdjustTallies(ctx context.Context, exec SQLExecutor, matchID, player1Delta, player2Delta int) error
	Reset(ctx context.Context, exec SQLExecutor, matchID int) error
}

type postgresVoteRepository struct {
	db *sql.DB
}

func NewPostgresVoteRepository(db *sql.DB) VoteRepository {
	return &postgresVoteRepository{db: db}
}

func (r *postgresVoteRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresVoteRepository) GetBySession(ctx context.Context, exec SQLExecutor, matchID int, sessionID string) (*models.MatchVote, error) {
	executor := r.getExecutor(exec)
	vote := &models.MatchVote{}
	err := executor.QueryRowContext(ctx, `
		SELECT match_id, session_id, voted_for, updated_at
		FROM match_votes WHERE match_id = $1 AND session_id = $2`,
		matchID, sessionID,
	).Scan(&vote.MatchID, &vote.SessionID, &vote.VotedFor, &vote.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVoteNotFound
		}
		return nil, fmt.Errorf("failed to scan vote for match %d session %s: %w", matchID, sessionID, err)
	}
	return vote, nil
}

func (r *postgresVoteRepository) Insert(ctx context.Context, exec SQLExecutor, vote *models.MatchVote) error {
	executor := r.getExecutor(exec)
	err := executor.QueryRowContext(ctx, `
		INSERT INTO match_votes (match_id, session_id, voted_for)
		VALUES ($1, $2, $3)
		RETURNING updated_at`,
		vote.MatchID, vote.SessionID, vote.VotedFor,
	).Scan(&vote.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert vote for match %d: %w", vote.MatchID, err)
	}
	return nil
}

func (r *postgresVoteRepository) UpdateChoice(ctx context.Context, exec SQLExecutor, matchID int, sessionID string, votedFor models.VoteSide) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE match_votes SET voted_for = $1, updated_at = NOW()
		WHERE match_id = $2 AND session_id = $3`,
		votedFor, matchID, sessionID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrVoteNotFound)
}

func (r *postgresVoteRepository) ListByMatch(ctx context.Context, matchID int) ([]models.MatchVote, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT match_id, session_id, voted_for, updated_at
		FROM match_votes WHERE match_id = $1
		ORDER BY updated_at ASC`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes for match %d: %w", matchID, err)
	}
	defer rows.Close()

	votes := make([]models.MatchVote, 0)
	for rows.Next() {
		var vote models.MatchVote
		if scanErr := rows.Scan(&vote.MatchID, &vote.SessionID, &vote.VotedFor, &vote.Timestamp); scanErr != nil {
			return nil, scanErr
		}
		votes = append(votes, vote)
	}
	return votes, rows.Err()
}

func (r *postgresVoteRepository) AdjustTallies(ctx context.Context, exec SQLExecutor, matchID, player1Delta, player2Delta int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE matches
		SET player1_votes = player1_votes + $1, player2_votes = player2_votes + $2
		WHERE id = $3`,
		player1Delta, player2Delta, matchID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresVoteRepository) Reset(ctx context.Context, exec SQLExecutor, matchID int) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM match_votes WHERE match_id = $1`, matchID); err != nil {
		return fmt.Errorf("failed to delete votes for match %d: %w", matchID, err)
	}
	result, err := executor.ExecContext(ctx,
		`UPDATE matches SET player1_votes = 0, player2_votes = 0 WHERE id = $1`, matchID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}
