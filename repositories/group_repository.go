package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/matchpoint-dev/pingpong-tournaments/models"
)

var ErrGroupNotFound = errors.New("group not found")

type GroupRepository interface {
	Create(ctx context.Context, exec SQLExecutor, group *models.Group) error
	GetByID(ctx context.Context, id int) (*models.Group, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Group, error)
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, groupID int, status models.GroupStatus) error
	UpdateStandings(ctx context.Context, exec SQLExecutor, groupID int, rows []models.GroupPlayer) error
	ListRoster(ctx context.Context, exec SQLExecutor, groupID int) ([]models.GroupPlayer, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
}

type postgresGroupRepository struct {
	db *sql.DB
}

func NewPostgresGroupRepository(db *sql.DB) GroupRepository {
	return &postgresGroupRepository{db: db}
}

func (r *postgresGroupRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts the group together with its fixed roster. The roster is
// never modified afterwards, only its counters and ranks.
func (r *postgresGroupRepository) Create(ctx context.Context, exec SQLExecutor, group *models.Group) error {
	executor := r.getExecutor(exec)

	query := `
		INSERT INTO groups (tournament_id, name, number_of_advancing_players, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := executor.QueryRowContext(ctx, query,
		group.TournamentID, group.Name, group.NumberOfAdvancingPlayers, group.Status,
	).Scan(&group.ID, &group.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert group %q: %w", group.Name, err)
	}

	rosterQuery := `
		INSERT INTO group_players
			(group_id, player_id, seat, points, wins, losses, points_for, points_against,
			 point_difference, matches_played)
		VALUES ($1, $2, $3, 0, 0, 0, 0, 0, 0, 0)`
	for i := range group.Players {
		entry := &group.Players[i]
		entry.GroupID = group.ID
		entry.Seat = i
		if _, err := executor.ExecContext(ctx, rosterQuery, group.ID, entry.PlayerID, entry.Seat); err != nil {
			return fmt.Errorf("failed to insert roster entry for group %d player %d: %w", group.ID, entry.PlayerID, err)
		}
	}
	return nil
}

func (r *postgresGroupRepository) GetByID(ctx context.Context, id int) (*models.Group, error) {
	query := `
		SELECT id, tournament_id, name, number_of_advancing_players, status, created_at
		FROM groups WHERE id = $1`
	group := &models.Group{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&group.ID, &group.TournamentID, &group.Name,
		&group.NumberOfAdvancingPlayers, &group.Status, &group.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to scan group %d: %w", id, err)
	}
	return group, nil
}

func (r *postgresGroupRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Group, error) {
	query := `
		SELECT id, tournament_id, name, number_of_advancing_players, status, created_at
		FROM groups WHERE tournament_id = $1
		ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	groups := make([]*models.Group, 0)
	for rows.Next() {
		group := &models.Group{}
		if scanErr := rows.Scan(
			&group.ID, &group.TournamentID, &group.Name,
			&group.NumberOfAdvancingPlayers, &group.Status, &group.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", scanErr)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (r *postgresGroupRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM groups WHERE tournament_id = $1`, tournamentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count groups for tournament %d: %w", tournamentID, err)
	}
	return count, nil
}

func (r *postgresGroupRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, groupID int, status models.GroupStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE groups SET status = $1 WHERE id = $2`, status, groupID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGroupNotFound)
}

// UpdateStandings persists recomputed counters and ranks onto the roster rows.
func (r *postgresGroupRepository) UpdateStandings(ctx context.Context, exec SQLExecutor, groupID int, rows []models.GroupPlayer) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE group_players
		SET points = $1, wins = $2, losses = $3, points_for = $4, points_against = $5,
		    point_difference = $6, matches_played = $7, rank = $8
		WHERE group_id = $9 AND player_id = $10`
	for _, row := range rows {
		result, err := executor.ExecContext(ctx, query,
			row.Points, row.Wins, row.Losses, row.PointsFor, row.PointsAgainst,
			row.PointDifference, row.MatchesPlayed, row.Rank,
			groupID, row.PlayerID,
		)
		if err != nil {
			return fmt.Errorf("failed to update standings for group %d player %d: %w", groupID, row.PlayerID, err)
		}
		if err := checkAffectedRows(result, ErrGroupNotFound); err != nil {
			return err
		}
	}
	return nil
}

// ListRoster returns the roster in seat order with player details resolved.
func (r *postgresGroupRepository) ListRoster(ctx context.Context, exec SQLExecutor, groupID int) ([]models.GroupPlayer, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT gp.group_id, gp.player_id, gp.seat, gp.points, gp.wins, gp.losses,
		       gp.points_for, gp.points_against, gp.point_difference, gp.matches_played, gp.rank,
		       p.id, p.name, p.phone_number, p.email, p.status, p.created_at
		FROM group_players gp
		JOIN players p ON p.id = gp.player_id
		WHERE gp.group_id = $1
		ORDER BY gp.seat ASC`
	rows, err := executor.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster for group %d: %w", groupID, err)
	}
	defer rows.Close()

	roster := make([]models.GroupPlayer, 0)
	for rows.Next() {
		var entry models.GroupPlayer
		var player models.Player
		if scanErr := rows.Scan(
			&entry.GroupID, &entry.PlayerID, &entry.Seat, &entry.Points, &entry.Wins,
			&entry.Losses, &entry.PointsFor, &entry.PointsAgainst, &entry.PointDifference,
			&entry.MatchesPlayed, &entry.Rank,
			&player.ID, &player.Name, &player.PhoneNumber, &player.Email, &player.Status, &player.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan roster row: %w", scanErr)
		}
		entry.Player = &player
		roster = append(roster, entry)
	}
	return roster, rows.Err()
}

func (r *postgresGroupRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM groups WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete groups for tournament %d: %w", tournamentID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
