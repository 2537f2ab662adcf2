package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/matchpoint-dev/pingpong-tournaments/models"
)

var (
	ErrTournamentNotFound           = errors.New("tournament not found")
	ErrTournamentPlayerConflict     = errors.New("player is already registered for this tournament")
	ErrTournamentPlayerNotRegistered = errors.New("player is not registered for this tournament")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus, publishedOnly bool) ([]*models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	Delete(ctx context.Context, id int) error
	AddPlayer(ctx context.Context, tournamentID, playerID int) error
	RemovePlayer(ctx context.Context, tournamentID, playerID int) error
	CountPlayers(ctx context.Context, tournamentID int) (int, error)
	HasPlayer(ctx context.Context, tournamentID, playerID int) (bool, error)
	SetWinner(ctx context.Context, exec SQLExecutor, tournamentID int, winnerID *int) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, tournamentID int, status models.TournamentStatus) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `id, name, description, start_date, end_of_registration, format, status,
	max_players, location, prize_pool, main_image, winner_id, is_published, created_at`

func scanTournament(row interface{ Scan(...interface{}) error }) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.StartDate, &t.EndOfRegistration,
		&t.Format, &t.Status, &t.MaxPlayers, &t.Location, &t.PrizePool,
		&t.MainImage, &t.WinnerID, &t.IsPublished, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournaments
			(name, description, start_date, end_of_registration, format, status,
			 max_players, location, prize_pool, main_image, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query,
		tournament.Name, tournament.Description, tournament.StartDate,
		tournament.EndOfRegistration, tournament.Format, tournament.Status,
		tournament.MaxPlayers, tournament.Location, tournament.PrizePool,
		tournament.MainImage, tournament.IsPublished,
	).Scan(&tournament.ID, &tournament.CreatedAt)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	tournament, err := scanTournament(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrTournamentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan tournament %d: %w", id, err)
	}
	return tournament, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, status *models.TournamentStatus, publishedOnly bool) ([]*models.Tournament, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + tournamentColumns + ` FROM tournaments WHERE 1=1`)

	args := []interface{}{}
	placeholder := 1
	if status != nil {
		queryBuilder.WriteString(" AND status = $" + strconv.Itoa(placeholder))
		args = append(args, *status)
		placeholder++
	}
	if publishedOnly {
		queryBuilder.WriteString(" AND is_published = TRUE")
	}
	queryBuilder.WriteString(" ORDER BY start_date DESC, id DESC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) Update(ctx context.Context, tournament *models.Tournament) error {
	query := `
		UPDATE tournaments
		SET name = $1, description = $2, start_date = $3, end_of_registration = $4,
		    format = $5, status = $6, max_players = $7, location = $8,
		    prize_pool = $9, main_image = $10, winner_id = $11, is_published = $12
		WHERE id = $13`
	result, err := r.db.ExecContext(ctx, query,
		tournament.Name, tournament.Description, tournament.StartDate,
		tournament.EndOfRegistration, tournament.Format, tournament.Status,
		tournament.MaxPlayers, tournament.Location, tournament.PrizePool,
		tournament.MainImage, tournament.WinnerID, tournament.IsPublished,
		tournament.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) AddPlayer(ctx context.Context, tournamentID, playerID int) error {
	query := `INSERT INTO tournament_players (tournament_id, player_id) VALUES ($1, $2)`
	_, err := r.db.ExecContext(ctx, query, tournamentID, playerID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrTournamentPlayerConflict
		}
		return fmt.Errorf("failed to register player %d in tournament %d: %w", playerID, tournamentID, err)
	}
	return nil
}

func (r *postgresTournamentRepository) RemovePlayer(ctx context.Context, tournamentID, playerID int) error {
	query := `DELETE FROM tournament_players WHERE tournament_id = $1 AND player_id = $2`
	result, err := r.db.ExecContext(ctx, query, tournamentID, playerID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentPlayerNotRegistered)
}

func (r *postgresTournamentRepository) CountPlayers(ctx context.Context, tournamentID int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM tournament_players WHERE tournament_id = $1`
	if err := r.db.QueryRowContext(ctx, query, tournamentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count players for tournament %d: %w", tournamentID, err)
	}
	return count, nil
}

func (r *postgresTournamentRepository) HasPlayer(ctx context.Context, tournamentID, playerID int) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM tournament_players WHERE tournament_id = $1 AND player_id = $2)`
	if err := r.db.QueryRowContext(ctx, query, tournamentID, playerID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *postgresTournamentRepository) SetWinner(ctx context.Context, exec SQLExecutor, tournamentID int, winnerID *int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE tournaments SET winner_id = $1 WHERE id = $2`, winnerID, tournamentID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, tournamentID int, status models.TournamentStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE tournaments SET status = $1 WHERE id = $2`, status, tournamentID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
