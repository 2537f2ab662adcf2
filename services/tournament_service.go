package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matchpoint-dev/pingpong-tournaments/brackets"
	"github.com/matchpoint-dev/pingpong-tournaments/models"
	"github.com/matchpoint-dev/pingpong-tournaments/repositories"
	"github.com/matchpoint-dev/pingpong-tournaments/storage"
	"golang.org/x/sync/errgroup"
)

type TournamentInput struct {
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	StartDate         time.Time `json:"start_date"`
	EndOfRegistration time.Time `json:"end_of_registration"`
	Format            string    `json:"format"`
	Status            string    `json:"status"`
	MaxPlayers        int       `json:"max_players"`
	Location          string    `json:"location"`
	PrizePool         string    `json:"prize_pool"`
	IsPublished       bool      `json:"is_published"`
}

// TournamentOverview bundles the tournament with everything a standings page
// needs in one response.
type TournamentOverview struct {
	Tournament *models.Tournament `json:"tournament"`
	Players    []*models.Player   `json:"players"`
	Groups     []*models.Group    `json:"groups"`
	Knockout   []*models.Match    `json:"knockout"`
}

type TournamentService interface {
	Create(ctx context.Context, input TournamentInput) (*models.Tournament, error)
	Get(ctx context.Context, tournamentID int) (*models.Tournament, error)
	List(ctx context.Context, status string, publishedOnly bool) ([]*models.Tournament, error)
	Update(ctx context.Context, tournamentID int, input TournamentInput) (*models.Tournament, error)
	Delete(ctx context.Context, tournamentID int) error
	AddPlayer(ctx context.Context, tournamentID, playerID int) error
	RemovePlayer(ctx context.Context, tournamentID, playerID int) error
	GetOverview(ctx context.Context, tournamentID int) (*TournamentOverview, error)
	AttachImage(ctx context.Context, tournamentID int, contentType string, file io.Reader) (*models.Tournament, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	groupSvc       GroupService
	bracketSvc     BracketService
	uploader       storage.FileUploader
	hub            *brackets.Hub
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	groupSvc GroupService,
	bracketSvc BracketService,
	uploader storage.FileUploader,
	hub *brackets.Hub,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		groupSvc:       groupSvc,
		bracketSvc:     bracketSvc,
		uploader:       uploader,
		hub:            hub,
	}
}

func (s *tournamentService) Create(ctx context.Context, input TournamentInput) (*models.Tournament, error) {
	tournament, err := buildTournament(input)
	if err != nil {
		return nil, err
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) Get(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.WinnerID != nil {
		winner, err := s.playerRepo.GetByID(ctx, *tournament.WinnerID)
		if err != nil && !errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, err
		}
		tournament.Winner = winner
	}
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, status string, publishedOnly bool) ([]*models.Tournament, error) {
	var filter *models.TournamentStatus
	if status != "" {
		st := models.TournamentStatus(status)
		switch st {
		case models.TournamentUpcoming, models.TournamentOngoing, models.TournamentCompleted, models.TournamentCanceled:
			filter = &st
		default:
			return nil, ErrValidationFailed
		}
	}
	return s.tournamentRepo.List(ctx, filter, publishedOnly)
}

func (s *tournamentService) Update(ctx context.Context, tournamentID int, input TournamentInput) (*models.Tournament, error) {
	existing, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	patch, err := buildTournament(input)
	if err != nil {
		return nil, err
	}
	patch.ID = existing.ID
	patch.MainImage = existing.MainImage
	patch.WinnerID = existing.WinnerID

	if err := s.tournamentRepo.Update(ctx, patch); err != nil {
		return nil, err
	}
	updated, err := s.Get(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	s.hub.BroadcastToRoom(strconv.Itoa(tournamentID), brackets.EventTournamentUpdated, updated)
	return updated, nil
}

func (s *tournamentService) Delete(ctx context.Context, tournamentID int) error {
	if err := s.tournamentRepo.Delete(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	return nil
}

// AddPlayer registers a player. Registration is refused once the capacity is
// reached and repeat registrations are rejected.
func (s *tournamentService) AddPlayer(ctx context.Context, tournamentID, playerID int) error {
	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if _, err := s.playerRepo.GetByID(ctx, playerID); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return err
	}

	if tournament.MaxPlayers > 0 {
		count, err := s.tournamentRepo.CountPlayers(ctx, tournamentID)
		if err != nil {
			return err
		}
		if count >= tournament.MaxPlayers {
			return ErrTournamentFull
		}
	}

	if err := s.tournamentRepo.AddPlayer(ctx, tournamentID, playerID); err != nil {
		if errors.Is(err, repositories.ErrTournamentPlayerConflict) {
			return ErrPlayerRegistered
		}
		return err
	}
	return nil
}

func (s *tournamentService) RemovePlayer(ctx context.Context, tournamentID, playerID int) error {
	if _, err := s.getTournament(ctx, tournamentID); err != nil {
		return err
	}
	if err := s.tournamentRepo.RemovePlayer(ctx, tournamentID, playerID); err != nil {
		if errors.Is(err, repositories.ErrTournamentPlayerNotRegistered) {
			return ErrPlayerNotRegistered
		}
		return err
	}
	return nil
}

// GetOverview fetches the tournament, its roster, group stage and knockout
// bracket concurrently.
func (s *tournamentService) GetOverview(ctx context.Context, tournamentID int) (*TournamentOverview, error) {
	tournament, err := s.Get(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	overview := &TournamentOverview{Tournament: tournament}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		players, err := s.playerRepo.ListByTournament(gctx, tournamentID)
		if err != nil {
			return err
		}
		overview.Players = players
		return nil
	})
	g.Go(func() error {
		groups, err := s.groupSvc.ListByTournament(gctx, tournamentID)
		if err != nil {
			return err
		}
		overview.Groups = groups
		return nil
	})
	g.Go(func() error {
		knockout, err := s.bracketSvc.ListBracket(gctx, tournamentID)
		if err != nil {
			return err
		}
		overview.Knockout = knockout
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overview, nil
}

// AttachImage uploads a cover image and stores its public URL on the
// tournament.
func (s *tournamentService) AttachImage(ctx context.Context, tournamentID int, contentType string, file io.Reader) (*models.Tournament, error) {
	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("tournaments/%d/%s", tournamentID, uuid.NewString())
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload tournament image: %w", err)
	}
	tournament.MainImage = result.Location
	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		return nil, err
	}
	return s.Get(ctx, tournamentID)
}

func (s *tournamentService) getTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

func buildTournament(input TournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrValidationFailed
	}
	if input.StartDate.IsZero() || input.EndOfRegistration.IsZero() {
		return nil, ErrValidationFailed
	}
	if input.EndOfRegistration.After(input.StartDate) {
		return nil, ErrInvalidDateRange
	}
	if input.MaxPlayers < 0 {
		return nil, ErrInvalidCapacity
	}

	format := models.TournamentFormat(input.Format)
	switch format {
	case models.FormatLeague, models.FormatKnockout, models.FormatMixed, models.FormatGroups:
	default:
		return nil, ErrInvalidFormat
	}

	status := models.TournamentStatus(input.Status)
	switch status {
	case "":
		status = models.TournamentUpcoming
	case models.TournamentUpcoming, models.TournamentOngoing, models.TournamentCompleted, models.TournamentCanceled:
	default:
		return nil, ErrValidationFailed
	}

	return &models.Tournament{
		Name:              name,
		Description:       strings.TrimSpace(input.Description),
		StartDate:         input.StartDate,
		EndOfRegistration: input.EndOfRegistration,
		Format:            format,
		Status:            status,
		MaxPlayers:        input.MaxPlayers,
		Location:          strings.TrimSpace(input.Location),
		PrizePool:         strings.TrimSpace(input.PrizePool),
		IsPublished:       input.IsPublished,
	}, nil
}
