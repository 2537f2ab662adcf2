package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/matchpoint-dev/pingpong-tournaments/models"
	"github.com/matchpoint-dev/pingpong-tournaments/repositories"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type PlayerInput struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
	Status      string `json:"status"`
}

// BulkCreateReport summarizes a batch import: which rows were created and
// which were rejected, with the reason per row.
type BulkCreateReport struct {
	Created []*models.Player  `json:"created"`
	Failed  []BulkCreateError `json:"failed"`
}

type BulkCreateError struct {
	Index  int    `json:"index"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

type PlayerService interface {
	Create(ctx context.Context, input PlayerInput) (*models.Player, error)
	Get(ctx context.Context, playerID int) (*models.Player, error)
	List(ctx context.Context, status string) ([]*models.Player, error)
	Update(ctx context.Context, playerID int, input PlayerInput) (*models.Player, error)
	Delete(ctx context.Context, playerID int) error
	BulkCreate(ctx context.Context, inputs []PlayerInput) (*BulkCreateReport, error)
}

type playerService struct {
	playerRepo repositories.PlayerRepository
}

func NewPlayerService(playerRepo repositories.PlayerRepository) PlayerService {
	return &playerService{playerRepo: playerRepo}
}

func (s *playerService) Create(ctx context.Context, input PlayerInput) (*models.Player, error) {
	player, err := buildPlayer(input)
	if err != nil {
		return nil, err
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, mapPlayerRepoError(err)
	}
	return player, nil
}

// Get returns the player together with the IDs of tournaments they are
// registered for.
func (s *playerService) Get(ctx context.Context, playerID int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, mapPlayerRepoError(err)
	}
	tournamentIDs, err := s.playerRepo.ListTournamentIDs(ctx, playerID)
	if err != nil {
		return nil, err
	}
	player.TournamentIDs = tournamentIDs
	return player, nil
}

func (s *playerService) List(ctx context.Context, status string) ([]*models.Player, error) {
	var filter *models.PlayerStatus
	if status != "" {
		st := models.PlayerStatus(status)
		switch st {
		case models.PlayerActive, models.PlayerInactive, models.PlayerBanned:
			filter = &st
		default:
			return nil, ErrValidationFailed
		}
	}
	return s.playerRepo.List(ctx, filter)
}

func (s *playerService) Update(ctx context.Context, playerID int, input PlayerInput) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, mapPlayerRepoError(err)
	}

	patch, err := buildPlayer(input)
	if err != nil {
		return nil, err
	}
	patch.ID = player.ID

	if err := s.playerRepo.Update(ctx, patch); err != nil {
		return nil, mapPlayerRepoError(err)
	}
	return s.Get(ctx, playerID)
}

func (s *playerService) Delete(ctx context.Context, playerID int) error {
	if err := s.playerRepo.Delete(ctx, playerID); err != nil {
		return mapPlayerRepoError(err)
	}
	return nil
}

// BulkCreate imports many players in one call. Rows are validated and created
// independently, so one bad row does not abort the batch.
func (s *playerService) BulkCreate(ctx context.Context, inputs []PlayerInput) (*BulkCreateReport, error) {
	if len(inputs) == 0 {
		return nil, ErrValidationFailed
	}

	report := &BulkCreateReport{
		Created: make([]*models.Player, 0, len(inputs)),
		Failed:  make([]BulkCreateError, 0),
	}
	for i, input := range inputs {
		player, err := buildPlayer(input)
		if err == nil {
			err = s.playerRepo.Create(ctx, player)
			if err != nil {
				err = mapPlayerRepoError(err)
			}
		}
		if err != nil {
			report.Failed = append(report.Failed, BulkCreateError{
				Index:  i,
				Email:  input.Email,
				Reason: err.Error(),
			})
			continue
		}
		report.Created = append(report.Created, player)
	}
	return report, nil
}

func buildPlayer(input PlayerInput) (*models.Player, error) {
	name := strings.TrimSpace(input.Name)
	phone := strings.TrimSpace(input.PhoneNumber)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if name == "" || phone == "" || email == "" {
		return nil, ErrValidationFailed
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	status := models.PlayerStatus(input.Status)
	switch status {
	case "":
		status = models.PlayerActive
	case models.PlayerActive, models.PlayerInactive, models.PlayerBanned:
	default:
		return nil, ErrValidationFailed
	}

	return &models.Player{
		Name:        name,
		PhoneNumber: phone,
		Email:       email,
		Status:      status,
	}, nil
}

func mapPlayerRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrPlayerEmailConflict):
		return ErrEmailTaken
	default:
		return err
	}
}
