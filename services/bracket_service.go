package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/matchpoint-dev/pingpong-tournaments/brackets"
	"github.com/matchpoint-dev/pingpong-tournaments/models"
	"github.com/matchpoint-dev/pingpong-tournaments/repositories"
)

// BracketRound is the outcome of creating or advancing a knockout round.
// Warning carries non-fatal conditions (an unpaired player, an orphaned
// winner) that accompany a successful result.
type BracketRound struct {
	Round        int              `json:"round"`
	RoundName    string           `json:"round_name"`
	TotalRounds  int              `json:"total_rounds"`
	PlayersCount int              `json:"players_count"`
	Matches      []*models.Match  `json:"matches"`
	Warning      string           `json:"warning,omitempty"`
}

type CustomMatchInput struct {
	TournamentID int    `json:"tournament_id"`
	Player1ID    int    `json:"player1_id"`
	Player2ID    int    `json:"player2_id"`
	Round        int    `json:"round"`
	RoundName    string `json:"round_name"`
}

type BracketService interface {
	CreateBracket(ctx context.Context, tournamentID int) (*BracketRound, error)
	AdvanceRound(ctx context.Context, tournamentID int) (*BracketRound, error)
	CreateCustomMatch(ctx context.Context, input CustomMatchInput) (*models.Match, error)
	ListBracket(ctx context.Context, tournamentID int) ([]*models.Match, error)
	DeleteBracket(ctx context.Context, tournamentID int) (int, error)
}

type bracketService struct {
	tx             repositories.Transactor
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	matchRepo      repositories.MatchRepository
	hub            *brackets.Hub
}

func NewBracketService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	matchRepo repositories.MatchRepository,
	hub *brackets.Hub,
) BracketService {
	return &bracketService{
		tx:             tx,
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		matchRepo:      matchRepo,
		hub:            hub,
	}
}

// CreateBracket shuffles the registered players and materializes round 1 of a
// single-elimination bracket: floor(n/2) matches, consecutive pairing. With an
// odd player count the last shuffled player is not placed in round 1; the
// result carries a warning naming them so the operator can insert a custom
// match if a bye is wanted.
func (s *bracketService) CreateBracket(ctx context.Context, tournamentID int) (*BracketRound, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	players, err := s.playerRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players for tournament %d: %w", tournamentID, err)
	}
	if len(players) < 2 {
		return nil, ErrNotEnoughPlayers
	}

	shuffled := make([]int, len(players))
	for i, p := range players {
		shuffled[i] = p.ID
	}
	brackets.ShufflePlayers(shuffled)

	totalRounds := brackets.TotalRounds(len(players))
	roundName := brackets.RoundName(totalRounds, 1)
	pairs, unpaired := brackets.PairConsecutive(shuffled)

	result := &BracketRound{
		Round:        1,
		RoundName:    roundName,
		TotalRounds:  totalRounds,
		PlayersCount: len(players),
	}
	err = s.tx.InTx(ctx, func(exec repositories.SQLExecutor) error {
		existing, err := s.matchRepo.MaxRound(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrBracketExists
		}
		matches, err := s.createRoundMatches(ctx, exec, tournamentID, 1, roundName, pairs)
		if err != nil {
			return err
		}
		result.Matches = matches
		return nil
	})
	if err != nil {
		return nil, err
	}

	if unpaired != nil {
		result.Warning = fmt.Sprintf("odd player count: player %d is not placed in round 1", *unpaired)
	}

	if err := attachPlayers(ctx, s.playerRepo, result.Matches); err != nil {
		return nil, err
	}
	s.hub.BroadcastToRoom(strconv.Itoa(tournamentID), brackets.EventRoundCreated, result)
	return result, nil
}

// AdvanceRound pairs the winners of the highest existing round into the next
// one. Every match of the current round must be completed with a winner or
// cancelled; cancelled matches contribute no winner. Round names stay stable
// because totalRounds is recomputed from the tournament's registered player
// count, not from the surviving winner count.
func (s *bracketService) AdvanceRound(ctx context.Context, tournamentID int) (*BracketRound, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	totalPlayers, err := s.tournamentRepo.CountPlayers(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	totalRounds := brackets.TotalRounds(totalPlayers)

	result := &BracketRound{
		TotalRounds:  totalRounds,
		PlayersCount: totalPlayers,
	}
	err = s.tx.InTx(ctx, func(exec repositories.SQLExecutor) error {
		currentRound, err := s.matchRepo.MaxRound(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if currentRound == nil {
			return ErrNoBracket
		}

		currentMatches, err := s.matchRepo.ListByRound(ctx, exec, tournamentID, *currentRound)
		if err != nil {
			return err
		}
		if len(currentMatches) == 1 {
			return ErrAlreadyFinal
		}

		// Winners in bracket-position order; cancelled matches are skipped.
		winners := make([]int, 0, len(currentMatches))
		for _, m := range currentMatches {
			switch {
			case m.Status == models.MatchCanceled:
				continue
			case m.Status == models.MatchCompleted && m.WinnerID != nil:
				winners = append(winners, *m.WinnerID)
			default:
				return ErrRoundIncomplete
			}
		}
		if len(winners) < 2 {
			return ErrNotEnoughWinners
		}

		nextRound := *currentRound + 1
		roundName := brackets.RoundName(totalRounds, nextRound)
		pairs, unpaired := brackets.PairConsecutive(winners)

		matches, err := s.createRoundMatches(ctx, exec, tournamentID, nextRound, roundName, pairs)
		if err != nil {
			return err
		}
		result.Round = nextRound
		result.RoundName = roundName
		result.Matches = matches
		if unpaired != nil {
			result.Warning = fmt.Sprintf("player %d has no opponent in %s (odd winner count after cancellations)", *unpaired, roundName)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := attachPlayers(ctx, s.playerRepo, result.Matches); err != nil {
		return nil, err
	}
	s.hub.BroadcastToRoom(strconv.Itoa(tournamentID), brackets.EventRoundCreated, result)
	return result, nil
}

// CreateCustomMatch is the operator override: append a match to an arbitrary
// round, provided neither player already holds a non-cancelled match there.
func (s *bracketService) CreateCustomMatch(ctx context.Context, input CustomMatchInput) (*models.Match, error) {
	if input.Player1ID == input.Player2ID {
		return nil, ErrSamePlayer
	}
	if input.Round < 1 || input.RoundName == "" {
		return nil, ErrValidationFailed
	}

	if _, err := s.tournamentRepo.GetByID(ctx, input.TournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	for _, playerID := range []int{input.Player1ID, input.Player2ID} {
		registered, err := s.tournamentRepo.HasPlayer(ctx, input.TournamentID, playerID)
		if err != nil {
			return nil, err
		}
		if !registered {
			return nil, ErrPlayerNotInTournament
		}
	}

	var match *models.Match
	err := s.tx.InTx(ctx, func(exec repositories.SQLExecutor) error {
		busy, err := s.matchRepo.ListActiveForPlayersInRound(ctx, exec, input.TournamentID, input.Round,
			[]int{input.Player1ID, input.Player2ID})
		if err != nil {
			return err
		}
		if len(busy) > 0 {
			return ErrPlayerBusyInRound
		}

		position := 0
		maxPosition, err := s.matchRepo.MaxBracketPosition(ctx, exec, input.TournamentID, input.Round)
		if err != nil {
			return err
		}
		if maxPosition != nil {
			position = *maxPosition + 1
		}

		match = &models.Match{
			TournamentID:    input.TournamentID,
			Player1ID:       &input.Player1ID,
			Player2ID:       &input.Player2ID,
			Status:          models.MatchScheduled,
			Round:           &input.Round,
			RoundName:       &input.RoundName,
			BracketPosition: &position,
		}
		return s.matchRepo.Create(ctx, exec, match)
	})
	if err != nil {
		return nil, err
	}

	if err := attachPlayers(ctx, s.playerRepo, []*models.Match{match}); err != nil {
		return nil, err
	}
	return match, nil
}

func (s *bracketService) ListBracket(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListKnockout(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := attachPlayers(ctx, s.playerRepo, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func (s *bracketService) DeleteBracket(ctx context.Context, tournamentID int) (int, error) {
	deleted, err := s.matchRepo.DeleteKnockoutByTournament(ctx, nil, tournamentID)
	if err != nil {
		return 0, err
	}
	s.hub.BroadcastToRoom(strconv.Itoa(tournamentID), brackets.EventBracketDeleted, map[string]int{"deleted": deleted})
	return deleted, nil
}

func (s *bracketService) createRoundMatches(ctx context.Context, exec repositories.SQLExecutor, tournamentID, round int, roundName string, pairs []brackets.Pair) ([]*models.Match, error) {
	matches := make([]*models.Match, 0, len(pairs))
	for _, pair := range pairs {
		p1, p2, position := pair.Player1ID, pair.Player2ID, pair.Position
		match := &models.Match{
			TournamentID:    tournamentID,
			Player1ID:       &p1,
			Player2ID:       &p2,
			Status:          models.MatchScheduled,
			Round:           &round,
			RoundName:       &roundName,
			BracketPosition: &position,
		}
		if err := s.matchRepo.Create(ctx, exec, match); err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, nil
}
