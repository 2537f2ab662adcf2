package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/matchpoint-dev/pingpong-tournaments/brackets"
	"github.com/matchpoint-dev/pingpong-tournaments/models"
	"github.com/matchpoint-dev/pingpong-tournaments/repositories"
	"github.com/matchpoint-dev/pingpong-tournaments/storage"
)

type CreateMatchInput struct {
	TournamentID int    `json:"tournament_id"`
	Player1ID    int    `json:"player1_id"`
	Player2ID    int    `json:"player2_id"`
	TextNotes    string `json:"text_notes"`
	Image        string `json:"image"`
}

type MatchService interface {
	SubmitScore(ctx context.Context, matchID, score1, score2 int) (*models.Match, error)
	ToggleCancellation(ctx context.Context, matchID int, canceled bool) (*models.Match, string, error)
	CastVote(ctx context.Context, matchID int, sessionID string, votedFor models.VoteSide) (*models.Match, error)
	ResetVotes(ctx context.Context, matchID int) (*models.Match, error)
	CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	GetMatch(ctx context.Context, matchID int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
	AttachImage(ctx context.Context, matchID int, contentType string, file io.Reader) (*models.Match, error)
}

type matchService struct {
	tx         repositories.Transactor
	matchRepo  repositories.MatchRepository
	voteRepo   repositories.VoteRepository
	playerRepo repositories.PlayerRepository
	standings  StandingsService
	uploader   storage.FileUploader
	hub        *brackets.Hub
}

func NewMatchService(
	tx repositories.Transactor,
	matchRepo repositories.MatchRepository,
	voteRepo repositories.VoteRepository,
	playerRepo repositories.PlayerRepository,
	standings StandingsService,
	uploader storage.FileUploader,
	hub *brackets.Hub,
) MatchService {
	return &matchService{
		tx:         tx,
		matchRepo:  matchRepo,
		voteRepo:   voteRepo,
		playerRepo: playerRepo,
		standings:  standings,
		uploader:   uploader,
		hub:        hub,
	}
}

// SubmitScore records both scores and derives the outcome: the higher score
// wins and completes the match; equal scores clear the winner and leave the
// match in_progress. For group matches the group standings are recomputed
// synchronously before returning.
func (s *matchService) SubmitScore(ctx context.Context, matchID, score1, score2 int) (*models.Match, error) {
	if score1 < 0 || score2 < 0 {
		return nil, ErrNegativeScore
	}

	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	var winnerID *int
	status := models.MatchCompleted
	switch {
	case score1 > score2:
		winnerID = match.Player1ID
	case score2 > score1:
		winnerID = match.Player2ID
	default:
		status = models.MatchInProgress
	}

	if err := s.matchRepo.UpdateScore(ctx, matchID, score1, score2, winnerID, status); err != nil {
		return nil, err
	}

	if match.GroupID != nil {
		rows, err := s.standings.Recalculate(ctx, *match.GroupID)
		if err != nil {
			return nil, err
		}
		s.hub.BroadcastToRoom(strconv.Itoa(match.TournamentID), brackets.EventStandingsUpdated, map[string]interface{}{
			"group_id":  *match.GroupID,
			"standings": rows,
		})
	}

	updated, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	s.hub.BroadcastToRoom(strconv.Itoa(match.TournamentID), brackets.EventMatchUpdated, updated)
	return updated, nil
}

// ToggleCancellation cancels or restores a match. Cancelling zeroes the scores
// and clears the winner; restoring does not recompute anything. If a cancelled
// knockout match's players already appear in the following round, a warning is
// returned for the operator to resolve manually.
func (s *matchService) ToggleCancellation(ctx context.Context, matchID int, canceled bool) (*models.Match, string, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, "", err
	}

	if err := s.matchRepo.UpdateCancellation(ctx, matchID, canceled); err != nil {
		return nil, "", err
	}

	warning := ""
	if canceled && match.Round != nil {
		playerIDs := make([]int, 0, 2)
		if match.Player1ID != nil {
			playerIDs = append(playerIDs, *match.Player1ID)
		}
		if match.Player2ID != nil {
			playerIDs = append(playerIDs, *match.Player2ID)
		}
		if len(playerIDs) > 0 {
			nextRound, err := s.matchRepo.ListActiveForPlayersInRound(ctx, nil, match.TournamentID, *match.Round+1, playerIDs)
			if err != nil {
				return nil, "", err
			}
			if len(nextRound) > 0 {
				warning = "warning: one of the players is already in a match in the next round"
			}
		}
	}

	updated, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, "", err
	}
	s.hub.BroadcastToRoom(strconv.Itoa(match.TournamentID), brackets.EventMatchCanceled, updated)
	return updated, warning, nil
}

// CastVote records one prediction per anonymous session while the match is
// still scheduled. A repeat vote from the same session overwrites the earlier
// choice and moves the tally instead of adding a second vote.
func (s *matchService) CastVote(ctx context.Context, matchID int, sessionID string, votedFor models.VoteSide) (*models.Match, error) {
	if sessionID == "" {
		return nil, ErrValidationFailed
	}
	if votedFor != models.VotePlayer1 && votedFor != models.VotePlayer2 {
		return nil, ErrInvalidVoteSide
	}

	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchScheduled {
		return nil, ErrVotingClosed
	}

	err = s.tx.InTx(ctx, func(exec repositories.SQLExecutor) error {
		existing, err := s.voteRepo.GetBySession(ctx, exec, matchID, sessionID)
		switch {
		case err == nil:
			if err := s.voteRepo.UpdateChoice(ctx, exec, matchID, sessionID, votedFor); err != nil {
				return err
			}
			d1, d2 := voteDelta(existing.VotedFor, -1)
			i1, i2 := voteDelta(votedFor, 1)
			return s.voteRepo.AdjustTallies(ctx, exec, matchID, d1+i1, d2+i2)
		case errors.Is(err, repositories.ErrVoteNotFound):
			vote := &models.MatchVote{MatchID: matchID, SessionID: sessionID, VotedFor: votedFor}
			if err := s.voteRepo.Insert(ctx, exec, vote); err != nil {
				return err
			}
			d1, d2 := voteDelta(votedFor, 1)
			return s.voteRepo.AdjustTallies(ctx, exec, matchID, d1, d2)
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	return s.GetMatch(ctx, matchID)
}

// ResetVotes clears all vote records and zeroes both tallies unconditionally.
func (s *matchService) ResetVotes(ctx context.Context, matchID int) (*models.Match, error) {
	if _, err := s.getMatch(ctx, matchID); err != nil {
		return nil, err
	}
	err := s.tx.InTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.voteRepo.Reset(ctx, exec, matchID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetMatch(ctx, matchID)
}

// CreateMatch records a friendly match outside both the group stage and the
// bracket.
func (s *matchService) CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	if input.TournamentID == 0 || input.Player1ID == 0 || input.Player2ID == 0 {
		return nil, ErrValidationFailed
	}
	if input.Player1ID == input.Player2ID {
		return nil, ErrSamePlayer
	}

	match := &models.Match{
		TournamentID: input.TournamentID,
		Player1ID:    &input.Player1ID,
		Player2ID:    &input.Player2ID,
		Status:       models.MatchScheduled,
		TextNotes:    input.TextNotes,
		Image:        input.Image,
	}
	if err := s.matchRepo.Create(ctx, nil, match); err != nil {
		if errors.Is(err, repositories.ErrMatchTournamentInvalid) {
			return nil, ErrTournamentNotFound
		}
		if errors.Is(err, repositories.ErrMatchPlayerInvalid) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	if err := attachPlayers(ctx, s.playerRepo, []*models.Match{match}); err != nil {
		return nil, err
	}
	return match, nil
}

func (s *matchService) GetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := attachPlayers(ctx, s.playerRepo, []*models.Match{match}); err != nil {
		return nil, err
	}
	votes, err := s.voteRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	match.Votes = votes
	return match, nil
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := attachPlayers(ctx, s.playerRepo, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// AttachImage uploads a match photo to the object store and saves its public
// URL on the match.
func (s *matchService) AttachImage(ctx context.Context, matchID int, contentType string, file io.Reader) (*models.Match, error) {
	if _, err := s.getMatch(ctx, matchID); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("matches/%d/%s", matchID, uuid.NewString())
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload match image: %w", err)
	}
	if err := s.matchRepo.UpdateImage(ctx, matchID, result.Location); err != nil {
		return nil, err
	}
	return s.GetMatch(ctx, matchID)
}

func (s *matchService) getMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func voteDelta(side models.VoteSide, amount int) (int, int) {
	if side == models.VotePlayer1 {
		return amount, 0
	}
	return 0, amount
}
