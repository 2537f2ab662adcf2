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

type GroupService interface {
	CreateGroups(ctx context.Context, tournamentID, playersPerGroup int) ([]*models.Group, error)
	GenerateMatches(ctx context.Context, groupID int) (*models.Group, error)
	GetGroup(ctx context.Context, groupID int) (*models.Group, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Group, error)
	DeleteGroups(ctx context.Context, tournamentID int) (int, error)
}

type groupService struct {
	tx             repositories.Transactor
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	groupRepo      repositories.GroupRepository
	matchRepo      repositories.MatchRepository
	standings      StandingsService
	hub            *brackets.Hub
}

func NewGroupService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	groupRepo repositories.GroupRepository,
	matchRepo repositories.MatchRepository,
	standings StandingsService,
	hub *brackets.Hub,
) GroupService {
	return &groupService{
		tx:             tx,
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		groupRepo:      groupRepo,
		matchRepo:      matchRepo,
		standings:      standings,
		hub:            hub,
	}
}

// CreateGroups partitions the tournament's player pool into near-equal groups
// labelled A, B, C, ... The whole partition is written in one transaction so a
// concurrent duplicate invocation cannot produce a second group set.
func (s *groupService) CreateGroups(ctx context.Context, tournamentID, playersPerGroup int) ([]*models.Group, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	players, err := s.playerRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players for tournament %d: %w", tournamentID, err)
	}
	if len(players) == 0 {
		return nil, ErrNoPlayers
	}

	if playersPerGroup <= 0 {
		playersPerGroup = brackets.DefaultPlayersPerGroup
	}
	sizes := brackets.GroupSizes(len(players), playersPerGroup)

	shuffled := make([]*models.Player, len(players))
	copy(shuffled, players)
	brackets.ShufflePlayers(shuffled)

	groups := make([]*models.Group, 0, len(sizes))
	err = s.tx.InTx(ctx, func(exec repositories.SQLExecutor) error {
		existing, err := s.groupRepo.CountByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if existing > 0 {
			return ErrGroupsAlreadyExist
		}

		next := 0
		for i, size := range sizes {
			group := &models.Group{
				TournamentID:             tournament.ID,
				Name:                     brackets.GroupName(i),
				NumberOfAdvancingPlayers: 2,
				Status:                   models.GroupNotStarted,
			}
			for _, player := range shuffled[next : next+size] {
				group.Players = append(group.Players, models.GroupPlayer{
					PlayerID: player.ID,
					Player:   player,
				})
			}
			next += size
			if err := s.groupRepo.Create(ctx, exec, group); err != nil {
				return err
			}
			groups = append(groups, group)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToRoom(strconv.Itoa(tournamentID), brackets.EventGroupsCreated, groups)
	return groups, nil
}

// GenerateMatches seeds a full round-robin for the group: every unordered
// roster pair exactly once, and flips the group to in_progress.
func (s *groupService) GenerateMatches(ctx context.Context, groupID int) (*models.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}

	err = s.tx.InTx(ctx, func(exec repositories.SQLExecutor) error {
		existing, err := s.matchRepo.CountByGroup(ctx, exec, groupID)
		if err != nil {
			return err
		}
		if existing > 0 {
			return ErrGroupMatchesExist
		}

		roster, err := s.groupRepo.ListRoster(ctx, exec, groupID)
		if err != nil {
			return err
		}
		if len(roster) < 2 {
			return ErrGroupTooSmall
		}

		for _, pair := range brackets.RoundRobinPairs(len(roster)) {
			p1 := roster[pair[0]].PlayerID
			p2 := roster[pair[1]].PlayerID
			match := &models.Match{
				TournamentID: group.TournamentID,
				GroupID:      &group.ID,
				Player1ID:    &p1,
				Player2ID:    &p2,
				Status:       models.MatchScheduled,
			}
			if err := s.matchRepo.Create(ctx, exec, match); err != nil {
				return err
			}
		}
		return s.groupRepo.UpdateStatus(ctx, exec, groupID, models.GroupInProgress)
	})
	if err != nil {
		return nil, err
	}

	return s.GetGroup(ctx, groupID)
}

// GetGroup loads a group with its roster, persisted standings and matches,
// players resolved.
func (s *groupService) GetGroup(ctx context.Context, groupID int) (*models.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	if err := s.populate(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *groupService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Group, error) {
	groups, err := s.groupRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	for _, group := range groups {
		if err := s.populate(ctx, group); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// DeleteGroups removes every group of the tournament together with its
// matches. One-shot and irreversible.
func (s *groupService) DeleteGroups(ctx context.Context, tournamentID int) (int, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return 0, ErrTournamentNotFound
		}
		return 0, err
	}

	var deleted int
	err := s.tx.InTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		deleted, err = s.groupRepo.DeleteByTournament(ctx, exec, tournamentID)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.hub.BroadcastToRoom(strconv.Itoa(tournamentID), brackets.EventGroupsDeleted, map[string]int{"deleted": deleted})
	return deleted, nil
}

func (s *groupService) populate(ctx context.Context, group *models.Group) error {
	roster, err := s.groupRepo.ListRoster(ctx, nil, group.ID)
	if err != nil {
		return err
	}
	group.Players = roster

	standings, err := s.standings.Standings(ctx, group.ID)
	if err != nil {
		return err
	}
	group.Standings = standings

	matches, err := s.matchRepo.ListByGroup(ctx, nil, group.ID)
	if err != nil {
		return err
	}
	if err := attachPlayers(ctx, s.playerRepo, matches); err != nil {
		return err
	}
	group.Matches = derefMatches(matches)
	return nil
}
