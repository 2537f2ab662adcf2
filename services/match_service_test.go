package services_test

import (
	"context"
	"testing"

	"github.com/matchpoint-dev/pingpong-tournaments/models"
	"github.com/matchpoint-dev/pingpong-tournaments/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type matchServiceFixture struct {
	playerRepo *fakePlayerRepo
	groupRepo  *fakeGroupRepo
	matchRepo  *fakeMatchRepo
	voteRepo   *fakeVoteRepo
	uploader   *fakeUploader
	service    services.MatchService
}

func newMatchServiceFixture() *matchServiceFixture {
	playerRepo := newFakePlayerRepo()
	groupRepo := newFakeGroupRepo()
	matchRepo := newFakeMatchRepo()
	voteRepo := newFakeVoteRepo(matchRepo)
	uploader := &fakeUploader{}
	standings := services.NewStandingsService(groupRepo, matchRepo)
	service := services.NewMatchService(passthroughTx{}, matchRepo, voteRepo, playerRepo, standings, uploader, testHub())
	return &matchServiceFixture{
		playerRepo: playerRepo,
		groupRepo:  groupRepo,
		matchRepo:  matchRepo,
		voteRepo:   voteRepo,
		uploader:   uploader,
		service:    service,
	}
}

func TestSubmitScoreDerivesWinner(t *testing.T) {
	fix := newMatchServiceFixture()
	p1 := fix.playerRepo.add("Anna", "anna@example.com")
	p2 := fix.playerRepo.add("Boris", "boris@example.com")
	fix.groupRepo.addGroup(1, "Group A", p1.ID, p2.ID)
	match := fix.matchRepo.addGroupMatch(1, 1, p1.ID, p2.ID)

	updated, err := fix.service.SubmitScore(context.Background(), match.ID, 11, 7)
	require.NoError(t, err)

	assert.Equal(t, models.MatchCompleted, updated.Status)
	require.NotNil(t, updated.WinnerID)
	assert.Equal(t, p1.ID, *updated.WinnerID)
	assert.Equal(t, 11, updated.Player1Score)
	assert.Equal(t, 7, updated.Player2Score)
}

func TestSubmitScoreSecondPlayerWins(t *testing.T) {
	fix := newMatchServiceFixture()
	p1 := fix.playerRepo.add("Anna", "anna@example.com")
	p2 := fix.playerRepo.add("Boris", "boris@example.com")
	fix.groupRepo.addGroup(1, "Group A", p1.ID, p2.ID)
	match := fix.matchRepo.addGroupMatch(1, 1, p1.ID, p2.ID)

	updated, err := fix.service.SubmitScore(context.Background(), match.ID, 3, 11)
	require.NoError(t, err)

	require.NotNil(t, updated.WinnerID)
	assert.Equal(t, p2.ID, *updated.WinnerID)
}

func TestSubmitScoreTieLeavesMatchInProgress(t *testing.T) {
	fix := newMatchServiceFixture()
	p1 := fix.playerRepo.add("Anna", "anna@example.com")
	p2 := fix.playerRepo.add("Boris", "boris@example.com")
	fix.groupRepo.addGroup(1, "Group A", p1.ID, p2.ID)
	match := fix.matchRepo.addGroupMatch(1, 1, p1.ID, p2.ID)

	// Record a decisive result first, then overwrite it with a tie.
	_, err := fix.service.SubmitScore(context.Background(), match.ID, 11, 7)
	require.NoError(t, err)

	updated, err := fix.service.SubmitScore(context.Background(), match.ID, 9, 9)
	require.NoError(t, err)

	assert.Equal(t, models.MatchInProgress, updated.Status)
	assert.Nil(t, updated.WinnerID)
}

func TestSubmitScoreRejectsNegativeScores(t *testing.T) {
	fix := newMatchServiceFixture()

	_, err := fix.service.SubmitScore(context.Background(), 1, -1, 5)
	assert.ErrorIs(t, err, services.ErrNegativeScore)

	_, err = fix.service.SubmitScore(context.Background(), 1, 5, -1)
	assert.ErrorIs(t, err, services.ErrNegativeScore)
}

func TestSubmitScoreUnknownMatch(t *testing.T) {
	fix := newMatchServiceFixture()

	_, err := fix.service.SubmitScore(context.Background(), 42, 11, 7)
	assert.ErrorIs(t, err, services.ErrMatchNotFound)
}

func TestSubmitScoreRecomputesGroupStandings(t *testing.T) {
	fix := newMatchServiceFixture()
	p1 := fix.playerRepo.add("Anna", "anna@example.com")
	p2 := fix.playerRepo.add("Boris", "boris@example.com")
	p3 := fix.playerRepo.add("Clara", "clara@example.com")
	group := fix.groupRepo.addGroup(1, "Group A", p1.ID, p2.ID, p3.ID)
	match := fix.matchRepo.addGroupMatch(1, group.ID, p1.ID, p2.ID)

	_, err := fix.service.SubmitScore(context.Background(), match.ID, 11, 4)
	require.NoError(t, err)

	rows := fix.groupRepo.standings[group.ID]
	require.Len(t, rows, 3)
	assert.Equal(t, p1.ID, rows[0].PlayerID)
	assert.Equal(t, 1, rows[0].Points)
	assert.Equal(t, 7, rows[0].PointDifference)
	require.NotNil(t, rows[0].Rank)
	assert.Equal(t, 1, *rows[0].Rank)
}

func TestSubmitScoreKnockoutMatchSkipsStandings(t *testing.T) {
	fix := newMatchServiceFixture()
	p1 := fix.playerRepo.add("Anna", "anna@example.com")
	p2 := fix.playerRepo.add("Boris", "boris@example.com")
	match := fix.matchRepo.addKnockoutMatch(1, 1, 0, p1.ID, p2.ID)

	_, err := fix.service.SubmitScore(context.Background(), match.ID, 11, 9)
	require.NoError(t, err)

	assert.Empty(t, fix.groupRepo.standings)
}

func TestToggleCancellationClearsResult(t *testing.T) {
	fix := newMatchServiceFixture()
	p1 := fix.playerRepo.add("Anna", "anna@example.com")
	p2 := fix.playerRepo.add("Boris", "boris@example.com")
	fix.groupRepo.addGroup(1, "Group A", p1.ID, p2.ID)
	match := fix.matchRepo.addGroupMatch(1, 1, p1.ID, p2.ID)

	_, err := fix.service.SubmitScore(context.Background(), match.ID, 11, 7)
	require.NoError(t, err)

	canceled, warning, err := fix.service.ToggleCancellation(context.Background(), match.ID, true)
	require.NoError(t, err)

	assert.Empty(t, warning)
	assert.Equal(t, models.MatchCanceled, canceled.Status)
	assert.Zero(t, canceled.Player1Score)
	assert.Zero(t, canceled.Player2Score)
	assert.Nil(t, canceled.WinnerID)
}

func TestToggleCancellationRestoreSchedules(t *testing.T) {
	fix := newMatchServiceFixture()
	p1 := fix.playerRepo.add("Anna", "anna@example.com")
	p2 := fix.playerRepo.add("Boris", "boris@example.com")
	fix.groupRepo.addGroup(1, "Group A", p1.ID, p2.ID)
	match := fix.matchRepo.addGroupMatch(1, 1, p1.ID, p2.ID)

	_, _, err := fix.service.ToggleCancellation(context.Background(), match.ID, true)
	require.NoError(t, err)

	restored, warning, err := fix.service.ToggleCancellation(context.Background(), match.ID, false)
	require.NoError(t, err)

	assert.Empty(t, warning)
	assert.Equal(t, models.MatchScheduled, restored.Status)
}

func TestToggleCancellationWarnsWhenPlayerAlreadyAdvanced(t *testing.T) {
	fix := newMatchServiceFixture()
	p1 := fix.playerRepo.add("Anna", "anna@example.com")
	p2 := fix.playerRepo.add("Boris", "boris@example.com")
	p3 := fix.playerRepo.add("Clara", "clara@example.com")
	match := fix.matchRepo.addKnockoutMatch(1, 1, 0, p1.ID, p2.ID)
	// p1 already has a match in round 2.
	fix.matchRepo.addKnockoutMatch(1, 2, 0, p1.ID, p3.ID)

	_, warning, err := fix.service.ToggleCancellation(context.Background(), match.ID, true)
	require.NoError(t, err)

	assert.NotEmpty(t, warning)
}

func TestCastVoteRejectsInvalidSide(t *testing.T) {
	fix := newMatchServiceFixture()
	p1 := fix.playerRepo.add("Anna", "anna@example.com")
	p2 := fix.playerRepo.add("Boris", "boris@example.com")
	match := fix.matchRepo.addGroupMatch(1, 1, p1.ID, p2.ID)

	_, err := fix.service.CastVote(context.Background(), match.ID, "session-1", "neither")
	assert.ErrorIs(t, err, services.ErrInvalidVoteSide)

	_, err = fix.service.CastVote(context.Background(), match.ID, "", models.VotePlayer1)
	assert.ErrorIs(t, err, services.ErrValidationFailed)
}

func TestCastVoteClosedOnceMatchStarts(t *testing.T) {
	fix := newMatchServiceFixture()
	p1 := fix.playerRepo.add("Anna", "anna@example.com")
	p2 := fix.playerRepo.add("Boris", "boris@example.com")
	fix.groupRepo.addGroup(1, "Group A", p1.ID, p2.ID)
	match := fix.matchRepo.addGroupMatch(1, 1, p1.ID, p2.ID)

	_, err := fix.service.SubmitScore(context.Background(), match.ID, 11, 7)
	require.NoError(t, err)

	_, err = fix.service.CastVote(context.Background(), match.ID, "session-1", models.VotePlayer1)
	assert.ErrorIs(t, err, services.ErrVotingClosed)
}

func TestCastVoteRecordsTally(t *testing.T) {
	fix := newMatchServiceFixture()
	p1 := fix.playerRepo.add("Anna", "anna@example.com")
	p2 := fix.playerRepo.add("Boris", "boris@example.com")
	match := fix.matchRepo.addGroupMatch(1, 1, p1.ID, p2.ID)

	voted, err := fix.service.CastVote(context.Background(), match.ID, "session-1", models.VotePlayer1)
	require.NoError(t, err)

	assert.Equal(t, 1, voted.Player1Votes)
	assert.Equal(t, 0, voted.Player2Votes)
	require.Len(t, voted.Votes, 1)
	assert.Equal(t, models.VotePlayer1, voted.Votes[0].VotedFor)
}

func TestCastVoteSameSideTwiceKeepsOneVote(t *testing.T) {
	fix := newMatchServiceFixture()
	p1 := fix.playerRepo.add("Anna", "anna@example.com")
	p2 := fix.playerRepo.add("Boris", "boris@example.com")
	match := fix.matchRepo.addGroupMatch(1, 1, p1.ID, p2.ID)

	_, err := fix.service.CastVote(context.Background(), match.ID, "session-1", models.VotePlayer2)
	require.NoError(t, err)
	voted, err := fix.service.CastVote(context.Background(), match.ID, "session-1", models.VotePlayer2)
	require.NoError(t, err)

	assert.Equal(t, 0, voted.Player1Votes)
	assert.Equal(t, 1, voted.Player2Votes)
	assert.Len(t, voted.Votes, 1)
}

func TestCastVoteSwitchingSidesMovesTally(t *testing.T) {
	fix := newMatchServiceFixture()
	p1 := fix.playerRepo.add("Anna", "anna@example.com")
	p2 := fix.playerRepo.add("Boris", "boris@example.com")
	match := fix.matchRepo.addGroupMatch(1, 1, p1.ID, p2.ID)

	_, err := fix.service.CastVote(context.Background(), match.ID, "session-1", models.VotePlayer1)
	require.NoError(t, err)
	voted, err := fix.service.CastVote(context.Background(), match.ID, "session-1", models.VotePlayer2)
	require.NoError(t, err)

	assert.Equal(t, 0, voted.Player1Votes)
	assert.Equal(t, 1, voted.Player2Votes)
	require.Len(t, voted.Votes, 1)
	assert.Equal(t, models.VotePlayer2, voted.Votes[0].VotedFor)
}

func TestCastVoteCountsSessionsIndependently(t *testing.T) {
	fix := newMatchServiceFixture()
	p1 := fix.playerRepo.add("Anna", "anna@example.com")
	p2 := fix.playerRepo.add("Boris", "boris@example.com")
	match := fix.matchRepo.addGroupMatch(1, 1, p1.ID, p2.ID)

	_, err := fix.service.CastVote(context.Background(), match.ID, "session-1", models.VotePlayer1)
	require.NoError(t, err)
	voted, err := fix.service.CastVote(context.Background(), match.ID, "session-2", models.VotePlayer1)
	require.NoError(t, err)

	assert.Equal(t, 2, voted.Player1Votes)
	assert.Len(t, voted.Votes, 2)
}

func TestCreateMatchValidation(t *testing.T) {
	fix := newMatchServiceFixture()

	_, err := fix.service.CreateMatch(context.Background(), services.CreateMatchInput{})
	assert.ErrorIs(t, err, services.ErrValidationFailed)

	_, err = fix.service.CreateMatch(context.Background(), services.CreateMatchInput{
		TournamentID: 1,
		Player1ID:    2,
		Player2ID:    2,
	})
	assert.ErrorIs(t, err, services.ErrSamePlayer)
}

func TestCreateMatchFriendly(t *testing.T) {
	fix := newMatchServiceFixture()
	p1 := fix.playerRepo.add("Anna", "anna@example.com")
	p2 := fix.playerRepo.add("Boris", "boris@example.com")

	match, err := fix.service.CreateMatch(context.Background(), services.CreateMatchInput{
		TournamentID: 1,
		Player1ID:    p1.ID,
		Player2ID:    p2.ID,
		TextNotes:    "friendly",
	})
	require.NoError(t, err)

	assert.Equal(t, models.MatchScheduled, match.Status)
	assert.Nil(t, match.GroupID)
	assert.Nil(t, match.Round)
	require.NotNil(t, match.Player1)
	assert.Equal(t, "Anna", match.Player1.Name)
}

func TestAttachImageUploadsAndStoresURL(t *testing.T) {
	fix := newMatchServiceFixture()
	p1 := fix.playerRepo.add("Anna", "anna@example.com")
	p2 := fix.playerRepo.add("Boris", "boris@example.com")
	match := fix.matchRepo.addGroupMatch(1, 1, p1.ID, p2.ID)

	updated, err := fix.service.AttachImage(context.Background(), match.ID, "image/png", nil)
	require.NoError(t, err)

	require.Len(t, fix.uploader.uploads, 1)
	assert.Contains(t, updated.Image, "https://cdn.example.com/matches/")
}
