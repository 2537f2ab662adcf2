package services_test

import (
	"context"
	"io"
	"log/slog"
	"sort"

	"github.com/matchpoint-dev/pingpong-tournaments/brackets"
	"github.com/matchpoint-dev/pingpong-tournaments/models"
	"github.com/matchpoint-dev/pingpong-tournaments/repositories"
	"github.com/matchpoint-dev/pingpong-tournaments/storage"
)

func testHub() *brackets.Hub {
	return brackets.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func intPtr(v int) *int { return &v }

// passthroughTx runs the transactional function directly; the fakes ignore
// the executor, so commit/rollback semantics are not exercised here.
type passthroughTx struct{}

func (passthroughTx) InTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakePlayerRepo struct {
	nextID  int
	players map[int]*models.Player
	// player -> tournaments, maintained by the tournament fake when shared
	tournaments map[int][]int
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{
		nextID:      1,
		players:     make(map[int]*models.Player),
		tournaments: make(map[int][]int),
	}
}

func (f *fakePlayerRepo) add(name, email string) *models.Player {
	p := &models.Player{Name: name, PhoneNumber: "555-0100", Email: email, Status: models.PlayerActive}
	_ = f.Create(context.Background(), p)
	return p
}

func (f *fakePlayerRepo) Create(_ context.Context, player *models.Player) error {
	for _, existing := range f.players {
		if existing.Email == player.Email {
			return repositories.ErrPlayerEmailConflict
		}
	}
	player.ID = f.nextID
	f.nextID++
	copied := *player
	f.players[player.ID] = &copied
	return nil
}

func (f *fakePlayerRepo) GetByID(_ context.Context, id int) (*models.Player, error) {
	player, ok := f.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	copied := *player
	return &copied, nil
}

func (f *fakePlayerRepo) List(_ context.Context, status *models.PlayerStatus) ([]*models.Player, error) {
	ids := make([]int, 0, len(f.players))
	for id := range f.players {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	result := make([]*models.Player, 0, len(ids))
	for _, id := range ids {
		player := f.players[id]
		if status != nil && player.Status != *status {
			continue
		}
		copied := *player
		result = append(result, &copied)
	}
	return result, nil
}

func (f *fakePlayerRepo) ListByIDs(_ context.Context, ids []int) ([]*models.Player, error) {
	result := make([]*models.Player, 0, len(ids))
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)
	for _, id := range sorted {
		if player, ok := f.players[id]; ok {
			copied := *player
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakePlayerRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Player, error) {
	result := make([]*models.Player, 0)
	ids := make([]int, 0, len(f.players))
	for id := range f.players {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		for _, tid := range f.tournaments[id] {
			if tid == tournamentID {
				copied := *f.players[id]
				result = append(result, &copied)
			}
		}
	}
	return result, nil
}

func (f *fakePlayerRepo) ListTournamentIDs(_ context.Context, playerID int) ([]int, error) {
	return append([]int(nil), f.tournaments[playerID]...), nil
}

func (f *fakePlayerRepo) Update(_ context.Context, player *models.Player) error {
	if _, ok := f.players[player.ID]; !ok {
		return repositories.ErrPlayerNotFound
	}
	for id, existing := range f.players {
		if id != player.ID && existing.Email == player.Email {
			return repositories.ErrPlayerEmailConflict
		}
	}
	copied := *player
	f.players[player.ID] = &copied
	return nil
}

func (f *fakePlayerRepo) Delete(_ context.Context, id int) error {
	if _, ok := f.players[id]; !ok {
		return repositories.ErrPlayerNotFound
	}
	delete(f.players, id)
	return nil
}

type fakeTournamentRepo struct {
	nextID      int
	tournaments map[int]*models.Tournament
	registered  map[int]map[int]bool
	playerRepo  *fakePlayerRepo
}

func newFakeTournamentRepo(playerRepo *fakePlayerRepo) *fakeTournamentRepo {
	return &fakeTournamentRepo{
		nextID:      1,
		tournaments: make(map[int]*models.Tournament),
		registered:  make(map[int]map[int]bool),
		playerRepo:  playerRepo,
	}
}

func (f *fakeTournamentRepo) add(name string, maxPlayers int) *models.Tournament {
	t := &models.Tournament{
		Name:       name,
		Format:     models.FormatGroups,
		Status:     models.TournamentUpcoming,
		MaxPlayers: maxPlayers,
	}
	_ = f.Create(context.Background(), t)
	return t
}

func (f *fakeTournamentRepo) Create(_ context.Context, tournament *models.Tournament) error {
	tournament.ID = f.nextID
	f.nextID++
	copied := *tournament
	f.tournaments[tournament.ID] = &copied
	f.registered[tournament.ID] = make(map[int]bool)
	return nil
}

func (f *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	tournament, ok := f.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *tournament
	return &copied, nil
}

func (f *fakeTournamentRepo) List(_ context.Context, status *models.TournamentStatus, publishedOnly bool) ([]*models.Tournament, error) {
	ids := make([]int, 0, len(f.tournaments))
	for id := range f.tournaments {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	result := make([]*models.Tournament, 0, len(ids))
	for _, id := range ids {
		tournament := f.tournaments[id]
		if status != nil && tournament.Status != *status {
			continue
		}
		if publishedOnly && !tournament.IsPublished {
			continue
		}
		copied := *tournament
		result = append(result, &copied)
	}
	return result, nil
}

func (f *fakeTournamentRepo) Update(_ context.Context, tournament *models.Tournament) error {
	if _, ok := f.tournaments[tournament.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	copied := *tournament
	f.tournaments[tournament.ID] = &copied
	return nil
}

func (f *fakeTournamentRepo) Delete(_ context.Context, id int) error {
	if _, ok := f.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(f.tournaments, id)
	delete(f.registered, id)
	return nil
}

func (f *fakeTournamentRepo) AddPlayer(_ context.Context, tournamentID, playerID int) error {
	if f.registered[tournamentID][playerID] {
		return repositories.ErrTournamentPlayerConflict
	}
	f.registered[tournamentID][playerID] = true
	if f.playerRepo != nil {
		f.playerRepo.tournaments[playerID] = append(f.playerRepo.tournaments[playerID], tournamentID)
	}
	return nil
}

func (f *fakeTournamentRepo) RemovePlayer(_ context.Context, tournamentID, playerID int) error {
	if !f.registered[tournamentID][playerID] {
		return repositories.ErrTournamentPlayerNotRegistered
	}
	delete(f.registered[tournamentID], playerID)
	return nil
}

func (f *fakeTournamentRepo) CountPlayers(_ context.Context, tournamentID int) (int, error) {
	return len(f.registered[tournamentID]), nil
}

func (f *fakeTournamentRepo) HasPlayer(_ context.Context, tournamentID, playerID int) (bool, error) {
	return f.registered[tournamentID][playerID], nil
}

func (f *fakeTournamentRepo) SetWinner(_ context.Context, _ repositories.SQLExecutor, tournamentID int, winnerID *int) error {
	tournament, ok := f.tournaments[tournamentID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	tournament.WinnerID = winnerID
	return nil
}

func (f *fakeTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, tournamentID int, status models.TournamentStatus) error {
	tournament, ok := f.tournaments[tournamentID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	tournament.Status = status
	return nil
}

type fakeGroupRepo struct {
	nextID    int
	groups    map[int]*models.Group
	rosters   map[int][]models.GroupPlayer
	standings map[int][]models.GroupPlayer
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{
		nextID:    1,
		groups:    make(map[int]*models.Group),
		rosters:   make(map[int][]models.GroupPlayer),
		standings: make(map[int][]models.GroupPlayer),
	}
}

func (f *fakeGroupRepo) addGroup(tournamentID int, name string, playerIDs ...int) *models.Group {
	group := &models.Group{TournamentID: tournamentID, Name: name, Status: models.GroupNotStarted}
	group.ID = f.nextID
	f.nextID++
	roster := make([]models.GroupPlayer, len(playerIDs))
	for i, id := range playerIDs {
		roster[i] = models.GroupPlayer{GroupID: group.ID, PlayerID: id, Seat: i}
	}
	f.groups[group.ID] = group
	f.rosters[group.ID] = roster
	return group
}

func (f *fakeGroupRepo) Create(_ context.Context, _ repositories.SQLExecutor, group *models.Group) error {
	group.ID = f.nextID
	f.nextID++
	copied := *group
	f.groups[group.ID] = &copied
	f.rosters[group.ID] = append([]models.GroupPlayer(nil), group.Players...)
	return nil
}

func (f *fakeGroupRepo) GetByID(_ context.Context, id int) (*models.Group, error) {
	group, ok := f.groups[id]
	if !ok {
		return nil, repositories.ErrGroupNotFound
	}
	copied := *group
	return &copied, nil
}

func (f *fakeGroupRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Group, error) {
	result := make([]*models.Group, 0)
	ids := make([]int, 0, len(f.groups))
	for id := range f.groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if f.groups[id].TournamentID == tournamentID {
			copied := *f.groups[id]
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeGroupRepo) CountByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (int, error) {
	count := 0
	for _, group := range f.groups {
		if group.TournamentID == tournamentID {
			count++
		}
	}
	return count, nil
}

func (f *fakeGroupRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, groupID int, status models.GroupStatus) error {
	group, ok := f.groups[groupID]
	if !ok {
		return repositories.ErrGroupNotFound
	}
	group.Status = status
	return nil
}

func (f *fakeGroupRepo) UpdateStandings(_ context.Context, _ repositories.SQLExecutor, groupID int, rows []models.GroupPlayer) error {
	f.standings[groupID] = append([]models.GroupPlayer(nil), rows...)
	return nil
}

func (f *fakeGroupRepo) ListRoster(_ context.Context, _ repositories.SQLExecutor, groupID int) ([]models.GroupPlayer, error) {
	return append([]models.GroupPlayer(nil), f.rosters[groupID]...), nil
}

func (f *fakeGroupRepo) DeleteByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (int, error) {
	deleted := 0
	for id, group := range f.groups {
		if group.TournamentID == tournamentID {
			delete(f.groups, id)
			delete(f.rosters, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeMatchRepo struct {
	nextID  int
	matches map[int]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{nextID: 1, matches: make(map[int]*models.Match)}
}

func (f *fakeMatchRepo) addGroupMatch(tournamentID, groupID, p1, p2 int) *models.Match {
	match := &models.Match{
		TournamentID: tournamentID,
		GroupID:      intPtr(groupID),
		Player1ID:    intPtr(p1),
		Player2ID:    intPtr(p2),
		Status:       models.MatchScheduled,
	}
	_ = f.Create(context.Background(), nil, match)
	return match
}

func (f *fakeMatchRepo) addKnockoutMatch(tournamentID, round, position, p1, p2 int) *models.Match {
	roundName := "Round " + string(rune('0'+round))
	match := &models.Match{
		TournamentID:    tournamentID,
		Player1ID:       intPtr(p1),
		Player2ID:       intPtr(p2),
		Status:          models.MatchScheduled,
		Round:           intPtr(round),
		RoundName:       &roundName,
		BracketPosition: intPtr(position),
	}
	_ = f.Create(context.Background(), nil, match)
	return match
}

func (f *fakeMatchRepo) complete(id, winnerID int) {
	match := f.matches[id]
	match.Status = models.MatchCompleted
	match.WinnerID = intPtr(winnerID)
}

func (f *fakeMatchRepo) cancel(id int) {
	match := f.matches[id]
	match.Status = models.MatchCanceled
	match.Player1Score = 0
	match.Player2Score = 0
	match.WinnerID = nil
}

func (f *fakeMatchRepo) sortedIDs() []int {
	ids := make([]int, 0, len(f.matches))
	for id := range f.matches {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (f *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	match.ID = f.nextID
	f.nextID++
	copied := *match
	f.matches[match.ID] = &copied
	return nil
}

func (f *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	match, ok := f.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *match
	return &copied, nil
}

func (f *fakeMatchRepo) ListByGroup(_ context.Context, _ repositories.SQLExecutor, groupID int) ([]*models.Match, error) {
	result := make([]*models.Match, 0)
	for _, id := range f.sortedIDs() {
		match := f.matches[id]
		if match.GroupID != nil && *match.GroupID == groupID {
			copied := *match
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeMatchRepo) CountByGroup(_ context.Context, _ repositories.SQLExecutor, groupID int) (int, error) {
	matches, _ := f.ListByGroup(context.Background(), nil, groupID)
	return len(matches), nil
}

func (f *fakeMatchRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Match, error) {
	result := make([]*models.Match, 0)
	for _, id := range f.sortedIDs() {
		match := f.matches[id]
		if match.TournamentID == tournamentID {
			copied := *match
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeMatchRepo) ListKnockout(_ context.Context, tournamentID int) ([]*models.Match, error) {
	result := make([]*models.Match, 0)
	for _, id := range f.sortedIDs() {
		match := f.matches[id]
		if match.TournamentID == tournamentID && match.Round != nil {
			copied := *match
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeMatchRepo) ListByRound(_ context.Context, _ repositories.SQLExecutor, tournamentID, round int) ([]*models.Match, error) {
	result := make([]*models.Match, 0)
	for _, id := range f.sortedIDs() {
		match := f.matches[id]
		if match.TournamentID == tournamentID && match.Round != nil && *match.Round == round {
			copied := *match
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeMatchRepo) MaxRound(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (*int, error) {
	var max *int
	for _, match := range f.matches {
		if match.TournamentID != tournamentID || match.Round == nil {
			continue
		}
		if max == nil || *match.Round > *max {
			round := *match.Round
			max = &round
		}
	}
	return max, nil
}

func (f *fakeMatchRepo) MaxBracketPosition(_ context.Context, _ repositories.SQLExecutor, tournamentID, round int) (*int, error) {
	var max *int
	for _, match := range f.matches {
		if match.TournamentID != tournamentID || match.Round == nil || *match.Round != round || match.BracketPosition == nil {
			continue
		}
		if max == nil || *match.BracketPosition > *max {
			pos := *match.BracketPosition
			max = &pos
		}
	}
	return max, nil
}

func (f *fakeMatchRepo) ListActiveForPlayersInRound(_ context.Context, _ repositories.SQLExecutor, tournamentID, round int, playerIDs []int) ([]*models.Match, error) {
	wanted := make(map[int]bool, len(playerIDs))
	for _, id := range playerIDs {
		wanted[id] = true
	}
	result := make([]*models.Match, 0)
	for _, id := range f.sortedIDs() {
		match := f.matches[id]
		if match.TournamentID != tournamentID || match.Round == nil || *match.Round != round {
			continue
		}
		if match.Status == models.MatchCanceled {
			continue
		}
		inMatch := (match.Player1ID != nil && wanted[*match.Player1ID]) ||
			(match.Player2ID != nil && wanted[*match.Player2ID])
		if inMatch {
			copied := *match
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeMatchRepo) UpdateScore(_ context.Context, id int, score1, score2 int, winnerID *int, status models.MatchStatus) error {
	match, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.Player1Score = score1
	match.Player2Score = score2
	match.WinnerID = winnerID
	match.Status = status
	return nil
}

func (f *fakeMatchRepo) UpdateCancellation(_ context.Context, id int, canceled bool) error {
	match, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if canceled {
		match.Status = models.MatchCanceled
		match.Player1Score = 0
		match.Player2Score = 0
		match.WinnerID = nil
	} else {
		match.Status = models.MatchScheduled
	}
	return nil
}

func (f *fakeMatchRepo) UpdateImage(_ context.Context, id int, image string) error {
	match, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.Image = image
	return nil
}

func (f *fakeMatchRepo) Delete(_ context.Context, id int) error {
	if _, ok := f.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(f.matches, id)
	return nil
}

func (f *fakeMatchRepo) DeleteKnockoutByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (int, error) {
	deleted := 0
	for id, match := range f.matches {
		if match.TournamentID == tournamentID && match.Round != nil {
			delete(f.matches, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeVoteRepo struct {
	votes     map[int]map[string]*models.MatchVote
	matchRepo *fakeMatchRepo
}

func newFakeVoteRepo(matchRepo *fakeMatchRepo) *fakeVoteRepo {
	return &fakeVoteRepo{votes: make(map[int]map[string]*models.MatchVote), matchRepo: matchRepo}
}

func (f *fakeVoteRepo) GetBySession(_ context.Context, _ repositories.SQLExecutor, matchID int, sessionID string) (*models.MatchVote, error) {
	vote, ok := f.votes[matchID][sessionID]
	if !ok {
		return nil, repositories.ErrVoteNotFound
	}
	copied := *vote
	return &copied, nil
}

func (f *fakeVoteRepo) Insert(_ context.Context, _ repositories.SQLExecutor, vote *models.MatchVote) error {
	if f.votes[vote.MatchID] == nil {
		f.votes[vote.MatchID] = make(map[string]*models.MatchVote)
	}
	copied := *vote
	f.votes[vote.MatchID][vote.SessionID] = &copied
	return nil
}

func (f *fakeVoteRepo) UpdateChoice(_ context.Context, _ repositories.SQLExecutor, matchID int, sessionID string, votedFor models.VoteSide) error {
	vote, ok := f.votes[matchID][sessionID]
	if !ok {
		return repositories.ErrVoteNotFound
	}
	vote.VotedFor = votedFor
	return nil
}

func (f *fakeVoteRepo) ListByMatch(_ context.Context, matchID int) ([]models.MatchVote, error) {
	sessions := make([]string, 0, len(f.votes[matchID]))
	for session := range f.votes[matchID] {
		sessions = append(sessions, session)
	}
	sort.Strings(sessions)

	result := make([]models.MatchVote, 0, len(sessions))
	for _, session := range sessions {
		result = append(result, *f.votes[matchID][session])
	}
	return result, nil
}

func (f *fakeVoteRepo) AdjustTallies(_ context.Context, _ repositories.SQLExecutor, matchID, player1Delta, player2Delta int) error {
	match, ok := f.matchRepo.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.Player1Votes += player1Delta
	match.Player2Votes += player2Delta
	return nil
}

func (f *fakeVoteRepo) Reset(_ context.Context, _ repositories.SQLExecutor, matchID int) error {
	delete(f.votes, matchID)
	if match, ok := f.matchRepo.matches[matchID]; ok {
		match.Player1Votes = 0
		match.Player2Votes = 0
	}
	return nil
}

type fakeAdminRepo struct {
	nextID int
	admins map[int]*models.Admin
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{nextID: 1, admins: make(map[int]*models.Admin)}
}

func (f *fakeAdminRepo) Create(_ context.Context, admin *models.Admin) error {
	for _, existing := range f.admins {
		if existing.Email == admin.Email {
			return repositories.ErrAdminEmailConflict
		}
	}
	admin.ID = f.nextID
	f.nextID++
	copied := *admin
	f.admins[admin.ID] = &copied
	return nil
}

func (f *fakeAdminRepo) GetByEmail(_ context.Context, email string) (*models.Admin, error) {
	for _, admin := range f.admins {
		if admin.Email == email {
			copied := *admin
			return &copied, nil
		}
	}
	return nil, repositories.ErrAdminNotFound
}

func (f *fakeAdminRepo) GetByID(_ context.Context, id int) (*models.Admin, error) {
	admin, ok := f.admins[id]
	if !ok {
		return nil, repositories.ErrAdminNotFound
	}
	copied := *admin
	return &copied, nil
}

type fakeUploader struct {
	uploads []string
}

func (f *fakeUploader) Upload(_ context.Context, key string, _ string, _ io.Reader) (*storage.UploadResult, error) {
	f.uploads = append(f.uploads, key)
	return &storage.UploadResult{Key: key, Location: "https://cdn.example.com/" + key}, nil
}

func (f *fakeUploader) Delete(_ context.Context, _ string) error { return nil }

func (f *fakeUploader) PublicURL(key string) string { return "https://cdn.example.com/" + key }
