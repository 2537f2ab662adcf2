package brackets

import (
	"sort"

	"github.com/matchpoint-dev/pingpong-tournaments/models"
)

// ComputeStandings derives the ranked standings of a group from its fixed
// roster and its matches. Only completed matches with both player slots
// populated contribute; a recorded winner is worth one point and one win.
//
// The result is sorted by points descending, ties broken by point difference
// descending. The sort is stable, so rows that tie on both keys keep the
// roster (seat) order of the input.
func ComputeStandings(roster []models.GroupPlayer, matches []models.Match) []models.GroupPlayer {
	rows := make([]models.GroupPlayer, len(roster))
	index := make(map[int]*models.GroupPlayer, len(roster))
	for i, entry := range roster {
		rows[i] = models.GroupPlayer{
			GroupID:  entry.GroupID,
			PlayerID: entry.PlayerID,
			Seat:     entry.Seat,
			Player:   entry.Player,
		}
		index[entry.PlayerID] = &rows[i]
	}

	for _, m := range matches {
		if m.Status != models.MatchCompleted || m.Player1ID == nil || m.Player2ID == nil {
			continue
		}
		p1, ok1 := index[*m.Player1ID]
		p2, ok2 := index[*m.Player2ID]
		if !ok1 || !ok2 {
			continue
		}

		p1.MatchesPlayed++
		p2.MatchesPlayed++

		p1.PointsFor += m.Player1Score
		p1.PointsAgainst += m.Player2Score
		p2.PointsFor += m.Player2Score
		p2.PointsAgainst += m.Player1Score

		if m.WinnerID != nil {
			switch *m.WinnerID {
			case *m.Player1ID:
				p1.Wins++
				p1.Points++
				p2.Losses++
			case *m.Player2ID:
				p2.Wins++
				p2.Points++
				p1.Losses++
			}
		}
	}

	for i := range rows {
		rows[i].PointDifference = rows[i].PointsFor - rows[i].PointsAgainst
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		return rows[i].PointDifference > rows[j].PointDifference
	})

	for i := range rows {
		rank := i + 1
		rows[i].Rank = &rank
	}
	return rows
}
