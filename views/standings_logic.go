package views

import (
	"sort"

	"github.com/google/uuid"
	"github.com/survivorpool/lms-app/internal/league"
	"github.com/survivorpool/lms-app/internal/service"
)

// SortStandings orders the table the way players read it: survivors
// first, then by lives remaining, then alphabetically.
func SortStandings(rows []service.StandingsRow) []service.StandingsRow {
	sorted := make([]service.StandingsRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Member.Status != b.Member.Status {
			return a.Member.Status == league.MemberActive
		}
		if a.Member.LivesRemaining != b.Member.LivesRemaining {
			return a.Member.LivesRemaining > b.Member.LivesRemaining
		}
		return a.Username < b.Username
	})
	return sorted
}

// OutcomeBadge is the single letter shown per round in the history column.
func OutcomeBadge(outcome league.Outcome) string {
	switch outcome {
	case league.OutcomeWin:
		return "W"
	case league.OutcomeLose:
		return "L"
	case league.OutcomeDraw:
		return "D"
	}
	return "?"
}

// TeamNameMap indexes a competition's teams for fixture rendering.
func TeamNameMap(teams []league.Team) map[uuid.UUID]string {
	names := make(map[uuid.UUID]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}
	return names
}
