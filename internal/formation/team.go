package formation

import "github.com/Billy-Davies-2/teamforge/internal/models"

// TeamSize is the target number of members per team
const TeamSize = 4

// WarningCode identifies an advisory condition on a formed team
type WarningCode string

const (
	WarnBelowMinimum      WarningCode = "team_below_minimum"
	WarnNoFrontLine       WarningCode = "no_front_line"
	WarnSageCapExceeded   WarningCode = "sage_cap_exceeded"
	WarnKnightCapExceeded WarningCode = "knight_cap_exceeded"
)

// Warning is advisory and never prevents a team from being formed
type Warning struct {
	Code   WarningCode `json:"code"`
	Actual int         `json:"actual"`
	Limit  int         `json:"limit"`
}

// Team is one formed group. Members includes the leader.
type Team struct {
	Members          []models.Player             `json:"members"`
	Leader           *models.Player              `json:"leader,omitempty"`
	TotalPower       int                         `json:"totalPower"`
	RoleCounts       map[models.RoleCategory]int `json:"roleCounts"`
	ProfessionCounts map[models.Profession]int   `json:"professionCounts"`
	Warnings         []Warning                   `json:"warnings,omitempty"`
}

// HasWarning reports whether the team carries the given warning
func (t *Team) HasWarning(code WarningCode) bool {
	for _, w := range t.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// finalizeTeam computes aggregates, picks the leader and attaches warnings
func finalizeTeam(members []models.Player, leaders map[string]bool, in *Input) Team {
	team := Team{
		Members:          members,
		RoleCounts:       make(map[models.RoleCategory]int),
		ProfessionCounts: make(map[models.Profession]int),
	}

	for i := range members {
		p := members[i]
		team.TotalPower += p.Power
		team.ProfessionCounts[p.Profession]++
		if role, ok := in.Catalog.Role(p.Profession); ok {
			team.RoleCounts[role]++
		}
		if !leaders[p.ID] {
			continue
		}
		// strict comparison keeps the earliest member on ties
		if team.Leader == nil || p.Power > team.Leader.Power {
			team.Leader = &members[i]
		}
	}

	if len(members) < TeamSize {
		team.Warnings = append(team.Warnings, Warning{Code: WarnBelowMinimum, Actual: len(members), Limit: TeamSize})
	}
	if team.RoleCounts[models.FrontLine] == 0 {
		team.Warnings = append(team.Warnings, Warning{Code: WarnNoFrontLine})
	}
	if n := team.ProfessionCounts[models.ProfessionSage]; n > in.MaxSages {
		team.Warnings = append(team.Warnings, Warning{Code: WarnSageCapExceeded, Actual: n, Limit: in.MaxSages})
	}
	if n := team.ProfessionCounts[models.ProfessionKnight]; n > in.MaxKnights {
		team.Warnings = append(team.Warnings, Warning{Code: WarnKnightCapExceeded, Actual: n, Limit: in.MaxKnights})
	}

	return team
}
