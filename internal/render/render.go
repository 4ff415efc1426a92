// Package render turns roster and formation data into the chat-style text
// messages returned by every command.
package render

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Billy-Davies-2/teamforge/internal/formation"
	"github.com/Billy-Davies-2/teamforge/internal/models"
)

// NoLeader is shown when a team has no leader candidate among its members
const NoLeader = "undetermined, no candidate present"

// Batch describes the outcome of a name-list command
type Batch struct {
	Action   string // past-tense verb phrase, e.g. "excluded from auto selection"
	Added    []string
	NotFound []string
	Already  []string
	// AlreadyNote replaces the default message when nothing changed
	AlreadyNote string
}

func quoted(names []string) string {
	return "`" + strings.Join(names, ", ") + "`"
}

// BatchResult renders a batch command outcome
func BatchResult(b Batch) string {
	var sb strings.Builder
	if len(b.Added) > 0 {
		fmt.Fprintf(&sb, "%s %s.\n", quoted(b.Added), b.Action)
	}
	if len(b.Already) > 0 && (len(b.Added) > 0 || len(b.NotFound) > 0) {
		fmt.Fprintf(&sb, "Already set: %s\n", quoted(b.Already))
	}
	if len(b.NotFound) > 0 {
		fmt.Fprintf(&sb, "⚠️ Not registered: %s\n", quoted(b.NotFound))
	}
	if sb.Len() == 0 {
		if b.AlreadyNote != "" {
			return b.AlreadyNote
		}
		return "Nothing changed: every listed member was already set."
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Cleared renders the result of a clear_* command
func Cleared(list string, removed int) string {
	if removed == 0 {
		return fmt.Sprintf("The %s list is already empty.", list)
	}
	return fmt.Sprintf("Cleared the %s list (%d removed).", list, removed)
}

// MemberList renders the roster in insertion order
func MemberList(players []models.Player) string {
	var sb strings.Builder
	sb.WriteString("**Member list**\n")
	for i, p := range players {
		fmt.Fprintf(&sb, "%d. Name: %s, Profession: %s, Power: %d\n", i+1, p.Name, p.Profession, p.Power)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func byPower(players []models.Player) []models.Player {
	sorted := slices.Clone(players)
	slices.SortStableFunc(sorted, func(a, b models.Player) int { return b.Power - a.Power })
	return sorted
}

// PowerList renders the overall ranking followed by one ranking per profession
func PowerList(players []models.Player, catalog models.Catalog) string {
	var sb strings.Builder
	sb.WriteString("**🏆 Overall power ranking**\n")
	ranked := byPower(players)
	for i, p := range ranked {
		fmt.Fprintf(&sb, "%d. %s (%s): power %d\n", i+1, p.Name, p.Profession, p.Power)
	}

	sb.WriteString("\n--- **Rankings by profession** ---\n")
	for _, prof := range catalog.Professions() {
		fmt.Fprintf(&sb, "\n**%s**\n", prof)
		rank := 0
		for _, p := range ranked {
			if p.Profession != prof {
				continue
			}
			rank++
			fmt.Fprintf(&sb, "%d. %s: power %d\n", rank, p.Name, p.Power)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// LeaderList renders the leader candidate names in order
func LeaderList(names []string) string {
	if len(names) == 0 {
		return "No leader candidates are set."
	}
	var sb strings.Builder
	sb.WriteString("**Leader candidates**\n")
	for i, n := range names {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, n)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// OperatorConfig renders an operator's resolved lists and settings
func OperatorConfig(cfg *models.OperatorConfig, names func(ids []string) []string) string {
	var sb strings.Builder
	sb.WriteString("**Formation settings**\n")
	for _, kind := range models.ListKinds {
		resolved := names(cfg.List(kind))
		if len(resolved) == 0 {
			fmt.Fprintf(&sb, "%s: (none)\n", kind)
			continue
		}
		fmt.Fprintf(&sb, "%s: %s\n", kind, strings.Join(resolved, ", "))
	}
	fmt.Fprintf(&sb, "probability: %.2f, max sages: %d, max knights: %d", cfg.Probability, cfg.MaxSages, cfg.MaxKnights)
	return sb.String()
}

func warningText(w formation.Warning) string {
	switch w.Code {
	case formation.WarnBelowMinimum:
		return fmt.Sprintf("⚠️ **Note:** this team has fewer than %d members (%d).", w.Limit, w.Actual)
	case formation.WarnNoFrontLine:
		return "⚠️ **Note:** this team has no front-line member (swordsman/knight)."
	case formation.WarnSageCapExceeded:
		return fmt.Sprintf("⚠️ **Note:** %d sages exceed the cap of %d.", w.Actual, w.Limit)
	case formation.WarnKnightCapExceeded:
		return fmt.Sprintf("⚠️ **Note:** %d knights exceed the cap of %d.", w.Actual, w.Limit)
	}
	return "⚠️ " + string(w.Code)
}

func statusText(res *formation.Result, carryName string) string {
	switch res.Status {
	case formation.StatusInsufficientMembers:
		if res.Strategy == formation.StrategyCarry && res.Candidates >= formation.TeamSize {
			return fmt.Sprintf("Not enough members to build a carry team (%d candidates).", res.Candidates)
		}
		return fmt.Sprintf("Not enough members to form a team: at least %d are required, %d available.", formation.TeamSize, res.Candidates)
	case formation.StatusCarryTargetNotFound:
		return fmt.Sprintf("Carried member `%s` was not found among the available members.", carryName)
	case formation.StatusCarryListEmpty:
		return "A carry group needs a carried member: use set_carried first."
	case formation.StatusInvalidStrategy:
		names := make([]string, len(formation.Strategies))
		for i, st := range formation.Strategies {
			names[i] = string(st)
		}
		return fmt.Sprintf("Invalid group type `%s`. Choose one of %s.", res.Requested, quoted(names))
	case formation.StatusNoTeamsFormed:
		return "No groups could be formed."
	}
	return ""
}

// Formation renders a formation result. carryName is the first carried player's name, used in the not-found message.
func Formation(res *formation.Result, carryName string) string {
	var sb strings.Builder
	if res.Overridden {
		sb.WriteString("A carried member is set, so the group type was forced to `carry`.\n")
	}
	if len(res.Missing) > 0 {
		fmt.Fprintf(&sb, "⚠️ %d configured member(s) no longer on the roster were ignored.\n", len(res.Missing))
	}

	if res.Status != formation.StatusOK {
		sb.WriteString(statusText(res, carryName))
		return sb.String()
	}

	fmt.Fprintf(&sb, "**Auto group selection result (%s)**\n", res.Strategy)
	for i := range res.Teams {
		team := &res.Teams[i]
		fmt.Fprintf(&sb, "\n**=== Team %d ===**\n", i+1)
		if team.Leader != nil {
			fmt.Fprintf(&sb, "Leader: **%s** (%s)\n", team.Leader.Name, team.Leader.Profession)
		} else {
			fmt.Fprintf(&sb, "Leader: **%s**\n", NoLeader)
		}
		for _, w := range team.Warnings {
			sb.WriteString(warningText(w))
			sb.WriteByte('\n')
		}
		members := make([]string, len(team.Members))
		for j, m := range team.Members {
			members[j] = fmt.Sprintf("%s (%s)", m.Name, m.Profession)
		}
		fmt.Fprintf(&sb, "Members: %s\n", strings.Join(members, ", "))
		fmt.Fprintf(&sb, "Total power: **%d**\n", team.TotalPower)
	}
	return strings.TrimRight(sb.String(), "\n")
}
