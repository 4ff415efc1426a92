package formation

import (
	"cmp"
	"slices"

	"github.com/Billy-Davies-2/teamforge/internal/models"
)

const (
	carryCompanions = 3
	carrySampleTop  = 10
)

type carryResult struct {
	team []models.Player
	rest []models.Player
}

// buildCarry pairs the carried player with three companions drawn from the
// strongest remaining players. Everyone else is returned for balancing.
func buildCarry(targetID string, pool []models.Player, rng Source) (carryResult, Status) {
	idx := slices.IndexFunc(pool, func(p models.Player) bool { return p.ID == targetID })
	if idx < 0 {
		return carryResult{}, StatusCarryTargetNotFound
	}
	target := pool[idx]

	remainder := make([]models.Player, 0, len(pool)-1)
	remainder = append(remainder, pool[:idx]...)
	remainder = append(remainder, pool[idx+1:]...)
	if len(remainder) < carryCompanions {
		return carryResult{}, StatusInsufficientMembers
	}
	sortByPowerDesc(remainder)

	top := min(carrySampleTop, len(remainder))
	candidates := make([]int, top)
	for i := range candidates {
		candidates[i] = i
	}
	// partial Fisher-Yates: the first carryCompanions slots become the sample
	for i := 0; i < carryCompanions; i++ {
		j := i + rng.IntN(top-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}
	picked := make(map[int]bool, carryCompanions)
	team := []models.Player{target}
	for _, c := range candidates[:carryCompanions] {
		picked[c] = true
		team = append(team, remainder[c])
	}

	rest := make([]models.Player, 0, len(remainder)-carryCompanions)
	for i, p := range remainder {
		if !picked[i] {
			rest = append(rest, p)
		}
	}
	return carryResult{team: team, rest: rest}, StatusOK
}

// buildBalanced spreads Sages, then Knights, then everyone else across the
// teams so role holders land on different teams before doubling up.
func buildBalanced(pool []models.Player, rng Source) [][]models.Player {
	sages, knights, others := bucketize(pool)
	for _, b := range [][]models.Player{sages, knights, others} {
		rng.Shuffle(len(b), func(i, j int) { b[i], b[j] = b[j], b[i] })
	}

	teams := make([][]models.Player, teamCount(len(pool)))
	t := len(teams)
	for i, p := range sages {
		teams[i%t] = append(teams[i%t], p)
	}
	for j, p := range knights {
		teams[j%t] = append(teams[j%t], p)
	}
	offset := len(sages) + len(knights)
	for k, p := range others {
		teams[(offset+k)%t] = append(teams[(offset+k)%t], p)
	}
	return dropEmpty(teams)
}

// buildHighPower seeds each team with the strongest remaining Sage and Knight,
// then deals the leftovers by descending power.
func buildHighPower(pool []models.Player) [][]models.Player {
	sorted := slices.Clone(pool)
	sortByPowerDesc(sorted)
	sages, knights, others := bucketize(sorted)

	teams := make([][]models.Player, teamCount(len(pool)))
	t := len(teams)
	for i := 0; i < t; i++ {
		if i < len(sages) {
			teams[i] = append(teams[i], sages[i])
		}
		if i < len(knights) {
			teams[i] = append(teams[i], knights[i])
		}
	}

	var leftovers []models.Player
	if len(sages) > t {
		leftovers = append(leftovers, sages[t:]...)
	}
	if len(knights) > t {
		leftovers = append(leftovers, knights[t:]...)
	}
	leftovers = append(leftovers, others...)
	sortByPowerDesc(leftovers)
	for k, p := range leftovers {
		teams[k%t] = append(teams[k%t], p)
	}
	return dropEmpty(teams)
}

func bucketize(pool []models.Player) (sages, knights, others []models.Player) {
	for _, p := range pool {
		switch p.Profession {
		case models.ProfessionSage:
			sages = append(sages, p)
		case models.ProfessionKnight:
			knights = append(knights, p)
		default:
			others = append(others, p)
		}
	}
	return sages, knights, others
}

// teamCount is ceil(n/4), never less than one
func teamCount(n int) int {
	return max((n+TeamSize-1)/TeamSize, 1)
}

func sortByPowerDesc(players []models.Player) {
	slices.SortStableFunc(players, func(a, b models.Player) int {
		return cmp.Compare(b.Power, a.Power)
	})
}

func dropEmpty(teams [][]models.Player) [][]models.Player {
	out := teams[:0]
	for _, t := range teams {
		if len(t) > 0 {
			out = append(out, t)
		}
	}
	return out
}
