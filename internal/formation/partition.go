package formation

import "github.com/Billy-Davies-2/teamforge/internal/models"

type partitioned struct {
	team1 []models.Player
	pool  []models.Player
}

// partition splits the roster into the forced first team and the shuffled general pool.
// Exclusion wins over every other list.
func partition(in Input, rng Source) partitioned {
	cfg := in.Snapshot.Config
	excluded := toSet(cfg.Excluded)
	fixed := toSet(cfg.Fixed)
	preferred := toSet(cfg.Preferred)

	var out partitioned
	var selected []models.Player
	for _, p := range in.Snapshot.Players {
		switch {
		case excluded[p.ID]:
		case fixed[p.ID]:
			out.team1 = append(out.team1, p)
		case preferred[p.ID]:
			// one Bernoulli trial per preferred player, in roster order
			if rng.Float64() < in.Probability {
				selected = append(selected, p)
			} else {
				out.pool = append(out.pool, p)
			}
		default:
			out.pool = append(out.pool, p)
		}
	}
	out.team1 = append(out.team1, selected...)

	rng.Shuffle(len(out.pool), func(i, j int) {
		out.pool[i], out.pool[j] = out.pool[j], out.pool[i]
	})
	return out
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
