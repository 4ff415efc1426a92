// Package formation partitions a roster snapshot into four-person teams.
//
// Form is a pure function of its Input and the injected Source: it performs no
// I/O, starts no goroutines and never mutates the snapshot it is given.
package formation

import (
	"github.com/Billy-Davies-2/teamforge/internal/models"
)

// Input is everything a formation run needs. Settings are already resolved
// from the operator's defaults and any per-request overrides.
type Input struct {
	Snapshot    models.Snapshot
	Strategy    string
	Probability float64
	MaxSages    int
	MaxKnights  int
	Catalog     models.Catalog
}

// NewInput builds an Input that uses the snapshot's operator settings
func NewInput(snap models.Snapshot, strategy string) Input {
	return Input{
		Snapshot:    snap,
		Strategy:    strategy,
		Probability: snap.Config.Probability,
		MaxSages:    snap.Config.MaxSages,
		MaxKnights:  snap.Config.MaxKnights,
		Catalog:     models.DefaultCatalog(),
	}
}

// Result describes a formation run. It is returned even when Form fails so
// callers can report lookup misses and the override notice.
type Result struct {
	Status     Status   `json:"status"`
	Strategy   Strategy `json:"strategy,omitempty"`
	Requested  string   `json:"requested"`
	Overridden bool     `json:"overridden"`
	Teams      []Team   `json:"teams"`
	// Missing lists configured player IDs that no longer resolve to a roster player
	Missing    []string `json:"missing,omitempty"`
	Candidates int      `json:"candidates"`
}

// Members returns the number of players placed across all teams
func (r *Result) Members() int {
	n := 0
	for _, t := range r.Teams {
		n += len(t.Members)
	}
	return n
}

// Form runs the partition preprocessor and the selected team builder.
// On failure the returned error is one of the Err* sentinels and Result.Status matches it.
func Form(in Input, rng Source) (*Result, error) {
	if in.Catalog == nil {
		in.Catalog = models.DefaultCatalog()
	}
	cfg := in.Snapshot.Config
	res := &Result{
		Requested: in.Strategy,
		Teams:     []Team{},
		Missing:   missingIDs(in.Snapshot),
	}

	strategy, ok := ParseStrategy(in.Strategy)
	switch {
	case len(cfg.Carried) > 0:
		res.Overridden = strategy != StrategyCarry
		strategy = StrategyCarry
	case !ok:
		return fail(res, StatusInvalidStrategy)
	case strategy == StrategyCarry:
		return fail(res, StatusCarryListEmpty)
	}
	res.Strategy = strategy

	part := partition(in, rng)
	res.Candidates = len(part.team1) + len(part.pool)
	if res.Candidates < TeamSize {
		return fail(res, StatusInsufficientMembers)
	}

	var groups [][]models.Player
	if len(part.team1) > 0 {
		groups = append(groups, part.team1)
	}

	switch strategy {
	case StrategyCarry:
		carried, status := buildCarry(cfg.Carried[0], part.pool, rng)
		if status != StatusOK {
			return fail(res, status)
		}
		groups = append(groups, carried.team)
		groups = append(groups, buildBalanced(carried.rest, rng)...)
	case StrategyHighPower:
		groups = append(groups, buildHighPower(part.pool)...)
	default:
		groups = append(groups, buildBalanced(part.pool, rng)...)
	}

	leaders := make(map[string]bool, len(in.Snapshot.Leaders))
	for _, id := range in.Snapshot.Leaders {
		leaders[id] = true
	}
	for _, members := range groups {
		if len(members) == 0 {
			continue
		}
		res.Teams = append(res.Teams, finalizeTeam(members, leaders, &in))
	}

	if len(res.Teams) == 0 {
		return fail(res, StatusNoTeamsFormed)
	}
	res.Status = StatusOK
	return res, nil
}

func fail(res *Result, status Status) (*Result, error) {
	res.Status = status
	res.Teams = []Team{}
	return res, status.Err()
}

// missingIDs collects configured IDs that do not resolve, in first-seen order
func missingIDs(snap models.Snapshot) []string {
	known := make(map[string]bool, len(snap.Players))
	for _, p := range snap.Players {
		known[p.ID] = true
	}
	seen := make(map[string]bool)
	var missing []string
	for _, kind := range models.ListKinds {
		for _, id := range snap.Config.List(kind) {
			if known[id] || seen[id] {
				continue
			}
			seen[id] = true
			missing = append(missing, id)
		}
	}
	return missing
}
