package commands

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/Billy-Davies-2/teamforge/internal/dal"
	"github.com/Billy-Davies-2/teamforge/internal/models"
	"github.com/Billy-Davies-2/teamforge/internal/pubsub"
	"github.com/Billy-Davies-2/teamforge/internal/render"
)

// BatchResult reports a name-list command: names added, unknown names and names already present
type BatchResult struct {
	Added    []string `json:"added"`
	NotFound []string `json:"notFound"`
	Already  []string `json:"already"`
	Message  string   `json:"message"`
}

// FixResult combines the fixed and preferred batches of fix_team
type FixResult struct {
	Fixed     *BatchResult `json:"fixed"`
	Preferred *BatchResult `json:"preferred,omitempty"`
	Message   string       `json:"message"`
}

// ClearResult reports how many entries a clear command removed
type ClearResult struct {
	Removed int    `json:"removed"`
	Message string `json:"message"`
}

// SettingsResult is an operator's configuration with lists resolved to names
type SettingsResult struct {
	Config  *models.OperatorConfig       `json:"config"`
	Names   map[models.ListKind][]string `json:"names,omitempty"`
	Message string                       `json:"message"`
}

// AvailableResult is the number of players eligible for the general pool
type AvailableResult struct {
	Available int    `json:"available"`
	Message   string `json:"message"`
}

// LeadersResult lists leader candidates by name
type LeadersResult struct {
	Leaders []string `json:"leaders"`
	Message string   `json:"message"`
}

// Settings holds optional per-operator default overrides; nil fields keep the stored value
type Settings struct {
	Probability *float64 `json:"probability,omitempty"`
	MaxSages    *int     `json:"maxSages,omitempty"`
	MaxKnights  *int     `json:"maxKnights,omitempty"`
}

func (st Settings) apply(probability float64, maxSages, maxKnights int) (float64, int, int, error) {
	if st.Probability != nil {
		probability = *st.Probability
	}
	if st.MaxSages != nil {
		maxSages = *st.MaxSages
	}
	if st.MaxKnights != nil {
		maxKnights = *st.MaxKnights
	}
	if math.IsNaN(probability) || probability < 0 || probability > 1 {
		return 0, 0, 0, fmt.Errorf("%v: %w", probability, ErrInvalidProbability)
	}
	if maxSages < 0 || maxKnights < 0 {
		return 0, 0, 0, ErrInvalidCap
	}
	return probability, maxSages, maxKnights, nil
}

var listActions = map[models.ListKind]struct{ action, already string }{
	models.ListCarried:   {"set as carried", "Every listed member is already carried."},
	models.ListExcluded:  {"excluded from auto selection", "Every listed member is already excluded."},
	models.ListFixed:     {"fixed to the first team", "Every listed member is already fixed."},
	models.ListPreferred: {"preferred for the first team", "Every listed member is already preferred."},
}

// appendNames resolves names and appends them to an operator list. Caller holds the lock.
func (s *Service) appendNames(operatorID string, kind models.ListKind, names []string) (*BatchResult, error) {
	res := &BatchResult{Added: []string{}, NotFound: []string{}, Already: []string{}}
	ids := make([]string, 0, len(names))
	nameOf := make(map[string]string, len(names))
	for _, name := range names {
		p, err := s.store.GetPlayerByName(name)
		if errors.Is(err, dal.ErrPlayerNotFound) {
			res.NotFound = append(res.NotFound, name)
			continue
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, p.ID)
		nameOf[p.ID] = p.Name
	}

	added, err := s.store.AppendToList(operatorID, kind, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range added {
		res.Added = append(res.Added, nameOf[id])
	}
	for _, id := range ids {
		if !slices.Contains(added, id) && !slices.Contains(res.Already, nameOf[id]) {
			res.Already = append(res.Already, nameOf[id])
		}
	}

	labels := listActions[kind]
	res.Message = render.BatchResult(render.Batch{
		Action:      labels.action,
		Added:       res.Added,
		NotFound:    res.NotFound,
		Already:     res.Already,
		AlreadyNote: labels.already,
	})
	return res, nil
}

func (s *Service) batch(command, operatorID string, kind models.ListKind, names []string) (res *BatchResult, err error) {
	defer func() { s.record(command, err) }()

	if len(names) == 0 {
		return nil, ErrNoNames
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err = s.appendNames(operatorID, kind, names)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", command, err)
	}
	if len(res.Added) > 0 {
		s.publish(pubsub.ConfigUpdated, operatorID, map[string]interface{}{"list": string(kind), "added": res.Added})
	}
	return res, nil
}

func (s *Service) clear(command, operatorID string, kinds ...models.ListKind) (res *ClearResult, err error) {
	defer func() { s.record(command, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, kind := range kinds {
		n, err := s.store.ClearList(operatorID, kind)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", command, err)
		}
		removed += n
	}
	if removed > 0 {
		lists := make([]string, len(kinds))
		for i, k := range kinds {
			lists[i] = string(k)
		}
		s.publish(pubsub.ConfigUpdated, operatorID, map[string]interface{}{"cleared": lists})
	}

	label := string(kinds[0])
	if len(kinds) > 1 {
		label = string(kinds[0]) + " and " + string(kinds[1])
	}
	return &ClearResult{Removed: removed, Message: render.Cleared(label, removed)}, nil
}

// SetCarried adds names to the operator's carried list
func (s *Service) SetCarried(operatorID string, names []string) (*BatchResult, error) {
	return s.batch("set_carried", operatorID, models.ListCarried, names)
}

// ClearCarried empties the operator's carried list
func (s *Service) ClearCarried(operatorID string) (*ClearResult, error) {
	return s.clear("clear_carried", operatorID, models.ListCarried)
}

// ExcludeMembers adds names to the operator's excluded list
func (s *Service) ExcludeMembers(operatorID string, names []string) (*BatchResult, error) {
	return s.batch("exclude_member", operatorID, models.ListExcluded, names)
}

// ClearExcluded empties the operator's excluded list
func (s *Service) ClearExcluded(operatorID string) (*ClearResult, error) {
	return s.clear("clear_excluded", operatorID, models.ListExcluded)
}

// FixTeam adds fixed members and, optionally, preferred members
func (s *Service) FixTeam(operatorID string, fixed, preferred []string) (res *FixResult, err error) {
	defer func() { s.record("fix_team", err) }()

	if len(fixed) == 0 && len(preferred) == 0 {
		return nil, ErrNoNames
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res = &FixResult{}
	var parts []string
	if len(fixed) > 0 {
		if res.Fixed, err = s.appendNames(operatorID, models.ListFixed, fixed); err != nil {
			return nil, fmt.Errorf("fix_team: %w", err)
		}
		parts = append(parts, res.Fixed.Message)
	}
	if len(preferred) > 0 {
		if res.Preferred, err = s.appendNames(operatorID, models.ListPreferred, preferred); err != nil {
			return nil, fmt.Errorf("fix_team: %w", err)
		}
		parts = append(parts, res.Preferred.Message)
	}
	res.Message = strings.Join(parts, "\n")

	payload := map[string]interface{}{}
	if res.Fixed != nil && len(res.Fixed.Added) > 0 {
		payload["fixed"] = res.Fixed.Added
	}
	if res.Preferred != nil && len(res.Preferred.Added) > 0 {
		payload["preferred"] = res.Preferred.Added
	}
	if len(payload) > 0 {
		s.publish(pubsub.ConfigUpdated, operatorID, payload)
	}
	return res, nil
}

// ClearFixed empties both the fixed and the preferred lists
func (s *Service) ClearFixed(operatorID string) (*ClearResult, error) {
	return s.clear("clear_fixed", operatorID, models.ListFixed, models.ListPreferred)
}

// SetFormationDefaults stores per-operator probability and role caps
func (s *Service) SetFormationDefaults(operatorID string, settings Settings) (res *SettingsResult, err error) {
	defer func() { s.record("set_formation_defaults", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.GetOperatorConfig(operatorID)
	if err != nil {
		return nil, fmt.Errorf("set_formation_defaults: %w", err)
	}
	p, sages, knights, err := settings.apply(current.Probability, current.MaxSages, current.MaxKnights)
	if err != nil {
		return nil, err
	}
	cfg, err := s.store.SetSettings(operatorID, p, sages, knights)
	if err != nil {
		return nil, fmt.Errorf("set_formation_defaults: %w", err)
	}
	s.publish(pubsub.ConfigUpdated, operatorID, map[string]interface{}{
		"probability": cfg.Probability,
		"maxSages":    cfg.MaxSages,
		"maxKnights":  cfg.MaxKnights,
	})
	return &SettingsResult{
		Config: cfg,
		Message: fmt.Sprintf("Formation defaults updated: probability %.2f, max sages %d, max knights %d.",
			cfg.Probability, cfg.MaxSages, cfg.MaxKnights),
	}, nil
}

// OperatorConfig returns the operator's lists resolved to names
func (s *Service) OperatorConfig(operatorID string) (res *SettingsResult, err error) {
	defer func() { s.record("operator_config", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Snapshot(operatorID)
	if err != nil {
		return nil, fmt.Errorf("operator_config: %w", err)
	}
	cfg := snap.Config
	resolve := func(ids []string) []string { return namesByID(snap.Players, ids) }

	names := make(map[models.ListKind][]string, len(models.ListKinds))
	for _, kind := range models.ListKinds {
		names[kind] = resolve(cfg.List(kind))
	}
	return &SettingsResult{Config: &cfg, Names: names, Message: render.OperatorConfig(&cfg, resolve)}, nil
}

// CheckAvailable counts roster players that are not excluded, fixed or preferred
func (s *Service) CheckAvailable(operatorID string) (res *AvailableResult, err error) {
	defer func() { s.record("check_available", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Snapshot(operatorID)
	if err != nil {
		return nil, fmt.Errorf("check_available: %w", err)
	}
	taken := make(map[string]bool)
	for _, ids := range [][]string{snap.Config.Excluded, snap.Config.Fixed, snap.Config.Preferred} {
		for _, id := range ids {
			taken[id] = true
		}
	}
	n := 0
	for _, p := range snap.Players {
		if !taken[p.ID] {
			n++
		}
	}
	return &AvailableResult{
		Available: n,
		Message:   fmt.Sprintf("%d members are available for auto selection.", n),
	}, nil
}

// AddLeaderCandidates adds names to the global leader set
func (s *Service) AddLeaderCandidates(names []string) (res *BatchResult, err error) {
	defer func() { s.record("add_leader_candidate", err) }()

	if len(names) == 0 {
		return nil, ErrNoNames
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res = &BatchResult{Added: []string{}, NotFound: []string{}, Already: []string{}}
	var ids []string
	nameOf := make(map[string]string)
	for _, name := range names {
		p, err := s.store.GetPlayerByName(name)
		if errors.Is(err, dal.ErrPlayerNotFound) {
			res.NotFound = append(res.NotFound, name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("add_leader_candidate: %w", err)
		}
		ids = append(ids, p.ID)
		nameOf[p.ID] = p.Name
	}
	added, err := s.store.AddLeaders(ids)
	if err != nil {
		return nil, fmt.Errorf("add_leader_candidate: %w", err)
	}
	for _, id := range added {
		res.Added = append(res.Added, nameOf[id])
	}
	for _, id := range ids {
		if !slices.Contains(added, id) && !slices.Contains(res.Already, nameOf[id]) {
			res.Already = append(res.Already, nameOf[id])
		}
	}
	if len(res.Added) > 0 {
		s.publish(pubsub.LeadersUpdated, "", map[string]interface{}{"added": res.Added})
	}
	res.Message = render.BatchResult(render.Batch{
		Action:      "added to the leader candidates",
		Added:       res.Added,
		NotFound:    res.NotFound,
		Already:     res.Already,
		AlreadyNote: "Every listed member is already a leader candidate.",
	})
	return res, nil
}

// RemoveLeaderCandidates removes names from the global leader set. Names that
// are unknown or not candidates are reported as not found.
func (s *Service) RemoveLeaderCandidates(names []string) (res *BatchResult, err error) {
	defer func() { s.record("remove_leader_candidate", err) }()

	if len(names) == 0 {
		return nil, ErrNoNames
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res = &BatchResult{Added: []string{}, NotFound: []string{}, Already: []string{}}
	var ids []string
	nameOf := make(map[string]string)
	for _, name := range names {
		p, err := s.store.GetPlayerByName(name)
		if errors.Is(err, dal.ErrPlayerNotFound) {
			res.NotFound = append(res.NotFound, name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("remove_leader_candidate: %w", err)
		}
		ids = append(ids, p.ID)
		nameOf[p.ID] = p.Name
	}
	removed, err := s.store.RemoveLeaders(ids)
	if err != nil {
		return nil, fmt.Errorf("remove_leader_candidate: %w", err)
	}
	for _, id := range ids {
		if slices.Contains(removed, id) {
			res.Added = append(res.Added, nameOf[id])
		} else if !slices.Contains(res.NotFound, nameOf[id]) {
			res.NotFound = append(res.NotFound, nameOf[id])
		}
	}
	if len(res.Added) > 0 {
		s.publish(pubsub.LeadersUpdated, "", map[string]interface{}{"removed": res.Added})
	}
	res.Message = render.BatchResult(render.Batch{
		Action:      "removed from the leader candidates",
		Added:       res.Added,
		NotFound:    res.NotFound,
		AlreadyNote: "None of the listed members are leader candidates.",
	})
	return res, nil
}

// LeaderList returns leader candidates by name, in insertion order
func (s *Service) LeaderList() (res *LeadersResult, err error) {
	defer func() { s.record("leader_list", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	players, err := s.store.ListPlayers()
	if err != nil {
		return nil, fmt.Errorf("leader_list: %w", err)
	}
	ids, err := s.store.ListLeaders()
	if err != nil {
		return nil, fmt.Errorf("leader_list: %w", err)
	}
	names := namesByID(players, ids)
	return &LeadersResult{Leaders: names, Message: render.LeaderList(names)}, nil
}
