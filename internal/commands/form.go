package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/Billy-Davies-2/teamforge/internal/cache"
	"github.com/Billy-Davies-2/teamforge/internal/formation"
	"github.com/Billy-Davies-2/teamforge/internal/logger"
	"github.com/Billy-Davies-2/teamforge/internal/pubsub"
	"github.com/Billy-Davies-2/teamforge/internal/render"
)

// FormRequest is auto_create_group. Empty Strategy means balance; nil
// settings fall back to the operator's stored defaults.
type FormRequest struct {
	OperatorID string `json:"operatorId"`
	Strategy   string `json:"strategy"`
	Settings
}

// Form runs the formation engine on a fresh snapshot. The returned entry is
// non-nil whenever the snapshot could be read, including formation failures,
// so callers can always show its message.
func (s *Service) Form(ctx context.Context, req FormRequest) (entry *cache.Entry, err error) {
	defer func() { s.record("auto_create_group", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	snap, err := s.store.Snapshot(req.OperatorID)
	if err != nil {
		return nil, fmt.Errorf("auto_create_group: %w", err)
	}

	in := formation.NewInput(*snap, req.Strategy)
	in.Catalog = s.catalog
	in.Probability, in.MaxSages, in.MaxKnights, err = req.Settings.apply(in.Probability, in.MaxSages, in.MaxKnights)
	if err != nil {
		return nil, err
	}

	res, formErr := formation.Form(in, s.rng)

	carryName := ""
	if len(snap.Config.Carried) > 0 {
		carryName = namesByID(snap.Players, snap.Config.Carried[:1])[0]
	}
	entry = &cache.Entry{
		OperatorID: req.OperatorID,
		CreatedAt:  s.now(),
		Result:     res,
		Message:    render.Formation(res, carryName),
	}

	if s.metrics != nil {
		strategy := string(res.Strategy)
		if strategy == "" {
			strategy = "invalid"
		}
		s.metrics.RecordFormation(strategy, string(res.Status), len(res.Teams), s.now().Sub(start))
	}

	logger.Info("Formation run",
		"operator_id", req.OperatorID,
		"strategy", string(res.Strategy),
		"requested", req.Strategy,
		"status", string(res.Status),
		"teams", len(res.Teams),
		"candidates", res.Candidates,
		"missing", len(res.Missing),
	)

	if formErr != nil {
		return entry, formErr
	}

	s.publish(pubsub.FormationCreated, req.OperatorID, map[string]interface{}{
		"strategy":   string(res.Strategy),
		"overridden": res.Overridden,
		"teams":      len(res.Teams),
		"members":    res.Members(),
	})

	if err := s.last.SaveLast(ctx, entry); err != nil {
		logger.Warn("Failed to cache formation", "operator_id", req.OperatorID, "error", err)
	}
	return entry, nil
}

// LastGroup returns the operator's most recent successful formation
func (s *Service) LastGroup(ctx context.Context, operatorID string) (entry *cache.Entry, err error) {
	defer func() {
		if errors.Is(err, ErrNoFormation) {
			s.record("last_group", nil)
			return
		}
		s.record("last_group", err)
	}()

	entry, err = s.last.Last(ctx, operatorID)
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(err == nil)
	}
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrNoFormation
	}
	if err != nil {
		return nil, fmt.Errorf("last_group: %w", err)
	}
	return entry, nil
}

// SyncPowers applies externally sourced power ratings by player name
func (s *Service) SyncPowers(powers map[string]int) (changed int, err error) {
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordPowerSync(err)
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err = s.store.UpdatePowers(powers)
	if err != nil {
		return 0, fmt.Errorf("power sync: %w", err)
	}
	if changed > 0 {
		s.publish(pubsub.PowerSynced, "", map[string]interface{}{"changed": changed, "received": len(powers)})
	}
	return changed, nil
}
