package commands

import (
	"fmt"

	"github.com/Billy-Davies-2/teamforge/internal/models"
	"github.com/Billy-Davies-2/teamforge/internal/pubsub"
	"github.com/Billy-Davies-2/teamforge/internal/render"
)

// MemberResult is returned by single-member commands
type MemberResult struct {
	Player  *models.Player `json:"player"`
	Message string         `json:"message"`
}

// SwapResult reports both players after a power swap
type SwapResult struct {
	A       *models.Player `json:"a"`
	B       *models.Player `json:"b"`
	Message string         `json:"message"`
}

// ListResult carries players plus their rendered listing
type ListResult struct {
	Players []models.Player `json:"players"`
	Message string          `json:"message"`
}

// AddMember validates the profession against the catalog and inserts a new player
func (s *Service) AddMember(name, profession string, power int) (res *MemberResult, err error) {
	defer func() { s.record("add_member", err) }()

	if !validName(name) {
		return nil, fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	if power < 0 {
		return nil, ErrInvalidPower
	}
	prof, err := s.catalog.ParseProfession(profession)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.AddPlayer(&models.Player{Name: name, Profession: prof, Power: power})
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	s.refreshRosterSize()
	s.publish(pubsub.MemberAdded, "", map[string]interface{}{
		"id":         p.ID,
		"name":       p.Name,
		"profession": string(p.Profession),
		"power":      p.Power,
	})
	return &MemberResult{
		Player:  p,
		Message: fmt.Sprintf("Added `%s` (%s, power %d) to the roster.", p.Name, p.Profession, p.Power),
	}, nil
}

// RemoveMember deletes a player; the store prunes it from every list
func (s *Service) RemoveMember(name string) (res *MemberResult, err error) {
	defer func() { s.record("remove_member", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.RemovePlayer(name)
	if err != nil {
		return nil, fmt.Errorf("remove member: %w", err)
	}
	s.refreshRosterSize()
	s.publish(pubsub.MemberRemoved, "", map[string]interface{}{"id": p.ID, "name": p.Name})
	return &MemberResult{Player: p, Message: fmt.Sprintf("Removed `%s` from the roster.", p.Name)}, nil
}

// RenameMember changes a player's name; lists keep pointing at the same ID
func (s *Service) RenameMember(oldName, newName string) (res *MemberResult, err error) {
	defer func() { s.record("rename_member", err) }()

	if !validName(newName) {
		return nil, fmt.Errorf("%q: %w", newName, ErrInvalidName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.RenamePlayer(oldName, newName)
	if err != nil {
		return nil, fmt.Errorf("rename member: %w", err)
	}
	s.publish(pubsub.MemberRenamed, "", map[string]interface{}{"id": p.ID, "old": oldName, "name": p.Name})
	return &MemberResult{
		Player:  p,
		Message: fmt.Sprintf("Renamed `%s` to `%s`.", oldName, p.Name),
	}, nil
}

// SetPower updates one player's power
func (s *Service) SetPower(name string, power int) (res *MemberResult, err error) {
	defer func() { s.record("set_power", err) }()

	if power < 0 {
		return nil, ErrInvalidPower
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.SetPower(name, power)
	if err != nil {
		return nil, fmt.Errorf("set power: %w", err)
	}
	s.publish(pubsub.MemberPower, "", map[string]interface{}{"id": p.ID, "name": p.Name, "power": p.Power})
	return &MemberResult{
		Player:  p,
		Message: fmt.Sprintf("Set the power of `%s` to `%d`.", p.Name, p.Power),
	}, nil
}

// SwapPower exchanges the powers of two players
func (s *Service) SwapPower(nameA, nameB string) (res *SwapResult, err error) {
	defer func() { s.record("swap_power", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	a, b, err := s.store.SwapPower(nameA, nameB)
	if err != nil {
		return nil, fmt.Errorf("swap power: %w", err)
	}
	s.publish(pubsub.MemberSwapped, "", map[string]interface{}{
		"a": map[string]interface{}{"name": a.Name, "power": a.Power},
		"b": map[string]interface{}{"name": b.Name, "power": b.Power},
	})
	return &SwapResult{
		A:       a,
		B:       b,
		Message: fmt.Sprintf("Swapped powers: %s (power %d) and %s (power %d).", a.Name, a.Power, b.Name, b.Power),
	}, nil
}

// MemberList returns the roster in insertion order
func (s *Service) MemberList() (res *ListResult, err error) {
	defer func() { s.record("member_list", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	players, err := s.store.ListPlayers()
	if err != nil {
		return nil, fmt.Errorf("member list: %w", err)
	}
	return &ListResult{Players: players, Message: render.MemberList(players)}, nil
}

// PowerList returns the roster with overall and per-profession rankings
func (s *Service) PowerList() (res *ListResult, err error) {
	defer func() { s.record("power_list", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	players, err := s.store.ListPlayers()
	if err != nil {
		return nil, fmt.Errorf("power list: %w", err)
	}
	return &ListResult{Players: players, Message: render.PowerList(players, s.catalog)}, nil
}

// Reset restores the seeded roster and drops all operator settings
func (s *Service) Reset() (err error) {
	defer func() { s.record("reset", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Reset(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	s.refreshRosterSize()
	s.publish(pubsub.ConfigUpdated, "", map[string]interface{}{"reset": true})
	return nil
}
