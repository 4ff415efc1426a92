package dal

import (
	"fmt"
	"slices"
	"sync"

	"github.com/Billy-Davies-2/teamforge/internal/models"
)

// MemoryDAL implements RosterDAL using in-memory storage
type MemoryDAL struct {
	mu        sync.RWMutex
	seed      *models.Seed
	players   []models.Player
	operators map[string]*models.OperatorConfig
	leaders   []string
}

// NewMemoryDAL creates a new in-memory data access layer seeded with seed (DefaultSeed when nil)
func NewMemoryDAL(seed *models.Seed) *MemoryDAL {
	if seed == nil {
		seed = DefaultSeed()
	}
	m := &MemoryDAL{seed: seed}
	m.load()
	return m
}

func (m *MemoryDAL) load() {
	m.players, m.leaders = seedIDs(m.seed)
	if m.leaders == nil {
		m.leaders = []string{}
	}
	m.operators = make(map[string]*models.OperatorConfig)
}

func (m *MemoryDAL) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.load()
	return nil
}

func (m *MemoryDAL) Close() error {
	return nil
}

func (m *MemoryDAL) ListPlayers() ([]models.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.players), nil
}

func (m *MemoryDAL) indexOf(name string) int {
	name = normalizeName(name)
	return slices.IndexFunc(m.players, func(p models.Player) bool { return p.Name == name })
}

func (m *MemoryDAL) GetPlayerByName(name string) (*models.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexOf(name)
	if i < 0 {
		return nil, fmt.Errorf("%q: %w", name, ErrPlayerNotFound)
	}
	p := m.players[i]
	return &p, nil
}

func (m *MemoryDAL) AddPlayer(player *models.Player) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	player.Name = normalizeName(player.Name)
	if m.indexOf(player.Name) >= 0 {
		return nil, fmt.Errorf("%q: %w", player.Name, ErrPlayerExists)
	}
	if player.ID == "" {
		player.ID = genID()
	}

	m.players = append(m.players, *player)
	return player, nil
}

func (m *MemoryDAL) RemovePlayer(name string) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(name)
	if i < 0 {
		return nil, fmt.Errorf("%q: %w", name, ErrPlayerNotFound)
	}
	removed := m.players[i]
	m.players = slices.Delete(m.players, i, i+1)

	drop := func(ids []string) []string {
		return slices.DeleteFunc(ids, func(id string) bool { return id == removed.ID })
	}
	for _, cfg := range m.operators {
		for _, kind := range models.ListKinds {
			cfg.SetList(kind, drop(cfg.List(kind)))
		}
	}
	m.leaders = drop(m.leaders)

	return &removed, nil
}

func (m *MemoryDAL) RenamePlayer(oldName, newName string) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(oldName)
	if i < 0 {
		return nil, fmt.Errorf("%q: %w", oldName, ErrPlayerNotFound)
	}
	newName = normalizeName(newName)
	if j := m.indexOf(newName); j >= 0 && j != i {
		return nil, fmt.Errorf("%q: %w", newName, ErrPlayerExists)
	}
	m.players[i].Name = newName
	p := m.players[i]
	return &p, nil
}

func (m *MemoryDAL) SetPower(name string, power int) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(name)
	if i < 0 {
		return nil, fmt.Errorf("%q: %w", name, ErrPlayerNotFound)
	}
	m.players[i].Power = power
	p := m.players[i]
	return &p, nil
}

func (m *MemoryDAL) SwapPower(nameA, nameB string) (*models.Player, *models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, j := m.indexOf(nameA), m.indexOf(nameB)
	if i < 0 {
		return nil, nil, fmt.Errorf("%q: %w", nameA, ErrPlayerNotFound)
	}
	if j < 0 {
		return nil, nil, fmt.Errorf("%q: %w", nameB, ErrPlayerNotFound)
	}
	m.players[i].Power, m.players[j].Power = m.players[j].Power, m.players[i].Power
	a, b := m.players[i], m.players[j]
	return &a, &b, nil
}

func (m *MemoryDAL) UpdatePowers(powers map[string]int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := 0
	for i := range m.players {
		if power, ok := powers[m.players[i].Name]; ok && m.players[i].Power != power {
			m.players[i].Power = power
			changed++
		}
	}
	return changed, nil
}

func (m *MemoryDAL) GetOperatorConfig(operatorID string) (*models.OperatorConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if cfg, ok := m.operators[operatorID]; ok {
		return cfg.Clone(), nil
	}
	return models.NewOperatorConfig(operatorID), nil
}

// operator returns the stored config, creating it on first write. Caller holds the write lock.
func (m *MemoryDAL) operator(operatorID string) *models.OperatorConfig {
	cfg, ok := m.operators[operatorID]
	if !ok {
		cfg = models.NewOperatorConfig(operatorID)
		m.operators[operatorID] = cfg
	}
	return cfg
}

func (m *MemoryDAL) AppendToList(operatorID string, kind models.ListKind, ids []string) ([]string, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%q: %w", kind, ErrInvalidList)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg := m.operator(operatorID)
	list, added := appendUnique(cfg.List(kind), ids)
	cfg.SetList(kind, list)
	return added, nil
}

func (m *MemoryDAL) ClearList(operatorID string, kind models.ListKind) (int, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%q: %w", kind, ErrInvalidList)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg := m.operator(operatorID)
	n := len(cfg.List(kind))
	cfg.SetList(kind, []string{})
	return n, nil
}

func (m *MemoryDAL) SetSettings(operatorID string, probability float64, maxSages, maxKnights int) (*models.OperatorConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg := m.operator(operatorID)
	cfg.Probability = probability
	cfg.MaxSages = maxSages
	cfg.MaxKnights = maxKnights
	return cfg.Clone(), nil
}

func (m *MemoryDAL) AddLeaders(ids []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var added []string
	m.leaders, added = appendUnique(m.leaders, ids)
	return added, nil
}

func (m *MemoryDAL) RemoveLeaders(ids []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []string
	for _, id := range ids {
		if i := slices.Index(m.leaders, id); i >= 0 {
			m.leaders = slices.Delete(m.leaders, i, i+1)
			removed = append(removed, id)
		}
	}
	return removed, nil
}

func (m *MemoryDAL) ListLeaders() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.leaders), nil
}

func (m *MemoryDAL) Snapshot(operatorID string) (*models.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg, ok := m.operators[operatorID]
	if !ok {
		cfg = models.NewOperatorConfig(operatorID)
	}
	return &models.Snapshot{
		Players: slices.Clone(m.players),
		Config:  *cfg.Clone(),
		Leaders: slices.Clone(m.leaders),
	}, nil
}

// appendUnique appends ids not already in list, preserving order, and reports which were added
func appendUnique(list, ids []string) ([]string, []string) {
	var added []string
	for _, id := range ids {
		if slices.Contains(list, id) {
			continue
		}
		list = append(list, id)
		added = append(added, id)
	}
	return list, added
}
