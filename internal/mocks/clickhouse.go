// Package mocks holds development stand-ins for external services.
package mocks

import (
	"context"

	"github.com/Billy-Davies-2/teamforge/internal/logger"
)

// Roster lists the names the mock source rates
type Roster func() []RatedPlayer

// RatedPlayer is the part of a player the mock needs
type RatedPlayer struct {
	Name  string
	Power int
}

// MockPowerSource provides mock power ratings for local development. It
// reports every player's current power back unchanged, so a sync never
// overrides a power set by hand.
type MockPowerSource struct {
	roster Roster
}

// NewMockPowerSource creates a mock ClickHouse power source
func NewMockPowerSource(roster Roster) *MockPowerSource {
	logger.Info("Using MOCK ClickHouse power source for local development")
	return &MockPowerSource{roster: roster}
}

// FetchPowers returns the current roster's ratings
func (m *MockPowerSource) FetchPowers(ctx context.Context) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(map[string]int)
	for _, p := range m.roster() {
		out[p.Name] = p.Power
	}
	return out, nil
}

// Close is a no-op for the mock
func (m *MockPowerSource) Close() error {
	return nil
}
