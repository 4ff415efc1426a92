// Package commands implements the roster bot commands on top of the store,
// the formation engine and the event bus. Every transport calls into Service.
package commands

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Billy-Davies-2/teamforge/internal/cache"
	"github.com/Billy-Davies-2/teamforge/internal/dal"
	"github.com/Billy-Davies-2/teamforge/internal/formation"
	"github.com/Billy-Davies-2/teamforge/internal/logger"
	"github.com/Billy-Davies-2/teamforge/internal/metrics"
	"github.com/Billy-Davies-2/teamforge/internal/models"
	"github.com/Billy-Davies-2/teamforge/internal/pubsub"
)

var (
	ErrInvalidName        = errors.New("invalid member name")
	ErrInvalidPower       = errors.New("power must not be negative")
	ErrInvalidProbability = errors.New("probability must be between 0 and 1")
	ErrInvalidCap         = errors.New("role caps must not be negative")
	ErrNoNames            = errors.New("no member names given")
	ErrNoFormation        = errors.New("no group has been formed yet")
)

// Service serializes every command behind one mutex
type Service struct {
	mu      sync.Mutex
	store   dal.RosterDAL
	rng     formation.Source
	catalog models.Catalog
	events  pubsub.Publisher
	metrics *metrics.Collector
	last    cache.FormationStore
	now     func() time.Time
}

// Option customizes a Service
type Option func(*Service)

// WithMetrics records command and formation metrics
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Service) { s.metrics = c }
}

// WithCache replaces the in-memory last-formation store
func WithCache(c cache.FormationStore) Option {
	return func(s *Service) { s.last = c }
}

// WithCatalog replaces the default profession catalog
func WithCatalog(c models.Catalog) Option {
	return func(s *Service) { s.catalog = c }
}

// WithClock sets the time source used to stamp formations
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the command layer. events may be nil.
func NewService(store dal.RosterDAL, rng formation.Source, events pubsub.Publisher, opts ...Option) *Service {
	s := &Service{
		store:   store,
		rng:     rng,
		catalog: models.DefaultCatalog(),
		events:  events,
		last:    cache.NewMemoryCache(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if players, err := store.ListPlayers(); err == nil {
		s.setRosterSize(len(players))
	}
	return s
}

// Catalog returns the profession catalog in use
func (s *Service) Catalog() models.Catalog {
	return s.catalog
}

// SplitNames splits a whitespace-separated name list
func SplitNames(names string) []string {
	return strings.Fields(names)
}

func (s *Service) publish(eventType, operatorID string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(pubsub.NewEvent(eventType, operatorID, payload))
}

func (s *Service) record(command string, err error) {
	if err != nil {
		logger.Debug("Command failed", "command", command, "error", err)
	}
	if s.metrics != nil {
		s.metrics.RecordCommand(command, err)
	}
}

func (s *Service) setRosterSize(n int) {
	if s.metrics != nil {
		s.metrics.SetRosterSize(n)
	}
}

func (s *Service) refreshRosterSize() {
	if s.metrics == nil {
		return
	}
	if players, err := s.store.ListPlayers(); err == nil {
		s.metrics.SetRosterSize(len(players))
	}
}

func validName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && !strings.ContainsAny(name, " \t\r\n")
}

// namesByID resolves ids against players, keeping unresolved IDs as-is
func namesByID(players []models.Player, ids []string) []string {
	index := make(map[string]string, len(players))
	for _, p := range players {
		index[p.ID] = p.Name
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := index[id]; ok {
			out = append(out, name)
			continue
		}
		out = append(out, id)
	}
	return out
}
