// Package cache keeps the most recent formation per operator.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Billy-Davies-2/teamforge/internal/formation"
	"github.com/Billy-Davies-2/teamforge/internal/logger"
)

// ErrCacheMiss is returned when an operator has no stored formation
var ErrCacheMiss = errors.New("cache miss")

const keyPrefix = "teamforge:formation:last:"

// Entry is a stored formation with its rendered message
type Entry struct {
	OperatorID string            `json:"operatorId"`
	CreatedAt  time.Time         `json:"createdAt"`
	Result     *formation.Result `json:"result"`
	Message    string            `json:"message"`
}

// FormationStore is implemented by the Redis and in-memory caches
type FormationStore interface {
	SaveLast(ctx context.Context, entry *Entry) error
	Last(ctx context.Context, operatorID string) (*Entry, error)
	Close() error
}

// Config is the Redis connection configuration
type Config struct {
	Addr       string
	Password   string
	DB         int
	DefaultTTL time.Duration
}

// FormationCache stores formations in Redis with a TTL
type FormationCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewFormationCache connects to Redis and verifies the connection
func NewFormationCache(cfg Config) (*FormationCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Formation cache connected", "addr", cfg.Addr, "ttl", cfg.DefaultTTL.String())
	return &FormationCache{redis: client, ttl: cfg.DefaultTTL}, nil
}

func (c *FormationCache) SaveLast(ctx context.Context, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal formation: %w", err)
	}
	if err := c.redis.Set(ctx, keyPrefix+entry.OperatorID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

func (c *FormationCache) Last(ctx context.Context, operatorID string) (*Entry, error) {
	data, err := c.redis.Get(ctx, keyPrefix+operatorID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get failed: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cached formation: %w", err)
	}
	return &entry, nil
}

func (c *FormationCache) Close() error {
	return c.redis.Close()
}

// MemoryCache is the fallback when no Redis address is configured
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*Entry)}
}

func (m *MemoryCache) SaveLast(_ context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *entry
	m.entries[entry.OperatorID] = &stored
	return nil
}

func (m *MemoryCache) Last(_ context.Context, operatorID string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[operatorID]
	if !ok {
		return nil, ErrCacheMiss
	}
	out := *entry
	return &out, nil
}

func (m *MemoryCache) Close() error {
	return nil
}
