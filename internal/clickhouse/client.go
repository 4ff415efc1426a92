// Package clickhouse reads player power ratings from the match analytics warehouse.
package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// DefaultLookback bounds how old a rating may be before it is ignored
const DefaultLookback = 30 * 24 * time.Hour

// latestPowersQuery picks each player's most recent rating inside the lookback window
const latestPowersQuery = `
	SELECT
		player_name,
		toInt64(argMax(power, recorded_at)) AS power
	FROM player_power_ratings
	WHERE recorded_at >= now() - toIntervalSecond(?)
	GROUP BY player_name
`

// PowerSource supplies the latest power rating per player name
type PowerSource interface {
	FetchPowers(ctx context.Context) (map[string]int, error)
	Close() error
}

// Client provides ClickHouse integration for power ratings
type Client struct {
	db       *sql.DB
	lookback time.Duration
}

// NewClient creates a new ClickHouse client
func NewClient(addr, database, username, password string) (*Client, error) {
	db := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		DialTimeout: 10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return NewClientFromDB(db), nil
}

// NewClientFromDB wraps an existing connection pool
func NewClientFromDB(db *sql.DB) *Client {
	return &Client{db: db, lookback: DefaultLookback}
}

// SetLookback changes the rating age window
func (c *Client) SetLookback(d time.Duration) {
	if d > 0 {
		c.lookback = d
	}
}

// FetchPowers retrieves the latest power rating for every rated player
func (c *Client) FetchPowers(ctx context.Context) (map[string]int, error) {
	rows, err := c.db.QueryContext(ctx, latestPowersQuery, int64(c.lookback/time.Second))
	if err != nil {
		return nil, fmt.Errorf("query power ratings: %w", err)
	}
	defer rows.Close()

	powers := make(map[string]int)
	for rows.Next() {
		var name string
		var power int64
		if err := rows.Scan(&name, &power); err != nil {
			return nil, fmt.Errorf("scan power rating: %w", err)
		}
		if power < 0 {
			continue
		}
		powers[name] = int(power)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read power ratings: %w", err)
	}
	return powers, nil
}

// Ping checks that the warehouse is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the ClickHouse connection
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
