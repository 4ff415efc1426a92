package clickhouse

import (
	"context"
	"time"

	"github.com/Billy-Davies-2/teamforge/internal/logger"
)

// Applier stores fetched ratings and reports how many players changed
type Applier func(powers map[string]int) (int, error)

// SyncOnce fetches ratings from src and hands them to apply
func SyncOnce(ctx context.Context, src PowerSource, apply Applier) (int, error) {
	powers, err := src.FetchPowers(ctx)
	if err != nil {
		return 0, err
	}
	return apply(powers)
}

// RunSync syncs immediately and then every interval until ctx is done
func RunSync(ctx context.Context, src PowerSource, interval time.Duration, apply Applier) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		logger.Info("Syncing power ratings")
		changed, err := SyncOnce(ctx, src, apply)
		if err != nil {
			logger.Error("Failed to sync power ratings", "error", err)
		} else {
			logger.Info("Power ratings synced", "changed", changed)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
