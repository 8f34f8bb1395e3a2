package jobs

import (
	"context"
	"fmt"
	"time"

	"ascended/internal/cache"
	"ascended/internal/logging"
	"ascended/internal/metrics"
	"ascended/internal/model"
	"ascended/internal/store/sqlite"
)

// Leaderboards is the feed cache as seen by the sync job.
type Leaderboards interface {
	Replace(ctx context.Context, chakra model.Chakra, rows []cache.Ranked) error
}

// RunFeedSyncOnce rebuilds every chakra leaderboard from stored frequencies.
// It repairs drift left by best-effort cache writes in the request path.
func RunFeedSyncOnce(ctx context.Context, db *sqlite.DB, lb Leaderboards) error {
	start := time.Now()
	total := 0
	for _, c := range model.Chakras {
		var posts []model.Post
		err := db.View(ctx, func(tx *sqlite.Tx) error {
			var err error
			posts, err = tx.ListPostsByChakra(ctx, c, 0)
			return err
		})
		if err != nil {
			return fmt.Errorf("list %s: %w", c, err)
		}
		rows := make([]cache.Ranked, len(posts))
		for i, p := range posts {
			rows[i] = cache.Ranked{PostID: p.ID, Frequency: p.Frequency}
		}
		if err := lb.Replace(ctx, c, rows); err != nil {
			return fmt.Errorf("replace %s: %w", c, err)
		}
		total += len(rows)
	}
	metrics.ObserveSince(metrics.FeedSyncDuration, start)
	logging.Info("feed_sync_once", map[string]any{"posts": total, "elapsed_ms": time.Since(start).Milliseconds()})
	return nil
}

// RunFeedSyncLoop runs RunFeedSyncOnce on a ticker until ctx is cancelled.
func RunFeedSyncLoop(ctx context.Context, db *sqlite.DB, lb Leaderboards, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	// run immediately
	if err := RunFeedSyncOnce(ctx, db, lb); err != nil {
		logging.Error("feed_sync_error", map[string]any{"error": err})
	}
	for {
		select {
		case <-ctx.Done():
			logging.Info("feed_sync_loop_stop", nil)
			return ctx.Err()
		case <-t.C:
			if err := RunFeedSyncOnce(ctx, db, lb); err != nil {
				logging.Error("feed_sync_error", map[string]any{"error": err})
			}
		}
	}
}
