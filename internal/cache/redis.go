// Package cache keeps per-chakra frequency leaderboards in Redis sorted sets.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"ascended/internal/metrics"
	"ascended/internal/model"
)

const keyPrefix = "ascended:feed:"

type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			metrics.CacheErrors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			metrics.CacheErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// Ranked is one leaderboard row.
type Ranked struct {
	PostID    string
	Frequency int
}

// FeedCache stores post frequencies keyed by chakra.
type FeedCache struct {
	rdb *redis.Client
}

// Connect dials addr (host:port or redis:// URL) and pings it.
func Connect(ctx context.Context, addr string) (*FeedCache, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url %q: %w", addr, err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}
	c := New(redis.NewClient(opts))
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.rdb.Ping(pctx).Err(); err != nil {
		_ = c.rdb.Close()
		return nil, err
	}
	return c, nil
}

// New wraps an existing client.
func New(rdb *redis.Client) *FeedCache {
	rdb.AddHook(metricsHook{})
	return &FeedCache{rdb: rdb}
}

func (c *FeedCache) Close() error { return c.rdb.Close() }

func key(chakra model.Chakra) string { return keyPrefix + string(chakra) }

// SetFrequency records the current frequency of a post.
func (c *FeedCache) SetFrequency(ctx context.Context, chakra model.Chakra, postID string, frequency int) error {
	return c.rdb.ZAdd(ctx, key(chakra), redis.Z{Score: float64(frequency), Member: postID}).Err()
}

// Top returns the limit highest-frequency posts. Members tied with the last
// of them are appended, so callers can apply their own tie-break and cut.
func (c *FeedCache) Top(ctx context.Context, chakra model.Chakra, limit int) ([]Ranked, error) {
	if limit <= 0 {
		return nil, nil
	}
	zs, err := c.rdb.ZRevRangeWithScores(ctx, key(chakra), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(zs) == limit {
		last := strconv.FormatFloat(zs[len(zs)-1].Score, 'f', -1, 64)
		tied, err := c.rdb.ZRangeByScoreWithScores(ctx, key(chakra), &redis.ZRangeBy{Min: last, Max: last}).Result()
		if err != nil {
			return nil, err
		}
		seen := make(map[any]bool, len(zs))
		for _, z := range zs {
			seen[z.Member] = true
		}
		for _, z := range tied {
			if !seen[z.Member] {
				zs = append(zs, z)
			}
		}
	}
	out := make([]Ranked, 0, len(zs))
	for _, z := range zs {
		id, ok := z.Member.(string)
		if !ok {
			continue
		}
		out = append(out, Ranked{PostID: id, Frequency: int(z.Score)})
	}
	return out, nil
}

// Replace atomically swaps the whole leaderboard of a chakra.
func (c *FeedCache) Replace(ctx context.Context, chakra model.Chakra, rows []Ranked) error {
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key(chakra))
		if len(rows) == 0 {
			return nil
		}
		zs := make([]redis.Z, len(rows))
		for i, r := range rows {
			zs[i] = redis.Z{Score: float64(r.Frequency), Member: r.PostID}
		}
		p.ZAdd(ctx, key(chakra), zs...)
		return nil
	})
	return err
}
