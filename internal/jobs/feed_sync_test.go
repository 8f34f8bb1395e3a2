package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"ascended/internal/cache"
	"ascended/internal/model"
	"ascended/internal/store/sqlite"
)

var now = time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	require.NoError(t, db.Update(ctx, func(tx *sqlite.Tx) error {
		if err := tx.CreateUser(ctx, model.User{ID: "alice", Email: "a@example.com", Username: "alice", CreatedAt: now}); err != nil {
			return err
		}
		for _, p := range []model.Post{
			{ID: "p1", Chakra: model.ChakraHeart, Frequency: 2},
			{ID: "p2", Chakra: model.ChakraHeart, Frequency: 7},
			{ID: "p3", Chakra: model.ChakraCrown, Frequency: -1},
		} {
			p.AuthorID, p.Type, p.Content, p.CreatedAt = "alice", model.PostTypePost, "x", now
			if err := tx.CreatePost(ctx, p); err != nil {
				return err
			}
		}
		return nil
	}))
	return db
}

func TestRunFeedSyncOnceRebuildsLeaderboards(t *testing.T) {
	db := seed(t)
	mr := miniredis.RunT(t)
	fc := cache.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer fc.Close()
	ctx := context.Background()

	// stale entries are dropped by the rebuild
	require.NoError(t, fc.SetFrequency(ctx, model.ChakraHeart, "gone", 99))
	require.NoError(t, fc.SetFrequency(ctx, model.ChakraHeart, "p1", 50))

	require.NoError(t, RunFeedSyncOnce(ctx, db, fc))

	heart, err := fc.Top(ctx, model.ChakraHeart, 10)
	require.NoError(t, err)
	assert.Equal(t, []cache.Ranked{{PostID: "p2", Frequency: 7}, {PostID: "p1", Frequency: 2}}, heart)

	crown, err := fc.Top(ctx, model.ChakraCrown, 10)
	require.NoError(t, err)
	assert.Equal(t, []cache.Ranked{{PostID: "p3", Frequency: -1}}, crown)

	root, err := fc.Top(ctx, model.ChakraRoot, 10)
	require.NoError(t, err)
	assert.Empty(t, root)
}

type failingBoards struct{}

func (failingBoards) Replace(context.Context, model.Chakra, []cache.Ranked) error {
	return errors.New("redis down")
}

func TestRunFeedSyncOnceReportsCacheError(t *testing.T) {
	db := seed(t)
	err := RunFeedSyncOnce(context.Background(), db, failingBoards{})
	assert.ErrorContains(t, err, "redis down")
}

type countingBoards struct {
	mu    sync.Mutex
	calls int
}

func (c *countingBoards) Replace(context.Context, model.Chakra, []cache.Ranked) error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return nil
}

func (c *countingBoards) n() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestRunFeedSyncLoopStopsOnCancel(t *testing.T) {
	// cleanups run last-in first-out: the store closes before the check
	existing := goleak.IgnoreCurrent()
	t.Cleanup(func() { goleak.VerifyNone(t, existing) })
	db := seed(t)
	lb := &countingBoards{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- RunFeedSyncLoop(ctx, db, lb, 10*time.Millisecond) }()

	require.Eventually(t, func() bool { return lb.n() >= 2*len(model.Chakras) }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}
