// Package service runs the engine's data flow against the store: energy
// debits, frequency recomputation, experience awards and feed indexing.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ascended/internal/cache"
	"ascended/internal/config"
	"ascended/internal/energy"
	"ascended/internal/logging"
	"ascended/internal/metrics"
	"ascended/internal/model"
	"ascended/internal/spirit"
	"ascended/internal/store/sqlite"
)

// ChakraClassifier returns a validated category for post content.
type ChakraClassifier interface {
	Classify(ctx context.Context, content string) (model.Chakra, error)
}

// FeedIndex is the optional ranked feed cache.
type FeedIndex interface {
	SetFrequency(ctx context.Context, chakra model.Chakra, postID string, frequency int) error
	Top(ctx context.Context, chakra model.Chakra, limit int) ([]cache.Ranked, error)
}

type Engine struct {
	db         *sqlite.DB
	ledger     energy.Ledger
	energyCfg  config.EnergyConfig
	experience map[string]int
	classifier ChakraClassifier
	feed       FeedIndex
	now        func() time.Time
	newID      func() string
}

type Option func(*Engine)

// WithFeed enables the feed cache. Pass only a non-nil index.
func WithFeed(f FeedIndex) Option { return func(e *Engine) { e.feed = f } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func WithIDs(newID func() string) Option { return func(e *Engine) { e.newID = newID } }

func New(db *sqlite.DB, cfg config.Config, classifier ChakraClassifier, opts ...Option) *Engine {
	e := &Engine{
		db:         db,
		ledger:     energy.NewLedger(cfg.Energy),
		energyCfg:  cfg.Energy,
		experience: cfg.Experience.Actions,
		classifier: classifier,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// award is an experience grant applied inside a transaction; it is counted
// in metrics only after commit.
type award struct {
	userID string
	entry  model.EvolutionEntry
}

func recordAwards(awards []award) {
	for _, a := range awards {
		metrics.ExperienceAwarded.WithLabelValues(a.entry.Action).Add(float64(a.entry.ExperienceGain))
		if a.entry.LeveledUp {
			metrics.LevelUps.Inc()
			logging.Info("spirit_level_up", map[string]any{"user_id": a.userID, "level": a.entry.NewLevel, "action": a.entry.Action})
		}
	}
}

// grant awards the configured experience for action to userID's spirit.
// Actions without a positive reward leave the spirit untouched.
func (e *Engine) grant(ctx context.Context, tx *sqlite.Tx, userID, action string, now time.Time) (model.Spirit, *award, error) {
	s, err := tx.GetSpirit(ctx, userID)
	if err != nil {
		return s, nil, err
	}
	amount := e.experience[action]
	if amount == 0 {
		return s, nil, nil
	}
	next, entry, err := spirit.Award(s, action, amount, now)
	if err != nil {
		return s, nil, err
	}
	if err := tx.SaveSpirit(ctx, next, entry); err != nil {
		return s, nil, err
	}
	return next, &award{userID: userID, entry: entry}, nil
}

// debit spends amount of userID's energy and persists the ledger result.
func (e *Engine) debit(ctx context.Context, tx *sqlite.Tx, u model.User, amount int, reason string, now time.Time) (energy.Account, error) {
	before := energy.AccountOf(u)
	after, err := e.ledger.Debit(before, amount, now)
	if err != nil {
		return before, fmt.Errorf("%s: %w", reason, err)
	}
	if err := tx.SaveEnergy(ctx, u.ID, after.Balance, after.LastReset); err != nil {
		return before, err
	}
	return after, nil
}

func recordDebit(reason string, before, after energy.Account, amount int) {
	metrics.EnergyDebits.WithLabelValues(reason).Inc()
	metrics.EnergySpent.Add(float64(amount))
	if energy.Reset(before, after) {
		metrics.EnergyResets.Inc()
	}
}

func activeUser(ctx context.Context, tx *sqlite.Tx, ref string) (model.User, error) {
	u, err := resolveUser(ctx, tx, ref)
	if err != nil {
		return u, err
	}
	if u.Status != model.UserActive {
		return u, fmt.Errorf("%w: %s is %s", model.ErrInactiveUser, u.Username, u.Status)
	}
	return u, nil
}

// index pushes a post's frequency to the feed cache. Cache failures are
// logged and otherwise ignored; the sync job repairs the leaderboard.
func (e *Engine) index(ctx context.Context, p model.Post) {
	if e.feed == nil {
		return
	}
	if err := e.feed.SetFrequency(ctx, p.Chakra, p.ID, p.Frequency); err != nil {
		logging.Warn("feed_index_error", map[string]any{"post_id": p.ID, "error": err})
	}
}
