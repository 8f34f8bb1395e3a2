package service

import (
	"context"
	"errors"
	"fmt"

	"ascended/internal/energy"
	"ascended/internal/logging"
	"ascended/internal/metrics"
	"ascended/internal/model"
	"ascended/internal/store/sqlite"
)

// authorReward names the experience action credited to a post's author.
// Downvotes reward nobody.
var authorReward = map[model.EngagementType]string{
	model.EngagementUpvote: "post_upvoted",
	model.EngagementLike:   "post_liked",
	model.EngagementEnergy: "post_energized",
}

type EngageResult struct {
	Post      model.Post
	Delta     int
	Balance   int
	Spirit    model.Spirit
	LeveledUp bool
}

// Engage records a user's engagement on a post. Upvote and downvote share a
// slot, so casting one replaces the other. Energy engagements are paid from
// the actor's ledger. The post is rescored from its full engagement set.
func (e *Engine) Engage(ctx context.Context, userID, postID string, typ model.EngagementType) (EngageResult, error) {
	if !typ.Valid() {
		return EngageResult{}, fmt.Errorf("%w: %q", model.ErrInvalidEngagementType, typ)
	}
	now := e.now()
	var res EngageResult
	var awards []award
	var before, after energy.Account
	cost := 0
	err := e.db.Update(ctx, func(tx *sqlite.Tx) error {
		u, err := activeUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		p, err := tx.GetPost(ctx, postID)
		if err != nil {
			return err
		}
		mine, err := tx.UserEngagements(ctx, postID, u.ID)
		if err != nil {
			return err
		}
		for _, m := range mine {
			if m.Type == typ {
				return fmt.Errorf("%w: %s already %s post %s", model.ErrDuplicateEngagement, u.ID, typ, postID)
			}
		}
		if opp := typ.Opposite(); opp != model.EngagementNone {
			if _, err := tx.DeleteEngagement(ctx, postID, u.ID, opp); err != nil {
				return err
			}
		}

		before = energy.AccountOf(u)
		after = before
		if typ == model.EngagementEnergy {
			cost = e.energyCfg.EnergyEngagementCost
			if after, err = e.debit(ctx, tx, u, cost, "energy_engagement", now); err != nil {
				return err
			}
		}
		res.Balance, _ = e.ledger.CurrentBalance(after, now)

		if err := tx.PutEngagement(ctx, model.Engagement{PostID: postID, UserID: u.ID, Type: typ, CreatedAt: now}); err != nil {
			return err
		}
		rescored, err := recompute(ctx, tx, p)
		if err != nil {
			return err
		}
		res.Post = rescored
		res.Delta = rescored.Frequency - p.Frequency

		s, a, err := e.grant(ctx, tx, u.ID, string(typ)+"_given", now)
		if err != nil {
			return err
		}
		res.Spirit = s
		if a != nil {
			awards = append(awards, *a)
			res.LeveledUp = a.entry.LeveledUp
		}

		if action, ok := authorReward[typ]; ok && p.AuthorID != u.ID {
			if err := tx.AddAura(ctx, p.AuthorID, 1); err != nil {
				return err
			}
			_, a, err := e.grant(ctx, tx, p.AuthorID, action, now)
			if err != nil {
				return err
			}
			if a != nil {
				awards = append(awards, *a)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrInsufficientEnergy) {
			metrics.EnergyInsufficient.WithLabelValues("energy_engagement").Inc()
		}
		return EngageResult{}, err
	}
	if typ == model.EngagementEnergy {
		recordDebit("energy_engagement", before, after, cost)
	}
	metrics.FrequencyRecomputes.Inc()
	recordAwards(awards)
	e.index(ctx, res.Post)
	logging.Info("engagement_recorded", map[string]any{
		"user_id": userID, "post_id": postID, "type": string(typ),
		"frequency": res.Post.Frequency, "delta": res.Delta,
	})
	return res, nil
}

// Retract removes an active engagement and rescores the post. Spent energy
// and awarded experience are not returned.
func (e *Engine) Retract(ctx context.Context, userID, postID string, typ model.EngagementType) (model.Post, error) {
	if !typ.Valid() {
		return model.Post{}, fmt.Errorf("%w: %q", model.ErrInvalidEngagementType, typ)
	}
	var p model.Post
	err := e.db.Update(ctx, func(tx *sqlite.Tx) error {
		u, err := resolveUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		cur, err := tx.GetPost(ctx, postID)
		if err != nil {
			return err
		}
		existed, err := tx.DeleteEngagement(ctx, postID, u.ID, typ)
		if err != nil {
			return err
		}
		if !existed {
			return fmt.Errorf("engagement %s by %s on %s: %w", typ, u.ID, postID, model.ErrNotFound)
		}
		p, err = recompute(ctx, tx, cur)
		return err
	})
	if err != nil {
		return model.Post{}, err
	}
	metrics.FrequencyRecomputes.Inc()
	e.index(ctx, p)
	logging.Info("engagement_retracted", map[string]any{"user_id": userID, "post_id": postID, "type": string(typ), "frequency": p.Frequency})
	return p, nil
}
