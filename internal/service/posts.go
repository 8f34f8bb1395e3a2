package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"ascended/internal/analytics"
	"ascended/internal/logging"
	"ascended/internal/model"
	"ascended/internal/store/sqlite"
	"ascended/internal/util"
)

// maxContent bounds content length, in runes, per post type.
var maxContent = map[model.PostType]int{
	model.PostTypeSpark:  280,
	model.PostTypePost:   5000,
	model.PostTypeVision: 10000,
}

type CreatePostInput struct {
	AuthorID string
	Type     string
	Content  string
}

// CreatePost classifies and stores new content. Posts whose classifier output
// is outside the chakra enumeration are rejected unless a fallback is set.
func (e *Engine) CreatePost(ctx context.Context, in CreatePostInput) (model.Post, model.Spirit, error) {
	typ, err := model.ParsePostType(in.Type)
	if err != nil {
		return model.Post{}, model.Spirit{}, err
	}
	content := util.NormalizeWhitespace(in.Content)
	if content == "" {
		return model.Post{}, model.Spirit{}, fmt.Errorf("%w: empty content", model.ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(content); n > maxContent[typ] {
		return model.Post{}, model.Spirit{}, fmt.Errorf("%w: %s content is %d characters, max %d", model.ErrInvalidInput, typ, n, maxContent[typ])
	}
	// the author must exist before the external classifier is called
	if _, err := e.User(ctx, in.AuthorID); err != nil {
		return model.Post{}, model.Spirit{}, err
	}
	chakra, err := e.classifier.Classify(ctx, content)
	if err != nil {
		return model.Post{}, model.Spirit{}, err
	}

	now := e.now()
	p := model.Post{ID: e.newID(), Type: typ, Chakra: chakra, Content: content, CreatedAt: now}
	var s model.Spirit
	var awards []award
	err = e.db.Update(ctx, func(tx *sqlite.Tx) error {
		author, err := activeUser(ctx, tx, in.AuthorID)
		if err != nil {
			return err
		}
		p.AuthorID = author.ID
		if err := tx.CreatePost(ctx, p); err != nil {
			return err
		}
		var a *award
		s, a, err = e.grant(ctx, tx, author.ID, "post_created", now)
		if a != nil {
			awards = append(awards, *a)
		}
		return err
	})
	if err != nil {
		return model.Post{}, model.Spirit{}, err
	}
	recordAwards(awards)
	e.index(ctx, p)
	logging.Info("post_created", map[string]any{"post_id": p.ID, "author_id": p.AuthorID, "chakra": string(p.Chakra), "type": string(p.Type)})
	return p, s, nil
}

func (e *Engine) Post(ctx context.Context, id string) (model.Post, error) {
	var p model.Post
	err := e.db.View(ctx, func(tx *sqlite.Tx) error {
		var err error
		p, err = tx.GetPost(ctx, id)
		return err
	})
	return p, err
}

// Feed returns the highest-frequency posts of a chakra. The cache selects
// candidates when configured and populated, with the store as the fallback;
// either way the result is ordered by the store's frequency, newest first,
// then id.
func (e *Engine) Feed(ctx context.Context, chakra model.Chakra, limit int) ([]model.Post, error) {
	if !chakra.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidChakraCategory, chakra)
	}
	var ranked []string
	if e.feed != nil {
		rows, err := e.feed.Top(ctx, chakra, limit)
		if err != nil {
			logging.Warn("feed_cache_error", map[string]any{"chakra": string(chakra), "error": err})
		}
		for _, r := range rows {
			ranked = append(ranked, r.PostID)
		}
	}
	var out []model.Post
	err := e.db.View(ctx, func(tx *sqlite.Tx) error {
		if len(ranked) == 0 {
			var err error
			out, err = tx.ListPostsByChakra(ctx, chakra, limit)
			return err
		}
		for _, id := range ranked {
			p, err := tx.GetPost(ctx, id)
			if err != nil {
				logging.Warn("feed_cache_stale", map[string]any{"post_id": id, "error": err})
				continue
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, byRank)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// byRank is the feed order of the store query: frequency, newest first, id.
func byRank(a, b model.Post) int {
	if c := cmp.Compare(b.Frequency, a.Frequency); c != 0 {
		return c
	}
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// Activity returns a post's active engagements bucketed by hour.
func (e *Engine) Activity(ctx context.Context, postID string) ([]model.Engagement, error) {
	var evs []model.Engagement
	err := e.db.View(ctx, func(tx *sqlite.Tx) error {
		if _, err := tx.GetPost(ctx, postID); err != nil {
			return err
		}
		var err error
		evs, err = tx.EngagementsForPost(ctx, postID)
		return err
	})
	return evs, err
}

// recompute rescores a post from its full engagement set and stores it.
func recompute(ctx context.Context, tx *sqlite.Tx, p model.Post) (model.Post, error) {
	evs, err := tx.EngagementsForPost(ctx, p.ID)
	if err != nil {
		return p, err
	}
	f, err := analytics.ComputeFrequency(evs)
	if err != nil {
		return p, err
	}
	if err := tx.SetFrequency(ctx, p.ID, f); err != nil {
		return p, err
	}
	p.Frequency = f
	return p, nil
}
