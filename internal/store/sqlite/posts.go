package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ascended/internal/model"
)

const postColumns = `id, author_id, chakra, type, content, frequency, created_at`

func (t *Tx) CreatePost(ctx context.Context, p model.Post) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO posts(`+postColumns+`) VALUES(?,?,?,?,?,?,?)`,
		p.ID, p.AuthorID, string(p.Chakra), string(p.Type), p.Content, p.Frequency, toMillis(p.CreatedAt))
	return conflict(err, "post id taken")
}

func (t *Tx) GetPost(ctx context.Context, id string) (model.Post, error) {
	var p model.Post
	var chakra, typ string
	var created int64
	err := t.tx.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id=?`, id).
		Scan(&p.ID, &p.AuthorID, &chakra, &typ, &p.Content, &p.Frequency, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("post: %w", model.ErrNotFound)
	}
	if err != nil {
		return p, err
	}
	p.Chakra = model.Chakra(chakra)
	p.Type = model.PostType(typ)
	p.CreatedAt = fromMillis(created)
	return p, nil
}

// SetFrequency stores a recomputed frequency. Chakra and author are never
// updated after creation.
func (t *Tx) SetFrequency(ctx context.Context, postID string, frequency int) error {
	return t.exec1(ctx, `UPDATE posts SET frequency=? WHERE id=?`, frequency, postID)
}

// ListPostsByChakra returns posts of one chakra by descending frequency.
// limit <= 0 returns all of them.
func (t *Tx) ListPostsByChakra(ctx context.Context, chakra model.Chakra, limit int) ([]model.Post, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := t.tx.QueryContext(ctx, `SELECT `+postColumns+` FROM posts WHERE chakra=? ORDER BY frequency DESC, created_at DESC, id LIMIT ?`, string(chakra), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Post
	for rows.Next() {
		var p model.Post
		var c, typ string
		var created int64
		if err := rows.Scan(&p.ID, &p.AuthorID, &c, &typ, &p.Content, &p.Frequency, &created); err != nil {
			return nil, err
		}
		p.Chakra = model.Chakra(c)
		p.Type = model.PostType(typ)
		p.CreatedAt = fromMillis(created)
		out = append(out, p)
	}
	return out, rows.Err()
}
