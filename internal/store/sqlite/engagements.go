package sqlite

import (
	"context"
	"fmt"

	"ascended/internal/model"
)

// PutEngagement records an active engagement. A second engagement of the same
// type by the same user on the same post fails with model.ErrDuplicateEngagement.
func (t *Tx) PutEngagement(ctx context.Context, e model.Engagement) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO engagements(post_id, user_id, type, created_at) VALUES(?,?,?,?)`,
		e.PostID, e.UserID, string(e.Type), toMillis(e.CreatedAt))
	if isUnique(err) {
		return fmt.Errorf("%w: user %s %s on post %s", model.ErrDuplicateEngagement, e.UserID, e.Type, e.PostID)
	}
	return err
}

// DeleteEngagement removes an active engagement and reports whether one existed.
func (t *Tx) DeleteEngagement(ctx context.Context, postID, userID string, typ model.EngagementType) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM engagements WHERE post_id=? AND user_id=? AND type=?`, postID, userID, string(typ))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// EngagementsForPost returns the de-duplicated active set for a post.
func (t *Tx) EngagementsForPost(ctx context.Context, postID string) ([]model.Engagement, error) {
	return t.queryEngagements(ctx, `SELECT post_id, user_id, type, created_at FROM engagements WHERE post_id=? ORDER BY created_at, user_id, type`, postID)
}

// UserEngagements returns one user's active engagements on a post.
func (t *Tx) UserEngagements(ctx context.Context, postID, userID string) ([]model.Engagement, error) {
	return t.queryEngagements(ctx, `SELECT post_id, user_id, type, created_at FROM engagements WHERE post_id=? AND user_id=? ORDER BY type`, postID, userID)
}

func (t *Tx) queryEngagements(ctx context.Context, q string, args ...any) ([]model.Engagement, error) {
	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Engagement
	for rows.Next() {
		var e model.Engagement
		var typ string
		var ts int64
		if err := rows.Scan(&e.PostID, &e.UserID, &typ, &ts); err != nil {
			return nil, err
		}
		e.Type = model.EngagementType(typ)
		e.CreatedAt = fromMillis(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}
