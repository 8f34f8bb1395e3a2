package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ascended/internal/model"
)

func (t *Tx) CreateSpirit(ctx context.Context, s model.Spirit) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO spirits(user_id, element, experience, level, created_at) VALUES(?,?,?,?,?)`,
		s.UserID, string(s.Element), s.Experience, s.Level, toMillis(s.CreatedAt))
	if err != nil {
		return conflict(err, "spirit exists")
	}
	return t.appendEvolution(ctx, s.UserID, s.Evolution)
}

// GetSpirit loads a spirit with its full evolution history in append order.
func (t *Tx) GetSpirit(ctx context.Context, userID string) (model.Spirit, error) {
	var s model.Spirit
	var element string
	var created int64
	err := t.tx.QueryRowContext(ctx, `SELECT user_id, element, experience, level, created_at FROM spirits WHERE user_id=?`, userID).
		Scan(&s.UserID, &element, &s.Experience, &s.Level, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return s, fmt.Errorf("spirit: %w", model.ErrNotFound)
	}
	if err != nil {
		return s, err
	}
	s.Element = model.Element(element)
	s.CreatedAt = fromMillis(created)

	rows, err := t.tx.QueryContext(ctx, `SELECT action, experience_gain, leveled_up, new_level, ts FROM spirit_evolution WHERE user_id=? ORDER BY id`, userID)
	if err != nil {
		return s, err
	}
	defer rows.Close()
	for rows.Next() {
		var e model.EvolutionEntry
		var leveled int
		var ts int64
		if err := rows.Scan(&e.Action, &e.ExperienceGain, &leveled, &e.NewLevel, &ts); err != nil {
			return s, err
		}
		e.LeveledUp = leveled == 1
		e.Timestamp = fromMillis(ts)
		s.Evolution = append(s.Evolution, e)
	}
	return s, rows.Err()
}

// SaveSpirit stores new experience and level and appends the given entries.
// Existing history rows are never updated or deleted.
func (t *Tx) SaveSpirit(ctx context.Context, s model.Spirit, appended ...model.EvolutionEntry) error {
	if err := t.exec1(ctx, `UPDATE spirits SET experience=?, level=? WHERE user_id=? AND experience<=?`, s.Experience, s.Level, s.UserID, s.Experience); err != nil {
		return fmt.Errorf("save spirit %s: %w", s.UserID, err)
	}
	return t.appendEvolution(ctx, s.UserID, appended)
}

func (t *Tx) appendEvolution(ctx context.Context, userID string, entries []model.EvolutionEntry) error {
	for _, e := range entries {
		_, err := t.tx.ExecContext(ctx, `INSERT INTO spirit_evolution(user_id, action, experience_gain, leveled_up, new_level, ts) VALUES(?,?,?,?,?,?)`,
			userID, e.Action, e.ExperienceGain, boolInt(e.LeveledUp), e.NewLevel, toMillis(e.Timestamp))
		if err != nil {
			return err
		}
	}
	return nil
}
