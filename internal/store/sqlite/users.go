package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ascended/internal/model"
)

const userColumns = `id, email, username, aura, energy, energy_last_reset, is_premium, status, created_at`

func (t *Tx) CreateUser(ctx context.Context, u model.User) error {
	if u.Status == "" {
		u.Status = model.UserActive
	}
	_, err := t.tx.ExecContext(ctx, `INSERT INTO users(`+userColumns+`) VALUES(?,?,?,?,?,?,?,?,?)`,
		u.ID, u.Email, u.Username, u.Aura, u.Energy, toMillis(u.EnergyLastReset), boolInt(u.IsPremium), string(u.Status), toMillis(u.CreatedAt))
	return conflict(err, "email or username taken")
}

func (t *Tx) GetUser(ctx context.Context, id string) (model.User, error) {
	return scanUser(t.tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id))
}

func (t *Tx) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	return scanUser(t.tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username=?`, username))
}

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	var reset, created int64
	var premium int
	var status string
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.Aura, &u.Energy, &reset, &premium, &status, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return u, fmt.Errorf("user: %w", model.ErrNotFound)
	}
	if err != nil {
		return u, err
	}
	u.EnergyLastReset = fromMillis(reset)
	u.IsPremium = premium == 1
	u.Status = model.UserStatus(status)
	u.CreatedAt = fromMillis(created)
	return u, nil
}

// SaveEnergy persists a ledger result for a user.
func (t *Tx) SaveEnergy(ctx context.Context, userID string, balance int, lastReset time.Time) error {
	return t.exec1(ctx, `UPDATE users SET energy=?, energy_last_reset=? WHERE id=?`, balance, toMillis(lastReset), userID)
}

// AddAura credits reputation. Aura only decreases through moderation, which
// passes a negative delta explicitly.
func (t *Tx) AddAura(ctx context.Context, userID string, delta int) error {
	return t.exec1(ctx, `UPDATE users SET aura=aura+? WHERE id=?`, delta, userID)
}

func (t *Tx) SetStatus(ctx context.Context, userID string, status model.UserStatus) error {
	return t.exec1(ctx, `UPDATE users SET status=? WHERE id=?`, string(status), userID)
}

func (t *Tx) SetPremium(ctx context.Context, userID string, premium bool) error {
	return t.exec1(ctx, `UPDATE users SET is_premium=? WHERE id=?`, boolInt(premium), userID)
}

// exec1 runs a statement that must touch exactly one row.
func (t *Tx) exec1(ctx context.Context, q string, args ...any) error {
	res, err := t.tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
