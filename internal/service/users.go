package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"ascended/internal/model"
	"ascended/internal/spirit"
	"ascended/internal/store/sqlite"
)

type CreateUserInput struct {
	Email    string
	Username string
	Premium  bool
	// Optional; derived from the user id when empty.
	Element string
}

// CreateUser registers an authenticated identity with a full energy
// allotment and a level-1 spirit.
func (e *Engine) CreateUser(ctx context.Context, in CreateUserInput) (model.User, model.Spirit, error) {
	email := strings.TrimSpace(in.Email)
	username := strings.TrimSpace(in.Username)
	if _, err := mail.ParseAddress(email); err != nil {
		return model.User{}, model.Spirit{}, fmt.Errorf("%w: email %q", model.ErrInvalidInput, in.Email)
	}
	if username == "" || strings.ContainsAny(username, " \t\n") {
		return model.User{}, model.Spirit{}, fmt.Errorf("%w: username %q", model.ErrInvalidInput, in.Username)
	}
	now := e.now()
	u := model.User{
		ID:              e.newID(),
		Email:           email,
		Username:        username,
		IsPremium:       in.Premium,
		Energy:          e.ledger.Allotment(in.Premium),
		EnergyLastReset: now,
		Status:          model.UserActive,
		CreatedAt:       now,
	}
	element := spirit.ElementFor(u.ID)
	if in.Element != "" {
		el, err := model.ParseElement(in.Element)
		if err != nil {
			return model.User{}, model.Spirit{}, fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
		}
		element = el
	}
	s := spirit.New(u.ID, element, now)
	err := e.db.Update(ctx, func(tx *sqlite.Tx) error {
		if err := tx.CreateUser(ctx, u); err != nil {
			return err
		}
		return tx.CreateSpirit(ctx, s)
	})
	if err != nil {
		return model.User{}, model.Spirit{}, err
	}
	return u, s, nil
}

// User loads a user by id, falling back to username.
func (e *Engine) User(ctx context.Context, ref string) (model.User, error) {
	var u model.User
	err := e.db.View(ctx, func(tx *sqlite.Tx) error {
		var err error
		u, err = resolveUser(ctx, tx, ref)
		return err
	})
	return u, err
}

func resolveUser(ctx context.Context, tx *sqlite.Tx, ref string) (model.User, error) {
	u, err := tx.GetUser(ctx, ref)
	if !errors.Is(err, model.ErrNotFound) {
		return u, err
	}
	return tx.GetUserByUsername(ctx, ref)
}

// SetPremium applies the billing collaborator's verdict.
func (e *Engine) SetPremium(ctx context.Context, userID string, premium bool) error {
	return e.db.Update(ctx, func(tx *sqlite.Tx) error {
		u, err := resolveUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		return tx.SetPremium(ctx, u.ID, premium)
	})
}

// SetStatus moves a user between soft lifecycle states.
func (e *Engine) SetStatus(ctx context.Context, userID string, status model.UserStatus) error {
	switch status {
	case model.UserActive, model.UserSuspended, model.UserDeactivated:
	default:
		return fmt.Errorf("%w: status %q", model.ErrInvalidInput, status)
	}
	return e.db.Update(ctx, func(tx *sqlite.Tx) error {
		u, err := resolveUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		return tx.SetStatus(ctx, u.ID, status)
	})
}

// AdjustAura is a moderation override and the only path that may lower aura.
func (e *Engine) AdjustAura(ctx context.Context, userID string, delta int) error {
	return e.db.Update(ctx, func(tx *sqlite.Tx) error {
		u, err := resolveUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		return tx.AddAura(ctx, u.ID, delta)
	})
}
