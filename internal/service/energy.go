package service

import (
	"context"
	"errors"
	"time"

	"ascended/internal/energy"
	"ascended/internal/logging"
	"ascended/internal/metrics"
	"ascended/internal/model"
	"ascended/internal/store/sqlite"
)

type BalanceView struct {
	Balance   int
	Allotment int
	ResetDue  bool
	NextReset time.Time
	Premium   bool
}

// Balance reports spendable energy without persisting a due reset.
func (e *Engine) Balance(ctx context.Context, userRef string) (BalanceView, error) {
	u, err := e.User(ctx, userRef)
	if err != nil {
		return BalanceView{}, err
	}
	now := e.now()
	acct := energy.AccountOf(u)
	bal, due := e.ledger.CurrentBalance(acct, now)
	return BalanceView{
		Balance:   bal,
		Allotment: e.ledger.Allotment(u.IsPremium),
		ResetDue:  due,
		NextReset: e.ledger.NextReset(acct, now),
		Premium:   u.IsPremium,
	}, nil
}

type SigilResult struct {
	Balance   int
	Spirit    model.Spirit
	LeveledUp bool
}

// GenerateSigil pays for a sigil from the user's energy. The sigil artwork
// itself comes from an external generator.
func (e *Engine) GenerateSigil(ctx context.Context, userID string) (SigilResult, error) {
	now := e.now()
	cost := e.energyCfg.SigilCost
	var res SigilResult
	var before, after energy.Account
	var awards []award
	err := e.db.Update(ctx, func(tx *sqlite.Tx) error {
		u, err := activeUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		before = energy.AccountOf(u)
		if after, err = e.debit(ctx, tx, u, cost, "sigil", now); err != nil {
			return err
		}
		res.Balance = after.Balance
		s, a, err := e.grant(ctx, tx, u.ID, "sigil_generated", now)
		if err != nil {
			return err
		}
		res.Spirit = s
		if a != nil {
			awards = append(awards, *a)
			res.LeveledUp = a.entry.LeveledUp
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrInsufficientEnergy) {
			metrics.EnergyInsufficient.WithLabelValues("sigil").Inc()
		}
		return SigilResult{}, err
	}
	recordDebit("sigil", before, after, cost)
	recordAwards(awards)
	logging.Info("sigil_generated", map[string]any{"user_id": userID, "balance": res.Balance})
	return res, nil
}
