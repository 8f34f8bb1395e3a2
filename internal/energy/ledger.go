// Package energy implements the monthly-replenished spendable energy balance.
//
// All functions are pure: the ledger holds configuration only and every
// operation is a function of the account snapshot passed in. Callers persist
// the account returned by Debit under their own per-user serialization.
package energy

import (
	"fmt"
	"time"

	"ascended/internal/config"
	"ascended/internal/model"
	"ascended/internal/schedule"
)

// Account is the slice of a user's state the ledger reads.
type Account struct {
	Balance   int
	LastReset time.Time
	Premium   bool
}

// AccountOf extracts the ledger view of u.
func AccountOf(u model.User) Account {
	return Account{Balance: u.Energy, LastReset: u.EnergyLastReset, Premium: u.IsPremium}
}

// Ledger applies allotment and reset rules from config.
type Ledger struct {
	cfg config.EnergyConfig
}

func NewLedger(cfg config.EnergyConfig) Ledger {
	if cfg.PremiumMultiplier < 1 {
		cfg.PremiumMultiplier = 1
	}
	if cfg.ResetCadence == "" {
		cfg.ResetCadence = config.CadenceCalendarMonth
	}
	return Ledger{cfg: cfg}
}

// Allotment is the balance an account receives at each reset.
func (l Ledger) Allotment(premium bool) int {
	if premium {
		return l.cfg.MonthlyAllotment * l.cfg.PremiumMultiplier
	}
	return l.cfg.MonthlyAllotment
}

// ResetDue reports whether acct starts a new period at now.
func (l Ledger) ResetDue(acct Account, now time.Time) bool {
	return schedule.ResetDue(l.cfg.ResetCadence, acct.LastReset, now)
}

// CurrentBalance returns the spendable balance at now and whether a reset is
// due. It never changes acct.
func (l Ledger) CurrentBalance(acct Account, now time.Time) (int, bool) {
	if l.ResetDue(acct, now) {
		return l.Allotment(acct.Premium), true
	}
	return acct.Balance, false
}

// NextReset returns when acct's next allotment becomes available.
func (l Ledger) NextReset(acct Account, now time.Time) time.Time {
	return schedule.NextReset(l.cfg.ResetCadence, acct.LastReset, now)
}

// Debit applies any due reset, then spends amount. On failure the returned
// account equals acct.
func (l Ledger) Debit(acct Account, amount int, now time.Time) (Account, error) {
	if amount < 0 {
		return acct, fmt.Errorf("%w: %d", model.ErrInvalidEnergyAmount, amount)
	}
	next := acct
	if bal, due := l.CurrentBalance(acct, now); due {
		next.Balance = bal
		next.LastReset = now
	}
	if amount > next.Balance {
		return acct, fmt.Errorf("%w: need %d, have %d", model.ErrInsufficientEnergy, amount, next.Balance)
	}
	next.Balance -= amount
	return next, nil
}

// Reset reports whether Debit moved the account into a new period.
func Reset(before, after Account) bool {
	return !after.LastReset.Equal(before.LastReset)
}
