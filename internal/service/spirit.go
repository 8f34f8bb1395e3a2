package service

import (
	"context"

	"ascended/internal/model"
	"ascended/internal/spirit"
	"ascended/internal/store/sqlite"
)

type SpiritView struct {
	Spirit    model.Spirit
	Tier      int
	Symbol    string
	IntoLevel int
	ToNext    int
}

func (e *Engine) Spirit(ctx context.Context, userRef string) (SpiritView, error) {
	var s model.Spirit
	err := e.db.View(ctx, func(tx *sqlite.Tx) error {
		u, err := resolveUser(ctx, tx, userRef)
		if err != nil {
			return err
		}
		s, err = tx.GetSpirit(ctx, u.ID)
		return err
	})
	if err != nil {
		return SpiritView{}, err
	}
	tier := spirit.Tier(s.Level)
	into, toNext := spirit.ProgressToNext(s.Experience)
	return SpiritView{Spirit: s, Tier: tier, Symbol: spirit.Symbol(s.Element, tier), IntoLevel: into, ToNext: toNext}, nil
}
