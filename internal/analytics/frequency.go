package analytics

import (
	"fmt"

	"ascended/internal/model"
)

// energyPerPoint is the number of energy engagements worth one frequency
// point (0.2 per event, truncated on the aggregate).
const energyPerPoint = 5

// Weight is the frequency contribution of a single vote or like.
// Energy engagements are not weighted individually; see Tally.Frequency.
func Weight(t model.EngagementType) int {
	switch t {
	case model.EngagementUpvote, model.EngagementLike:
		return 1
	case model.EngagementDownvote:
		return -1
	}
	return 0
}

// Tally counts active engagements by type.
type Tally struct {
	Upvotes   int
	Downvotes int
	Likes     int
	Energy    int
}

// Frequency is upvotes - downvotes + likes + floor(energy/5). The result is
// signed; use DisplayFrequency for presentation.
func (t Tally) Frequency() int {
	return t.Upvotes - t.Downvotes + t.Likes + t.Energy/energyPerPoint
}

func (t *Tally) count(typ model.EngagementType) *int {
	switch typ {
	case model.EngagementUpvote:
		return &t.Upvotes
	case model.EngagementDownvote:
		return &t.Downvotes
	case model.EngagementLike:
		return &t.Likes
	case model.EngagementEnergy:
		return &t.Energy
	}
	return nil
}

// Apply moves one user's engagement from one type to another (either side
// may be EngagementNone) and returns the new tally with the frequency delta.
// Removing an engagement the tally does not hold fails with
// model.ErrInconsistentTally and leaves t unchanged.
func (t Tally) Apply(from, to model.EngagementType) (Tally, int, error) {
	before := t.Frequency()
	next := t
	if p := next.count(from); p != nil {
		if *p == 0 {
			return t, 0, fmt.Errorf("%w: no %s to remove", model.ErrInconsistentTally, from)
		}
		*p--
	}
	if p := next.count(to); p != nil {
		*p++
	}
	return next, next.Frequency() - before, nil
}

// Delta is the frequency change of the transition from -> to on a post that
// currently holds energyBefore energy engagements. When from is an energy
// engagement it is one of those energyBefore, so energyBefore must be at
// least 1.
func Delta(from, to model.EngagementType, energyBefore int) (int, error) {
	if energyBefore < 0 {
		return 0, fmt.Errorf("%w: %d energy engagements", model.ErrInconsistentTally, energyBefore)
	}
	t := Tally{Energy: energyBefore}
	if from != model.EngagementEnergy {
		if p := t.count(from); p != nil {
			*p = 1
		}
	}
	_, d, err := t.Apply(from, to)
	return d, err
}

// TallyOf counts events without validating them.
func TallyOf(events []model.Engagement) Tally {
	var t Tally
	for _, e := range events {
		if p := t.count(e.Type); p != nil {
			*p++
		}
	}
	return t
}

type engagementKey struct {
	post, user string
	typ        model.EngagementType
}

// ComputeFrequency scores the current engagement set of a post. Two active
// engagements of the same type from the same user on the same post are
// rejected rather than double counted.
func ComputeFrequency(events []model.Engagement) (int, error) {
	seen := make(map[engagementKey]struct{}, len(events))
	for _, e := range events {
		if !e.Type.Valid() {
			return 0, fmt.Errorf("%w: %q", model.ErrInvalidEngagementType, e.Type)
		}
		k := engagementKey{e.PostID, e.UserID, e.Type}
		if _, dup := seen[k]; dup {
			return 0, fmt.Errorf("%w: user %s %s on post %s", model.ErrDuplicateEngagement, e.UserID, e.Type, e.PostID)
		}
		seen[k] = struct{}{}
	}
	return TallyOf(events).Frequency(), nil
}

// DisplayFrequency clamps a stored frequency for presentation.
func DisplayFrequency(f int) int {
	if f < 0 {
		return 0
	}
	return f
}
