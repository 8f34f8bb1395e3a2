// Package spirit awards experience to a user's companion spirit and derives
// its level, tier and display symbol.
package spirit

import (
	"fmt"
	"hash/fnv"
	"time"

	"ascended/internal/model"
)

const (
	// ExperiencePerLevel is the experience needed to gain one level.
	ExperiencePerLevel = 100
	// LevelsPerTier groups levels 1-5, 6-10, ... into display tiers.
	LevelsPerTier = 5
)

// LevelFor returns floor(exp/100)+1.
func LevelFor(exp int) int {
	if exp < 0 {
		exp = 0
	}
	return exp/ExperiencePerLevel + 1
}

// Tier is derived from level at read time and never stored.
func Tier(level int) int {
	if level < 1 {
		level = 1
	}
	return (level-1)/LevelsPerTier + 1
}

// ProgressToNext returns experience earned within the current level and the
// amount still needed for the next one.
func ProgressToNext(exp int) (into, remaining int) {
	into = exp % ExperiencePerLevel
	return into, ExperiencePerLevel - into
}

// New creates a level-1 spirit with an empty history.
func New(userID string, element model.Element, now time.Time) model.Spirit {
	return model.Spirit{UserID: userID, Element: element, Level: 1, CreatedAt: now}
}

// ElementFor picks a stable element for a user who did not choose one.
func ElementFor(userID string) model.Element {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return model.Elements[h.Sum32()%uint32(len(model.Elements))]
}

// Award adds amount experience for action and appends exactly one evolution
// entry. The input spirit and its history slice are not modified.
func Award(s model.Spirit, action string, amount int, now time.Time) (model.Spirit, model.EvolutionEntry, error) {
	if amount < 0 {
		return s, model.EvolutionEntry{}, fmt.Errorf("%w: %d for %q", model.ErrInvalidExperienceAmount, amount, action)
	}
	oldLevel := LevelFor(s.Experience)
	next := s
	next.Experience = s.Experience + amount
	next.Level = LevelFor(next.Experience)

	entry := model.EvolutionEntry{
		Action:         action,
		ExperienceGain: amount,
		LeveledUp:      next.Level > oldLevel,
		NewLevel:       next.Level,
		Timestamp:      now,
	}
	history := make([]model.EvolutionEntry, len(s.Evolution), len(s.Evolution)+1)
	copy(history, s.Evolution)
	next.Evolution = append(history, entry)
	return next, entry, nil
}
