package spirit

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ascended/internal/model"
)

var now = time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)

func TestAwardCrossesLevel(t *testing.T) {
	s := model.Spirit{UserID: "u1", Element: model.ElementFire, Experience: 95, Level: 1}

	got, entry, err := Award(s, "post_upvoted", 10, now)
	require.NoError(t, err)
	assert.Equal(t, 105, got.Experience)
	assert.Equal(t, 2, got.Level)

	want := model.EvolutionEntry{Action: "post_upvoted", ExperienceGain: 10, LeveledUp: true, NewLevel: 2, Timestamp: now}
	if diff := cmp.Diff(want, entry); diff != "" {
		t.Fatalf("entry mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]model.EvolutionEntry{want}, got.Evolution); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestAwardWithinLevel(t *testing.T) {
	s := New("u1", model.ElementAir, now)
	got, entry, err := Award(s, "like_given", 1, now)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Level)
	assert.False(t, entry.LeveledUp)
	assert.Equal(t, 1, entry.NewLevel)
}

func TestAwardZeroAppendsEntry(t *testing.T) {
	s := New("u1", model.ElementAir, now)
	got, entry, err := Award(s, "noop", 0, now)
	require.NoError(t, err)
	assert.Len(t, got.Evolution, 1)
	assert.Equal(t, 0, entry.ExperienceGain)
}

func TestAwardRejectsNegative(t *testing.T) {
	s := model.Spirit{Experience: 250, Level: 3}
	got, _, err := Award(s, "penalty", -1, now)
	require.ErrorIs(t, err, model.ErrInvalidExperienceAmount)
	assert.Equal(t, s, got)
}

func TestAwardDoesNotAliasHistory(t *testing.T) {
	base := New("u1", model.ElementWater, now)
	base.Evolution = make([]model.EvolutionEntry, 1, 8)
	base.Evolution[0] = model.EvolutionEntry{Action: "first", NewLevel: 1}

	a, _, err := Award(base, "a", 1, now)
	require.NoError(t, err)
	b, _, err := Award(base, "b", 1, now)
	require.NoError(t, err)
	assert.Equal(t, "a", a.Evolution[1].Action)
	assert.Equal(t, "b", b.Evolution[1].Action)
	assert.Len(t, base.Evolution, 1)
}

// Every award keeps level == floor(exp/100)+1 and grows the history by one
// without touching earlier entries.
func TestLevelConsistencyAndAppendOnly(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := New("u1", model.ElementEarth, now)
	for i := 0; i < 500; i++ {
		prev := append([]model.EvolutionEntry(nil), s.Evolution...)
		var err error
		s, _, err = Award(s, "step", rng.Intn(60), now.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		require.Equal(t, s.Experience/100+1, s.Level)
		require.Len(t, s.Evolution, len(prev)+1)
		if diff := cmp.Diff(prev, s.Evolution[:len(prev)], cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("step %d rewrote history (-before +after):\n%s", i, diff)
		}
	}
}

func TestAccumulationIsOrderIndependent(t *testing.T) {
	amounts := []int{30, 70, 5, 95, 0, 120}
	forward := New("u", model.ElementFire, now)
	backward := New("u", model.ElementFire, now)
	for i := range amounts {
		forward, _, _ = Award(forward, "x", amounts[i], now)
		backward, _, _ = Award(backward, "x", amounts[len(amounts)-1-i], now)
	}
	assert.Equal(t, forward.Experience, backward.Experience)
	assert.Equal(t, forward.Level, backward.Level)
}

func TestTier(t *testing.T) {
	for level, want := range map[int]int{1: 1, 5: 1, 6: 2, 10: 2, 11: 3, 26: 6} {
		assert.Equal(t, want, Tier(level), "level %d", level)
	}
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, 1, LevelFor(0))
	assert.Equal(t, 1, LevelFor(99))
	assert.Equal(t, 2, LevelFor(100))
	assert.Equal(t, 11, LevelFor(1000))
}

func TestProgressToNext(t *testing.T) {
	into, rem := ProgressToNext(245)
	assert.Equal(t, 45, into)
	assert.Equal(t, 55, rem)
}

func TestElementForIsStable(t *testing.T) {
	e := ElementFor("user-123")
	assert.True(t, e.Valid())
	assert.Equal(t, e, ElementFor("user-123"))
}

func TestSymbol(t *testing.T) {
	assert.Equal(t, "🔥", Symbol(model.ElementFire, 2))
	assert.Equal(t, "☀", Symbol(model.ElementFire, 99))
	assert.Equal(t, "🌱", Symbol(model.ElementEarth, 0))
	assert.Equal(t, "✦", Symbol("void", 1))
}
