package chakra

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ascended/internal/config"
	"ascended/internal/metrics"
	"ascended/internal/model"
)

func fixed(s string) Classifier {
	return ClassifierFunc(func(context.Context, string) (string, error) { return s, nil })
}

func TestValidateDomainClosure(t *testing.T) {
	for _, c := range model.Chakras {
		got, err := Validate(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	for _, raw := range []string{"unknown_chakra", "", "Heart", "third eye", "crown ", "solar_plexus"} {
		_, err := Validate(raw)
		assert.ErrorIs(t, err, model.ErrInvalidChakraCategory, "raw=%q", raw)
	}
}

func TestGuardRejectsOutOfDomain(t *testing.T) {
	g, err := NewGuard(fixed("unknown_chakra"), "")
	require.NoError(t, err)
	before := testutil.ToFloat64(metrics.ClassifierRejections)

	_, err = g.Classify(context.Background(), "anything")
	assert.ErrorIs(t, err, model.ErrInvalidChakraCategory)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ClassifierRejections))
}

func TestGuardFallback(t *testing.T) {
	g, err := NewGuard(fixed("unknown_chakra"), "heart")
	require.NoError(t, err)
	got, err := g.Classify(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, model.ChakraHeart, got)
}

func TestGuardPassesValidOutput(t *testing.T) {
	g, err := NewGuard(fixed("third_eye"), "root")
	require.NoError(t, err)
	got, err := g.Classify(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, model.ChakraThirdEye, got)
}

func TestGuardPropagatesClassifierError(t *testing.T) {
	boom := errors.New("oracle down")
	g, err := NewGuard(ClassifierFunc(func(context.Context, string) (string, error) { return "", boom }), "heart")
	require.NoError(t, err)
	_, err = g.Classify(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

func TestNewGuardRejectsInvalidFallback(t *testing.T) {
	_, err := NewGuard(fixed("root"), "aura")
	assert.ErrorIs(t, err, model.ErrInvalidChakraCategory)
}

func TestNewSelectsProvider(t *testing.T) {
	c, err := New(config.ClassifierConfig{Provider: "keyword"})
	require.NoError(t, err)
	assert.IsType(t, &Keyword{}, c)

	c, err = New(config.ClassifierConfig{Provider: "oracle", Endpoint: "http://localhost"})
	require.NoError(t, err)
	assert.IsType(t, &Oracle{}, c)

	_, err = New(config.ClassifierConfig{Provider: "tea_leaves"})
	assert.Error(t, err)
}
