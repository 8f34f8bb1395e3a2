// Package chakra defines the classification collaborator contract and the
// validation every classifier output passes before it reaches a post.
package chakra

import (
	"context"
	"fmt"
	"time"

	"ascended/internal/config"
	"ascended/internal/logging"
	"ascended/internal/metrics"
	"ascended/internal/model"
)

// Classifier assigns a raw category string to post content. Its output is
// untrusted until Validate accepts it.
type Classifier interface {
	Classify(ctx context.Context, content string) (string, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, content string) (string, error)

func (f ClassifierFunc) Classify(ctx context.Context, content string) (string, error) {
	return f(ctx, content)
}

// Validate accepts raw only if it names one of the seven chakras.
func Validate(raw string) (model.Chakra, error) {
	return model.ParseChakra(raw)
}

// Guard validates a classifier's output before it is persisted.
type Guard struct {
	inner    Classifier
	fallback model.Chakra
}

// NewGuard wraps c. An empty fallback rejects out-of-domain outputs; a valid
// one is substituted for them instead.
func NewGuard(c Classifier, fallback string) (*Guard, error) {
	g := &Guard{inner: c}
	if fallback != "" {
		fb, err := Validate(fallback)
		if err != nil {
			return nil, fmt.Errorf("fallback: %w", err)
		}
		g.fallback = fb
	}
	return g, nil
}

// Classify returns a category that is guaranteed to be a member of the
// enumeration, or an error wrapping model.ErrInvalidChakraCategory.
func (g *Guard) Classify(ctx context.Context, content string) (model.Chakra, error) {
	start := time.Now()
	raw, err := g.inner.Classify(ctx, content)
	metrics.ObserveSince(metrics.ClassifierDuration, start)
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}
	c, err := Validate(raw)
	if err == nil {
		return c, nil
	}
	metrics.ClassifierRejections.Inc()
	if g.fallback == "" {
		logging.Warn("chakra_rejected", map[string]any{"raw": raw})
		return "", err
	}
	metrics.ClassifierFallbacks.Inc()
	logging.Warn("chakra_fallback", map[string]any{"raw": raw, "fallback": string(g.fallback)})
	return g.fallback, nil
}

// New builds the classifier selected by cfg.Provider.
func New(cfg config.ClassifierConfig) (Classifier, error) {
	switch cfg.Provider {
	case "", "keyword":
		return NewKeyword(), nil
	case "oracle":
		return NewOracle(cfg), nil
	}
	return nil, fmt.Errorf("unknown classifier provider %q", cfg.Provider)
}
