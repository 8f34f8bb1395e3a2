package chakra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ascended/internal/config"
	"ascended/internal/metrics"
)

const oraclePrompt = "Classify the following post into exactly one chakra. " +
	"Answer with one word from: root, sacral, solar, heart, throat, third_eye, crown.\n\nPost: "

// Oracle asks a remote LLM endpoint for a chakra. Requests are rate limited
// and retried on 429/5xx.
type Oracle struct {
	endpoint    string
	model       string
	apiKey      string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	baseBackoff time.Duration
}

func NewOracle(cfg config.ClassifierConfig) *Oracle {
	rps := cfg.RPS
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Oracle{
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(rps), burst),
		maxAttempts: 3,
		baseBackoff: 250 * time.Millisecond,
	}
}

type oracleRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type oracleResponse struct {
	OutputText string `json:"output_text"`
	Chakra     string `json:"chakra"`
}

// Classify returns the oracle's answer normalized to lower snake case. The
// answer is not validated here.
func (o *Oracle) Classify(ctx context.Context, content string) (string, error) {
	if o.endpoint == "" {
		return "", errors.New("oracle endpoint not configured")
	}
	body, err := json.Marshal(oracleRequest{Model: o.model, Input: oraclePrompt + content})
	if err != nil {
		return "", err
	}
	if err := o.limiter.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := o.doWithRetry(ctx, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("oracle status %d", resp.StatusCode)
	}
	var out oracleResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode oracle response: %w", err)
	}
	answer := out.Chakra
	if answer == "" {
		answer = out.OutputText
	}
	return normalize(answer), nil
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, ".!\"'")
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '-' }), "_")
}

func (o *Oracle) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}
	return req, nil
}

func (o *Oracle) doWithRetry(ctx context.Context, body []byte) (*http.Response, error) {
	backoff := o.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		if attempt > 1 {
			metrics.OracleRetries.Inc()
		}
		req, err := o.newRequest(ctx, body)
		if err != nil {
			return nil, err
		}
		resp, err := o.httpClient.Do(req)
		if err == nil {
			if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
				return resp, nil
			}
			lastErr = fmt.Errorf("oracle status %d", resp.StatusCode)
			wait := backoff
			if secs, perr := strconv.Atoi(resp.Header.Get("Retry-After")); perr == nil && secs >= 0 {
				wait = time.Duration(secs) * time.Second
			}
			_ = resp.Body.Close()
			if attempt == o.maxAttempts {
				break
			}
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
			backoff *= 2
			continue
		}
		lastErr = err
		if attempt == o.maxAttempts {
			break
		}
		if err := sleep(ctx, backoff); err != nil {
			return nil, err
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("oracle failed after %d attempts: %w", o.maxAttempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
