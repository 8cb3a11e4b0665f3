package llm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/spectrumcare/caredoc/internal/interfaces"
)

// RetryConfig defines retry behavior for transient LLM API failures,
// primarily rate limit responses.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 2)
	MaxRetries int

	// InitialBackoff is the wait time before the first retry (default: 2s)
	InitialBackoff time.Duration

	// MaxBackoff is the maximum wait time between retries (default: 90s)
	MaxBackoff time.Duration

	// BackoffMultiplier is applied to backoff on each retry (default: 2.0)
	BackoffMultiplier float64
}

const (
	DefaultMaxRetries        = 2
	DefaultInitialBackoff    = 2 * time.Second
	DefaultMaxBackoff        = 90 * time.Second
	DefaultBackoffMultiplier = 2.0
)

// NewDefaultRetryConfig returns a RetryConfig with sensible defaults.
func NewDefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        DefaultMaxRetries,
		InitialBackoff:    DefaultInitialBackoff,
		MaxBackoff:        DefaultMaxBackoff,
		BackoffMultiplier: DefaultBackoffMultiplier,
	}
}

// IsRateLimitError checks if an error is a provider rate limit error.
// Matches 429 status codes and RESOURCE_EXHAUSTED/overloaded responses.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "overloaded") ||
		strings.Contains(errStr, "quota")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the API-suggested retry delay from an error
// message. Returns 0 if no delay is found.
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// CalculateBackoff computes the backoff duration for a given attempt.
// If apiDelay > 0 (from ExtractRetryDelay), it's used as the base.
// The result is capped at MaxBackoff.
func (c *RetryConfig) CalculateBackoff(attempt int, apiDelay time.Duration) time.Duration {
	base := c.InitialBackoff
	if apiDelay > 0 {
		// Use API-provided delay plus small buffer
		base = apiDelay + 5*time.Second
	}

	multiplier := 1.0
	for i := 0; i < attempt; i++ {
		multiplier *= c.BackoffMultiplier
	}

	backoff := time.Duration(float64(base) * multiplier)
	if backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}

	return backoff
}

// ChatWithRetry calls service.Chat, retrying rate-limited requests with
// exponential backoff. Non-rate-limit errors and context cancellation are
// returned immediately.
func ChatWithRetry(ctx context.Context, service interfaces.LLMService, messages []interfaces.Message, config *RetryConfig, logger arbor.ILogger) (string, error) {
	if config == nil {
		config = NewDefaultRetryConfig()
	}

	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := config.CalculateBackoff(attempt-1, ExtractRetryDelay(lastErr))
			logger.Warn().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Err(lastErr).
				Msg("Rate limited, backing off before retry")

			select {
			case <-ctx.Done():
				return "", fmt.Errorf("retry wait interrupted: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		response, err := service.Chat(ctx, messages)
		if err == nil {
			return response, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsRateLimitError(err) {
			return "", err
		}
	}

	return "", fmt.Errorf("chat failed after %d retries: %w", config.MaxRetries, lastErr)
}
