package passes

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/spectrumcare/caredoc/internal/interfaces"
	"github.com/spectrumcare/caredoc/internal/services/llm"
)

// Runner executes the analytical passes against a reasoning service. Each
// pass builds a natural-language instruction, sends it to the provider,
// strips markdown fences from the response, and decodes strict JSON into the
// pass's typed result. Failures are returned to the caller, which substitutes
// the pass-specific default under the best-effort aggregation policy.
type Runner struct {
	llmService interfaces.LLMService
	retry      *llm.RetryConfig
	logger     arbor.ILogger
}

// NewRunner creates a pass runner bound to the given reasoning service.
// A nil retry config falls back to the default backoff behavior.
func NewRunner(llmService interfaces.LLMService, retry *llm.RetryConfig, logger arbor.ILogger) *Runner {
	if retry == nil {
		retry = llm.NewDefaultRetryConfig()
	}
	return &Runner{
		llmService: llmService,
		retry:      retry,
		logger:     logger,
	}
}

// chatJSON sends an instruction to the reasoning service and returns the
// fence-cleaned response body, ready for JSON decoding.
func (r *Runner) chatJSON(ctx context.Context, passName, instruction string) (string, error) {
	messages := []interfaces.Message{
		{Role: "user", Content: instruction},
	}

	response, err := llm.ChatWithRetry(ctx, r.llmService, messages, r.retry, r.logger)
	if err != nil {
		return "", fmt.Errorf("%s pass request failed: %w", passName, err)
	}

	cleaned := cleanMarkdownFences(response)
	if cleaned == "" {
		return "", fmt.Errorf("%s pass returned empty response", passName)
	}

	return cleaned, nil
}

var fencePattern = regexp.MustCompile(`(?s)^\s*` + "```" + `(?:json|JSON)?\s*\n?(.*?)\n?\s*` + "```" + `\s*$`)

// cleanMarkdownFences removes markdown code fences from a model response.
func cleanMarkdownFences(s string) string {
	s = strings.TrimSpace(s)

	if matches := fencePattern.FindStringSubmatch(s); len(matches) > 1 {
		s = matches[1]
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}

// clampConfidence forces a model-reported confidence into [0,1].
func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// truncateForPrompt bounds the text embedded in an instruction so a very
// large document does not blow the provider's context window.
func truncateForPrompt(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "\n[... document truncated ...]"
}

const promptTextLimit = 24000
