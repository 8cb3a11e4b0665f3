package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/spectrumcare/caredoc/internal/common"
	"github.com/spectrumcare/caredoc/internal/interfaces"
)

// ClaudeService implements the LLMService interface using the Anthropic
// Claude API. It provides chat completions using Claude models.
type ClaudeService struct {
	config    *common.ClaudeConfig
	logger    arbor.ILogger
	client    *anthropic.Client
	limiter   *rate.Limiter
	timeout   time.Duration
	maxTokens int
}

// convertMessagesToClaude converts []interfaces.Message to Claude MessageParam
// format, maintaining chronological ordering. System messages are extracted
// separately for use with the System parameter; the first one wins.
func convertMessagesToClaude(messages []interfaces.Message) ([]anthropic.MessageParam, string, error) {
	if len(messages) == 0 {
		return nil, "", fmt.Errorf("messages cannot be empty")
	}

	hasUserMessage := false
	for _, msg := range messages {
		if msg.Role == "user" {
			hasUserMessage = true
			break
		}
	}
	if !hasUserMessage {
		return nil, "", fmt.Errorf("at least one message must have role 'user'")
	}

	claudeMessages := make([]anthropic.MessageParam, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		switch msg.Role {
		case "assistant":
			claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		default:
			// Unknown roles default to user.
			claudeMessages = append(claudeMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}

	return claudeMessages, systemText, nil
}

// NewClaudeService creates a new Claude LLM service instance.
//
// The service initialization includes:
//  1. Resolving the Anthropic API key (environment, KV store, config fallback)
//  2. Setting default model name if not specified
//  3. Parsing timeout and rate-limit durations from configuration
//  4. Initializing the Claude client
func NewClaudeService(claudeConfig *common.ClaudeConfig, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (*ClaudeService, error) {
	ctx := context.Background()
	apiKey, err := common.ResolveAPIKey(ctx, kvStorage, "anthropic_api_key", claudeConfig.APIKey)
	if err != nil {
		return nil, fmt.Errorf("Anthropic API key is required for Claude service (set via ANTHROPIC_API_KEY, CAREDOC_CLAUDE_API_KEY, or claude.api_key in config): %w", err)
	}

	if claudeConfig.Model == "" {
		claudeConfig.Model = "claude-haiku-3-5-20241022"
	}

	timeout, err := time.ParseDuration(claudeConfig.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", claudeConfig.Timeout, err)
	}

	maxTokens := claudeConfig.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	// Minimum interval between API calls. Zero or unparsable disables limiting.
	limiter := rate.NewLimiter(rate.Inf, 1)
	if claudeConfig.RateLimit != "" {
		if interval, perr := time.ParseDuration(claudeConfig.RateLimit); perr == nil && interval > 0 {
			limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	service := &ClaudeService{
		config:    claudeConfig,
		logger:    logger,
		client:    &client,
		limiter:   limiter,
		timeout:   timeout,
		maxTokens: maxTokens,
	}

	logger.Debug().
		Str("model", claudeConfig.Model).
		Dur("timeout", timeout).
		Float32("temperature", claudeConfig.Temperature).
		Int("max_tokens", maxTokens).
		Msg("Claude LLM service initialized successfully")

	return service, nil
}

// Chat generates a completion response based on the conversation history.
//
// The messages slice should contain the full conversation context in
// chronological order, including system prompts, user messages, and previous
// assistant responses.
func (s *ClaudeService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty for chat completion")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait interrupted: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()

	response, err := s.generateCompletion(timeoutCtx, messages)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("message_count", len(messages)).
			Msg("Claude chat completion failed")
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	s.logger.Debug().
		Int("message_count", len(messages)).
		Int("response_length", len(response)).
		Dur("duration", time.Since(startTime)).
		Msg("Claude chat completion completed successfully")

	return response, nil
}

// HealthCheck verifies the Claude service is operational and can handle
// requests. This includes a lightweight connectivity probe.
func (s *ClaudeService) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("Claude client is not initialized")
	}

	healthCheckCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	response, err := s.generateCompletion(healthCheckCtx, []interfaces.Message{
		{Role: "user", Content: "ping"},
	})
	if err != nil {
		return fmt.Errorf("Claude health check failed: %w", err)
	}

	if len(strings.TrimSpace(response)) == 0 {
		return fmt.Errorf("Claude probe returned empty response")
	}

	s.logger.Debug().
		Str("model", s.config.Model).
		Msg("Claude LLM service health check passed")

	return nil
}

// Close releases resources and performs cleanup operations.
func (s *ClaudeService) Close() error {
	s.logger.Debug().Msg("Closing Claude LLM service")
	// Claude client doesn't require explicit cleanup
	s.client = nil
	return nil
}

// generateCompletion encapsulates the Claude API chat completion logic.
func (s *ClaudeService) generateCompletion(ctx context.Context, messages []interfaces.Message) (string, error) {
	claudeMessages, systemText, err := convertMessagesToClaude(messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages to Claude format: %w", err)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Model),
		MaxTokens: int64(s.maxTokens),
		Messages:  claudeMessages,
	}

	if s.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(s.config.Temperature))
	}

	if systemText != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemText},
		}
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from Claude API")
	}

	return response.String(), nil
}
