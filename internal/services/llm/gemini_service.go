package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/spectrumcare/caredoc/internal/common"
	"github.com/spectrumcare/caredoc/internal/interfaces"
)

// GeminiService implements the LLMService interface using the Google Gemini
// API. It provides chat completions using Gemini models.
type GeminiService struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// convertMessagesToGemini converts []interfaces.Message to Gemini Content
// format, maintaining chronological ordering. System messages are extracted
// separately for use with SystemInstruction; the first one wins.
func convertMessagesToGemini(messages []interfaces.Message) ([]*genai.Content, string, error) {
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

	contents := make([]*genai.Content, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		var geminiRole string
		switch msg.Role {
		case "assistant":
			geminiRole = genai.RoleModel
		default:
			// Unknown roles default to user.
			geminiRole = genai.RoleUser
		}

		contents = append(contents, &genai.Content{
			Role:  geminiRole,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
		})
	}

	return contents, systemText, nil
}

// NewGeminiService creates a new Gemini LLM service instance.
//
// The service initialization includes:
//  1. Resolving the Gemini API key (environment, KV store, config fallback)
//  2. Setting default model name if not specified
//  3. Parsing timeout and rate-limit durations from configuration
//  4. Initializing the genai client
func NewGeminiService(geminiConfig *common.GeminiConfig, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (*GeminiService, error) {
	ctx := context.Background()
	apiKey, err := common.ResolveAPIKey(ctx, kvStorage, "gemini_api_key", geminiConfig.APIKey)
	if err != nil {
		return nil, fmt.Errorf("Gemini API key is required for Gemini service (set via GEMINI_API_KEY, CAREDOC_GEMINI_API_KEY, or gemini.api_key in config): %w", err)
	}

	if geminiConfig.Model == "" {
		geminiConfig.Model = "gemini-3-flash-preview"
	}

	timeout, err := time.ParseDuration(geminiConfig.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", geminiConfig.Timeout, err)
	}

	// Minimum interval between API calls. The free tier allows 15 RPM,
	// so the default config spaces requests 4s apart.
	limiter := rate.NewLimiter(rate.Inf, 1)
	if geminiConfig.RateLimit != "" {
		if interval, perr := time.ParseDuration(geminiConfig.RateLimit); perr == nil && interval > 0 {
			limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	service := &GeminiService{
		config:  geminiConfig,
		logger:  logger,
		client:  client,
		limiter: limiter,
		timeout: timeout,
	}

	logger.Debug().
		Str("model", geminiConfig.Model).
		Dur("timeout", timeout).
		Msg("Gemini LLM service initialized successfully")

	return service, nil
}

// Chat generates a completion response based on the conversation history.
//
// The messages slice should contain the full conversation context in
// chronological order, including system prompts, user messages, and previous
// assistant responses.
func (s *GeminiService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
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
			Msg("Gemini chat completion failed")
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	s.logger.Debug().
		Int("message_count", len(messages)).
		Int("response_length", len(response)).
		Dur("duration", time.Since(startTime)).
		Msg("Gemini chat completion completed successfully")

	return response, nil
}

// HealthCheck verifies the Gemini service is operational and can handle
// requests. This includes a lightweight connectivity probe.
func (s *GeminiService) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("genai client is not initialized")
	}

	healthCheckCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	response, err := s.generateCompletion(healthCheckCtx, []interfaces.Message{
		{Role: "user", Content: "ping"},
	})
	if err != nil {
		return fmt.Errorf("Gemini health check failed: %w", err)
	}

	if len(strings.TrimSpace(response)) == 0 {
		return fmt.Errorf("Gemini probe returned empty response")
	}

	s.logger.Debug().
		Str("model", s.config.Model).
		Msg("Gemini LLM service health check passed")

	return nil
}

// Close releases resources and performs cleanup operations.
func (s *GeminiService) Close() error {
	s.logger.Debug().Msg("Closing Gemini LLM service")
	// genai.Client doesn't require explicit cleanup
	s.client = nil
	return nil
}

// generateCompletion encapsulates the Gemini API chat completion logic.
func (s *GeminiService) generateCompletion(ctx context.Context, messages []interfaces.Message) (string, error) {
	geminiContents, systemText, err := convertMessagesToGemini(messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages to Gemini format: %w", err)
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.config.Temperature),
	}

	if systemText != "" {
		config.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.config.Model, geminiContents, config)
	if err != nil {
		return "", fmt.Errorf("chat generation failed: %w", err)
	}

	// Iterate candidates until non-empty text is found.
	var response strings.Builder
	if resp != nil && len(resp.Candidates) > 0 {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from chat model")
	}

	return response.String(), nil
}
