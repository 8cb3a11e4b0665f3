package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/spectrumcare/caredoc/internal/common"
	"github.com/spectrumcare/caredoc/internal/interfaces"
)

// NewLLMService creates the appropriate LLM service implementation based on
// the configured provider.
func NewLLMService(cfg *common.Config, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (interfaces.LLMService, error) {
	logger.Info().Str("provider", string(cfg.LLM.Provider)).Msg("Initializing LLM service")

	switch cfg.LLM.Provider {
	case common.LLMProviderClaude:
		service, err := NewClaudeService(&cfg.Claude, kvStorage, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Claude service: %w", err)
		}
		return service, nil

	case common.LLMProviderGemini:
		service, err := NewGeminiService(&cfg.Gemini, kvStorage, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini service: %w", err)
		}
		return service, nil

	default:
		return nil, fmt.Errorf("invalid LLM provider '%s': must be 'claude' or 'gemini'", cfg.LLM.Provider)
	}
}

// Compile-time interface checks
var (
	_ interfaces.LLMService = (*ClaudeService)(nil)
	_ interfaces.LLMService = (*GeminiService)(nil)
)
