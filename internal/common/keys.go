package common

import (
	"context"
	"fmt"
	"os"

	"github.com/spectrumcare/caredoc/internal/interfaces"
)

// keyToEnv maps KV store key names to their environment variable overrides.
// Environment variables have highest priority, then the KV store, then the
// config file fallback.
var keyToEnv = map[string][]string{
	"anthropic_api_key": {"ANTHROPIC_API_KEY", "CAREDOC_CLAUDE_API_KEY"},
	"gemini_api_key":    {"GEMINI_API_KEY", "CAREDOC_GEMINI_API_KEY"},
}

// ResolveAPIKey resolves an API key with priority: environment -> KV store ->
// config fallback.
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	for _, envName := range keyToEnv[name] {
		if value := os.Getenv(envName); value != "" {
			return value, nil
		}
	}

	if kvStorage != nil {
		if value, err := kvStorage.Get(ctx, name); err == nil && value != "" {
			return value, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}
