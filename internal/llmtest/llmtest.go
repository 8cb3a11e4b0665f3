// Package llmtest provides scripted LLMService fakes for pass and pipeline
// tests.
package llmtest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/spectrumcare/caredoc/internal/interfaces"
	"github.com/spectrumcare/caredoc/internal/services/llm"
)

// MockLLM replays canned responses and records every request prompt. If more
// calls arrive than responses were scripted, the last response repeats.
type MockLLM struct {
	mu        sync.Mutex
	responses []string
	calls     int

	// Requests holds the user-message content of each Chat call, in order.
	Requests []string
}

// NewMockLLM creates a mock that answers every Chat call with the given
// responses in order, repeating the final one once exhausted.
func NewMockLLM(responses ...string) *MockLLM {
	return &MockLLM{responses: responses}
}

func (m *MockLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var prompt strings.Builder
	for _, msg := range messages {
		prompt.WriteString(msg.Content)
		prompt.WriteString("\n")
	}
	m.Requests = append(m.Requests, prompt.String())

	if len(m.responses) == 0 {
		return "", errors.New("mock has no scripted responses")
	}

	i := m.calls
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	m.calls++

	return m.responses[i], nil
}

func (m *MockLLM) HealthCheck(ctx context.Context) error { return nil }
func (m *MockLLM) Close() error                          { return nil }

// CallCount reports how many Chat calls the mock has served.
func (m *MockLLM) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// FailingLLM fails every Chat call with a fixed error.
type FailingLLM struct {
	err error
}

// NewFailingLLM creates a provider whose Chat always returns err.
func NewFailingLLM(err error) *FailingLLM {
	return &FailingLLM{err: err}
}

func (f *FailingLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	return "", f.err
}

func (f *FailingLLM) HealthCheck(ctx context.Context) error { return f.err }
func (f *FailingLLM) Close() error                          { return nil }

// SelectiveLLM routes each Chat call by a marker substring found in the
// prompt, so a single provider can succeed for some passes and fail for
// others. Prompts matching no rule get the Default response.
type SelectiveLLM struct {
	mu      sync.Mutex
	rules   []selectiveRule
	Default string
}

type selectiveRule struct {
	marker   string
	response string
	err      error
}

// NewSelectiveLLM creates an empty selective provider with the given default
// response.
func NewSelectiveLLM(defaultResponse string) *SelectiveLLM {
	return &SelectiveLLM{Default: defaultResponse}
}

// Respond registers a canned response for prompts containing marker.
// Re-registering a marker replaces the earlier rule.
func (s *SelectiveLLM) Respond(marker, response string) *SelectiveLLM {
	s.setRule(selectiveRule{marker: marker, response: response})
	return s
}

// Fail registers an error for prompts containing marker. Re-registering a
// marker replaces the earlier rule.
func (s *SelectiveLLM) Fail(marker string, err error) *SelectiveLLM {
	s.setRule(selectiveRule{marker: marker, err: err})
	return s
}

func (s *SelectiveLLM) setRule(rule selectiveRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.rules {
		if existing.marker == rule.marker {
			s.rules[i] = rule
			return
		}
	}
	s.rules = append(s.rules, rule)
}

func (s *SelectiveLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var prompt strings.Builder
	for _, msg := range messages {
		prompt.WriteString(msg.Content)
		prompt.WriteString("\n")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rule := range s.rules {
		if strings.Contains(prompt.String(), rule.marker) {
			if rule.err != nil {
				return "", rule.err
			}
			return rule.response, nil
		}
	}

	return s.Default, nil
}

func (s *SelectiveLLM) HealthCheck(ctx context.Context) error { return nil }
func (s *SelectiveLLM) Close() error                          { return nil }

var (
	_ interfaces.LLMService = (*MockLLM)(nil)
	_ interfaces.LLMService = (*FailingLLM)(nil)
	_ interfaces.LLMService = (*SelectiveLLM)(nil)
)

// FastRetryConfig returns a retry config with millisecond backoffs so tests
// that exercise the retry path stay fast.
func FastRetryConfig() *llm.RetryConfig {
	return &llm.RetryConfig{
		MaxRetries:        1,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}
