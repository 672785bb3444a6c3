package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	httpclient "resume-analyzer/pkg/http"
)

type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderOllama Provider = "ollama"
	ProviderGroq   Provider = "groq"
	ProviderNone   Provider = "none"
)

const (
	openAIEndpoint = "https://api.openai.com/v1/chat/completions"
	groqEndpoint   = "https://api.groq.com/openai/v1/chat/completions"
	ollamaEndpoint = "http://localhost:11434/api/generate"
)

// Service is the language-model client behind the text fixer and the
// structured profile parser. Calls are slow, unreliable and rate-limited;
// callers must treat every method as failable.
type Service struct {
	provider Provider
	apiKey   string
	model    string
	client   *httpclient.Client
	logger   *zap.Logger
}

func NewService(provider, apiKey, model string, timeout time.Duration, logger *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = 600 * time.Second // large resumes on slow local models
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		provider: Provider(provider),
		apiKey:   apiKey,
		model:    model,
		client:   httpclient.NewClient(timeout),
		logger:   logger.With(zap.String("provider", provider), zap.String("model", model)),
	}
}

// generate sends a prompt to the configured provider and returns the raw
// completion text. jsonMode asks the provider for a JSON object response.
func (s *Service) generate(ctx context.Context, system, prompt string, jsonMode bool) (string, error) {
	switch s.provider {
	case ProviderOpenAI:
		return s.callChatCompletions(ctx, openAIEndpoint, system, prompt, jsonMode)
	case ProviderGroq:
		return s.callChatCompletions(ctx, groqEndpoint, system, prompt, jsonMode)
	case ProviderOllama:
		return s.callOllama(ctx, prompt, jsonMode)
	case ProviderNone, "":
		return "", fmt.Errorf("LLM provider not configured")
	default:
		return "", fmt.Errorf("unknown provider: %s", s.provider)
	}
}

func (s *Service) callChatCompletions(ctx context.Context, endpoint, system, prompt string, jsonMode bool) (string, error) {
	reqBody := map[string]interface{}{
		"model": s.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": prompt},
		},
		"temperature": 0.1,
	}
	if jsonMode {
		reqBody["response_format"] = map[string]string{"type": "json_object"}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := s.client.PostJSON(ctx, endpoint, map[string]string{
		"Authorization": "Bearer " + s.apiKey,
	}, jsonData)
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	defer resp.Body.Close()

	s.logger.Debug("chat completion finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("status", resp.StatusCode))

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("chat completion API error: %d", resp.StatusCode)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("chat completion error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}

	return result.Choices[0].Message.Content, nil
}

func (s *Service) callOllama(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	reqBody := map[string]interface{}{
		"model":  s.model,
		"prompt": prompt,
		"stream": false,
	}
	if jsonMode {
		reqBody["format"] = "json"
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := s.client.Post(ctx, ollamaEndpoint, "application/json", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("Ollama connection failed (is Ollama running?): %w", err)
	}
	defer resp.Body.Close()

	s.logger.Debug("ollama request finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("status", resp.StatusCode))

	var result struct {
		Response string `json:"response"`
		Error    string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.Error != "" {
		return "", fmt.Errorf("Ollama error: %s", result.Error)
	}

	return result.Response, nil
}
