package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"quiz_platform_backend/internal/config"
	"quiz_platform_backend/internal/util"
)

// ChatCompleter is the outbound contract of the question generation
// service: a chat/completion call returning free text.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []AIChatMessage) (string, error)
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model     string          `json:"model"`
	Messages  []AIChatMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens,omitempty"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// AIService 调用 OpenAI 兼容的 chat/completions 接口
type AIService struct {
	mu     sync.RWMutex
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout()},
	}
}

// UpdateConfig swaps model and credentials at runtime (config hot reload).
func (s *AIService) UpdateConfig(cfg config.AIConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	s.client = &http.Client{Timeout: cfg.Timeout()}
}

func (s *AIService) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Model
}

func (s *AIService) Complete(ctx context.Context, messages []AIChatMessage) (string, error) {
	s.mu.RLock()
	cfg := s.config
	client := s.client
	s.mu.RUnlock()

	reqBody := ChatCompletionRequest{
		Model:     cfg.Model,
		Messages:  messages,
		MaxTokens: cfg.MaxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", util.ErrUpstreamUnavailable, resp.StatusCode, truncate(string(body), 200))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: undecodable response: %v", util.ErrUpstreamUnavailable, err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("%w: %s", util.ErrUpstreamUnavailable, result.Error.Message)
	}

	if len(result.Choices) > 0 {
		return result.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("%w: AI returned no choices", util.ErrUpstreamUnavailable)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
