package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// LLM answers a single prompt. Implementations must be safe for
// concurrent use.
type LLM interface {
	Query(ctx context.Context, model, text string) (string, error)
}

// LLMHandler talks to any OpenAI compatible chat endpoint (OpenAI,
// DashScope, Ollama and LM Studio all expose one under /v1).
type LLMHandler struct {
	client    *openai.Client
	systemMsg string
	logger    *logrus.Logger
}

var ErrEmptyResponse = errors.New("llm returned no choices")

// NewLLMHandler creates a handler. endpoint may be empty for api.openai.com.
func NewLLMHandler(apiKey, endpoint, systemPrompt string, logger *logrus.Logger) *LLMHandler {
	cfg := openai.DefaultConfig(apiKey)
	if endpoint != "" {
		cfg.BaseURL = strings.TrimRight(endpoint, "/")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LLMHandler{
		client:    openai.NewClientWithConfig(cfg),
		systemMsg: systemPrompt,
		logger:    logger,
	}
}

// Query sends one system+user exchange and returns the first choice.
func (h *LLMHandler) Query(ctx context.Context, model, text string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if h.systemMsg != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: h.systemMsg})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text})

	resp, err := h.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: 0,
	})
	if err != nil {
		h.logger.WithError(err).WithField("model", model).Warn("llm query failed")
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	h.logger.WithFields(logrus.Fields{
		"model":  model,
		"tokens": resp.Usage.TotalTokens,
	}).Debug("llm query done")
	return answer, nil
}
