package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/monatur/concierge/pkg/logging"
)

var fallbackTracer = otel.Tracer("concierge.internal.conversation.fallback")

const (
	fallbackTemperature = 0.5
	fallbackMaxTokens   = 260

	// neutralReply is returned whenever the model is unavailable or fails.
	// It is deliberately shorter than any acceptable model reply so the
	// router's degenerate-output guard converts it into the quick-help menu.
	neutralReply = "Entendi."

	unconfiguredReply = "Entendi. Me diz só mais um detalhe pra eu te orientar melhor."
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// FallbackResponder produces free-text replies for messages no scripted rule
// claimed. It never fails: any error degrades to a neutral reply that the
// caller treats as "the model had nothing useful".
type FallbackResponder struct {
	client       chatClient
	model        string
	systemPrompt string
	timeout      time.Duration
	logger       *logging.Logger
}

// NewFallbackResponder builds a responder around an OpenAI-compatible client.
// A nil client is valid and yields a fixed clarifying reply, so the engine
// runs without credentials.
func NewFallbackResponder(client chatClient, model, systemPrompt string, timeout time.Duration, logger *logging.Logger) *FallbackResponder {
	if model == "" {
		model = "gpt-4.1-mini"
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackResponder{
		client:       client,
		model:        model,
		systemPrompt: systemPrompt,
		timeout:      timeout,
		logger:       logger,
	}
}

// Reply generates a response for userText given the bounded prior history.
// The returned string is always non-empty.
func (f *FallbackResponder) Reply(ctx context.Context, history []Turn, userText string) string {
	if f == nil || f.client == nil {
		return unconfiguredReply
	}

	ctx, span := fallbackTracer.Start(ctx, "conversation.fallback")
	defer span.End()
	span.SetAttributes(attribute.Int("concierge.history_turns", len(history)))

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: f.systemPrompt,
	})
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userText,
	})

	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       f.model,
		Messages:    messages,
		Temperature: fallbackTemperature,
		MaxTokens:   fallbackMaxTokens,
	})
	if err != nil {
		err = fmt.Errorf("conversation: completion failed: %w", err)
		span.RecordError(err)
		f.logger.Warn("llm fallback failed", "error", err)
		return neutralReply
	}
	if len(resp.Choices) == 0 {
		err := errors.New("conversation: completion returned no choices")
		span.RecordError(err)
		f.logger.Warn("llm fallback failed", "error", err)
		return neutralReply
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return neutralReply
	}
	return reply
}
