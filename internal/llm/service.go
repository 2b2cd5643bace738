// Package llm wraps the generative-language provider behind two calls:
// chat replies and conversation titles.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/cyberai/server/internal/config"
	"github.com/cyberai/server/internal/models"
)

const personaPrompt = `You are Cyber AI, a knowledgeable and friendly assistant.
Answer clearly and concisely. When you are unsure, say so instead of guessing.`

const emptyReplyFallback = "I apologize, but I couldn't generate a response. Please try again."

const defaultTitle = "New Conversation"

const (
	maxTitleInputChars        = 200
	historyEncoding           = "cl100k_base"
	defaultHistoryTokenBudget = 4096
)

type Service struct {
	model            llms.Model
	logger           *zap.Logger
	encoder          *tiktoken.Tiktoken
	maxHistoryTokens int
}

// New builds the generator. A missing API key is not a construction error;
// the service comes up unconfigured and chat calls fail with ErrNotConfigured.
func New(cfg config.Config, logger *zap.Logger) (*Service, error) {
	svc := &Service{
		logger:           logger,
		maxHistoryTokens: defaultHistoryTokenBudget,
	}

	if enc, err := tiktoken.GetEncoding(historyEncoding); err != nil {
		logger.Warn("token encoding unavailable, falling back to byte estimate", zap.Error(err))
	} else {
		svc.encoder = enc
	}

	if cfg.APIKey == "" {
		logger.Warn("no Gemini API key configured, chat generation disabled")
		return svc, nil
	}

	model, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize provider client: %w", err)
	}
	svc.model = model

	return svc, nil
}

// GenerateChatResponse sends the history plus the new message to the provider
// and returns the reply text. History assistant turns are sent under the
// provider's own "ai" role tag.
func (s *Service) GenerateChatResponse(ctx context.Context, message string, history []models.Message) (string, error) {
	if s.model == nil {
		return "", ErrNotConfigured
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, personaPrompt),
	}
	for _, turn := range s.trimHistory(history) {
		role := llms.ChatMessageTypeHuman
		if turn.Role == models.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, turn.Content))
	}
	content = append(content, llms.TextParts(llms.ChatMessageTypeHuman, message))

	resp, err := s.model.GenerateContent(ctx, content)
	if err != nil {
		return "", classify(err)
	}

	var text string
	if len(resp.Choices) > 0 {
		text = strings.TrimSpace(resp.Choices[0].Content)
	}
	if text == "" {
		return emptyReplyFallback, nil
	}
	return text, nil
}

// GenerateConversationTitle summarizes the first message into a short title.
// It never fails: any provider problem yields the default title.
func (s *Service) GenerateConversationTitle(ctx context.Context, firstMessage string) string {
	if s.model == nil {
		return defaultTitle
	}

	excerpt := firstMessage
	if runes := []rune(excerpt); len(runes) > maxTitleInputChars {
		excerpt = string(runes[:maxTitleInputChars])
	}

	prompt := fmt.Sprintf(
		"Generate a short, descriptive title (maximum 50 characters) for a conversation that starts with the following message. Respond with the title only.\n\nMessage: %s",
		excerpt,
	)

	completion, err := llms.GenerateFromSinglePrompt(ctx, s.model, prompt)
	if err != nil {
		s.logger.Warn("title generation failed", zap.Error(err))
		return defaultTitle
	}

	title := strings.NewReplacer(`"`, "", "'", "", "`", "").Replace(completion)
	title = strings.TrimSpace(title)
	if title == "" {
		return defaultTitle
	}
	return title
}

// trimHistory drops the oldest turns once the token budget is exceeded, so
// long conversations keep their most recent context.
func (s *Service) trimHistory(history []models.Message) []models.Message {
	total := 0
	kept := 0
	for i := len(history) - 1; i >= 0; i-- {
		total += s.countTokens(history[i].Content)
		if total > s.maxHistoryTokens {
			break
		}
		kept++
	}
	return history[len(history)-kept:]
}

func (s *Service) countTokens(text string) int {
	if s.encoder != nil {
		return len(s.encoder.Encode(text, nil, nil))
	}
	return len(text)/4 + 1
}
