package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/cyberai/server/internal/models"
)

type fakeModel struct {
	response string
	err      error

	gotMessages []llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.gotMessages = messages
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.response}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newTestService(model llms.Model) *Service {
	return &Service{
		model:            model,
		logger:           zap.NewNop(),
		maxHistoryTokens: defaultHistoryTokenBudget,
	}
}

func TestGenerateChatResponseNotConfigured(t *testing.T) {
	svc := &Service{logger: zap.NewNop(), maxHistoryTokens: defaultHistoryTokenBudget}

	_, err := svc.GenerateChatResponse(context.Background(), "hi", nil)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestGenerateChatResponseRoleMapping(t *testing.T) {
	fake := &fakeModel{response: "reply"}
	svc := newTestService(fake)

	history := []models.Message{
		{Role: models.RoleUser, Content: "question"},
		{Role: models.RoleAssistant, Content: "answer"},
	}

	got, err := svc.GenerateChatResponse(context.Background(), "follow-up", history)
	if err != nil {
		t.Fatalf("GenerateChatResponse failed: %v", err)
	}
	if got != "reply" {
		t.Errorf("expected %q, got %q", "reply", got)
	}

	wantRoles := []llms.ChatMessageType{
		llms.ChatMessageTypeSystem,
		llms.ChatMessageTypeHuman,
		llms.ChatMessageTypeAI,
		llms.ChatMessageTypeHuman,
	}
	if len(fake.gotMessages) != len(wantRoles) {
		t.Fatalf("expected %d messages, got %d", len(wantRoles), len(fake.gotMessages))
	}
	for i, want := range wantRoles {
		if fake.gotMessages[i].Role != want {
			t.Errorf("message %d: expected role %q, got %q", i, want, fake.gotMessages[i].Role)
		}
	}
}

func TestGenerateChatResponseEmptyReplyFallback(t *testing.T) {
	svc := newTestService(&fakeModel{response: "   "})

	got, err := svc.GenerateChatResponse(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("GenerateChatResponse failed: %v", err)
	}
	if got != emptyReplyFallback {
		t.Errorf("expected fallback apology, got %q", got)
	}
}

func TestProviderErrorClassification(t *testing.T) {
	cases := []struct {
		name string
		text string
		kind Kind
	}{
		{"invalid key", "API key not valid. Please pass a valid API key.", KindAuth},
		{"unauthorized", "401 unauthorized", KindAuth},
		{"quota", "429: quota exceeded for this project", KindQuota},
		{"rate limit", "rate limit reached, slow down", KindRateLimit},
		{"throttled", "429 too many requests", KindRateLimit},
		{"anything else", "connection reset by peer", KindGeneration},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(&fakeModel{err: errors.New(tc.text)})

			_, err := svc.GenerateChatResponse(context.Background(), "hi", nil)
			var provErr *ProviderError
			if !errors.As(err, &provErr) {
				t.Fatalf("expected ProviderError, got %v", err)
			}
			if provErr.Kind != tc.kind {
				t.Errorf("expected kind %v, got %v (message %q)", tc.kind, provErr.Kind, provErr.Message)
			}
			if provErr.Message == "" {
				t.Error("expected a user-facing message")
			}
		})
	}
}

func TestGenerateConversationTitle(t *testing.T) {
	svc := newTestService(&fakeModel{response: `  "Trip Planning"  `})

	got := svc.GenerateConversationTitle(context.Background(), "help me plan a trip")
	if got != "Trip Planning" {
		t.Errorf("expected quotes stripped and trimmed, got %q", got)
	}
}

func TestGenerateConversationTitleNeverFails(t *testing.T) {
	t.Run("provider failure", func(t *testing.T) {
		svc := newTestService(&fakeModel{err: errors.New("provider exploded")})
		if got := svc.GenerateConversationTitle(context.Background(), "hello"); got != defaultTitle {
			t.Errorf("expected %q, got %q", defaultTitle, got)
		}
	})

	t.Run("empty result", func(t *testing.T) {
		svc := newTestService(&fakeModel{response: `""`})
		if got := svc.GenerateConversationTitle(context.Background(), "hello"); got != defaultTitle {
			t.Errorf("expected %q, got %q", defaultTitle, got)
		}
	})

	t.Run("not configured", func(t *testing.T) {
		svc := &Service{logger: zap.NewNop()}
		if got := svc.GenerateConversationTitle(context.Background(), "hello"); got != defaultTitle {
			t.Errorf("expected %q, got %q", defaultTitle, got)
		}
	})
}

func TestGenerateConversationTitleTruncatesInput(t *testing.T) {
	fake := &fakeModel{response: "Long Message"}
	svc := newTestService(fake)

	svc.GenerateConversationTitle(context.Background(), strings.Repeat("x", 1000))

	if len(fake.gotMessages) != 1 {
		t.Fatalf("expected one prompt message, got %d", len(fake.gotMessages))
	}
	part, ok := fake.gotMessages[0].Parts[0].(llms.TextContent)
	if !ok {
		t.Fatalf("expected text part, got %T", fake.gotMessages[0].Parts[0])
	}
	if strings.Contains(part.Text, strings.Repeat("x", maxTitleInputChars+1)) {
		t.Error("expected first message truncated to 200 characters")
	}
	if !strings.Contains(part.Text, strings.Repeat("x", maxTitleInputChars)) {
		t.Error("expected truncated excerpt in prompt")
	}
}

func TestTrimHistoryKeepsNewestTurns(t *testing.T) {
	svc := newTestService(&fakeModel{})
	svc.maxHistoryTokens = 20

	history := []models.Message{
		{Role: models.RoleUser, Content: strings.Repeat("old ", 50)},
		{Role: models.RoleAssistant, Content: "recent answer"},
		{Role: models.RoleUser, Content: "recent question"},
	}

	trimmed := svc.trimHistory(history)
	if len(trimmed) == 0 || len(trimmed) == len(history) {
		t.Fatalf("expected a partial trim, got %d of %d", len(trimmed), len(history))
	}
	if trimmed[len(trimmed)-1].Content != "recent question" {
		t.Error("expected the newest turn to survive trimming")
	}
}
