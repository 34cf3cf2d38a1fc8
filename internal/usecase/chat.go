package usecase

import (
	"fmt"
	"time"

	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/adapter/ai"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/domain"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/observability"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/pkg/textx"
)

// ChatService produces one tutor turn per student message.
type ChatService struct {
	AI              domain.AIClient
	Topics          domain.TopicSource
	Counter         domain.TokenCounter
	Model           string
	Provider        string
	MaxReplyTokens  int
	MaxPromptTokens int
}

// NewChatService constructs a ChatService with its dependencies.
func NewChatService(aiClient domain.AIClient, topics domain.TopicSource, counter domain.TokenCounter, model, provider string, maxReplyTokens, maxPromptTokens int) ChatService {
	return ChatService{
		AI:              aiClient,
		Topics:          topics,
		Counter:         counter,
		Model:           model,
		Provider:        provider,
		MaxReplyTokens:  maxReplyTokens,
		MaxPromptTokens: maxPromptTokens,
	}
}

// Reply sends the conversation to the tutor model and returns the parsed
// turn. History is trimmed oldest-first into the prompt token budget.
// Upstream errors pass through unwrapped so the handler can classify them;
// schema failures surface as domain.ErrSchemaInvalid.
func (s ChatService) Reply(ctx domain.Context, topicID string, history []domain.Message, userText string, level domain.Level) (domain.TutorReply, error) {
	userText = textx.SanitizeText(userText)
	if userText == "" {
		return domain.TutorReply{}, fmt.Errorf("%w: empty message", domain.ErrInvalidArgument)
	}

	topic, err := s.Topics.Get(topicID)
	if err != nil {
		return domain.TutorReply{}, err
	}

	system := TutorSystemPrompt(topic, level)
	trimmed := TrimHistory(s.Counter, history, userText, system, s.Model, s.MaxPromptTokens)
	lg := observability.LoggerFromContext(ctx)
	if dropped := len(history) - len(trimmed); dropped > 0 {
		lg.Debug("trimmed chat history to prompt budget",
			slog.String("topic", topicID),
			slog.Int("dropped_turns", dropped),
			slog.Int("budget", s.MaxPromptTokens))
	}
	user := TutorUserPrompt(trimmed, userText)

	raw, err := s.AI.ChatJSON(ctx, system, user, s.MaxReplyTokens)
	if err != nil {
		return domain.TutorReply{}, err
	}

	reply, err := ai.ParseTutorReply(raw)
	if err != nil {
		lg.Warn("tutor reply failed validation",
			slog.String("topic", topicID),
			slog.Any("error", err))
		return domain.TutorReply{}, err
	}

	reply.ID = ulid.Make().String()
	reply.Topic = topicID
	reply.CreatedAt = time.Now().UTC()
	if usage, err := s.Counter.CalculateUsage(system, user, raw, s.Model, s.Provider); err == nil {
		reply.Usage = usage
	}
	return reply, nil
}

// Default suggestions for fallback turns when the topic has none of its own.
var fallbackSuggestions = []domain.Suggestion{
	{Dutch: "Kun je dat herhalen?", English: "Can you repeat that?"},
	{Dutch: "Wat betekent dat?", English: "What does that mean?"},
	{Dutch: "Laten we verdergaan.", English: "Let's continue."},
}

// FallbackReply builds the degraded turn served when the upstream call fails.
// The payload is always fully renderable: apologetic Dutch reply, translation
// and suggestions seeded from the topic.
func (s ChatService) FallbackReply(topicID string) domain.TutorReply {
	reply := domain.TutorReply{
		ID:          ulid.Make().String(),
		Topic:       topicID,
		Reply:       "Sorry, ik kan je bericht nu even niet beantwoorden. Probeer het over een momentje nog eens.",
		Translation: "Sorry, I cannot answer your message right now. Please try again in a moment.",
		CreatedAt:   time.Now().UTC(),
	}
	if topic, err := s.Topics.Get(topicID); err == nil && len(topic.Suggestions) > 0 {
		reply.Suggestions = topic.Suggestions
		if len(reply.Suggestions) > 3 {
			reply.Suggestions = reply.Suggestions[:3]
		}
	} else {
		reply.Suggestions = fallbackSuggestions
	}
	return reply
}
