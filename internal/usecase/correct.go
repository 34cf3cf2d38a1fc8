package usecase

import (
	"fmt"
	"strings"

	"log/slog"

	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/adapter/ai"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/domain"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/observability"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/pkg/textx"
)

// CorrectService checks a single learner sentence for grammar and spelling.
type CorrectService struct {
	AI    domain.AIClient
	Model string
}

// NewCorrectService constructs a CorrectService.
func NewCorrectService(aiClient domain.AIClient, model string) CorrectService {
	return CorrectService{AI: aiClient, Model: model}
}

// Correct asks the model for a correction of the given sentence. The
// optional contextLine is the conversation line the sentence replied to.
func (s CorrectService) Correct(ctx domain.Context, text, contextLine string) (domain.Correction, error) {
	text = textx.SanitizeText(text)
	if text == "" {
		return domain.Correction{}, fmt.Errorf("%w: empty text", domain.ErrInvalidArgument)
	}

	raw, err := s.AI.ChatJSON(ctx, correctSystemPrompt, CorrectUserPrompt(text, textx.SanitizeText(contextLine)), correctMaxTokens)
	if err != nil {
		return domain.Correction{}, err
	}

	c, err := ai.ParseCorrection(raw)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("correction failed validation", slog.Any("error", err))
		return domain.Correction{}, err
	}
	return c, nil
}

// FallbackCorrection returns the learner's sentence unchanged. Served when
// the upstream is unavailable so the UI still renders a correction card.
func FallbackCorrection(text string) domain.Correction {
	return domain.Correction{
		Corrected:   strings.TrimSpace(text),
		Explanation: "",
		HasErrors:   false,
	}
}
