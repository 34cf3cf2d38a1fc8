package usecase

import (
	"fmt"

	"log/slog"

	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/adapter/ai"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/domain"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/observability"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/pkg/textx"
)

// TranslateService translates short texts between Dutch and English.
type TranslateService struct {
	AI    domain.AIClient
	Model string
}

// NewTranslateService constructs a TranslateService.
func NewTranslateService(aiClient domain.AIClient, model string) TranslateService {
	return TranslateService{AI: aiClient, Model: model}
}

// Translate translates text in the given direction. Empty source and target
// default to nl→en; a lone target implies the opposite source.
func (s TranslateService) Translate(ctx domain.Context, text, source, target string) (domain.Translation, error) {
	text = textx.SanitizeText(text)
	if text == "" {
		return domain.Translation{}, fmt.Errorf("%w: empty text", domain.ErrInvalidArgument)
	}

	source, target, err := normalizeDirection(source, target)
	if err != nil {
		return domain.Translation{}, err
	}

	raw, err := s.AI.ChatJSON(ctx, TranslateSystemPrompt(source, target), TranslateUserPrompt(text), translateMaxTokens)
	if err != nil {
		return domain.Translation{}, err
	}

	out, err := ai.ParseTranslation(raw)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("translation failed validation", slog.Any("error", err))
		return domain.Translation{}, err
	}
	return domain.Translation{Text: out, Source: source, Target: target}, nil
}

// FallbackTranslation is the degraded payload for a failed translation call.
func FallbackTranslation(source, target string) domain.Translation {
	s, t, err := normalizeDirection(source, target)
	if err != nil {
		s, t = "nl", "en"
	}
	return domain.Translation{Text: "", Source: s, Target: t}
}

func normalizeDirection(source, target string) (string, string, error) {
	other := func(code string) string {
		if code == "nl" {
			return "en"
		}
		return "nl"
	}
	if source == "" && target == "" {
		return "nl", "en", nil
	}
	if source == "" {
		source = other(target)
	}
	if target == "" {
		target = other(source)
	}
	if !validLang(source) || !validLang(target) {
		return "", "", fmt.Errorf("%w: source and target must be nl or en", domain.ErrInvalidArgument)
	}
	if source == target {
		return "", "", fmt.Errorf("%w: source and target must differ", domain.ErrInvalidArgument)
	}
	return source, target, nil
}

func validLang(code string) bool { return code == "nl" || code == "en" }
