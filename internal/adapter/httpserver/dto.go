package httpserver

import (
	"time"

	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/domain"
)

// Request DTOs. Validation tags are enforced with go-playground/validator;
// field names in validation error details are lowercased to match the JSON.

type messageDTO struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,max=2000"`
}

type chatRequest struct {
	Message string       `json:"message" validate:"required,min=1,max=2000"`
	History []messageDTO `json:"history" validate:"omitempty,max=50,dive"`
	Level   string       `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
}

type correctRequest struct {
	Text    string `json:"text" validate:"required,min=1,max=1000"`
	Context string `json:"context" validate:"omitempty,max=1000"`
}

type translateRequest struct {
	Text   string `json:"text" validate:"required,min=1,max=1000"`
	Source string `json:"source" validate:"omitempty,oneof=nl en"`
	Target string `json:"target" validate:"omitempty,oneof=nl en"`
}

type vocabularyRequest struct {
	Messages []messageDTO `json:"messages" validate:"required,min=1,max=200,dive"`
	Limit    int          `json:"limit" validate:"omitempty,min=1,max=100"`
}

// Response DTOs. Degraded variants reuse the success shape with Fallback set
// and the error fields filled, so the UI renders every outcome the same way.

type suggestionDTO struct {
	Dutch   string `json:"dutch"`
	English string `json:"english"`
}

type vocabEntryDTO struct {
	Dutch    string `json:"dutch"`
	English  string `json:"english"`
	Category string `json:"category"`
}

type correctionDTO struct {
	Corrected   string `json:"corrected"`
	Explanation string `json:"explanation"`
	HasErrors   bool   `json:"has_errors"`
}

type tokenUsageDTO struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
}

type chatResponse struct {
	ID          string          `json:"id"`
	Topic       string          `json:"topic"`
	Reply       string          `json:"reply"`
	Translation string          `json:"translation"`
	Correction  *correctionDTO  `json:"correction,omitempty"`
	Suggestions []suggestionDTO `json:"suggestions"`
	Vocabulary  []vocabEntryDTO `json:"vocabulary"`
	Usage       *tokenUsageDTO  `json:"usage,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`

	Fallback bool   `json:"fallback,omitempty"`
	Error    string `json:"error,omitempty"`
	Details  string `json:"details,omitempty"`
}

type correctResponse struct {
	Original    string `json:"original"`
	Corrected   string `json:"corrected"`
	Explanation string `json:"explanation"`
	HasErrors   bool   `json:"has_errors"`

	Fallback bool   `json:"fallback,omitempty"`
	Error    string `json:"error,omitempty"`
	Details  string `json:"details,omitempty"`
}

type translateResponse struct {
	Translation string `json:"translation"`
	Source      string `json:"source"`
	Target      string `json:"target"`

	Fallback bool   `json:"fallback,omitempty"`
	Error    string `json:"error,omitempty"`
	Details  string `json:"details,omitempty"`
}

type vocabularyResponse struct {
	Items []vocabEntryDTO `json:"items"`
}

type topicSummaryDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	TitleNL     string `json:"title_nl"`
	Level       string `json:"level"`
	Description string `json:"description,omitempty"`
}

type topicDTO struct {
	topicSummaryDTO
	Starter            string          `json:"starter"`
	StarterTranslation string          `json:"starter_translation"`
	Suggestions        []suggestionDTO `json:"suggestions"`
	Vocabulary         []vocabEntryDTO `json:"vocabulary"`
}

func toSuggestionDTOs(in []domain.Suggestion) []suggestionDTO {
	out := make([]suggestionDTO, 0, len(in))
	for _, s := range in {
		out = append(out, suggestionDTO{Dutch: s.Dutch, English: s.English})
	}
	return out
}

func toVocabDTOs(in []domain.VocabEntry) []vocabEntryDTO {
	out := make([]vocabEntryDTO, 0, len(in))
	for _, v := range in {
		out = append(out, vocabEntryDTO{Dutch: v.Dutch, English: v.English, Category: v.Category})
	}
	return out
}

func toChatResponse(reply domain.TutorReply) chatResponse {
	resp := chatResponse{
		ID:          reply.ID,
		Topic:       reply.Topic,
		Reply:       reply.Reply,
		Translation: reply.Translation,
		Suggestions: toSuggestionDTOs(reply.Suggestions),
		Vocabulary:  toVocabDTOs(reply.Vocabulary),
		CreatedAt:   reply.CreatedAt,
	}
	if c := reply.Correction; c != nil {
		resp.Correction = &correctionDTO{Corrected: c.Corrected, Explanation: c.Explanation, HasErrors: c.HasErrors}
	}
	if u := reply.Usage; u != nil {
		resp.Usage = &tokenUsageDTO{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
			Model:            u.Model,
		}
	}
	return resp
}

func toTopicSummaryDTO(t domain.Topic) topicSummaryDTO {
	return topicSummaryDTO{
		ID:          t.ID,
		Title:       t.Title,
		TitleNL:     t.TitleNL,
		Level:       string(t.Level),
		Description: t.Description,
	}
}

func toTopicDTO(t domain.Topic) topicDTO {
	return topicDTO{
		topicSummaryDTO:    toTopicSummaryDTO(t),
		Starter:            t.Starter,
		StarterTranslation: t.StarterTranslation,
		Suggestions:        toSuggestionDTOs(t.Suggestions),
		Vocabulary:         toVocabDTOs(t.Vocabulary),
	}
}

func toMessages(in []messageDTO) []domain.Message {
	out := make([]domain.Message, 0, len(in))
	for _, m := range in {
		out = append(out, domain.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
