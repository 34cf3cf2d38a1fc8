package usecase

import (
	"fmt"
	"unicode/utf8"

	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/domain"
)

// fakeAI returns a scripted response and records the prompts it was given.
type fakeAI struct {
	response string
	err      error

	calls      int
	lastSystem string
	lastUser   string
	lastMax    int
}

func (f *fakeAI) ChatJSON(_ domain.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	f.calls++
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	f.lastMax = maxTokens
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeTopics struct {
	topics map[string]domain.Topic
}

func (f fakeTopics) Get(id string) (domain.Topic, error) {
	t, ok := f.topics[id]
	if !ok {
		return domain.Topic{}, fmt.Errorf("%w: topic %q", domain.ErrNotFound, id)
	}
	return t, nil
}

func (f fakeTopics) List() []domain.Topic {
	out := make([]domain.Topic, 0, len(f.topics))
	for _, t := range f.topics {
		out = append(out, t)
	}
	return out
}

// fakeCounter counts one token per rune so tests can pick budgets exactly.
type fakeCounter struct {
	err error
}

func (f fakeCounter) CountTokens(text, _ string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return utf8.RuneCountInString(text), nil
}

func (f fakeCounter) CalculateUsage(systemPrompt, userPrompt, completion, model, provider string) (*domain.TokenUsage, error) {
	if f.err != nil {
		return nil, f.err
	}
	p := utf8.RuneCountInString(systemPrompt) + utf8.RuneCountInString(userPrompt)
	c := utf8.RuneCountInString(completion)
	return &domain.TokenUsage{
		PromptTokens:     p,
		CompletionTokens: c,
		TotalTokens:      p + c,
		Model:            model,
		Provider:         provider,
	}, nil
}

func testTopic() domain.Topic {
	return domain.Topic{
		ID:                 "ordering-food",
		Title:              "Ordering food",
		TitleNL:            "Eten bestellen",
		Level:              domain.LevelBeginner,
		Persona:            "Je bent Sam, een vriendelijke serveerder in een klein café.",
		Starter:            "Goedemiddag! Wat mag het zijn?",
		StarterTranslation: "Good afternoon! What can I get you?",
		Suggestions: []domain.Suggestion{
			{Dutch: "Een koffie, alstublieft.", English: "A coffee, please."},
			{Dutch: "Mag ik de kaart zien?", English: "May I see the menu?"},
			{Dutch: "Wat is de soep van de dag?", English: "What is the soup of the day?"},
			{Dutch: "Doe maar een thee.", English: "I'll have a tea."},
		},
	}
}

func newTestChatService(aiClient *fakeAI) ChatService {
	topics := fakeTopics{topics: map[string]domain.Topic{"ordering-food": testTopic()}}
	return NewChatService(aiClient, topics, fakeCounter{}, "openai/gpt-4o-mini", "openrouter", 700, 0)
}

const validTutorJSON = `{
  "reply": "Lekker! Wat wil je erbij drinken?",
  "translation": "Nice! What would you like to drink with it?",
  "correction": {"corrected": "Ik wil graag een tosti.", "explanation": "Word order.", "has_errors": true},
  "suggestions": [
    {"dutch": "Een koffie, graag.", "english": "A coffee, please."},
    {"dutch": "Gewoon water.", "english": "Just water."},
    {"dutch": "Niets, dank je.", "english": "Nothing, thank you."}
  ],
  "vocabulary": [{"dutch": "de tosti", "english": "the toastie", "category": "eten en drinken"}]
}`
