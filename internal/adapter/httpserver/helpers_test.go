package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	httpserver "github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/adapter/httpserver"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/config"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/domain"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/service/guard"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/usecase"
)

// stubAI returns a scripted response or error and counts its calls.
type stubAI struct {
	response string
	err      error
	calls    int
}

func (s *stubAI) ChatJSON(_ domain.Context, _, _ string, _ int) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type stubTopics struct{ topics map[string]domain.Topic }

func (s stubTopics) Get(id string) (domain.Topic, error) {
	t, ok := s.topics[id]
	if !ok {
		return domain.Topic{}, fmt.Errorf("%w: topic %q", domain.ErrNotFound, id)
	}
	return t, nil
}

func (s stubTopics) List() []domain.Topic {
	out := make([]domain.Topic, 0, len(s.topics))
	for _, t := range s.topics {
		out = append(out, t)
	}
	return out
}

type stubCounter struct{}

func (stubCounter) CountTokens(text, _ string) (int, error) {
	return utf8.RuneCountInString(text), nil
}

func (stubCounter) CalculateUsage(sys, user, completion, model, provider string) (*domain.TokenUsage, error) {
	p := utf8.RuneCountInString(sys) + utf8.RuneCountInString(user)
	c := utf8.RuneCountInString(completion)
	return &domain.TokenUsage{PromptTokens: p, CompletionTokens: c, TotalTokens: p + c, Model: model, Provider: provider}, nil
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
		},
	}
}

const validTutorJSON = `{
  "reply": "Lekker! Wat wil je erbij drinken?",
  "translation": "Nice! What would you like to drink with it?",
  "suggestions": [
    {"dutch": "Een koffie, graag.", "english": "A coffee, please."},
    {"dutch": "Gewoon water.", "english": "Just water."}
  ],
  "vocabulary": [{"dutch": "de tosti", "english": "the toastie", "category": "eten en drinken"}]
}`

const validCorrectionJSON = `{"corrected": "Ik wil graag een tosti.", "explanation": "Word order.", "has_errors": true}`

const validTranslationJSON = `{"translation": "I would like a coffee."}`

// guardCfg lets individual tests shrink limits and thresholds.
type guardCfg struct {
	chatLimit      int
	correctLimit   int
	translateLimit int
	vocabLimit     int
	window         time.Duration
	threshold      int
	resetTimeout   time.Duration
}

func defaultGuardCfg() guardCfg {
	return guardCfg{
		chatLimit:      30,
		correctLimit:   15,
		translateLimit: 20,
		vocabLimit:     20,
		window:         time.Minute,
		threshold:      5,
		resetTimeout:   30 * time.Second,
	}
}

func newTestServer(t *testing.T, aiClient domain.AIClient, gc guardCfg) *httpserver.Server {
	t.Helper()
	cfg := config.Config{AppEnv: "test", Port: 8080, ChatModel: "openai/gpt-4o-mini"}
	topics := stubTopics{topics: map[string]domain.Topic{"ordering-food": testTopic()}}

	chat := usecase.NewChatService(aiClient, topics, stubCounter{}, cfg.ChatModel, "openrouter", 700, 3000)
	correct := usecase.NewCorrectService(aiClient, cfg.ChatModel)
	translate := usecase.NewTranslateService(aiClient, cfg.ChatModel)
	vocab := usecase.NewVocabService()

	breaker := guard.NewBreaker(gc.threshold, gc.resetTimeout)
	chatGuard := guard.New("chat", guard.NewSlidingWindow(gc.chatLimit, gc.window, 100), breaker)
	correctGuard := guard.New("correct", guard.NewSlidingWindow(gc.correctLimit, gc.window, 100), breaker)
	translateGuard := guard.New("translate", guard.NewSlidingWindow(gc.translateLimit, gc.window, 100), breaker)
	vocabLimiter := guard.NewSlidingWindow(gc.vocabLimit, gc.window, 100)

	return httpserver.NewServer(cfg, chat, correct, translate, vocab, topics,
		chatGuard, correctGuard, translateGuard, vocabLimiter,
		func() int { return len(topics.topics) }, nil)
}

// jsonRequest builds a JSON POST with the Accept header the API expects.
func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	r := httptest.NewRequest(method, target, rd)
	r.Header.Set("Accept", "application/json")
	r.Header.Set("Content-Type", "application/json")
	return r
}

// withURLParam injects a chi route parameter the way the router would.
func withURLParam(r *http.Request, key, val string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, val)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.NoError(t, json.Unmarshal(b, out), "body: %s", string(b))
}
