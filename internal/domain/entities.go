package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNotFound            = errors.New("not found")
	ErrRateLimited         = errors.New("rate limited")
	ErrCircuitOpen         = errors.New("circuit open")
	ErrUpstreamTimeout     = errors.New("upstream timeout")
	ErrUpstreamRateLimit   = errors.New("upstream rate limit")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrSchemaInvalid       = errors.New("schema invalid")
	ErrInternal            = errors.New("internal error")
)

// Conversation roles as the UI sends them back.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single prior conversation turn.
type Message struct {
	Role    string
	Content string
}

// Level is a topic difficulty label.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Topic is a conversation scenario loaded from a YAML file.
// Invariants: ID unique across the store; Persona and Starter non-empty.
type Topic struct {
	ID                 string
	Title              string
	TitleNL            string
	Level              Level
	Description        string
	Persona            string
	Starter            string
	StarterTranslation string
	Suggestions        []Suggestion
	Vocabulary         []VocabEntry
}

// Suggestion is a ready-made reply the learner can tap.
type Suggestion struct {
	Dutch   string
	English string
}

// VocabEntry is one vocabulary item surfaced to the learner.
type VocabEntry struct {
	Dutch    string
	English  string
	Category string
}

// Correction is the tutor's grammar feedback on a learner sentence.
type Correction struct {
	Corrected   string
	Explanation string
	HasErrors   bool
}

// Translation is a completed nl<->en translation.
type Translation struct {
	Text   string
	Source string
	Target string
}

// TokenUsage mirrors chat-completions usage accounting.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
	Provider         string
}

// TutorReply is one complete tutor turn: the Dutch reply plus all the
// learning aids the UI renders around it.
type TutorReply struct {
	ID          string
	Topic       string
	Reply       string
	Translation string
	Correction  *Correction
	Suggestions []Suggestion
	Vocabulary  []VocabEntry
	Usage       *TokenUsage
	CreatedAt   time.Time
}

// AIClient (port)

type AIClient interface {
	// ChatJSON returns raw model output expected to carry a single JSON object; deterministic in mock mode
	ChatJSON(ctx Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// TopicSource (port)

type TopicSource interface {
	Get(id string) (Topic, error)
	List() []Topic
}

// TokenCounter (port)

type TokenCounter interface {
	CountTokens(text, model string) (int, error)
	CalculateUsage(systemPrompt, userPrompt, completion, model, provider string) (*TokenUsage, error)
}

// Context is an alias to decouple the domain from std context imports in
// signatures; adapters and usecases pass context.Context straight through.

type Context = context.Context
