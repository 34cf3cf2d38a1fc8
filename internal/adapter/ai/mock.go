package ai

import (
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/domain"
)

// MockClient is a deterministic stand-in for the OpenRouter client. The
// composition root wires it when no API key is configured outside prod, so
// the whole request path (guard, prompts, parsing, fallbacks) stays
// exercisable without network access. Responses are derived from a hash of
// the prompts; the same input always yields the same output.
type MockClient struct{}

// NewMockClient creates a mock AI client.
func NewMockClient() *MockClient { return &MockClient{} }

var _ domain.AIClient = (*MockClient)(nil)

// ChatJSON fabricates a JSON payload matching the contract of the prompt it
// was given. The system prompt decides the shape: translator prompts get a
// translation object, grammar prompts a correction object, everything else a
// full tutor reply.
func (m *MockClient) ChatJSON(ctx domain.Context, systemPrompt, userPrompt string, _ int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	lower := strings.ToLower(systemPrompt)
	var payload any
	switch {
	case strings.Contains(lower, "translator"):
		payload = translationWire{Translation: mockTranslate(afterLastMarker(userPrompt, "Text:"))}
	case strings.Contains(lower, "grammar"):
		payload = mockCorrection(afterLastMarker(userPrompt, "Sentence:"))
	default:
		payload = mockTutorReply(systemPrompt, userPrompt)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

var mockReplies = []struct{ nl, en string }{
	{"Dat klinkt goed! Vertel eens iets meer.", "That sounds good! Tell me a bit more."},
	{"Leuk! Wat wil je nog meer weten?", "Nice! What else would you like to know?"},
	{"Prima. Zullen we verdergaan met het gesprek?", "Great. Shall we continue the conversation?"},
	{"Interessant! Hoe vaak doe je dat?", "Interesting! How often do you do that?"},
	{"Goed zo! Probeer het nu in een langere zin.", "Well done! Now try it in a longer sentence."},
}

var mockSuggestions = []suggestionWire{
	{Dutch: "Ja, graag.", English: "Yes, please."},
	{Dutch: "Nee, dank je.", English: "No, thank you."},
	{Dutch: "Kun je dat herhalen?", English: "Can you repeat that?"},
	{Dutch: "Wat betekent dat?", English: "What does that mean?"},
	{Dutch: "Ik weet het niet zeker.", English: "I am not sure."},
	{Dutch: "Dat lijkt me leuk.", English: "That sounds fun to me."},
}

var mockVocabulary = []vocabWire{
	{Dutch: "de koffie", English: "the coffee", Category: "eten en drinken"},
	{Dutch: "de markt", English: "the market", Category: "boodschappen"},
	{Dutch: "het gesprek", English: "the conversation", Category: "algemeen"},
	{Dutch: "de rekening", English: "the bill", Category: "eten en drinken"},
	{Dutch: "rechtdoor", English: "straight ahead", Category: "reizen"},
	{Dutch: "het station", English: "the station", Category: "reizen"},
}

func mockTutorReply(systemPrompt, userPrompt string) tutorReplyWire {
	reply := mockReplies[pick(len(mockReplies), systemPrompt, userPrompt)]

	wire := tutorReplyWire{
		Reply:       reply.nl,
		Translation: reply.en,
	}

	sOff := pick(len(mockSuggestions), userPrompt, "suggestions")
	for i := 0; i < maxSuggestions; i++ {
		wire.Suggestions = append(wire.Suggestions, mockSuggestions[(sOff+i)%len(mockSuggestions)])
	}

	vOff := pick(len(mockVocabulary), userPrompt, "vocabulary")
	for i := 0; i < 2; i++ {
		wire.Vocabulary = append(wire.Vocabulary, mockVocabulary[(vOff+i)%len(mockVocabulary)])
	}

	if msg := afterLastMarker(userPrompt, "Student:"); msg != "" {
		c := mockCorrection(msg)
		wire.Correction = &c
	}
	return wire
}

// mockCorrection applies two mechanical rules so dev sessions show both
// corrected and error-free turns: sentences must start with a capital and end
// with terminal punctuation.
func mockCorrection(text string) correctionWire {
	text = strings.TrimSpace(text)
	if text == "" {
		return correctionWire{Corrected: "...", Explanation: "De zin is correct.", HasErrors: false}
	}

	corrected := text
	hasErrors := false

	first, size := utf8.DecodeRuneInString(corrected)
	if unicode.IsLower(first) {
		corrected = string(unicode.ToUpper(first)) + corrected[size:]
		hasErrors = true
	}
	if !strings.ContainsAny(corrected[len(corrected)-1:], ".!?") {
		corrected += "."
		hasErrors = true
	}

	explanation := "De zin is correct."
	if hasErrors {
		explanation = "Begin de zin met een hoofdletter en sluit af met een punt."
	}
	return correctionWire{Corrected: corrected, Explanation: explanation, HasErrors: hasErrors}
}

var mockGlossary = map[string]string{
	"hallo":                   "Hello",
	"goedemorgen":             "Good morning",
	"dank je wel":             "Thank you",
	"alstublieft":             "Here you are",
	"tot ziens":               "Goodbye",
	"hoe gaat het?":           "How are you?",
	"ik wil graag een koffie": "I would like a coffee",
	"waar is het station?":    "Where is the station?",
}

func mockTranslate(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "..."
	}
	if hit, ok := mockGlossary[strings.ToLower(text)]; ok {
		return hit
	}
	return text + " (mock translation)"
}

// afterLastMarker returns the text after the last occurrence of marker, up to
// the end of that line. The prompt builders place the student's own text after
// a fixed marker so the mock can react to it.
func afterLastMarker(prompt, marker string) string {
	idx := strings.LastIndex(prompt, marker)
	if idx == -1 {
		return ""
	}
	rest := prompt[idx+len(marker):]
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		rest = rest[:nl]
	}
	return strings.TrimSpace(rest)
}

func pick(n int, seeds ...string) int {
	sum := sha1.Sum([]byte(strings.Join(seeds, "|")))
	return int(binary.BigEndian.Uint64(sum[:8]) % uint64(n))
}
