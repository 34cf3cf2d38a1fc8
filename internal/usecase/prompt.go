// Package usecase contains application business logic services.
package usecase

import (
	"fmt"
	"strings"

	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/domain"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/pkg/textx"
)

// Reply budgets for the single-purpose endpoints. Chat gets its budget from
// config; corrections and translations are short by construction.
const (
	correctMaxTokens   = 300
	translateMaxTokens = 300
)

const tutorReplyContract = `Respond with a single JSON object and nothing else, in exactly this shape:
{"reply": "...", "translation": "...", "correction": {"corrected": "...", "explanation": "...", "has_errors": false}, "suggestions": [{"dutch": "...", "english": "..."}], "vocabulary": [{"dutch": "...", "english": "...", "category": "..."}]}
- "reply": your next line in Dutch, 1-3 short sentences, staying in your role; end with a question when natural.
- "translation": the English translation of "reply".
- "correction": about the student's last message. "corrected" is the fixed Dutch sentence and "explanation" a short English note. When the message is fine, repeat it unchanged and set "has_errors": false.
- "suggestions": exactly 3 short Dutch answers the student could give next, each with an English translation.
- "vocabulary": up to 4 useful Dutch words from your reply, each with an English translation and a lowercase Dutch category such as "eten en drinken".`

// TutorSystemPrompt merges the topic persona with the tutoring rules and the
// JSON reply contract. An explicit level overrides the topic default.
func TutorSystemPrompt(topic domain.Topic, level domain.Level) string {
	if level == "" {
		level = topic.Level
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You are a friendly Dutch conversation tutor for a %s level student. Stay in the role below and keep the conversation going in simple Dutch.\n\nROLE:\n%s\n\n", level, topic.Persona)
	b.WriteString(tutorReplyContract)
	return b.String()
}

// TutorUserPrompt renders the transcript with the student's newest message as
// the final line. Messages are flattened to single lines so the turn markers
// stay unambiguous.
func TutorUserPrompt(history []domain.Message, userText string) string {
	var b strings.Builder
	b.WriteString("Conversation so far:\n")
	for _, m := range history {
		switch m.Role {
		case domain.RoleAssistant:
			fmt.Fprintf(&b, "Tutor: %s\n", oneLine(m.Content))
		case domain.RoleUser:
			fmt.Fprintf(&b, "Student: %s\n", oneLine(m.Content))
		}
	}
	fmt.Fprintf(&b, "Student: %s\n", oneLine(userText))
	return b.String()
}

const correctSystemPrompt = `You are a Dutch grammar coach. Check the sentence for spelling and grammar mistakes and respond with a single JSON object and nothing else:
{"corrected": "...", "explanation": "...", "has_errors": true}
- "corrected": the corrected Dutch sentence, or the original sentence when it is already correct.
- "explanation": a short English explanation of each fix; use "" when has_errors is false.
- "has_errors": whether anything needed fixing.`

// CorrectUserPrompt wraps the sentence to check, optionally preceded by the
// conversation line it was an answer to. The tutor's question often decides
// which form is right (u vs. je, word order after "omdat").
func CorrectUserPrompt(text, contextLine string) string {
	var b strings.Builder
	if contextLine = oneLine(contextLine); contextLine != "" {
		fmt.Fprintf(&b, "Context: %s\n", contextLine)
	}
	fmt.Fprintf(&b, "Sentence: %s\n", oneLine(text))
	return b.String()
}

// TranslateSystemPrompt builds the translation instruction for a fixed
// direction. Source and target are "nl" or "en".
func TranslateSystemPrompt(source, target string) string {
	return fmt.Sprintf(`You are a professional translator between Dutch and English. Translate the text from %s to %s and respond with a single JSON object and nothing else:
{"translation": "..."}
Keep the register of the source text; everyday phrases stay informal.`, langName(source), langName(target))
}

// TranslateUserPrompt wraps the text to translate.
func TranslateUserPrompt(text string) string {
	return "Text: " + oneLine(text) + "\n"
}

func langName(code string) string {
	if code == "en" {
		return "English"
	}
	return "Dutch"
}

func oneLine(s string) string {
	return textx.CollapseWhitespace(s)
}

// TrimHistory drops the oldest turns until system prompt plus transcript fit
// the token budget. The newest student message always survives, even when the
// result still exceeds the budget.
func TrimHistory(counter domain.TokenCounter, history []domain.Message, userText, systemPrompt, model string, budget int) []domain.Message {
	if budget <= 0 || len(history) == 0 {
		return history
	}
	sysTokens, err := counter.CountTokens(systemPrompt, model)
	if err != nil {
		return history
	}
	for start := 0; start <= len(history); start++ {
		kept := history[start:]
		promptTokens, err := counter.CountTokens(TutorUserPrompt(kept, userText), model)
		if err != nil {
			return kept
		}
		if sysTokens+promptTokens <= budget {
			return kept
		}
	}
	return history[len(history):]
}
