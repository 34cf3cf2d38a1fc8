package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/domain"
)

// Wire shapes mirror the JSON contract the prompts ask the model for. They
// stay private to this package; handlers and usecases only see domain types.
type suggestionWire struct {
	Dutch   string `json:"dutch"`
	English string `json:"english"`
}

type vocabWire struct {
	Dutch    string `json:"dutch"`
	English  string `json:"english"`
	Category string `json:"category"`
}

type correctionWire struct {
	Corrected   string `json:"corrected"`
	Explanation string `json:"explanation"`
	HasErrors   bool   `json:"has_errors"`
}

type tutorReplyWire struct {
	Reply       string           `json:"reply"`
	Translation string           `json:"translation"`
	Correction  *correctionWire  `json:"correction"`
	Suggestions []suggestionWire `json:"suggestions"`
	Vocabulary  []vocabWire      `json:"vocabulary"`
}

type translationWire struct {
	Translation string `json:"translation"`
}

const (
	maxSuggestions       = 3
	defaultVocabCategory = "algemeen"
)

var cleaner = NewResponseCleaner()

// ParseTutorReply decodes a chat completion into a tutor reply. The reply and
// its translation are mandatory, and at least one usable suggested answer must
// survive filtering; anything less wraps domain.ErrSchemaInvalid so the caller
// can fall back without tripping the circuit breaker.
func ParseTutorReply(raw string) (domain.TutorReply, error) {
	var wire tutorReplyWire
	if err := decode(raw, &wire); err != nil {
		return domain.TutorReply{}, err
	}

	reply := domain.TutorReply{
		Reply:       strings.TrimSpace(wire.Reply),
		Translation: strings.TrimSpace(wire.Translation),
	}
	if reply.Reply == "" {
		return domain.TutorReply{}, fmt.Errorf("%w: missing reply", domain.ErrSchemaInvalid)
	}
	if reply.Translation == "" {
		return domain.TutorReply{}, fmt.Errorf("%w: missing reply translation", domain.ErrSchemaInvalid)
	}

	for _, s := range wire.Suggestions {
		dutch := strings.TrimSpace(s.Dutch)
		english := strings.TrimSpace(s.English)
		if dutch == "" || english == "" {
			continue
		}
		reply.Suggestions = append(reply.Suggestions, domain.Suggestion{Dutch: dutch, English: english})
		if len(reply.Suggestions) == maxSuggestions {
			break
		}
	}
	if len(reply.Suggestions) == 0 {
		return domain.TutorReply{}, fmt.Errorf("%w: no usable suggestions", domain.ErrSchemaInvalid)
	}

	// The embedded correction is advisory; a malformed one is dropped rather
	// than failing the whole turn.
	if c := normalizeCorrection(wire.Correction); c != nil {
		reply.Correction = c
	}

	for _, v := range wire.Vocabulary {
		dutch := strings.TrimSpace(v.Dutch)
		english := strings.TrimSpace(v.English)
		if dutch == "" || english == "" {
			continue
		}
		category := strings.TrimSpace(v.Category)
		if category == "" {
			category = defaultVocabCategory
		}
		reply.Vocabulary = append(reply.Vocabulary, domain.VocabEntry{
			Dutch:    dutch,
			English:  english,
			Category: strings.ToLower(category),
		})
	}

	return reply, nil
}

// ParseCorrection decodes a standalone grammar check. Unlike the correction
// embedded in a chat turn this one is the whole point of the call, so a
// missing corrected sentence or an unexplained error is a schema failure.
func ParseCorrection(raw string) (domain.Correction, error) {
	var wire correctionWire
	if err := decode(raw, &wire); err != nil {
		return domain.Correction{}, err
	}

	c := domain.Correction{
		Corrected:   strings.TrimSpace(wire.Corrected),
		Explanation: strings.TrimSpace(wire.Explanation),
		HasErrors:   wire.HasErrors,
	}
	if c.Corrected == "" {
		return domain.Correction{}, fmt.Errorf("%w: missing corrected text", domain.ErrSchemaInvalid)
	}
	if c.HasErrors && c.Explanation == "" {
		return domain.Correction{}, fmt.Errorf("%w: error flagged without explanation", domain.ErrSchemaInvalid)
	}
	return c, nil
}

// ParseTranslation decodes a translation response into the translated text.
func ParseTranslation(raw string) (string, error) {
	var wire translationWire
	if err := decode(raw, &wire); err != nil {
		return "", err
	}
	text := strings.TrimSpace(wire.Translation)
	if text == "" {
		return "", fmt.Errorf("%w: missing translation", domain.ErrSchemaInvalid)
	}
	return text, nil
}

func decode(raw string, out any) error {
	cleaned := cleaner.CleanJSONResponse(raw)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		if looksLikeRefusal(raw) {
			return fmt.Errorf("%w: model refused the request", domain.ErrSchemaInvalid)
		}
		return fmt.Errorf("%w: %v", domain.ErrSchemaInvalid, err)
	}
	return nil
}

func normalizeCorrection(wire *correctionWire) *domain.Correction {
	if wire == nil {
		return nil
	}
	corrected := strings.TrimSpace(wire.Corrected)
	if corrected == "" {
		return nil
	}
	return &domain.Correction{
		Corrected:   corrected,
		Explanation: strings.TrimSpace(wire.Explanation),
		HasErrors:   wire.HasErrors,
	}
}

// refusalMarkers are phrases models emit instead of JSON when they decline.
// Both English and Dutch variants show up depending on the model.
var refusalMarkers = []string{
	"i cannot",
	"i can't",
	"i am unable",
	"i'm unable",
	"i'm sorry, but",
	"as an ai",
	"ik kan niet",
	"ik kan hier niet",
	"het spijt me, maar",
}

func looksLikeRefusal(raw string) bool {
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "{") {
		return false
	}
	for _, marker := range refusalMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
