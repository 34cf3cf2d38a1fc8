package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/domain"
)

func TestParseTutorReply_FullPayload(t *testing.T) {
	raw := "```json\n" + `{
	  "reply": "Lekker! Wat wil je bestellen?",
	  "translation": "Nice! What would you like to order?",
	  "correction": {"corrected": "Ik wil graag een koffie.", "explanation": "Gebruik 'graag' na 'wil'.", "has_errors": true},
	  "suggestions": [
	    {"dutch": "Een koffie, alstublieft.", "english": "A coffee, please."},
	    {"dutch": "Mag ik de kaart zien?", "english": "May I see the menu?"},
	    {"dutch": "Doe maar een thee.", "english": "I'll have a tea."},
	    {"dutch": "Overtollig", "english": "Surplus"}
	  ],
	  "vocabulary": [
	    {"dutch": "bestellen", "english": "to order", "category": "Eten en Drinken"},
	    {"dutch": "de kaart", "english": "the menu"}
	  ]
	}` + "\n```"

	reply, err := ParseTutorReply(raw)
	require.NoError(t, err)

	assert.Equal(t, "Lekker! Wat wil je bestellen?", reply.Reply)
	assert.Equal(t, "Nice! What would you like to order?", reply.Translation)

	require.Len(t, reply.Suggestions, 3, "suggestions are capped at three")
	assert.Equal(t, "Een koffie, alstublieft.", reply.Suggestions[0].Dutch)
	assert.Equal(t, "A coffee, please.", reply.Suggestions[0].English)

	require.NotNil(t, reply.Correction)
	assert.True(t, reply.Correction.HasErrors)
	assert.Equal(t, "Ik wil graag een koffie.", reply.Correction.Corrected)

	require.Len(t, reply.Vocabulary, 2)
	assert.Equal(t, "eten en drinken", reply.Vocabulary[0].Category)
	assert.Equal(t, "algemeen", reply.Vocabulary[1].Category, "missing category falls back to the default")
}

func TestParseTutorReply_SchemaFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "sorry, here is an essay instead"},
		{"missing reply", `{"translation": "Hi", "suggestions": [{"dutch": "Ja", "english": "Yes"}]}`},
		{"missing translation", `{"reply": "Hoi", "suggestions": [{"dutch": "Ja", "english": "Yes"}]}`},
		{"no suggestions", `{"reply": "Hoi", "translation": "Hi", "suggestions": []}`},
		{"blank suggestions", `{"reply": "Hoi", "translation": "Hi", "suggestions": [{"dutch": " ", "english": ""}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTutorReply(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrSchemaInvalid), "got %v", err)
		})
	}
}

func TestParseTutorReply_BrokenCorrectionIsDropped(t *testing.T) {
	raw := `{
	  "reply": "Hoi!",
	  "translation": "Hi!",
	  "correction": {"corrected": "", "explanation": "", "has_errors": true},
	  "suggestions": [{"dutch": "Ja, graag.", "english": "Yes, please."}]
	}`

	reply, err := ParseTutorReply(raw)
	require.NoError(t, err)
	assert.Nil(t, reply.Correction, "an unusable embedded correction must not fail the turn")
}

func TestParseTutorReply_FiltersIncompleteVocabulary(t *testing.T) {
	raw := `{
	  "reply": "Hoi!",
	  "translation": "Hi!",
	  "suggestions": [{"dutch": "Ja, graag.", "english": "Yes, please."}],
	  "vocabulary": [
	    {"dutch": "de fiets", "english": "the bicycle", "category": "reizen"},
	    {"dutch": "", "english": "orphan"},
	    {"dutch": "zonder vertaling", "english": ""}
	  ]
	}`

	reply, err := ParseTutorReply(raw)
	require.NoError(t, err)
	require.Len(t, reply.Vocabulary, 1)
	assert.Equal(t, "de fiets", reply.Vocabulary[0].Dutch)
}

func TestParseCorrection(t *testing.T) {
	t.Run("with errors", func(t *testing.T) {
		raw := `{"corrected": "Ik ben gisteren naar de markt geweest.", "explanation": "Voltooid deelwoord aan het einde.", "has_errors": true}`
		c, err := ParseCorrection(raw)
		require.NoError(t, err)
		assert.True(t, c.HasErrors)
		assert.Equal(t, "Ik ben gisteren naar de markt geweest.", c.Corrected)
	})

	t.Run("no errors needs no explanation", func(t *testing.T) {
		raw := `{"corrected": "Dat klopt.", "has_errors": false}`
		c, err := ParseCorrection(raw)
		require.NoError(t, err)
		assert.False(t, c.HasErrors)
	})

	t.Run("missing corrected", func(t *testing.T) {
		_, err := ParseCorrection(`{"explanation": "iets", "has_errors": true}`)
		assert.True(t, errors.Is(err, domain.ErrSchemaInvalid))
	})

	t.Run("error flagged without explanation", func(t *testing.T) {
		_, err := ParseCorrection(`{"corrected": "Ja.", "has_errors": true}`)
		assert.True(t, errors.Is(err, domain.ErrSchemaInvalid))
	})
}

func TestParseTranslation(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		text, err := ParseTranslation(`{"translation": "Where is the station?"}`)
		require.NoError(t, err)
		assert.Equal(t, "Where is the station?", text)
	})

	t.Run("wrapped in prose", func(t *testing.T) {
		text, err := ParseTranslation("The translation is:\n{\"translation\": \"Two coffees, please.\"}")
		require.NoError(t, err)
		assert.Equal(t, "Two coffees, please.", text)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := ParseTranslation(`{"translation": "  "}`)
		assert.True(t, errors.Is(err, domain.ErrSchemaInvalid))
	})
}

func TestRefusalDetection(t *testing.T) {
	refusals := []string{
		"I'm sorry, but I cannot help with that request.",
		"As an AI I am unable to continue this conversation.",
		"Het spijt me, maar ik kan niet aan dit verzoek voldoen.",
	}
	for _, raw := range refusals {
		_, err := ParseTutorReply(raw)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrSchemaInvalid))
		assert.Contains(t, err.Error(), "refused")
	}

	// Plain garbage is a schema failure but not a refusal.
	_, err := ParseTutorReply("kaboom")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "refused")
}
