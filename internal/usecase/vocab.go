package usecase

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/domain"
)

const defaultVocabLimit = 30

// VocabService extracts study vocabulary from a conversation transcript. It
// is purely local: tokenize the tutor's Dutch lines, drop stopwords and short
// tokens, rank by frequency then first appearance. No upstream call, so the
// endpoint never touches the circuit breaker.
type VocabService struct{}

// NewVocabService constructs a VocabService.
func NewVocabService() VocabService { return VocabService{} }

// Extract returns up to limit vocabulary entries from the tutor's messages.
// English translations come from the built-in classroom glossary when known;
// categories from suffix heuristics.
func (VocabService) Extract(messages []domain.Message, limit int) []domain.VocabEntry {
	if limit <= 0 || limit > 100 {
		limit = defaultVocabLimit
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0
	for _, m := range messages {
		if m.Role != domain.RoleAssistant {
			continue
		}
		for _, tok := range tokenizeDutch(m.Content) {
			if !teachable(tok) {
				continue
			}
			if _, seen := counts[tok]; !seen {
				firstSeen[tok] = order
				order++
			}
			counts[tok]++
		}
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return firstSeen[words[i]] < firstSeen[words[j]]
	})
	if len(words) > limit {
		words = words[:limit]
	}

	out := make([]domain.VocabEntry, 0, len(words))
	for _, w := range words {
		out = append(out, domain.VocabEntry{
			Dutch:    w,
			English:  classroomGlossary[w],
			Category: categorize(w),
		})
	}
	return out
}

// tokenizeDutch lowercases and splits on everything that is not a letter or
// an in-word apostrophe (zo'n, 's avonds).
func tokenizeDutch(text string) []string {
	raw := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	toks := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.Trim(t, "'")
		if t != "" {
			toks = append(toks, t)
		}
	}
	return toks
}

func teachable(tok string) bool {
	if utf8.RuneCountInString(tok) < 3 {
		return false
	}
	return !dutchStopwords[tok]
}

// categorize guesses a word class from the suffix. Rough, but good enough to
// group a study list.
func categorize(w string) string {
	n := utf8.RuneCountInString(w)
	switch {
	case n > 4 && (strings.HasSuffix(w, "tje") || strings.HasSuffix(w, "pje") || strings.HasSuffix(w, "kje")):
		return "verkleinwoord"
	case strings.HasSuffix(w, "lijk") || strings.HasSuffix(w, "achtig"):
		return "bijwoord"
	case n > 4 && strings.HasSuffix(w, "en"):
		return "werkwoord"
	default:
		return "algemeen"
	}
}
