package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/adapter/observability"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/config"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/domain"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/service/guard"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/usecase"
)

// maxBodyBytes caps JSON request bodies. All payloads here are short text.
const maxBodyBytes = 1 << 20 // 1MB

// Server aggregates handler dependencies. Guards are injected by the
// composition root so tests can wire tiny limits and frozen clocks.
type Server struct {
	Cfg       config.Config
	Chat      usecase.ChatService
	Correct   usecase.CorrectService
	Translate usecase.TranslateService
	Vocab     usecase.VocabService
	Topics    domain.TopicSource

	// One guard (limiter plus the shared breaker) per upstream-calling
	// endpoint. Vocabulary extraction is local, so it carries a bare limiter
	// and never touches the breaker.
	ChatGuard      *guard.Guard
	CorrectGuard   *guard.Guard
	TranslateGuard *guard.Guard
	VocabLimiter   *guard.SlidingWindow

	// Readiness probes.
	TopicCount func() int
	AICheck    func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, chat usecase.ChatService, correct usecase.CorrectService, translate usecase.TranslateService, vocab usecase.VocabService, topics domain.TopicSource, chatGuard, correctGuard, translateGuard *guard.Guard, vocabLimiter *guard.SlidingWindow, topicCount func() int, aiCheck func(ctx context.Context) error) *Server {
	return &Server{
		Cfg:            cfg,
		Chat:           chat,
		Correct:        correct,
		Translate:      translate,
		Vocab:          vocab,
		Topics:         topics,
		ChatGuard:      chatGuard,
		CorrectGuard:   correctGuard,
		TranslateGuard: translateGuard,
		VocabLimiter:   vocabLimiter,
		TopicCount:     topicCount,
		AICheck:        aiCheck,
	}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// acceptsJSON rejects requests whose Accept header excludes JSON.
func acceptsJSON(w http.ResponseWriter, r *http.Request) bool {
	a := r.Header.Get("Accept")
	if a == "" || a == "*/*" || strings.Contains(a, "application/json") || strings.Contains(a, "*/*") {
		return true
	}
	writeJSON(w, http.StatusNotAcceptable, errorEnvelope{Error: apiError{
		Code:    "INVALID_ARGUMENT",
		Message: "not acceptable",
		Details: map[string]any{"accept": a},
	}})
	return false
}

// decodeAndValidate decodes the JSON body into req and applies its
// validation tags. It answers bad requests itself and reports whether the
// handler should continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
		return false
	}
	if err := getValidator().Struct(req); err != nil {
		verrs := map[string]string{}
		if ve, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range ve {
				verrs[strings.ToLower(fe.Field())] = fe.Tag()
			}
		}
		writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
		return false
	}
	return true
}

// checkGuard runs the endpoint guard and answers rejections. The limiter
// records the attempt either way; rejected attempts still consume quota.
func (s *Server) checkGuard(w http.ResponseWriter, r *http.Request, g *guard.Guard) bool {
	d := g.Check(ClientIP(r, s.Cfg.TrustProxy))
	if d.Allowed {
		return true
	}
	observability.RejectGuarded(g.Endpoint(), string(d.Reason))
	lg := LoggerFrom(r)
	if d.Reason == guard.ReasonBreakerOpen {
		lg.Warn("request rejected, circuit open",
			slog.String("endpoint", g.Endpoint()),
			slog.Int("retry_after_s", retryAfterSeconds(d.RetryAfter)))
		writeBreakerOpen(w, d)
		return false
	}
	lg.Warn("request rate limited",
		slog.String("endpoint", g.Endpoint()),
		slog.Int("retry_after_s", retryAfterSeconds(d.RetryAfter)))
	writeRateLimited(w, d)
	return false
}

// ChatHandler produces one tutor turn for POST /v1/chat/{topic}.
func (s *Server) ChatHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		if !s.checkGuard(w, r, s.ChatGuard) {
			return
		}
		var req chatRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		topicID := chi.URLParam(r, "topic")
		// Unknown topics 404 before any upstream tokens are spent.
		if _, err := s.Topics.Get(topicID); err != nil {
			writeError(w, r, err, map[string]string{"topic": topicID})
			return
		}

		reply, err := s.Chat.Reply(r.Context(), topicID, toMessages(req.History), req.Message, domain.Level(req.Level))
		if err != nil {
			s.chatFailure(w, r, topicID, err)
			return
		}
		s.ChatGuard.ReportSuccess()
		writeJSON(w, http.StatusOK, toChatResponse(reply))
	}
}

// chatFailure settles a failed tutor turn. Client mistakes get the plain
// error envelope; upstream failures feed the breaker where they should and
// degrade into a renderable fallback turn.
func (s *Server) chatFailure(w http.ResponseWriter, r *http.Request, topicID string, err error) {
	if isClientError(err) {
		writeError(w, r, err, nil)
		return
	}
	if countsAsBreakerFailure(err) {
		s.ChatGuard.ReportFailure()
	}
	LoggerFrom(r).Error("chat turn degraded",
		slog.String("topic", topicID),
		slog.Any("error", err))

	resp := toChatResponse(s.Chat.FallbackReply(topicID))
	resp.Fallback = true
	resp.Error = degradedError(err)
	resp.Details = degradedDetail(err)
	writeJSON(w, degradedStatus(err), resp)
}

// CorrectHandler checks one learner sentence: POST /v1/correct.
func (s *Server) CorrectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		if !s.checkGuard(w, r, s.CorrectGuard) {
			return
		}
		var req correctRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		c, err := s.Correct.Correct(r.Context(), req.Text, req.Context)
		if err != nil {
			if isClientError(err) {
				writeError(w, r, err, nil)
				return
			}
			if countsAsBreakerFailure(err) {
				s.CorrectGuard.ReportFailure()
			}
			LoggerFrom(r).Error("correction degraded", slog.Any("error", err))

			fb := usecase.FallbackCorrection(req.Text)
			writeJSON(w, degradedStatus(err), correctResponse{
				Original:    req.Text,
				Corrected:   fb.Corrected,
				Explanation: "We could not check your sentence right now. Please try again shortly.",
				HasErrors:   fb.HasErrors,
				Fallback:    true,
				Error:       degradedError(err),
				Details:     degradedDetail(err),
			})
			return
		}
		s.CorrectGuard.ReportSuccess()
		writeJSON(w, http.StatusOK, correctResponse{
			Original:    req.Text,
			Corrected:   c.Corrected,
			Explanation: c.Explanation,
			HasErrors:   c.HasErrors,
		})
	}
}

// TranslateHandler translates between Dutch and English: POST /v1/translate.
func (s *Server) TranslateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		if !s.checkGuard(w, r, s.TranslateGuard) {
			return
		}
		var req translateRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		tr, err := s.Translate.Translate(r.Context(), req.Text, req.Source, req.Target)
		if err != nil {
			if isClientError(err) {
				writeError(w, r, err, nil)
				return
			}
			if countsAsBreakerFailure(err) {
				s.TranslateGuard.ReportFailure()
			}
			LoggerFrom(r).Error("translation degraded", slog.Any("error", err))

			fb := usecase.FallbackTranslation(req.Source, req.Target)
			writeJSON(w, degradedStatus(err), translateResponse{
				Translation: fb.Text,
				Source:      fb.Source,
				Target:      fb.Target,
				Fallback:    true,
				Error:       degradedError(err),
				Details:     degradedDetail(err),
			})
			return
		}
		s.TranslateGuard.ReportSuccess()
		writeJSON(w, http.StatusOK, translateResponse{
			Translation: tr.Text,
			Source:      tr.Source,
			Target:      tr.Target,
		})
	}
}

// VocabularyHandler extracts study vocabulary from a transcript:
// POST /v1/vocabulary. Extraction runs locally, so only the per-client
// limiter applies; the breaker is not involved.
func (s *Server) VocabularyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		if d := s.VocabLimiter.Check(ClientIP(r, s.Cfg.TrustProxy)); !d.Allowed {
			observability.RejectGuarded("vocabulary", string(d.Reason))
			LoggerFrom(r).Warn("request rate limited",
				slog.String("endpoint", "vocabulary"),
				slog.Int("retry_after_s", retryAfterSeconds(d.RetryAfter)))
			writeRateLimited(w, d)
			return
		}
		var req vocabularyRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		items := s.Vocab.Extract(toMessages(req.Messages), req.Limit)
		writeJSON(w, http.StatusOK, vocabularyResponse{Items: toVocabDTOs(items)})
	}
}

// TopicsHandler lists topic summaries: GET /v1/topics.
func (s *Server) TopicsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		topics := s.Topics.List()
		out := make([]topicSummaryDTO, 0, len(topics))
		for _, t := range topics {
			out = append(out, toTopicSummaryDTO(t))
		}
		writeJSON(w, http.StatusOK, map[string]any{"topics": out})
	}
}

// TopicHandler returns one full topic: GET /v1/topics/{id}.
func (s *Server) TopicHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		topic, err := s.Topics.Get(id)
		if err != nil {
			writeError(w, r, err, map[string]string{"topic": id})
			return
		}
		writeJSON(w, http.StatusOK, toTopicDTO(topic))
	}
}

// ReadyzHandler probes the topic store and the upstream AI provider.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 2)
		if s.TopicCount != nil {
			if n := s.TopicCount(); n > 0 {
				checks = append(checks, check{Name: "topics", OK: true, Details: fmt.Sprintf("%d loaded", n)})
			} else {
				checks = append(checks, check{Name: "topics", OK: false, Details: "no topics loaded"})
			}
		}
		if s.AICheck != nil {
			if err := s.AICheck(ctx); err != nil {
				checks = append(checks, check{Name: "upstream", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "upstream", OK: true})
			}
		} else {
			checks = append(checks, check{Name: "upstream", OK: true, Details: "mock client"})
		}
		ok := true
		for _, c := range checks {
			if !c.OK {
				ok = false
				break
			}
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}

// isClientError reports errors the caller must fix. No fallback payload and
// no breaker involvement for these.
func isClientError(err error) bool {
	return errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrNotFound)
}

// degradedError is the short error label inside fallback payloads, matched
// to the HTTP status the payload ships with.
func degradedError(err error) string {
	if degradedStatus(err) == http.StatusBadGateway {
		return "Invalid upstream response"
	}
	return "Service temporarily unavailable"
}
