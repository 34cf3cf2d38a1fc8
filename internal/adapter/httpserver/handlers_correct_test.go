package httpserver_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/domain"
)

func TestCorrectHandler_Success(t *testing.T) {
	ai := &stubAI{response: validCorrectionJSON}
	srv := newTestServer(t, ai, defaultGuardCfg())

	r := jsonRequest(t, http.MethodPost, "/v1/correct", map[string]any{
		"text":    "Ik wil graag tosti een",
		"context": "Wat mag het zijn?",
	})
	w := httptest.NewRecorder()
	srv.CorrectHandler()(w, r)
	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Original    string `json:"original"`
		Corrected   string `json:"corrected"`
		Explanation string `json:"explanation"`
		HasErrors   bool   `json:"has_errors"`
		Fallback    bool   `json:"fallback"`
	}
	decodeBody(t, resp, &body)
	require.Equal(t, "Ik wil graag tosti een", body.Original)
	require.Equal(t, "Ik wil graag een tosti.", body.Corrected)
	require.Equal(t, "Word order.", body.Explanation)
	require.True(t, body.HasErrors)
	require.False(t, body.Fallback)
}

func TestCorrectHandler_MissingText(t *testing.T) {
	srv := newTestServer(t, &stubAI{response: validCorrectionJSON}, defaultGuardCfg())

	r := jsonRequest(t, http.MethodPost, "/v1/correct", map[string]any{"context": "hallo"})
	w := httptest.NewRecorder()
	srv.CorrectHandler()(w, r)
	resp := w.Result()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	errObj := body["error"].(map[string]any)
	details := errObj["details"].(map[string]any)
	require.Contains(t, details, "text")
}

func TestCorrectHandler_DegradedEchoesOriginal(t *testing.T) {
	ai := &stubAI{err: fmt.Errorf("chat completion: %w", domain.ErrUpstreamUnavailable)}
	srv := newTestServer(t, ai, defaultGuardCfg())

	r := jsonRequest(t, http.MethodPost, "/v1/correct", map[string]any{"text": "Ik ben moe"})
	w := httptest.NewRecorder()
	srv.CorrectHandler()(w, r)
	resp := w.Result()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body struct {
		Original  string `json:"original"`
		Corrected string `json:"corrected"`
		HasErrors bool   `json:"has_errors"`
		Fallback  bool   `json:"fallback"`
		Error     string `json:"error"`
		Details   string `json:"details"`
	}
	decodeBody(t, resp, &body)
	require.True(t, body.Fallback)
	require.Equal(t, "Ik ben moe", body.Original)
	require.Equal(t, "Ik ben moe", body.Corrected, "fallback echoes the learner text")
	require.False(t, body.HasErrors)
	require.NotEmpty(t, body.Error)
	require.NotEmpty(t, body.Details)
}

func TestCorrectHandler_SchemaInvalidIs502(t *testing.T) {
	// Corrected text missing: the upstream answered but broke the contract.
	ai := &stubAI{response: `{"corrected": "", "has_errors": false}`}
	srv := newTestServer(t, ai, defaultGuardCfg())

	r := jsonRequest(t, http.MethodPost, "/v1/correct", map[string]any{"text": "Ik ben moe"})
	w := httptest.NewRecorder()
	srv.CorrectHandler()(w, r)
	resp := w.Result()
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body struct {
		Fallback bool   `json:"fallback"`
		Error    string `json:"error"`
	}
	decodeBody(t, resp, &body)
	require.True(t, body.Fallback)
	require.Equal(t, "Invalid upstream response", body.Error)
}

func TestCorrectHandler_RateLimited(t *testing.T) {
	gc := defaultGuardCfg()
	gc.correctLimit = 1
	ai := &stubAI{response: validCorrectionJSON}
	srv := newTestServer(t, ai, gc)

	body := map[string]any{"text": "Ik ben moe"}
	w := httptest.NewRecorder()
	srv.CorrectHandler()(w, jsonRequest(t, http.MethodPost, "/v1/correct", body))
	require.Equal(t, http.StatusOK, w.Result().StatusCode)

	w = httptest.NewRecorder()
	srv.CorrectHandler()(w, jsonRequest(t, http.MethodPost, "/v1/correct", body))
	resp := w.Result()
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, 1, ai.calls)
}

func TestCorrectHandler_WhitespaceOnlyText(t *testing.T) {
	srv := newTestServer(t, &stubAI{response: validCorrectionJSON}, defaultGuardCfg())

	r := jsonRequest(t, http.MethodPost, "/v1/correct", map[string]any{"text": "   "})
	w := httptest.NewRecorder()
	srv.CorrectHandler()(w, r)
	require.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}
