package httpserver_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVocabularyHandler_ExtractsFromTranscript(t *testing.T) {
	srv := newTestServer(t, &stubAI{response: validTutorJSON}, defaultGuardCfg())

	r := jsonRequest(t, http.MethodPost, "/v1/vocabulary", map[string]any{
		"messages": []map[string]string{
			{"role": "assistant", "content": "Goedemiddag! Wat mag het zijn?"},
			{"role": "user", "content": "Ik wil graag een boterham met kaas."},
		},
		"limit": 10,
	})
	w := httptest.NewRecorder()
	srv.VocabularyHandler()(w, r)
	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Items []struct {
			Dutch    string `json:"dutch"`
			Category string `json:"category"`
		} `json:"items"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.Items)
	for _, it := range body.Items {
		require.NotEmpty(t, it.Dutch)
		require.NotEmpty(t, it.Category)
	}
}

func TestVocabularyHandler_ItemsNeverNull(t *testing.T) {
	srv := newTestServer(t, &stubAI{response: validTutorJSON}, defaultGuardCfg())

	// Stopwords only: nothing teachable survives filtering.
	r := jsonRequest(t, http.MethodPost, "/v1/vocabulary", map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "ik de het een en"}},
	})
	w := httptest.NewRecorder()
	srv.VocabularyHandler()(w, r)
	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw map[string]any
	decodeBody(t, resp, &raw)
	items, ok := raw["items"].([]any)
	require.True(t, ok, "items must be an array, not null")
	require.Empty(t, items)
}

func TestVocabularyHandler_MissingMessages(t *testing.T) {
	srv := newTestServer(t, &stubAI{response: validTutorJSON}, defaultGuardCfg())

	r := jsonRequest(t, http.MethodPost, "/v1/vocabulary", map[string]any{"limit": 5})
	w := httptest.NewRecorder()
	srv.VocabularyHandler()(w, r)
	require.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestVocabularyHandler_RateLimited(t *testing.T) {
	gc := defaultGuardCfg()
	gc.vocabLimit = 1
	srv := newTestServer(t, &stubAI{response: validTutorJSON}, gc)

	body := map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "boterham"}},
	}
	w := httptest.NewRecorder()
	srv.VocabularyHandler()(w, jsonRequest(t, http.MethodPost, "/v1/vocabulary", body))
	require.Equal(t, http.StatusOK, w.Result().StatusCode)

	w = httptest.NewRecorder()
	srv.VocabularyHandler()(w, jsonRequest(t, http.MethodPost, "/v1/vocabulary", body))
	resp := w.Result()
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestVocabularyHandler_WorksWhileBreakerOpen(t *testing.T) {
	gc := defaultGuardCfg()
	gc.threshold = 1
	srv := newTestServer(t, &stubAI{response: validTutorJSON}, gc)
	srv.ChatGuard.ReportFailure() // open the shared breaker

	r := jsonRequest(t, http.MethodPost, "/v1/vocabulary", map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "boterham"}},
	})
	w := httptest.NewRecorder()
	srv.VocabularyHandler()(w, r)
	require.Equal(t, http.StatusOK, w.Result().StatusCode,
		"local extraction stays available during an upstream outage")
}
