//go:build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

// getenv returns the value of the environment variable k or def if empty.
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// baseURL points the suite at a running server, default local dev.
func baseURL() string {
	return getenv("E2E_BASE_URL", "http://localhost:8080")
}

// waitForAppReady polls /healthz until the server answers or the deadline
// passes. E2E runs usually start right after docker compose up, so the first
// requests are expected to fail.
func waitForAppReady(t *testing.T, client *http.Client, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		resp, err := client.Get(baseURL() + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("app not ready after %s: %v", timeout, err)
		}
		time.Sleep(time.Second)
	}
}

// postJSON posts body to path and decodes the JSON response.
func postJSON(t *testing.T, client *http.Client, path string, body any) (map[string]any, int) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, baseURL()+path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return doJSON(t, client, req)
}

// getJSON fetches path and decodes the JSON response.
func getJSON(t *testing.T, client *http.Client, path string) (map[string]any, int) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, baseURL()+path, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	return doJSON(t, client, req)
}

func doJSON(t *testing.T, client *http.Client, req *http.Request) (map[string]any, int) {
	t.Helper()
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: decode body: %v", req.Method, req.URL.Path, err)
	}
	return out, resp.StatusCode
}

// firstTopicID returns the id of the first listed topic, failing when the
// store is empty.
func firstTopicID(t *testing.T, client *http.Client) string {
	t.Helper()
	body, status := getJSON(t, client, "/v1/topics")
	if status != http.StatusOK {
		t.Fatalf("/v1/topics: status %d: %#v", status, body)
	}
	topics, ok := body["topics"].([]any)
	if !ok || len(topics) == 0 {
		t.Fatalf("/v1/topics returned no topics: %#v", body)
	}
	first, ok := topics[0].(map[string]any)
	if !ok {
		t.Fatalf("unexpected topic shape: %#v", topics[0])
	}
	id, _ := first["id"].(string)
	if id == "" {
		t.Fatalf("topic id missing: %#v", first)
	}
	return id
}

func chatPath(topicID string) string {
	return fmt.Sprintf("/v1/chat/%s", topicID)
}
