package nlfilter

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serves an OpenAI-compatible chat completion with the given content
func completionServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			http.Error(w, "upstream failure", status)
			return
		}
		resp := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{"role": "assistant", "content": content},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestExtractor(t *testing.T, srv *httptest.Server) *LLMExtractor {
	t.Helper()
	e := NewLLMExtractor(discard(), srv.URL+"/v1", "test-model", "test-token")
	if e == nil {
		t.Fatalf("extractor is nil despite token")
	}
	return e
}

func TestLLMExtract_FencedJSON(t *testing.T) {
	content := "Sure, here you go:\n```json\n{\"attribute\": \"height\", \"operator\": \">\", \"value\": 100}\n```\nLet me know if you need more."
	srv := completionServer(t, content, http.StatusOK)
	defer srv.Close()

	p, ok := newTestExtractor(t, srv).Extract(t.Context(), "tall buildings")
	if !ok {
		t.Fatalf("extract failed")
	}
	if p.Attribute != "height" || string(p.Operator) != ">" || p.Value != 100.0 {
		t.Fatalf("predicate=%+v", p)
	}
}

func TestLLMExtract_FirstFencedBlockOnly(t *testing.T) {
	content := "```json\n{\"attribute\": \"height\", \"operator\": \"<\", \"value\": 20}\n```\nor maybe\n```json\n{\"attribute\": \"height\", \"operator\": \">\", \"value\": 90}\n```"
	srv := completionServer(t, content, http.StatusOK)
	defer srv.Close()

	p, ok := newTestExtractor(t, srv).Extract(t.Context(), "short buildings")
	if !ok {
		t.Fatalf("extract failed")
	}
	if string(p.Operator) != "<" || p.Value != 20.0 {
		t.Fatalf("predicate=%+v want first block (< 20)", p)
	}
}

func TestLLMExtract_AbsentNotError(t *testing.T) {
	cases := []struct {
		name    string
		content string
		status  int
	}{
		{"no fenced block", `{"attribute": "height", "operator": ">", "value": 100}`, http.StatusOK},
		{"invalid json", "```json\n{not json}\n```", http.StatusOK},
		{"missing keys", "```json\n{\"attribute\": \"height\"}\n```", http.StatusOK},
		{"extra keys", "```json\n{\"attribute\": \"height\", \"operator\": \">\", \"value\": 1, \"x\": 2}\n```", http.StatusOK},
		{"unknown attribute", "```json\n{\"attribute\": \"width\", \"operator\": \">\", \"value\": 1}\n```", http.StatusOK},
		{"upstream 500", "", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		srv := completionServer(t, tc.content, tc.status)
		if _, ok := newTestExtractor(t, srv).Extract(t.Context(), "whatever"); ok {
			t.Fatalf("%s: extract ok=true want false", tc.name)
		}
		srv.Close()
	}
}

func TestNewLLMExtractor_NoToken(t *testing.T) {
	if e := NewLLMExtractor(discard(), "http://example.invalid/v1", "m", ""); e != nil {
		t.Fatalf("extractor=%v want nil without token", e)
	}
}
