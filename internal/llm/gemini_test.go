package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.0-flash"},
		{"gemini-pro", "gemini-2.0-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"}, // Pass-through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text":          map[string]any{"type": "string"},
						"options":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"correctAnswer": map[string]any{"type": "integer"},
						"difficulty":    map[string]any{"type": "string", "enum": []any{"easy", "hard"}},
					},
					"required": []any{"text", "options", "correctAnswer"},
				},
			},
		},
		"required": []any{"questions"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != "OBJECT" {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	qs := schema.Properties["questions"]
	if qs == nil || qs.Type != "ARRAY" {
		t.Fatalf("expected ARRAY questions, got %+v", qs)
	}
	item := qs.Items
	if item.Type != "OBJECT" || len(item.Properties) != 4 {
		t.Fatalf("unexpected item schema: %+v", item)
	}
	if item.Properties["options"].Items.Type != "STRING" {
		t.Fatalf("expected STRING options, got %s", item.Properties["options"].Items.Type)
	}
	if item.Properties["correctAnswer"].Type != "INTEGER" {
		t.Fatalf("expected INTEGER correctAnswer, got %s", item.Properties["correctAnswer"].Type)
	}
	if len(item.Properties["difficulty"].Enum) != 2 {
		t.Fatalf("expected 2 enum values, got %d", len(item.Properties["difficulty"].Enum))
	}
	if len(item.Required) != 3 {
		t.Fatalf("expected 3 required fields, got %d", len(item.Required))
	}
}

func newTestGeminiProvider(t *testing.T, finishReason, text string) *GeminiProvider {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-2.0-flash:generateContent") {
			http.Error(w, "unexpected path "+r.URL.Path, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"role":  "model",
						"parts": []map[string]any{{"text": text}},
					},
					"finishReason": finishReason,
				},
			},
			"usageMetadata": map[string]any{
				"promptTokenCount":     12,
				"candidatesTokenCount": 8,
				"totalTokenCount":      20,
			},
		})
	}))
	t.Cleanup(server.Close)

	p, err := NewGeminiProvider(context.Background(), GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-flash",
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return p
}

func TestGeminiProvider_HappyPath(t *testing.T) {
	p := newTestGeminiProvider(t, "STOP", `{"questions":[]}`)

	resp, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "quiz me"}},
		MaxTokens: 128,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Content != `{"questions":[]}` {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 20 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestGeminiProvider_MaxTokens(t *testing.T) {
	p := newTestGeminiProvider(t, "MAX_TOKENS", `{"questions":[`)

	_, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "quiz me"}},
		MaxTokens: 4,
	})
	var mt *ErrMaxTokensExceeded
	if !errors.As(err, &mt) {
		t.Fatalf("expected ErrMaxTokensExceeded, got: %T (%v)", err, err)
	}
}
