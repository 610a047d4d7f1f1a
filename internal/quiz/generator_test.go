package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/quizzler/internal/llm"
	"github.com/abhisek/quizzler/internal/ratelimit"
	"github.com/abhisek/quizzler/internal/store"
)

func validItem(n int) string {
	return fmt.Sprintf(`{"text": "Question %d?", "options": ["a%d", "b%d", "c%d", "d%d"], "correctAnswer": %d}`,
		n, n, n, n, n, n%4)
}

func validBatch(n int) string {
	items := make([]string, n)
	for i := range n {
		items[i] = validItem(i)
	}
	return `{"questions": [` + strings.Join(items, ",") + `]}`
}

func newTestGenerator(t *testing.T, responses ...llm.MockResponse) (*LLMGenerator, *llm.MockProvider, *ratelimit.MemoryLimiter) {
	t.Helper()
	mock := llm.NewMockProvider(responses...)
	lim := ratelimit.NewMemoryLimiter(5, time.Minute)
	return New(mock, lim, DefaultConfig()), mock, lim
}

type recordingLog struct {
	mu     sync.Mutex
	events []store.GenerationEventData
	err    error
}

func (l *recordingLog) AppendGeneration(_ context.Context, data store.GenerationEventData) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, data)
	return l.err
}

func TestGenerate_ValidBatch(t *testing.T) {
	gen, mock, _ := newTestGenerator(t, llm.MockResponse{Content: validBatch(5)})

	qs, err := gen.Generate(context.Background(), "Ancient Rome", "ada")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(qs) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(qs))
	}
	for i, q := range qs {
		if q.Text != fmt.Sprintf("Question %d?", i) {
			t.Errorf("question %d out of order: %q", i, q.Text)
		}
		if len(q.Options) != OptionCount {
			t.Errorf("question %d has %d options", i, len(q.Options))
		}
		if q.CorrectAnswer != i%4 {
			t.Errorf("question %d correct answer = %d", i, q.CorrectAnswer)
		}
	}
	if mock.CallCount() != 1 {
		t.Errorf("expected 1 completion call, got %d", mock.CallCount())
	}
}

func TestGenerate_IDsAndTopicAreLocal(t *testing.T) {
	items := make([]string, 5)
	for i := range items {
		items[i] = fmt.Sprintf(`{"id": "model-id", "topic": "<script>alert(1)</script>Hijacked", "text": "Q%d", "options": ["w", "x", "y", "z"], "correctAnswer": 1}`, i)
	}
	content := `{"questions": [` + strings.Join(items, ",") + `]}`
	gen, _, _ := newTestGenerator(t, llm.MockResponse{Content: content})

	qs, err := gen.Generate(context.Background(), "Ancient Rome", "ada")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(qs) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(qs))
	}

	seen := make(map[string]bool)
	for _, q := range qs {
		if q.Topic != "Ancient Rome" {
			t.Errorf("topic = %q, want Ancient Rome", q.Topic)
		}
		if q.ID == "" || q.ID == "model-id" {
			t.Errorf("id not generated locally: %q", q.ID)
		}
		if seen[q.ID] {
			t.Errorf("duplicate id %q", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestGenerate_TopicIsSanitized(t *testing.T) {
	gen, mock, _ := newTestGenerator(t, llm.MockResponse{Content: validBatch(1)})

	qs, err := gen.Generate(context.Background(), "  <b>Ancient</b> Rome<script>alert(1)</script>\x07 ", "ada")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qs[0].Topic != "Ancient Rome" {
		t.Errorf("topic = %q", qs[0].Topic)
	}
	prompt := mock.Calls[0].Messages[0].Content
	if strings.Contains(prompt, "<script>") {
		t.Errorf("prompt carries markup: %q", prompt)
	}
}

func TestGenerate_AdmissionGate(t *testing.T) {
	var responses []llm.MockResponse
	for range 6 {
		responses = append(responses, llm.MockResponse{Content: validBatch(5)})
	}
	gen, mock, _ := newTestGenerator(t, responses...)
	ctx := context.Background()

	for i := range 5 {
		if _, err := gen.Generate(ctx, "Ancient Rome", "ada"); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i+1, err)
		}
	}

	_, err := gen.Generate(ctx, "Ancient Rome", "ada")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
	if mock.CallCount() != 5 {
		t.Errorf("refused call reached the provider: %d calls", mock.CallCount())
	}
	if got := UserMessage(err); !strings.Contains(got, "try again later") {
		t.Errorf("user message = %q", got)
	}

	// Another caller still has a full bucket.
	if _, err := gen.Generate(ctx, "Ancient Rome", "bob"); err != nil {
		t.Errorf("bob should be admitted: %v", err)
	}
}

func TestGenerate_EmptyTopicSpendsNoToken(t *testing.T) {
	gen, mock, lim := newTestGenerator(t)

	for _, topic := range []string{"", "   ", "<script>alert(1)</script>", "\x00\x01"} {
		_, err := gen.Generate(context.Background(), topic, "ada")
		if !errors.Is(err, ErrEmptyTopic) {
			t.Errorf("topic %q: expected ErrEmptyTopic, got %v", topic, err)
		}
	}
	if lim.Available("ada") != 5 {
		t.Errorf("tokens spent on empty topics: %d left", lim.Available("ada"))
	}
	if mock.CallCount() != 0 {
		t.Errorf("provider contacted for empty topic")
	}
}

func TestGenerate_ThreeOptionsIsSchemaViolation(t *testing.T) {
	content := `{"questions": [
		` + validItem(0) + `,
		{"text": "Short?", "options": ["a", "b", "c"], "correctAnswer": 0}
	]}`
	gen, _, _ := newTestGenerator(t, llm.MockResponse{Content: content})

	qs, err := gen.Generate(context.Background(), "Ancient Rome", "ada")
	if !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("expected schema violation, got %v", err)
	}
	if qs != nil {
		t.Errorf("batch partially accepted: %d questions", len(qs))
	}
	var ge *GenerationError
	if !errors.As(err, &ge) || ge.Detail == "" {
		t.Errorf("expected validator detail, got %#v", err)
	}
	if got := UserMessage(err); got != "Invalid question format from AI" {
		t.Errorf("user message = %q", got)
	}
}

func TestGenerate_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no questions key", `{"items": []}`},
		{"empty list", `{"questions": []}`},
		{"missing text", `{"questions": [{"options": ["a","b","c","d"], "correctAnswer": 0}]}`},
		{"blank text", `{"questions": [{"text": "   ", "options": ["a","b","c","d"], "correctAnswer": 0}]}`},
		{"five options", `{"questions": [{"text": "Q", "options": ["a","b","c","d","e"], "correctAnswer": 0}]}`},
		{"duplicate options", `{"questions": [{"text": "Q", "options": ["a","a","c","d"], "correctAnswer": 0}]}`},
		{"answer out of range", `{"questions": [{"text": "Q", "options": ["a","b","c","d"], "correctAnswer": 4}]}`},
		{"negative answer", `{"questions": [{"text": "Q", "options": ["a","b","c","d"], "correctAnswer": -1}]}`},
		{"fractional answer", `{"questions": [{"text": "Q", "options": ["a","b","c","d"], "correctAnswer": 1.5}]}`},
		{"answer as string", `{"questions": [{"text": "Q", "options": ["a","b","c","d"], "correctAnswer": "1"}]}`},
		{"non-string option", `{"questions": [{"text": "Q", "options": ["a","b","c",4], "correctAnswer": 0}]}`},
		{"top-level array", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, _, _ := newTestGenerator(t, llm.MockResponse{Content: tt.content})
			_, err := gen.Generate(context.Background(), "Ancient Rome", "ada")
			if !errors.Is(err, ErrSchemaViolation) {
				t.Errorf("expected schema violation, got %v", err)
			}
		})
	}
}

func TestGenerate_ControlCharactersStripped(t *testing.T) {
	gen, _, _ := newTestGenerator(t, llm.MockResponse{Content: "\x01\x1F" + validBatch(5)})

	qs, err := gen.Generate(context.Background(), "Ancient Rome", "ada")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(qs) != 5 {
		t.Errorf("expected 5 questions, got %d", len(qs))
	}
}

func TestGenerate_ControlCharactersInsideStrings(t *testing.T) {
	content := "{\"questions\": [{\"text\": \"Who\nwas\u0085 Caesar?\", \"options\": [\"a\", \"b\", \"c\", \"d\"], \"correctAnswer\": 0}]}"
	gen, _, _ := newTestGenerator(t, llm.MockResponse{Content: content})

	qs, err := gen.Generate(context.Background(), "Ancient Rome", "ada")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qs[0].Text != "Whowas Caesar?" {
		t.Errorf("text = %q", qs[0].Text)
	}
}

func TestGenerate_MalformedResponse(t *testing.T) {
	for _, content := range []string{"Sure! Here are your questions:", `{"questions": [`, ""} {
		gen, _, _ := newTestGenerator(t, llm.MockResponse{Content: content})
		_, err := gen.Generate(context.Background(), "Ancient Rome", "ada")
		if !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("content %q: expected malformed response, got %v", content, err)
		}
		if got := UserMessage(err); got != "Invalid question format from AI" {
			t.Errorf("user message = %q", got)
		}
	}
}

func TestGenerate_ServiceError(t *testing.T) {
	svcErr := &llm.ErrProviderUnavailable{Err: errors.New("502 bad gateway")}
	gen, mock, _ := newTestGenerator(t, llm.MockResponse{Err: svcErr})

	_, err := gen.Generate(context.Background(), "Ancient Rome", "ada")
	if !errors.Is(err, ErrServiceError) {
		t.Fatalf("expected service error, got %v", err)
	}
	var unavail *llm.ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Errorf("underlying error not preserved")
	}
	if got := UserMessage(err); got != svcErr.Error() {
		t.Errorf("user message = %q, want %q", got, svcErr.Error())
	}
	if mock.CallCount() != 1 {
		t.Errorf("pipeline retried: %d calls", mock.CallCount())
	}
}

func TestGenerate_CountNotAdjusted(t *testing.T) {
	for _, n := range []int{1, 3, 7} {
		gen, _, _ := newTestGenerator(t, llm.MockResponse{Content: validBatch(n)})
		qs, err := gen.Generate(context.Background(), "Ancient Rome", "ada")
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if len(qs) != n {
			t.Errorf("n=%d: got %d questions", n, len(qs))
		}
	}
}

func TestGenerate_IntegralFloatAnswer(t *testing.T) {
	content := `{"questions": [{"text": "Q", "options": ["a","b","c","d"], "correctAnswer": 2.0}]}`
	gen, _, _ := newTestGenerator(t, llm.MockResponse{Content: content})

	qs, err := gen.Generate(context.Background(), "Ancient Rome", "ada")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qs[0].CorrectAnswer != 2 || !qs[0].IsCorrect(2) {
		t.Errorf("correct answer = %d", qs[0].CorrectAnswer)
	}
}

func TestGenerate_Request(t *testing.T) {
	cfg := DefaultConfig()
	gen, mock, _ := newTestGenerator(t, llm.MockResponse{Content: validBatch(5)})
	if _, err := gen.Generate(context.Background(), "Ancient Rome", "ada"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := mock.Calls[0]
	if len(req.Messages) != 1 || req.Messages[0].Role != llm.RoleUser {
		t.Fatalf("expected a single user message, got %+v", req.Messages)
	}
	if req.System != "" {
		t.Errorf("unexpected system prompt %q", req.System)
	}
	if req.Schema != nil {
		t.Errorf("schema attached without structured output")
	}
	if req.MaxTokens != cfg.MaxTokens {
		t.Errorf("max tokens = %d", req.MaxTokens)
	}
	prompt := req.Messages[0].Content
	for _, want := range []string{`"Ancient Rome"`, "exactly 5", "correctAnswer", "JSON"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestGenerate_StructuredOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StructuredOutput = true
	mock := llm.NewMockProvider(llm.MockResponse{Content: validBatch(5)})
	gen := New(mock, ratelimit.NewMemoryLimiter(5, time.Minute), cfg)

	if _, err := gen.Generate(context.Background(), "Ancient Rome", "ada"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.Calls[0].Schema != QuestionListSchema {
		t.Errorf("expected question list schema on request")
	}
}

func TestGenerate_RecordsOutcomes(t *testing.T) {
	log := &recordingLog{}
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: validBatch(5)},
		llm.MockResponse{Content: "nope"},
	)
	gen := New(mock, ratelimit.NewMemoryLimiter(2, time.Minute), DefaultConfig(), WithGenerationLog(log))
	ctx := context.Background()

	gen.Generate(ctx, "Ancient Rome", "ada")
	gen.Generate(ctx, "Ancient Rome", "ada")
	gen.Generate(ctx, "Ancient Rome", "ada")
	gen.Generate(ctx, "", "ada")

	if len(log.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(log.events))
	}
	want := []string{OutcomeOK, string(KindMalformedResponse), string(KindRateLimited)}
	for i, ev := range log.events {
		if ev.Outcome != want[i] {
			t.Errorf("event %d outcome = %q, want %q", i, ev.Outcome, want[i])
		}
		if ev.UserID != "ada" || ev.Topic != "Ancient Rome" {
			t.Errorf("event %d = %+v", i, ev)
		}
	}
	if log.events[0].QuestionCount != 5 {
		t.Errorf("question count = %d", log.events[0].QuestionCount)
	}
	if log.events[1].Detail == "" {
		t.Errorf("malformed outcome has no detail")
	}
}

func TestGenerate_LogFailureDoesNotFailGeneration(t *testing.T) {
	log := &recordingLog{err: errors.New("disk full")}
	mock := llm.NewMockProvider(llm.MockResponse{Content: validBatch(5)})
	gen := New(mock, ratelimit.NewMemoryLimiter(5, time.Minute), DefaultConfig(), WithGenerationLog(log))

	if _, err := gen.Generate(context.Background(), "Ancient Rome", "ada"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGenerateWithLoggingProviderAndStore(t *testing.T) {
	s, err := store.Open(t.TempDir() + "/quiz.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	mock := llm.NewMockProvider(llm.MockResponse{Content: validBatch(5)})
	provider := llm.WithLogging(mock, s.EventRepo())
	gen := New(provider, ratelimit.NewMemoryLimiter(5, time.Minute), DefaultConfig(),
		WithGenerationLog(s.EventRepo()))

	ctx := context.Background()
	if _, err := gen.Generate(ctx, "Ancient Rome", "ada"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls, err := s.EventRepo().QueryLLMEvents(ctx, store.QueryOpts{})
	if err != nil {
		t.Fatalf("query llm events: %v", err)
	}
	if len(calls) != 1 || calls[0].Purpose != "question-gen" {
		t.Errorf("expected one question-gen call, got %+v", calls)
	}

	gens, err := s.EventRepo().QueryGenerations(ctx, store.QueryOpts{UserID: "ada"})
	if err != nil {
		t.Fatalf("query generations: %v", err)
	}
	if len(gens) != 1 || gens[0].Outcome != OutcomeOK || gens[0].QuestionCount != 5 {
		t.Errorf("unexpected generation events: %+v", gens)
	}
}

// requireWellFormed checks the Question invariants on every returned item.
func requireWellFormed(t *testing.T, qs []Question) {
	t.Helper()
	for i, q := range qs {
		if strings.TrimSpace(q.Text) == "" {
			t.Errorf("question %d has blank text", i)
		}
		if len(q.Options) != OptionCount {
			t.Errorf("question %d has %d options", i, len(q.Options))
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			t.Errorf("question %d correct answer %d out of range", i, q.CorrectAnswer)
		}
	}
}

func TestGenerate_CaseVariantKeysDoNotOverrideValidatedFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			"item keys",
			`{"questions":[{"text":"Q","options":["a","b","c","d"],"correctAnswer":0,"Options":["only"],"CorrectAnswer":7,"TEXT":""}]}`,
		},
		{
			"negative lowercase answer",
			`{"questions":[{"text":"Q","options":["a","b","c","d"],"correctAnswer":0,"correctanswer":-3}]}`,
		},
		{
			"top-level key",
			`{"questions":[{"text":"Q","options":["a","b","c","d"],"correctAnswer":0}],"Questions":[{"text":"","options":["x"],"correctAnswer":9}]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, _, _ := newTestGenerator(t, llm.MockResponse{Content: tt.content})

			qs, err := gen.Generate(context.Background(), "Ancient Rome", "ada")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(qs) != 1 {
				t.Fatalf("expected 1 question, got %d", len(qs))
			}
			requireWellFormed(t, qs)
			q := qs[0]
			if q.Text != "Q" || q.CorrectAnswer != 0 || strings.Join(q.Options, ",") != "a,b,c,d" {
				t.Errorf("validated fields were replaced: %+v", q)
			}
		})
	}
}

func TestGenerate_AcceptedBatchesAreWellFormed(t *testing.T) {
	contents := []string{
		validBatch(5),
		"\x01\x1F" + validBatch(3),
		`{"questions": [{"text": "Q", "options": ["a","b","c","d"], "correctAnswer": 3.0, "topic": "x", "id": 9}]}`,
		`{"questions": [{"text": " Q ", "options": ["a","b","c","d"], "correctAnswer": 1}], "extra": {"options": []}}`,
	}
	for _, content := range contents {
		gen, _, _ := newTestGenerator(t, llm.MockResponse{Content: content})
		qs, err := gen.Generate(context.Background(), "Ancient Rome", "ada")
		if err != nil {
			t.Fatalf("content %q: unexpected error: %v", content, err)
		}
		requireWellFormed(t, qs)
	}
}

func TestQuestionsFrom_RejectsBrokenItems(t *testing.T) {
	tests := []struct {
		name   string
		parsed any
	}{
		{"not an object", []any{}},
		{"no questions", map[string]any{}},
		{"three options", map[string]any{"questions": []any{
			map[string]any{"text": "Q", "options": []any{"a", "b", "c"}, "correctAnswer": float64(0)},
		}}},
		{"negative answer", map[string]any{"questions": []any{
			map[string]any{"text": "Q", "options": []any{"a", "b", "c", "d"}, "correctAnswer": float64(-1)},
		}}},
		{"fractional answer", map[string]any{"questions": []any{
			map[string]any{"text": "Q", "options": []any{"a", "b", "c", "d"}, "correctAnswer": 0.5},
		}}},
		{"blank text", map[string]any{"questions": []any{
			map[string]any{"text": " ", "options": []any{"a", "b", "c", "d"}, "correctAnswer": float64(0)},
		}}},
		{"duplicate option", map[string]any{"questions": []any{
			map[string]any{"text": "Q", "options": []any{"a", "a", "c", "d"}, "correctAnswer": float64(0)},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := questionsFrom(tt.parsed); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestGenerate_TruncatedCompletionIsMalformed(t *testing.T) {
	truncated := &llm.ErrMaxTokensExceeded{Content: `{"questions": [{"te`}
	gen, mock, _ := newTestGenerator(t, llm.MockResponse{Err: truncated})

	_, err := gen.Generate(context.Background(), "Ancient Rome", "ada")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected malformed response, got %v", err)
	}
	if errors.Is(err, ErrServiceError) {
		t.Error("truncation must not be reported as a service error")
	}
	if got := UserMessage(err); got != "Invalid question format from AI" {
		t.Errorf("user message = %q", got)
	}
	var ge *GenerationError
	if !errors.As(err, &ge) || !strings.Contains(ge.Detail, "truncated") {
		t.Errorf("expected truncation in detail, got %#v", err)
	}
	if mock.CallCount() != 1 {
		t.Errorf("expected 1 completion call, got %d", mock.CallCount())
	}
}

func TestGenerate_SchemaCompileFailureStaysInTaxonomy(t *testing.T) {
	gen, _, _ := newTestGenerator(t, llm.MockResponse{Content: validBatch(1)})
	gen.schema = &llm.Schema{
		Name:       "quiz-questions-uncompilable",
		Definition: map[string]any{"type": 5},
	}

	_, err := gen.Generate(context.Background(), "Ancient Rome", "ada")
	if KindOf(err) == "" {
		t.Fatalf("error outside the generation taxonomy: %v", err)
	}
	if !errors.Is(err, ErrSchemaViolation) {
		t.Errorf("expected schema violation, got %v", err)
	}
	if got := UserMessage(err); got != "Invalid question format from AI" {
		t.Errorf("user message = %q", got)
	}
}
