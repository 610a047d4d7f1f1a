package quiz

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/abhisek/quizzler/internal/llm"
)

// OptionCount is the number of answer choices every question carries.
const OptionCount = 4

// QuestionListSchema defines the JSON shape expected from the completion
// service. Unknown fields are tolerated; the model often echoes a topic.
var QuestionListSchema = &llm.Schema{
	Name:        "quiz-questions",
	Description: "A list of multiple-choice quiz questions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text": map[string]any{
							"type":        "string",
							"minLength":   1,
							"pattern":     `\S`,
							"description": "The question shown to the player",
						},
						"options": map[string]any{
							"type":        "array",
							"minItems":    OptionCount,
							"maxItems":    OptionCount,
							"uniqueItems": true,
							"items": map[string]any{
								"type":      "string",
								"minLength": 1,
							},
							"description": "Exactly four distinct answer choices",
						},
						"correctAnswer": map[string]any{
							"type":        "integer",
							"minimum":     0,
							"maximum":     OptionCount - 1,
							"description": "Zero-based index of the correct option",
						},
					},
					"required": []any{"text", "options", "correctAnswer"},
				},
			},
		},
		"required": []any{"questions"},
	},
}

// wireQuestion is one item as the completion service sends it. Any topic
// field the model includes is ignored.
type wireQuestion struct {
	Text          string
	Options       []string
	CorrectAnswer int
}

// questionsFrom extracts the items from a document that has passed
// QuestionListSchema. Only the exact keys the schema checked are read, and
// every item is re-checked against the Question invariants.
func questionsFrom(parsed any) ([]wireQuestion, error) {
	doc, ok := parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document is %T, want object", parsed)
	}
	items, ok := doc["questions"].([]any)
	if !ok || len(items) == 0 {
		return nil, errors.New("questions must be a non-empty array")
	}

	out := make([]wireQuestion, len(items))
	for i, raw := range items {
		w, err := questionFrom(raw)
		if err != nil {
			return nil, fmt.Errorf("questions[%d]: %w", i, err)
		}
		out[i] = w
	}
	return out, nil
}

func questionFrom(raw any) (wireQuestion, error) {
	item, ok := raw.(map[string]any)
	if !ok {
		return wireQuestion{}, fmt.Errorf("item is %T, want object", raw)
	}

	text, ok := item["text"].(string)
	if !ok || strings.TrimSpace(text) == "" {
		return wireQuestion{}, errors.New("text must be a non-blank string")
	}

	rawOpts, ok := item["options"].([]any)
	if !ok || len(rawOpts) != OptionCount {
		return wireQuestion{}, fmt.Errorf("options must hold exactly %d strings", OptionCount)
	}
	opts := make([]string, len(rawOpts))
	seen := make(map[string]bool, len(rawOpts))
	for j, o := range rawOpts {
		str, ok := o.(string)
		if !ok || str == "" || seen[str] {
			return wireQuestion{}, fmt.Errorf("options[%d] must be a distinct non-empty string", j)
		}
		seen[str] = true
		opts[j] = str
	}

	// JSON numbers decode as float64; 2.0 is accepted as 2.
	f, ok := item["correctAnswer"].(float64)
	if !ok || f != math.Trunc(f) || f < 0 || int(f) >= len(opts) {
		return wireQuestion{}, fmt.Errorf("correctAnswer must be an integer in [0, %d)", len(opts))
	}

	return wireQuestion{Text: text, Options: opts, CorrectAnswer: int(f)}, nil
}
