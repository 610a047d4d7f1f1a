package quiz

import (
	"fmt"
	"strings"
)

// buildPrompt constructs the single user message sent to the completion
// service for topic.
func buildPrompt(topic string, count int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate %d multiple-choice quiz questions about %q.\n\n", count, topic)
	b.WriteString("Respond with strictly JSON and nothing else: no prose, no markdown fences.\n")
	b.WriteString("Use exactly this shape:\n")
	b.WriteString(`{"questions": [{"text": "question text", "options": ["A", "B", "C", "D"], "correctAnswer": 0}]}`)
	b.WriteString("\n\nRules:\n")
	fmt.Fprintf(&b, "- Return exactly %d items in \"questions\".\n", count)
	fmt.Fprintf(&b, "- Each item has exactly %d distinct, non-empty options.\n", OptionCount)
	fmt.Fprintf(&b, "- \"correctAnswer\" is the zero-based index (0-%d) of the correct option.\n", OptionCount-1)
	b.WriteString("- Exactly one option is correct.\n")

	return b.String()
}
