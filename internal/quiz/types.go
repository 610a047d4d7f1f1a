package quiz

import "context"

// Question is one validated multiple-choice question ready for display.
type Question struct {
	// ID is generated locally and unique for the life of the process.
	ID string `json:"id"`

	// Text is the question prompt. Never empty.
	Text string `json:"text"`

	// Options holds exactly four distinct answer choices in display order.
	Options []string `json:"options"`

	// CorrectAnswer indexes Options.
	CorrectAnswer int `json:"correctAnswer"`

	// Topic is the sanitized topic the caller asked for, not whatever the
	// model claimed the topic was.
	Topic string `json:"topic"`
}

// IsCorrect reports whether choice is the index of the right option.
func (q Question) IsCorrect(choice int) bool {
	return choice == q.CorrectAnswer
}

// Generator produces a batch of questions for a topic on behalf of a caller.
type Generator interface {
	// Generate returns the validated questions in completion order, or a
	// *GenerationError describing why none could be produced.
	Generate(ctx context.Context, topic, callerID string) ([]Question, error)
}
