// Package session tracks the play state of one quiz: which question is on
// screen, what was answered and how the player is doing.
package session

import (
	"errors"

	"github.com/abhisek/quizzler/internal/quiz"
)

var (
	ErrNoCurrentQuestion = errors.New("no current question")
	ErrAlreadyAnswered   = errors.New("question already answered")
	ErrChoiceOutOfRange  = errors.New("choice out of range")
)

// Phase represents where the quiz is in its question cycle.
type Phase int

const (
	PhaseQuestion Phase = iota // Waiting for an answer
	PhaseFeedback              // Answer given, showing the result
	PhaseFinished              // No questions left
)

func (p Phase) String() string {
	switch p {
	case PhaseQuestion:
		return "question"
	case PhaseFeedback:
		return "feedback"
	case PhaseFinished:
		return "finished"
	}
	return "unknown"
}

// AnswerResult records one answered question.
type AnswerResult struct {
	QuestionID string
	Choice     int
	Correct    bool
}

// State is the play state over a generated question list. It is owned by a
// single screen and not safe for concurrent use.
type State struct {
	Topic     string
	Questions []quiz.Question

	index   int
	phase   Phase
	answers []AnswerResult
}

// NewState starts a quiz at the first question. An empty list starts
// finished.
func NewState(topic string, questions []quiz.Question) *State {
	s := &State{Topic: topic, Questions: questions}
	if len(questions) == 0 {
		s.phase = PhaseFinished
	}
	return s
}

// Phase returns the current phase.
func (s *State) Phase() Phase { return s.phase }

// Index returns the zero-based position of the current question.
func (s *State) Index() int { return s.index }

// Current returns the question on screen, or nil once the quiz is finished.
func (s *State) Current() *quiz.Question {
	if s.phase == PhaseFinished || s.index >= len(s.Questions) {
		return nil
	}
	return &s.Questions[s.index]
}

// Answer records choice for the current question and moves to feedback.
func (s *State) Answer(choice int) (AnswerResult, error) {
	q := s.Current()
	if q == nil {
		return AnswerResult{}, ErrNoCurrentQuestion
	}
	if s.phase == PhaseFeedback {
		return AnswerResult{}, ErrAlreadyAnswered
	}
	if choice < 0 || choice >= len(q.Options) {
		return AnswerResult{}, ErrChoiceOutOfRange
	}

	res := AnswerResult{
		QuestionID: q.ID,
		Choice:     choice,
		Correct:    q.IsCorrect(choice),
	}
	s.answers = append(s.answers, res)
	s.phase = PhaseFeedback
	return res, nil
}

// LastAnswer returns the most recent answer, if any.
func (s *State) LastAnswer() (AnswerResult, bool) {
	if len(s.answers) == 0 {
		return AnswerResult{}, false
	}
	return s.answers[len(s.answers)-1], true
}

// Advance moves past the answered question. It reports whether another
// question is available. Advancing from an unanswered question is a no-op.
func (s *State) Advance() bool {
	if s.phase != PhaseFeedback {
		return s.phase == PhaseQuestion
	}
	s.index++
	if s.index >= len(s.Questions) {
		s.phase = PhaseFinished
		return false
	}
	s.phase = PhaseQuestion
	return true
}

// Finish ends the quiz early, e.g. when the guest allowance runs out.
func (s *State) Finish() {
	s.phase = PhaseFinished
}

// Finished reports whether the quiz is over.
func (s *State) Finished() bool { return s.phase == PhaseFinished }

// Answers returns the answers given so far, in order.
func (s *State) Answers() []AnswerResult {
	out := make([]AnswerResult, len(s.answers))
	copy(out, s.answers)
	return out
}
