package play

import (
	"github.com/abhisek/quizzler/internal/quiz"
	"github.com/abhisek/quizzler/internal/store"
)

// questionsMsg is sent when generation finishes.
type questionsMsg struct {
	Questions []quiz.Question
	Err       error
}

// progressSavedMsg is sent after a correct answer has been persisted.
type progressSavedMsg struct {
	Total int
	Err   error
}

// ratedMsg is sent after a rating has been persisted.
type ratedMsg struct {
	QuestionID string
	Vote       store.Vote
	Err        error
}
