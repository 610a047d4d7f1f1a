// Package play implements the quiz screen: generation, questions, answer
// feedback and rating.
package play

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizzler/internal/quiz"
	"github.com/abhisek/quizzler/internal/router"
	"github.com/abhisek/quizzler/internal/screen"
	"github.com/abhisek/quizzler/internal/screens/summary"
	"github.com/abhisek/quizzler/internal/session"
	"github.com/abhisek/quizzler/internal/store"
	"github.com/abhisek/quizzler/internal/ui/components"
	"github.com/abhisek/quizzler/internal/ui/layout"
)

// Phase is where the screen is in its cycle.
type Phase int

const (
	PhaseLoading  Phase = iota // Waiting for generation
	PhaseQuestion              // Waiting for an answer
	PhaseFeedback              // Showing the result of the last answer
	PhaseError                 // Generation failed
)

const (
	msgSaveFailed  = "Failed to save progress - please try again"
	msgRateFailed  = "Could not save your rating."
	msgRated       = "Thanks for the feedback!"
	msgNoQuestions = "No questions came back. Press r to try again."
	msgGuestLimit  = "That was your last guest question. Restart with --user to keep playing."
)

// PlayScreen runs one quiz on a topic.
type PlayScreen struct {
	svc   screen.Services
	topic string

	phase      Phase
	generating bool
	state      *session.State
	choice     components.MultiChoice

	errMsg    string
	saveErr   string
	rateMsg   string
	votes     map[string]store.Vote
	lastTotal int

	limitReached bool
}

var _ screen.Screen = (*PlayScreen)(nil)
var _ screen.KeyHintProvider = (*PlayScreen)(nil)

// New creates a PlayScreen for the raw topic the player typed.
func New(svc screen.Services, topic string) *PlayScreen {
	return &PlayScreen{
		svc:       svc,
		topic:     topic,
		votes:     make(map[string]store.Vote),
		lastTotal: -1,
	}
}

func (s *PlayScreen) Init() tea.Cmd {
	return s.generate()
}

func (s *PlayScreen) Title() string {
	return quiz.SanitizeTopic(s.topic)
}

// Phase returns the current phase.
func (s *PlayScreen) Phase() Phase { return s.phase }

func (s *PlayScreen) KeyHints() []layout.KeyHint {
	switch s.phase {
	case PhaseQuestion:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Choose"},
			{Key: "1-4", Description: "Answer"},
			{Key: "Enter", Description: "Submit"},
			{Key: "Esc", Description: "Quit quiz"},
		}
	case PhaseFeedback:
		hints := []layout.KeyHint{{Key: "Enter", Description: "Next"}}
		if s.canRate() {
			hints = append(hints, layout.KeyHint{Key: "+/-", Description: "Rate question"})
		}
		return append(hints, layout.KeyHint{Key: "Esc", Description: "Quit quiz"})
	case PhaseError:
		return []layout.KeyHint{
			{Key: "r", Description: "Try again"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
}

// generate starts a generation call unless one is already in flight.
func (s *PlayScreen) generate() tea.Cmd {
	if s.generating || s.svc.Generator == nil {
		return nil
	}
	s.generating = true
	s.phase = PhaseLoading
	s.errMsg = ""

	gen, topic, user := s.svc.Generator, s.topic, s.svc.UserID
	return func() tea.Msg {
		qs, err := gen.Generate(context.Background(), topic, user)
		return questionsMsg{Questions: qs, Err: err}
	}
}

func (s *PlayScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case questionsMsg:
		return s.handleQuestions(msg)
	case progressSavedMsg:
		return s.handleProgressSaved(msg)
	case ratedMsg:
		return s.handleRated(msg)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *PlayScreen) handleQuestions(msg questionsMsg) (screen.Screen, tea.Cmd) {
	s.generating = false
	if msg.Err != nil {
		s.phase = PhaseError
		s.errMsg = quiz.UserMessage(msg.Err)
		return s, nil
	}
	if len(msg.Questions) == 0 {
		s.phase = PhaseError
		s.errMsg = msgNoQuestions
		return s, nil
	}

	s.state = session.NewState(msg.Questions[0].Topic, msg.Questions)
	s.showCurrent()
	return s, nil
}

func (s *PlayScreen) showCurrent() {
	q := s.state.Current()
	if q == nil {
		return
	}
	s.choice = components.NewMultiChoice(q.Text, q.Options, q.CorrectAnswer)
	s.phase = PhaseQuestion
	s.rateMsg = ""
}

func (s *PlayScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	switch s.phase {
	case PhaseError:
		if key == "r" {
			return s, s.generate()
		}

	case PhaseQuestion:
		s.choice = s.choice.Update(msg)
		if s.choice.Submitted {
			return s, s.answer(s.choice.ChosenIndex)
		}

	case PhaseFeedback:
		switch key {
		case "+", "=":
			return s, s.rate(store.VoteUp)
		case "-", "_":
			return s, s.rate(store.VoteDown)
		case "enter", "space", "n":
			return s, s.next()
		}
	}
	return s, nil
}

// answer records the choice and, for a correct answer, persists progress.
func (s *PlayScreen) answer(choice int) tea.Cmd {
	res, err := s.state.Answer(choice)
	if err != nil {
		return nil
	}
	s.phase = PhaseFeedback

	if s.svc.Allowance != nil && s.svc.Allowance.Record() {
		s.limitReached = true
	}

	if !res.Correct || s.svc.Guest || s.svc.Progress == nil {
		return nil
	}
	repo, user := s.svc.Progress, s.svc.UserID
	return func() tea.Msg {
		total, err := repo.Increment(context.Background(), user)
		return progressSavedMsg{Total: total, Err: err}
	}
}

func (s *PlayScreen) handleProgressSaved(msg progressSavedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.saveErr = msgSaveFailed
		return s, nil
	}
	s.saveErr = ""
	s.lastTotal = msg.Total
	total := msg.Total
	return s, func() tea.Msg { return screen.ProgressMsg{Total: total} }
}

func (s *PlayScreen) canRate() bool {
	if s.svc.Ratings == nil || s.state == nil {
		return false
	}
	q := s.state.Current()
	if q == nil {
		return false
	}
	_, voted := s.votes[q.ID]
	return !voted
}

// rate stores a vote on the current question. Each question can be rated
// once.
func (s *PlayScreen) rate(vote store.Vote) tea.Cmd {
	if !s.canRate() {
		return nil
	}
	q := *s.state.Current()
	s.votes[q.ID] = vote

	repo := s.svc.Ratings
	in := store.RatingInput{
		QuestionID:   q.ID,
		QuestionText: q.Text,
		Topic:        q.Topic,
		Vote:         vote,
	}
	return func() tea.Msg {
		_, err := repo.Rate(context.Background(), in)
		return ratedMsg{QuestionID: in.QuestionID, Vote: vote, Err: err}
	}
}

func (s *PlayScreen) handleRated(msg ratedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		delete(s.votes, msg.QuestionID)
		s.rateMsg = msgRateFailed
		return s, nil
	}
	if q := s.state.Current(); q != nil && q.ID == msg.QuestionID {
		s.rateMsg = msgRated
	}
	return s, nil
}

// next moves to the following question, or to the summary when the quiz
// is over.
func (s *PlayScreen) next() tea.Cmd {
	if s.limitReached {
		s.state.Finish()
	}
	if s.state.Advance() {
		s.showCurrent()
		return nil
	}

	sum := summary.New(s.svc, s.state.Summary(), s.state.Questions)
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: sum} }
}
