package summary

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizzler/internal/quiz"
	"github.com/abhisek/quizzler/internal/router"
	"github.com/abhisek/quizzler/internal/screen"
	"github.com/abhisek/quizzler/internal/session"
	"github.com/abhisek/quizzler/internal/store"
	"github.com/abhisek/quizzler/internal/ui/components"
	"github.com/abhisek/quizzler/internal/ui/layout"
	"github.com/abhisek/quizzler/internal/ui/theme"
)

const (
	LabelShare    = "SHARE QUIZ"
	LabelNewTopic = "NEW TOPIC"
)

// sharedMsg is sent after the quiz has been saved for sharing.
type sharedMsg struct {
	Code string
	Err  error
}

// SummaryScreen displays the quiz results.
type SummaryScreen struct {
	svc       screen.Services
	summary   session.Summary
	questions []quiz.Question
	menu      components.Menu

	sharing   bool
	shareCode string
	shareErr  string
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a SummaryScreen for a finished quiz.
func New(svc screen.Services, sum session.Summary, questions []quiz.Question) *SummaryScreen {
	s := &SummaryScreen{svc: svc, summary: sum, questions: questions}
	s.menu = components.NewMenu([]components.MenuItem{
		{Label: LabelShare, Action: s.share, Disabled: svc.Shares == nil || len(questions) == 0},
		{Label: LabelNewTopic, Action: func() tea.Cmd {
			return func() tea.Msg { return router.PopToRootMsg{} }
		}},
	})
	return s
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Quiz Complete"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Esc", Description: "New topic"},
	}
}

// ShareCode returns the code of the shared quiz, if it has been shared.
func (s *SummaryScreen) ShareCode() string {
	return s.shareCode
}

// share saves a snapshot of the questions and reports the code.
func (s *SummaryScreen) share() tea.Cmd {
	if s.sharing || s.shareCode != "" {
		return nil
	}
	s.sharing = true
	s.shareErr = ""

	repo := s.svc.Shares
	q := store.SharedQuiz{
		CreatedBy: s.svc.UserID,
		Topic:     s.summary.Topic,
		Questions: make([]store.SharedQuestion, len(s.questions)),
	}
	for i, qq := range s.questions {
		q.Questions[i] = store.SharedQuestion{
			Text:          qq.Text,
			Options:       qq.Options,
			CorrectAnswer: qq.CorrectAnswer,
		}
	}
	return func() tea.Msg {
		code, err := repo.Save(context.Background(), q)
		return sharedMsg{Code: code, Err: err}
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case sharedMsg:
		s.sharing = false
		if msg.Err != nil {
			s.shareErr = "Could not share the quiz. Please try again."
			return s, nil
		}
		s.shareCode = msg.Code
		s.menu.SetDisabled(LabelShare, true)
		s.menu.Selected = 1
		return s, nil

	case tea.KeyMsg:
		var cmd tea.Cmd
		s.menu, cmd = s.menu.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(theme.Title.Width(width).Render("Quiz complete!"))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(width).Render(sum.Topic))
	b.WriteString("\n\n")

	stats := fmt.Sprintf("Answered: %d/%d        Correct: %d        Accuracy: %.0f%%",
		sum.Answered, sum.TotalQuestions, sum.Correct, sum.Accuracy*100)
	b.WriteString(layout.Centered(theme.Body.Render(stats), width))
	b.WriteString("\n\n")

	b.WriteString(layout.Centered(s.menu.View(), width))
	b.WriteString("\n")

	switch {
	case s.shareCode != "":
		line := "Share code: " + theme.SuccessText.Render(s.shareCode)
		b.WriteString(layout.Centered(line, width))
		b.WriteString("\n")
		b.WriteString(layout.Centered(theme.Hint.Render("quizzler share show "+s.shareCode), width))
	case s.sharing:
		b.WriteString(layout.Centered(theme.Hint.Render("Sharing..."), width))
	case s.shareErr != "":
		b.WriteString(layout.Centered(theme.ErrorText.Render(s.shareErr), width))
	}

	return b.String()
}
