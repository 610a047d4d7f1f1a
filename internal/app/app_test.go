package app

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizzler/internal/router"
	"github.com/abhisek/quizzler/internal/screen"
	"github.com/abhisek/quizzler/internal/screens/topic"
	"github.com/abhisek/quizzler/internal/screens/welcome"
)

func update(t *testing.T, m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	am, ok := next.(AppModel)
	if !ok {
		t.Fatalf("expected AppModel, got %T", next)
	}
	return am, cmd
}

func TestStartsOnWelcome(t *testing.T) {
	m := newAppModel(screen.Services{UserID: "alice"})
	if _, ok := m.router.Active().(*welcome.WelcomeScreen); !ok {
		t.Fatalf("expected welcome screen, got %T", m.router.Active())
	}
	if m.Init() == nil {
		t.Error("expected the welcome animation to start")
	}
}

func TestKeypressMovesToTopic(t *testing.T) {
	m := newAppModel(screen.Services{UserID: "alice"})

	m, cmd := update(t, m, tea.KeyPressMsg{Code: ' '})
	if cmd == nil {
		t.Fatal("expected a transition command")
	}
	m, _ = update(t, m, cmd())

	if _, ok := m.router.Active().(*topic.TopicScreen); !ok {
		t.Fatalf("expected topic screen, got %T", m.router.Active())
	}
	if m.router.Depth() != 1 {
		t.Errorf("Depth = %d, want 1", m.router.Depth())
	}
}

func TestProgressMsgUpdatesHeader(t *testing.T) {
	m := newAppModel(screen.Services{UserID: "alice"})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(t, m, screen.ProgressMsg{Total: 7})

	if m.headerInfo().Answered != 7 {
		t.Errorf("Answered = %d, want 7", m.headerInfo().Answered)
	}
	if !strings.Contains(m.render(), "✓ 7") {
		t.Error("expected the total in the header")
	}
}

func TestGuestHeaderHidesCounter(t *testing.T) {
	m := newAppModel(screen.Services{Guest: true})
	m, _ = update(t, m, screen.ProgressMsg{Total: 3})

	info := m.headerInfo()
	if info.Answered != -1 || !info.Guest {
		t.Errorf("unexpected guest header info: %+v", info)
	}
}

func TestEscAtRootIsNoop(t *testing.T) {
	m := newAppModel(screen.Services{})
	_, cmd := update(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd != nil {
		t.Error("esc on the root screen should do nothing")
	}
}

func TestEscPopsWhenStacked(t *testing.T) {
	m := newAppModel(screen.Services{})
	m.router.Push(topic.New(screen.Services{}))

	_, cmd := update(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected a pop command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Errorf("expected PopScreenMsg, got %T", cmd())
	}
}

func TestTooSmall(t *testing.T) {
	m := newAppModel(screen.Services{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 10})
	if !strings.Contains(m.render(), "Terminal too small") {
		t.Error("expected the minimum size message")
	}
}
