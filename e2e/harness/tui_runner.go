package harness

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/artpar/arttools/internal/app"
	"github.com/artpar/arttools/internal/tui/views"
	tea "github.com/charmbracelet/bubbletea"
)

// TUIRunner provides TUI testing capabilities.
type TUIRunner struct {
	harness *E2EHarness
}

// TUISession represents an active TUI test session over a real App.
type TUISession struct {
	runner *TUIRunner
	app    *app.App
	model  *views.BrowseView
	t      *testing.T
	copied []string
}

// Start opens the app on the harness data directory and loads the catalog.
func (r *TUIRunner) Start(t *testing.T, catalogURL string) *TUISession {
	t.Helper()

	ctx := context.Background()
	a, err := app.Open(ctx, r.harness.Config(catalogURL))
	if err != nil {
		t.Fatalf("failed to open app: %v", err)
	}
	a.Start(ctx)

	s := &TUISession{runner: r, app: a, t: t}
	s.model = views.NewBrowseView(a,
		views.WithContext(ctx),
		views.WithClipboard(func(text string) error {
			s.copied = append(s.copied, text)
			return nil
		}),
	)
	s.model.SetSize(120, 40)
	s.executeCmd(s.model.Init())

	t.Cleanup(s.Quit)
	return s
}

// SendKey sends a key press.
func (s *TUISession) SendKey(key string) *TUISession {
	_, cmd := s.model.Update(parseKeyMsg(key))
	s.executeCmd(cmd)
	return s
}

// SendKeys sends multiple key presses.
func (s *TUISession) SendKeys(keys ...string) *TUISession {
	for _, key := range keys {
		s.SendKey(key)
	}
	return s
}

// Type sends a sequence of rune keys.
func (s *TUISession) Type(text string) *TUISession {
	for _, r := range text {
		_, cmd := s.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		s.executeCmd(cmd)
	}
	return s
}

// executeCmd runs cmd and feeds its message back into the view. Commands
// returned from that update are notification timers and quit; they are
// not followed.
func (s *TUISession) executeCmd(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if msg == nil {
		return
	}
	if _, ok := msg.(tea.QuitMsg); ok {
		return
	}
	s.model.Update(msg)
}

// WaitForOutput waits for specific text in output.
func (s *TUISession) WaitForOutput(text string) error {
	timeout := s.runner.harness.timeout
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if strings.Contains(s.Output(), text) {
			return nil
		}
		time.Sleep(20 * time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for %q after %v", text, timeout)
}

// Output returns the current TUI output.
func (s *TUISession) Output() string {
	return s.model.View()
}

// Model returns the underlying view for direct assertions.
func (s *TUISession) Model() *views.BrowseView {
	return s.model
}

// App returns the application behind the session.
func (s *TUISession) App() *app.App {
	return s.app
}

// Copied returns what the session wrote to the clipboard.
func (s *TUISession) Copied() []string {
	return s.copied
}

// Quit closes the app, flushing favorites to storage. Safe to call twice.
func (s *TUISession) Quit() {
	if err := s.app.Close(); err != nil {
		s.t.Errorf("failed to close app: %v", err)
	}
}

func parseKeyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}
