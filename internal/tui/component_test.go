package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

type stubComponent struct {
	inits   int
	updates []tea.Msg
	width   int
	height  int
}

func (s *stubComponent) Init() tea.Cmd {
	s.inits++
	return nil
}

func (s *stubComponent) Update(msg tea.Msg) (Component, tea.Cmd) {
	s.updates = append(s.updates, msg)
	return s, nil
}

func (s *stubComponent) View() string { return "stub" }
func (s *stubComponent) Title() string { return "Stub" }
func (s *stubComponent) SetSize(w, h int) { s.width, s.height = w, h }

func TestModel(t *testing.T) {
	stub := &stubComponent{}
	m := Model{Root: stub}

	m.Init()
	assert.Equal(t, 1, stub.inits)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Equal(t, "stub", updated.View())
	assert.Len(t, stub.updates, 1)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 3, "hel"},
		{"hello", 0, ""},
		{"Winsor & Newton ♥", 10, "Winsor ..."},
		{"♥♥♥♥", 4, "♥♥♥♥"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Truncate(tt.in, tt.width), tt.in)
	}
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab   ", PadRight("ab", 5))
	assert.Equal(t, "♥    ", PadRight("♥", 5))
	assert.Equal(t, "ab...", PadRight("abcdefgh", 5))
}

func TestRenderTitle(t *testing.T) {
	assert.Contains(t, RenderTitle("Art Tools", 40), "Art Tools")
}
