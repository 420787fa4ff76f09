package views

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/artpar/arttools/internal/app"
	"github.com/artpar/arttools/internal/catalog"
	"github.com/artpar/arttools/internal/core"
	"github.com/artpar/arttools/internal/kv/memory"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItems() []core.Item {
	return []core.Item{
		{ID: core.IntID(1), ArtName: "Acrylic Paint", Price: 20, Image: "https://img/1.jpg", Brand: "Arteza", LimitedTimeDeal: 0.25},
		{ID: core.IntID(2), ArtName: "Brush Set", Price: 10, Image: "https://img/2.jpg", Brand: "Winsor & Newton",
			Description: "Synthetic sable.",
			Reviews: []core.Review{
				{Rating: 5, Comment: "Holds a point", Author: "lin"},
				{Rating: 2, Comment: "Shed bristles"},
			}},
		{ID: core.IntID(3), ArtName: "Glass Palette", Price: 15, Image: "https://img/3.jpg", Brand: "Arteza", GlassSurface: true},
	}
}

type fixture struct {
	app     *app.App
	view    *BrowseView
	fetches *int32
	copied  []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{fetches: new(int32)}
	src := catalog.SourceFunc(func(ctx context.Context) ([]core.Item, error) {
		atomic.AddInt32(f.fetches, 1)
		return testItems(), nil
	})

	f.app = app.New(app.WithCatalog(src), app.WithKV(memory.New()))
	t.Cleanup(func() { f.app.Close() })
	require.NoError(t, f.app.WaitReady(context.Background()))

	f.view = NewBrowseView(f.app, WithClipboard(func(s string) error {
		f.copied = append(f.copied, s)
		return nil
	}))
	f.run(f.view.Init())
	return f
}

// run executes cmd once and feeds its message back into the view.
func (f *fixture) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	f.view.Update(cmd())
}

func (f *fixture) key(k string) tea.Cmd {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "backspace":
		msg = tea.KeyMsg{Type: tea.KeyBackspace}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	_, cmd := f.view.Update(msg)
	return cmd
}

func names(items []core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ArtName
	}
	return out
}

func TestBrowseView_Load(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, TabHome, f.view.Tab())
	assert.Equal(t, []string{"Acrylic Paint", "Brush Set", "Glass Palette"}, names(f.view.Visible()))

	out := f.view.View()
	assert.Contains(t, out, "Acrylic Paint")
	assert.Contains(t, out, "$15.00 -25%")
	assert.Contains(t, out, "Favorites (0)")
}

func TestBrowseView_LoadError(t *testing.T) {
	a := app.New(app.WithCatalog(catalog.SourceFunc(func(ctx context.Context) ([]core.Item, error) {
		return nil, errors.New("offline")
	})))
	defer a.Close()

	v := NewBrowseView(a)
	v.Update(v.Init()())

	assert.Contains(t, v.View(), "Could not load catalog")
	assert.Contains(t, v.Notification(), "offline")
}

func TestBrowseView_ToggleFavorite(t *testing.T) {
	f := newFixture(t)
	fav := f.app.Favorites()

	f.run(f.key("f"))
	assert.True(t, fav.Contains(core.IntID(1)))
	assert.Equal(t, "✓ Added Acrylic Paint", f.view.Notification())
	assert.Contains(t, f.view.View(), "♥")
	assert.Contains(t, f.view.View(), "Favorites (1)")

	f.run(f.key("f"))
	assert.False(t, fav.Contains(core.IntID(1)))
	assert.Equal(t, "✓ Removed Acrylic Paint", f.view.Notification())
}

func TestBrowseView_FavoritesTab(t *testing.T) {
	f := newFixture(t)
	fav := f.app.Favorites()

	f.run(f.key("f"))
	f.key("j")
	f.run(f.key("f"))
	f.key("j")
	f.run(f.key("f"))
	require.Equal(t, 3, fav.Len())

	f.key("tab")
	assert.Equal(t, TabFavorites, f.view.Tab())
	assert.Equal(t, []string{"Acrylic Paint", "Brush Set", "Glass Palette"}, names(f.view.Visible()))

	t.Run("d removes the selected favorite", func(t *testing.T) {
		f.key("j")
		f.run(f.key("d"))
		assert.Equal(t, []string{"Acrylic Paint", "Glass Palette"}, names(f.view.Visible()))
		assert.False(t, fav.Contains(core.IntID(2)))
	})

	t.Run("x removes every shown favorite", func(t *testing.T) {
		f.key("b")
		require.Equal(t, "Arteza", f.view.Brand())
		require.Len(t, f.view.Visible(), 2)
		f.run(f.key("x"))

		assert.Empty(t, f.view.Visible())
		assert.Equal(t, 0, fav.Len())
	})

	t.Run("empty favorites message", func(t *testing.T) {
		f.key("b")
		f.key("b")
		require.Equal(t, "", f.view.Brand())
		assert.Contains(t, f.view.View(), "No favorites yet")
	})
}

func TestBrowseView_HomeTabIgnoresRemoveKeys(t *testing.T) {
	f := newFixture(t)
	f.run(f.key("f"))

	assert.Nil(t, f.key("d"))
	assert.Nil(t, f.key("x"))
	assert.Equal(t, 1, f.app.Favorites().Len())
}

func TestBrowseView_BrandFilter(t *testing.T) {
	f := newFixture(t)

	f.key("b")
	assert.Equal(t, "Arteza", f.view.Brand())
	assert.Equal(t, []string{"Acrylic Paint", "Glass Palette"}, names(f.view.Visible()))

	f.key("b")
	assert.Equal(t, "Winsor & Newton", f.view.Brand())
	assert.Equal(t, []string{"Brush Set"}, names(f.view.Visible()))

	f.key("b")
	assert.Equal(t, "", f.view.Brand())
	assert.Len(t, f.view.Visible(), 3)
}

func TestBrowseView_Search(t *testing.T) {
	f := newFixture(t)

	f.key("/")
	for _, r := range "glasx" {
		f.key(string(r))
	}
	f.key("backspace")
	f.key("s")
	assert.Equal(t, "glass", f.view.Query())
	assert.Contains(t, f.view.View(), "Search: glass_")

	f.key("enter")
	assert.Equal(t, []string{"Glass Palette"}, names(f.view.Visible()))

	f.key("esc")
	assert.Equal(t, "", f.view.Query())
	assert.Len(t, f.view.Visible(), 3)
}

func TestBrowseView_SearchTypesReservedKeys(t *testing.T) {
	f := newFixture(t)

	f.key("/")
	assert.Nil(t, f.key("q"))
	f.key("f")
	assert.Equal(t, "qf", f.view.Query())
	assert.Equal(t, 0, f.app.Favorites().Len())
}

func TestBrowseView_Detail(t *testing.T) {
	f := newFixture(t)

	f.key("down")
	f.key("enter")
	it, ok := f.view.Detail()
	require.True(t, ok)
	assert.Equal(t, "Brush Set", it.ArtName)

	out := f.view.View()
	assert.Contains(t, out, "Synthetic sable.")
	assert.Contains(t, out, "Holds a point")
	assert.Contains(t, out, "Shed bristles")
	assert.Contains(t, out, "3.5 avg, 2 shown")

	for i := 0; i < 3; i++ {
		f.key("m")
	}
	out = f.view.View()
	assert.Contains(t, out, "1 shown (rating 3+)")
	assert.NotContains(t, out, "Shed bristles")

	f.run(f.key("f"))
	assert.True(t, f.app.Favorites().Contains(core.IntID(2)))

	f.key("y")
	assert.Equal(t, []string{"https://img/2.jpg"}, f.copied)

	f.key("esc")
	_, ok = f.view.Detail()
	assert.False(t, ok)
}

func TestBrowseView_CopyImage(t *testing.T) {
	f := newFixture(t)

	f.key("y")
	assert.Equal(t, []string{"https://img/1.jpg"}, f.copied)
	assert.Equal(t, "✓ Copied image URL", f.view.Notification())

	failing := NewBrowseView(f.app, WithClipboard(func(string) error { return errors.New("no display") }))
	failing.Update(failing.Init()())
	failing.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	assert.Equal(t, "✗ Copy failed", failing.Notification())
}

func TestBrowseView_Refresh(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, int32(1), atomic.LoadInt32(f.fetches))

	f.run(f.key("r"))
	assert.Equal(t, int32(2), atomic.LoadInt32(f.fetches))
	assert.Len(t, f.view.Visible(), 3)
}

func TestBrowseView_Quit(t *testing.T) {
	f := newFixture(t)

	cmd := f.key("q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = f.view.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestBrowseView_WindowSize(t *testing.T) {
	f := newFixture(t)
	f.view.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, "Art Tools", f.view.Title())
	assert.Contains(t, f.view.View(), "Glass Palette")
}
