package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/artpar/arttools/internal/app"
	"github.com/artpar/arttools/internal/catalog"
	"github.com/artpar/arttools/internal/core"
	"github.com/artpar/arttools/internal/tui"
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const notifyFor = 2 * time.Second

// Backend supplies the catalog and the favorites store. *app.App implements it.
type Backend interface {
	Catalog(ctx context.Context) ([]core.Item, error)
	Refresh(ctx context.Context) ([]core.Item, error)
	Favorites() app.Favorites
}

var _ Backend = (*app.App)(nil)

// Tab is one of the browse screens.
type Tab int

const (
	TabHome Tab = iota
	TabFavorites
)

func (t Tab) String() string {
	if t == TabFavorites {
		return "Favorites"
	}
	return "Home"
}

// BrowseOption configures a BrowseView.
type BrowseOption func(*BrowseView)

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) BrowseOption {
	return func(v *BrowseView) {
		v.copy = write
	}
}

// WithContext sets the context for catalog fetches and favorites writes.
func WithContext(ctx context.Context) BrowseOption {
	return func(v *BrowseView) {
		v.ctx = ctx
	}
}

// BrowseView lists the catalog and the favorites, with a detail screen for
// the selected item.
type BrowseView struct {
	backend Backend
	ctx     context.Context
	styles  tui.Styles
	copy    func(string) error

	width  int
	height int

	tab      Tab
	items    []core.Item
	loading  bool
	loadErr  error
	brands   []string
	brandIdx int // -1 is all brands

	query     string
	searching bool
	cursor    int

	detail    *core.Item
	minRating int

	notification string
	notifyErr    bool
}

type catalogLoadedMsg struct {
	items []core.Item
	err   error
}

type favoritesChangedMsg struct {
	summary string
	err     error
}

type clearNotificationMsg struct{}

// NewBrowseView creates the browse view.
func NewBrowseView(backend Backend, opts ...BrowseOption) *BrowseView {
	v := &BrowseView{
		backend:  backend,
		ctx:      context.Background(),
		styles:   tui.DefaultStyles(),
		copy:     clipboard.WriteAll,
		width:    80,
		height:   24,
		brandIdx: -1,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Init starts loading the catalog.
func (v *BrowseView) Init() tea.Cmd {
	v.loading = true
	return v.fetch(false)
}

// Title returns the component title.
func (v *BrowseView) Title() string {
	return "Art Tools"
}

// SetSize sets dimensions.
func (v *BrowseView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Tab returns the active tab.
func (v *BrowseView) Tab() Tab {
	return v.tab
}

// Brand returns the active brand filter, "" for all brands.
func (v *BrowseView) Brand() string {
	if v.brandIdx < 0 || v.brandIdx >= len(v.brands) {
		return ""
	}
	return v.brands[v.brandIdx]
}

// Query returns the search text.
func (v *BrowseView) Query() string {
	return v.query
}

// Detail returns the item shown on the detail screen.
func (v *BrowseView) Detail() (core.Item, bool) {
	if v.detail == nil {
		return core.Item{}, false
	}
	return *v.detail, true
}

// Notification returns the current status message.
func (v *BrowseView) Notification() string {
	return v.notification
}

// Visible returns the items listed on the active tab.
func (v *BrowseView) Visible() []core.Item {
	source := v.items
	if v.tab == TabFavorites {
		source = v.backend.Favorites().All()
	}
	out, _ := catalog.Query{Brand: v.Brand(), Search: v.query}.Apply(source)
	return out
}

// Update handles messages.
func (v *BrowseView) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetSize(msg.Width, msg.Height)
		return v, nil

	case catalogLoadedMsg:
		v.loading = false
		if msg.err != nil {
			v.loadErr = msg.err
			return v, v.notify("✗ "+msg.err.Error(), true)
		}
		v.loadErr = nil
		v.items = msg.items
		v.brands = catalog.Brands(msg.items)
		if v.brandIdx >= len(v.brands) {
			v.brandIdx = -1
		}
		v.clampCursor()
		return v, nil

	case favoritesChangedMsg:
		v.clampCursor()
		if msg.err != nil {
			return v, v.notify("✗ Favorites not saved: "+msg.err.Error(), true)
		}
		return v, v.notify("✓ "+msg.summary, false)

	case clearNotificationMsg:
		v.notification = ""
		v.notifyErr = false
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

func (v *BrowseView) handleKeyMsg(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return v, tea.Quit
	}
	if v.searching {
		return v.handleSearchKey(msg)
	}
	if v.detail != nil {
		return v.handleDetailKey(msg)
	}

	switch msg.Type {
	case tea.KeyTab:
		v.switchTab()
		return v, nil
	case tea.KeyUp:
		v.move(-1)
		return v, nil
	case tea.KeyDown:
		v.move(1)
		return v, nil
	case tea.KeyEnter:
		if it, ok := v.selected(); ok {
			v.detail = &it
			v.minRating = 0
		}
		return v, nil
	case tea.KeyEsc:
		v.query = ""
		v.clampCursor()
		return v, nil
	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "q":
			return v, tea.Quit
		case "j":
			v.move(1)
		case "k":
			v.move(-1)
		case "b":
			v.cycleBrand()
		case "/":
			v.searching = true
		case "r":
			v.loading = true
			return v, v.fetch(true)
		case "f":
			if it, ok := v.selected(); ok {
				return v, v.toggle(it)
			}
		case "y":
			if it, ok := v.selected(); ok {
				return v, v.copyImage(it)
			}
		case "d":
			if it, ok := v.selected(); ok && v.tab == TabFavorites {
				return v, v.remove([]core.ItemID{it.ID}, "Removed "+it.ArtName)
			}
		case "x":
			if v.tab == TabFavorites {
				shown := v.Visible()
				if len(shown) == 0 {
					return v, nil
				}
				ids := make([]core.ItemID, len(shown))
				for i, it := range shown {
					ids[i] = it.ID
				}
				return v, v.remove(ids, fmt.Sprintf("Removed %d favorites", len(ids)))
			}
		}
	}
	return v, nil
}

func (v *BrowseView) handleSearchKey(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		v.searching = false
	case tea.KeyEsc:
		v.searching = false
		v.query = ""
	case tea.KeyBackspace:
		if r := []rune(v.query); len(r) > 0 {
			v.query = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		v.query += " "
	case tea.KeyRunes:
		v.query += string(msg.Runes)
	}
	v.clampCursor()
	return v, nil
}

func (v *BrowseView) handleDetailKey(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	it := *v.detail

	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter, tea.KeyBackspace:
		v.detail = nil
		return v, nil
	case tea.KeyTab:
		v.detail = nil
		v.switchTab()
		return v, nil
	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "q":
			return v, tea.Quit
		case "f":
			return v, v.toggle(it)
		case "y":
			return v, v.copyImage(it)
		case "m":
			v.minRating = (v.minRating + 1) % 6
		}
	}
	return v, nil
}

func (v *BrowseView) switchTab() {
	if v.tab == TabHome {
		v.tab = TabFavorites
	} else {
		v.tab = TabHome
	}
	v.cursor = 0
	v.clampCursor()
}

func (v *BrowseView) cycleBrand() {
	v.brandIdx++
	if v.brandIdx >= len(v.brands) {
		v.brandIdx = -1
	}
	v.cursor = 0
}

func (v *BrowseView) move(delta int) {
	v.cursor += delta
	v.clampCursor()
}

func (v *BrowseView) clampCursor() {
	n := len(v.Visible())
	if v.cursor >= n {
		v.cursor = n - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
}

func (v *BrowseView) selected() (core.Item, bool) {
	shown := v.Visible()
	if v.cursor < 0 || v.cursor >= len(shown) {
		return core.Item{}, false
	}
	return shown[v.cursor], true
}

func (v *BrowseView) fetch(refresh bool) tea.Cmd {
	backend, ctx := v.backend, v.ctx
	return func() tea.Msg {
		var items []core.Item
		var err error
		if refresh {
			items, err = backend.Refresh(ctx)
		} else {
			items, err = backend.Catalog(ctx)
		}
		return catalogLoadedMsg{items: items, err: err}
	}
}

func (v *BrowseView) toggle(it core.Item) tea.Cmd {
	fav, ctx := v.backend.Favorites(), v.ctx
	return func() tea.Msg {
		change, err := fav.Toggle(ctx, it)
		if err != nil {
			return favoritesChangedMsg{err: err}
		}
		summary := "Removed " + it.ArtName
		if change.Added {
			summary = "Added " + it.ArtName
		}
		return favoritesChangedMsg{summary: summary, err: change.Wait(ctx)}
	}
}

func (v *BrowseView) remove(ids []core.ItemID, summary string) tea.Cmd {
	fav, ctx := v.backend.Favorites(), v.ctx
	return func() tea.Msg {
		change, err := fav.RemoveMany(ctx, ids...)
		if err != nil {
			return favoritesChangedMsg{err: err}
		}
		return favoritesChangedMsg{summary: summary, err: change.Wait(ctx)}
	}
}

func (v *BrowseView) copyImage(it core.Item) tea.Cmd {
	if it.Image == "" {
		return v.notify("✗ No image URL", true)
	}
	if err := v.copy(it.Image); err != nil {
		return v.notify("✗ Copy failed", true)
	}
	return v.notify("✓ Copied image URL", false)
}

func (v *BrowseView) notify(text string, isErr bool) tea.Cmd {
	v.notification = text
	v.notifyErr = isErr
	return tea.Tick(notifyFor, func(time.Time) tea.Msg {
		return clearNotificationMsg{}
	})
}

// View renders the view.
func (v *BrowseView) View() string {
	var body string
	if v.detail != nil {
		body = v.renderDetail(*v.detail)
	} else {
		body = v.renderList()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		tui.RenderTitle(v.Title(), v.width),
		v.renderTabs(),
		v.renderFilters(),
		body,
		v.renderHelpBar(),
		v.renderStatus(),
	)
}

func (v *BrowseView) renderTabs() string {
	favCount := v.backend.Favorites().Len()
	tabs := []string{
		fmt.Sprintf("%s (%d)", TabHome, len(v.items)),
		fmt.Sprintf("%s (%d)", TabFavorites, favCount),
	}
	for i, label := range tabs {
		if Tab(i) == v.tab {
			tabs[i] = v.styles.ActiveTab.Render(label)
		} else {
			tabs[i] = v.styles.Tab.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (v *BrowseView) renderFilters() string {
	brand := v.Brand()
	if brand == "" {
		brand = "All"
	}
	search := v.query
	if v.searching {
		search += "_"
	}
	line := "Brand: " + brand
	if search != "" {
		line += "   Search: " + search
	}
	return v.styles.Muted.Render(line)
}

func (v *BrowseView) renderList() string {
	switch {
	case v.loading && len(v.items) == 0:
		return "Loading catalog..."
	case v.loadErr != nil && len(v.items) == 0:
		return v.styles.Error.Render("Could not load catalog: "+v.loadErr.Error()) + "\nPress r to retry."
	}

	shown := v.Visible()
	if len(shown) == 0 {
		if v.tab == TabFavorites && v.query == "" && v.Brand() == "" {
			return v.styles.Muted.Render("No favorites yet. Press f on an item to add it.")
		}
		return v.styles.Muted.Render("No items match.")
	}

	rows := v.height - 7
	if rows < 1 {
		rows = 1
	}
	start := 0
	if v.cursor >= rows {
		start = v.cursor - rows + 1
	}
	end := start + rows
	if end > len(shown) {
		end = len(shown)
	}

	nameWidth := v.width - 44
	if nameWidth < 12 {
		nameWidth = 12
	}

	fav := v.backend.Favorites()
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		it := shown[i]

		marker := "  "
		if i == v.cursor {
			marker = "▸ "
		}
		heart := "  "
		if fav.Contains(it.ID) {
			heart = v.styles.Heart.Render("♥") + " "
		}

		name := tui.PadRight(it.ArtName, nameWidth)
		if i == v.cursor {
			name = v.styles.Selected.Render(name)
		}
		brand := v.styles.Muted.Render(tui.PadRight(it.Brand, 18))

		lines = append(lines, marker+heart+name+" "+brand+" "+v.priceLabel(it))
	}
	return strings.Join(lines, "\n")
}

func (v *BrowseView) priceLabel(it core.Item) string {
	if !it.HasDeal() {
		return fmt.Sprintf("$%.2f", it.Price)
	}
	deal := v.styles.Deal.Render(fmt.Sprintf("$%.2f -%d%%", it.DiscountedPrice(), it.DealPercent()))
	return deal + v.styles.Muted.Render(fmt.Sprintf(" was $%.2f", it.Price))
}

func (v *BrowseView) renderDetail(it core.Item) string {
	var b strings.Builder

	heart := ""
	if v.backend.Favorites().Contains(it.ID) {
		heart = " " + v.styles.Heart.Render("♥")
	}
	b.WriteString(v.styles.Title.Render(it.ArtName) + heart + "\n")
	if it.Brand != "" {
		b.WriteString(v.styles.Muted.Render(it.Brand) + "\n")
	}
	b.WriteString(v.priceLabel(it) + "\n")
	if it.GlassSurface {
		b.WriteString("Glass surface\n")
	}
	if it.Description != "" {
		b.WriteString("\n" + it.Description + "\n")
	}
	if it.Image != "" {
		b.WriteString(v.styles.Muted.Render(it.Image) + "\n")
	}

	reviews := catalog.FilterReviews(it.Reviews, v.minRating)
	b.WriteString(fmt.Sprintf("\nReviews %.1f avg, %d shown", catalog.AverageRating(it.Reviews), len(reviews)))
	if v.minRating > 0 {
		b.WriteString(fmt.Sprintf(" (rating %d+)", v.minRating))
	}
	b.WriteString("\n")
	for _, r := range reviews {
		stars := clamp(r.Rating, 0, 5)
		line := strings.Repeat("★", stars) + strings.Repeat("☆", 5-stars) + " " + r.Comment
		if r.Author != "" {
			line += v.styles.Muted.Render(" - " + r.Author)
		}
		b.WriteString(line + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (v *BrowseView) renderHelpBar() string {
	key := v.styles.Key.Render
	var hints []string

	switch {
	case v.searching:
		hints = []string{key("Enter") + " Apply", key("Esc") + " Cancel"}
	case v.detail != nil:
		hints = []string{key("f") + " Favorite", key("m") + " Min rating", key("y") + " Copy image", key("Esc") + " Back"}
	case v.tab == TabFavorites:
		hints = []string{key("d") + " Remove", key("x") + " Remove shown", key("Enter") + " Details", key("/") + " Search"}
	default:
		hints = []string{key("f") + " Favorite", key("b") + " Brand", key("/") + " Search", key("Enter") + " Details"}
	}
	hints = append(hints, key("r")+" Refresh", key("Tab")+" Switch", key("q")+" Quit")

	return lipgloss.NewStyle().
		Width(v.width).
		Background(lipgloss.Color("235")).
		Padding(0, 1).
		Render(strings.Join(hints, " │ "))
}

func (v *BrowseView) renderStatus() string {
	if v.notification == "" {
		return ""
	}
	if v.notifyErr {
		return v.styles.Error.Render(v.notification)
	}
	return v.notification
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
