// Package search provides the query and results view for the TUI.
package search

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// View is the search view: a query input, the ranked chunks and a status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.ResultList
	statusbar *status.Bar

	searchService driving.SearchService
	ctx           context.Context

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true = typing a query, false = navigating results
	lastQuery  string
}

// NewView creates a new search view.
func NewView(s *styles.Styles, km *keymap.KeyMap, searchService driving.SearchService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewQueryInput(s),
		list:          list.NewResultList(s),
		statusbar:     status.NewBar(s, km),
		searchService: searchService,
		ctx:           context.Background(),
		width:         80,
		height:        24,
		focusInput:    true,
	}
}

// WithContext sets the context searches run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.Fail(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.Type { //nolint:exhaustive // only navigation keys are global
	case tea.KeyEsc:
		if v.input.Filter() != "" {
			v.SetFilter("")
			v.statusbar.Notice("Searching all documents")
			return v, v.rerun()
		}
		return v, changeView(messages.ViewMenu)
	case tea.KeyTab:
		return v, changeView(messages.ViewDocuments)
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			return v, v.submit(v.input.Value())
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch msg.String() {
	case "up", "k":
		v.list.MoveUp()
	case "down", "j":
		v.list.MoveDown()
	case "enter":
		v.list.ToggleExpanded()
	case "n":
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	case "m":
		v.input.SetMode(nextMode(v.input.Mode()))
		return v, v.rerun()
	case "f":
		if result := v.list.SelectedResult(); result != nil && result.Reference() != "" {
			ref := result.Reference()
			return v, func() tea.Msg { return messages.DocumentSelected{Reference: ref} }
		}
	}
	return v, nil
}

// submit starts a search for query.
func (v *View) submit(query string) tea.Cmd {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	v.lastQuery = query
	v.focusInput = false
	v.input.Blur()
	v.statusbar.SetState(status.StateSearching)
	return v.performSearch(query, v.Options())
}

// rerun repeats the last search with the current scope.
func (v *View) rerun() tea.Cmd {
	if v.lastQuery == "" {
		return nil
	}
	v.statusbar.SetState(status.StateSearching)
	return v.performSearch(v.lastQuery, v.Options())
}

// performSearch returns a command running the search off the update loop.
func (v *View) performSearch(query string, opts domain.SearchOptions) tea.Cmd {
	ctx := v.ctx
	svc := v.searchService
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoSearchService}
		}
		results, err := svc.Search(ctx, query, opts)
		return messages.SearchCompleted{Query: query, Options: opts, Results: results, Err: err}
	}
}

// handleSearchCompleted shows results, ignoring replies to superseded queries.
func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	if msg.Query != "" && msg.Query != v.lastQuery {
		return
	}
	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.Fail(msg.Err)
		return
	}

	v.err = nil
	v.list.SetResults(msg.Results)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetCount(len(msg.Results))
	v.focusInput = false
	v.input.Blur()
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections, v.styles.Title.Render("docqa"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	sections = append(sections, v.list.View(), "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func changeView(view messages.ViewType) tea.Cmd {
	return func() tea.Msg {
		return messages.ViewChanged{View: view}
	}
}

// nextMode cycles hybrid, semantic, keyword.
func nextMode(mode domain.SearchMode) domain.SearchMode {
	modes := domain.AllSearchModes()
	for i, m := range modes {
		if m == mode {
			return modes[(i+1)%len(modes)]
		}
	}
	return modes[0]
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-11) // header, input, scope line and status bar
	v.statusbar.SetWidth(width)
}

// Options returns the search options for the current scope.
func (v *View) Options() domain.SearchOptions {
	return domain.SearchOptions{
		DocumentFilter: v.input.Filter(),
		Mode:           v.input.Mode(),
	}
}

// SetFilter restricts searches to one document; empty clears it.
func (v *View) SetFilter(ref string) {
	v.input.SetFilter(ref)
}

// FilterTo restricts searches to ref and repeats the last query, if any.
func (v *View) FilterTo(ref string) tea.Cmd {
	v.SetFilter(ref)
	if ref != "" {
		v.statusbar.Notice("Searching in " + ref)
	}
	return v.rerun()
}

// Filter returns the active document filter.
func (v *View) Filter() string {
	return v.input.Filter()
}

// SetMode sets the search mode.
func (v *View) SetMode(mode domain.SearchMode) {
	if mode.IsValid() {
		v.input.SetMode(mode)
	}
}

// Mode returns the search mode.
func (v *View) Mode() domain.SearchMode {
	return v.input.Mode()
}

// Width returns the current width.
func (v *View) Width() int {
	return v.width
}

// Height returns the current height.
func (v *View) Height() int {
	return v.height
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the text in the query input.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the text in the query input.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Results returns the current search results.
func (v *View) Results() []domain.SearchResult {
	return v.list.Results()
}

// SelectedIndex returns the index of the selected result.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// SelectedResult returns the currently selected result.
func (v *View) SelectedResult() *domain.SearchResult {
	return v.list.SelectedResult()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Reset returns the view to an empty query, keeping mode and filter.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetResults(nil)
	v.lastQuery = ""
	v.err = nil
	v.statusbar.Clear()
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
