// Package input provides the query input for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// maxQueryLength bounds the query the input accepts.
const maxQueryLength = 512

// QueryInput wraps a bubbles textinput and shows the active search scope.
type QueryInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int

	mode   domain.SearchMode
	filter string
}

// NewQueryInput creates a focused query input.
func NewQueryInput(s *styles.Styles) *QueryInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask about your documents..."
	ti.Focus()
	ti.CharLimit = maxQueryLength
	ti.Width = 50

	return &QueryInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

// Init starts the cursor blink.
func (q *QueryInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (q *QueryInput) Update(msg tea.Msg) (*QueryInput, tea.Cmd) {
	var cmd tea.Cmd
	q.textinput, cmd = q.textinput.Update(msg)
	return q, cmd
}

// View renders the input with its label and scope line.
func (q *QueryInput) View() string {
	label := q.styles.Title.Render("Query: ")
	field := q.styles.InputField.Render(q.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	row := lipgloss.JoinHorizontal(lipgloss.Center, label, field)

	scope := "mode: " + string(q.Mode())
	if q.filter != "" {
		scope += "  " + q.styles.Filter.Render("in: "+q.filter)
	}
	return lipgloss.JoinVertical(lipgloss.Left, row, q.styles.Muted.Render(scope))
}

// Value returns the current query.
func (q *QueryInput) Value() string {
	return q.textinput.Value()
}

// SetValue sets the query.
func (q *QueryInput) SetValue(value string) {
	q.textinput.SetValue(value)
}

// Mode returns the displayed search mode, hybrid when unset.
func (q *QueryInput) Mode() domain.SearchMode {
	if q.mode == "" {
		return domain.SearchModeHybrid
	}
	return q.mode
}

// SetMode sets the displayed search mode.
func (q *QueryInput) SetMode(mode domain.SearchMode) {
	q.mode = mode
}

// Filter returns the document filter shown next to the query.
func (q *QueryInput) Filter() string {
	return q.filter
}

// SetFilter sets the document filter; empty clears it.
func (q *QueryInput) SetFilter(ref string) {
	q.filter = ref
}

// Focus sets focus on the input.
func (q *QueryInput) Focus() tea.Cmd {
	return q.textinput.Focus()
}

// Blur removes focus from the input.
func (q *QueryInput) Blur() {
	q.textinput.Blur()
}

// Focused returns whether the input is focused.
func (q *QueryInput) Focused() bool {
	return q.textinput.Focused()
}

// SetWidth sets the width of the input.
func (q *QueryInput) SetWidth(width int) {
	q.width = width
	// Label and border padding.
	inputWidth := width - 12
	if inputWidth < 20 {
		inputWidth = 20
	}
	q.textinput.Width = inputWidth
}

// Width returns the current width.
func (q *QueryInput) Width() int {
	return q.width
}

// Reset clears the query but keeps the scope.
func (q *QueryInput) Reset() {
	q.textinput.Reset()
}
