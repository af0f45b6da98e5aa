// Package documents provides the indexed documents view for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// errNoDocumentService is reported when the view has no document service.
var errNoDocumentService = errors.New("document service not available")

// ActionOption is an entry in the document action menu.
type ActionOption int

const (
	ActionSearchIn ActionOption = iota
	ActionRemove
	ActionCancel
)

// View lists the indexed documents with their chunk counts.
type View struct {
	styles          *styles.Styles
	documentService driving.DocumentService
	ctx             context.Context

	documents    []domain.DocumentInfo
	stats        domain.IndexStats
	selected     int
	width        int
	height       int
	ready        bool
	err          error
	notice       string
	loading      bool
	showingMenu  bool
	confirming   bool
	menuSelected ActionOption
	scrollOffset int
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		documentService: documentService,
		ctx:             context.Background(),
	}
}

// WithContext sets the context service calls run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the document list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.showingMenu = false
	v.confirming = false
	return Load(v.ctx, v.documentService)
}

// Load returns a command that lists documents and index statistics.
func Load(ctx context.Context, svc driving.DocumentService) tea.Cmd {
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentsLoaded{Err: errNoDocumentService}
		}
		docs, err := svc.List(ctx)
		if err != nil {
			return messages.DocumentsLoaded{Err: err}
		}
		stats, err := svc.Stats(ctx)
		return messages.DocumentsLoaded{Documents: docs, Stats: stats, Err: err}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch {
		case v.confirming:
			return v.handleConfirmKeyMsg(msg)
		case v.showingMenu:
			return v.handleMenuKeyMsg(msg)
		default:
			return v.handleKeyMsg(msg)
		}

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.documents = msg.Documents
		v.stats = msg.Stats
		if v.selected >= len(v.documents) {
			v.selected = max(len(v.documents)-1, 0)
		}
		v.adjustScroll()
		return v, nil

	case messages.DocumentRemoved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.notice = fmt.Sprintf("Removed %d chunks for %s", msg.Chunks, msg.Reference)
		return v, v.Init()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses in list mode.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if len(v.documents) > 0 {
			v.showingMenu = true
			v.menuSelected = ActionSearchIn
		}
	case "d":
		if len(v.documents) > 0 {
			v.confirming = true
		}
	case "esc":
		return v, changeView(messages.ViewMenu)
	case "tab":
		return v, changeView(messages.ViewSearch)
	case "r":
		v.notice = ""
		return v, v.Init()
	}

	return v, nil
}

// handleMenuKeyMsg handles key presses in action menu mode.
func (v *View) handleMenuKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.menuSelected > ActionSearchIn {
			v.menuSelected--
		}
	case "down", "j":
		if v.menuSelected < ActionCancel {
			v.menuSelected++
		}
	case "enter":
		v.showingMenu = false
		doc := v.SelectedDocument()
		if doc == nil {
			return v, nil
		}
		switch v.menuSelected {
		case ActionSearchIn:
			ref := doc.Reference
			return v, func() tea.Msg { return messages.DocumentSelected{Reference: ref} }
		case ActionRemove:
			v.confirming = true
		case ActionCancel:
		}
	case "esc":
		v.showingMenu = false
	}

	return v, nil
}

// handleConfirmKeyMsg asks before removing the selected document.
func (v *View) handleConfirmKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	v.confirming = false
	if msg.String() != "y" {
		return v, nil
	}
	doc := v.SelectedDocument()
	if doc == nil {
		return v, nil
	}
	return v, remove(v.ctx, v.documentService, doc.Reference)
}

// remove returns a command that removes a document's chunks from the index.
func remove(ctx context.Context, svc driving.DocumentService, ref string) tea.Cmd {
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentRemoved{Reference: ref, Err: errNoDocumentService}
		}
		n, err := svc.RemoveDocument(ctx, ref)
		return messages.DocumentRemoved{Reference: ref, Chunks: n, Err: err}
	}
}

func changeView(view messages.ViewType) tea.Cmd {
	return func() tea.Msg {
		return messages.ViewChanged{View: view}
	}
}

// adjustScroll keeps the selected document visible.
func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

// visibleItemCount returns the number of documents that fit on screen.
func (v *View) visibleItemCount() int {
	// Title, stats, separator and help lines.
	return max(v.height-8, 1)
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.documents))))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%d chunks, %d dimensions", v.stats.Chunks, v.stats.Dimensions)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
		b.WriteString("\n\n")
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents indexed. Run 'docqa index <file>' to add some."))
		b.WriteString("\n\n")
	case v.showingMenu:
		b.WriteString(v.renderActionMenu())
		return b.String()
	default:
		b.WriteString(v.renderList())
	}

	if v.confirming {
		if doc := v.SelectedDocument(); doc != nil {
			b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Remove %s (%d chunks) from the index? [y/N]",
				doc.Reference, doc.Chunks)))
			b.WriteString("\n\n")
		}
	}
	if v.notice != "" {
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n\n")
	}

	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderList() string {
	var b strings.Builder

	visible := v.visibleItemCount()
	end := min(v.scrollOffset+visible, len(v.documents))
	for i := v.scrollOffset; i < end; i++ {
		b.WriteString(v.renderDocument(i, &v.documents[i]))
		b.WriteString("\n")
	}

	if len(v.documents) > visible {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", v.scrollOffset+1, end, len(v.documents))))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// renderDocument renders one document line: reference, chunk count and owner.
func (v *View) renderDocument(index int, doc *domain.DocumentInfo) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	maxRefLen := max(v.width/2-4, 10)
	ref := doc.Reference
	if runes := []rune(ref); len(runes) > maxRefLen {
		ref = string(runes[:maxRefLen-3]) + "..."
	}

	detail := fmt.Sprintf("%d chunks", doc.Chunks)
	if doc.UserID != "" {
		detail += "  user " + doc.UserID
	}
	if doc.UploadDate != "" {
		detail += "  " + doc.UploadDate
	}

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxRefLen, ref, detail))
	}
	return v.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxRefLen, ref)) +
		v.styles.Muted.Render(detail)
}

// renderActionMenu renders the action menu for the selected document.
func (v *View) renderActionMenu() string {
	var b strings.Builder

	if doc := v.SelectedDocument(); doc != nil {
		b.WriteString(v.styles.Subtitle.Render("Actions for: " + doc.Reference))
		b.WriteString("\n\n")
	}

	options := []struct {
		action ActionOption
		label  string
	}{
		{ActionSearchIn, "Search in this document"},
		{ActionRemove, "Remove from index"},
		{ActionCancel, "Cancel"},
	}

	for _, opt := range options {
		if v.menuSelected == opt.action {
			b.WriteString(v.styles.Selected.Render("> " + opt.label))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + opt.label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] select  [esc] cancel"))

	return b.String()
}

func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] navigate  [enter] actions  [d] remove  [r] reload  [tab] search  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Documents returns the listed documents.
func (v *View) Documents() []domain.DocumentInfo {
	return v.documents
}

// Stats returns the index statistics from the last load.
func (v *View) Stats() domain.IndexStats {
	return v.stats
}

// SelectedIndex returns the currently selected document index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the currently selected document.
func (v *View) SelectedDocument() *domain.DocumentInfo {
	if v.selected < len(v.documents) {
		return &v.documents[v.selected]
	}
	return nil
}

// IsShowingMenu returns true if the action menu is visible.
func (v *View) IsShowingMenu() bool {
	return v.showingMenu
}

// IsConfirming returns true while a removal awaits confirmation.
func (v *View) IsConfirming() bool {
	return v.confirming
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
