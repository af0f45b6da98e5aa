// Package settings provides the settings configuration view for the TUI.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

var errNoSettingsService = errors.New("settings service not available")

// Section tracks which settings section is active.
type Section int

const (
	SectionOverview Section = iota
	SectionSearchMode
	SectionEmbedding
)

var sectionHelp = map[Section]string{
	SectionOverview:   "[j/k] navigate  [enter] edit  [esc] back",
	SectionSearchMode: "[j/k] navigate  [enter] select  [esc] back",
	SectionEmbedding:  "[j/k] navigate  [tab] API key  [enter] select  [esc] back",
}

// option is one selectable row in a section list.
type option struct {
	label   string
	note    string
	current bool
}

// View is the settings configuration view.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService

	settings *domain.AppSettings
	err      error
	saved    bool

	section    Section
	selected   int
	keyFocused bool

	apiKeyInput textinput.Model
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	input := textinput.New()
	input.Placeholder = "Enter API key (or set OPENAI_API_KEY)"
	input.EchoMode = textinput.EchoPassword
	input.CharLimit = 256

	return &View{styles: s, settingsService: settingsService, apiKeyInput: input}
}

// Init loads the current settings.
func (v *View) Init() tea.Cmd {
	return Load(v.settingsService)
}

// Load returns a command that reads the current settings.
func Load(svc driving.SettingsService) tea.Cmd {
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsLoaded{Err: errNoSettingsService}
		}
		settings, err := svc.Get()
		return messages.SettingsLoaded{Settings: settings, Err: err}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.SettingsLoaded:
		v.err = msg.Err
		if msg.Err == nil {
			v.settings = msg.Settings
		}

	case messages.SettingsSaved:
		v.err = msg.Err
		v.saved = msg.Err == nil
		if v.saved {
			v.backToOverview()
			return v, v.Init()
		}

	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	v.saved = false
	k := msg.String()

	if k == "esc" {
		if v.section == SectionOverview {
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
		}
		v.backToOverview()
		return v, nil
	}

	if v.keyFocused {
		return v.handleAPIKeyInput(msg)
	}

	switch k {
	case "up", "k":
		v.selected = max(v.selected-1, 0)
	case "down", "j":
		v.selected = min(v.selected+1, len(v.options())-1)
	case "tab":
		if v.section == SectionEmbedding && v.selectedProvider().RequiresAPIKey() {
			v.keyFocused = true
			return v, v.apiKeyInput.Focus()
		}
	case "enter":
		return v.choose()
	}
	return v, nil
}

func (v *View) handleAPIKeyInput(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab":
		v.keyFocused = false
		v.apiKeyInput.Blur()
		return v, nil
	case "enter":
		return v, setEmbeddingProvider(v.settingsService, v.selectedProvider(), v.apiKeyInput.Value())
	}
	var cmd tea.Cmd
	v.apiKeyInput, cmd = v.apiKeyInput.Update(msg)
	return v, cmd
}

// choose acts on the selected row of the active section.
func (v *View) choose() (*View, tea.Cmd) {
	switch v.section {
	case SectionOverview:
		if v.settings == nil {
			return v, nil
		}
		if v.selected == 0 {
			v.section = SectionSearchMode
			v.selected = indexOf(domain.AllSearchModes(), v.settings.Search.Mode)
		} else {
			v.section = SectionEmbedding
			v.selected = indexOf(domain.AllEmbeddingProviders(), v.settings.Embedding.Provider)
		}
	case SectionSearchMode:
		return v, setSearchMode(v.settingsService, domain.AllSearchModes()[v.selected])
	case SectionEmbedding:
		provider := v.selectedProvider()
		if provider.RequiresAPIKey() {
			v.keyFocused = true
			return v, v.apiKeyInput.Focus()
		}
		return v, setEmbeddingProvider(v.settingsService, provider, "")
	}
	return v, nil
}

func (v *View) selectedProvider() domain.AIProvider {
	return domain.AllEmbeddingProviders()[v.selected]
}

func (v *View) backToOverview() {
	v.section = SectionOverview
	v.selected = 0
	v.keyFocused = false
	v.apiKeyInput.SetValue("")
	v.apiKeyInput.Blur()
}

func indexOf[T comparable](items []T, want T) int {
	for i, item := range items {
		if item == want {
			return i
		}
	}
	return 0
}

func setSearchMode(svc driving.SettingsService, mode domain.SearchMode) tea.Cmd {
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsSaved{Err: errNoSettingsService}
		}
		return messages.SettingsSaved{Err: svc.SetSearchMode(mode)}
	}
}

// setEmbeddingProvider switches provider using its default model.
func setEmbeddingProvider(svc driving.SettingsService, provider domain.AIProvider, apiKey string) tea.Cmd {
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsSaved{Err: errNoSettingsService}
		}
		model := domain.DefaultEmbeddingModels()[provider]
		return messages.SettingsSaved{Err: svc.SetEmbeddingProvider(provider, model, apiKey)}
	}
}

// options lists the rows of the active section.
func (v *View) options() []option {
	s := v.settings
	if s == nil {
		return []option{{}, {}}
	}

	var opts []option
	switch v.section {
	case SectionOverview:
		embedding := s.Embedding.Provider.Description()
		if s.Embedding.Model != "" {
			embedding = fmt.Sprintf("%s (%s)", embedding, s.Embedding.Model)
		}
		status := v.styles.Success.Render("[configured]")
		if !s.Embedding.IsConfigured() {
			status = v.styles.Warning.Render("[needs API key]")
		}
		opts = []option{
			{label: "Search Mode: " + s.Search.Mode.Description()},
			{label: "Embedding Provider: " + embedding + " " + status},
		}
	case SectionSearchMode:
		for _, mode := range domain.AllSearchModes() {
			o := option{label: mode.Description(), current: mode == s.Search.Mode}
			if mode.RequiresEmbedding() {
				o.note = "Requires: embedding"
			}
			opts = append(opts, o)
		}
	case SectionEmbedding:
		defaults := domain.DefaultEmbeddingModels()
		for _, p := range domain.AllEmbeddingProviders() {
			o := option{label: p.Description(), current: p == s.Embedding.Provider}
			if model, ok := defaults[p]; ok {
				o.note = "Model: " + model
			}
			opts = append(opts, o)
		}
	}
	return opts
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	if v.settings == nil {
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		return b.String()
	}

	switch v.section {
	case SectionSearchMode:
		b.WriteString(v.styles.Subtitle.Render("Select Search Mode"))
		b.WriteString("\n\n")
	case SectionEmbedding:
		b.WriteString(v.styles.Subtitle.Render("Select Embedding Provider"))
		b.WriteString("\n\n")
	}

	v.renderOptions(&b)

	switch {
	case v.section == SectionOverview:
		v.renderSummary(&b)
	case v.section == SectionEmbedding && v.selectedProvider().RequiresAPIKey():
		b.WriteString("\nAPI Key:\n")
		b.WriteString(v.apiKeyInput.View())
		b.WriteString("\n")
	}

	help := sectionHelp[v.section]
	if v.keyFocused {
		help = "[tab] back to list  [enter] save  [esc] back"
	}
	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render(help))

	return b.String()
}

func (v *View) renderOptions(b *strings.Builder) {
	for i, o := range v.options() {
		active := i == v.selected && !v.keyFocused
		line := "  " + o.label
		if active {
			line = "> " + o.label
		}
		if o.current {
			line += v.styles.Success.Render(" (current)")
		}

		if active {
			b.WriteString(v.styles.Selected.Render(line))
		} else {
			b.WriteString(v.styles.Normal.Render(line))
		}
		b.WriteString("\n")
		if o.note != "" {
			b.WriteString(v.styles.Muted.Render("    " + o.note))
			b.WriteString("\n")
		}
	}
}

// renderSummary shows the read-only settings and the validation state.
func (v *View) renderSummary(b *strings.Builder) {
	s := v.settings
	store := string(s.Store.Backend)
	if s.Store.Path != "" {
		store += " at " + s.Store.Path
	}
	for _, line := range []string{
		fmt.Sprintf("Chunking: %d chars, %d overlap, min %d",
			s.Chunker.MaxLength, s.Chunker.Overlap, s.Chunker.MinLength),
		fmt.Sprintf("Scoring: threshold %.2f, semantic x%.1f, keyword x%.1f",
			s.Retrieval.SemanticThreshold, s.Retrieval.SemanticBoost, s.Retrieval.KeywordBoost),
		"Store: " + store,
	} {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render("  " + line))
	}
	b.WriteString("\n\n")

	switch {
	case v.saved:
		b.WriteString(v.styles.Success.Render("Saved"))
	case v.settingsService != nil:
		if err := v.settingsService.Validate(); err != nil {
			b.WriteString(v.styles.Warning.Render("Warning: " + err.Error()))
		} else {
			b.WriteString(v.styles.Success.Render("Configuration is valid"))
		}
	}
	b.WriteString("\n")
}

// SetDimensions fits the API key input to the terminal width.
func (v *View) SetDimensions(width, _ int) {
	v.apiKeyInput.Width = max(width-4, 20)
}

// Settings returns the last loaded settings.
func (v *View) Settings() *domain.AppSettings {
	return v.settings
}

// Section returns the active section.
func (v *View) Section() Section {
	return v.section
}

// Selected returns the selection within the active section.
func (v *View) Selected() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// Reset returns the view to the overview and clears status.
func (v *View) Reset() {
	v.backToOverview()
	v.err = nil
	v.saved = false
}
