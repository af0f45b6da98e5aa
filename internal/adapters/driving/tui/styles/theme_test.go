package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()

	require.NotNil(t, theme)
	for _, c := range []lipgloss.Color{
		theme.Primary, theme.Secondary, theme.Foreground, theme.Muted,
		theme.Success, theme.Warning, theme.Error, theme.Border, theme.Bar,
		theme.Semantic, theme.Keyword, theme.Hybrid,
	} {
		assert.NotEmpty(t, string(c))
	}
}

func TestDefaultTheme_BadgeColoursAreDistinct(t *testing.T) {
	theme := DefaultTheme()

	assert.NotEqual(t, theme.Semantic, theme.Keyword)
	assert.NotEqual(t, theme.Semantic, theme.Hybrid)
	assert.NotEqual(t, theme.Keyword, theme.Hybrid)
}

func TestNewStyles(t *testing.T) {
	theme := DefaultTheme()

	assert.Equal(t, theme, NewStyles(theme).Theme())
	assert.NotNil(t, NewStyles(nil).Theme())
	assert.NotNil(t, DefaultStyles().Theme())
}

func TestStyles_AllStylesInitialised(t *testing.T) {
	s := DefaultStyles()

	for name, style := range map[string]lipgloss.Style{
		"Title": s.Title, "Subtitle": s.Subtitle, "Normal": s.Normal, "Muted": s.Muted,
		"Selected": s.Selected, "Error": s.Error, "Success": s.Success, "Warning": s.Warning,
		"InputField": s.InputField, "StatusBar": s.StatusBar, "Help": s.Help,
		"Border": s.Border, "Filter": s.Filter, "Badge": s.Badge,
	} {
		assert.NotEqual(t, lipgloss.Style{}, style, name)
		assert.NotEmpty(t, style.Render("text"), name)
	}
}

func TestMatchBadge(t *testing.T) {
	s := DefaultStyles()

	for _, mt := range []domain.MatchType{domain.MatchSemantic, domain.MatchKeyword, domain.MatchHybrid} {
		assert.Contains(t, s.MatchBadge(mt), string(mt))
	}
	assert.Contains(t, s.MatchBadge("other"), "other")
}
