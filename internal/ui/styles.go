package ui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/gubarz/surveymd/internal/config"
)

// palette is the set of configurable colors
type palette struct {
	header   lipgloss.Color
	required lipgloss.Color
	dim      lipgloss.Color
	cursor   lipgloss.Color
	included lipgloss.Color
	border   lipgloss.Color
	rowBg    lipgloss.Color
}

var defaultPalette = palette{
	header:   "6",
	required: "1",
	dim:      "241",
	cursor:   "212",
	included: "2",
	border:   "240",
	rowBg:    "236",
}

// checklistStyles holds the styles of the overlay editor
type checklistStyles struct {
	// Rows
	Question lipgloss.Style
	ID       lipgloss.Style
	Required lipgloss.Style
	Included lipgloss.Style
	Cursor   lipgloss.Style
	Dim      lipgloss.Style

	// Preview pane
	PreviewHeader lipgloss.Style
	PreviewDesc   lipgloss.Style
	PreviewOption lipgloss.Style

	Divider lipgloss.Style

	rowBg lipgloss.Color
}

func newChecklistStyles(p palette) *checklistStyles {
	return &checklistStyles{
		Question:      lipgloss.NewStyle(),
		ID:            lipgloss.NewStyle().Foreground(p.dim),
		Required:      lipgloss.NewStyle().Foreground(p.required),
		Included:      lipgloss.NewStyle().Foreground(p.included),
		Cursor:        lipgloss.NewStyle().Foreground(p.cursor),
		Dim:           lipgloss.NewStyle().Foreground(p.dim),
		PreviewHeader: lipgloss.NewStyle().Bold(true).Foreground(p.header),
		PreviewDesc:   lipgloss.NewStyle().Foreground(p.dim),
		PreviewOption: lipgloss.NewStyle(),
		Divider:       lipgloss.NewStyle().Foreground(p.border),
		rowBg:         p.rowBg,
	}
}

// WithSelection returns style with the cursor row background applied
func (s *checklistStyles) WithSelection(style lipgloss.Style) lipgloss.Style {
	return style.Background(s.rowBg)
}

// configPalette reads colors from configuration, keeping defaults for unset keys
func configPalette() palette {
	p := defaultPalette
	set := func(dst *lipgloss.Color, code string) {
		if code != "" {
			*dst = parseANSIColor(code)
		}
	}
	set(&p.header, config.GetColorHeader())
	set(&p.required, config.GetColorRequired())
	set(&p.dim, config.GetColorDim())
	set(&p.cursor, config.GetColorCursor())
	set(&p.included, config.GetColorSelected())
	set(&p.border, config.GetColorBorder())
	return p
}

// parseANSIColor maps SGR foreground codes (31, 92, ...) to the 16-color
// palette index lipgloss expects; anything else passes through
func parseANSIColor(code string) lipgloss.Color {
	n, err := strconv.Atoi(code)
	switch {
	case err != nil:
	case n >= 30 && n <= 37:
		return lipgloss.Color(strconv.Itoa(n - 30))
	case n >= 90 && n <= 97:
		return lipgloss.Color(strconv.Itoa(n - 90 + 8))
	}
	return lipgloss.Color(code)
}

var styles = newChecklistStyles(defaultPalette)

// RefreshStyles rebuilds the styles from config
func RefreshStyles() {
	styles = newChecklistStyles(configPalette())
}
