package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gubarz/surveymd/internal/overlay"
	"github.com/gubarz/surveymd/internal/parser"
	"github.com/gubarz/surveymd/internal/survey"
)

const habitsSurvey = `# Habits {habits}
## Do you smoke? {smoke}
- ( ) Yes
- ( ) No
+ when answer == "Yes"
### Packs per day [number] {packs} *
## Age [number] {age}
`

func newTestModel(t *testing.T) selectModel {
	t.Helper()
	res, err := parser.Parse(habitsSurvey)
	require.NoError(t, err)
	ov, err := overlay.New(res.Document)
	require.NoError(t, err)
	m := newSelectModel(res.Document, ov)
	m.width, m.height = 80, 24
	return m
}

func press(t *testing.T, m selectModel, key tea.KeyMsg) selectModel {
	t.Helper()
	next, _ := m.Update(key)
	return next.(selectModel)
}

func TestFlattenQuestions(t *testing.T) {
	res, err := parser.Parse(habitsSurvey)
	require.NoError(t, err)

	items := flattenQuestions(res.Document)
	require.Len(t, items, 3)

	assert.Equal(t, "smoke", items[0].q.ID)
	assert.Empty(t, items[0].ancestors)
	assert.Equal(t, "packs", items[1].q.ID)
	assert.Equal(t, 1, items[1].depth)
	assert.Equal(t, []string{"smoke"}, items[1].ancestors)
	assert.Equal(t, "age", items[2].q.ID)
	assert.Empty(t, items[2].ancestors)
}

func TestSelectModel_Toggle(t *testing.T) {
	m := newTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, m.overlay.IsIncluded("smoke"))

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.False(t, m.overlay.IsIncluded("packs"))
	assert.Equal(t, 1, m.cursor)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, m.overlay.IsIncluded("packs"))
}

func TestSelectModel_Gating(t *testing.T) {
	m := newTestModel(t)
	_, err := m.overlay.Toggle("smoke")
	require.NoError(t, err)

	assert.True(t, m.items[1].gated(m.overlay))
	assert.False(t, m.items[2].gated(m.overlay))

	m.cursor = 1
	assert.Contains(t, m.renderPreview(80), "hidden: parent excluded")
}

func TestSelectModel_ToggleFiltered(t *testing.T) {
	m := newTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Empty(t, m.overlay.Included())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, []string{"smoke", "packs", "age"}, m.overlay.Included())
}

func TestSelectModel_Filter(t *testing.T) {
	m := newTestModel(t)

	m.textInput.SetValue("PACKS")
	m.filterItems()
	require.Len(t, m.filtered, 1)
	assert.Equal(t, "packs", m.filtered[0].q.ID)

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.True(t, m.overlay.IsIncluded("packs"), "space goes to the filter while typing")

	m.textInput.SetValue("number habits")
	m.filterItems()
	assert.Len(t, m.filtered, 2)

	m.textInput.SetValue("")
	m.filterItems()
	assert.Len(t, m.filtered, 3)
}

func TestSelectModel_Navigation(t *testing.T) {
	m := newTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnd})
	assert.Equal(t, 2, m.cursor)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.cursor)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyHome})
	assert.Equal(t, 0, m.cursor)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.cursor)
}

func TestSelectModel_SaveAndCancel(t *testing.T) {
	m := press(t, newTestModel(t), tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.saved)
	assert.True(t, m.quitting)

	m = press(t, newTestModel(t), tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.saved)
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
}

func TestSelectModel_View(t *testing.T) {
	m := newTestModel(t)
	_, err := m.overlay.Toggle("age")
	require.NoError(t, err)

	view := m.View()
	assert.Contains(t, view, "Do you smoke?")
	assert.Contains(t, view, "{packs}")
	assert.Contains(t, view, "2/3 included")
	assert.Equal(t, 2, strings.Count(view, "[x]"))
	assert.Equal(t, 1, strings.Count(view, "[ ]"))
}

func TestMatchesQuery(t *testing.T) {
	item := questionItem{
		q:     &survey.Question{ID: "packs", Text: "Packs per day", Type: survey.TypeNumber},
		group: &survey.Group{ID: "habits", Title: "Habits"},
	}
	assert.True(t, item.matchesQuery([]string{"per", "habits"}))
	assert.True(t, item.matchesQuery(nil))
	assert.False(t, item.matchesQuery([]string{"age"}))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, 0, clamp(-1, 0, 5))
	assert.Equal(t, 5, clamp(9, 0, 5))
	assert.Equal(t, 0, countLines(""))
	assert.Equal(t, 2, countLines("a\nb"))
	assert.Equal(t, "abc", truncateString("abc", 10))
	assert.Equal(t, "abcd...", truncateString("abcdefghij", 7))

	offset := 0
	start, end := scrollWindow(8, 10, 3, &offset)
	assert.Equal(t, 6, start)
	assert.Equal(t, 9, end)
}
