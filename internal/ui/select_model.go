package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gubarz/surveymd/internal/overlay"
	"github.com/gubarz/surveymd/internal/serializer"
	"github.com/gubarz/surveymd/internal/survey"
)

// ============================================================================
// String Builder Pool - reduces GC pressure from rendering
// ============================================================================

var builderPool = sync.Pool{
	New: func() interface{} {
		return &strings.Builder{}
	},
}

func getBuilder() *strings.Builder {
	b := builderPool.Get().(*strings.Builder)
	b.Reset()
	return b
}

func putBuilder(b *strings.Builder) {
	if b.Cap() < 64*1024 { // Don't pool huge builders
		builderPool.Put(b)
	}
}

// ============================================================================
// Question Item
// ============================================================================

// questionItem is one selectable row: a question with its position in the tree
type questionItem struct {
	q         *survey.Question
	group     *survey.Group
	depth     int
	ancestors []string // identifiers of the enclosing questions, outermost first
}

// flattenQuestions lists every question of doc in document order
func flattenQuestions(doc *survey.Document) []questionItem {
	var items []questionItem
	var chain []string
	doc.Walk(func(g *survey.Group, q *survey.Question, _ *survey.Question, depth int) bool {
		chain = chain[:depth]
		items = append(items, questionItem{
			q:         q,
			group:     g,
			depth:     depth,
			ancestors: append([]string(nil), chain...),
		})
		chain = append(chain, q.ID)
		return true
	})
	return items
}

// gated reports whether an enclosing question is excluded, which hides the
// item from the effective view regardless of its own state
func (item *questionItem) gated(ov *overlay.Overlay) bool {
	for _, id := range item.ancestors {
		if !ov.IsIncluded(id) {
			return true
		}
	}
	return false
}

// matchesQuery checks if the item matches all search words
func (item *questionItem) matchesQuery(words []string) bool {
	for _, word := range words {
		if !item.containsWord(word) {
			return false
		}
	}
	return true
}

// containsWord checks if any field contains the word (case-insensitive)
func (item *questionItem) containsWord(word string) bool {
	return containsIgnoreCase(item.q.ID, word) ||
		containsIgnoreCase(item.q.Text, word) ||
		containsIgnoreCase(item.group.Title, word) ||
		containsIgnoreCase(string(item.q.Type), word)
}

// containsIgnoreCase is a case-insensitive substring check; substr must be lowercase
func containsIgnoreCase(s, substr string) bool {
	if len(substr) > len(s) {
		return false
	}
	return strings.Contains(strings.ToLower(s), substr)
}

// ============================================================================
// Debounce
// ============================================================================

// filterMsg triggers filtering after debounce
type filterMsg struct{}

// debounceFilter returns a command that triggers filtering after a delay
func debounceFilter() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return filterMsg{}
	})
}

// ============================================================================
// Select Model - overlay editor
// ============================================================================

// selectModel is the Bubble Tea model for toggling included questions
type selectModel struct {
	width     int
	height    int
	textInput textinput.Model
	quitting  bool
	saved     bool

	title    string
	items    []questionItem
	filtered []questionItem
	cursor   int
	offset   int // viewport scroll offset
	overlay  *overlay.Overlay
}

// newSelectModel creates a model editing ov over doc
func newSelectModel(doc *survey.Document, ov *overlay.Overlay) selectModel {
	ti := textinput.New()
	ti.Placeholder = "Type to filter questions..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	items := flattenQuestions(doc)
	title := doc.Title
	if title == "" {
		title = "survey"
	}

	return selectModel{
		textInput: ti,
		title:     title,
		items:     items,
		filtered:  items,
		overlay:   ov,
	}
}

// Init implements tea.Model
func (m selectModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 4
	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	case filterMsg:
		m.filterItems()
		return m, nil
	}

	prevQuery := m.textInput.Value()
	var tiCmd tea.Cmd
	m.textInput, tiCmd = m.textInput.Update(msg)
	cmds = append(cmds, tiCmd)

	// Only trigger debounced filter if query changed
	if m.textInput.Value() != prevQuery {
		cmds = append(cmds, debounceFilter())
	}

	return m, tea.Batch(cmds...)
}

// handleKey processes keyboard input. handled is false for keys the filter
// input should receive.
func (m *selectModel) handleKey(msg tea.KeyMsg) (cmd tea.Cmd, handled bool) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return tea.Quit, true
	case "enter":
		m.saved = true
		m.quitting = true
		return tea.Quit, true
	case "tab", "ctrl+@", " ":
		if msg.String() == " " && m.textInput.Value() != "" {
			return nil, false
		}
		m.toggleCurrent()
		return nil, true
	case "ctrl+t":
		m.toggleFiltered()
		return nil, true
	case "up", "ctrl+p":
		m.moveCursor(-1)
		return nil, true
	case "down", "ctrl+n":
		m.moveCursor(1)
		return nil, true
	case "pgup":
		m.moveCursor(-10)
		return nil, true
	case "pgdown":
		m.moveCursor(10)
		return nil, true
	case "home":
		m.cursor = 0
		m.adjustOffset()
		return nil, true
	case "end":
		m.cursor = max(0, len(m.filtered)-1)
		m.adjustOffset()
		return nil, true
	}
	return nil, false
}

// toggleCurrent flips the question under the cursor
func (m *selectModel) toggleCurrent() {
	if m.cursor >= len(m.filtered) {
		return
	}
	_, _ = m.overlay.Toggle(m.filtered[m.cursor].q.ID)
}

// toggleFiltered includes every visible question, or excludes them all when
// they are already included
func (m *selectModel) toggleFiltered() {
	include := false
	for _, item := range m.filtered {
		if !m.overlay.IsIncluded(item.q.ID) {
			include = true
			break
		}
	}
	for _, item := range m.filtered {
		_ = m.overlay.SetIncluded(item.q.ID, include)
	}
}

// moveCursor moves the cursor by delta, clamping to valid range
func (m *selectModel) moveCursor(delta int) {
	m.cursor += delta
	m.cursor = clamp(m.cursor, 0, max(0, len(m.filtered)-1))
	m.adjustOffset()
}

// adjustOffset ensures cursor is visible within viewport
func (m *selectModel) adjustOffset() {
	viewHeight := max(m.height-previewLines-4, 3) // approximate list height
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+viewHeight {
		m.offset = m.cursor - viewHeight + 1
	}
	maxOffset := max(0, len(m.filtered)-viewHeight)
	m.offset = clamp(m.offset, 0, maxOffset)
}

// filterItems filters the question list based on the search query
func (m *selectModel) filterItems() {
	query := strings.TrimSpace(m.textInput.Value())

	if query == "" {
		m.filtered = m.items
	} else {
		words := strings.Fields(strings.ToLower(query))
		m.filtered = make([]questionItem, 0, len(m.items))
		for i := range m.items {
			if m.items[i].matchesQuery(words) {
				m.filtered = append(m.filtered, m.items[i])
			}
		}
	}

	m.cursor = clamp(m.cursor, 0, max(0, len(m.filtered)-1))
	m.adjustOffset()
}

// ============================================================================
// Rendering
// ============================================================================

const previewLines = 6

// View implements tea.Model
func (m selectModel) View() string {
	if m.quitting {
		return ""
	}

	width := max(m.width, 80)
	height := max(m.height, 24)

	preview := m.renderPreview(width)
	inputLines := 3 // divider + info + input
	listHeight := max(height-countLines(preview)-inputLines, 3)
	list := m.renderList(listHeight)

	padding := max(height-countLines(preview)-countLines(list)-inputLines, 0)

	b := getBuilder()
	defer putBuilder(b)
	b.WriteString(preview)
	b.WriteString(list)
	b.WriteString(strings.Repeat("\n", padding))
	b.WriteString(m.renderInput(width))
	return b.String()
}

// renderPreview renders details of the question under the cursor
func (m selectModel) renderPreview(width int) string {
	b := getBuilder()
	defer putBuilder(b)
	lines := 0

	if m.cursor < len(m.filtered) {
		item := m.filtered[m.cursor]
		q := item.q

		b.WriteString(styles.Dim.Render(item.group.Title + " {" + item.group.ID + "}"))
		b.WriteString("\n")
		lines++

		b.WriteString(styles.PreviewHeader.Render(truncateString(q.Text, width)))
		b.WriteString("\n")
		lines++

		meta := string(q.Type)
		if q.Required {
			meta += " • required"
		}
		if q.Trigger != nil {
			meta += " • shown " + serializer.PredicateText(q.Trigger)
		}
		if item.gated(m.overlay) {
			meta += " • hidden: parent excluded"
		}
		b.WriteString(styles.PreviewDesc.Render(meta))
		b.WriteString("\n")
		lines++

		for _, opt := range q.Options {
			if lines >= previewLines {
				break
			}
			b.WriteString(styles.PreviewOption.Render("  • " + truncateString(opt.Label, width-4)))
			b.WriteString("\n")
			lines++
		}
	}

	// Pad to fixed height
	for lines < previewLines {
		b.WriteString("\n")
		lines++
	}

	b.WriteString(styles.Divider.Render(strings.Repeat("─", width)))
	b.WriteString("\n")
	return b.String()
}

// renderList renders the scrollable list of questions
func (m *selectModel) renderList(maxHeight int) string {
	if len(m.filtered) == 0 {
		return ""
	}

	start, end := scrollWindow(m.cursor, len(m.filtered), maxHeight, &m.offset)

	b := getBuilder()
	defer putBuilder(b)
	for i := start; i < end; i++ {
		b.WriteString(m.renderListItem(m.filtered[i], i == m.cursor))
		b.WriteString("\n")
	}
	return b.String()
}

// renderListItem renders a single list row
func (m selectModel) renderListItem(item questionItem, selected bool) string {
	text, id, box := styles.Question, styles.ID, styles.Dim
	included := m.overlay.IsIncluded(item.q.ID)
	if included && !item.gated(m.overlay) {
		box = styles.Included
	}
	if item.gated(m.overlay) {
		text = styles.Dim
	}
	if selected {
		text, id, box = styles.WithSelection(text), styles.WithSelection(id), styles.WithSelection(box)
	}

	mark := "[ ]"
	if included {
		mark = "[x]"
	}

	line := box.Render(mark) + text.Render(" "+strings.Repeat("  ", item.depth)+item.q.Text)
	if item.q.Required {
		req := styles.Required
		if selected {
			req = styles.WithSelection(req)
		}
		line += req.Render(" *")
	}
	line += id.Render(" {" + item.q.ID + "}")

	if selected {
		return styles.Cursor.Render("▶ ") + line
	}
	return "  " + line
}

// renderInput renders the input section at the bottom
func (m selectModel) renderInput(width int) string {
	b := getBuilder()
	defer putBuilder(b)
	b.WriteString(styles.Divider.Render(strings.Repeat("─", width)))
	b.WriteString("\n")
	b.WriteString(styles.Dim.Render(fmt.Sprintf("  %s • %d/%d included • %d shown",
		m.title, len(m.overlay.Included()), len(m.items), len(m.filtered))))
	b.WriteString(" • ")
	b.WriteString(styles.Dim.Render("TAB toggle"))
	b.WriteString(" • ")
	b.WriteString(styles.Dim.Render("Ctrl+T toggle shown"))
	b.WriteString(" • ")
	b.WriteString(styles.Dim.Render("ENTER save"))
	b.WriteString(" • ")
	b.WriteString(styles.Dim.Render("ESC cancel"))
	b.WriteString("\n")
	b.WriteString(m.textInput.View())
	return b.String()
}

// ============================================================================
// Helpers
// ============================================================================

// clamp restricts v to the range [minV, maxV]
func clamp(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// countLines counts the number of lines in a string
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

// scrollWindow calculates the visible range for a scrollable list
func scrollWindow(cursor, total, height int, offset *int) (start, end int) {
	if cursor < *offset {
		*offset = cursor
	}
	if cursor >= *offset+height {
		*offset = cursor - height + 1
	}
	maxOffset := max(0, total-height)
	*offset = clamp(*offset, 0, maxOffset)

	start = *offset
	end = min(start+height, total)
	return
}

// truncateString truncates a string to maxLen with ellipsis
func truncateString(s string, maxLen int) string {
	if maxLen <= 3 || lipgloss.Width(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
