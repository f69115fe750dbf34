package serializer

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gubarz/surveymd/internal/parser"
	"github.com/gubarz/surveymd/internal/survey"
)

// ============================================================================
// Public API
// ============================================================================

// Serialize renders doc as canonical survey markdown. The output parses back
// into an equal document and serializes to the same bytes.
func Serialize(doc *survey.Document) (string, error) {
	w := &writer{}
	if err := w.document(doc); err != nil {
		return "", err
	}
	return w.String(), nil
}

// Write renders doc to out
func Write(out io.Writer, doc *survey.Document) error {
	s, err := Serialize(doc)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, s)
	return err
}

// AttributionBlock renders the dual human/machine attribution comment lines.
// It returns nil for a nil attribution.
func AttributionBlock(attr *survey.Attribution) ([]string, error) {
	if attr == nil {
		return nil, nil
	}
	lines := []string{"<!-- " + parser.AttributionMarker + " " + commentSafe(attr.Citation) + " -->"}
	if attr.Payload != nil {
		data, err := json.Marshal(attr.Payload)
		if err != nil {
			return nil, fmt.Errorf("encoding attribution payload: %w", err)
		}
		lines = append(lines, "<!-- "+parser.PayloadMarker+" "+string(data)+" -->")
	}
	return lines, nil
}

// ============================================================================
// Writer
// ============================================================================

// writer collects paragraphs; paragraphs are joined by one blank line
type writer struct {
	paras [][]string
}

func (w *writer) para(lines ...string) {
	if len(lines) > 0 {
		w.paras = append(w.paras, lines)
	}
}

func (w *writer) String() string {
	if len(w.paras) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range w.paras {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.Join(p, "\n"))
	}
	b.WriteByte('\n')
	return b.String()
}

func (w *writer) document(doc *survey.Document) error {
	attr, err := AttributionBlock(doc.Attribution)
	if err != nil {
		return err
	}
	w.para(attr...)

	meta, err := metadataBlock(doc)
	if err != nil {
		return err
	}
	w.para(meta...)

	w.para(doc.Description...)

	for _, g := range doc.Groups {
		w.group(g)
	}
	return nil
}

// metadataBlock renders the fenced YAML block. Values are double quoted so
// a line break inside one is written as an escape.
func metadataBlock(doc *survey.Document) ([]string, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key, value string) {
		if value == "" {
			return
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: value})
	}
	add("title", doc.Title)
	add("language", doc.Language)
	add("version", doc.Version)
	if len(node.Content) == 0 {
		return nil, nil
	}

	data, err := yaml.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}
	meta := []string{"---"}
	meta = append(meta, strings.Split(strings.TrimRight(string(data), "\n"), "\n")...)
	return append(meta, "---"), nil
}

func (w *writer) group(g *survey.Group) {
	head := []string{"# " + g.Title + " {" + g.ID + "}"}
	if g.Repeat != nil {
		head = append(head, RepeatLine(g.Repeat))
	}
	w.para(head...)
	w.para(g.Description...)
	for _, q := range g.Questions {
		w.question(q, 0, nil)
	}
}

// question writes q and its subtree. marker, when set, is written directly
// above the heading.
func (w *writer) question(q *survey.Question, depth int, marker []string) {
	w.para(append(marker, Heading(q, depth))...)
	w.para(q.Description...)

	if len(q.Options) > 0 {
		multi := q.Type.Capabilities().MultiSelect
		opts := make([]string, len(q.Options))
		for i, o := range q.Options {
			opts[i] = OptionLine(o, multi)
		}
		w.para(opts...)
	}

	if len(q.Conditions) > 0 {
		conds := make([]string, len(q.Conditions))
		for i, c := range q.Conditions {
			conds[i] = ConditionLine(c)
		}
		w.para(conds...)
	}

	for _, f := range q.FollowUps {
		w.question(f, depth+1, []string{FollowUpLine(f.Trigger)})
	}
}

// ============================================================================
// Line Rendering
// ============================================================================

// Heading renders a question heading at the given follow-up depth
func Heading(q *survey.Question, depth int) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("#", depth+2))
	b.WriteByte(' ')
	b.WriteString(q.Text)
	typ := q.Type
	if typ == "" || typ == inferredType(q) {
		// a title ending in a type tag needs the real tag after it
		if !parser.EndsWithTypeTag(q.Text) {
			typ = ""
		} else if typ == "" {
			typ = inferredType(q)
		}
	}
	if typ != "" {
		b.WriteString(" [" + string(typ) + "]")
	}
	b.WriteString(" {" + q.ID + "}")
	if q.Required {
		b.WriteString(" *")
	}
	return b.String()
}

// inferredType is the type a heading without a tag would get
func inferredType(q *survey.Question) survey.QuestionType {
	if len(q.Options) == 0 {
		return survey.InferType(false, false)
	}
	return survey.InferType(true, q.Type.Capabilities().MultiSelect)
}

// OptionLine renders one option
func OptionLine(o survey.Option, multi bool) string {
	box := "- ( ) "
	if multi {
		box = "- [ ] "
	}
	s := box + parser.EscapeOptionText(o.Label)
	if o.Value != "" && o.Value != o.Label {
		s += " | " + parser.EscapeOptionText(o.Value)
	}
	return s
}

// ConditionLine renders a branch condition
func ConditionLine(c survey.Condition) string {
	if c.Predicate == nil {
		return "-> {" + c.Target + "}"
	}
	return "-> " + PredicateText(c.Predicate) + " -> {" + c.Target + "}"
}

// FollowUpLine renders the marker that precedes a follow-up heading
func FollowUpLine(trigger *survey.Predicate) string {
	if trigger == nil {
		return "+"
	}
	return "+ " + PredicateText(trigger)
}

// PredicateText renders "when answer OP VALUE" with a quoted value
func PredicateText(p *survey.Predicate) string {
	return "when answer " + string(p.Operator) + " " + strconv.Quote(p.Value)
}

// RepeatLine renders a repeat marker
func RepeatLine(r *survey.Repeat) string {
	if r.Unbounded {
		return fmt.Sprintf("@repeat %d..*", r.Min)
	}
	return fmt.Sprintf("@repeat %d..%d", r.Min, r.Max)
}

// commentSafe keeps a citation from closing its comment early
func commentSafe(s string) string {
	return strings.ReplaceAll(s, "-->", "-- >")
}
