package parser

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gubarz/surveymd/internal/survey"
)

// openQuestion is a question whose scope is still accepting lines
type openQuestion struct {
	q            *survey.Question
	group        *survey.Group
	explicitType bool
	sawOption    bool
	multi        bool              // marker of the first option
	trigger      *survey.Predicate // trigger of the last follow-up marker under this question
}

// pendingMarker is a follow-up marker waiting for its nested question
type pendingMarker struct {
	pred *survey.Predicate
	line Line
}

// Metadata is the YAML block at the top of a document
type Metadata struct {
	Title    string `yaml:"title,omitempty"`
	Language string `yaml:"language,omitempty"`
	Version  string `yaml:"version,omitempty"`
}

// builder assembles a document from classified lines
type builder struct {
	res      *Resolver
	logger   *slog.Logger
	doc      *survey.Document
	group    *survey.Group
	repeatAt int // line of the current group's repeat marker
	stack    []*openQuestion
	all      []*openQuestion
	marker   *pendingMarker
	headings map[int]heading
}

func newBuilder(res *Resolver, logger *slog.Logger) *builder {
	return &builder{
		res:      res,
		logger:   logger,
		doc:      &survey.Document{},
		headings: make(map[int]heading),
	}
}

// build runs both passes. Lines whose index is in skip were consumed by the
// attribution extractor.
func (b *builder) build(lines []Line, skip map[int]bool) (*survey.Document, error) {
	for _, l := range lines {
		if l.Unclosed {
			return nil, survey.Errorf(survey.KindMalformedLine, l.Num, l.Raw,
				"comment is never closed; everything after it would be hidden")
		}
	}

	start, err := b.metadata(lines, skip)
	if err != nil {
		return nil, err
	}
	if err := b.declare(lines, start, skip); err != nil {
		return nil, err
	}

	for i := start; i < len(lines); i++ {
		if skip[i] {
			continue
		}
		if err := b.line(i, lines[i]); err != nil {
			return nil, err
		}
	}
	if b.marker != nil {
		return nil, markerError(b.marker)
	}

	if err := b.finish(); err != nil {
		return nil, err
	}
	if err := b.resolveConditions(); err != nil {
		return nil, err
	}
	if err := b.doc.Validate(); err != nil {
		return nil, err
	}
	return b.doc, nil
}

// declare is the first pass: decode every heading and declare the
// identifiers authors wrote, so generated identifiers never collide with a
// later declaration and conditions may point forward.
func (b *builder) declare(lines []Line, start int, skip map[int]bool) error {
	for i := start; i < len(lines); i++ {
		l := lines[i]
		if skip[i] || (l.Kind != LineGroupHeading && l.Kind != LineQuestionHeading) {
			continue
		}
		h, err := parseHeading(l)
		if err != nil {
			return err
		}
		b.headings[i] = h
		if h.id == "" {
			continue
		}
		kind := survey.KindQuestion
		if l.Kind == LineGroupHeading {
			kind = survey.KindGroup
		}
		if err := b.res.Declare(h.id, kind, l.Num); err != nil {
			return err
		}
	}
	return nil
}

// metadata decodes the optional YAML block that precedes all content and
// returns the index of the first line after it
func (b *builder) metadata(lines []Line, skip map[int]bool) (int, error) {
	open := -1
	for i, l := range lines {
		if skip[i] || l.Kind == LineBlank {
			continue
		}
		if l.Kind == LineComment {
			continue
		}
		if l.Kind == LineFence {
			open = i
		}
		break
	}
	if open < 0 {
		return 0, nil
	}

	// Classify only ends the block on an unindented fence
	closing := -1
	for i := open + 1; i < len(lines); i++ {
		if lines[i].Kind == LineFence {
			closing = i
			break
		}
	}
	if closing < 0 {
		return 0, survey.Errorf(survey.KindMalformedLine, lines[open].Num, lines[open].Raw, "metadata block is never closed")
	}

	var body strings.Builder
	for _, l := range lines[open+1 : closing] {
		body.WriteString(l.Raw)
		body.WriteByte('\n')
	}

	var meta Metadata
	dec := yaml.NewDecoder(strings.NewReader(body.String()))
	dec.KnownFields(true)
	if err := dec.Decode(&meta); err != nil && !errors.Is(err, io.EOF) {
		return 0, survey.Errorf(survey.KindMalformedLine, lines[open].Num, lines[open].Raw, "metadata block: %v", err)
	}
	b.doc.Title = meta.Title
	b.doc.Language = meta.Language
	b.doc.Version = meta.Version

	// comments that preceded the block stay document description
	for i := 0; i < open; i++ {
		if !skip[i] && lines[i].Kind == LineComment {
			b.describe(lines[i].Text)
		}
	}
	return closing + 1, nil
}

// line is the second pass for one line
func (b *builder) line(i int, l Line) error {
	switch l.Kind {
	case LineBlank:
		return nil
	case LineGroupHeading:
		return b.openGroup(b.headings[i], l)
	case LineQuestionHeading:
		return b.openQuestion(b.headings[i], l)
	case LineOption:
		return b.option(l)
	case LineCondition:
		return b.condition(l)
	case LineFollowUp:
		return b.followUp(l)
	case LineRepeat:
		return b.repeat(l)
	case LineFence:
		b.describe("---")
	default:
		b.describe(l.Text)
	}
	return nil
}

func (b *builder) openGroup(h heading, l Line) error {
	if b.marker != nil {
		return markerError(b.marker)
	}
	id, err := b.identifier(h, survey.KindGroup)
	if err != nil {
		return err
	}
	g := &survey.Group{ID: id, Title: h.title, Line: l.Num}
	b.res.Bind(id, survey.Entry{Kind: survey.KindGroup, Group: g})
	b.doc.Groups = append(b.doc.Groups, g)
	b.group = g
	b.repeatAt = 0
	b.stack = b.stack[:0]
	return nil
}

func (b *builder) openQuestion(h heading, l Line) error {
	if b.group == nil {
		return survey.Errorf(survey.KindMalformedHeading, l.Num, l.Raw, "question heading before the first group heading")
	}
	depth := l.Level - 2
	if depth > len(b.stack) {
		if len(b.stack) == 0 {
			return survey.Errorf(survey.KindMalformedHeading, l.Num, l.Raw, "follow-up heading has no parent question")
		}
		return survey.Errorf(survey.KindMalformedHeading, l.Num, l.Raw,
			"follow-up heading skips a level; expected at most %s", strings.Repeat("#", len(b.stack)+2))
	}
	b.stack = b.stack[:depth]

	id, err := b.identifier(h, survey.KindQuestion)
	if err != nil {
		return err
	}
	q := &survey.Question{
		ID:       id,
		Text:     h.title,
		Type:     h.typeTag,
		Required: h.required,
		Line:     l.Num,
	}
	oq := &openQuestion{q: q, group: b.group, explicitType: h.typeTag != ""}

	entry := survey.Entry{Kind: survey.KindQuestion, Group: b.group, Question: q, Depth: depth}
	if depth == 0 {
		if b.marker != nil {
			return markerError(b.marker)
		}
		b.group.Questions = append(b.group.Questions, q)
	} else {
		parent := b.stack[depth-1]
		if b.marker != nil {
			parent.trigger = b.marker.pred
			b.marker = nil
		}
		if parent.trigger != nil {
			t := *parent.trigger
			q.Trigger = &t
		}
		parent.q.FollowUps = append(parent.q.FollowUps, q)
		entry.Parent = parent.q
	}

	b.res.Bind(id, entry)
	b.stack = append(b.stack, oq)
	b.all = append(b.all, oq)
	return nil
}

func (b *builder) identifier(h heading, kind survey.EntityKind) (string, error) {
	if h.id != "" {
		return h.id, nil
	}
	return b.res.Generate(kind)
}

func (b *builder) current(l Line, what string) (*openQuestion, error) {
	if len(b.stack) == 0 {
		return nil, survey.Errorf(survey.KindMalformedLine, l.Num, l.Raw, "%s outside a question", what)
	}
	return b.stack[len(b.stack)-1], nil
}

func (b *builder) option(l Line) error {
	oq, err := b.current(l, "option")
	if err != nil {
		return err
	}
	if oq.explicitType && !oq.q.Type.Capabilities().HasOptions {
		return survey.Errorf(survey.KindMalformedLine, l.Num, l.Raw,
			"question type %q does not take options", oq.q.Type)
	}
	opt, err := parseOption(l)
	if err != nil {
		return err
	}
	if !oq.sawOption {
		oq.sawOption = true
		oq.multi = l.Multi
	}
	oq.q.Options = append(oq.q.Options, opt)
	return nil
}

func (b *builder) condition(l Line) error {
	oq, err := b.current(l, "branch condition")
	if err != nil {
		return err
	}
	cond, err := parseCondition(l)
	if err != nil {
		return err
	}
	oq.q.Conditions = append(oq.q.Conditions, cond)
	return nil
}

func (b *builder) followUp(l Line) error {
	if _, err := b.current(l, "follow-up marker"); err != nil {
		return err
	}
	if b.marker != nil {
		return markerError(b.marker)
	}
	pred, err := parseFollowUp(l)
	if err != nil {
		return err
	}
	b.marker = &pendingMarker{pred: pred, line: l}
	return nil
}

func (b *builder) repeat(l Line) error {
	if b.group == nil {
		return survey.Errorf(survey.KindInvalidRepeatScope, l.Num, l.Raw, "repeat marker outside a group")
	}
	if b.group.Repeat != nil {
		err := survey.Errorf(survey.KindInvalidRepeatScope, l.Num, l.Raw, "group %q already has a repeat marker", b.group.ID)
		err.Related = []int{b.repeatAt}
		return err
	}
	r, err := parseRepeat(l)
	if err != nil {
		return err
	}
	b.group.Repeat = r
	b.repeatAt = l.Num
	return nil
}

// describe attaches free text to the nearest preceding entity
func (b *builder) describe(text string) {
	switch {
	case len(b.stack) > 0:
		q := b.stack[len(b.stack)-1].q
		q.Description = append(q.Description, text)
	case b.group != nil:
		b.group.Description = append(b.group.Description, text)
	default:
		b.doc.Description = append(b.doc.Description, text)
	}
}

// finish infers untagged question types and applies the capability table
func (b *builder) finish() error {
	for _, oq := range b.all {
		if !oq.explicitType {
			oq.q.Type = survey.InferType(len(oq.q.Options) > 0, oq.multi)
		}
		if oq.group.Repeat != nil && !oq.q.Type.Capabilities().RepeatEligible {
			return survey.Errorf(survey.KindInvalidRepeatScope, oq.q.Line, oq.q.Text,
				"%s questions cannot appear in repeatable group %q", oq.q.Type, oq.group.ID)
		}
	}
	return nil
}

// resolveConditions is the second resolution pass over branch targets
func (b *builder) resolveConditions() error {
	for _, oq := range b.all {
		for _, c := range oq.q.Conditions {
			target, err := b.res.Resolve(c.Target, c.Line)
			if err != nil {
				return err
			}
			b.logger.Debug("branch resolved",
				slog.String("from", oq.q.ID),
				slog.String("to", target.String()))
		}
	}
	return nil
}

func markerError(m *pendingMarker) error {
	return survey.Errorf(survey.KindMalformedLine, m.line.Num, m.line.Raw,
		"follow-up marker must be followed by a nested question heading")
}
