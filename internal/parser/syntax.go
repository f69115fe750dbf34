package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gubarz/surveymd/internal/survey"
)

// heading is the decoded text of a group or question heading
type heading struct {
	title    string
	typeTag  survey.QuestionType // empty when not written
	id       string              // empty when not written
	required bool
}

var typeTagRe = regexp.MustCompile(`\s\[([a-z][a-z0-9-]*)\]$`)

// parseHeading decodes "Text [type] {id} *". Type tags and the required
// marker are only recognized on question headings.
func parseHeading(l Line) (heading, error) {
	var h heading
	s := l.Text
	question := l.Kind == LineQuestionHeading

	if question && (s == "*" || strings.HasSuffix(s, " *")) {
		h.required = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "*"))
	}

	if strings.HasSuffix(s, "}") {
		open := strings.LastIndex(s, "{")
		if open < 0 {
			return h, survey.Errorf(survey.KindMalformedHeading, l.Num, l.Raw, "closing brace without opening brace")
		}
		id := s[open+1 : len(s)-1]
		if !ValidIdentifier(id) {
			return h, survey.Errorf(survey.KindMalformedHeading, l.Num, l.Raw,
				"invalid identifier %q: use letters, digits, '-', '_' or '.'", id)
		}
		h.id = id
		s = strings.TrimSpace(s[:open])
		if question && !h.required && strings.HasSuffix(s, " *") {
			h.required = true
			s = strings.TrimSpace(strings.TrimSuffix(s, "*"))
		}
	}

	if strings.ContainsAny(s, "{}") {
		return h, survey.Errorf(survey.KindMalformedHeading, l.Num, l.Raw,
			"unbalanced braces; an identifier must be written as a trailing {id}")
	}

	if question {
		if m := typeTagRe.FindStringSubmatchIndex(s); m != nil {
			if t, ok := survey.ParseQuestionType(s[m[2]:m[3]]); ok {
				h.typeTag = t
				s = strings.TrimSpace(s[:m[0]])
			}
		}
	}

	if s == "" {
		return h, survey.Errorf(survey.KindMalformedHeading, l.Num, l.Raw, "heading has no text")
	}
	h.title = s
	return h, nil
}

// EndsWithTypeTag reports whether title ends in a known " [type]" tag, which
// a heading would read as the question type
func EndsWithTypeTag(title string) bool {
	m := typeTagRe.FindStringSubmatch(title)
	if m == nil {
		return false
	}
	_, ok := survey.ParseQuestionType(m[1])
	return ok
}

// parseOption splits "Label | value". A backslash escapes '|' and '\'.
func parseOption(l Line) (survey.Option, error) {
	var label, value strings.Builder
	cur := &label
	split := false
	text := l.Text
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '\\' && i+1 < len(text) && (text[i+1] == '|' || text[i+1] == '\\'):
			cur.WriteByte(text[i+1])
			i++
		case c == '|' && !split:
			split = true
			cur = &value
		default:
			cur.WriteByte(c)
		}
	}

	opt := survey.Option{
		Label: strings.TrimSpace(label.String()),
		Value: strings.TrimSpace(value.String()),
	}
	if opt.Label == "" {
		return opt, survey.Errorf(survey.KindMalformedLine, l.Num, l.Raw, "option has no label")
	}
	if opt.Value == opt.Label {
		opt.Value = ""
	}
	return opt, nil
}

// EscapeOptionText escapes text so parseOption reads it back unchanged
func EscapeOptionText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "|", `\|`)
}

// parsePredicate decodes "when answer OP VALUE" and returns the remainder
func parsePredicate(s string) (*survey.Predicate, string, bool) {
	s = strings.TrimSpace(s)
	rest, ok := cutWord(s, "when")
	if !ok {
		return nil, s, false
	}
	rest, ok = cutWord(rest, "answer")
	if !ok {
		return nil, s, false
	}

	opTok, rest := nextToken(rest)
	op, ok := survey.ParseOperator(opTok)
	if !ok {
		return nil, s, false
	}

	value, rest, ok := parseValue(rest)
	if !ok {
		return nil, s, false
	}
	return &survey.Predicate{Operator: op, Value: value}, rest, true
}

// parseValue reads a quoted string or a bare token
func parseValue(s string) (string, string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", s, false
	}
	if s[0] == '"' {
		quoted, err := strconv.QuotedPrefix(s)
		if err != nil {
			return "", s, false
		}
		v, err := strconv.Unquote(quoted)
		if err != nil {
			return "", s, false
		}
		return v, s[len(quoted):], true
	}
	tok, rest := nextToken(s)
	return tok, rest, true
}

// parseCondition decodes the payload of a condition line:
// "when answer OP VALUE -> {target}" or "{target}"
func parseCondition(l Line) (survey.Condition, error) {
	cond := survey.Condition{Line: l.Num}
	rest := l.Text
	if strings.HasPrefix(rest, "when") {
		pred, after, ok := parsePredicate(rest)
		if !ok {
			return cond, survey.Errorf(survey.KindMalformedLine, l.Num, l.Raw,
				`expected "when answer <op> <value> -> {target}"`)
		}
		after = strings.TrimSpace(after)
		if !strings.HasPrefix(after, "->") {
			return cond, survey.Errorf(survey.KindMalformedLine, l.Num, l.Raw, "missing '->' before branch target")
		}
		cond.Predicate = pred
		rest = strings.TrimSpace(after[2:])
	}

	target, ok := parseTarget(rest)
	if !ok {
		return cond, survey.Errorf(survey.KindMalformedLine, l.Num, l.Raw, "branch target must be written as {id}")
	}
	cond.Target = target
	return cond, nil
}

// parseTarget accepts "{id}" and "target:{id}"
func parseTarget(s string) (string, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "target:")
	if len(s) < 3 || s[0] != '{' || s[len(s)-1] != '}' {
		return "", false
	}
	id := s[1 : len(s)-1]
	return id, ValidIdentifier(id)
}

// parseFollowUp decodes the payload of a follow-up marker. An empty payload
// means any answer reveals the follow-up.
func parseFollowUp(l Line) (*survey.Predicate, error) {
	if l.Text == "" {
		return nil, nil
	}
	pred, rest, ok := parsePredicate(l.Text)
	if !ok || strings.TrimSpace(rest) != "" {
		return nil, survey.Errorf(survey.KindMalformedLine, l.Num, l.Raw,
			`expected "+" or "+ when answer <op> <value>"`)
	}
	return pred, nil
}

// parseRepeat decodes "MIN..MAX", "MIN..*", "N" or an empty payload (0..*)
func parseRepeat(l Line) (*survey.Repeat, error) {
	bad := func(msg string) error {
		return survey.Errorf(survey.KindMalformedLine, l.Num, l.Raw, "%s", msg)
	}
	if l.Text == "" {
		return &survey.Repeat{Unbounded: true}, nil
	}

	lo, hi, ranged := strings.Cut(l.Text, "..")
	least, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil || least < 0 {
		return nil, bad("repeat minimum must be a non-negative integer")
	}
	if !ranged {
		if least == 0 {
			return nil, bad("repeat count must be at least 1")
		}
		return &survey.Repeat{Min: least, Max: least}, nil
	}

	hi = strings.TrimSpace(hi)
	if hi == "*" {
		return &survey.Repeat{Min: least, Unbounded: true}, nil
	}
	most, err := strconv.Atoi(hi)
	if err != nil || most < 1 || most < least {
		return nil, bad("repeat maximum must be '*' or an integer >= max(1, minimum)")
	}
	return &survey.Repeat{Min: least, Max: most}, nil
}

func cutWord(s, word string) (string, bool) {
	tok, rest := nextToken(s)
	if tok != word {
		return s, false
	}
	return rest, true
}

func nextToken(s string) (string, string) {
	s = strings.TrimLeft(s, " \t")
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}
