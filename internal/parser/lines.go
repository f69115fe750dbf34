package parser

import (
	"regexp"
	"strings"
)

// LineKind is the classification of one source line
type LineKind int

const (
	LineBlank LineKind = iota
	LineGroupHeading
	LineQuestionHeading
	LineOption
	LineCondition
	LineFollowUp
	LineRepeat
	LineComment
	LineFence
	LineMetadata
	LinePlain
)

var lineKindNames = map[LineKind]string{
	LineBlank:           "blank",
	LineGroupHeading:    "group-heading",
	LineQuestionHeading: "question-heading",
	LineOption:          "option",
	LineCondition:       "condition",
	LineFollowUp:        "follow-up",
	LineRepeat:          "repeat",
	LineComment:         "comment",
	LineFence:           "fence",
	LineMetadata:        "metadata",
	LinePlain:           "plain",
}

func (k LineKind) String() string {
	return lineKindNames[k]
}

// Line is a classified source line
type Line struct {
	Num   int      // 1-based
	Kind  LineKind //
	Raw   string   // Line with trailing whitespace removed
	Text  string   // Payload after the line's prefix token, trimmed
	Level int      // Heading level (number of #)
	Multi bool     // Option lines: checkbox marker instead of radio

	// Unclosed marks a comment opener whose comment runs to the end of input
	Unclosed bool
}

var (
	headingRe   = regexp.MustCompile(`^(#{1,6})(?:\s+(.*))?$`)
	optionRe    = regexp.MustCompile(`^[-*]\s+(\(\s?\)|\[\s?\])\s*(.*)$`)
	conditionRe = regexp.MustCompile(`^->(?:\s+(.*))?$`)
	followUpRe  = regexp.MustCompile(`^\+(?:\s+(.*))?$`)
	repeatRe    = regexp.MustCompile(`^@repeat(?:\s+(.*))?$`)
	fenceRe     = regexp.MustCompile(`^---$`)
)

const (
	commentOpen  = "<!--"
	commentClose = "-->"
)

// Normalize converts line endings to \n and drops a leading byte order mark
func Normalize(text string) string {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// front matter states of Classify
const (
	beforeContent = iota // only blank and comment lines so far
	inMetadata
	inBody
)

// Classify splits text into classified lines. It never fails: anything it
// does not recognize is PlainText.
//
// A fence that precedes all content opens the metadata block. Lines up to
// the next unindented "---" are LineMetadata and are not scanned for
// comments or headings.
func Classify(text string) []Line {
	text = Normalize(text)
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}

	raw := strings.Split(text, "\n")
	lines := make([]Line, 0, len(raw))
	inComment := false
	opener := -1
	state := beforeContent
	for i, r := range raw {
		r = strings.TrimRight(r, " \t")
		if state == inMetadata {
			line := Line{Num: i + 1, Raw: r, Kind: LineMetadata, Text: r}
			if r == "---" {
				line.Kind = LineFence
				line.Text = ""
				state = inBody
			}
			lines = append(lines, line)
			continue
		}

		wasComment := inComment
		line := classifyLine(i+1, r, &inComment)
		if !wasComment && inComment {
			opener = i
		}
		switch {
		case state != beforeContent:
		case line.Kind == LineFence:
			state = inMetadata
		case line.Kind != LineBlank && line.Kind != LineComment:
			state = inBody
		}
		lines = append(lines, line)
	}
	if inComment && opener >= 0 {
		lines[opener].Unclosed = true
	}
	return lines
}

// classifyLine classifies a single line. inComment carries an open
// multi-line comment across lines.
func classifyLine(num int, raw string, inComment *bool) Line {
	line := Line{Num: num, Raw: raw, Kind: LinePlain}
	s := strings.TrimSpace(raw)

	if *inComment {
		line.Kind = LineComment
		line.Text = s
		if strings.Contains(s, commentClose) {
			*inComment = false
		}
		return line
	}

	if s == "" {
		line.Kind = LineBlank
		return line
	}

	if strings.HasPrefix(s, commentOpen) {
		line.Kind = LineComment
		line.Text = s
		if !strings.Contains(s[len(commentOpen):], commentClose) {
			*inComment = true
		}
		return line
	}

	if m := headingRe.FindStringSubmatch(s); m != nil {
		line.Level = len(m[1])
		line.Text = strings.TrimSpace(m[2])
		if line.Level == 1 {
			line.Kind = LineGroupHeading
		} else {
			line.Kind = LineQuestionHeading
		}
		return line
	}

	if m := optionRe.FindStringSubmatch(s); m != nil {
		line.Kind = LineOption
		line.Multi = strings.HasPrefix(m[1], "[")
		line.Text = strings.TrimSpace(m[2])
		return line
	}

	if m := conditionRe.FindStringSubmatch(s); m != nil {
		line.Kind = LineCondition
		line.Text = strings.TrimSpace(m[1])
		return line
	}

	if m := followUpRe.FindStringSubmatch(s); m != nil {
		line.Kind = LineFollowUp
		line.Text = strings.TrimSpace(m[1])
		return line
	}

	if m := repeatRe.FindStringSubmatch(s); m != nil {
		line.Kind = LineRepeat
		line.Text = strings.TrimSpace(m[1])
		return line
	}

	if fenceRe.MatchString(s) {
		line.Kind = LineFence
		return line
	}

	line.Text = s
	return line
}
