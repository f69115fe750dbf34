package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/gubarz/surveymd/internal/survey"
)

// Tokens of the dual-format attribution block
const (
	AttributionMarker = "Attribution:"
	PayloadMarker     = "attribution-data:"
)

var (
	attributionRe = regexp.MustCompile(`(?i)^<!--\s*attribution:\s*(.*?)\s*-->$`)
	payloadRe     = regexp.MustCompile(`(?i)^<!--\s*attribution-data:\s*(.*?)\s*-->$`)
	inlineRe      = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(PayloadMarker))
)

// ExtractAttribution scans the leading comment and blank lines for the
// attribution block. It stops at the first line that is neither. A payload
// that does not parse is reported as a warning and the citation is kept.
// consumed lists the indexes of lines that belong to the block.
func ExtractAttribution(lines []Line) (attr *survey.Attribution, diags []survey.Diagnostic, consumed map[int]bool) {
	consumed = make(map[int]bool)
	for i := 0; i < len(lines); i++ {
		l := lines[i]
		if l.Kind == LineBlank {
			continue
		}
		if l.Kind != LineComment {
			break
		}

		if m := attributionRe.FindStringSubmatch(l.Text); m != nil && attr == nil {
			attr = &survey.Attribution{}
			consumed[i] = true
			citation, inline, hasInline := splitInline(m[1])
			attr.Citation = strings.TrimSpace(citation)
			if hasInline {
				diags = appendPayload(attr, strings.TrimSpace(inline), l.Num, diags)
				continue
			}
			if i+1 < len(lines) && lines[i+1].Kind == LineComment {
				if pm := payloadRe.FindStringSubmatch(lines[i+1].Text); pm != nil {
					consumed[i+1] = true
					diags = appendPayload(attr, pm[1], lines[i+1].Num, diags)
					i++
				}
			}
			continue
		}

		// A payload without a human line still counts; the citation then
		// comes from the payload itself.
		if m := payloadRe.FindStringSubmatch(l.Text); m != nil && attr == nil {
			attr = &survey.Attribution{}
			consumed[i] = true
			diags = appendPayload(attr, m[1], l.Num, diags)
			if attr.Payload != nil {
				attr.Citation = attr.Payload.Citation
			}
		}
	}
	return attr, diags, consumed
}

// ExtractAttributionText runs ExtractAttribution over raw text
func ExtractAttributionText(text string) (*survey.Attribution, []survey.Diagnostic) {
	attr, diags, _ := ExtractAttribution(Classify(text))
	return attr, diags
}

func appendPayload(attr *survey.Attribution, raw string, line int, diags []survey.Diagnostic) []survey.Diagnostic {
	var payload survey.AttributionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return append(diags, survey.Diagnostic{
			Severity: survey.SeverityWarning,
			Kind:     survey.KindMalformedAttributionPayload,
			Line:     line,
			Message:  "attribution payload ignored: " + err.Error(),
		})
	}
	attr.Payload = &payload
	return diags
}

// splitInline cuts s around a payload marker written on the citation line.
// Offsets come from s itself, so case folding never shifts them.
func splitInline(s string) (before, after string, found bool) {
	loc := inlineRe.FindStringIndex(s)
	if loc == nil {
		return s, "", false
	}
	return s[:loc[0]], s[loc[1]:], true
}
