package survey

import (
	"fmt"
	"strings"
)

// ErrorKind categorizes errors and diagnostics
type ErrorKind string

const (
	KindMalformedHeading             ErrorKind = "MalformedHeading"
	KindMalformedLine                ErrorKind = "MalformedLine"
	KindDuplicateIdentifier          ErrorKind = "DuplicateIdentifier"
	KindUnresolvedReference          ErrorKind = "UnresolvedReference"
	KindInvalidRepeatScope           ErrorKind = "InvalidRepeatScope"
	KindUnknownIdentifier            ErrorKind = "UnknownIdentifier"
	KindMalformedAttributionPayload  ErrorKind = "MalformedAttributionPayload"
	KindIdentifierNamespaceExhausted ErrorKind = "IdentifierNamespaceExhausted"
)

// Sentinels for errors.Is. Any *Error of the same kind matches.
var (
	ErrMalformedHeading             = &Error{Kind: KindMalformedHeading}
	ErrMalformedLine                = &Error{Kind: KindMalformedLine}
	ErrDuplicateIdentifier          = &Error{Kind: KindDuplicateIdentifier}
	ErrUnresolvedReference          = &Error{Kind: KindUnresolvedReference}
	ErrInvalidRepeatScope           = &Error{Kind: KindInvalidRepeatScope}
	ErrUnknownIdentifier            = &Error{Kind: KindUnknownIdentifier}
	ErrMalformedAttributionPayload  = &Error{Kind: KindMalformedAttributionPayload}
	ErrIdentifierNamespaceExhausted = &Error{Kind: KindIdentifierNamespaceExhausted}
)

// Error is a structural failure with enough context for an author to fix the input
type Error struct {
	Kind    ErrorKind
	Message string
	Line    int    // 1-based source line, 0 if not applicable
	Related []int  // Other lines involved, e.g. the first declaration of a duplicate
	Text    string // Offending source text
}

// Error implements the error interface.
// Format: "line N: Kind: message (also line M): text"
func (e *Error) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Related) > 0 {
		parts := make([]string, len(e.Related))
		for i, l := range e.Related {
			parts[i] = fmt.Sprintf("%d", l)
		}
		fmt.Fprintf(&b, " (see line %s)", strings.Join(parts, ", "))
	}
	if e.Text != "" {
		fmt.Fprintf(&b, ": %q", e.Text)
	}
	return b.String()
}

// Is matches errors of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Lines returns the primary line followed by related lines
func (e *Error) Lines() []int {
	lines := make([]int, 0, len(e.Related)+1)
	if e.Line > 0 {
		lines = append(lines, e.Line)
	}
	return append(lines, e.Related...)
}

// Errorf builds an *Error at a line
func Errorf(kind ErrorKind, line int, text, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Line:    line,
		Text:    text,
		Message: fmt.Sprintf(format, args...),
	}
}

// Severity of a diagnostic
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// Diagnostic is a non-fatal issue reported alongside a successful parse
type Diagnostic struct {
	Severity Severity
	Kind     ErrorKind
	Message  string
	Line     int
}

// String returns "[severity] line N: Kind: message"
func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", d.Severity)
	if d.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", d.Line)
	}
	b.WriteString(string(d.Kind))
	if d.Message != "" {
		b.WriteString(": ")
		b.WriteString(d.Message)
	}
	return b.String()
}

// AsError converts the diagnostic into an *Error, used by strict mode
func (d Diagnostic) AsError() *Error {
	return &Error{Kind: d.Kind, Line: d.Line, Message: d.Message}
}
