package parser

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gubarz/surveymd/internal/survey"
)

// Result is a successfully parsed document plus non-fatal diagnostics
type Result struct {
	Document *survey.Document
	Warnings []survey.Diagnostic
}

// Parser turns survey markdown into documents. A Parser holds only
// configuration, so one value may be shared by concurrent callers.
type Parser struct {
	logger         *slog.Logger
	groupPrefix    string
	questionPrefix string
	strict         bool
}

// Option configures a Parser
type Option func(*Parser)

// WithLogger sets the logger used for debug output
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithIDPrefixes sets the prefixes of generated identifiers
func WithIDPrefixes(group, question string) Option {
	return func(p *Parser) {
		p.groupPrefix = group
		p.questionPrefix = question
	}
}

// WithStrict turns warnings into errors
func WithStrict(strict bool) Option {
	return func(p *Parser) {
		p.strict = strict
	}
}

// NewParser creates a new parser
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(slog.String("component", "parser"))
	return p
}

// Parse parses text with a default parser
func Parse(text string, opts ...Option) (*Result, error) {
	return NewParser(opts...).Parse(text)
}

// Parse builds a document from survey markdown. On any structural error it
// returns a *survey.Error and no document.
func (p *Parser) Parse(text string) (*Result, error) {
	lines := Classify(text)

	attr, warnings, consumed := ExtractAttribution(lines)

	b := newBuilder(NewResolver(p.groupPrefix, p.questionPrefix), p.logger)
	b.doc.Attribution = attr
	doc, err := b.build(lines, consumed)
	if err != nil {
		p.logger.Debug("parse failed", slog.Any("error", err))
		return nil, err
	}

	if p.strict && len(warnings) > 0 {
		return nil, warnings[0].AsError()
	}

	p.logger.Debug("document parsed",
		slog.Int("lines", len(lines)),
		slog.Int("groups", len(doc.Groups)),
		slog.Int("warnings", len(warnings)))

	return &Result{Document: doc, Warnings: warnings}, nil
}

// ParseReader reads all of r and parses it
func (p *Parser) ParseReader(r io.Reader) (*Result, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("reading survey: %w", err)
	}
	return p.Parse(buf.String())
}

// ParseFile reads and parses a markdown file
func (p *Parser) ParseFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	res, err := p.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}
