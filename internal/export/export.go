package export

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/gubarz/surveymd/internal/survey"
)

// Format is an export encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (supported: json, yaml)", s)
	}
}

// Document is the exported form of a survey document
type Document struct {
	Title       string       `json:"title,omitempty" yaml:"title,omitempty"`
	Language    string       `json:"language,omitempty" yaml:"language,omitempty"`
	Version     string       `json:"version,omitempty" yaml:"version,omitempty"`
	Description []string     `json:"description,omitempty" yaml:"description,omitempty"`
	Attribution *Attribution `json:"attribution,omitempty" yaml:"attribution,omitempty"`
	Groups      []Group      `json:"groups" yaml:"groups"`
}

// Attribution is the exported attribution block
type Attribution struct {
	Citation string `json:"citation" yaml:"citation"`
	Payload  any    `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// Group is an exported group
type Group struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description []string   `json:"description,omitempty" yaml:"description,omitempty"`
	Repeat      *Repeat    `json:"repeat,omitempty" yaml:"repeat,omitempty"`
	Questions   []Question `json:"questions" yaml:"questions"`
}

// Repeat is exported bounds; Max is absent when unbounded
type Repeat struct {
	Min int  `json:"min" yaml:"min"`
	Max *int `json:"max,omitempty" yaml:"max,omitempty"`
}

// Question is an exported question with its capabilities resolved
type Question struct {
	ID          string      `json:"id" yaml:"id"`
	Text        string      `json:"text" yaml:"text"`
	Type        string      `json:"type" yaml:"type"`
	Required    bool        `json:"required,omitempty" yaml:"required,omitempty"`
	Encrypted   bool        `json:"encrypted,omitempty" yaml:"encrypted,omitempty"`
	Description []string    `json:"description,omitempty" yaml:"description,omitempty"`
	Options     []Option    `json:"options,omitempty" yaml:"options,omitempty"`
	Trigger     *Predicate  `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	Conditions  []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	FollowUps   []Question  `json:"follow_ups,omitempty" yaml:"follow_ups,omitempty"`
}

// Option is an exported option; Value is always filled
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// Predicate is an exported answer comparison
type Predicate struct {
	Operator string `json:"op" yaml:"op"`
	Value    string `json:"value" yaml:"value"`
}

// Condition is an exported branch
type Condition struct {
	When   *Predicate `json:"when,omitempty" yaml:"when,omitempty"`
	Target string     `json:"target" yaml:"target"`
}

// FromDocument converts doc into its exported form
func FromDocument(doc *survey.Document) (*Document, error) {
	out := &Document{
		Title:       doc.Title,
		Language:    doc.Language,
		Version:     doc.Version,
		Description: doc.Description,
		Groups:      make([]Group, 0, len(doc.Groups)),
	}

	if a := doc.Attribution; a != nil {
		out.Attribution = &Attribution{Citation: a.Citation}
		if a.Payload != nil {
			// Round-trip through JSON so unknown keys survive in both encodings
			raw, err := json.Marshal(a.Payload)
			if err != nil {
				return nil, err
			}
			var payload map[string]any
			if err := json.Unmarshal(raw, &payload); err != nil {
				return nil, err
			}
			out.Attribution.Payload = payload
		}
	}

	for _, g := range doc.Groups {
		eg := Group{
			ID:          g.ID,
			Title:       g.Title,
			Description: g.Description,
			Questions:   questions(g.Questions),
		}
		if r := g.Repeat; r != nil {
			eg.Repeat = &Repeat{Min: r.Min}
			if !r.Unbounded {
				most := r.Max
				eg.Repeat.Max = &most
			}
		}
		out.Groups = append(out.Groups, eg)
	}
	return out, nil
}

func questions(qs []*survey.Question) []Question {
	out := make([]Question, 0, len(qs))
	for _, q := range qs {
		eq := Question{
			ID:          q.ID,
			Text:        q.Text,
			Type:        string(q.Type),
			Required:    q.Required,
			Encrypted:   q.Type.Capabilities().Encrypted,
			Description: q.Description,
			Trigger:     predicate(q.Trigger),
		}
		for _, o := range q.Options {
			eq.Options = append(eq.Options, Option{Label: o.Label, Value: o.EffectiveValue()})
		}
		for _, c := range q.Conditions {
			eq.Conditions = append(eq.Conditions, Condition{When: predicate(c.Predicate), Target: c.Target})
		}
		if len(q.FollowUps) > 0 {
			eq.FollowUps = questions(q.FollowUps)
		}
		out = append(out, eq)
	}
	return out
}

func predicate(p *survey.Predicate) *Predicate {
	if p == nil {
		return nil
	}
	return &Predicate{Operator: string(p.Operator), Value: p.Value}
}

// Encode writes doc to w in the given format
func Encode(w io.Writer, doc *survey.Document, format Format) error {
	out, err := FromDocument(doc)
	if err != nil {
		return fmt.Errorf("exporting document: %w", err)
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
}
