package survey

import "encoding/json"

// Document is a parsed survey definition
type Document struct {
	Title       string       // From the metadata block
	Language    string       // Language tag, e.g. "en"
	Version     string       // Optional version string
	Description []string     // Text that appeared before the first group
	Attribution *Attribution // Citation and structured authorship data
	Groups      []*Group
}

// Group is an ordered container of questions, optionally repeatable
type Group struct {
	ID          string
	Title       string
	Description []string
	Repeat      *Repeat // nil unless the group is a repeat collection
	Questions   []*Question
	Line        int // Source line of the heading, 0 if built in code
}

// Repeat holds occurrence bounds for a repeatable group
type Repeat struct {
	Min       int
	Max       int
	Unbounded bool // Max is ignored when set
}

// Question is a single prompt
type Question struct {
	ID          string
	Text        string
	Type        QuestionType
	Required    bool
	Description []string
	Options     []Option
	Trigger     *Predicate // Follow-ups only: answer that reveals this question, nil for any answer
	FollowUps   []*Question
	Conditions  []Condition
	Line        int
}

// Option is one answer choice; Value is empty when it equals the label
type Option struct {
	Label string
	Value string
}

// EffectiveValue returns the stored value of the option
func (o Option) EffectiveValue() string {
	if o.Value != "" {
		return o.Value
	}
	return o.Label
}

// Condition routes navigation to Target when the answer matches Predicate.
// A nil Predicate always matches.
type Condition struct {
	Predicate *Predicate
	Target    string // Group or question identifier, never an owning pointer
	Line      int
}

// Predicate compares a question's answer against a value
type Predicate struct {
	Operator Operator
	Value    string
}

// Operator is a comparison operator used by predicates
type Operator string

const (
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpContains     Operator = "contains"
)

// ParseOperator returns the operator for a token
func ParseOperator(s string) (Operator, bool) {
	switch op := Operator(s); op {
	case OpEqual, OpNotEqual, OpLess, OpLessEqual, OpGreater, OpGreaterEqual, OpContains:
		return op, true
	}
	return "", false
}

// Attribution is citation metadata attached to a document
type Attribution struct {
	Citation string              // Human-readable line
	Payload  *AttributionPayload // nil when absent or unparseable
}

// Author is one entry of the attribution author list
type Author struct {
	Name  string `json:"name"`
	ORCID string `json:"orcid,omitempty"`
}

// AttributionPayload is the structured half of the attribution block.
// Keys this package does not know about are kept in Extra.
type AttributionPayload struct {
	Authors  []Author
	Citation string
	DOI      string
	PMID     string
	License  string
	Year     int
	Extra    map[string]json.RawMessage
}
