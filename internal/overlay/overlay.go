package overlay

import (
	"github.com/gubarz/surveymd/internal/survey"
)

// Overlay is one consumer's set of included questions over a document.
// It never writes to the document it was built from.
type Overlay struct {
	order    []string       // question identifiers in document order
	position map[string]int // identifier to index in order
	groups   map[string]bool
	included map[string]bool
}

// New creates an overlay with every question of doc included
func New(doc *survey.Document) (*Overlay, error) {
	ov, err := empty(doc)
	if err != nil {
		return nil, err
	}
	for _, id := range ov.order {
		ov.included[id] = true
	}
	return ov, nil
}

// FromIncluded creates an overlay that includes exactly ids
func FromIncluded(doc *survey.Document, ids []string) (*Overlay, error) {
	ov, err := empty(doc)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := ov.SetIncluded(id, true); err != nil {
			return nil, err
		}
	}
	return ov, nil
}

func empty(doc *survey.Document) (*Overlay, error) {
	ix, err := doc.Index()
	if err != nil {
		return nil, err
	}
	ov := &Overlay{
		position: make(map[string]int),
		groups:   make(map[string]bool),
		included: make(map[string]bool),
	}
	for id, e := range ix {
		if e.Kind == survey.KindGroup {
			ov.groups[id] = true
		}
	}
	doc.Walk(func(_ *survey.Group, q *survey.Question, _ *survey.Question, _ int) bool {
		ov.position[q.ID] = len(ov.order)
		ov.order = append(ov.order, q.ID)
		return true
	})
	return ov, nil
}

// SetIncluded includes or excludes one question. It fails with
// UnknownIdentifier when id names no question of the document.
func (o *Overlay) SetIncluded(id string, include bool) error {
	if _, ok := o.position[id]; !ok {
		if o.groups[id] {
			return survey.Errorf(survey.KindUnknownIdentifier, 0, id,
				"%q is a group; only questions can be selected", id)
		}
		return survey.Errorf(survey.KindUnknownIdentifier, 0, id, "no question %q in document", id)
	}
	if include {
		o.included[id] = true
	} else {
		delete(o.included, id)
	}
	return nil
}

// Toggle flips one question and returns its new state
func (o *Overlay) Toggle(id string) (bool, error) {
	next := !o.IsIncluded(id)
	if err := o.SetIncluded(id, next); err != nil {
		return false, err
	}
	return next, nil
}

// IsIncluded reports whether id is in the included set
func (o *Overlay) IsIncluded(id string) bool {
	return o.included[id]
}

// Included returns the included identifiers in document order
func (o *Overlay) Included() []string {
	ids := make([]string, 0, len(o.included))
	for _, id := range o.order {
		if o.included[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// Len returns the number of selectable questions
func (o *Overlay) Len() int {
	return len(o.order)
}

// ============================================================================
// Effective View
// ============================================================================

// EffectiveQuestions returns copies of the included top-level questions in
// document order. A follow-up is kept only when it and every question above
// it are included.
func EffectiveQuestions(doc *survey.Document, ov *Overlay) []*survey.Question {
	var out []*survey.Question
	for _, g := range doc.Groups {
		out = append(out, effective(g.Questions, ov)...)
	}
	return out
}

// EffectiveGroups returns copies of the groups that keep at least one
// question, each holding only its effective questions
func EffectiveGroups(doc *survey.Document, ov *Overlay) []*survey.Group {
	var out []*survey.Group
	for _, g := range doc.Groups {
		qs := effective(g.Questions, ov)
		if len(qs) == 0 {
			continue
		}
		cp := g.Clone()
		cp.Questions = qs
		out = append(out, cp)
	}
	return out
}

// Effective returns a copy of doc reduced to its effective groups. Branches
// whose target did not survive are dropped so the copy is a valid document.
func Effective(doc *survey.Document, ov *Overlay) *survey.Document {
	out := doc.Clone()
	out.Groups = EffectiveGroups(doc, ov)

	ix, err := out.Index()
	if err != nil {
		return out
	}
	out.Walk(func(_ *survey.Group, q *survey.Question, _ *survey.Question, _ int) bool {
		kept := q.Conditions[:0]
		for _, c := range q.Conditions {
			if ix.Has(c.Target) {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			kept = nil
		}
		q.Conditions = kept
		return true
	})
	return out
}

func effective(qs []*survey.Question, ov *Overlay) []*survey.Question {
	var out []*survey.Question
	for _, q := range qs {
		if !ov.IsIncluded(q.ID) {
			continue
		}
		cp := q.Clone()
		cp.FollowUps = effective(q.FollowUps, ov)
		out = append(out, cp)
	}
	return out
}
