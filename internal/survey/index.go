package survey

import (
	"encoding/json"
	"fmt"
)

// EntityKind distinguishes the two identifiable entity kinds
type EntityKind int

const (
	KindGroup EntityKind = iota
	KindQuestion
)

func (k EntityKind) String() string {
	if k == KindGroup {
		return "group"
	}
	return "question"
}

// Entry locates an identifier inside a document
type Entry struct {
	Kind     EntityKind
	Group    *Group
	Question *Question // nil for groups
	Parent   *Question // Enclosing question for follow-ups
	Depth    int       // 0 for top-level questions
}

// Namespace is a set of identifiers
type Namespace interface {
	Has(id string) bool
}

// Index maps every identifier of a document to its entity
type Index map[string]Entry

// Has implements Namespace
func (ix Index) Has(id string) bool {
	_, ok := ix[id]
	return ok
}

// NamespaceSet is a plain identifier set
type NamespaceSet map[string]struct{}

// Has implements Namespace
func (s NamespaceSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts an identifier
func (s NamespaceSet) Add(id string) {
	s[id] = struct{}{}
}

// Walk visits every question depth-first in document order.
// Returning false from fn stops the walk.
func (d *Document) Walk(fn func(g *Group, q *Question, parent *Question, depth int) bool) {
	var visit func(g *Group, qs []*Question, parent *Question, depth int) bool
	visit = func(g *Group, qs []*Question, parent *Question, depth int) bool {
		for _, q := range qs {
			if !fn(g, q, parent, depth) {
				return false
			}
			if !visit(g, q.FollowUps, q, depth+1) {
				return false
			}
		}
		return true
	}
	for _, g := range d.Groups {
		if !visit(g, g.Questions, nil, 0) {
			return
		}
	}
}

// Identifiers returns every identifier in document order
func (d *Document) Identifiers() []string {
	var ids []string
	for _, g := range d.Groups {
		ids = append(ids, g.ID)
		d.walkGroup(g, func(q *Question) { ids = append(ids, q.ID) })
	}
	return ids
}

func (d *Document) walkGroup(g *Group, fn func(q *Question)) {
	var visit func(qs []*Question)
	visit = func(qs []*Question) {
		for _, q := range qs {
			fn(q)
			visit(q.FollowUps)
		}
	}
	visit(g.Questions)
}

// Index builds the identifier index. It fails with DuplicateIdentifier when
// two entities share an identifier.
func (d *Document) Index() (Index, error) {
	ix := make(Index)
	add := func(id string, e Entry, line int) error {
		if id == "" {
			return Errorf(KindUnknownIdentifier, line, "", "%s has no identifier", e.Kind)
		}
		if prev, ok := ix[id]; ok {
			err := Errorf(KindDuplicateIdentifier, line, id, "identifier %q is used by more than one %s", id, e.Kind)
			if prevLine := prev.line(); prevLine > 0 {
				err.Related = []int{prevLine}
			}
			return err
		}
		ix[id] = e
		return nil
	}

	for _, g := range d.Groups {
		if err := add(g.ID, Entry{Kind: KindGroup, Group: g}, g.Line); err != nil {
			return nil, err
		}
	}
	var err error
	d.Walk(func(g *Group, q *Question, parent *Question, depth int) bool {
		err = add(q.ID, Entry{Kind: KindQuestion, Group: g, Question: q, Parent: parent, Depth: depth}, q.Line)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return ix, nil
}

func (e Entry) line() int {
	if e.Question != nil {
		return e.Question.Line
	}
	return e.Group.Line
}

// Validate checks identifier uniqueness and that every condition target exists
func (d *Document) Validate() error {
	ix, err := d.Index()
	if err != nil {
		return err
	}
	d.Walk(func(_ *Group, q *Question, _ *Question, _ int) bool {
		for _, c := range q.Conditions {
			if !ix.Has(c.Target) {
				err = Errorf(KindUnresolvedReference, c.Line, c.Target,
					"question %q branches to unknown identifier %q", q.ID, c.Target)
				return false
			}
		}
		return true
	})
	return err
}

// Clone returns a deep copy of the document
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		Title:       d.Title,
		Language:    d.Language,
		Version:     d.Version,
		Description: cloneStrings(d.Description),
		Groups:      make([]*Group, len(d.Groups)),
	}
	if d.Attribution != nil {
		out.Attribution = d.Attribution.Clone()
	}
	for i, g := range d.Groups {
		out.Groups[i] = g.Clone()
	}
	return out
}

// Clone returns a deep copy of the group
func (g *Group) Clone() *Group {
	out := &Group{
		ID:          g.ID,
		Title:       g.Title,
		Description: cloneStrings(g.Description),
		Questions:   cloneQuestions(g.Questions),
		Line:        g.Line,
	}
	if g.Repeat != nil {
		r := *g.Repeat
		out.Repeat = &r
	}
	return out
}

// Clone returns a deep copy of the question and its follow-ups
func (q *Question) Clone() *Question {
	out := *q
	out.Description = cloneStrings(q.Description)
	out.Options = append([]Option(nil), q.Options...)
	out.FollowUps = cloneQuestions(q.FollowUps)
	if q.Trigger != nil {
		t := *q.Trigger
		out.Trigger = &t
	}
	if q.Conditions != nil {
		out.Conditions = make([]Condition, len(q.Conditions))
		for i, c := range q.Conditions {
			out.Conditions[i] = c
			if c.Predicate != nil {
				p := *c.Predicate
				out.Conditions[i].Predicate = &p
			}
		}
	}
	return &out
}

// Clone returns a deep copy of the attribution
func (a *Attribution) Clone() *Attribution {
	out := &Attribution{Citation: a.Citation}
	if a.Payload != nil {
		p := *a.Payload
		p.Authors = append([]Author(nil), a.Payload.Authors...)
		if a.Payload.Extra != nil {
			p.Extra = make(map[string]json.RawMessage, len(a.Payload.Extra))
			for k, v := range a.Payload.Extra {
				p.Extra[k] = append(json.RawMessage(nil), v...)
			}
		}
		out.Payload = &p
	}
	return out
}

func cloneQuestions(qs []*Question) []*Question {
	if qs == nil {
		return nil
	}
	out := make([]*Question, len(qs))
	for i, q := range qs {
		out[i] = q.Clone()
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// String returns a short description used in logs
func (e Entry) String() string {
	if e.Question != nil {
		return fmt.Sprintf("question %q in group %q", e.Question.ID, e.Group.ID)
	}
	return fmt.Sprintf("group %q", e.Group.ID)
}
