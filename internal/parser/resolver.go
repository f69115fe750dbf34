package parser

import (
	"math"
	"regexp"
	"strconv"

	"github.com/gubarz/surveymd/internal/survey"
)

// Default prefixes for generated identifiers
const (
	DefaultGroupPrefix    = "g"
	DefaultQuestionPrefix = "q"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

// ValidIdentifier reports whether id may be declared by an author
func ValidIdentifier(id string) bool {
	return identifierRe.MatchString(id)
}

// binding is what an identifier maps to within one pass
type binding struct {
	kind  survey.EntityKind
	line  int
	entry survey.Entry
	bound bool
}

// Resolver owns the identifier namespace of one parse or merge call.
// It is not safe for concurrent use; each call creates its own.
type Resolver struct {
	ids      map[string]*binding
	reserved []survey.Namespace
	prefixes [2]string
	counters [2]int
	limit    int
}

// NewResolver creates a resolver with the given generated-ID prefixes.
// Empty prefixes fall back to the defaults.
func NewResolver(groupPrefix, questionPrefix string) *Resolver {
	if groupPrefix == "" {
		groupPrefix = DefaultGroupPrefix
	}
	if questionPrefix == "" {
		questionPrefix = DefaultQuestionPrefix
	}
	return &Resolver{
		ids:      make(map[string]*binding),
		prefixes: [2]string{groupPrefix, questionPrefix},
		limit:    math.MaxInt,
	}
}

// Reserve makes generate avoid every identifier of ns
func (r *Resolver) Reserve(ns survey.Namespace) {
	r.reserved = append(r.reserved, ns)
}

// Declare registers an author-chosen identifier. Declaring an identifier a
// second time fails with DuplicateIdentifier naming both lines.
func (r *Resolver) Declare(id string, kind survey.EntityKind, line int) error {
	if prev, ok := r.ids[id]; ok {
		err := survey.Errorf(survey.KindDuplicateIdentifier, line, id,
			"identifier %q already declared for a %s", id, prev.kind)
		if prev.line > 0 {
			err.Related = []int{prev.line}
		}
		return err
	}
	r.ids[id] = &binding{kind: kind, line: line}
	return nil
}

// Generate returns a fresh identifier distinct from every declared,
// generated and reserved identifier seen so far.
func (r *Resolver) Generate(kind survey.EntityKind) (string, error) {
	for {
		if r.counters[kind] >= r.limit {
			return "", survey.Errorf(survey.KindIdentifierNamespaceExhausted, 0, "",
				"no %s identifiers left for prefix %q", kind, r.prefixes[kind])
		}
		r.counters[kind]++
		id := r.prefixes[kind] + strconv.Itoa(r.counters[kind])
		if r.taken(id) {
			continue
		}
		r.ids[id] = &binding{kind: kind}
		return id, nil
	}
}

func (r *Resolver) taken(id string) bool {
	if _, ok := r.ids[id]; ok {
		return true
	}
	for _, ns := range r.reserved {
		if ns.Has(id) {
			return true
		}
	}
	return false
}

// Has reports whether id is declared or generated in this pass
func (r *Resolver) Has(id string) bool {
	_, ok := r.ids[id]
	return ok
}

// Bind attaches the built entity to a declared or generated identifier
func (r *Resolver) Bind(id string, entry survey.Entry) {
	b, ok := r.ids[id]
	if !ok {
		b = &binding{kind: entry.Kind}
		r.ids[id] = b
	}
	b.entry = entry
	b.bound = true
}

// Resolve returns the entity an identifier refers to. It fails with
// UnresolvedReference when nothing was declared or generated under token.
func (r *Resolver) Resolve(token string, line int) (survey.Entry, error) {
	b, ok := r.ids[token]
	if !ok || !b.bound {
		return survey.Entry{}, survey.Errorf(survey.KindUnresolvedReference, line, token,
			"branch target %q is not declared anywhere in the document", token)
	}
	return b.entry, nil
}
