package reconcile

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/gubarz/surveymd/internal/parser"
	"github.com/gubarz/surveymd/internal/survey"
)

// Rename records one identifier the reconciler replaced
type Rename struct {
	Kind survey.EntityKind
	From string
	To   string
}

// Renames lists renames in document order
type Renames []Rename

// Map returns the renames as an old to new lookup
func (r Renames) Map() map[string]string {
	m := make(map[string]string, len(r))
	for _, rn := range r {
		m[rn.From] = rn.To
	}
	return m
}

// ============================================================================
// Reconciler
// ============================================================================

// Reconciler renames identifiers of incoming documents that collide with a
// target namespace. It holds only configuration.
type Reconciler struct {
	logger         *slog.Logger
	groupPrefix    string
	questionPrefix string
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithLogger sets the logger used for debug output
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithIDPrefixes sets the prefixes of minted identifiers
func WithIDPrefixes(group, question string) Option {
	return func(r *Reconciler) {
		r.groupPrefix = group
		r.questionPrefix = question
	}
}

// NewReconciler creates a new reconciler
func NewReconciler(opts ...Option) *Reconciler {
	r := &Reconciler{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(slog.String("component", "reconcile"))
	return r
}

// Reconcile renames with a default reconciler
func Reconcile(target survey.Namespace, incoming *survey.Document) (*survey.Document, Renames, error) {
	return NewReconciler().Reconcile(target, incoming)
}

// Merge merges with a default reconciler
func Merge(target, incoming *survey.Document) (*survey.Document, Renames, error) {
	return NewReconciler().Merge(target, incoming)
}

// Reconcile returns a copy of incoming in which every identifier present in
// target is replaced by a fresh one, and every condition that pointed at a
// replaced identifier points at its new name. incoming is not modified.
// Fresh identifiers avoid both target and incoming.
func (r *Reconciler) Reconcile(target survey.Namespace, incoming *survey.Document) (*survey.Document, Renames, error) {
	out := incoming.Clone()
	own, err := out.Index()
	if err != nil {
		return nil, nil, fmt.Errorf("incoming document: %w", err)
	}

	res := parser.NewResolver(r.groupPrefix, r.questionPrefix)
	res.Reserve(target)
	res.Reserve(own)

	var renames Renames
	rename := func(kind survey.EntityKind, id *string) error {
		if !target.Has(*id) {
			return nil
		}
		fresh, err := res.Generate(kind)
		if err != nil {
			return err
		}
		r.logger.Debug("identifier renamed",
			slog.String("kind", kind.String()),
			slog.String("from", *id),
			slog.String("to", fresh))
		renames = append(renames, Rename{Kind: kind, From: *id, To: fresh})
		*id = fresh
		return nil
	}

	for _, g := range out.Groups {
		if err := rename(survey.KindGroup, &g.ID); err != nil {
			return nil, nil, err
		}
	}
	out.Walk(func(_ *survey.Group, q *survey.Question, _ *survey.Question, _ int) bool {
		err = rename(survey.KindQuestion, &q.ID)
		return err == nil
	})
	if err != nil {
		return nil, nil, err
	}

	if len(renames) > 0 {
		m := renames.Map()
		out.Walk(func(_ *survey.Group, q *survey.Question, _ *survey.Question, _ int) bool {
			for i := range q.Conditions {
				if to, ok := m[q.Conditions[i].Target]; ok {
					q.Conditions[i].Target = to
				}
			}
			return true
		})
	}

	if err := out.Validate(); err != nil {
		return nil, nil, err
	}
	return out, renames, nil
}

// Merge reconciles incoming against target and returns a new document with
// target's groups followed by the renamed incoming groups. Neither input is
// modified. Attribution and metadata come from target.
func (r *Reconciler) Merge(target, incoming *survey.Document) (*survey.Document, Renames, error) {
	ix, err := target.Index()
	if err != nil {
		return nil, nil, fmt.Errorf("target document: %w", err)
	}
	renamed, renames, err := r.Reconcile(ix, incoming)
	if err != nil {
		return nil, nil, err
	}

	merged := target.Clone()
	merged.Groups = append(merged.Groups, renamed.Groups...)
	if err := merged.Validate(); err != nil {
		return nil, nil, err
	}

	r.logger.Debug("documents merged",
		slog.Int("groups", len(merged.Groups)),
		slog.Int("renamed", len(renames)))
	return merged, renames, nil
}

// ============================================================================
// Target
// ============================================================================

// Target is a document that receives repeated merges. Merges into one
// Target are serialized; each holds the lock only for its own duration.
type Target struct {
	mu  sync.Mutex
	doc *survey.Document
	rec *Reconciler
}

// NewTarget wraps doc. A nil reconciler uses the defaults.
func NewTarget(doc *survey.Document, rec *Reconciler) *Target {
	if rec == nil {
		rec = NewReconciler()
	}
	if doc == nil {
		doc = &survey.Document{}
	}
	return &Target{doc: doc, rec: rec}
}

// Merge imports incoming into the target
func (t *Target) Merge(incoming *survey.Document) (Renames, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	merged, renames, err := t.rec.Merge(t.doc, incoming)
	if err != nil {
		return nil, err
	}
	t.doc = merged
	return renames, nil
}

// Document returns a copy of the current target document
func (t *Target) Document() *survey.Document {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.doc.Clone()
}
