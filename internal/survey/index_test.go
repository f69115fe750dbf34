package survey

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleDocument has one follow-up chain and a backward branch
func sampleDocument() *Document {
	return &Document{
		Title: "Sample",
		Groups: []*Group{
			{
				ID:    "intro",
				Title: "Intro",
				Line:  1,
				Questions: []*Question{
					{
						ID: "smoke", Text: "Do you smoke?", Type: TypeChoice, Line: 3,
						Options: []Option{{Label: "Yes"}, {Label: "No"}},
						FollowUps: []*Question{
							{ID: "packs", Text: "Packs per day", Type: TypeNumber, Line: 7,
								Trigger: &Predicate{Operator: OpEqual, Value: "Yes"}},
						},
					},
				},
			},
			{
				ID:    "outro",
				Title: "Outro",
				Line:  10,
				Questions: []*Question{
					{ID: "done", Text: "Done?", Type: TypeText, Line: 12,
						Conditions: []Condition{{Target: "intro", Line: 13}}},
				},
			},
		},
	}
}

func TestDocument_Identifiers(t *testing.T) {
	assert.Equal(t, []string{"intro", "smoke", "packs", "outro", "done"}, sampleDocument().Identifiers())
}

func TestDocument_Index(t *testing.T) {
	ix, err := sampleDocument().Index()
	require.NoError(t, err)

	require.Contains(t, ix, "packs")
	e := ix["packs"]
	assert.Equal(t, KindQuestion, e.Kind)
	assert.Equal(t, "intro", e.Group.ID)
	assert.Equal(t, "smoke", e.Parent.ID)
	assert.Equal(t, 1, e.Depth)

	assert.Equal(t, KindGroup, ix["outro"].Kind)
	assert.True(t, ix.Has("done"))
	assert.False(t, ix.Has("missing"))
}

func TestDocument_IndexDuplicate(t *testing.T) {
	doc := sampleDocument()
	doc.Groups[1].Questions[0].ID = "smoke"

	_, err := doc.Index()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateIdentifier))

	var serr *Error
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, 12, serr.Line)
	assert.Equal(t, []int{3}, serr.Related)
	assert.Equal(t, []int{12, 3}, serr.Lines())
}

func TestDocument_IndexSharedNamespace(t *testing.T) {
	doc := sampleDocument()
	doc.Groups[1].Questions[0].ID = "intro"

	_, err := doc.Index()
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)
}

func TestDocument_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *Document)
		wantErr error
	}{
		{name: "valid", mutate: func(d *Document) {}},
		{
			name: "forward branch",
			mutate: func(d *Document) {
				q := d.Groups[0].Questions[0]
				q.Conditions = append(q.Conditions, Condition{Target: "done"})
			},
		},
		{
			name: "dangling branch",
			mutate: func(d *Document) {
				d.Groups[1].Questions[0].Conditions[0].Target = "nowhere"
			},
			wantErr: ErrUnresolvedReference,
		},
		{
			name: "dangling branch on follow-up",
			mutate: func(d *Document) {
				f := d.Groups[0].Questions[0].FollowUps[0]
				f.Conditions = []Condition{{Target: "gone"}}
			},
			wantErr: ErrUnresolvedReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sampleDocument()
			tt.mutate(doc)
			err := doc.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDocument_CloneIsDeep(t *testing.T) {
	doc := sampleDocument()
	doc.Attribution = &Attribution{Citation: "C", Payload: &AttributionPayload{Authors: []Author{{Name: "A"}}}}
	doc.Groups[0].Repeat = &Repeat{Min: 1, Max: 3}

	cp := doc.Clone()
	require.Equal(t, doc, cp)

	cp.Groups[0].Questions[0].FollowUps[0].Trigger.Value = "No"
	cp.Groups[0].Questions[0].Options[0].Label = "Y"
	cp.Groups[1].Questions[0].Conditions[0].Target = "outro"
	cp.Groups[0].Repeat.Max = 9
	cp.Attribution.Payload.Authors[0].Name = "B"

	assert.Equal(t, "Yes", doc.Groups[0].Questions[0].FollowUps[0].Trigger.Value)
	assert.Equal(t, "Yes", doc.Groups[0].Questions[0].Options[0].Label)
	assert.Equal(t, "intro", doc.Groups[1].Questions[0].Conditions[0].Target)
	assert.Equal(t, 3, doc.Groups[0].Repeat.Max)
	assert.Equal(t, "A", doc.Attribution.Payload.Authors[0].Name)
}

func TestDocument_WalkStops(t *testing.T) {
	var seen []string
	sampleDocument().Walk(func(_ *Group, q *Question, _ *Question, _ int) bool {
		seen = append(seen, q.ID)
		return q.ID != "packs"
	})
	assert.Equal(t, []string{"smoke", "packs"}, seen)
}

func TestError_Format(t *testing.T) {
	err := Errorf(KindDuplicateIdentifier, 7, "{a}", "identifier %q already declared", "a")
	err.Related = []int{2}
	assert.Equal(t, `line 7: DuplicateIdentifier: identifier "a" already declared (see line 2): "{a}"`, err.Error())

	assert.True(t, errors.Is(err, ErrDuplicateIdentifier))
	assert.False(t, errors.Is(err, ErrMalformedHeading))
}

func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{Severity: SeverityWarning, Kind: KindMalformedAttributionPayload, Line: 2, Message: "bad"}
	assert.Equal(t, "[warning] line 2: MalformedAttributionPayload: bad", d.String())
	assert.ErrorIs(t, d.AsError(), ErrMalformedAttributionPayload)
}
