package overlay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gubarz/surveymd/internal/survey"
)

func TestSnapshot(t *testing.T) {
	doc := parseDoc(t, "---\ntitle: Family\n---\n"+familySurvey)
	ov, err := FromIncluded(doc, []string{"age", "smoke"})
	require.NoError(t, err)

	f := Snapshot(doc, ov, "")
	assert.Equal(t, "Family", f.Document)
	assert.Equal(t, []string{"smoke", "age"}, f.Included)
	_, err = uuid.Parse(f.Consumer)
	assert.NoError(t, err)

	kept := Snapshot(doc, ov, f.Consumer)
	assert.Equal(t, f.Consumer, kept.Consumer)
}

func TestSaveLoad(t *testing.T) {
	doc := parseDoc(t, familySurvey)
	ov, err := FromIncluded(doc, []string{"smoke", "packs"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "family.overlay.yaml")
	want := Snapshot(doc, ov, "")
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	applied, err := got.Apply(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"smoke", "packs"}, applied.Included())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantNil bool
		wantErr bool
	}{
		{name: "missing file", path: filepath.Join(dir, "missing.yaml"), wantNil: true},
		{name: "no consumer yet", path: write("fresh.yaml", "included: [smoke]\n")},
		{name: "consumer not a uuid", path: write("bad-consumer.yaml", "consumer: alice\nincluded: []\n"), wantErr: true},
		{name: "malformed yaml", path: write("broken.yaml", "included: [smoke\n"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Load(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, f)
				return
			}
			assert.NotNil(t, f)
		})
	}
}

func TestFile_ApplyUnknownQuestion(t *testing.T) {
	f := &File{Consumer: uuid.NewString(), Included: []string{"removed-question"}}
	_, err := f.Apply(parseDoc(t, familySurvey))
	assert.ErrorIs(t, err, survey.ErrUnknownIdentifier)
}
