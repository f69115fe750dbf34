package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gubarz/surveymd/internal/overlay"
	"github.com/gubarz/surveymd/internal/parser"
	"github.com/gubarz/surveymd/internal/survey"
)

// runCommand executes the root command with args and returns what it
// wrote to stdout and stderr
func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Cleanup(func() { resetFlags(rootCmd) })

	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

// resetFlags puts every flag of cmd and its subcommands back to its default
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if s, ok := f.Value.(pflag.SliceValue); ok {
			_ = s.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeSurvey(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.md")
	warn := filepath.Join(dir, "warn.md")
	bad := filepath.Join(dir, "bad.md")
	require.NoError(t, os.WriteFile(good, []byte("# G\n## A\n+\n### B\n"), 0o644))
	require.NoError(t, os.WriteFile(warn, []byte("<!-- Attribution: C -->\n<!-- attribution-data: {oops} -->\n# G\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("# G\n-> {nowhere}\n"), 0o644))

	tests := []struct {
		name    string
		path    string
		wantOut string
		wantErr string
	}{
		{name: "valid", path: good, wantOut: good + ": ok (1 groups, 2 questions, 0 warnings)\n"},
		{name: "warnings", path: warn, wantOut: warn + ": ok (1 groups, 0 questions, 1 warnings)\n", wantErr: "MalformedAttributionPayload"},
		{name: "invalid", path: bad, wantErr: "MalformedLine"},
	}

	p := parser.NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			err := checkFile(&out, &errOut, p, tt.path)
			if tt.wantOut == "" {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantOut, out.String())
			if tt.wantErr != "" {
				assert.Contains(t, errOut.String(), tt.wantErr)
			}
		})
	}
}

func TestPrintWarnings(t *testing.T) {
	var buf bytes.Buffer
	printWarnings(&buf, "s.md", []survey.Diagnostic{{
		Severity: survey.SeverityWarning,
		Kind:     survey.KindMalformedAttributionPayload,
		Line:     2,
		Message:  "attribution payload ignored",
	}})
	assert.Equal(t, "s.md: [warning] line 2: MalformedAttributionPayload: attribution payload ignored\n", buf.String())
}

func TestFmtCommand(t *testing.T) {
	const canonical = "# G {g1}\n\n## A {q1}\n"

	tests := []struct {
		name     string
		input    string
		flags    []string
		wantOut  string
		wantErr  string
		wantFile string
	}{
		{name: "prints canonical form", input: "# G\n## A\n", wantOut: canonical, wantFile: "# G\n## A\n"},
		{name: "check fails on non-canonical file", input: "# G\n## A\n", flags: []string{"-c"}, wantErr: "not in canonical form", wantFile: "# G\n## A\n"},
		{name: "check passes on canonical file", input: canonical, flags: []string{"-c"}, wantFile: canonical},
		{name: "write rewrites the file", input: "# G\n## A\n", flags: []string{"-w"}, wantFile: canonical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeSurvey(t, dir, "s.md", tt.input)

			out, _, err := runCommand(t, append(append([]string{"fmt"}, tt.flags...), path)...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantOut, out)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFile, string(data))

			leftovers, err := filepath.Glob(filepath.Join(dir, ".surveymd-*"))
			require.NoError(t, err)
			assert.Empty(t, leftovers)
		})
	}
}

func TestMergeCommand(t *testing.T) {
	dir := t.TempDir()
	target := writeSurvey(t, dir, "target.md", "# Base\n## Name\n")
	incoming := writeSurvey(t, dir, "incoming.md", "# More\n## X\n-> {g1}\n")

	out, errOut, err := runCommand(t, "merge", target, incoming)
	require.NoError(t, err)
	assert.Equal(t, "# Base {g1}\n\n## Name {q1}\n\n# More {g2}\n\n## X {q2}\n\n-> {g2}\n", out)
	assert.Contains(t, errOut, incoming+": renamed group g1 -> g2\n")
	assert.Contains(t, errOut, incoming+": renamed question q1 -> q2\n")

	_, _, err = runCommand(t, "merge", "-w", target, incoming)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
}

func TestSelectCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeSurvey(t, dir, "s.md", "# G\n## A\n+\n### B\n## C\n")
	ovPath := path + ".overlay.yaml"

	out, _, err := runCommand(t, "select", "--exclude", "q3", path)
	require.NoError(t, err)
	assert.Equal(t, ovPath+": 2 of 3 questions included\n", out)

	first, err := overlay.Load(ovPath)
	require.NoError(t, err)
	require.NotNil(t, first)
	_, err = uuid.Parse(first.Consumer)
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "q2"}, first.Included)

	_, _, err = runCommand(t, "select", "--include", "q3", "--exclude", "q1", path)
	require.NoError(t, err)

	second, err := overlay.Load(ovPath)
	require.NoError(t, err)
	assert.Equal(t, first.Consumer, second.Consumer)
	assert.Equal(t, []string{"q2", "q3"}, second.Included)

	_, _, err = runCommand(t, "select", "--exclude", "q9", path)
	assert.ErrorIs(t, err, survey.ErrUnknownIdentifier)

	custom := filepath.Join(dir, "nested", "mobile.yaml")
	_, _, err = runCommand(t, "select", "--overlay", custom, "--exclude", "q1", path)
	require.NoError(t, err)
	third, err := overlay.Load(custom)
	require.NoError(t, err)
	assert.NotEqual(t, first.Consumer, third.Consumer)
	assert.Equal(t, []string{"q2", "q3"}, third.Included)
}

func TestEffectiveCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeSurvey(t, dir, "s.md", "# G\n## A\n+\n### B\n## C\n")
	_, _, err := runCommand(t, "select", "--exclude", "q1", path)
	require.NoError(t, err)

	tests := []struct {
		name     string
		flags    []string
		want     string
		contains []string
		absent   []string
	}{
		{name: "markdown", want: "# G {g1}\n\n## C {q3}\n"},
		{name: "json", flags: []string{"-f", "json"}, contains: []string{`"q3"`}, absent: []string{`"q1"`, `"q2"`}},
		{name: "yaml", flags: []string{"-f", "yaml"}, contains: []string{"q3"}, absent: []string{"q1", "q2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runCommand(t, append(append([]string{"effective"}, tt.flags...), path)...)
			require.NoError(t, err)
			if tt.want != "" {
				assert.Equal(t, tt.want, out)
			}
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestEffectiveCommand_WithoutOverlay(t *testing.T) {
	dir := t.TempDir()
	path := writeSurvey(t, dir, "s.md", "# G\n## A\n")

	out, _, err := runCommand(t, "effective", path)
	require.NoError(t, err)
	assert.Equal(t, "# G {g1}\n\n## A {q1}\n", out)

	_, _, err = runCommand(t, "effective", "-f", "toml", path)
	assert.Error(t, err)
}
