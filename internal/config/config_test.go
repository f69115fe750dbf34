package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	assert.Equal(t, "warn", GetLogLevel())
	assert.Equal(t, "text", GetLogFormat())
	assert.Equal(t, "print", GetOutput())
	assert.Equal(t, "g", GetGroupIDPrefix())
	assert.Equal(t, "q", GetQuestionIDPrefix())
	assert.False(t, GetStrict())
	assert.Equal(t, 150*time.Millisecond, GetWatchDebounce())
	assert.Equal(t, "36", GetColorHeader())
	assert.Equal(t, "31", GetColorRequired())
	assert.Equal(t, "90", GetColorDim())
	assert.Equal(t, "33", GetColorCursor())
	assert.Equal(t, "32", GetColorSelected())
	assert.Equal(t, "8", GetColorBorder())
}

func TestInit_FileAndEnvironment(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	home := t.TempDir()
	t.Setenv("HOME", home)
	chdir(t, t.TempDir())

	dir := filepath.Join(home, ".config", "surveymd")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "surveymd.yaml"),
		[]byte("output: copy\nquestion_id_prefix: item\nwatch_debounce_ms: 40\n"), 0o644))
	t.Setenv("SURVEYMD_STRICT", "true")

	require.NoError(t, Init())

	assert.Equal(t, "copy", GetOutput())
	assert.Equal(t, "item", GetQuestionIDPrefix())
	assert.Equal(t, 40*time.Millisecond, GetWatchDebounce())
	assert.True(t, GetStrict())
	assert.Equal(t, "g", GetGroupIDPrefix())

	assert.Equal(t, "copy", C.Output)
	assert.True(t, C.Strict)
}

func TestSetters(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	SetOutput("copy")
	SetStrict(true)
	SetLogLevel("debug")

	assert.Equal(t, "copy", GetOutput())
	assert.True(t, GetStrict())
	assert.Equal(t, "debug", GetLogLevel())
	assert.Equal(t, "debug", C.LogLevel)
}

// chdir changes the working directory for the rest of the test and restores
// it on cleanup (stand-in for testing.T.Chdir, which needs Go 1.24)
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
