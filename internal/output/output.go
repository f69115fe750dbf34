package output

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gubarz/surveymd/internal/config"
)

// ============================================================================
// Clipboard Interface
// ============================================================================

// Clipboard defines the interface for clipboard operations
type Clipboard interface {
	Copy(text string) error
}

// systemClipboard implements Clipboard using system commands
type systemClipboard struct {
	fallback io.Writer
}

// Copy copies text to the system clipboard
func (c *systemClipboard) Copy(text string) error {
	cmd := c.findClipboardCommand()
	if cmd == nil {
		// No clipboard tool found, just print
		_, err := io.WriteString(c.fallback, text)
		return err
	}
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

// findClipboardCommand returns the appropriate clipboard command for the system
func (c *systemClipboard) findClipboardCommand() *exec.Cmd {
	switch {
	case commandExists("wl-copy"):
		return exec.Command("wl-copy")
	case commandExists("xclip"):
		return exec.Command("xclip", "-selection", "clipboard")
	case commandExists("xsel"):
		return exec.Command("xsel", "--clipboard", "--input")
	case commandExists("pbcopy"):
		return exec.Command("pbcopy")
	default:
		return nil
	}
}

// commandExists checks if a command is available in PATH
func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// ============================================================================
// Sink
// ============================================================================

// Mode represents where rendered text goes
type Mode string

const (
	ModePrint Mode = "print"
	ModeCopy  Mode = "copy"
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePrint, "":
		return ModePrint, nil
	case ModeCopy:
		return ModeCopy, nil
	default:
		return "", fmt.Errorf("unknown output mode %q (supported: print, copy)", s)
	}
}

// Sink delivers rendered documents to stdout, the clipboard or a file
type Sink struct {
	stdout    io.Writer
	clipboard Clipboard
}

// NewSink creates a sink writing to stdout and the system clipboard
func NewSink() *Sink {
	return &Sink{
		stdout:    os.Stdout,
		clipboard: &systemClipboard{fallback: os.Stdout},
	}
}

// WithClipboard sets a custom clipboard implementation (useful for testing)
func (s *Sink) WithClipboard(c Clipboard) *Sink {
	s.clipboard = c
	return s
}

// WithStdout sets the writer used by print mode
func (s *Sink) WithStdout(w io.Writer) *Sink {
	s.stdout = w
	return s
}

// Output delivers text using the configured mode
func (s *Sink) Output(text string) error {
	mode, err := ParseMode(config.GetOutput())
	if err != nil {
		return err
	}
	return s.OutputWithMode(text, mode)
}

// OutputWithMode delivers text with an explicit mode
func (s *Sink) OutputWithMode(text string, mode Mode) error {
	switch mode {
	case ModeCopy:
		return s.clipboard.Copy(text)
	default: // print
		_, err := io.WriteString(s.stdout, text)
		return err
	}
}

// WriteFile replaces path with text. The file is written next to path and
// renamed over it so a reader never sees a partial document.
func WriteFile(path, text string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".surveymd-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.WriteString(tmp, text); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
