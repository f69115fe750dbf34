package ui

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gubarz/surveymd/internal/overlay"
	"github.com/gubarz/surveymd/internal/survey"
)

// getTTY returns file handles for TUI input/output
// Uses /dev/tty to bypass shell pipes and command substitution
func getTTY() (in *os.File, out *os.File, cleanup func()) {
	var closers []func()

	// If stdout is piped or captured by $(), draw on /dev/tty instead
	if fileInfo, _ := os.Stdout.Stat(); (fileInfo.Mode() & os.ModeCharDevice) == 0 {
		out, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
		if err != nil {
			out = os.Stderr // Last resort fallback
		} else {
			closers = append(closers, func() { out.Close() })
		}

		in, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
		if err != nil {
			in = os.Stdin
		} else {
			closers = append(closers, func() { in.Close() })
		}

		// Tell lipgloss to use the TTY for color detection
		lipgloss.SetDefaultRenderer(lipgloss.NewRenderer(out))

		return in, out, func() {
			for _, c := range closers {
				c()
			}
		}
	}

	return os.Stdin, os.Stdout, func() {}
}

// Run opens the overlay editor on a working copy of ov. It returns the
// edited overlay and true when the user saved, or ov and false on cancel.
func Run(doc *survey.Document, ov *overlay.Overlay) (*overlay.Overlay, bool, error) {
	working, err := overlay.FromIncluded(doc, ov.Included())
	if err != nil {
		return ov, false, err
	}

	m := newSelectModel(doc, working)

	ttyIn, ttyOut, cleanup := getTTY()
	RefreshStyles() // Refresh after getTTY sets up the renderer
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithOutput(ttyOut), tea.WithInput(ttyIn))
	finalModel, err := p.Run()
	cleanup()

	if err != nil {
		return ov, false, err
	}

	result := finalModel.(selectModel)
	if !result.saved {
		return ov, false, nil
	}
	return result.overlay, true, nil
}
