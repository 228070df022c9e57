package picker

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// minWidth is the narrowest terminal the picker renders in.
const minWidth = 20

// ErrNoTerminal is returned when the picker cannot run interactively.
var ErrNoTerminal = errors.New("no usable terminal")

// CheckTerminal verifies that /dev/tty is usable for the picker.
func CheckTerminal() error {
	if os.Getenv("TERM") == "dumb" {
		return fmt.Errorf("%w: TERM=dumb is not supported", ErrNoTerminal)
	}
	tty, err := os.Open("/dev/tty")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoTerminal, err)
	}
	defer tty.Close()

	w, _, err := term.GetSize(int(tty.Fd()))
	if err != nil {
		return fmt.Errorf("%w: cannot get terminal size: %v", ErrNoTerminal, err)
	}
	if w < minWidth {
		return fmt.Errorf("%w: terminal too narrow (%d columns, need at least %d)", ErrNoTerminal, w, minWidth)
	}
	return nil
}

// Run shows the picker on /dev/tty, leaving stdin and stdout free for data,
// and returns the final model.
func Run(m Model) (Model, error) {
	if err := CheckTerminal(); err != nil {
		return m, err
	}

	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return m, fmt.Errorf("%w: %v", ErrNoTerminal, err)
	}
	defer tty.Close()

	// When invoked via $(cmdbook pick), stdout is a pipe so lipgloss would
	// default to no color. Detect from the real tty instead.
	lipgloss.SetColorProfile(termenv.NewOutput(tty).ColorProfile())

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithInput(tty),
		tea.WithOutput(tty),
	)
	final, err := p.Run()
	if err != nil {
		return m, fmt.Errorf("picker: %w", err)
	}
	out, ok := final.(Model)
	if !ok {
		return m, errors.New("picker: unexpected model type")
	}
	return out, nil
}
