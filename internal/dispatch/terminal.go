package dispatch

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mdp/qrterminal/v3"
	"golang.org/x/term"
)

// Terminal renders a share card with a scannable QR code. It is the
// terminal counterpart of a native share sheet and is only available when
// the output is an interactive terminal.
type Terminal struct {
	out io.Writer
	tty bool
}

// NewTerminal returns a terminal transport writing to f.
func NewTerminal(f *os.File) *Terminal {
	return &Terminal{out: f, tty: term.IsTerminal(int(f.Fd()))}
}

func (t *Terminal) Method() Method  { return MethodShare }
func (t *Terminal) Available() bool { return t.tty }

// Send prints the title, text, link and QR code.
func (t *Terminal) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(t.out, "\n%s\n%s\n\n", m.Title, m.Text); err != nil {
		return err
	}
	qrterminal.GenerateHalfBlock(m.URL, qrterminal.L, t.out)
	_, err := fmt.Fprintf(t.out, "\n%s\n\n", m.URL)
	return err
}
