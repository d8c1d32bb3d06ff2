package dispatch

import (
	"context"
	"fmt"
	"io"
)

// Writer prints the link on its own line. It is always available and is the
// last resort for headless use.
type Writer struct {
	W io.Writer
}

func (Writer) Method() Method  { return MethodPrint }
func (Writer) Available() bool { return true }

func (w Writer) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w.W, m.URL)
	return err
}
