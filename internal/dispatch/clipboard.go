package dispatch

import (
	"context"

	"github.com/atotto/clipboard"
)

// Clipboard copies the link to the system clipboard.
type Clipboard struct{}

func (Clipboard) Method() Method  { return MethodClipboard }
func (Clipboard) Available() bool { return !clipboard.Unsupported }

// Send writes the link only; title and text are dropped.
func (Clipboard) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return clipboard.WriteAll(m.URL)
}
