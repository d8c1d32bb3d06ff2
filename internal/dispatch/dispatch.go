// Package dispatch moves a finished share link off the device: a terminal
// share card with a QR code, the system clipboard, or a plain writer.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/meltforce/wodlink/internal/share"
)

// Message is what a share interaction presents to the user.
type Message struct {
	Title string
	Text  string
	URL   string
}

// Method names the transport that delivered a message.
type Method string

// Transports.
const (
	MethodShare     Method = "share"
	MethodClipboard Method = "clipboard"
	MethodPrint     Method = "print"
)

// Transport is one way of delivering a message.
type Transport interface {
	Method() Method
	// Available reports whether the transport can be used in this process.
	Available() bool
	Send(ctx context.Context, m Message) error
}

// Auto delivers through the first available transport, in order. The choice
// depends only on capability, never on the message.
type Auto struct {
	transports []Transport
}

// NewAuto returns a dispatcher over the given transports in preference order.
func NewAuto(transports ...Transport) *Auto {
	return &Auto{transports: transports}
}

// Pick returns the transport that would be used.
func (a *Auto) Pick() (Transport, bool) {
	for _, t := range a.transports {
		if t.Available() {
			return t, true
		}
	}
	return nil, false
}

// Dispatch sends m through the first available transport. Cancellation of
// ctx maps to share.ErrDispatchAborted; any other failure is wrapped in a
// *share.DispatchError.
func (a *Auto) Dispatch(ctx context.Context, m Message) (Method, error) {
	t, ok := a.Pick()
	if !ok {
		return "", &share.DispatchError{Method: "none", Err: errors.New("no transport available")}
	}
	if err := ctx.Err(); err != nil {
		return t.Method(), classify(t.Method(), err)
	}
	if err := t.Send(ctx, m); err != nil {
		return t.Method(), classify(t.Method(), err)
	}
	return t.Method(), nil
}

func classify(method Method, err error) error {
	switch {
	case errors.Is(err, share.ErrDispatchAborted):
		return err
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", share.ErrDispatchAborted, err)
	case errors.Is(err, share.ErrDispatchFailed):
		return err
	default:
		return &share.DispatchError{Method: string(method), Err: err}
	}
}
