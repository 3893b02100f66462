// Package seat implements the judge's unified view of one player's I/O
// channel, polymorphic over a human at the terminal or a child-process
// bot.
package seat

import (
	"context"
	"fmt"

	"github.com/ehrlich-b/dixjudge/internal/wire"
)

// Seat is the shared capability set over the {Terminal, Subprocess} sum
// type: send a command, receive one reply line, or do both concurrently
// via Communicate (required so a child process whose stdout buffer fills
// up mid-reply can't deadlock a sequential send-then-await).
type Seat interface {
	fmt.Stringer

	Send(ctx context.Context, cmd wire.Command) error
	Receive(ctx context.Context) (string, error)
	Communicate(ctx context.Context, cmd wire.Command) (string, error)
	Close() error
}

// communicate is the shared concurrent send+receive used by both seat
// variants: start the send and the receive in parallel and wait for
// both, so a reply that arrives before the send finishes flushing is
// never missed.
func communicate(ctx context.Context, send func(context.Context) error, receive func(context.Context) (string, error)) (string, error) {
	type sendResult struct{ err error }
	sendDone := make(chan sendResult, 1)
	go func() {
		sendDone <- sendResult{err: send(ctx)}
	}()

	line, recvErr := receive(ctx)
	sr := <-sendDone
	if sr.err != nil {
		return "", sr.err
	}
	if recvErr != nil {
		return "", recvErr
	}
	return line, nil
}
