// Package table implements the four-seat broadcast/fan-in layer the
// engine drives a round through.
package table

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ehrlich-b/dixjudge/internal/seat"
	"github.com/ehrlich-b/dixjudge/internal/wire"
)

// Table owns all four seats for the lifetime of a run. The driver holds
// a reference to it only for the duration of the game.
type Table struct {
	seats [4]seat.Seat
}

// New builds a Table from exactly four seats, indexed 0..3.
func New(seats [4]seat.Seat) *Table {
	return &Table{seats: seats}
}

func (t *Table) Seat(player int) seat.Seat { return t.seats[player] }

// Broadcast dispatches send(cmd) to all four seats concurrently,
// completing only once all four complete. No ordering is guaranteed
// across seats; each seat preserves the order of its own sends.
func (t *Table) Broadcast(ctx context.Context, cmd wire.Command) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range t.seats {
		s := s
		g.Go(func() error { return s.Send(ctx, cmd) })
	}
	return g.Wait()
}

// Send dispatches cmd to one seat.
func (t *Table) Send(ctx context.Context, player int, cmd wire.Command) error {
	return t.seats[player].Send(ctx, cmd)
}

// Receive awaits one reply line from one seat.
func (t *Table) Receive(ctx context.Context, player int) (string, error) {
	return t.seats[player].Receive(ctx)
}

// Communicate sends cmd to one seat and returns its single reply line.
func (t *Table) Communicate(ctx context.Context, player int, cmd wire.Command) (string, error) {
	return t.seats[player].Communicate(ctx, cmd)
}

// Close concurrently closes all four seats, awaiting all of them even if
// one fails, and returns the first error encountered.
func (t *Table) Close() error {
	g := new(errgroup.Group)
	for _, s := range t.seats {
		s := s
		g.Go(s.Close)
	}
	return g.Wait()
}

func (t *Table) String() string {
	return fmt.Sprintf("table[%s, %s, %s, %s]", t.seats[0], t.seats[1], t.seats[2], t.seats[3])
}
