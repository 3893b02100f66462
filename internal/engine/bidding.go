// Package engine implements the bidding ladder, trick-play, and
// multi-round scoring state machines for a game of Dix. It is
// parametric only over the table.Table capability set, so it is
// deterministic and trivially testable against scripted seats.
package engine

import (
	"context"

	"github.com/ehrlich-b/dixjudge/internal/wire"
)

// table is the narrow capability engine needs from *table.Table, kept as
// an interface so tests can drive the state machines with in-memory
// stubs instead of real seats.
type table interface {
	Send(ctx context.Context, player int, cmd wire.Command) error
	Broadcast(ctx context.Context, cmd wire.Command) error
	Communicate(ctx context.Context, player int, cmd wire.Command) (string, error)
}

const (
	minBid     = 50
	maxBid     = 105
	bidStep    = 5
	forTheGame = 105
	defaultBid = 50
)

// RunBidding drives the bidding ladder starting from player starter and
// returns the winning player and their accepted bid.
func RunBidding(ctx context.Context, t table, starter int) (winner, bid int, err error) {
	active := [4]bool{true, true, true, true}
	pendingBid := [4]int{}
	numActive := 4
	bidder := starter
	min := minBid

	for numActive > 1 {
		line, commErr := t.Communicate(ctx, bidder, wire.QueryBid{})
		if commErr != nil {
			return 0, 0, commErr
		}
		v, ok := wire.ParseBidReply(line)

		if ok && v != 0 && v%bidStep == 0 && v >= min && v <= maxBid {
			pendingBid[bidder] = v
			min = v + bidStep
			if err := t.Broadcast(ctx, wire.ReplyBid{Player: bidder, Bid: v}); err != nil {
				return 0, 0, err
			}
		} else {
			if err := t.Broadcast(ctx, wire.ReplyBid{Player: bidder, Bid: 0}); err != nil {
				return 0, 0, err
			}
			active[bidder] = false
			numActive--
		}

		bidder = nextActive(bidder, active)
	}

	winner = lastActive(active)
	bid = pendingBid[winner]
	if bid == 0 {
		bid = defaultBid
		if err := t.Broadcast(ctx, wire.ReplyBid{Player: winner, Bid: defaultBid}); err != nil {
			return 0, 0, err
		}
	}
	return winner, bid, nil
}

func nextActive(from int, active [4]bool) int {
	for i := 1; i <= 4; i++ {
		p := (from + i) % 4
		if active[p] {
			return p
		}
	}
	return from
}

func lastActive(active [4]bool) int {
	for p, a := range active {
		if a {
			return p
		}
	}
	return -1
}
