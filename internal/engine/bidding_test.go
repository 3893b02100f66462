package engine

import (
	"context"
	"strconv"
	"testing"

	"github.com/ehrlich-b/dixjudge/internal/wire"
)

// scriptedTable answers Communicate with the next queued reply for the
// addressed player, in order, and records every broadcast it sees. It
// implements the engine's table interface without any real seat/process
// machinery.
type scriptedTable struct {
	replies    [4][]string
	next       [4]int
	broadcasts []wire.Command
}

func (s *scriptedTable) Send(ctx context.Context, player int, cmd wire.Command) error { return nil }

func (s *scriptedTable) Broadcast(ctx context.Context, cmd wire.Command) error {
	s.broadcasts = append(s.broadcasts, cmd)
	return nil
}

func (s *scriptedTable) Communicate(ctx context.Context, player int, cmd wire.Command) (string, error) {
	i := s.next[player]
	s.next[player]++
	return s.replies[player][i], nil
}

func bidReplies(vals ...int) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strconv.Itoa(v)
	}
	return out
}

// TestFullBidLadder exercises bids climbing the full ladder in
// rotation, then three passes forcing a close with the last bidder
// declaring at 105.
func TestFullBidLadder(t *testing.T) {
	st := &scriptedTable{
		replies: [4][]string{
			bidReplies(50, 70, 90, 0),
			bidReplies(55, 75, 95, 0),
			bidReplies(60, 80, 100, 0),
			bidReplies(65, 85, 105),
		},
	}
	winner, bid, err := RunBidding(context.Background(), st, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if winner != 3 || bid != 105 {
		t.Fatalf("RunBidding() = (%d, %d), want (3, 105)", winner, bid)
	}
}

// TestMixedPassForcesDefault ports scenario 2: three passes in rotation
// leave a single bidder who never named a value, forced to 50.
func TestMixedPassForcesDefault(t *testing.T) {
	st := &scriptedTable{
		replies: [4][]string{
			bidReplies(0),
			bidReplies(0),
			bidReplies(0),
			{}, // player 3 is never queried once only one bidder remains
		},
	}
	winner, bid, err := RunBidding(context.Background(), st, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if winner != 3 || bid != 50 {
		t.Fatalf("RunBidding() = (%d, %d), want (3, 50)", winner, bid)
	}
	found := false
	for _, b := range st.broadcasts {
		if rb, ok := b.(wire.ReplyBid); ok && rb.Player == 3 && rb.Bid == 50 {
			found = true
		}
	}
	if !found {
		t.Error("expected a forced-default reply_bid(3, 50) broadcast")
	}
}

func TestBidAtMinimumIsAccepted(t *testing.T) {
	st := &scriptedTable{
		replies: [4][]string{
			bidReplies(50),
			bidReplies(0),
			bidReplies(0),
			bidReplies(0),
		},
	}
	winner, bid, err := RunBidding(context.Background(), st, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if winner != 0 || bid != 50 {
		t.Fatalf("RunBidding() = (%d, %d), want (0, 50)", winner, bid)
	}
}

func TestBidBelowCurrentMinimumIsPass(t *testing.T) {
	// Player 1 bids 55, raising the floor to 60; player 2 then tries 50,
	// below the floor, which must be treated as a pass.
	st := &scriptedTable{
		replies: [4][]string{
			bidReplies(0),
			bidReplies(55),
			bidReplies(50),
			bidReplies(0),
		},
	}
	winner, bid, err := RunBidding(context.Background(), st, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if winner != 1 || bid != 55 {
		t.Fatalf("RunBidding() = (%d, %d), want (1, 55)", winner, bid)
	}
}

func TestNonMultipleOfFiveIsPass(t *testing.T) {
	st := &scriptedTable{
		replies: [4][]string{
			bidReplies(53),
			bidReplies(0),
			bidReplies(0),
			{},
		},
	}
	winner, bid, err := RunBidding(context.Background(), st, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if winner != 3 || bid != 50 {
		t.Fatalf("RunBidding() = (%d, %d), want (3, 50)", winner, bid)
	}
}

func TestBidAboveCeilingIsPass(t *testing.T) {
	st := &scriptedTable{
		replies: [4][]string{
			bidReplies(110),
			bidReplies(0),
			bidReplies(0),
			{},
		},
	}
	winner, bid, err := RunBidding(context.Background(), st, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if winner != 3 || bid != 50 {
		t.Fatalf("RunBidding() = (%d, %d), want (3, 50)", winner, bid)
	}
}
