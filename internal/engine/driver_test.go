package engine

import (
	"context"
	"math/rand"
	"testing"

	"github.com/ehrlich-b/dixjudge/internal/cards"
	"github.com/ehrlich-b/dixjudge/internal/wire"
)

// TestApplyRoundResultForTheGameSuccess covers the declaring team
// bidding 105 ("for the game") and clearing 100+ points, winning the
// full 500-point jackpot outright.
func TestApplyRoundResultForTheGameSuccess(t *testing.T) {
	cumulative := applyRoundResult([2]int{0, 0}, 0, forTheGame, [2]int{100, 0}, DefaultCeilingScore)
	if cumulative != [2]int{500, 0} {
		t.Fatalf("applyRoundResult() = %v, want {500, 0}", cumulative)
	}
}

// TestApplyRoundResultForTheGameFailure covers a 105 bid that falls
// short of 100 points, handing the full 500 to the other team instead.
func TestApplyRoundResultForTheGameFailure(t *testing.T) {
	cumulative := applyRoundResult([2]int{0, 0}, 0, forTheGame, [2]int{95, 5}, DefaultCeilingScore)
	if cumulative != [2]int{0, 500} {
		t.Fatalf("applyRoundResult() = %v, want {0, 500}", cumulative)
	}
}

// TestApplyRoundResultFailedSet covers the declaring team failing to
// make their bid and being set (penalized the full bid value), while
// the other team still banks their round points.
func TestApplyRoundResultFailedSet(t *testing.T) {
	cumulative := applyRoundResult([2]int{0, 0}, 1, 70, [2]int{60, 40}, DefaultCeilingScore)
	if cumulative != [2]int{60, -70} {
		t.Fatalf("applyRoundResult() = %v, want {60, -70}", cumulative)
	}
}

// TestApplyRoundResultMakesBid covers the ordinary successful-bid path:
// the declaring team clears their bid and banks their round score.
func TestApplyRoundResultMakesBid(t *testing.T) {
	cumulative := applyRoundResult([2]int{0, 0}, 0, 50, [2]int{60, 40}, DefaultCeilingScore)
	if cumulative != [2]int{60, 40} {
		t.Fatalf("applyRoundResult() = %v, want {60, 40}", cumulative)
	}
}

// TestApplyRoundResultCeilingGatesOtherTeam confirms the non-declaring
// team's round points stop accruing once they reach the ceiling
// (lowered here to 50 to exercise the gate without fabricating a
// multi-round sequence).
func TestApplyRoundResultCeilingGatesOtherTeam(t *testing.T) {
	cumulative := applyRoundResult([2]int{0, 50}, 0, 50, [2]int{60, 40}, 50)
	if cumulative != [2]int{60, 50} {
		t.Fatalf("applyRoundResult() = %v, want {60, 50} (other team gated at ceiling)", cumulative)
	}
}

// allPassTable answers every bid query with a pass (so bidding always
// forces a 50-point default on whichever player is left) and every card
// query with garbage (so the engine's silent substitution picks the
// minimum-force legal card) — it exercises RunGame's wiring and loop
// bound without scripting a specific ladder or trick sequence.
type allPassTable struct{}

func (allPassTable) Send(ctx context.Context, player int, cmd wire.Command) error { return nil }
func (allPassTable) Broadcast(ctx context.Context, cmd wire.Command) error        { return nil }
func (allPassTable) Communicate(ctx context.Context, player int, cmd wire.Command) (string, error) {
	switch cmd.(type) {
	case wire.QueryBid:
		return "0", nil
	default:
		return "??", nil
	}
}

// TestRunGameLoopBoundPlaysOneExtraRound confirms the documented
// off-by-one loop bound: with MaxRounds=N, RunGame plays N+1 rounds.
func TestRunGameLoopBoundPlaysOneExtraRound(t *testing.T) {
	deal := RandomDeal(rand.New(rand.NewSource(1)))

	rounds := 0
	observe := func(roundIndex, starter, bidWinner, bid int, roundScores, cumulative [2]int) {
		rounds++
	}

	cfg := Config{MaxRounds: 2, CeilingScore: DefaultCeilingScore}
	_, err := RunGame(context.Background(), allPassTable{}, deal, 0, cfg, observe)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rounds != 3 {
		t.Fatalf("RunGame() with MaxRounds=2 played %d rounds, want 3 (documented off-by-one)", rounds)
	}
}

// TestRunGameWinningScoreStopsPlay confirms the winning-score termination
// check: every round is forced to a default 50-point bid and played with
// default-substituted cards, and with no round limit the only way the
// loop ends is a team reaching WinningScore.
func TestRunGameWinningScoreStopsPlay(t *testing.T) {
	deal := RandomDeal(rand.New(rand.NewSource(2)))

	var finalCumulative [2]int
	observe := func(roundIndex, starter, bidWinner, bid int, roundScores, cumulative [2]int) {
		finalCumulative = cumulative
	}

	cfg := Config{WinningScore: 60, CeilingScore: DefaultCeilingScore}
	cumulative, err := RunGame(context.Background(), allPassTable{}, deal, 0, cfg, observe)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cumulative != finalCumulative {
		t.Fatalf("RunGame() returned %v, last observed %v", cumulative, finalCumulative)
	}
	if cumulative[0] < 60 && cumulative[1] < 60 {
		t.Fatalf("RunGame() stopped at %v before either team reached WinningScore 60", cumulative)
	}
}

// TestRandomDealProducesFullHands sanity-checks the Deal adapter used by
// the two tests above: four ten-card hands partitioning the deck.
func TestRandomDealProducesFullHands(t *testing.T) {
	deal := RandomDeal(rand.New(rand.NewSource(3)))
	hands := deal()
	seen := make(map[cards.Card]bool)
	for _, h := range hands {
		if len(h) != 10 {
			t.Fatalf("hand has %d cards, want 10", len(h))
		}
		for c := range h {
			if seen[c] {
				t.Fatalf("card %v dealt twice", c)
			}
			seen[c] = true
		}
	}
	if len(seen) != 40 {
		t.Fatalf("dealt %d distinct cards, want 40", len(seen))
	}
}
