package engine

import (
	"context"
	"math/rand"

	"github.com/ehrlich-b/dixjudge/internal/cards"
)

// Config parameterizes the full-game driver. MaxRounds and WinningScore
// of 0 mean "no limit" (the corresponding termination check is skipped).
//
// CeilingScore caps how many round points the non-declaring team banks
// once their cumulative score reaches it — the declaring team's points
// are never capped. A caller who wants the ungated variant can set it
// to a value no real game reaches (e.g. a very large int).
type Config struct {
	MaxRounds    int
	WinningScore int
	CeilingScore int
}

// DefaultCeilingScore is the standard 400-point non-declaring-team cap.
const DefaultCeilingScore = 400

// RoundObserver is notified after each round completes, letting the
// driver (internal/judge) log events without the engine depending on a
// logging package — keeps the engine's only dependency the table
// capability set.
type RoundObserver func(roundIndex, starter, bidWinner, bid int, roundScores, cumulative [2]int)

// Deal produces the four hands for one round. Implementations
// (cards.DealRandomHands bound to an RNG) may be swapped for scripted
// test hands.
type Deal func() [4]cards.Hand

// RunGame drives the full multi-round game starting from starter and
// returns the final cumulative team scores.
//
// The loop bound is round_index <= max_rounds: with MaxRounds=N the
// game plays N+1 rounds. This off-by-one is documented behavior, not a
// bug to be fixed here.
func RunGame(ctx context.Context, t table, deal Deal, starter int, cfg Config, observe RoundObserver) ([2]int, error) {
	var cumulative [2]int
	roundIndex := 0

	for {
		if cfg.MaxRounds > 0 && roundIndex > cfg.MaxRounds {
			break
		}
		if cfg.WinningScore > 0 && (cumulative[0] >= cfg.WinningScore || cumulative[1] >= cfg.WinningScore) {
			break
		}

		hands := deal()
		bidWinner, bid, err := RunBidding(ctx, t, starter)
		if err != nil {
			return cumulative, err
		}

		roundScores, err := RunRound(ctx, t, hands, bidWinner)
		if err != nil {
			return cumulative, err
		}

		cumulative = applyRoundResult(cumulative, bidWinner, bid, roundScores, cfg.CeilingScore)

		if observe != nil {
			observe(roundIndex, starter, bidWinner, bid, roundScores, cumulative)
		}

		starter = (starter + 1) % 4
		roundIndex++
	}

	return cumulative, nil
}

// applyRoundResult folds one round's result into the cumulative team
// scores: a 105 ("for the game") bid is all-or-nothing at 500 points;
// any other bid penalizes the declaring team on a failed set, or
// credits their round score on success; the non-declaring team's round
// points are added only while they remain below ceiling.
func applyRoundResult(cumulative [2]int, bidWinner, bid int, roundScores [2]int, ceiling int) [2]int {
	bidTeam := bidWinner % 2
	otherTeam := 1 - bidTeam

	switch {
	case bid == forTheGame:
		if roundScores[bidTeam] < 100 {
			cumulative[otherTeam] += 500
		} else {
			cumulative[bidTeam] += 500
		}
	case roundScores[bidTeam] < bid:
		cumulative[bidTeam] -= bid
		if cumulative[otherTeam] < ceiling {
			cumulative[otherTeam] += roundScores[otherTeam]
		}
	default:
		cumulative[bidTeam] += roundScores[bidTeam]
		if cumulative[otherTeam] < ceiling {
			cumulative[otherTeam] += roundScores[otherTeam]
		}
	}
	return cumulative
}

// RandomDeal returns a Deal bound to r, using cards.DealRandomHands'
// Fisher-Yates shuffle, so a given seed reproduces the same deals.
func RandomDeal(r *rand.Rand) Deal {
	return func() [4]cards.Hand { return cards.DealRandomHands(r) }
}
