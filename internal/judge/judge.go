// Package judge composes the sandbox, seat, table, and engine packages
// into the full driver: it builds the four seats, deals each round,
// drives the engine, and narrates events to the structured logger (and,
// optionally, the append-only history store).
package judge

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	mathrand "math/rand"
	"os"

	"github.com/ehrlich-b/dixjudge/internal/box"
	"github.com/ehrlich-b/dixjudge/internal/cards"
	"github.com/ehrlich-b/dixjudge/internal/engine"
	"github.com/ehrlich-b/dixjudge/internal/history"
	"github.com/ehrlich-b/dixjudge/internal/logger"
	"github.com/ehrlich-b/dixjudge/internal/seat"
	"github.com/ehrlich-b/dixjudge/internal/table"
	"github.com/ehrlich-b/dixjudge/internal/wire"
)

// SeatConfig describes how to build one seat: either a terminal, or a
// subprocess bot optionally run inside a sandbox. When Terminal is
// false, Path names the bot's directory (sandboxed) or program (unboxed)
// and Args are passed through unchanged. Entrypoint is consulted only
// when a sandbox is active, naming the program to exec relative to the
// mounted bot directory ("/bot" by default).
type SeatConfig struct {
	Terminal   bool
	Path       string
	Entrypoint string
	Args       []string
}

// Config parameterizes one judge run.
type Config struct {
	Seed         uint64
	SeedSet      bool
	Seats        [4]SeatConfig
	Box          *box.Config
	MaxRounds    int
	WinningScore int
	CeilingScore int
	History      *history.Store // nil disables match-history logging
}

// ResolveSeed returns cfg.Seed if explicitly set, else fills one from OS
// entropy, so an unattended run still gets a reproducible, logged seed.
func ResolveSeed(cfg Config) (uint64, error) {
	if cfg.SeedSet {
		return cfg.Seed, nil
	}
	max := new(big.Int).Lsh(big.NewInt(1), 64)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return 0, fmt.Errorf("judge: generate random seed: %w", err)
	}
	buf := n.Bytes()
	var padded [8]byte
	copy(padded[8-len(buf):], buf)
	return binary.BigEndian.Uint64(padded[:]), nil
}

// BuildSeats constructs the four Seat implementations from cfg, spawning
// subprocess bots (sandboxed when cfg.Box is set) or terminal seats for
// humans. On error, any seats already constructed are closed before
// returning.
func BuildSeats(ctx context.Context, cfg Config) ([4]seat.Seat, error) {
	var seats [4]seat.Seat
	var built []seat.Seat

	closeBuilt := func() {
		for _, s := range built {
			s.Close()
		}
	}

	for i, sc := range cfg.Seats {
		var s seat.Seat
		var err error
		switch {
		case sc.Terminal:
			s = seat.NewTerminal(i, os.Stdin, os.Stdout)
		case cfg.Box != nil:
			entrypoint := sc.Entrypoint
			if entrypoint == "" {
				entrypoint = "run"
			}
			s, err = seat.NewSandboxed(ctx, i, sc.Path, entrypoint, *cfg.Box, sc.Args...)
		default:
			s, err = seat.NewUnboxed(ctx, i, append([]string{sc.Path}, sc.Args...))
		}
		if err != nil {
			closeBuilt()
			return seats, fmt.Errorf("judge: build seat %d: %w", i, err)
		}
		logger.Seat(i).Info("seat ready", "description", s.String())
		seats[i] = s
		built = append(built, s)
	}
	return seats, nil
}

// Run drives a full game: deals each round, runs bidding and trick play
// via the engine, narrates events to the structured logger, records
// completed rounds to the optional history store, and returns the final
// cumulative team scores.
func Run(ctx context.Context, t *table.Table, seed uint64, cfg Config) ([2]int, error) {
	logger.Log.Info("game starting", "seed", seed)

	r := mathrand.New(mathrand.NewSource(int64(seed)))
	deal := engine.RandomDeal(r)

	gameCfg := engine.Config{
		MaxRounds:    cfg.MaxRounds,
		WinningScore: cfg.WinningScore,
		CeilingScore: cfg.CeilingScore,
	}

	observe := func(roundIndex, starter, bidWinner, bid int, roundScores, cumulative [2]int) {
		logger.Log.Info("round complete",
			"round", roundIndex, "starter", starter, "bid_winner", bidWinner, "bid", bid,
			"round_scores", roundScores, "cumulative", cumulative)
		if cfg.History != nil {
			if err := cfg.History.RecordRound(history.RoundResult{
				Seed: seed, RoundIndex: roundIndex, Starter: starter, BidWinner: bidWinner,
				Bid: bid, RoundScores: roundScores, Cumulative: cumulative,
			}); err != nil {
				logger.Log.Warn("history record failed", "error", err)
			}
		}
	}

	dealAndAnnounce := func() [4]cards.Hand {
		hands := deal()
		for p, h := range hands {
			if err := t.Send(ctx, p, wire.Hand{Hand: h}); err != nil {
				logger.Seat(p).Warn("failed to announce hand", "error", err)
			}
		}
		return hands
	}

	cumulative, err := engine.RunGame(ctx, t, dealAndAnnounce, 0, gameCfg, observe)
	if err != nil {
		return cumulative, fmt.Errorf("judge: run game: %w", err)
	}

	if err := t.Broadcast(ctx, wire.End{}); err != nil {
		logger.Log.Warn("failed to broadcast end", "error", err)
	}

	logger.Log.Info("game complete", "cumulative", cumulative)
	return cumulative, nil
}
