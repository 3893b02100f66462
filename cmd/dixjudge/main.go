// Command dixjudge referees one game of Dix between up to four seats,
// each a human at the terminal or a subprocess bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ehrlich-b/dixjudge/internal/box"
	"github.com/ehrlich-b/dixjudge/internal/config"
	"github.com/ehrlich-b/dixjudge/internal/history"
	"github.com/ehrlich-b/dixjudge/internal/judge"
	"github.com/ehrlich-b/dixjudge/internal/logger"
	"github.com/ehrlich-b/dixjudge/internal/table"
)

func main() {
	// The re-exec wrapper subcommand runs before cobra ever sees argv:
	// it's how Spawn gets mount/pivot_root setup to run as the namespaced
	// child's first instruction.
	if box.IsInitInvocation(os.Args) {
		if err := box.RunInit(os.Args); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f config.Flags
	var seedFlag int64

	root := &cobra.Command{
		Use:   "dixjudge",
		Short: "Referee a game of Dix between bots and/or a human at the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if seedFlag != 0 {
				f.Seed = uint64(seedFlag)
				f.SeedSet = true
			}
			return runGame(cmd.Context(), f)
		},
	}

	root.Flags().Int64Var(&seedFlag, "seed", 0, "Deterministic RNG seed (random if unset)")
	root.Flags().IntVar(&f.MaxRounds, "max-rounds", 0, "Stop after this many rounds (0 = unlimited; plays max-rounds+1 rounds)")
	root.Flags().IntVar(&f.WinningScore, "winning-score", 0, "Stop once a team reaches this cumulative score (0 = unlimited)")
	root.Flags().IntVar(&f.CeilingScore, "ceiling-score", 0, "Non-declaring-team round-point cap (0 = default 400, -1 = disabled)")
	root.Flags().StringArrayVarP(&f.Seats, "seat", "s", nil, "Seat program: \"terminal\" or a bot path (repeatable; cycles if fewer than 4)")
	root.Flags().StringVar(&f.ConfigPath, "config", "", "Load a YAML table config (CLI flags override it field-by-field)")
	root.Flags().BoolVar(&f.Box, "box", false, "Sandbox subprocess seats in a Linux namespace jail")
	root.Flags().StringVar(&f.BoxRoot, "box-root", "", "Sandbox root directory (requires --box)")
	root.Flags().Int64Var(&f.BoxTasks, "box-tasks-limit", 0, "Sandbox pids.max (requires --box)")
	root.Flags().Int64Var(&f.BoxRAM, "box-ram-limit", 0, "Sandbox memory.max in bytes (requires --box)")
	root.Flags().Int64Var(&f.BoxSwap, "box-swap-limit", 0, "Sandbox memory.swap.max in bytes (requires --box)")
	root.Flags().StringVar(&f.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	root.Flags().StringVar(&f.LogFile, "log-file", "", "Additionally write logs to this file")
	root.Flags().StringVar(&f.HistoryDB, "history-db", "", "Append-only sqlite match-history path (disabled if unset)")

	return root
}

func runGame(ctx context.Context, f config.Flags) error {
	run, err := config.Resolve(f)
	if err != nil {
		return err
	}

	if err := logger.Init(run.LogLevel, run.LogFile); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	var hist *history.Store
	if run.HistoryDB != "" {
		hist, err = history.Open(run.HistoryDB)
		if err != nil {
			return err
		}
		defer hist.Close()
	}

	jcfg := judge.Config{
		Seed:         run.Seed,
		SeedSet:      f.SeedSet,
		Box:          run.Box,
		MaxRounds:    run.MaxRounds,
		WinningScore: run.WinningScore,
		CeilingScore: run.CeilingScore,
		History:      hist,
	}
	for i := range run.SeatArgs {
		if run.Terminal[i] {
			jcfg.Seats[i] = judge.SeatConfig{Terminal: true}
			continue
		}
		args := run.SeatArgs[i]
		jcfg.Seats[i] = judge.SeatConfig{Path: args[0], Args: args[1:]}
	}

	seed, err := judge.ResolveSeed(jcfg)
	if err != nil {
		return err
	}
	jcfg.Seed = seed

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	seats, err := judge.BuildSeats(ctx, jcfg)
	if err != nil {
		return err
	}
	tbl := table.New(seats)
	defer tbl.Close()

	cumulative, err := judge.Run(ctx, tbl, seed, jcfg)
	if err != nil {
		return err
	}

	fmt.Printf("final scores: team 0 = %d, team 1 = %d\n", cumulative[0], cumulative[1])
	return nil
}
