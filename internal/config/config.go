// Package config resolves the judge's run parameters from CLI flags
// layered over an optional YAML table file: flags override file values
// field-by-field.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ehrlich-b/dixjudge/internal/box"
)

// SeatSpec names one seat's program: "terminal" for an interactive human,
// otherwise a path to a bot executable (or to the bot's directory when Box
// is set).
type SeatSpec struct {
	Path string   `yaml:"path"`
	Args []string `yaml:"args,omitempty"`
}

// BoxSettings mirrors box.Config in a YAML/flag-friendly shape. These
// settings apply only when --box is given; --box with no Root (from the
// flag or the file) is a configuration error.
type BoxSettings struct {
	Root       string `yaml:"root,omitempty"`
	TasksLimit int64  `yaml:"tasks_limit,omitempty"`
	RAMLimit   int64  `yaml:"ram_limit,omitempty"`
	SwapLimit  int64  `yaml:"swap_limit,omitempty"`
}

// TableConfig is the optional file loaded via --config, letting an
// operator check a reusable table layout into version control instead of
// repeating -s flags every run.
type TableConfig struct {
	Seats        []SeatSpec  `yaml:"seats,omitempty"`
	Box          BoxSettings `yaml:"box,omitempty"`
	MaxRounds    int         `yaml:"max_rounds,omitempty"`
	WinningScore int         `yaml:"winning_score,omitempty"`
	CeilingScore int         `yaml:"ceiling_score,omitempty"`
}

// LoadTableConfig reads and parses a TableConfig from path.
func LoadTableConfig(path string) (*TableConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg TableConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Run is the fully-resolved set of parameters main() hands to the judge,
// after merging CLI flags over an optional file and validating
// cross-field constraints (any --box-* flag without --box is a
// configuration error).
type Run struct {
	Seed         uint64
	MaxRounds    int
	WinningScore int
	CeilingScore int
	SeatArgs     [4][]string // resolved per-seat program + args; "terminal" seats carry nil
	Terminal     [4]bool
	Box          *box.Config // nil disables sandboxing
	LogLevel     string
	LogFile      string
	HistoryDB    string
}

// Flags is the raw, unmerged CLI input; Resolve layers it over an
// optional file-loaded TableConfig.
type Flags struct {
	Seed         uint64
	SeedSet      bool
	MaxRounds    int
	WinningScore int
	CeilingScore int
	Seats        []string // repeatable -s/--seat values, "terminal" or a path (+ args)
	ConfigPath   string
	Box          bool
	BoxRoot      string
	BoxTasks     int64
	BoxRAM       int64
	BoxSwap      int64
	LogLevel     string
	LogFile      string
	HistoryDB    string
}

// Resolve merges f over an optional file at f.ConfigPath and validates
// the result: flags win field-by-field over the file, and any --box-*
// flag without --box is rejected as a configuration error.
func Resolve(f Flags) (*Run, error) {
	var file TableConfig
	if f.ConfigPath != "" {
		loaded, err := LoadTableConfig(f.ConfigPath)
		if err != nil {
			return nil, err
		}
		file = *loaded
	}

	if !f.Box && (f.BoxRoot != "" || f.BoxTasks != 0 || f.BoxRAM != 0 || f.BoxSwap != 0) {
		return nil, fmt.Errorf("config: --box-* flags require --box")
	}

	run := &Run{
		Seed:         f.Seed,
		MaxRounds:    firstNonZeroInt(f.MaxRounds, file.MaxRounds),
		WinningScore: firstNonZeroInt(f.WinningScore, file.WinningScore),
		CeilingScore: resolveCeiling(f.CeilingScore, file.CeilingScore),
		LogLevel:     firstNonEmpty(f.LogLevel, "info"),
		LogFile:      f.LogFile,
		HistoryDB:    f.HistoryDB,
	}

	seatSpecs := ResolveSeats(f.Seats, file.Seats)
	for i, s := range seatSpecs {
		if s.Path == "terminal" {
			run.Terminal[i] = true
			continue
		}
		run.SeatArgs[i] = append([]string{s.Path}, s.Args...)
	}

	if f.Box {
		root := firstNonEmpty(f.BoxRoot, file.Box.Root)
		if root == "" {
			return nil, fmt.Errorf("config: --box requires a root directory")
		}
		run.Box = &box.Config{
			Root:       root,
			TasksLimit: firstNonZeroInt64(f.BoxTasks, file.Box.TasksLimit, -1),
			RAMLimit:   firstNonZeroInt64(f.BoxRAM, file.Box.RAMLimit, -1),
			SwapLimit:  firstNonZeroInt64(f.BoxSwap, file.Box.SwapLimit, -1),
		}
	}

	return run, nil
}

// ResolveSeats fills four seat slots from however many were given on the
// CLI (overriding the file's list entirely, matching Resolve's
// flag-wins-wholesale precedence for list fields), cycling short lists so
// e.g. one bot path can play all four seats.
func ResolveSeats(cliSeats []string, fileSeats []SeatSpec) [4]SeatSpec {
	var specs []SeatSpec
	switch {
	case len(cliSeats) > 0:
		for _, s := range cliSeats {
			specs = append(specs, SeatSpec{Path: s})
		}
	case len(fileSeats) > 0:
		specs = fileSeats
	default:
		specs = []SeatSpec{{Path: "terminal"}}
	}

	var out [4]SeatSpec
	for i := range out {
		out[i] = specs[i%len(specs)]
	}
	return out
}

// unlimitedCeiling stands in for "no cap" — engine.applyRoundResult
// compares the other team's cumulative score against this threshold, so
// disabling the gate means passing a value no real game can reach.
const unlimitedCeiling = 1 << 30

// resolveCeiling applies the non-declaring-team point ceiling's default
// of 400 unless the operator passed -1 to disable the gate entirely.
// -1 rather than 0 is the disable sentinel so it doesn't collide with
// "flag not set".
func resolveCeiling(cli, file int) int {
	switch {
	case cli < 0, file < 0 && cli == 0:
		return unlimitedCeiling
	case cli != 0:
		return cli
	case file != 0:
		return file
	default:
		return 400
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZeroInt(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstNonZeroInt64(vals ...int64) int64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
