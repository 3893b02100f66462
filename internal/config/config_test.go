package config

import "testing"

func TestResolveSeatsCyclesShortList(t *testing.T) {
	out := ResolveSeats([]string{"/bots/a"}, nil)
	for i, s := range out {
		if s.Path != "/bots/a" {
			t.Errorf("seat %d = %q, want /bots/a (single bot cycles to all seats)", i, s.Path)
		}
	}
}

func TestResolveSeatsDefaultsToTerminal(t *testing.T) {
	out := ResolveSeats(nil, nil)
	for i, s := range out {
		if s.Path != "terminal" {
			t.Errorf("seat %d = %q, want terminal", i, s.Path)
		}
	}
}

func TestResolveBoxFlagsRequireBox(t *testing.T) {
	_, err := Resolve(Flags{BoxRoot: "/sandbox"})
	if err == nil {
		t.Fatal("expected error for --box-root without --box")
	}
}

func TestResolveBoxRequiresRoot(t *testing.T) {
	_, err := Resolve(Flags{Box: true})
	if err == nil {
		t.Fatal("expected error for --box without a root directory")
	}
}

func TestResolveDefaultCeilingIs400(t *testing.T) {
	run, err := Resolve(Flags{Seats: []string{"terminal"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.CeilingScore != 400 {
		t.Fatalf("CeilingScore = %d, want 400", run.CeilingScore)
	}
}

func TestResolveCeilingDisabled(t *testing.T) {
	run, err := Resolve(Flags{Seats: []string{"terminal"}, CeilingScore: -1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.CeilingScore != unlimitedCeiling {
		t.Fatalf("CeilingScore = %d, want unlimitedCeiling", run.CeilingScore)
	}
}

func TestResolveTerminalSeat(t *testing.T) {
	run, err := Resolve(Flags{Seats: []string{"terminal", "/bots/a"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !run.Terminal[0] {
		t.Error("seat 0 should be terminal")
	}
	if run.Terminal[1] {
		t.Error("seat 1 should not be terminal")
	}
	if run.SeatArgs[1][0] != "/bots/a" {
		t.Errorf("seat 1 args = %v, want [/bots/a]", run.SeatArgs[1])
	}
}
