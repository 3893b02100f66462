//go:build linux

package box

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"
)

func TestWireConfigRoundTrip(t *testing.T) {
	cfg := wireConfig{
		Root: "/tmp/box-root",
		Mounts: []Mount{
			{Destination: "/bot", Source: "/srv/bots/1", Options: []string{OptBind, OptRO}},
		},
		Cwd:  "/bot",
		Args: []string{"/bot/run.sh", "--seat", "0"},
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got wireConfig
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Root != cfg.Root || got.Cwd != cfg.Cwd || len(got.Args) != len(cfg.Args) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, cfg)
	}
	if len(got.Mounts) != 1 || got.Mounts[0].Destination != "/bot" {
		t.Fatalf("mounts did not round-trip: %+v", got.Mounts)
	}
}

func TestIsInitInvocation(t *testing.T) {
	if IsInitInvocation([]string{"dixjudge"}) {
		t.Error("single-arg argv should not be an init invocation")
	}
	if !IsInitInvocation([]string{"dixjudge", initCommand, "{}"}) {
		t.Error("expected argv naming the init subcommand to be recognized")
	}
	if IsInitInvocation([]string{"dixjudge", "run"}) {
		t.Error("unrelated subcommand should not be recognized as init invocation")
	}
}

func TestApplyMountBindReadOnly(t *testing.T) {
	if os.Getuid() != 0 {
		t.Skip("bind mounts require root or a user namespace with CAP_SYS_ADMIN")
	}
	root := t.TempDir()
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "marker"), []byte("x"), 0644); err != nil {
		t.Fatalf("seed source dir: %v", err)
	}

	m := Mount{Destination: "/data", Source: src, Options: []string{OptBind, OptRO}}
	if err := applyMount(root, m); err != nil {
		t.Fatalf("applyMount: %v", err)
	}
	defer unix.Unmount(filepath.Join(root, "data"), unix.MNT_DETACH)

	if _, err := os.Stat(filepath.Join(root, "data", "marker")); err != nil {
		t.Errorf("expected marker file visible through bind mount: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "data", "marker"), []byte("y"), 0644); err == nil {
		t.Error("expected write to read-only bind mount to fail")
	}
}

func TestResolveChildBinaryAbsolutePassesThrough(t *testing.T) {
	got, err := resolveChildBinary("/usr/bin/true")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/usr/bin/true" {
		t.Errorf("got %q, want /usr/bin/true", got)
	}
}

func TestResolveChildBinaryNotFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	if _, err := resolveChildBinary("definitely-not-a-real-binary"); err == nil {
		t.Error("expected error when binary is absent from PATH")
	}
}
