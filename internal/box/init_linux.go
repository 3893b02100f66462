//go:build linux

package box

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"golang.org/x/sys/unix"
)

// IsInitInvocation reports whether argv names the hidden re-exec wrapper
// subcommand, so cmd/dixjudge's main can dispatch to RunInit before cobra
// ever sees the argument list.
func IsInitInvocation(args []string) bool {
	return len(args) > 1 && args[1] == initCommand
}

// RunInit performs the mount and pivot_root dance and then execve's the
// real child, never returning on success. It runs as the namespaced
// child's first instruction — PID 1 of the new PID namespace — with
// CAP_SYS_ADMIN against its own mount namespace by virtue of the
// accompanying user-namespace UID mapping to root.
func RunInit(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("box: %s requires exactly one config argument", initCommand)
	}

	var cfg wireConfig
	if err := json.Unmarshal([]byte(args[2]), &cfg); err != nil {
		return fmt.Errorf("box: decode wrapper config: %w", err)
	}
	if len(cfg.Args) == 0 {
		return fmt.Errorf("box: wrapper config names no child program")
	}

	if err := setupMounts(cfg); err != nil {
		return err
	}

	if cfg.Cwd != "" {
		if err := unix.Chdir(cfg.Cwd); err != nil {
			return &SyscallError{Op: "chdir " + cfg.Cwd, Err: err}
		}
	}

	bin, err := resolveChildBinary(cfg.Args[0])
	if err != nil {
		return err
	}

	if err := syscall.Exec(bin, cfg.Args, []string{}); err != nil {
		return &SyscallError{Op: "execve " + bin, Err: err}
	}
	panic("unreachable: execve returned without error")
}

// setupMounts bind-mounts the new root onto itself (required before
// pivot_root will accept it), layers the operator's configured mounts on
// top, pivots into it, and detaches the old root.
func setupMounts(cfg wireConfig) error {
	if err := unix.Mount(cfg.Root, cfg.Root, "", unix.MS_BIND|unix.MS_REC, ""); err != nil {
		return &SyscallError{Op: "bind-mount root onto itself", Err: err}
	}

	for _, m := range cfg.Mounts {
		if err := applyMount(cfg.Root, m); err != nil {
			return err
		}
	}

	oldRootRel := ".old_root"
	oldRootAbs := filepath.Join(cfg.Root, oldRootRel)
	if err := os.MkdirAll(oldRootAbs, 0700); err != nil {
		return &SyscallError{Op: "mkdir old-root holder", Err: err}
	}

	if err := unix.PivotRoot(cfg.Root, oldRootAbs); err != nil {
		return &SyscallError{Op: "pivot_root", Err: err}
	}

	if err := unix.Chdir("/"); err != nil {
		return &SyscallError{Op: "chdir / after pivot_root", Err: err}
	}

	oldRootAfterPivot := "/" + oldRootRel
	if err := unix.Unmount(oldRootAfterPivot, unix.MNT_DETACH); err != nil {
		return &SyscallError{Op: "detach old root", Err: err}
	}
	os.Remove(oldRootAfterPivot)

	return nil
}

// applyMount binds m.Source onto destination (resolved under root), then
// remounts read-only in a second pass when the caller asked for OptRO —
// the kernel refuses MS_BIND and MS_RDONLY in a single mount(2) call, so
// a bind mount that needs to end up read-only always takes this two-step
// bind-then-remount form.
func applyMount(root string, m Mount) error {
	dest := filepath.Join(root, m.Destination)
	if err := os.MkdirAll(dest, 0755); err != nil {
		return &SyscallError{Op: "mkdir mount destination " + m.Destination, Err: err}
	}

	var flags uintptr
	ro := false
	for _, o := range m.Options {
		switch o {
		case OptBind:
			flags |= unix.MS_BIND
		case OptRBind:
			flags |= unix.MS_BIND | unix.MS_REC
		case OptRO:
			ro = true
		}
	}

	source := m.Source
	if source == "" {
		source = dest
	}
	if err := unix.Mount(source, dest, m.Type, flags, ""); err != nil {
		return &SyscallError{Op: "mount " + m.Destination, Err: err}
	}

	if ro {
		remountFlags := flags | unix.MS_REMOUNT | unix.MS_RDONLY
		if err := unix.Mount(source, dest, m.Type, remountFlags, ""); err != nil {
			return &SyscallError{Op: "remount read-only " + m.Destination, Err: err}
		}
	}

	return nil
}

// resolveChildBinary finds the absolute path to the child program inside
// the (already pivoted-to) new root, searching PATH when name has no
// directory component, mirroring exec.LookPath's behavior since syscall.Exec
// (unlike os/exec) does no PATH resolution of its own.
func resolveChildBinary(name string) (string, error) {
	if filepath.IsAbs(name) || filepath.Base(name) != name {
		return name, nil
	}
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("box: %q not found in PATH", name)
}
