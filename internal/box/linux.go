//go:build linux

package box

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// initCommand is the hidden subcommand name main() dispatches to RunInit
// before falling through to normal CLI parsing — the re-exec wrapper
// trick needed because mount/pivot_root must run from inside the new
// namespace, as the first thing the child process does.
const initCommand = "__box_init__"

// wireConfig is what Spawn marshals into the wrapper's argv so the
// re-exec'd copy of the binary knows what to mount and pivot to. Kept
// separate from Config because Cwd/Args travel alongside it.
type wireConfig struct {
	Root   string   `json:"root"`
	Mounts []Mount  `json:"mounts"`
	Cwd    string   `json:"cwd,omitempty"`
	Args   []string `json:"args"`
}

// Process is a live or exited sandboxed child, returned by Spawn.
type Process struct {
	Pid    int
	Stdin  io.WriteCloser
	Stdout io.ReadCloser
	Stderr io.ReadCloser

	cmd   *exec.Cmd
	pidfd int
	cg    *cgroup

	done     chan struct{}
	exitCode int
}

// Spawn launches args[0] inside a fresh set of namespaces rooted at
// cfg.Root, with the given mounts applied and cgroup limits enforced.
// cwd is resolved inside the new root.
func Spawn(ctx context.Context, args []string, cfg Config, cwd string, stdinSpec, stdoutSpec, stderrSpec Stdio) (*Process, error) {
	if cfg.Root == "" {
		return nil, &ConfigError{Msg: "box root is required"}
	}

	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("box: resolve own executable: %w", err)
	}

	payload, err := json.Marshal(wireConfig{Root: cfg.Root, Mounts: cfg.Mounts, Cwd: cwd, Args: args})
	if err != nil {
		return nil, fmt.Errorf("box: marshal wrapper config: %w", err)
	}

	cmd := exec.CommandContext(ctx, self, initCommand, string(payload))

	stdinW, childStdin, err := stdinEnds(stdinSpec)
	if err != nil {
		return nil, err
	}
	cmd.Stdin = childStdin

	stdoutR, childStdout, err := outEnds(stdoutSpec, os.Stdout)
	if err != nil {
		return nil, err
	}
	cmd.Stdout = childStdout

	stderrR, childStderr, err := outEnds(stderrSpec, os.Stderr)
	if err != nil {
		return nil, err
	}
	cmd.Stderr = childStderr

	cg, err := newCgroup(cfg)
	if err != nil {
		return nil, err
	}
	releaseCgroupOnErr := true
	defer func() {
		if releaseCgroupOnErr {
			cg.release()
		}
	}()

	uid := os.Getuid()
	gid := os.Getgid()
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: syscall.CLONE_NEWCGROUP | syscall.CLONE_NEWIPC | syscall.CLONE_NEWNET |
			syscall.CLONE_NEWNS | syscall.CLONE_NEWPID | syscall.CLONE_NEWUSER | syscall.CLONE_NEWUTS,
		UseCgroupFD: true,
		CgroupFD:    cg.pathFD,
		UidMappings: []syscall.SysProcIDMap{{ContainerID: 0, HostID: uid, Size: 1}},
		GidMappings: []syscall.SysProcIDMap{{ContainerID: 0, HostID: gid, Size: 1}},
	}

	if err := cmd.Start(); err != nil {
		closeIfFile(childStdin)
		closeIfFile(childStdout)
		closeIfFile(childStderr)
		return nil, &SyscallError{Op: "clone/exec wrapper", Err: err}
	}
	releaseCgroupOnErr = false

	// The child's copies live on in the kernel via the fork; the parent's
	// handle to them is no longer needed once Start has dup'd them in.
	closeIfFile(childStdin)
	closeIfFile(childStdout)
	closeIfFile(childStderr)

	pidfd, err := unix.PidfdOpen(cmd.Process.Pid, 0)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		cg.release()
		return nil, &SyscallError{Op: "pidfd_open", Err: err}
	}

	p := &Process{
		Pid:    cmd.Process.Pid,
		Stdin:  stdinW,
		Stdout: stdoutR,
		Stderr: stderrR,
		cmd:    cmd,
		pidfd:  pidfd,
		cg:     cg,
		done:   make(chan struct{}),
	}
	go p.waitLoop()
	return p, nil
}

// waitLoop reaps the child with the stdlib's own wait4-based machinery
// (exec.Cmd.Wait), translating the result into an exit-code convention:
// the process's exit status, or the negated signal number if it died
// from a signal.
func (p *Process) waitLoop() {
	err := p.cmd.Wait()
	code := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
				code = -int(ws.Signal())
			} else {
				code = exitErr.ExitCode()
			}
		} else {
			code = -1
		}
	}
	p.exitCode = code
	unix.Close(p.pidfd)
	p.pidfd = -1
	p.cg.release()
	close(p.done)
}

func closeIfFile(f *os.File) {
	if f != nil {
		f.Close()
	}
}

// stdinEnds resolves the parent-facing writer (nil unless Piped) and the
// *os.File to hand to exec.Cmd.Stdin.
func stdinEnds(spec Stdio) (parent io.WriteCloser, child *os.File, err error) {
	switch spec.Mode {
	case Inherit:
		return nil, os.Stdin, nil
	case Nulled:
		f, err := os.OpenFile(os.DevNull, os.O_RDONLY, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("box: open %s: %w", os.DevNull, err)
		}
		return nil, f, nil
	case FD:
		return nil, os.NewFile(uintptr(spec.FD), "stdin-fd"), nil
	case Piped:
		r, w, err := os.Pipe()
		if err != nil {
			return nil, nil, fmt.Errorf("box: pipe: %w", err)
		}
		return w, r, nil
	default:
		return nil, nil, fmt.Errorf("box: unknown stdio mode %d", spec.Mode)
	}
}

// outEnds resolves the parent-facing reader (nil unless Piped) and the
// *os.File to hand to exec.Cmd.Stdout/Stderr. inheritFrom is the parent's
// own stream to reuse for Inherit mode.
func outEnds(spec Stdio, inheritFrom *os.File) (parent io.ReadCloser, child *os.File, err error) {
	switch spec.Mode {
	case Inherit:
		return nil, inheritFrom, nil
	case Nulled:
		f, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("box: open %s: %w", os.DevNull, err)
		}
		return nil, f, nil
	case FD:
		return nil, os.NewFile(uintptr(spec.FD), "out-fd"), nil
	case Piped:
		r, w, err := os.Pipe()
		if err != nil {
			return nil, nil, fmt.Errorf("box: pipe: %w", err)
		}
		return r, w, nil
	default:
		return nil, nil, fmt.Errorf("box: unknown stdio mode %d", spec.Mode)
	}
}

// Poll returns the exit code if the process has already exited, or
// (nil, nil) if it's still running.
func (p *Process) Poll() (*int, error) {
	select {
	case <-p.done:
		code := p.exitCode
		return &code, nil
	default:
		return nil, nil
	}
}

// Wait blocks (honoring timeout, if positive) for the process to exit and
// returns its exit code: the exit status, or -signal for a signal kill.
func (p *Process) Wait(timeout time.Duration) (*int, error) {
	if timeout <= 0 {
		<-p.done
		code := p.exitCode
		return &code, nil
	}
	select {
	case <-p.done:
		code := p.exitCode
		return &code, nil
	case <-time.After(timeout):
		return nil, nil
	}
}

// SendSignal delivers sig to the sandboxed process via its pidfd, which is
// immune to the PID-reuse race a plain kill(2) by pid would have.
func (p *Process) SendSignal(sig unix.Signal) error {
	select {
	case <-p.done:
		return nil
	default:
	}
	if err := unix.PidfdSendSignal(p.pidfd, sig, nil, 0); err != nil {
		return &SyscallError{Op: "pidfd_send_signal", Err: err}
	}
	return nil
}

func (p *Process) Terminate() error { return p.SendSignal(unix.SIGTERM) }
func (p *Process) Kill() error      { return p.SendSignal(unix.SIGKILL) }

// Close releases, in order, the pipe endpoints, the pidfd, and the
// cgroup directory (the latter two via waitLoop once the child exits).
// Idempotent.
func (p *Process) Close() error {
	var firstErr error
	if p.Stdin != nil {
		if err := p.Stdin.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.Stdin = nil
	}
	if p.Stdout != nil {
		if err := p.Stdout.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.Stdout = nil
	}
	if p.Stderr != nil {
		if err := p.Stderr.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.Stderr = nil
	}
	p.Wait(-1)
	return firstErr
}

var _ = bufio.NewReader // consumers wrap Stdout/Stderr with bufio.Scanner
