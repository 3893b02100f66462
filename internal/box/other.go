//go:build !linux

package box

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sys/unix"
)

// Process mirrors the Linux type's exported surface so callers can build
// on non-Linux platforms; every method except Close reports unsupported.
type Process struct {
	Pid    int
	Stdin  io.WriteCloser
	Stdout io.ReadCloser
	Stderr io.ReadCloser
}

// Spawn is only supported on Linux: the sandbox is built on Linux
// namespaces, cgroup v2, and pivot_root, none of which exist elsewhere.
func Spawn(ctx context.Context, args []string, cfg Config, cwd string, stdinSpec, stdoutSpec, stderrSpec Stdio) (*Process, error) {
	return nil, fmt.Errorf("box: sandboxing is only supported on Linux")
}

func (p *Process) Poll() (*int, error)                { return nil, fmt.Errorf("box: unsupported") }
func (p *Process) Wait(time.Duration) (*int, error)    { return nil, fmt.Errorf("box: unsupported") }
func (p *Process) SendSignal(unix.Signal) error        { return fmt.Errorf("box: unsupported") }
func (p *Process) Terminate() error                    { return fmt.Errorf("box: unsupported") }
func (p *Process) Kill() error                         { return fmt.Errorf("box: unsupported") }
func (p *Process) Close() error                        { return nil }

// IsInitInvocation is always false on non-Linux builds.
func IsInitInvocation(args []string) bool { return false }

// RunInit is only supported on Linux.
func RunInit(args []string) error {
	return fmt.Errorf("box: %s is only supported on Linux", "__box_init__")
}
