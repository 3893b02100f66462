// Package box implements a Linux-specific sandbox: it launches a child
// process inside a fresh set of namespaces, pivots its root filesystem to
// an operator-supplied directory, and places it in a cgroup with
// configurable resource limits.
package box

import (
	"fmt"
)

// Mount describes one filesystem mount applied inside the sandbox before
// the child's root is pivoted.
type Mount struct {
	Destination string
	Source      string // empty means an anonymous mount of Type (e.g. tmpfs)
	Type        string // "none" for a bind mount
	Options     []string
}

const (
	OptBind  = "bind"
	OptRBind = "rbind"
	OptRO    = "ro"
)

// Config holds sandbox creation parameters: everything needed to build a
// namespaced, cgroup-limited, chroot-pivoted child.
type Config struct {
	Root       string
	Mounts     []Mount
	TasksLimit int64 // pids.max, or -1 for no limit
	RAMLimit   int64 // memory.max, or -1 for no limit
	SwapLimit  int64 // memory.swap.max, or -1 for no limit
}

// StdioMode selects how one of the child's standard streams is wired.
type StdioMode int

const (
	Inherit StdioMode = iota
	Piped
	Nulled
	FD
)

// Stdio describes one standard stream's handling for Spawn.
type Stdio struct {
	Mode StdioMode
	FD   int // only consulted when Mode == FD
}

// SyscallError wraps a failed sandbox-setup syscall with the operation
// name that failed.
type SyscallError struct {
	Op  string
	Err error
}

func (e *SyscallError) Error() string {
	return fmt.Sprintf("box: %s: %v", e.Op, e.Err)
}

func (e *SyscallError) Unwrap() error { return e.Err }

// ConfigError reports a prerequisite the operator failed to satisfy (e.g.
// the cgroup v2 delegation hierarchy doesn't exist or isn't writable).
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "box: " + e.Msg }
