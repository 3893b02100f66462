//go:build linux

package box

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// cgroup represents one box's exclusive cgroup v2 directory, created
// under the caller's user-slice delegation hierarchy at
// user.slice/user-<uid>.slice/user@<uid>.service/box-<uuid>.
type cgroup struct {
	path string
	// pathFD is the O_PATH descriptor passed to the clone so the child
	// starts inside this cgroup atomically (no race where the child runs
	// briefly outside the limits before being moved in).
	pathFD int
}

// newCgroup creates the per-box cgroup directory and applies the
// configured limits. Returns a *ConfigError if the delegated
// sub-hierarchy doesn't exist or isn't writable by the caller.
func newCgroup(cfg Config) (*cgroup, error) {
	uid := os.Getuid()
	userRoot := filepath.Join(
		"/sys/fs/cgroup",
		"user.slice",
		fmt.Sprintf("user-%d.slice", uid),
		fmt.Sprintf("user@%d.service", uid),
	)
	if _, err := os.Stat(userRoot); err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("cgroup delegation root %s missing or inaccessible: %v", userRoot, err)}
	}

	boxPath := filepath.Join(userRoot, "box-"+uuid.NewString())
	if err := os.Mkdir(boxPath, 0755); err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("create cgroup dir %s: %v", boxPath, err)}
	}

	if err := writeLimit(boxPath, "pids.max", cfg.TasksLimit); err != nil {
		os.Remove(boxPath)
		return nil, err
	}
	if err := writeLimit(boxPath, "memory.max", cfg.RAMLimit); err != nil {
		os.Remove(boxPath)
		return nil, err
	}
	if err := writeLimit(boxPath, "memory.swap.max", cfg.SwapLimit); err != nil {
		os.Remove(boxPath)
		return nil, err
	}

	fd, err := unix.Open(boxPath, unix.O_PATH, 0)
	if err != nil {
		os.Remove(boxPath)
		return nil, &SyscallError{Op: "open(O_PATH) cgroup dir", Err: err}
	}

	return &cgroup{path: boxPath, pathFD: fd}, nil
}

// writeLimit writes a cgroup control file, skipping entirely when limit
// is -1 (the "no limit" sentinel).
func writeLimit(boxPath, file string, limit int64) error {
	if limit == -1 {
		return nil
	}
	p := filepath.Join(boxPath, file)
	if err := os.WriteFile(p, []byte(strconv.FormatInt(limit, 10)), 0644); err != nil {
		return &SyscallError{Op: "write " + file, Err: err}
	}
	return nil
}

// release removes the cgroup directory. Must be called only after the
// child has been reaped — rmdir fails while any task remains a member.
func (c *cgroup) release() error {
	if c == nil {
		return nil
	}
	var firstErr error
	if c.pathFD != -1 {
		if err := unix.Close(c.pathFD); err != nil {
			firstErr = &SyscallError{Op: "close cgroup pathfd", Err: err}
		}
		c.pathFD = -1
	}
	if err := os.Remove(c.path); err != nil && firstErr == nil {
		firstErr = &SyscallError{Op: "rmdir cgroup", Err: err}
	}
	return firstErr
}
