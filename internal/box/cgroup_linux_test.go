//go:build linux

package box

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteLimitSkipsSentinel(t *testing.T) {
	dir := t.TempDir()
	if err := writeLimit(dir, "pids.max", -1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "pids.max")); !os.IsNotExist(err) {
		t.Fatalf("expected no file written for sentinel limit, stat err = %v", err)
	}
}

func TestWriteLimitWritesValue(t *testing.T) {
	dir := t.TempDir()
	if err := writeLimit(dir, "memory.max", 134217728); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "memory.max"))
	if err != nil {
		t.Fatalf("read memory.max: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "134217728" {
		t.Errorf("memory.max = %q, want 134217728", got)
	}
}

func TestWriteLimitMissingDirReturnsSyscallError(t *testing.T) {
	err := writeLimit("/nonexistent/path/for/dixjudge/test", "pids.max", 64)
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
	var se *SyscallError
	if !asSyscallError(err, &se) {
		t.Errorf("expected *SyscallError, got %T: %v", err, err)
	}
}

func asSyscallError(err error, target **SyscallError) bool {
	if se, ok := err.(*SyscallError); ok {
		*target = se
		return true
	}
	return false
}

func TestCgroupReleaseNilSafe(t *testing.T) {
	var c *cgroup
	if err := c.release(); err != nil {
		t.Errorf("nil cgroup release should be a no-op, got: %v", err)
	}
}
