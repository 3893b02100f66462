package seat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"

	"github.com/ehrlich-b/dixjudge/internal/box"
	"github.com/ehrlich-b/dixjudge/internal/logger"
	"github.com/ehrlich-b/dixjudge/internal/wire"
)

// childHandle is the narrow surface Subprocess needs from whatever is
// actually running the bot — either a sandboxed *box.Process or a plain
// *exec.Cmd, so the sandbox stays opt-in.
type childHandle interface {
	stdin() io.WriteCloser
	stdout() io.ReadCloser
	stderr() io.ReadCloser
	awaitExit() error
}

// Subprocess is the bot-facing seat: it owns one child process and one
// background stderr-forwarder task.
type Subprocess struct {
	index int
	desc  string
	child childHandle

	stdin   io.WriteCloser
	scanner *bufio.Scanner

	forwarderDone chan struct{}
}

// NewSandboxed spawns a bot inside a sandbox rooted at boxCfg.Root, with
// the default mount botDir → /bot (rbind, ro) plus any extra mounts the
// operator configured. entrypoint is the command to run, expressed
// relative to /bot (e.g. "run.sh"); extraArgs are passed through
// unchanged.
func NewSandboxed(ctx context.Context, index int, botDir, entrypoint string, boxCfg box.Config, extraArgs ...string) (*Subprocess, error) {
	mounts := append([]box.Mount{
		{Destination: "/bot", Source: botDir, Options: []string{box.OptRBind, box.OptRO}},
	}, boxCfg.Mounts...)
	cfg := boxCfg
	cfg.Mounts = mounts

	childArgs := append([]string{filepath.Join("/bot", entrypoint)}, extraArgs...)
	proc, err := box.Spawn(ctx, childArgs, cfg, "/bot",
		box.Stdio{Mode: box.Piped}, box.Stdio{Mode: box.Piped}, box.Stdio{Mode: box.Piped})
	if err != nil {
		return nil, fmt.Errorf("seat %d: spawn sandboxed bot: %w", index, err)
	}
	return newSubprocess(index, fmt.Sprintf("sandboxed(%s)", filepath.Join(botDir, entrypoint)), &boxChild{proc})
}

// NewUnboxed runs botPath directly, with stdio piped but no namespace
// isolation — the unsandboxed path implied by the CLI's optional
// `--box` flag.
func NewUnboxed(ctx context.Context, index int, args []string) (*Subprocess, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("seat %d: stdin pipe: %w", index, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("seat %d: stdout pipe: %w", index, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("seat %d: stderr pipe: %w", index, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("seat %d: start bot: %w", index, err)
	}
	return newSubprocess(index, fmt.Sprintf("unboxed(%s)", args[0]), &cmdChild{cmd, stdin, stdout, stderr})
}

func newSubprocess(index int, desc string, child childHandle) (*Subprocess, error) {
	scanner := bufio.NewScanner(child.stdout())
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	s := &Subprocess{
		index:         index,
		desc:          desc,
		child:         child,
		stdin:         child.stdin(),
		scanner:       scanner,
		forwarderDone: make(chan struct{}),
	}
	go s.forwardStderr()
	return s, nil
}

// forwardStderr tees the child's stderr, line by line, to the seat's log
// sink until EOF.
func (s *Subprocess) forwardStderr() {
	defer close(s.forwarderDone)
	log := logger.Seat(s.index)
	scanner := bufio.NewScanner(s.child.stderr())
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for scanner.Scan() {
		log.Info("bot stderr", "line", scanner.Text())
	}
}

func (s *Subprocess) String() string {
	return fmt.Sprintf("seat %d: %s", s.index, s.desc)
}

func (s *Subprocess) Send(ctx context.Context, cmd wire.Command) error {
	_, err := fmt.Fprintf(s.stdin, "%s\n", wire.WriteCommand(cmd))
	return err
}

func (s *Subprocess) Receive(ctx context.Context) (string, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.scanner.Text(), nil
}

func (s *Subprocess) Communicate(ctx context.Context, cmd wire.Command) (string, error) {
	return communicate(ctx,
		func(ctx context.Context) error { return s.Send(ctx, cmd) },
		s.Receive,
	)
}

// Close awaits the child's natural exit and the stderr-forwarder task;
// it does not kill the child — termination is expected to follow the
// `end` protocol command.
func (s *Subprocess) Close() error {
	err := s.child.awaitExit()
	<-s.forwarderDone
	return err
}

// boxChild adapts *box.Process to childHandle.
type boxChild struct{ p *box.Process }

func (b *boxChild) stdin() io.WriteCloser  { return b.p.Stdin }
func (b *boxChild) stdout() io.ReadCloser  { return b.p.Stdout }
func (b *boxChild) stderr() io.ReadCloser  { return b.p.Stderr }
func (b *boxChild) awaitExit() error {
	if _, err := b.p.Wait(-1); err != nil {
		return err
	}
	return b.p.Close()
}

// cmdChild adapts a plain *exec.Cmd with piped stdio to childHandle.
type cmdChild struct {
	cmd    *exec.Cmd
	in     io.WriteCloser
	out    io.ReadCloser
	errOut io.ReadCloser
}

func (c *cmdChild) stdin() io.WriteCloser { return c.in }
func (c *cmdChild) stdout() io.ReadCloser { return c.out }
func (c *cmdChild) stderr() io.ReadCloser { return c.errOut }
func (c *cmdChild) awaitExit() error      { return c.cmd.Wait() }
